// Package permission provides gates for the background location permission
// a tracking session needs before it can start.
package permission

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Status is the answer to a permission request.
type Status int

const (
	Granted Status = iota
	Denied
	// PermanentlyDenied means the user must change the setting in the system
	// settings; asking again is pointless.
	PermanentlyDenied
)

func (s Status) String() string {
	switch s {
	case Granted:
		return "granted"
	case Denied:
		return "denied"
	case PermanentlyDenied:
		return "permanently_denied"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// ParseStatus parses the config spelling of a status.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "granted", "":
		return Granted, nil
	case "denied":
		return Denied, nil
	case "permanently_denied":
		return PermanentlyDenied, nil
	}
	return Denied, fmt.Errorf("unknown permission status: %q", s)
}

// SettingsHint is shown when the permission has been permanently denied.
const SettingsHint = "Background location permission is permanently denied. Enable it in the system settings to record routes."

// Static always answers with the same status.
type Static struct {
	status Status
}

// NewStatic creates a gate with a fixed answer.
func NewStatic(status Status) *Static {
	return &Static{status: status}
}

// Granted reports whether the fixed status is Granted.
func (s *Static) Granted() bool {
	return s.status == Granted
}

// Request returns the fixed status.
func (s *Static) Request(ctx context.Context) (Status, error) {
	if err := ctx.Err(); err != nil {
		return Denied, err
	}
	return s.status, nil
}

// DefaultMaxDenials is how many refusals a Prompt accepts before treating the
// permission as permanently denied.
const DefaultMaxDenials = 2

// Prompt asks for the permission on a terminal.
type Prompt struct {
	in         *bufio.Reader
	out        io.Writer
	maxDenials int
	logger     zerolog.Logger

	mu        sync.Mutex
	granted   bool
	denials   int
	permanent bool
}

// NewPrompt creates a terminal prompt gate.
func NewPrompt(in io.Reader, out io.Writer, maxDenials int, logger zerolog.Logger) *Prompt {
	if maxDenials <= 0 {
		maxDenials = DefaultMaxDenials
	}
	return &Prompt{
		in:         bufio.NewReader(in),
		out:        out,
		maxDenials: maxDenials,
		logger:     logger.With().Str("component", "permission").Logger(),
	}
}

// Granted reports whether the user already allowed background location.
func (p *Prompt) Granted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.granted
}

// Request asks the user once and records the answer.
func (p *Prompt) Request(ctx context.Context) (Status, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.granted {
		return Granted, nil
	}
	if p.permanent {
		return PermanentlyDenied, nil
	}

	_, _ = fmt.Fprint(p.out, "This app can't work without Background Location Permission... Allow? [y/N]: ")

	answer, err := p.readLine(ctx)
	if err != nil {
		return Denied, err
	}

	switch strings.ToLower(answer) {
	case "y", "yes":
		p.granted = true
		p.logger.Info().Msg("Background location permission granted")
		return Granted, nil
	}

	p.denials++
	if p.denials >= p.maxDenials {
		p.permanent = true
		p.logger.Warn().Int("denials", p.denials).Msg("Background location permission permanently denied")
		return PermanentlyDenied, nil
	}

	p.logger.Info().Int("denials", p.denials).Msg("Background location permission denied")
	return Denied, nil
}

func (p *Prompt) readLine(ctx context.Context) (string, error) {
	type result struct {
		line string
		err  error
	}

	ch := make(chan result, 1)
	go func() {
		line, err := p.in.ReadString('\n')
		if err == io.EOF && line != "" {
			err = nil
		}
		ch <- result{line: strings.TrimSpace(line), err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return "", fmt.Errorf("failed to read permission answer: %w", r.err)
		}
		return r.line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

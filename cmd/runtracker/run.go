package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/goodtune/runtracker/internal/config"
	"github.com/goodtune/runtracker/internal/notification"
	"github.com/goodtune/runtracker/internal/permission"
	"github.com/goodtune/runtracker/internal/tracking"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Track sessions from an interactive console",
	Long: `Drive a tracking session from the terminal. Type start, stop, reset or status
and watch the countdown, the distance notification and the result as they happen.`,
	Example: `  runtracker run -c config.yaml
  RUNTRACKER_LOCATION_SOURCE=replay RUNTRACKER_LOCATION_REPLAY_FILE=route.json runtracker run`,
	RunE: runConsole,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runConsole(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	log.Logger = logger

	// The permission prompt and the command loop share one reader so
	// neither buffers input meant for the other.
	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	a, err := newApp(cfg, in, out, logger)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c := &console{
		out:        out,
		controller: a.controller,
	}

	sub := a.hub.Subscribe("console")
	a.start(ctx)
	go c.watch(ctx, sub)

	if cfg.Location.Source == "push" {
		_, _ = color.New(color.FgYellow).Fprintln(out, "Location source is push; samples only arrive through the HTTP API. Use serve, or set location.source to replay or redis.")
	}
	c.help()

	for {
		_, _ = fmt.Fprint(out, "> ")
		line, err := readLine(ctx, in)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				_, _ = fmt.Fprintln(out)
				return nil
			}
			return err
		}
		if !c.execute(ctx, line) {
			return nil
		}
	}
}

// readLine reads one line from in, giving up when ctx is done.
func readLine(ctx context.Context, in *bufio.Reader) (string, error) {
	type result struct {
		line string
		err  error
	}

	ch := make(chan result, 1)
	go func() {
		line, err := in.ReadString('\n')
		if err == io.EOF && line != "" {
			err = nil
		}
		ch <- result{line: strings.TrimSpace(line), err: err}
	}()

	select {
	case r := <-ch:
		return r.line, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// console renders session events and executes typed commands.
type console struct {
	out        io.Writer
	controller *tracking.Controller
}

func (c *console) help() {
	cyan := color.New(color.FgCyan, color.Bold)
	_, _ = cyan.Fprintln(c.out, "Commands: start, stop, reset, status, help, quit")
}

// execute runs one command line and reports whether the console should keep
// reading.
func (c *console) execute(ctx context.Context, line string) bool {
	red := color.New(color.FgRed)

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
	case "start":
		if err := c.controller.Start(ctx); err != nil {
			c.reportError(err)
		}
	case "stop":
		if _, err := c.controller.Stop(); err != nil {
			c.reportError(err)
		}
	case "reset":
		if err := c.controller.Reset(); err != nil {
			c.reportError(err)
		}
	case "status":
		c.status()
	case "help", "?":
		c.help()
	case "quit", "exit", "q":
		return false
	default:
		_, _ = red.Fprintf(c.out, "Unknown command: %s\n", line)
		c.help()
	}
	return true
}

func (c *console) reportError(err error) {
	red := color.New(color.FgRed)

	switch {
	case errors.Is(err, tracking.ErrPermissionPermanentlyDenied):
		_, _ = red.Fprintln(c.out, permission.SettingsHint)
	case errors.Is(err, tracking.ErrPermissionDenied):
		_, _ = red.Fprintln(c.out, "Background location permission denied")
	case tracking.IsInvalidTransition(err):
		_, _ = red.Fprintf(c.out, "Not allowed while %s\n", c.controller.Snapshot().Phase)
	default:
		_, _ = red.Fprintf(c.out, "Error: %v\n", err)
	}
}

func (c *console) status() {
	snap := c.controller.Snapshot()
	_, distance := tracking.RouteDistance(snap.Route)

	_, _ = fmt.Fprintf(c.out, "Phase:    %s\n", snap.Phase)
	if snap.SessionID != "" {
		_, _ = fmt.Fprintf(c.out, "Session:  %s\n", snap.SessionID)
	}
	_, _ = fmt.Fprintf(c.out, "Points:   %d\n", len(snap.Route))
	_, _ = fmt.Fprintf(c.out, "Distance: %skm\n", distance)
	if snap.Result != nil {
		_, _ = fmt.Fprintf(c.out, "Time:     %s\n", snap.Result.Time)
	}
}

// watch prints events from sub until ctx is done or the subscription closes.
func (c *console) watch(ctx context.Context, sub *tracking.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			c.show(ev)
		}
	}
}

func (c *console) show(ev tracking.Event) {
	bold := color.New(color.FgYellow, color.Bold)
	faint := color.New(color.Faint)

	switch ev.Type {
	case tracking.EventCountdownTick:
		_, _ = bold.Fprintf(c.out, "%s\n", tracking.CountdownLabel(ev.Remaining))
	case tracking.EventPhaseChanged:
		_, _ = faint.Fprintf(c.out, "[%s -> %s]\n", ev.Previous, ev.Phase)
		if ev.Phase == tracking.PhaseStopped {
			_, _ = faint.Fprintln(c.out, "Calculating result...")
		}
	case tracking.EventRouteUpdated:
		if ev.Phase != tracking.PhaseTracking {
			return
		}
		_, distance := tracking.RouteDistance(ev.Route)
		_, _ = fmt.Fprintf(c.out, "%s: %skm\n", notification.Title, distance)
	}
}

package permission

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestStatic(t *testing.T) {
	granted := NewStatic(Granted)
	if !granted.Granted() {
		t.Fatalf("expected granted gate")
	}

	denied := NewStatic(PermanentlyDenied)
	if denied.Granted() {
		t.Fatalf("expected denied gate")
	}
	status, err := denied.Request(context.Background())
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if status != PermanentlyDenied {
		t.Fatalf("expected permanently denied, got %s", status)
	}
}

func TestPromptGranted(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompt(strings.NewReader("y\n"), &out, 2, zerolog.Nop())

	if p.Granted() {
		t.Fatalf("expected not granted before prompting")
	}
	status, err := p.Request(context.Background())
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if status != Granted || !p.Granted() {
		t.Fatalf("expected granted, got %s", status)
	}
	if !strings.Contains(out.String(), "Background Location Permission") {
		t.Errorf("expected prompt text, got %q", out.String())
	}
}

func TestPromptPermanentlyDeniedAfterMaxDenials(t *testing.T) {
	p := NewPrompt(strings.NewReader("n\nno\ny\n"), &bytes.Buffer{}, 2, zerolog.Nop())

	status, err := p.Request(context.Background())
	if err != nil || status != Denied {
		t.Fatalf("expected denied, got %s (%v)", status, err)
	}
	status, err = p.Request(context.Background())
	if err != nil || status != PermanentlyDenied {
		t.Fatalf("expected permanently denied, got %s (%v)", status, err)
	}
	// Further requests do not prompt again.
	status, _ = p.Request(context.Background())
	if status != PermanentlyDenied {
		t.Fatalf("expected permanently denied to stick, got %s", status)
	}
}

func TestPromptEOF(t *testing.T) {
	p := NewPrompt(strings.NewReader(""), &bytes.Buffer{}, 2, zerolog.Nop())
	if _, err := p.Request(context.Background()); err == nil {
		t.Fatalf("expected error on closed input")
	}
}

func TestParseStatus(t *testing.T) {
	tests := map[string]Status{
		"granted":            Granted,
		"Denied":             Denied,
		"permanently_denied": PermanentlyDenied,
	}
	for in, want := range tests {
		got, err := ParseStatus(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if got != want {
			t.Errorf("parse %q: expected %s, got %s", in, want, got)
		}
	}
	if _, err := ParseStatus("maybe"); err == nil {
		t.Errorf("expected error for unknown status")
	}
}

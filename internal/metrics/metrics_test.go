package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestServerEndpoints(t *testing.T) {
	s := NewServer("127.0.0.1:0", zerolog.Nop())

	SessionTransitions.WithLabelValues("idle", "counting_down").Inc()
	EventsDropped.WithLabelValues("test").Inc()

	ts := httptest.NewServer(s.server.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "OK" {
		t.Fatalf("health = %d %q", resp.StatusCode, body)
	}

	resp, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()

	for _, want := range []string{
		`runtracker_session_transitions_total{from="idle",to="counting_down"}`,
		`runtracker_events_dropped_total{subscriber="test"}`,
		"runtracker_session_phase",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}

package metrics

import (
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// Session metrics
	SessionTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runtracker_session_transitions_total",
			Help: "Total session phase transitions",
		},
		[]string{"from", "to"},
	)

	RejectedTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runtracker_rejected_transitions_total",
			Help: "Operations rejected because of the current phase",
		},
		[]string{"operation", "phase"},
	)

	SessionPhase = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "runtracker_session_phase",
			Help: "Current session phase (0 idle, 1 counting down, 2 tracking, 3 stopped)",
		},
	)

	SessionDistance = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "runtracker_session_distance_km",
			Help:    "Reported distance of finished sessions in kilometers",
			Buckets: []float64{.1, .5, 1, 2, 5, 10, 21.1, 42.2, 100},
		},
	)

	SessionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "runtracker_session_duration_seconds",
			Help:    "Elapsed time of finished sessions in seconds",
			Buckets: []float64{60, 300, 900, 1800, 3600, 7200, 14400, 43200},
		},
	)

	// Location metrics
	LocationSamples = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runtracker_location_samples_total",
			Help: "Location samples received by the route accumulator",
		},
		[]string{"outcome"},
	)

	LocationThrottled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "runtracker_location_throttled_total",
			Help: "Location samples dropped for arriving faster than the fastest interval",
		},
	)

	ProviderErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runtracker_location_provider_errors_total",
			Help: "Location provider failures",
		},
		[]string{"provider"},
	)

	// Event metrics
	EventsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runtracker_events_dropped_total",
			Help: "Events dropped because a subscriber was not keeping up",
		},
		[]string{"subscriber"},
	)

	// Notification metrics
	NotificationDistance = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "runtracker_notification_distance_km",
			Help: "Distance currently shown in the tracking notification",
		},
	)

	// History metrics
	HistoryRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runtracker_history_records_total",
			Help: "Session results written to the history store",
		},
		[]string{"outcome"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(
		SessionTransitions,
		RejectedTransitions,
		SessionPhase,
		SessionDistance,
		SessionDuration,
		LocationSamples,
		LocationThrottled,
		ProviderErrors,
		EventsDropped,
		NotificationDistance,
		HistoryRecords,
	)
}

// Server is the metrics HTTP server
type Server struct {
	server   *http.Server
	logger   zerolog.Logger
	listener net.Listener // Optional pre-created listener (for systemd socket activation)
}

// NewServer creates a new metrics server
func NewServer(addr string, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// SetListener sets a pre-created listener for systemd socket activation
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start starts the metrics server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting metrics server")
	go func() {
		var err error
		if s.listener != nil {
			s.logger.Debug().Msg("Using systemd socket-activated metrics listener")
			err = s.server.Serve(s.listener)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
	return nil
}

// Stop stops the metrics server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping metrics server")
	return s.server.Close()
}

package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alireza787b/mavsdk-vtol-transition/pkg/logger"
)

var (
	// PhaseTransitions counts phase changes, partitioned by edge.
	PhaseTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vtol_transition_phase_changes_total",
		Help: "Total number of phase transitions",
	}, []string{"from", "to"})

	// CycleDuration tracks how long one control cycle takes in seconds.
	CycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "vtol_transition_cycle_duration_seconds",
		Help:    "Control loop cycle duration",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	})

	// FailsafeAborts counts triggered failsafe aborts, partitioned by reason.
	FailsafeAborts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vtol_transition_failsafe_aborts_total",
		Help: "Total number of failsafe aborts",
	}, []string{"reason"})

	// CommandRejections counts commands the vehicle refused.
	CommandRejections = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vtol_transition_command_rejections_total",
		Help: "Total number of rejected vehicle commands",
	})
)

func init() {
	prometheus.MustRegister(PhaseTransitions, CycleDuration, FailsafeAborts, CommandRejections)
}

// StatusFunc supplies the current run snapshot for the /status endpoint.
type StatusFunc func() any

// NewRouter builds the observability HTTP surface: prometheus metrics, a JSON
// run-status view, and a liveness probe.
func NewRouter(status StatusFunc) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(status()); err != nil {
			logger.Log.Error("status encode failed", "err", err)
		}
	})
	return r
}

// Init starts the observability server on addr and drains it once ctx is
// cancelled. An empty addr disables it.
func Init(ctx context.Context, addr string, status StatusFunc) {
	if addr == "" {
		return
	}
	srv := &http.Server{Addr: addr, Handler: NewRouter(status)}
	go func() {
		logger.Log.Info("Metrics server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Metrics server failed", "err", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Log.Warn("Metrics server shutdown", "err", err)
		}
	}()
}

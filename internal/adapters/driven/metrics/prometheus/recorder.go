// Package prometheus records pipeline metrics with the Prometheus client
// and serves them over HTTP.
package prometheus

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
	"github.com/custodia-labs/pricepilot/internal/core/ports/driven"
	"github.com/custodia-labs/pricepilot/internal/logger"
)

const namespace = "pricepilot"

// Ensure Recorder implements the interface.
var _ driven.MetricsRecorder = (*Recorder)(nil)

// Recorder implements driven.MetricsRecorder.
type Recorder struct {
	registry *prometheus.Registry

	runsTotal     *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	observations  *prometheus.CounterVec
	matches       *prometheus.CounterVec
	queryFailures *prometheus.CounterVec
	retryAttempts *prometheus.CounterVec
}

// NewRecorder registers the pipeline metrics on a fresh registry, along
// with the Go runtime and process collectors.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "collector",
				Name:      "runs_total",
				Help:      "Total number of vendor runs by terminal status",
			},
			[]string{"vendor_id", "status"},
		),
		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "collector",
				Name:      "run_duration_seconds",
				Help:      "Duration of vendor runs in seconds",
				Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
			},
			[]string{"vendor_id"},
		),
		observations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "observations_total",
				Help:      "Total number of observations applied by outcome",
			},
			[]string{"vendor_id", "outcome"},
		),
		matches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "matcher",
				Name:      "resolutions_total",
				Help:      "Total number of observations resolved to a product by outcome",
			},
			[]string{"outcome"},
		),
		queryFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "vendor",
				Name:      "query_failures_total",
				Help:      "Total number of vendor queries that failed after retries",
			},
			[]string{"vendor_id"},
		),
		retryAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "vendor",
				Name:      "retries_total",
				Help:      "Total number of retried vendor calls",
			},
			[]string{"vendor_id"},
		),
	}
}

// RunFinished records a terminal vendor run.
func (r *Recorder) RunFinished(vendorID string, status domain.RunStatus, duration time.Duration) {
	r.runsTotal.WithLabelValues(vendorID, string(status)).Inc()
	r.runDuration.WithLabelValues(vendorID).Observe(duration.Seconds())
}

// ObservationApplied records one ledger outcome.
func (r *Recorder) ObservationApplied(vendorID string, outcome domain.UpdateOutcome) {
	r.observations.WithLabelValues(vendorID, string(outcome)).Inc()
}

// MatchResolved records one matcher outcome.
func (r *Recorder) MatchResolved(outcome domain.MatchOutcome) {
	r.matches.WithLabelValues(string(outcome)).Inc()
}

// QueryFailed records a query that failed after retries.
func (r *Recorder) QueryFailed(vendorID string) {
	r.queryFailures.WithLabelValues(vendorID).Inc()
}

// RetryAttempted records a retried vendor call.
func (r *Recorder) RetryAttempted(vendorID string) {
	r.retryAttempts.WithLabelValues(vendorID).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (r *Recorder) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics: serving on %s/metrics", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

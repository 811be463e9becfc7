// Package metrics records Prometheus metrics for a single checker run.
//
// The checker is a short-lived job, so the collectors live in a private registry and are
// pushed to a Pushgateway at the end of the run when one is configured.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/pfrederiksen/staatsoper-tickets/internal/event"
)

const namespace = "staatsoper_tickets"

// Run results used as the "result" label
const (
	ResultTickets = "tickets"
	ResultNone    = "none"
	ResultError   = "error"
)

// Recorder holds the collectors of one run
type Recorder struct {
	registry *prometheus.Registry

	runs          *prometheus.CounterVec
	fetches       *prometheus.CounterVec
	available     prometheus.Gauge
	categories    prometheus.Gauge
	probeFailures prometheus.Counter
	duration      prometheus.Gauge
	lastSuccess   prometheus.Gauge
}

// New creates a Recorder with all collectors registered
func New() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.runs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Checker runs by result",
	}, []string{"result"})
	r.fetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "page_fetches_total",
		Help:      "Shop page fetches by page kind and status",
	}, []string{"page", "status"})
	r.available = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_available",
		Help:      "Events on the target date with purchasable tickets",
	})
	r.categories = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "categories_available",
		Help:      "Purchasable seating categories summed over all reported events",
	})
	r.probeFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "probe_failures_total",
		Help:      "Category probes that could not be completed",
	})
	r.duration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Wall time of the last run",
	})
	r.lastSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the last run that completed without error",
	})

	r.registry.MustRegister(
		r.runs, r.fetches, r.available, r.categories,
		r.probeFailures, r.duration, r.lastSuccess,
	)
	return r
}

// Registry exposes the underlying registry, mainly for tests
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveFetch counts one page fetch. status is "ok" or "error".
func (r *Recorder) ObserveFetch(page, status string) {
	r.fetches.WithLabelValues(page, status).Inc()
}

// ObserveReport records the outcome of a completed report
func (r *Recorder) ObserveReport(report *event.Report) {
	if report == nil {
		return
	}
	total := 0
	for _, item := range report.Items {
		total += len(item.Categories)
	}
	r.available.Set(float64(len(report.Items)))
	r.categories.Set(float64(total))
	r.probeFailures.Add(float64(report.ProbeFailures))
}

// ObserveRun records the run result and its duration
func (r *Recorder) ObserveRun(result string, d time.Duration) {
	r.runs.WithLabelValues(result).Inc()
	r.duration.Set(d.Seconds())
	if result != ResultError {
		r.lastSuccess.SetToCurrentTime()
	}
}

// Push sends all collected metrics to a Pushgateway under the given job name
func (r *Recorder) Push(ctx context.Context, gatewayURL, job string) error {
	if err := push.New(gatewayURL, job).Gatherer(r.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("pushing metrics: %w", err)
	}
	return nil
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the sync service.
// Services tolerate a nil *Metrics so tests can skip registration.
type Metrics struct {
	SyncResults   *prometheus.CounterVec
	WebhookEvents *prometheus.CounterVec

	IndexRebuilds        prometheus.Counter
	IndexRebuildFailures prometheus.Counter
	IndexSize            prometheus.Gauge

	DownstreamLatency *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on the default registry.
// Call at most once per process.
func New() *Metrics {
	return &Metrics{
		SyncResults: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldsync_sync_results_total",
			Help: "Sync outcomes by action (created, updated, skipped, error)",
		}, []string{"action"}),
		WebhookEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldsync_webhook_events_total",
			Help: "Webhook deliveries by event type and whether they were handled",
		}, []string{"event", "handled"}),
		IndexRebuilds: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fieldsync_contact_index_rebuilds_total",
			Help: "Total number of contact index rebuilds",
		}),
		IndexRebuildFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fieldsync_contact_index_rebuild_failures_total",
			Help: "Total number of failed contact index rebuilds",
		}),
		IndexSize: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "fieldsync_contact_index_size",
			Help: "Number of contacts in the current index snapshot",
		}),
		DownstreamLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fieldsync_downstream_latency_seconds",
			Help:    "Latency of downstream CRM calls by operation",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

// ObserveSyncResult records a single sync outcome.
func (m *Metrics) ObserveSyncResult(action string) {
	if m == nil {
		return
	}
	m.SyncResults.WithLabelValues(action).Inc()
}

// ObserveWebhookEvent records a webhook delivery.
func (m *Metrics) ObserveWebhookEvent(event string, handled bool) {
	if m == nil {
		return
	}
	label := "false"
	if handled {
		label = "true"
	}
	m.WebhookEvents.WithLabelValues(event, label).Inc()
}

// ObserveIndexRebuild records an index rebuild attempt.
func (m *Metrics) ObserveIndexRebuild(size int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.IndexRebuildFailures.Inc()
		return
	}
	m.IndexRebuilds.Inc()
	m.IndexSize.Set(float64(size))
}

// ObserveDownstreamLatency records the duration of a CRM call.
func (m *Metrics) ObserveDownstreamLatency(operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.DownstreamLatency.WithLabelValues(operation).Observe(d.Seconds())
}

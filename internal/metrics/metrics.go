package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	validationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_validations_total",
		Help: "Total number of validations by resulting severity and action",
	}, []string{"severity", "action"})
	findingsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_findings_total",
		Help: "Total number of findings reported per detection module",
	}, []string{"module"})
	moduleFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_module_failures_total",
		Help: "Detection module scans that errored, panicked or timed out",
	}, []string{"module"})
	validationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sentinel_validation_duration_seconds",
		Help:    "End-to-end validate latency",
		Buckets: []float64{.001, .0025, .005, .01, .02, .05, .1, .25, .5},
	})
	queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sentinel_queue_depth",
		Help: "Writes waiting in the async persistence queue",
	})
	queueJobsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_queue_jobs_total",
		Help: "Persistence jobs processed by outcome",
	}, []string{"status"})
	queueDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sentinel_queue_dropped_total",
		Help: "Persistence jobs rejected because the queue was full or closed",
	})
	notificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_notifications_total",
		Help: "Notification delivery attempts by channel and status",
	}, []string{"channel", "status"})
)

// Register registers Prometheus collectors. Call once at startup.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(
		validationsTotal,
		findingsTotal,
		moduleFailuresTotal,
		validationDuration,
		queueDepth,
		queueJobsTotal,
		queueDroppedTotal,
		notificationsTotal,
	)
}

// ObserveValidation records one completed validation.
func ObserveValidation(severity, action string, took time.Duration) {
	validationsTotal.WithLabelValues(severity, action).Inc()
	validationDuration.Observe(took.Seconds())
}

// AddFindings counts findings for a module.
func AddFindings(module string, n int) {
	if n > 0 {
		findingsTotal.WithLabelValues(module).Add(float64(n))
	}
}

// IncModuleFailure counts a failed module scan.
func IncModuleFailure(module string) { moduleFailuresTotal.WithLabelValues(module).Inc() }

// SetQueueDepth reports the current queue backlog.
func SetQueueDepth(n int) { queueDepth.Set(float64(n)) }

// IncQueueJob counts a processed job; status is "ok" or "error".
func IncQueueJob(status string) { queueJobsTotal.WithLabelValues(status).Inc() }

// IncQueueDropped counts a rejected enqueue.
func IncQueueDropped() { queueDroppedTotal.Inc() }

// IncNotification counts a channel delivery attempt; status is "success" or "failure".
func IncNotification(channel, status string) {
	notificationsTotal.WithLabelValues(channel, status).Inc()
}

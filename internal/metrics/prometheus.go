package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder backed by Prometheus collectors.
type PrometheusRecorder struct {
	registrations   *prometheus.CounterVec
	authFailures    prometheus.Counter
	quotaDecisions  *prometheus.CounterVec
	mailOps         *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	usageRecords    *prometheus.CounterVec
	usageBatchSize  prometheus.Histogram
}

// NewPrometheus creates a recorder and registers its collectors with reg.
func NewPrometheus(reg prometheus.Registerer) *PrometheusRecorder {
	r := &PrometheusRecorder{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailsmith_registrations_total",
			Help: "Registration requests, split by whether a new account was created.",
		}, []string{"created"}),
		authFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mailsmith_auth_failures_total",
			Help: "Requests rejected with an unauthorized response.",
		}),
		quotaDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailsmith_quota_decisions_total",
			Help: "Quota decisions, split by plan and outcome.",
		}, []string{"plan", "allowed"}),
		mailOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailsmith_mail_operations_total",
			Help: "Mail operations, split by operation and status.",
		}, []string{"op", "status"}),
		backendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mailsmith_backend_duration_seconds",
			Help:    "Latency of generative backend calls.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"op"}),
		usageRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailsmith_usage_records_total",
			Help: "Usage log records, split by publish status.",
		}, []string{"status"}),
		usageBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mailsmith_usage_log_batch_size",
			Help:    "Number of records per usage log flush.",
			Buckets: prometheus.LinearBuckets(1, 10, 10),
		}),
	}

	reg.MustRegister(
		r.registrations,
		r.authFailures,
		r.quotaDecisions,
		r.mailOps,
		r.backendDuration,
		r.usageRecords,
		r.usageBatchSize,
	)
	return r
}

// IncRegistration counts a registration request.
func (r *PrometheusRecorder) IncRegistration(created bool) {
	r.registrations.WithLabelValues(strconv.FormatBool(created)).Inc()
}

// IncAuthFailure counts an unauthorized rejection.
func (r *PrometheusRecorder) IncAuthFailure() {
	r.authFailures.Inc()
}

// IncQuotaDecision counts a quota decision.
func (r *PrometheusRecorder) IncQuotaDecision(plan string, allowed bool) {
	r.quotaDecisions.WithLabelValues(plan, strconv.FormatBool(allowed)).Inc()
}

// IncMailOp counts a mail operation outcome.
func (r *PrometheusRecorder) IncMailOp(op, status string) {
	r.mailOps.WithLabelValues(op, status).Inc()
}

// ObserveBackendDuration records backend call latency.
func (r *PrometheusRecorder) ObserveBackendDuration(op string, duration time.Duration) {
	r.backendDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// IncUsageRecordPublished counts a usage log record.
func (r *PrometheusRecorder) IncUsageRecordPublished(status string) {
	r.usageRecords.WithLabelValues(status).Inc()
}

// ObserveUsageLogBatchSize records a flush batch size.
func (r *PrometheusRecorder) ObserveUsageLogBatchSize(size int) {
	r.usageBatchSize.Observe(float64(size))
}

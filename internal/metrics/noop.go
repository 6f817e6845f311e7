package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncRegistration is a no-op.
func (n *NoopRecorder) IncRegistration(created bool) {}

// IncAuthFailure is a no-op.
func (n *NoopRecorder) IncAuthFailure() {}

// IncQuotaDecision is a no-op.
func (n *NoopRecorder) IncQuotaDecision(plan string, allowed bool) {}

// IncMailOp is a no-op.
func (n *NoopRecorder) IncMailOp(op, status string) {}

// ObserveBackendDuration is a no-op.
func (n *NoopRecorder) ObserveBackendDuration(op string, duration time.Duration) {}

// IncUsageRecordPublished is a no-op.
func (n *NoopRecorder) IncUsageRecordPublished(status string) {}

// ObserveUsageLogBatchSize is a no-op.
func (n *NoopRecorder) ObserveUsageLogBatchSize(size int) {}

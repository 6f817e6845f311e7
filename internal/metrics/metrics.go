// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the gateway.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Identity metrics
	IncRegistration(created bool) // created: new account vs existing
	IncAuthFailure()

	// Quota metrics
	IncQuotaDecision(plan string, allowed bool)

	// Mail operation metrics
	IncMailOp(op, status string) // status: "success" or "error"
	ObserveBackendDuration(op string, duration time.Duration)

	// Usage log pipeline metrics
	IncUsageRecordPublished(status string) // status: "success" or "dropped"
	ObserveUsageLogBatchSize(size int)
}

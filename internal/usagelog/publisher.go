// Package usagelog provides the asynchronous request-record pipeline.
//
// Handlers publish one record per completed mail operation; a worker
// batches records and flushes them to the durable store. The pipeline
// is strictly off the request critical path: publishing never blocks,
// and a full buffer drops the record rather than stalling a response.
package usagelog

import (
	"log/slog"
	"time"

	"github.com/mailsmith/mailsmith/internal/metrics"
)

// Record is one completed mail operation.
type Record struct {
	AccountID  string    `json:"account_id"`
	Op         string    `json:"op"`
	Status     string    `json:"status"`
	TokensUsed int       `json:"tokens_used"`
	DurationMS int64     `json:"duration_ms"`
	At         time.Time `json:"at"`
}

// defaultBufferSize bounds the in-flight records between publisher and
// worker.
const defaultBufferSize = 1024

// Publisher accepts records from request handlers.
type Publisher struct {
	ch      chan Record
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewPublisher creates a publisher with the given buffer size
// (0 means the default).
func NewPublisher(logger *slog.Logger, recorder metrics.Recorder, bufferSize int) *Publisher {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		ch:      make(chan Record, bufferSize),
		logger:  logger,
		metrics: recorder,
	}
}

// Publish enqueues a record without blocking. If the buffer is full the
// record is dropped and counted; usage accounting lives in the quota
// ledger, so a dropped log record loses observability only.
func (p *Publisher) Publish(rec Record) {
	select {
	case p.ch <- rec:
		p.metrics.IncUsageRecordPublished("success")
	default:
		p.metrics.IncUsageRecordPublished("dropped")
		p.logger.Warn("usage log buffer full, dropping record",
			slog.String("account_id", rec.AccountID),
			slog.String("op", rec.Op),
		)
	}
}

// Records exposes the consumption side for the worker.
func (p *Publisher) Records() <-chan Record {
	return p.ch
}

// Close stops the publisher. Publish must not be called after Close.
func (p *Publisher) Close() {
	close(p.ch)
}

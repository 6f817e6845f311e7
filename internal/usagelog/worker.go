package usagelog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mailsmith/mailsmith/internal/metrics"
	"github.com/mailsmith/mailsmith/internal/store"
)

const (
	defaultFlushInterval = 5 * time.Second
	defaultMaxBatchSize  = 100
)

// Worker consumes records and flushes them to the store in batches.
// Records land in one namespace per UTC day, so the log shares the
// ledger's windowing and can be shipped or pruned per day.
type Worker struct {
	store         store.Store
	records       <-chan Record
	logger        *slog.Logger
	metrics       metrics.Recorder
	flushInterval time.Duration
	maxBatchSize  int

	wg   sync.WaitGroup
	stop chan struct{}
}

// NewWorker creates a worker reading from the publisher's channel.
func NewWorker(s store.Store, records <-chan Record, logger *slog.Logger, recorder metrics.Recorder) *Worker {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Worker{
		store:         s,
		records:       records,
		logger:        logger,
		metrics:       recorder,
		flushInterval: defaultFlushInterval,
		maxBatchSize:  defaultMaxBatchSize,
		stop:          make(chan struct{}),
	}
}

// Start launches the worker goroutine.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.run()
}

// Shutdown stops the worker and waits for the final flush, bounded by ctx.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.stop)

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("usage log worker shutdown: %w", ctx.Err())
	}
}

func (w *Worker) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.flushInterval)
	defer ticker.Stop()

	batch := make([]Record, 0, w.maxBatchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		w.flush(batch)
		batch = batch[:0]
	}

	for {
		select {
		case rec, ok := <-w.records:
			if !ok {
				flush()
				return
			}
			batch = append(batch, rec)
			if len(batch) >= w.maxBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-w.stop:
			// Drain whatever is already buffered, then flush once.
			for {
				select {
				case rec, ok := <-w.records:
					if !ok {
						flush()
						return
					}
					batch = append(batch, rec)
				default:
					flush()
					return
				}
			}
		}
	}
}

// flush appends a batch to the current day's namespace. The worker is
// the only writer for oplog namespaces, so read-modify-save is safe.
func (w *Worker) flush(batch []Record) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Group by day so a batch spanning midnight lands correctly.
	byDay := make(map[string][]Record)
	for _, rec := range batch {
		day := rec.At.UTC().Format("2006-01-02")
		byDay[day] = append(byDay[day], rec)
	}

	for day, records := range byDay {
		namespace := store.NamespaceOpLog + "-" + day

		var existing []Record
		if _, err := w.store.Load(ctx, namespace, &existing); err != nil {
			w.logger.Error("usage log load failed",
				slog.String("namespace", namespace),
				slog.String("error", err.Error()),
			)
			continue
		}

		existing = append(existing, records...)
		if err := w.store.Save(ctx, namespace, existing); err != nil {
			w.logger.Error("usage log flush failed",
				slog.String("namespace", namespace),
				slog.Int("records", len(records)),
				slog.String("error", err.Error()),
			)
			continue
		}

		w.metrics.ObserveUsageLogBatchSize(len(records))
	}
}

package audit

import (
	"context"
	"log/slog"
	"time"
)

// Worker drains the ring buffer to a Store on a fixed interval. Store
// failures are counted and logged, never propagated; a circuit breaker stops
// hammering an unhealthy store.
type Worker struct {
	buffer        *RingBuffer
	store         Store
	breaker       *CircuitBreaker
	metrics       *Metrics
	logger        *slog.Logger
	flushInterval time.Duration
	batchSize     int

	lastDropped int64
}

func NewWorker(buffer *RingBuffer, store Store, breaker *CircuitBreaker, metrics *Metrics, logger *slog.Logger, flushInterval time.Duration, batchSize int) *Worker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if flushInterval <= 0 {
		flushInterval = time.Second
	}
	if batchSize <= 0 {
		batchSize = 64
	}
	return &Worker{
		buffer:        buffer,
		store:         store,
		breaker:       breaker,
		metrics:       metrics,
		logger:        logger,
		flushInterval: flushInterval,
		batchSize:     batchSize,
	}
}

func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Final drain with a bounded deadline so shutdown cannot hang
			// on a dead store.
			drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			w.Flush(drainCtx)
			cancel()
			return ctx.Err()
		case <-ticker.C:
			w.Flush(ctx)
		}
	}
}

// Flush drains everything currently buffered. Exported for tests and for the
// shutdown path.
func (w *Worker) Flush(ctx context.Context) {
	for {
		batch := w.buffer.DequeueBatch(w.batchSize)
		if len(batch) == 0 {
			break
		}
		for _, event := range batch {
			w.persist(ctx, event)
		}
	}
	if w.metrics != nil {
		// Reconcile the buffer's running drop total into the counter.
		if dropped := w.buffer.Dropped(); dropped > w.lastDropped {
			w.metrics.AddBufferDropped(float64(dropped - w.lastDropped))
			w.lastDropped = dropped
		}
		if w.breaker != nil {
			w.metrics.SetCircuitBreakerState(w.breaker.IsOpen())
		}
	}
}

func (w *Worker) persist(ctx context.Context, event Event) {
	if w.breaker != nil && !w.breaker.Allow() {
		if w.metrics != nil {
			w.metrics.IncCircuitBreakerDropped()
		}
		return
	}

	if err := w.store.Append(ctx, event); err != nil {
		if w.breaker != nil {
			w.breaker.RecordFailure()
		}
		if w.metrics != nil {
			w.metrics.IncPersistFailures()
		}
		w.logger.ErrorContext(ctx, "failed to persist audit event",
			"error", err,
			"event", string(event.EventType),
			"request_id", event.RequestID,
		)
		return
	}

	if w.breaker != nil {
		w.breaker.RecordSuccess()
	}
	if w.metrics != nil {
		w.metrics.IncPersisted()
	}
}

package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"go-gql-cache/internal/config"
	"go-gql-cache/internal/interfaces"
	"go-gql-cache/internal/metrics"
	"go-gql-cache/internal/models"
)

// MetadataFunc receives per-category rate limit statuses extracted from a
// combined response, so the owner can feed its rate limit monitor
type MetadataFunc func(map[string]models.RateLimitStatus)

// Scheduler accumulates individual GraphQL operations and flushes them as
// one combined network request when the size threshold is reached or the
// debounce delay elapses. A batch that is already in flight never grows:
// operations enqueued during a flush start a fresh batch.
type Scheduler struct {
	transport  interfaces.Transport
	size       int
	delay      time.Duration
	onMetadata MetadataFunc
	logger     *zap.Logger

	mu      sync.Mutex
	pending []*models.BatchOperation
	timer   *time.Timer
	closed  bool

	inflight sync.WaitGroup
}

// NewScheduler creates a new Scheduler instance. onMetadata may be nil.
func NewScheduler(transport interfaces.Transport, cfg config.BatchConfig, onMetadata MetadataFunc, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		transport:  transport,
		size:       cfg.Size,
		delay:      cfg.Delay(),
		onMetadata: onMetadata,
		logger:     logger,
	}
}

// Enqueue adds an operation to the current pending batch. Reaching the
// size threshold flushes immediately; otherwise a debounce timer is armed
// if none is running yet. The operation's completion settles exactly once
// after its batch finishes.
func (s *Scheduler) Enqueue(op *models.BatchOperation) {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		op.Complete(models.BatchResult{Err: fmt.Errorf("batch scheduler is closed")})
		return
	}

	s.pending = append(s.pending, op)

	if len(s.pending) >= s.size {
		batch := s.takeLocked()
		s.inflight.Add(1) // registered under the mutex so Close observes it
		s.mu.Unlock()

		go func() {
			defer s.inflight.Done()
			s.flush(batch, "size")
		}()
		return
	}

	if s.timer == nil {
		s.timer = time.AfterFunc(s.delay, s.onTimer)
	}
	s.mu.Unlock()
}

// PendingLen returns the number of operations waiting in the current batch
func (s *Scheduler) PendingLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close flushes any pending operations and waits for in-flight batches.
// Operations enqueued after Close are rejected.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	batch := s.takeLocked()
	s.mu.Unlock()

	if len(batch) > 0 {
		s.flush(batch, "close")
	}
	s.inflight.Wait()
}

// onTimer fires when the debounce delay elapses with a non-empty queue
func (s *Scheduler) onTimer() {
	s.mu.Lock()
	s.timer = nil
	if len(s.pending) == 0 {
		s.mu.Unlock()
		return
	}
	batch := s.takeLocked()
	s.inflight.Add(1)
	s.mu.Unlock()

	defer s.inflight.Done()
	s.flush(batch, "timer")
}

// takeLocked atomically moves the pending queue into a local batch and
// disarms the timer. Caller must hold the mutex.
func (s *Scheduler) takeLocked() []*models.BatchOperation {
	batch := s.pending
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	return batch
}

// flush issues one combined request for the batch and demultiplexes the
// response back to each operation in FIFO enqueue order. Any failure of
// the combined call rejects every operation in the batch identically.
func (s *Scheduler) flush(batch []*models.BatchOperation, reason string) {
	metrics.RecordBatchFlush(reason, len(batch))
	s.logger.Debug("Flushing batch",
		zap.Int("operations", len(batch)),
		zap.String("reason", reason))

	combined, err := buildCombined(batch)
	if err != nil {
		s.rejectAll(batch, err)
		return
	}

	resp, err := s.transport.Execute(context.Background(), combined.query, combined.variables)
	if err != nil {
		s.rejectAll(batch, err)
		return
	}

	if s.onMetadata != nil && len(resp.RateLimits) > 0 {
		s.onMetadata(resp.RateLimits)
	}

	if resp.HasErrors() {
		s.logger.Warn("Combined batch request returned errors",
			zap.String("query", combined.query),
			zap.Int("error_count", len(resp.Errors)))
		s.rejectAll(batch, &models.GraphQLError{Query: combined.query, Errors: resp.Errors})
		return
	}

	var slices map[string]json.RawMessage
	if err := json.Unmarshal(resp.Data, &slices); err != nil {
		s.rejectAll(batch, fmt.Errorf("failed to decode combined response: %w", err))
		return
	}

	for i, op := range batch {
		slice, ok := slices[combined.aliases[i]]
		if !ok {
			op.Complete(models.BatchResult{Err: fmt.Errorf("combined response missing alias %q", combined.aliases[i])})
			continue
		}
		op.Complete(models.BatchResult{Data: slice})
	}
}

// rejectAll settles every operation in the batch with the same error
func (s *Scheduler) rejectAll(batch []*models.BatchOperation, err error) {
	s.logger.Warn("Rejecting batch", zap.Int("operations", len(batch)), zap.Error(err))
	for _, op := range batch {
		op.Complete(models.BatchResult{Err: err})
	}
}

package relay

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/refback-io/refback/pkg/protocol"
)

// Batch identifies a unit of delivery: either a single stored message
// or a media group to be reconstructed from the store at fire time.
type Batch struct {
	TicketID string
	Issuer   int64
	From     protocol.Side
	GroupID  string            // non-empty for media groups
	Single   *protocol.Message // nil for media groups
}

// FireFunc delivers a due batch.
type FireFunc func(ctx context.Context, b Batch)

// Scheduler coalesces deliveries. Each batch is keyed; scheduling an
// already pending key is a no-op, so the parts of one media group
// produce exactly one delivery. Single messages use a zero delay and a
// unique key, groups use the coalescing delay and the group id.
type Scheduler struct {
	fire   FireFunc
	logger *slog.Logger

	mu   sync.Mutex
	jobs map[string]*time.Timer
	wg   sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler builds a scheduler delivering through fire.
func NewScheduler(fire FireFunc, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		fire:   fire,
		logger: logger.With("component", "relay"),
		jobs:   map[string]*time.Timer{},
		ctx:    ctx,
		cancel: cancel,
	}
}

// Schedule queues the batch under key after delay. A key with a live
// job is left alone: the pending delivery will cover this part too.
func (s *Scheduler) Schedule(key string, delay time.Duration, b Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, pending := s.jobs[key]; pending {
		return
	}

	s.wg.Add(1)
	s.jobs[key] = time.AfterFunc(delay, func() {
		defer s.wg.Done()

		s.mu.Lock()
		delete(s.jobs, key)
		s.mu.Unlock()

		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("relay fire panicked", "key", key, "panic", r)
			}
		}()
		s.fire(s.ctx, b)
	})
}

// Pending reports whether a job for key is queued.
func (s *Scheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[key]
	return ok
}

// Stop cancels queued jobs and waits for in-flight deliveries.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	for key, t := range s.jobs {
		if t.Stop() {
			s.wg.Done()
		}
		delete(s.jobs, key)
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

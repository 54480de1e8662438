package syncer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/clipwatch/clipwatch/internal/resilience"
	"github.com/clipwatch/clipwatch/internal/types"
)

// Syncer runs the fire-and-forget submission pipeline. Totals are
// cumulative per day, so only the newest pending record matters: a
// failed submission is replaced, never queued behind, by the next one.
type Syncer struct {
	client      *Client
	retryConfig resilience.RetryConfig
	interval    time.Duration

	mu      sync.Mutex
	pending *types.SubmitRequest

	wake   chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSyncer creates a syncer flushing on the given interval
func NewSyncer(client *Client, interval time.Duration) *Syncer {
	return &Syncer{
		client:      client,
		retryConfig: resilience.DefaultRetryConfig(),
		interval:    interval,
		wake:        make(chan struct{}, 1),
	}
}

// Start launches the background flush loop
func (s *Syncer) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(ctx)
}

// Stop halts the loop, then makes a best-effort final flush of any
// pending record. The loop must be down first so the two never submit
// concurrently.
func (s *Syncer) Stop() {
	if s.cancel == nil {
		return
	}

	s.cancel()
	<-s.done

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.flush(flushCtx)
}

// Enqueue records the latest totals for submission and nudges the loop
func (s *Syncer) Enqueue(req types.SubmitRequest) {
	s.mu.Lock()
	s.pending = &req
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Syncer) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		case <-ticker.C:
		}

		s.flush(ctx)
	}
}

// flush submits the pending record, if any, with retry. On failure the
// record stays pending for the next cycle unless a newer one replaced it.
func (s *Syncer) flush(ctx context.Context) {
	s.mu.Lock()
	req := s.pending
	s.mu.Unlock()

	if req == nil {
		return
	}

	err := resilience.RetryWithConfig(ctx, s.retryConfig, func() error {
		return s.client.Submit(ctx, *req)
	})

	if err != nil {
		slog.Warn("submission failed, will retry",
			"user_id", req.UserID,
			"total_pastes", req.TotalPastes,
			"error", err)
		return
	}

	// Clear only if no newer record arrived while submitting.
	s.mu.Lock()
	if s.pending == req {
		s.pending = nil
	}
	s.mu.Unlock()

	slog.Debug("submission synced",
		"user_id", req.UserID,
		"total_pastes", req.TotalPastes,
		"total_lines", req.TotalLinesPasted)
}

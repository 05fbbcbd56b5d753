package scheduler

import (
	"context"
	"runtime/debug"
	"time"

	"habitbot/pkg/logx"
)

func (s *Service) enqueue(t task) {
	s.mu.Lock()
	q := s.queue
	s.mu.Unlock()
	if q == nil {
		s.log.Debug("scheduler not running; dropping fire", logx.Stringer("job_id", t.id))
		return
	}
	select {
	case q <- t:
	default:
		s.log.Warn("scheduler queue full; dropping fire",
			logx.Stringer("job_id", t.id), logx.Int("queue_len", len(q)), logx.Int("queue_cap", cap(q)))
	}
}

func (s *Service) worker(ctx context.Context, stopCh <-chan struct{}, queue <-chan task, idx int) {
	for {
		// Fast-exit check so a closed stopCh wins over queued work.
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		default:
		}

		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case t := <-queue:
			s.execOne(ctx, t, idx)
		}
	}
}

// execOne runs a single fire to completion. There is no retry within a fire;
// the next calendar day is the implicit retry.
func (s *Service) execOne(ctx context.Context, t task, idx int) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("panic in trigger callback",
				logx.Stringer("job_id", t.id), logx.Int("worker", idx),
				logx.Any("panic", r), logx.String("stack", string(debug.Stack())))
		}
	}()

	start := time.Now()
	runCtx := ctx
	var cancel context.CancelFunc
	if t.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	err := t.run(runCtx)
	dur := time.Since(start)
	if err != nil {
		s.log.Warn("trigger run failed", logx.Stringer("job_id", t.id), logx.Err(err), logx.Duration("dur", dur))
		return
	}
	s.log.Debug("trigger run completed", logx.Stringer("job_id", t.id), logx.Duration("dur", dur))
}

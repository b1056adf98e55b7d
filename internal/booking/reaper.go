package booking

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ReapExpired releases holds that outlived their TTL and forgets finished
// bookings past retention. A booking whose lock is taken is mid-operation
// (typically confirming a payment) and is skipped until the next pass.
func (o *Orchestrator) ReapExpired(ctx context.Context) int {
	now := o.now()
	reaped := 0

	for _, e := range o.entries() {
		if !e.mu.TryLock() {
			continue
		}
		switch {
		case e.b.State.Terminal() && now.Sub(e.finishedAt) > o.cfg.Retention:
			o.forget(e)
		case e.b.State.Holding() && e.partial == nil && e.token.Expired(now):
			if err := o.abort(ctx, e, "reservation hold expired", nil); err == nil {
				reaped++
			}
		}
		e.mu.Unlock()
	}

	if reaped > 0 {
		o.log.Info("expired holds released", zap.Int("count", reaped))
	}
	return reaped
}

// RunReaper calls ReapExpired every interval until ctx is done.
func (o *Orchestrator) RunReaper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.ReapExpired(ctx)
		}
	}
}

// Package ratelimit spaces outbound calls to external endpoints. Each
// logical channel ("llm", "search", "telegram", ...) carries its own
// minimum interval between calls.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"marketbrief/internal/common/metrics"
)

// Gate enforces a minimum spacing between acquisitions per channel.
//
// The last-call timestamp is recorded before Wait returns, so the next
// acquire measures from the moment this call released rather than from
// whenever the gated work finished.
type Gate struct {
	mu        sync.Mutex
	intervals map[string]time.Duration
	last      map[string]time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New builds a gate from a channel -> minimum interval table. Channels
// absent from the table pass through without waiting.
func New(intervals map[string]time.Duration) *Gate {
	return &Gate{
		intervals: intervals,
		last:      make(map[string]time.Time),
		now:       time.Now,
		sleep:     sleepContext,
	}
}

// Wait blocks until the channel's minimum interval has elapsed since the
// previous Wait for the same channel, then records the acquisition time.
func (g *Gate) Wait(ctx context.Context, channel string) error {
	g.mu.Lock()
	interval := g.intervals[channel]
	prev, seen := g.last[channel]
	now := g.now()
	g.mu.Unlock()

	var remaining time.Duration
	if seen && interval > 0 {
		if elapsed := now.Sub(prev); elapsed < interval {
			remaining = interval - elapsed
		}
	}

	if remaining > 0 {
		metrics.RateGateWait.WithLabelValues(channel).Observe(remaining.Seconds())
		if err := g.sleep(ctx, remaining); err != nil {
			return err
		}
	}

	g.mu.Lock()
	g.last[channel] = g.now()
	g.mu.Unlock()
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package executor

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces consecutive requests by a fixed interval. The first Wait
// returns immediately.
type Pacer struct {
	limiter  *rate.Limiter
	interval time.Duration
	enabled  bool
}

// NewPacer creates a pacer allowing one request per interval. A zero or
// negative interval disables pacing.
func NewPacer(interval time.Duration) *Pacer {
	if interval <= 0 {
		return &Pacer{enabled: false}
	}

	return &Pacer{
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
		enabled:  true,
	}
}

// Wait blocks until the next request may be sent or ctx is done
func (p *Pacer) Wait(ctx context.Context) error {
	if !p.enabled {
		return ctx.Err()
	}
	return p.limiter.Wait(ctx)
}

// Interval returns the configured spacing
func (p *Pacer) Interval() time.Duration {
	return p.interval
}

// Enabled reports whether pacing is active
func (p *Pacer) Enabled() bool {
	return p.enabled
}

package core

import (
	"context"
	"time"
)

// Pacer separates ticks (or episodes) in real time so a run can be watched.
// It has no effect on learning.
type Pacer interface {
	Wait(context.Context)
}

// NoDelay is the pacer for headless and test execution.
type NoDelay struct{}

func (NoDelay) Wait(context.Context) {}

// IntervalPacer sleeps a fixed interval. Once the context is done every
// wait returns immediately, so in-flight episodes finish without delay.
type IntervalPacer struct {
	Interval time.Duration
}

func (p IntervalPacer) Wait(ctx context.Context) {
	if p.Interval <= 0 {
		return
	}
	timer := time.NewTimer(p.Interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// NewPacer returns NoDelay for non-positive intervals.
func NewPacer(interval time.Duration) Pacer {
	if interval <= 0 {
		return NoDelay{}
	}
	return IntervalPacer{Interval: interval}
}

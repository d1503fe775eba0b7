package session

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultFrameInterval is the live loop period used when none is given.
const DefaultFrameInterval = 100 * time.Millisecond

// Scheduler invokes a callback once per available frame.
//
// Implementations must not run two callbacks at the same time. The returned
// cancel function stops further callbacks and returns once any running
// callback has finished.
type Scheduler interface {
	OnFrameReady(fn func(ctx context.Context)) (cancel func())
}

// TickerScheduler fires at a fixed interval. Callbacks run on the
// scheduler's goroutine, so a slow cycle delays the next one and ticks that
// arrive meanwhile are dropped.
type TickerScheduler struct {
	Interval time.Duration
	Clock    clock.Clock // nil means the wall clock
}

// NewTickerScheduler returns a scheduler firing every interval. A
// non-positive interval means DefaultFrameInterval.
func NewTickerScheduler(interval time.Duration) *TickerScheduler {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &TickerScheduler{Interval: interval, Clock: clock.New()}
}

// OnFrameReady starts the ticker loop.
func (s *TickerScheduler) OnFrameReady(fn func(ctx context.Context)) func() {
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultFrameInterval
	}

	clk := s.Clock
	if clk == nil {
		clk = clock.New()
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	ticker := clk.Ticker(interval)

	go func() {
		defer close(done)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if ctx.Err() != nil {
					return
				}
				fn(ctx)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(cancel)
		<-done
	}
}

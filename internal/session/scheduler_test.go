package session

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func TestNewTickerScheduler_DefaultInterval(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
		want     time.Duration
	}{
		{"zero", 0, DefaultFrameInterval},
		{"negative", -time.Second, DefaultFrameInterval},
		{"explicit", 20 * time.Millisecond, 20 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewTickerScheduler(tt.interval)
			if s.Interval != tt.want {
				t.Errorf("got %v, want %v", s.Interval, tt.want)
			}
			if s.Clock == nil {
				t.Error("expected the wall clock")
			}
		})
	}
}

func TestTickerScheduler_NoOverlap(t *testing.T) {
	var active, maxActive, calls int32

	cancel := NewTickerScheduler(time.Millisecond).OnFrameReady(func(ctx context.Context) {
		n := atomic.AddInt32(&active, 1)
		for {
			m := atomic.LoadInt32(&maxActive)
			if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
				break
			}
		}
		time.Sleep(3 * time.Millisecond)
		atomic.AddInt32(&calls, 1)
		atomic.AddInt32(&active, -1)
	})

	waitFor(t, func() bool { return atomic.LoadInt32(&calls) >= 5 })
	cancel()

	if got := atomic.LoadInt32(&maxActive); got != 1 {
		t.Errorf("max concurrent callbacks: got %d, want 1", got)
	}
}

func TestTickerScheduler_CancelWaits(t *testing.T) {
	var running, calls int32
	started := make(chan struct{}, 1)

	cancel := NewTickerScheduler(time.Millisecond).OnFrameReady(func(ctx context.Context) {
		atomic.StoreInt32(&running, 1)
		select {
		case started <- struct{}{}:
		default:
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&calls, 1)
		atomic.StoreInt32(&running, 0)
	})

	<-started
	cancel()
	if atomic.LoadInt32(&running) != 0 {
		t.Error("cancel returned while a callback was running")
	}

	after := atomic.LoadInt32(&calls)
	time.Sleep(20 * time.Millisecond)
	if got := atomic.LoadInt32(&calls); got != after {
		t.Errorf("callbacks ran after cancel: %d -> %d", after, got)
	}

	// A second cancel is a no-op.
	cancel()
}

func TestTickerScheduler_FiresOnTick(t *testing.T) {
	mock := clock.NewMock()
	s := &TickerScheduler{Interval: 50 * time.Millisecond, Clock: mock}

	calls := make(chan struct{}, 10)
	cancel := s.OnFrameReady(func(ctx context.Context) {
		calls <- struct{}{}
	})

	select {
	case <-calls:
		t.Fatal("callback ran before the first tick")
	case <-time.After(20 * time.Millisecond):
	}

	mock.Add(50 * time.Millisecond)
	select {
	case <-calls:
	case <-time.After(time.Second):
		t.Fatal("callback did not run on tick")
	}

	cancel()
	mock.Add(50 * time.Millisecond)
	select {
	case <-calls:
		t.Error("callback ran after cancel")
	case <-time.After(20 * time.Millisecond):
	}
}

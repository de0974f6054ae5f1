package board

import (
	"context"
	"testing"
	"time"
)

type fakeTicker struct {
	c       chan time.Time
	stopped chan struct{}
}

func (f *fakeTicker) C() <-chan time.Time { return f.c }
func (f *fakeTicker) Stop()               { close(f.stopped) }

func TestSweeperRunsAtStartAndOnTick(t *testing.T) {
	ticker := &fakeTicker{c: make(chan time.Time), stopped: make(chan struct{})}
	var gotInterval time.Duration
	now := t0
	swept := make(chan time.Time, 4)

	s := &Sweeper{
		Interval: time.Hour,
		Clock:    ClockFunc(func() time.Time { return now }),
		Sweep: func(at time.Time) int {
			swept <- at
			return 1
		},
		NewTicker: func(d time.Duration) Ticker {
			gotInterval = d
			return ticker
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	if at := <-swept; !at.Equal(t0) {
		t.Errorf("startup sweep at %v", at)
	}
	ticker.c <- t0
	<-swept
	ticker.c <- t0
	<-swept

	cancel()
	<-done
	<-ticker.stopped
	if gotInterval != time.Hour {
		t.Errorf("interval = %v", gotInterval)
	}
	if len(swept) != 0 {
		t.Errorf("unexpected extra sweeps")
	}
}

func TestSweeperDrivesBoardCleanup(t *testing.T) {
	now := t0
	b := New(WithClock(ClockFunc(func() time.Time { return now })), WithIDs(seqIDs()))
	b, p := mustProject(t, b, "P", "")
	b, task := mustTask(t, b, "old", p.ID, "")
	b, _, _ = b.DeleteTask(task.ID)

	now = t0.Add(RetentionPeriod + time.Minute)
	purged := make(chan int, 1)
	ctx, cancel := context.WithCancel(context.Background())
	s := &Sweeper{
		Clock: ClockFunc(func() time.Time { return now }),
		Sweep: func(at time.Time) int {
			var n int
			b, n = b.CleanupOldDeleted(at)
			return n
		},
		NewTicker: func(time.Duration) Ticker {
			return &fakeTicker{c: make(chan time.Time), stopped: make(chan struct{})}
		},
		OnSweep: func(n int) {
			purged <- n
			cancel()
		},
	}
	s.Run(ctx)

	if n := <-purged; n != 1 {
		t.Errorf("purged = %d", n)
	}
	if len(b.Deleted()) != 0 {
		t.Errorf("record survived sweep")
	}
}

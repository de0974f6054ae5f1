package board

import (
	"context"
	"time"
)

// RetentionPeriod is how long deleted tasks stay in the recycle bin
const RetentionPeriod = 30 * 24 * time.Hour

// DefaultSweepInterval is how often the recycle bin is swept
const DefaultSweepInterval = 24 * time.Hour

// Ticker abstracts time.Ticker so sweeps can be driven by tests
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// Sweeper runs the retention sweep once on start and then on every tick
type Sweeper struct {
	Interval  time.Duration
	Clock     Clock
	Sweep     func(now time.Time) int
	NewTicker func(d time.Duration) Ticker
	// OnSweep is called after each sweep with the number of purged records
	OnSweep func(purged int)
}

// Run blocks until ctx is done
func (s *Sweeper) Run(ctx context.Context) {
	clock := s.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	newTicker := s.NewTicker
	if newTicker == nil {
		newTicker = func(d time.Duration) Ticker { return timeTicker{time.NewTicker(d)} }
	}

	s.sweep(clock.Now())
	ticker := newTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			s.sweep(clock.Now())
		}
	}
}

func (s *Sweeper) sweep(now time.Time) {
	n := s.Sweep(now)
	if s.OnSweep != nil {
		s.OnSweep(n)
	}
}

package sync

import (
	"context"
	"errors"
	gosync "sync"
	"time"

	"github.com/existflow/weekplan/internal/logger"
	"github.com/existflow/weekplan/internal/model"
)

// SnapshotSource fetches the full board from the server
type SnapshotSource interface {
	SyncAll(ctx context.Context) (model.Snapshot, error)
}

// ErrStalePull is returned by SyncNow when the local board changed, or still
// had writes in flight, by the time the pull came back. The pull is dropped.
var ErrStalePull = errors.New("local changes still syncing, resync skipped")

// AutoSync periodically pulls the full board so that local state that
// diverged after failed writes converges again.
type AutoSync struct {
	source       SnapshotSource
	pollInterval time.Duration
	timeout      time.Duration
	busy         func() bool   // true while local writes are outstanding
	version      func() uint64 // changes on every local transition
	mu           gosync.Mutex
	stopCh       chan struct{}
	stopped      bool
	onPull       func(model.Snapshot, uint64) bool
	onError      func(error)
}

// NewAutoSync creates a poller; it does nothing until Start is called
func NewAutoSync(source SnapshotSource, pollInterval time.Duration) *AutoSync {
	return &AutoSync{
		source:       source,
		pollInterval: pollInterval,
		timeout:      30 * time.Second,
		stopCh:       make(chan struct{}),
	}
}

// SetOnPull sets the callback installing each pulled snapshot. It gets the
// version read before the pull started and reports whether it installed s.
func (a *AutoSync) SetOnPull(callback func(s model.Snapshot, version uint64) bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onPull = callback
}

// SetOnError sets the callback receiving failed pulls
func (a *AutoSync) SetOnError(callback func(error)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onError = callback
}

// SetBusy makes polls skip while busy reports true, so a pull never
// overwrites optimistic state whose writes are still in flight.
func (a *AutoSync) SetBusy(busy func() bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.busy = busy
}

// SetVersion sets the local change counter compared around each pull
func (a *AutoSync) SetVersion(version func() uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.version = version
}

// Start launches the poll loop. A non-positive interval disables polling.
func (a *AutoSync) Start() {
	if a.pollInterval <= 0 {
		return
	}
	go a.pollLoop()
}

func (a *AutoSync) pollLoop() {
	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.mu.Lock()
			busy := a.busy
			a.mu.Unlock()
			if busy != nil && busy() {
				logger.Debug("resync skipped, writes pending")
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
			if _, err := a.SyncNow(ctx); errors.Is(err, ErrStalePull) {
				logger.Debug("resync dropped, board changed during pull")
			}
			cancel()
		case <-a.stopCh:
			return
		}
	}
}

// SyncNow pulls the board once and hands it to the pull callback. A pull
// that raced a local transition is dropped with ErrStalePull.
func (a *AutoSync) SyncNow(ctx context.Context) (model.Snapshot, error) {
	a.mu.Lock()
	onPull, onError, busy, version := a.onPull, a.onError, a.busy, a.version
	a.mu.Unlock()

	var v uint64
	if version != nil {
		v = version()
	}
	s, err := a.source.SyncAll(ctx)

	if err != nil {
		logger.Warn("resync failed", logger.Err(err))
		if onError != nil {
			onError(err)
		}
		return s, err
	}
	logger.Debug("resync pulled snapshot", logger.F("projects", len(s.ProjectDefinitions)), logger.F("tasks", s.TaskCount()))
	if busy != nil && busy() {
		return s, ErrStalePull
	}
	if onPull != nil && !onPull(s, v) {
		return s, ErrStalePull
	}
	return s, nil
}

// Stop stops the poll loop
func (a *AutoSync) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.stopped {
		a.stopped = true
		close(a.stopCh)
	}
}

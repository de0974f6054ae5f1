package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/existflow/weekplan/internal/board"
	"github.com/existflow/weekplan/internal/config"
	"github.com/existflow/weekplan/internal/db"
	"github.com/existflow/weekplan/internal/logger"
	"github.com/existflow/weekplan/internal/model"
	"github.com/existflow/weekplan/internal/sync"
)

// Runtime is a session wired to the local cache and, when a server is
// configured, to the sync adapter and the periodic resync.
type Runtime struct {
	*Session
	Client  *sync.Client // nil in local-only mode
	cfg     *config.Config
	db      *db.DB
	adapter *sync.Adapter
	auto    *sync.AutoSync
	cancel  context.CancelFunc
}

// Load picks the starting snapshot: the server's board when reachable,
// otherwise the cached one. A local-only planner with nothing cached
// starts from the sample board. pulled reports that the server answered.
func Load(ctx context.Context, cache Cache, source sync.SnapshotSource) (snap model.Snapshot, pulled bool, err error) {
	cached := false
	if cache != nil {
		s, ok, err := cache.LoadSnapshot(ctx)
		if err != nil {
			return snap, false, fmt.Errorf("failed to load cache: %w", err)
		}
		snap, cached = s, ok
	}

	if source != nil {
		remote, err := source.SyncAll(ctx)
		if err == nil {
			return remote, true, nil
		}
		if !cached {
			return snap, false, fmt.Errorf("failed to load board from server: %w", err)
		}
		logger.Warn("server unreachable, using cached board", logger.Err(err))
		return snap, false, nil
	}

	if !cached || snap.IsEmpty() {
		return board.DefaultSnapshot(), false, nil
	}
	return snap, false, nil
}

// Open builds a runtime from the client config
func Open(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	cache, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	rt := &Runtime{cfg: cfg, db: cache}

	var source sync.SnapshotSource
	opts := []Option{WithCache(cache), WithRetention(cfg.Retention())}
	if cfg.ServerURL != "" {
		rt.Client = sync.NewClient(cfg.ServerURL, cfg.Sync.Timeout)
		rt.adapter = sync.NewAdapter(rt.Client, sync.WithRetry(cfg.Sync.Retries, cfg.Sync.Backoff))
		source = rt.Client
		opts = append(opts, WithOutbox(rt.adapter))
	}

	snap, pulled, err := Load(ctx, cache, source)
	if err != nil {
		rt.closeLocal()
		return nil, err
	}
	rt.Session = New(snap, opts...)
	rt.persist(rt.board)
	if pulled {
		if err := cache.SetLastSync(ctx, rt.clock.Now()); err != nil {
			logger.Warn("failed to record sync time", logger.Err(err))
		}
	}
	if rt.Client != nil {
		rt.auto = sync.NewAutoSync(rt.Client, cfg.Sync.PollInterval)
		rt.auto.SetBusy(rt.Busy)
		rt.auto.SetVersion(rt.Version)
		rt.auto.SetOnPull(rt.Pulled)
	}
	return rt, nil
}

// Errors delivers failed remote writes; it is nil in local-only mode
func (r *Runtime) Errors() <-chan sync.SyncError {
	if r.adapter == nil {
		return nil
	}
	return r.adapter.Errors()
}

// Start launches the retention sweeper and, with a server, the resync poller
func (r *Runtime) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	go r.Sweeper(r.cfg.SweepInterval).Run(ctx)

	if r.auto != nil {
		r.auto.Start()
	}
}

// Resync pulls the server's board and replaces the local one
func (r *Runtime) Resync(ctx context.Context) error {
	if r.auto == nil {
		return fmt.Errorf("no server configured")
	}
	_, err := r.auto.SyncNow(ctx)
	return err
}

// ClearCache drops the cached board and sync state. The next Open pulls
// from the server again, or starts from the sample board when local-only.
func (r *Runtime) ClearCache(ctx context.Context) error {
	if err := r.db.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// LastSync returns when the board was last pulled from the server
func (r *Runtime) LastSync(ctx context.Context) (time.Time, bool, error) {
	return r.db.LastSync(ctx)
}

// Close waits for queued writes until ctx is done, then releases everything
func (r *Runtime) Close(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}
	if r.auto != nil {
		r.auto.Stop()
	}
	var flushErr error
	if r.adapter != nil {
		if err := r.adapter.Flush(ctx); err != nil {
			flushErr = fmt.Errorf("pending writes not sent: %w", err)
		}
		r.adapter.Close()
	}
	r.closeLocal()
	return flushErr
}

func (r *Runtime) closeLocal() {
	if r.adapter != nil && r.Session == nil {
		r.adapter.Close()
	}
	if err := r.db.Close(); err != nil {
		logger.Warn("failed to close cache", logger.Err(err))
	}
}

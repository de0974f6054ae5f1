package sync

import (
	"context"
	"errors"
	"net"
	gosync "sync"
	"time"

	"github.com/existflow/weekplan/internal/logger"
)

// Adapter pushes ops to the server in the background. Ops are applied
// strictly in submission order by a single worker, so a write never reaches
// the server ahead of a write it depends on (a task ahead of its project, a
// project delete ahead of its tasks' deletes). Submit never blocks the caller.
type Adapter struct {
	remote  Remote
	retries int
	backoff time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
	log     *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	errs   chan SyncError

	mu       gosync.Mutex
	queue    []Op
	running  bool
	inflight int
	idle     chan struct{}
	closed   bool
}

// AdapterOption configures an Adapter
type AdapterOption func(*Adapter)

// WithRetry sets how many times a failed op is retried and the initial backoff
func WithRetry(retries int, backoff time.Duration) AdapterOption {
	return func(a *Adapter) {
		a.retries = retries
		a.backoff = backoff
	}
}

// WithSleep replaces the backoff sleep, for tests
func WithSleep(f func(ctx context.Context, d time.Duration) error) AdapterOption {
	return func(a *Adapter) { a.sleep = f }
}

// NewAdapter starts an adapter writing to remote
func NewAdapter(remote Remote, opts ...AdapterOption) *Adapter {
	ctx, cancel := context.WithCancel(context.Background())
	a := &Adapter{
		remote:  remote,
		retries: 3,
		backoff: 500 * time.Millisecond,
		sleep:   sleepCtx,
		log:     logger.WithFields(logger.F("component", "sync")),
		ctx:     ctx,
		cancel:  cancel,
		errs:    make(chan SyncError, 64),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Errors delivers failed writes. Errors are dropped (and logged) when
// nobody drains the channel.
func (a *Adapter) Errors() <-chan SyncError {
	return a.errs
}

// Submit queues op behind every earlier op
func (a *Adapter) Submit(op Op) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		a.log.Warn("op submitted after close", logger.F("op", op))
		return
	}

	if a.inflight == 0 {
		a.idle = make(chan struct{})
	}
	a.inflight++

	a.queue = append(a.queue, op)
	if !a.running {
		a.running = true
		go a.drain()
	}
}

// Pending returns the number of submitted ops not yet finished
func (a *Adapter) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inflight
}

// Flush waits until every submitted op has finished or ctx is done
func (a *Adapter) Flush(ctx context.Context) error {
	for {
		a.mu.Lock()
		if a.inflight == 0 {
			a.mu.Unlock()
			return nil
		}
		idle := a.idle
		a.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close cancels outstanding writes and stops the workers. Ops still queued
// are dropped without being reported.
func (a *Adapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	a.cancel()
	a.Flush(context.Background())
	close(a.errs)
	return nil
}

// drain runs the queue until it is empty. running stays set while the worker
// is alive, which is how Submit knows not to start another.
func (a *Adapter) drain() {
	for {
		a.mu.Lock()
		if len(a.queue) == 0 {
			a.queue = nil
			a.running = false
			a.mu.Unlock()
			return
		}
		op := a.queue[0]
		a.queue = a.queue[1:]
		a.mu.Unlock()

		a.run(op)

		a.mu.Lock()
		a.inflight--
		if a.inflight == 0 {
			close(a.idle)
		}
		a.mu.Unlock()
	}
}

func (a *Adapter) run(op Op) {
	delay := a.backoff
	for attempt := 1; ; attempt++ {
		if a.ctx.Err() != nil {
			return
		}
		err := op.apply(a.ctx, a.remote)
		if err == nil {
			a.log.Debug("op applied", logger.F("op", op), logger.F("attempt", attempt))
			return
		}
		if a.ctx.Err() != nil {
			return
		}
		if attempt > a.retries || !retryable(err) {
			a.report(SyncError{Op: op, Attempts: attempt, Err: err})
			return
		}
		a.log.Warn("op failed, retrying", logger.F("op", op), logger.F("attempt", attempt), logger.Err(err))
		if a.sleep(a.ctx, delay) != nil {
			return
		}
		delay *= 2
	}
}

func (a *Adapter) report(e SyncError) {
	a.log.Error("op failed", logger.F("op", e.Op), logger.F("attempts", e.Attempts), logger.Err(e.Err))
	select {
	case a.errs <- e:
	default:
		a.log.Warn("sync error dropped, channel full", logger.F("op", e.Op))
	}
}

// retryable reports whether err may go away on its own: transport failures
// and 5xx/429/408 responses. Other API errors are final.
func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return !errors.Is(err, context.Canceled)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

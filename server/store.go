package server

import (
	"context"
	"sync"

	"github.com/existflow/weekplan/internal/board"
	"github.com/existflow/weekplan/internal/logger"
	"github.com/existflow/weekplan/internal/model"
)

// Store holds the server's board. Update applies one transition atomically:
// fn sees the current board and returns the next one, and an error from fn
// leaves the stored board untouched.
type Store interface {
	Snapshot(ctx context.Context) (model.Snapshot, error)
	Update(ctx context.Context, fn func(*board.Board) (*board.Board, error)) error
	Replace(ctx context.Context, s model.Snapshot) error
	Ping(ctx context.Context) error
	Close() error
}

// MemStore keeps the board in memory
type MemStore struct {
	mu   sync.Mutex
	b    *board.Board
	opts []board.Option
}

// NewMemStore creates a store holding s
func NewMemStore(s model.Snapshot, opts ...board.Option) *MemStore {
	b, _ := board.FromSnapshot(s, opts...)
	return &MemStore{b: b, opts: opts}
}

func (m *MemStore) Snapshot(context.Context) (model.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.b.Snapshot(), nil
}

func (m *MemStore) Update(_ context.Context, fn func(*board.Board) (*board.Board, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	nb, err := fn(m.b)
	if err != nil {
		return err
	}
	m.b = nb
	return nil
}

func (m *MemStore) Replace(_ context.Context, s model.Snapshot) error {
	b, dropped := board.FromSnapshot(s, m.opts...)
	if len(dropped) > 0 {
		logger.Warn("import dropped invalid tasks", logger.F("count", len(dropped)))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.b = b
	return nil
}

func (m *MemStore) Ping(context.Context) error { return nil }

func (m *MemStore) Close() error { return nil }

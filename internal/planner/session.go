package planner

import (
	"context"
	gosync "sync"
	"time"

	"github.com/existflow/weekplan/internal/board"
	"github.com/existflow/weekplan/internal/logger"
	"github.com/existflow/weekplan/internal/model"
	"github.com/existflow/weekplan/internal/sync"
)

// Cache persists the board between runs
type Cache interface {
	LoadSnapshot(ctx context.Context) (model.Snapshot, bool, error)
	SaveSnapshot(ctx context.Context, s model.Snapshot) error
	SetLastSync(ctx context.Context, t time.Time) error
}

// Outbox receives the remote writes of accepted transitions
type Outbox interface {
	Submit(op sync.Op)
	Pending() int
}

// Session owns the current board. Transitions are serialized, each one
// swaps in a new immutable board, writes the cache and queues the matching
// remote write. Remote failures never roll the board back.
type Session struct {
	mu        gosync.Mutex
	board     *board.Board
	version   uint64
	boardOpts []board.Option
	cache     Cache
	outbox    Outbox
	clock     board.Clock
	retention time.Duration
	onChange  func(*board.Board)
	log       *logger.Logger
}

// Option configures a Session
type Option func(*Session)

// WithCache persists every accepted transition to c
func WithCache(c Cache) Option {
	return func(s *Session) { s.cache = c }
}

// WithOutbox sends remote writes to o
func WithOutbox(o Outbox) Option {
	return func(s *Session) { s.outbox = o }
}

// WithClock sets the clock used by transitions and retention sweeps
func WithClock(c board.Clock) Option {
	return func(s *Session) {
		s.clock = c
		s.boardOpts = append(s.boardOpts, board.WithClock(c))
	}
}

// WithIDs sets the id generator of boards built by the session
func WithIDs(f func() string) Option {
	return func(s *Session) { s.boardOpts = append(s.boardOpts, board.WithIDs(f)) }
}

// WithRetention sets how long deleted tasks stay in the recycle bin
func WithRetention(d time.Duration) Option {
	return func(s *Session) { s.retention = d }
}

// New creates a session over snap
func New(snap model.Snapshot, opts ...Option) *Session {
	s := &Session{
		clock:     board.SystemClock{},
		retention: board.RetentionPeriod,
		log:       logger.WithFields(logger.F("component", "planner")),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.board = s.build(snap)
	return s
}

func (s *Session) build(snap model.Snapshot) *board.Board {
	b, dropped := board.FromSnapshot(snap, s.boardOpts...)
	for _, t := range dropped {
		s.log.Warn("dropped invalid task", logger.F("task", t.ID), logger.F("project", t.ProjectID))
	}
	return b
}

// Board returns the current snapshot
func (s *Session) Board() *board.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board
}

// SetOnChange registers a callback invoked with every new board, including
// boards replaced by a resync
func (s *Session) SetOnChange(f func(*board.Board)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = f
}

// Version changes on every board change, local or pulled
func (s *Session) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Busy reports whether remote writes are still outstanding
func (s *Session) Busy() bool {
	return s.outbox != nil && s.outbox.Pending() > 0
}

// commit swaps in nb and queues ops. Called with mu held.
func (s *Session) commit(nb *board.Board, ops ...sync.Op) {
	s.board = nb
	s.version++
	s.persist(nb)
	if s.outbox != nil {
		for _, op := range ops {
			s.outbox.Submit(op)
		}
	}
	if s.onChange != nil {
		s.onChange(nb)
	}
}

func (s *Session) persist(b *board.Board) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SaveSnapshot(context.Background(), b.Snapshot()); err != nil {
		s.log.Error("failed to save snapshot", logger.Err(err))
	}
}

// Replace installs a snapshot wholesale without queuing remote writes
func (s *Session) Replace(snap model.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commit(s.build(snap))
}

// Pulled installs a snapshot fetched from the server and records the sync
// time. The snapshot is dropped when the board changed since version was
// read, since the pull may predate that change.
func (s *Session) Pulled(snap model.Snapshot, version uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version != version {
		return false
	}
	s.commit(s.build(snap))
	if s.cache != nil {
		if err := s.cache.SetLastSync(context.Background(), s.clock.Now()); err != nil {
			s.log.Warn("failed to record sync time", logger.Err(err))
		}
	}
	return true
}

// AddProject creates a project
func (s *Session) AddProject(title, color string) (model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nb, p, err := s.board.AddProject(title, color)
	if err != nil {
		return model.Project{}, err
	}
	s.commit(nb, sync.Op{
		Kind:     sync.OpCreateProject,
		EntityID: p.ID,
		Project:  model.ProjectInput{ID: p.ID, Title: p.Title, Color: p.Color},
	})
	return p, nil
}

// EditProject renames or recolors a project
func (s *Session) EditProject(id, title, color string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	nb, err := s.board.EditProject(id, title, color)
	if err != nil {
		return err
	}
	p, _ := nb.Project(id)
	s.commit(nb, sync.Op{
		Kind:     sync.OpUpdateProject,
		EntityID: id,
		Project:  model.ProjectInput{Title: p.Title, Color: p.Color},
	})
	return nil
}

// DeleteProject removes a project without outstanding tasks
func (s *Session) DeleteProject(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	nb, err := s.board.DeleteProject(id)
	if err != nil {
		return err
	}
	s.commit(nb, sync.Op{Kind: sync.OpDeleteProject, EntityID: id})
	return nil
}

// AddTask creates a task
func (s *Session) AddTask(in model.NewTask) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nb, t, err := s.board.AddTask(in)
	if err != nil {
		return model.Task{}, err
	}
	s.commit(nb, sync.Op{
		Kind:     sync.OpCreateTask,
		EntityID: t.ID,
		NewTask: model.NewTask{
			ID:        t.ID,
			Title:     t.Title,
			Notes:     t.Notes,
			ProjectID: t.ProjectID,
			Container: t.Container,
		},
	})
	return t, nil
}

// EditTask applies a partial update
func (s *Session) EditTask(id string, patch model.TaskPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	nb, err := s.board.EditTask(id, patch)
	if err != nil {
		return err
	}
	if nb == s.board {
		return nil
	}
	t, _ := nb.Task(id)
	s.commit(nb, sync.Op{
		Kind:     sync.OpUpdateTask,
		EntityID: id,
		Update:   model.TaskUpdate{Title: t.Title, Notes: t.Notes, ProjectID: t.ProjectID},
	})
	return nil
}

// Move applies a drag-and-drop instruction. It reports false when the
// instruction was a no-op, in which case nothing is sent to the server.
func (s *Session) Move(m model.Move) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	nb := s.board.Move(m)
	if nb == s.board {
		return false
	}

	if _, ok := nb.Project(m.ItemID); ok {
		projects := nb.Projects()
		ids := make([]string, len(projects))
		for i, p := range projects {
			ids[i] = p.ID
		}
		s.commit(nb, sync.Op{Kind: sync.OpReorderProjects, ProjectIDs: ids})
		return true
	}

	c, idx, _ := nb.Locate(m.ItemID)
	t, _ := nb.Task(m.ItemID)
	s.commit(nb, sync.Op{
		Kind:     sync.OpMoveTask,
		EntityID: m.ItemID,
		Move:     model.MoveTaskRequest{Container: c, ProjectID: t.ProjectID, OrderIndex: &idx},
	})
	return true
}

// CompleteTask moves a task to the completion archive
func (s *Session) CompleteTask(id string) (model.CompletedTaskRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nb, rec, err := s.board.CompleteTask(id)
	if err != nil {
		return rec, err
	}
	s.commit(nb, sync.Op{Kind: sync.OpCompleteTask, EntityID: id})
	return rec, nil
}

// DeleteTask moves a task to the recycle bin
func (s *Session) DeleteTask(id string) (model.DeletedTaskRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nb, rec, err := s.board.DeleteTask(id)
	if err != nil {
		return rec, err
	}
	s.commit(nb, sync.Op{Kind: sync.OpDeleteTask, EntityID: id})
	return rec, nil
}

// RestoreTask brings a task back from the recycle bin
func (s *Session) RestoreTask(id string) (model.Task, error) {
	return s.RestoreTaskInto(id, "")
}

// RestoreTaskInto brings a task back from the recycle bin into projectID,
// or into its own project when projectID is empty
func (s *Session) RestoreTaskInto(id, projectID string) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nb, t, err := s.board.RestoreTaskInto(id, projectID)
	if err != nil {
		return t, err
	}
	s.commit(nb, sync.Op{Kind: sync.OpRestoreTask, EntityID: id, ProjectID: projectID})
	return t, nil
}

// MarkIncomplete brings a task back from the completion archive
func (s *Session) MarkIncomplete(id string) (model.Task, error) {
	return s.MarkIncompleteInto(id, "")
}

// MarkIncompleteInto is MarkIncomplete with an optional target project
func (s *Session) MarkIncompleteInto(id, projectID string) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nb, t, err := s.board.MarkIncompleteInto(id, projectID)
	if err != nil {
		return t, err
	}
	s.commit(nb, sync.Op{Kind: sync.OpReopenTask, EntityID: id, ProjectID: projectID})
	return t, nil
}

// PermanentlyDelete removes a task from the recycle bin for good
func (s *Session) PermanentlyDelete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	nb, err := s.board.PermanentlyDelete(id)
	if err != nil {
		return err
	}
	s.commit(nb, sync.Op{Kind: sync.OpPurgeTask, EntityID: id})
	return nil
}

// Sweep purges recycle-bin records older than the retention period
func (s *Session) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-s.retention)
	nb, n := s.board.PurgeDeletedBefore(cutoff)
	if n == 0 {
		return 0
	}
	s.commit(nb, sync.Op{Kind: sync.OpCleanupDeleted, Before: cutoff})
	return n
}

// Sweeper returns a retention sweeper bound to the session
func (s *Session) Sweeper(interval time.Duration) *board.Sweeper {
	return &board.Sweeper{
		Interval: interval,
		Clock:    s.clock,
		Sweep:    s.Sweep,
		OnSweep: func(n int) {
			if n > 0 {
				s.log.Info("recycle bin swept", logger.F("purged", n))
			}
		},
	}
}

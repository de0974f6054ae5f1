package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/existflow/weekplan/internal/board"
	"github.com/existflow/weekplan/internal/logger"
	"github.com/existflow/weekplan/internal/model"
	_ "github.com/lib/pq"
)

// boardLock serializes board transactions across connections
const boardLock = 7_446_829

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// PgStore keeps the board in PostgreSQL. Every transition loads the board,
// applies the change and writes back the difference inside one transaction.
type PgStore struct {
	db   *sql.DB
	opts []board.Option
}

// OpenPostgres connects and runs migrations
func OpenPostgres(ctx context.Context, dbURL string, opts ...board.Option) (*PgStore, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &PgStore{db: db, opts: opts}, nil
}

// DB exposes the connection pool, shared with the drive index
func (p *PgStore) DB() *sql.DB { return p.db }

func (p *PgStore) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *PgStore) Close() error { return p.db.Close() }

func (p *PgStore) Snapshot(ctx context.Context) (model.Snapshot, error) {
	s, err := loadSnapshot(ctx, p.db)
	if err != nil {
		return s, err
	}
	b, _ := board.FromSnapshot(s, p.opts...)
	return b.Snapshot(), nil
}

func (p *PgStore) Update(ctx context.Context, fn func(*board.Board) (*board.Board, error)) error {
	return p.inTx(ctx, func(tx *sql.Tx) error {
		raw, err := loadSnapshot(ctx, tx)
		if err != nil {
			return err
		}
		b, dropped := board.FromSnapshot(raw, p.opts...)
		for _, t := range dropped {
			logger.Warn("ignoring invalid task row", logger.F("task", t.ID), logger.F("project", t.ProjectID))
		}
		nb, err := fn(b)
		if err != nil {
			return err
		}
		if nb == b {
			return nil
		}
		return writeDiff(ctx, tx, b.Snapshot(), nb.Snapshot())
	})
}

func (p *PgStore) Replace(ctx context.Context, s model.Snapshot) error {
	b, dropped := board.FromSnapshot(s, p.opts...)
	if len(dropped) > 0 {
		logger.Warn("import dropped invalid tasks", logger.F("count", len(dropped)))
	}
	return p.inTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"tasks", "projects", "completed_tasks", "deleted_tasks"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		return writeDiff(ctx, tx, model.Snapshot{}, b.Snapshot())
	})
}

func (p *PgStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, boardLock); err != nil {
		return fmt.Errorf("failed to lock board: %w", err)
	}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func loadSnapshot(ctx context.Context, q querier) (model.Snapshot, error) {
	s := model.Snapshot{Tasks: make(map[model.Container][]model.Task)}

	rows, err := q.QueryContext(ctx, `SELECT id, title, color, order_index FROM projects ORDER BY order_index, id`)
	if err != nil {
		return s, fmt.Errorf("failed to load projects: %w", err)
	}
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.Title, &p.Color, &p.OrderIndex); err != nil {
			rows.Close()
			return s, err
		}
		s.ProjectDefinitions = append(s.ProjectDefinitions, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return s, err
	}

	rows, err = q.QueryContext(ctx, `
		SELECT id, title, notes, project_id, container, order_index
		FROM tasks ORDER BY container, order_index, id`)
	if err != nil {
		return s, fmt.Errorf("failed to load tasks: %w", err)
	}
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Notes, &t.ProjectID, &t.Container, &t.OrderIndex); err != nil {
			rows.Close()
			return s, err
		}
		s.Tasks[t.Container] = append(s.Tasks[t.Container], t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return s, err
	}

	completed, err := loadRecords(ctx, q, "completed_tasks", "completed_at")
	if err != nil {
		return s, err
	}
	for _, r := range completed {
		s.CompletedTasks = append(s.CompletedTasks, model.CompletedTaskRecord{
			Task: r.task, ProjectColor: r.color, CompletedAt: r.at,
			OriginalContainer: r.container, OriginalIndex: r.index,
		})
	}
	deleted, err := loadRecords(ctx, q, "deleted_tasks", "deleted_at")
	if err != nil {
		return s, err
	}
	for _, r := range deleted {
		s.DeletedTasks = append(s.DeletedTasks, model.DeletedTaskRecord{
			Task: r.task, ProjectColor: r.color, DeletedAt: r.at,
			OriginalContainer: r.container, OriginalIndex: r.index,
		})
	}
	return s, nil
}

type record struct {
	task      model.Task
	color     string
	container model.Container
	index     int
	at        time.Time
}

// loadRecords reads an archive table oldest first. table and column are
// constants of this package.
func loadRecords(ctx context.Context, q querier, table, atColumn string) ([]record, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf(`
		SELECT task_data, project_color, original_container, original_index, %s
		FROM %s ORDER BY %s, task_id`, atColumn, table, atColumn))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", table, err)
	}
	defer rows.Close()

	var out []record
	for rows.Next() {
		var r record
		var data []byte
		if err := rows.Scan(&data, &r.color, &r.container, &r.index, &r.at); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &r.task); err != nil {
			return nil, fmt.Errorf("corrupt %s row: %w", table, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// writeDiff persists the rows that differ between two normalized snapshots
func writeDiff(ctx context.Context, q querier, old, next model.Snapshot) error {
	oldProjects := make(map[string]model.Project)
	for _, p := range old.ProjectDefinitions {
		oldProjects[p.ID] = p
	}
	for _, p := range next.ProjectDefinitions {
		if prev, ok := oldProjects[p.ID]; ok && prev == p {
			delete(oldProjects, p.ID)
			continue
		}
		delete(oldProjects, p.ID)
		if _, err := q.ExecContext(ctx, `
			INSERT INTO projects (id, title, color, order_index) VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET title = $2, color = $3, order_index = $4, updated_at = NOW()`,
			p.ID, p.Title, p.Color, p.OrderIndex); err != nil {
			return fmt.Errorf("failed to save project %s: %w", p.ID, err)
		}
	}

	oldTasks := make(map[string]model.Task)
	for _, tasks := range old.Tasks {
		for _, t := range tasks {
			oldTasks[t.ID] = t
		}
	}
	for _, c := range model.Containers() {
		for _, t := range next.Tasks[c] {
			prev, ok := oldTasks[t.ID]
			delete(oldTasks, t.ID)
			if ok && prev == t {
				continue
			}
			if _, err := q.ExecContext(ctx, `
				INSERT INTO tasks (id, title, notes, project_id, container, order_index)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (id) DO UPDATE SET title = $2, notes = $3, project_id = $4,
					container = $5, order_index = $6, updated_at = NOW()`,
				t.ID, t.Title, t.Notes, t.ProjectID, string(t.Container), t.OrderIndex); err != nil {
				return fmt.Errorf("failed to save task %s: %w", t.ID, err)
			}
		}
	}
	for id := range oldTasks {
		if _, err := q.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to remove task %s: %w", id, err)
		}
	}
	for id := range oldProjects {
		if _, err := q.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to remove project %s: %w", id, err)
		}
	}

	oldCompleted := make(map[string]bool)
	for _, r := range old.CompletedTasks {
		oldCompleted[r.Task.ID] = true
	}
	for _, r := range next.CompletedTasks {
		if oldCompleted[r.Task.ID] {
			delete(oldCompleted, r.Task.ID)
			continue
		}
		if err := insertRecord(ctx, q, "completed_tasks", "completed_at", r.Task, r.ProjectColor, r.OriginalContainer, r.OriginalIndex, r.CompletedAt); err != nil {
			return err
		}
	}
	for id := range oldCompleted {
		if _, err := q.ExecContext(ctx, `DELETE FROM completed_tasks WHERE task_id = $1`, id); err != nil {
			return fmt.Errorf("failed to remove completed task %s: %w", id, err)
		}
	}

	oldDeleted := make(map[string]bool)
	for _, r := range old.DeletedTasks {
		oldDeleted[r.Task.ID] = true
	}
	for _, r := range next.DeletedTasks {
		if oldDeleted[r.Task.ID] {
			delete(oldDeleted, r.Task.ID)
			continue
		}
		if err := insertRecord(ctx, q, "deleted_tasks", "deleted_at", r.Task, r.ProjectColor, r.OriginalContainer, r.OriginalIndex, r.DeletedAt); err != nil {
			return err
		}
	}
	for id := range oldDeleted {
		if _, err := q.ExecContext(ctx, `DELETE FROM deleted_tasks WHERE task_id = $1`, id); err != nil {
			return fmt.Errorf("failed to remove deleted task %s: %w", id, err)
		}
	}
	return nil
}

func insertRecord(ctx context.Context, q querier, table, atColumn string, t model.Task, color string, c model.Container, index int, at time.Time) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (task_id, task_data, project_color, original_container, original_index, %s)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (task_id) DO UPDATE SET task_data = $2, project_color = $3,
			original_container = $4, original_index = $5, %s = $6`, table, atColumn, atColumn),
		t.ID, string(data), color, string(c), index, at)
	if err != nil {
		return fmt.Errorf("failed to save %s %s: %w", table, t.ID, err)
	}
	return nil
}

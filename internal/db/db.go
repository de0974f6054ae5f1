package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/existflow/weekplan/internal/model"
	_ "modernc.org/sqlite"
)

// Snapshot cache keys
const (
	KeyProjectDefinitions = "project_definitions"
	KeyTasks              = "tasks"
	KeyDeletedTasks       = "deleted_tasks"
	KeyCompletedTasks     = "completed_tasks"
)

const keyLastSync = "last_sync"

// DB is the local snapshot cache. The board is stored wholesale as JSON
// values under fixed keys and replaced in a single transaction.
type DB struct {
	*sql.DB
}

// Open opens or creates the SQLite database
func Open(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{DB: sqlDB}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// SaveSnapshot replaces the cached board
func (db *DB) SaveSnapshot(ctx context.Context, s model.Snapshot) error {
	values := map[string]interface{}{
		KeyProjectDefinitions: nonNil(s.ProjectDefinitions),
		KeyTasks:              s.Tasks,
		KeyDeletedTasks:       nonNil(s.DeletedTasks),
		KeyCompletedTasks:     nonNil(s.CompletedTasks),
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for key, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", key, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO snapshot (key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, string(data), now); err != nil {
			return fmt.Errorf("failed to save %s: %w", key, err)
		}
	}
	return tx.Commit()
}

// LoadSnapshot returns the cached board. ok is false when nothing has been
// saved yet.
func (db *DB) LoadSnapshot(ctx context.Context) (s model.Snapshot, ok bool, err error) {
	rows, err := db.QueryContext(ctx, `SELECT key, value FROM snapshot`)
	if err != nil {
		return s, false, fmt.Errorf("failed to read snapshot: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return s, false, err
		}
		var target interface{}
		switch key {
		case KeyProjectDefinitions:
			target = &s.ProjectDefinitions
		case KeyTasks:
			target = &s.Tasks
		case KeyDeletedTasks:
			target = &s.DeletedTasks
		case KeyCompletedTasks:
			target = &s.CompletedTasks
		default:
			continue
		}
		if err := json.Unmarshal([]byte(value), target); err != nil {
			return s, false, fmt.Errorf("failed to decode %s: %w", key, err)
		}
		ok = true
	}
	if err := rows.Err(); err != nil {
		return s, false, err
	}
	return s, ok, nil
}

// Clear removes the cached board and sync state
func (db *DB) Clear(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM snapshot`); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, `DELETE FROM sync_state`)
	return err
}

// SetLastSync records the time of the last successful full sync
func (db *DB) SetLastSync(ctx context.Context, t time.Time) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO sync_state (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		keyLastSync, t.UTC().Format(time.RFC3339Nano))
	return err
}

// LastSync returns the time of the last successful full sync
func (db *DB) LastSync(ctx context.Context) (time.Time, bool, error) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM sync_state WHERE key = ?`, keyLastSync).Scan(&value)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid last_sync value %q: %w", value, err)
	}
	return t, true, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

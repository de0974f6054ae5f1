package server

import (
	"context"
	"database/sql"
)

// migrate runs database migrations
func migrate(ctx context.Context, db *sql.DB) error {
	migrations := []string{
		migrationProjects,
		migrationTasks,
		migrationArchives,
		migrationDriveFiles,
		migrationDriveScanLog,
	}

	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return err
		}
	}

	return nil
}

const migrationProjects = `
CREATE TABLE IF NOT EXISTS projects (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    color TEXT NOT NULL DEFAULT '#ef4444',
    order_index INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ DEFAULT NOW(),
    updated_at TIMESTAMPTZ DEFAULT NOW()
);
`

const migrationTasks = `
CREATE TABLE IF NOT EXISTS tasks (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    notes TEXT NOT NULL DEFAULT '',
    project_id TEXT NOT NULL,
    container TEXT NOT NULL DEFAULT 'master',
    order_index INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ DEFAULT NOW(),
    updated_at TIMESTAMPTZ DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_tasks_container ON tasks(container, order_index);
`

const migrationArchives = `
CREATE TABLE IF NOT EXISTS completed_tasks (
    task_id TEXT PRIMARY KEY,
    task_data JSONB NOT NULL,
    project_color TEXT NOT NULL DEFAULT '',
    original_container TEXT NOT NULL,
    original_index INTEGER NOT NULL,
    completed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS deleted_tasks (
    task_id TEXT PRIMARY KEY,
    task_data JSONB NOT NULL,
    project_color TEXT NOT NULL DEFAULT '',
    original_container TEXT NOT NULL,
    original_index INTEGER NOT NULL,
    deleted_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_deleted_tasks_deleted_at ON deleted_tasks(deleted_at);
`

const migrationDriveFiles = `
CREATE TABLE IF NOT EXISTS gdrive_files (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    mime_type TEXT NOT NULL DEFAULT '',
    size BIGINT NOT NULL DEFAULT 0,
    modified_time TIMESTAMPTZ NOT NULL,
    web_view_link TEXT NOT NULL DEFAULT '',
    download_link TEXT NOT NULL DEFAULT '',
    shared_drive TEXT NOT NULL DEFAULT '',
    full_path TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'active',
    last_synced TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_gdrive_files_status ON gdrive_files(status, modified_time);
`

const migrationDriveScanLog = `
CREATE TABLE IF NOT EXISTS gdrive_scan_log (
    id BIGSERIAL PRIMARY KEY,
    scanned_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    lookback_hours INTEGER NOT NULL,
    files_scanned INTEGER NOT NULL DEFAULT 0,
    changes_detected INTEGER NOT NULL DEFAULT 0,
    changes JSONB NOT NULL DEFAULT '{}',
    status TEXT NOT NULL,
    error TEXT NOT NULL DEFAULT ''
);
`

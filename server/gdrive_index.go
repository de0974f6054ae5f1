package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/existflow/weekplan/internal/gdrive"
)

// PgIndex is the drive scanner's index in PostgreSQL
type PgIndex struct {
	db *sql.DB
}

// NewPgIndex uses the tables created by the server migrations
func NewPgIndex(db *sql.DB) *PgIndex {
	return &PgIndex{db: db}
}

var _ gdrive.Index = (*PgIndex)(nil)

const fileColumns = `id, name, mime_type, size, modified_time, web_view_link, download_link,
	shared_drive, full_path, status, last_synced, updated_at`

func scanFiles(rows *sql.Rows) ([]gdrive.File, error) {
	defer rows.Close()
	var out []gdrive.File
	for rows.Next() {
		var f gdrive.File
		if err := rows.Scan(&f.ID, &f.Name, &f.MimeType, &f.Size, &f.ModifiedTime, &f.WebViewLink,
			&f.DownloadLink, &f.SharedDrive, &f.FullPath, &f.Status, &f.LastSynced, &f.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (p *PgIndex) Get(ctx context.Context, id string) (gdrive.File, bool, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+fileColumns+` FROM gdrive_files WHERE id = $1`, id)
	if err != nil {
		return gdrive.File{}, false, err
	}
	files, err := scanFiles(rows)
	if err != nil || len(files) == 0 {
		return gdrive.File{}, false, err
	}
	return files[0], true, nil
}

func (p *PgIndex) Upsert(ctx context.Context, f gdrive.File) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO gdrive_files (`+fileColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = $2, mime_type = $3, size = $4, modified_time = $5, web_view_link = $6,
			download_link = $7, shared_drive = $8, full_path = $9, status = $10,
			last_synced = $11, updated_at = $12`,
		f.ID, f.Name, f.MimeType, f.Size, f.ModifiedTime, f.WebViewLink, f.DownloadLink,
		f.SharedDrive, f.FullPath, f.Status, f.LastSynced, f.UpdatedAt)
	return err
}

func (p *PgIndex) MarkDeleted(ctx context.Context, id string, at time.Time) error {
	_, err := p.db.ExecContext(ctx, `
		UPDATE gdrive_files SET status = $2, last_synced = $3, updated_at = $3 WHERE id = $1`,
		id, gdrive.StatusDeleted, at)
	return err
}

func (p *PgIndex) StaleActive(ctx context.Context, t time.Time) ([]gdrive.File, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+fileColumns+` FROM gdrive_files
		WHERE status = $1 AND last_synced < $2 ORDER BY last_synced DESC`, gdrive.StatusActive, t)
	if err != nil {
		return nil, err
	}
	return scanFiles(rows)
}

func (p *PgIndex) ActiveModifiedSince(ctx context.Context, t time.Time) ([]gdrive.File, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+fileColumns+` FROM gdrive_files
		WHERE status = $1 AND modified_time > $2 ORDER BY modified_time DESC`, gdrive.StatusActive, t)
	if err != nil {
		return nil, err
	}
	return scanFiles(rows)
}

func (p *PgIndex) DeletedSince(ctx context.Context, t time.Time) ([]gdrive.File, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+fileColumns+` FROM gdrive_files
		WHERE status = $1 AND updated_at > $2 ORDER BY updated_at DESC`, gdrive.StatusDeleted, t)
	if err != nil {
		return nil, err
	}
	return scanFiles(rows)
}

func (p *PgIndex) AppendLog(ctx context.Context, l gdrive.ScanLog) (int64, error) {
	changes, err := json.Marshal(l.Changes)
	if err != nil {
		return 0, err
	}
	var id int64
	err = p.db.QueryRowContext(ctx, `
		INSERT INTO gdrive_scan_log (scanned_at, lookback_hours, files_scanned, changes_detected, changes, status, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		l.ScannedAt, l.LookbackHours, l.FilesScanned, l.ChangesDetected, string(changes), l.Status, l.Error).Scan(&id)
	return id, err
}

func (p *PgIndex) UpdateLog(ctx context.Context, l gdrive.ScanLog) error {
	changes, err := json.Marshal(l.Changes)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `
		UPDATE gdrive_scan_log SET files_scanned = $2, changes_detected = $3, changes = $4, status = $5, error = $6
		WHERE id = $1`,
		l.ID, l.FilesScanned, l.ChangesDetected, string(changes), l.Status, l.Error)
	return err
}

func (p *PgIndex) LastLog(ctx context.Context) (gdrive.ScanLog, bool, error) {
	logs, err := p.Logs(ctx, 1)
	if err != nil || len(logs) == 0 {
		return gdrive.ScanLog{}, false, err
	}
	return logs[0], true, nil
}

func (p *PgIndex) Logs(ctx context.Context, limit int) ([]gdrive.ScanLog, error) {
	query := `SELECT id, scanned_at, lookback_hours, files_scanned, changes_detected, changes, status, error
		FROM gdrive_scan_log ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []gdrive.ScanLog
	for rows.Next() {
		var l gdrive.ScanLog
		var changes []byte
		if err := rows.Scan(&l.ID, &l.ScannedAt, &l.LookbackHours, &l.FilesScanned,
			&l.ChangesDetected, &changes, &l.Status, &l.Error); err != nil {
			return nil, err
		}
		if len(changes) > 0 {
			if err := json.Unmarshal(changes, &l.Changes); err != nil {
				return nil, errors.New("corrupt scan log changes")
			}
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

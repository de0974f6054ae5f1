package gdrive

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/existflow/weekplan/internal/logger"
)

// ErrNotConfigured is returned when no Drive credentials are available
var ErrNotConfigured = errors.New("google drive is not configured")

// maxPathDepth bounds the folder walk when resolving a file's path
const maxPathDepth = 10

// Lister is the read-only view of Google Drive the scanner needs
type Lister interface {
	SharedDrives(ctx context.Context) ([]SharedDrive, error)
	ModifiedSince(ctx context.Context, since time.Time) ([]RemoteFile, error)
	Folders(ctx context.Context) ([]Folder, error)
	Exists(ctx context.Context, fileID string) (bool, error)
}

// Scanner detects added, modified and deleted shared-drive files
type Scanner struct {
	lister   Lister
	index    Index
	lookback int
	now      func() time.Time
}

// NewScanner creates a scanner. lister may be nil, in which case scans fail
// with ErrNotConfigured but exports of already indexed files still work.
func NewScanner(lister Lister, index Index) *Scanner {
	return &Scanner{lister: lister, index: index, lookback: DefaultLookbackHours, now: time.Now}
}

// SetDefaultLookback sets the window used when a request gives none
func (s *Scanner) SetDefaultLookback(hours int) {
	if hours > 0 {
		s.lookback = hours
	}
}

// Resolve lists the shared-drive files modified in the window, with their
// drive name and folder path filled in. Files outside shared drives are
// skipped.
func (s *Scanner) Resolve(ctx context.Context, lookbackHours int) ([]File, error) {
	if s.lister == nil {
		return nil, ErrNotConfigured
	}
	since := s.now().Add(-time.Duration(lookbackHours) * time.Hour)

	drives, err := s.lister.SharedDrives(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list shared drives: %w", err)
	}
	if len(drives) == 0 {
		logger.Info("no shared drives found")
		return nil, nil
	}
	driveNames := make(map[string]string, len(drives))
	for _, d := range drives {
		driveNames[d.ID] = d.Name
	}

	remote, err := s.lister.ModifiedSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	var folders map[string]Folder
	var out []File
	for _, rf := range remote {
		var path []string
		if len(rf.Parents) == 0 {
			name, ok := driveNames[rf.DriveID]
			if !ok {
				continue
			}
			path = []string{name}
		} else {
			if folders == nil {
				list, err := s.lister.Folders(ctx)
				if err != nil {
					return nil, fmt.Errorf("failed to list folders: %w", err)
				}
				folders = make(map[string]Folder, len(list))
				for _, f := range list {
					folders[f.ID] = f
				}
			}
			var ok bool
			if path, ok = resolvePath(rf.Parents[0], folders, driveNames); !ok {
				continue
			}
		}
		out = append(out, File{
			ID:           rf.ID,
			Name:         rf.Name,
			MimeType:     rf.MimeType,
			Size:         rf.Size,
			ModifiedTime: rf.ModifiedTime,
			WebViewLink:  rf.WebViewLink,
			DownloadLink: "https://drive.google.com/uc?id=" + rf.ID,
			SharedDrive:  path[0],
			FullPath:     strings.Join(append(path, rf.Name), " > "),
			Status:       StatusActive,
		})
	}

	logger.Info("drive files resolved", logger.F("found", len(remote)), logger.F("kept", len(out)))
	return out, nil
}

// resolvePath walks parents up to a shared-drive root and returns the path
// from the drive name down to the direct parent.
func resolvePath(parent string, folders map[string]Folder, drives map[string]string) ([]string, bool) {
	var path []string
	for depth := 0; parent != "" && depth < maxPathDepth; depth++ {
		if name, ok := drives[parent]; ok {
			return append([]string{name}, path...), true
		}
		f, ok := folders[parent]
		if !ok {
			return nil, false
		}
		path = append([]string{f.Name}, path...)
		if len(f.Parents) == 0 {
			return nil, false
		}
		parent = f.Parents[0]
	}
	return nil, false
}

// Scan compares the window's files against the index, records what changed
// and appends an entry to the scan history.
func (s *Scanner) Scan(ctx context.Context, lookbackHours int) (ChangeSet, error) {
	if lookbackHours <= 0 {
		lookbackHours = s.lookback
	}
	now := s.now()
	log := ScanLog{ScannedAt: now, LookbackHours: lookbackHours, Status: "running"}
	id, err := s.index.AppendLog(ctx, log)
	if err != nil {
		return ChangeSet{}, fmt.Errorf("failed to record scan: %w", err)
	}
	log.ID = id

	cs, err := s.scan(ctx, now, lookbackHours)
	if err != nil {
		log.Status, log.Error = "failed", err.Error()
		s.index.UpdateLog(ctx, log)
		logger.Error("drive scan failed", logger.F("scan", id), logger.Err(err))
		return ChangeSet{}, err
	}

	cs.ScanID = id
	log.Status = "completed"
	log.FilesScanned = cs.FilesScanned
	log.ChangesDetected = cs.ChangesDetected
	log.Changes = cs.Changes
	if err := s.index.UpdateLog(ctx, log); err != nil {
		return cs, fmt.Errorf("failed to record scan: %w", err)
	}
	logger.Info("drive scan completed",
		logger.F("scan", id),
		logger.F("files", cs.FilesScanned),
		logger.F("changes", cs.ChangesDetected))
	return cs, nil
}

func (s *Scanner) scan(ctx context.Context, now time.Time, lookbackHours int) (ChangeSet, error) {
	files, err := s.Resolve(ctx, lookbackHours)
	if err != nil {
		return ChangeSet{}, err
	}

	cs := ChangeSet{
		FilesScanned: len(files),
		ScannedAt:    now,
		Changes:      Changes{Added: []string{}, Modified: []string{}, Deleted: []string{}},
	}
	scanned := make(map[string]bool, len(files))
	for _, f := range files {
		scanned[f.ID] = true
		existing, found, err := s.index.Get(ctx, f.ID)
		if err != nil {
			return ChangeSet{}, err
		}
		f.LastSynced = now
		f.UpdatedAt = now
		switch {
		case !found:
			cs.Changes.Added = append(cs.Changes.Added, f.Name)
		case f.ModifiedTime.After(existing.ModifiedTime) || existing.Status != StatusActive:
			cs.Changes.Modified = append(cs.Changes.Modified, f.Name)
		default:
			f.UpdatedAt = existing.UpdatedAt
		}
		if err := s.index.Upsert(ctx, f); err != nil {
			return ChangeSet{}, err
		}
	}

	// Files not seen in this window are only suspected deleted once their
	// last sync is older than the window; the API is asked to confirm.
	cutoff := now.Add(-time.Duration(lookbackHours) * time.Hour)
	stale, err := s.index.StaleActive(ctx, cutoff)
	if err != nil {
		return ChangeSet{}, err
	}
	for _, f := range stale {
		if scanned[f.ID] {
			continue
		}
		exists, err := s.lister.Exists(ctx, f.ID)
		if err != nil {
			logger.Warn("could not confirm drive file", logger.F("file", f.ID), logger.Err(err))
			continue
		}
		if exists {
			continue
		}
		if err := s.index.MarkDeleted(ctx, f.ID, now); err != nil {
			return ChangeSet{}, err
		}
		cs.Changes.Deleted = append(cs.Changes.Deleted, f.Name)
	}

	cs.ChangesDetected = cs.Changes.Count()
	return cs, nil
}

// History returns the most recent scan log entries, newest first
func (s *Scanner) History(ctx context.Context, limit int) ([]ScanLog, error) {
	return s.index.Logs(ctx, limit)
}

// Export builds the export document for files active or deleted in the window
func (s *Scanner) Export(ctx context.Context, lookbackHours int) (Document, error) {
	if lookbackHours <= 0 {
		lookbackHours = s.lookback
	}
	now := s.now()
	since := now.Add(-time.Duration(lookbackHours) * time.Hour)

	active, err := s.index.ActiveModifiedSince(ctx, since)
	if err != nil {
		return Document{}, err
	}
	deleted, err := s.index.DeletedSince(ctx, since)
	if err != nil {
		return Document{}, err
	}
	changes := Changes{Added: []string{}, Modified: []string{}, Deleted: []string{}}
	if last, ok, err := s.index.LastLog(ctx); err != nil {
		return Document{}, err
	} else if ok && last.Status == "completed" {
		changes = last.Changes
	}

	if active == nil {
		active = []File{}
	}
	if deleted == nil {
		deleted = []File{}
	}
	return Document{
		ExportTime:    now,
		LookbackHours: lookbackHours,
		Summary: Summary{
			TotalActiveFiles:  len(active),
			TotalDeletedFiles: len(deleted),
			ChangesInPeriod: ChangeCounts{
				Added:    len(changes.Added),
				Modified: len(changes.Modified),
				Deleted:  len(changes.Deleted),
			},
			FileTypes:        groupByType(active),
			SizeDistribution: sizeDistribution(active),
		},
		Changes: changes,
		Files:   DocumentFiles{Active: active, Deleted: deleted},
	}, nil
}

func groupByType(files []File) map[string]int {
	out := make(map[string]int)
	for _, f := range files {
		t := f.MimeType
		if t == "" {
			t = "unknown"
		}
		out[t]++
	}
	return out
}

func sizeDistribution(files []File) *SizeDistribution {
	var d SizeDistribution
	n := int64(0)
	for _, f := range files {
		if f.Size <= 0 {
			continue
		}
		if n == 0 || f.Size > d.Largest {
			d.Largest = f.Size
		}
		if n == 0 || f.Size < d.Smallest {
			d.Smallest = f.Size
		}
		d.Total += f.Size
		n++
	}
	if n == 0 {
		return nil
	}
	d.Average = (d.Total + n/2) / n
	return &d
}

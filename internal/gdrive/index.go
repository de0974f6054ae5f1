package gdrive

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Index persists what the scanner has seen so far
type Index interface {
	Get(ctx context.Context, id string) (File, bool, error)
	Upsert(ctx context.Context, f File) error
	MarkDeleted(ctx context.Context, id string, at time.Time) error
	// StaleActive returns active files last synced before t
	StaleActive(ctx context.Context, t time.Time) ([]File, error)
	// ActiveModifiedSince returns active files modified after t, newest first
	ActiveModifiedSince(ctx context.Context, t time.Time) ([]File, error)
	// DeletedSince returns files marked deleted after t, newest first
	DeletedSince(ctx context.Context, t time.Time) ([]File, error)
	AppendLog(ctx context.Context, l ScanLog) (int64, error)
	UpdateLog(ctx context.Context, l ScanLog) error
	LastLog(ctx context.Context) (ScanLog, bool, error)
	Logs(ctx context.Context, limit int) ([]ScanLog, error)
}

// MemoryIndex is an in-process Index
type MemoryIndex struct {
	mu    sync.Mutex
	files map[string]File
	logs  []ScanLog
}

// NewMemoryIndex returns an empty index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{files: make(map[string]File)}
}

func (m *MemoryIndex) Get(_ context.Context, id string) (File, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[id]
	return f, ok, nil
}

func (m *MemoryIndex) Upsert(_ context.Context, f File) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[f.ID] = f
	return nil
}

func (m *MemoryIndex) MarkDeleted(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.files[id]; ok {
		f.Status = StatusDeleted
		f.LastSynced = at
		f.UpdatedAt = at
		m.files[id] = f
	}
	return nil
}

func (m *MemoryIndex) filter(keep func(File) bool, newest func(File) time.Time) []File {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []File
	for _, f := range m.files {
		if keep(f) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return newest(out[i]).After(newest(out[j])) })
	return out
}

func (m *MemoryIndex) StaleActive(_ context.Context, t time.Time) ([]File, error) {
	return m.filter(
		func(f File) bool { return f.Status == StatusActive && f.LastSynced.Before(t) },
		func(f File) time.Time { return f.LastSynced },
	), nil
}

func (m *MemoryIndex) ActiveModifiedSince(_ context.Context, t time.Time) ([]File, error) {
	return m.filter(
		func(f File) bool { return f.Status == StatusActive && f.ModifiedTime.After(t) },
		func(f File) time.Time { return f.ModifiedTime },
	), nil
}

func (m *MemoryIndex) DeletedSince(_ context.Context, t time.Time) ([]File, error) {
	return m.filter(
		func(f File) bool { return f.Status == StatusDeleted && f.UpdatedAt.After(t) },
		func(f File) time.Time { return f.UpdatedAt },
	), nil
}

func (m *MemoryIndex) AppendLog(_ context.Context, l ScanLog) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = int64(len(m.logs) + 1)
	m.logs = append(m.logs, l)
	return l.ID, nil
}

func (m *MemoryIndex) UpdateLog(_ context.Context, l ScanLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.ID >= 1 && int(l.ID) <= len(m.logs) {
		m.logs[l.ID-1] = l
	}
	return nil
}

func (m *MemoryIndex) LastLog(_ context.Context) (ScanLog, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.logs) == 0 {
		return ScanLog{}, false, nil
	}
	return m.logs[len(m.logs)-1], true, nil
}

func (m *MemoryIndex) Logs(_ context.Context, limit int) ([]ScanLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ScanLog
	for i := len(m.logs) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, m.logs[i])
	}
	return out, nil
}

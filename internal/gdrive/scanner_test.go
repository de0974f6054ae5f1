package gdrive

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeLister struct {
	drives  []SharedDrive
	files   []RemoteFile
	folders []Folder
	gone    map[string]bool
	err     error
}

func (f *fakeLister) SharedDrives(context.Context) ([]SharedDrive, error) { return f.drives, f.err }
func (f *fakeLister) ModifiedSince(context.Context, time.Time) ([]RemoteFile, error) {
	return f.files, nil
}
func (f *fakeLister) Folders(context.Context) ([]Folder, error) { return f.folders, nil }
func (f *fakeLister) Exists(_ context.Context, id string) (bool, error) {
	return !f.gone[id], nil
}

var now = time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

func newTestScanner(l Lister) (*Scanner, *MemoryIndex) {
	idx := NewMemoryIndex()
	s := NewScanner(l, idx)
	s.now = func() time.Time { return now }
	return s, idx
}

func sampleLister() *fakeLister {
	return &fakeLister{
		drives: []SharedDrive{{ID: "d1", Name: "Team"}},
		folders: []Folder{
			{ID: "f-docs", Name: "Docs", Parents: []string{"d1"}, DriveID: "d1"},
			{ID: "f-specs", Name: "Specs", Parents: []string{"f-docs"}, DriveID: "d1"},
			{ID: "f-mine", Name: "Mine", Parents: []string{"my-root"}},
		},
		files: []RemoteFile{
			{ID: "a", Name: "plan.md", MimeType: "text/markdown", Size: 100, ModifiedTime: now.Add(-time.Hour), Parents: []string{"f-specs"}, DriveID: "d1"},
			{ID: "b", Name: "root.txt", MimeType: "text/plain", Size: 300, ModifiedTime: now.Add(-2 * time.Hour), DriveID: "d1"},
			{ID: "c", Name: "private.txt", MimeType: "text/plain", ModifiedTime: now.Add(-time.Hour), Parents: []string{"f-mine"}},
			{ID: "d", Name: "orphan.txt", ModifiedTime: now.Add(-time.Hour)},
		},
	}
}

func TestResolveKeepsSharedDriveFiles(t *testing.T) {
	s, _ := newTestScanner(sampleLister())
	files, err := s.Resolve(context.Background(), 36)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("files = %+v", files)
	}
	if files[0].FullPath != "Team > Docs > Specs > plan.md" || files[0].SharedDrive != "Team" {
		t.Errorf("nested path = %q (%q)", files[0].FullPath, files[0].SharedDrive)
	}
	if files[1].FullPath != "Team > root.txt" {
		t.Errorf("root path = %q", files[1].FullPath)
	}
	if files[0].DownloadLink != "https://drive.google.com/uc?id=a" {
		t.Errorf("download link = %q", files[0].DownloadLink)
	}
}

func TestResolveWithoutLister(t *testing.T) {
	s := NewScanner(nil, NewMemoryIndex())
	if _, err := s.Resolve(context.Background(), 1); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v", err)
	}
	if _, err := s.Scan(context.Background(), 1); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("scan err = %v", err)
	}
}

func TestScanDetectsChanges(t *testing.T) {
	lister := sampleLister()
	s, idx := newTestScanner(lister)
	ctx := context.Background()

	first, err := s.Scan(ctx, 36)
	if err != nil {
		t.Fatal(err)
	}
	if first.FilesScanned != 2 || len(first.Changes.Added) != 2 || first.ChangesDetected != 2 {
		t.Fatalf("first scan = %+v", first)
	}

	// unchanged rescan
	again, err := s.Scan(ctx, 36)
	if err != nil {
		t.Fatal(err)
	}
	if again.ChangesDetected != 0 {
		t.Errorf("rescan changes = %+v", again.Changes)
	}

	// plan.md edited; root.txt vanished and its last sync is now old
	lister.files[0].ModifiedTime = now.Add(-time.Minute)
	lister.files = lister.files[:1]
	lister.gone = map[string]bool{"b": true}
	stale, _, _ := idx.Get(ctx, "b")
	stale.LastSynced = now.Add(-48 * time.Hour)
	idx.Upsert(ctx, stale)

	third, err := s.Scan(ctx, 36)
	if err != nil {
		t.Fatal(err)
	}
	if len(third.Changes.Modified) != 1 || third.Changes.Modified[0] != "plan.md" {
		t.Errorf("modified = %v", third.Changes.Modified)
	}
	if len(third.Changes.Deleted) != 1 || third.Changes.Deleted[0] != "root.txt" {
		t.Errorf("deleted = %v", third.Changes.Deleted)
	}
	if f, _, _ := idx.Get(ctx, "b"); f.Status != StatusDeleted {
		t.Errorf("status = %q", f.Status)
	}

	logs, _ := idx.Logs(ctx, 0)
	if len(logs) != 3 || logs[0].Status != "completed" || logs[0].ChangesDetected != 2 {
		t.Errorf("logs = %+v", logs)
	}
}

func TestScanKeepsFilesThatStillExist(t *testing.T) {
	lister := sampleLister()
	s, idx := newTestScanner(lister)
	ctx := context.Background()
	s.Scan(ctx, 36)

	lister.files = nil
	f, _, _ := idx.Get(ctx, "a")
	f.LastSynced = now.Add(-72 * time.Hour)
	idx.Upsert(ctx, f)

	cs, err := s.Scan(ctx, 36)
	if err != nil {
		t.Fatal(err)
	}
	if cs.ChangesDetected != 0 {
		t.Errorf("changes = %+v", cs.Changes)
	}
}

func TestScanFailureIsLogged(t *testing.T) {
	lister := sampleLister()
	lister.err = errors.New("quota")
	s, idx := newTestScanner(lister)

	if _, err := s.Scan(context.Background(), 0); err == nil {
		t.Fatal("expected error")
	}
	last, ok, _ := idx.LastLog(context.Background())
	if !ok || last.Status != "failed" || last.Error == "" || last.LookbackHours != DefaultLookbackHours {
		t.Errorf("log = %+v", last)
	}
}

func TestExport(t *testing.T) {
	s, _ := newTestScanner(sampleLister())
	ctx := context.Background()
	if _, err := s.Scan(ctx, 36); err != nil {
		t.Fatal(err)
	}

	doc, err := s.Export(ctx, 36)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Summary.TotalActiveFiles != 2 || doc.Summary.ChangesInPeriod.Added != 2 {
		t.Errorf("summary = %+v", doc.Summary)
	}
	if doc.Files.Active[0].Name != "plan.md" {
		t.Errorf("newest first: %+v", doc.Files.Active)
	}
	if doc.Summary.FileTypes["text/markdown"] != 1 || doc.Summary.FileTypes["text/plain"] != 1 {
		t.Errorf("file types = %v", doc.Summary.FileTypes)
	}
	sd := doc.Summary.SizeDistribution
	if sd == nil || sd.Total != 400 || sd.Average != 200 || sd.Largest != 300 || sd.Smallest != 100 {
		t.Errorf("sizes = %+v", sd)
	}

	short, _ := s.Export(ctx, 1)
	if short.Summary.TotalActiveFiles != 0 || short.Summary.SizeDistribution != nil || short.Files.Active == nil {
		t.Errorf("1h export = %+v", short.Summary)
	}
}

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/existflow/weekplan/internal/board"
	"github.com/existflow/weekplan/internal/config"
	"github.com/existflow/weekplan/internal/gdrive"
	"github.com/existflow/weekplan/internal/model"
	"github.com/existflow/weekplan/internal/planner"
	"github.com/existflow/weekplan/server"
)

func sampleSnapshot() model.Snapshot {
	return model.Snapshot{
		ProjectDefinitions: []model.Project{
			{ID: "p1", Title: "Work", Color: "#3b82f6"},
			{ID: "p2", Title: "Home", Color: "#22c55e"},
		},
		Tasks: map[model.Container][]model.Task{
			model.Master: {
				{ID: "t1", Title: "Write report", ProjectID: "p1", Container: model.Master},
				{ID: "t2", Title: "Email Bob", ProjectID: "p1", Container: model.Master, OrderIndex: 1},
				{ID: "t3", Title: "Fix sink", ProjectID: "p2", Container: model.Master, OrderIndex: 2},
			},
			model.Monday: {
				{ID: "m1", Title: "Standup", ProjectID: "p1", Container: model.Monday},
			},
		},
	}
}

// newTestApp writes a config into a temp dir and returns an app that never
// prompts and never starts the TUI
func newTestApp(t *testing.T, serverURL string) *app {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.ServerURL = serverURL
	cfg.DBPath = filepath.Join(dir, "weekplan.db")
	cfg.LogFile = filepath.Join(dir, "weekplan.log")
	cfg.LogConsole = false
	cfg.DefaultProject = ""
	cfg.Sync.Retries = 0
	cfg.Sync.PollInterval = 0
	path := filepath.Join(dir, "config.yaml")
	if err := cfg.SaveTo(path); err != nil {
		t.Fatal(err)
	}
	return &app{
		cfgPath: path,
		open:    planner.Open,
		ask:     func(string) (bool, error) { return true, nil },
		isTTY:   func() bool { return false },
	}
}

func run(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(a)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, a *app, args ...string) string {
	t.Helper()
	out, err := run(t, a, args...)
	if err != nil {
		t.Fatalf("weekplan %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func importSample(t *testing.T, a *app) {
	t.Helper()
	data, err := json.Marshal(sampleSnapshot())
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "board.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	out := mustRun(t, a, "sync", "import", path, "-y")
	if !strings.Contains(out, "Imported 2 projects, 4 active tasks") {
		t.Fatalf("import output = %q", out)
	}
}

func export(t *testing.T, a *app) model.Snapshot {
	t.Helper()
	out := mustRun(t, a, "sync", "export")
	var snap model.Snapshot
	if err := json.Unmarshal([]byte(out), &snap); err != nil {
		t.Fatalf("decode export %q: %v", out, err)
	}
	return snap
}

func taskIDs(tasks []model.Task) string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return strings.Join(ids, ",")
}

func findByTitle(t *testing.T, snap model.Snapshot, title string) model.Task {
	t.Helper()
	for _, tasks := range snap.Tasks {
		for _, task := range tasks {
			if task.Title == title {
				return task
			}
		}
	}
	t.Fatalf("no task titled %q", title)
	return model.Task{}
}

func TestFirstRunSeedsSampleBoard(t *testing.T) {
	a := newTestApp(t, "")
	snap := export(t, a)
	want := board.DefaultSnapshot()
	if len(snap.ProjectDefinitions) != len(want.ProjectDefinitions) || snap.TaskCount() != want.TaskCount() {
		t.Errorf("first run = %d projects %d tasks, want %d and %d",
			len(snap.ProjectDefinitions), snap.TaskCount(), len(want.ProjectDefinitions), want.TaskCount())
	}
}

func TestBoardAndShow(t *testing.T) {
	a := newTestApp(t, "")
	importSample(t, a)

	out := mustRun(t, a, "board")
	for _, want := range []string{"MASTER (3)", "Work", "Home", "Write report", "MONDAY (1)", "Standup", "TUESDAY (0)", "(empty)"} {
		if !strings.Contains(out, want) {
			t.Errorf("board output missing %q:\n%s", want, out)
		}
	}

	out = mustRun(t, a, "ls", "-c", "monday")
	if strings.Contains(out, "MASTER") || !strings.Contains(out, "Standup") {
		t.Errorf("single column output = %q", out)
	}

	if _, err := run(t, a, "board", "-c", "someday"); err == nil {
		t.Error("unknown column accepted")
	}

	// no subcommand and no terminal prints the board
	out = mustRun(t, a)
	if !strings.Contains(out, "Write report") {
		t.Errorf("root output = %q", out)
	}

	out = mustRun(t, a, "show", "t1")
	if !strings.Contains(out, "Write report") || !strings.Contains(out, "project Work") {
		t.Errorf("show output = %q", out)
	}
}

func TestAddEditAndMove(t *testing.T) {
	a := newTestApp(t, "")
	importSample(t, a)

	out := mustRun(t, a, "add", "Buy", "milk", "-P", "home", "-c", "tuesday")
	if !strings.Contains(out, `[Home] Tuesday: "Buy milk"`) {
		t.Errorf("add output = %q", out)
	}
	out = mustRun(t, a, "add", "Plan week")
	if !strings.Contains(out, "[Work] Master") {
		t.Errorf("add without project = %q", out)
	}

	snap := export(t, a)
	milk := findByTitle(t, snap, "Buy milk")
	if milk.ProjectID != "p2" || milk.Container != model.Tuesday {
		t.Errorf("Buy milk = %+v", milk)
	}
	if got := taskIDs(snap.Tasks[model.Master]); !strings.HasPrefix(got, "t1,t2,") || !strings.HasSuffix(got, ",t3") {
		t.Errorf("master = %s, want the new task at the end of Work's run", got)
	}

	mustRun(t, a, "edit", "t1", "--title", "Write the report", "--notes", "# Outline")
	if task := findByTitle(t, export(t, a), "Write the report"); task.Notes != "# Outline" {
		t.Errorf("notes = %q", task.Notes)
	}
	if _, err := run(t, a, "edit", "t1"); err == nil {
		t.Error("edit without flags accepted")
	}

	out = mustRun(t, a, "mv", "t1", "monday", "--before", "m1")
	if !strings.Contains(out, "Monday (position 1)") {
		t.Errorf("mv output = %q", out)
	}
	if got := taskIDs(export(t, a).Tasks[model.Monday]); got != "t1,m1" {
		t.Errorf("monday = %s", got)
	}

	out = mustRun(t, a, "mv", "t1", "monday", "--before", "m1")
	if !strings.Contains(out, "Nothing to move.") {
		t.Errorf("no-op mv output = %q", out)
	}

	// back to master under Home
	mustRun(t, a, "mv", "t1", "master", "-P", "home")
	snap = export(t, a)
	if task := findByTitle(t, snap, "Write the report"); task.ProjectID != "p2" || task.Container != model.Master {
		t.Errorf("moved task = %+v", task)
	}

	if _, err := run(t, a, "mv", "nope", "monday"); !errors.As(err, &board.NotFoundError{}) {
		t.Errorf("unknown task err = %v", err)
	}
}

func TestCompleteAndReopen(t *testing.T) {
	a := newTestApp(t, "")
	importSample(t, a)

	out := mustRun(t, a, "done", "t2")
	if !strings.Contains(out, `Completed: "Email Bob"`) {
		t.Errorf("done output = %q", out)
	}
	out = mustRun(t, a, "completed")
	if !strings.Contains(out, "Completed (1)") || !strings.Contains(out, "Email Bob") {
		t.Errorf("completed output = %q", out)
	}

	out = mustRun(t, a, "completed", "undone", "t2")
	if !strings.Contains(out, `Reopened "Email Bob" in Master`) {
		t.Errorf("reopen output = %q", out)
	}
	snap := export(t, a)
	if len(snap.CompletedTasks) != 0 || findByTitle(t, snap, "Email Bob").Container != model.Master {
		t.Errorf("after reopen: %+v", snap.CompletedTasks)
	}
}

func TestRecycleBin(t *testing.T) {
	a := newTestApp(t, "")
	importSample(t, a)

	mustRun(t, a, "rm", "t3")
	out := mustRun(t, a, "bin")
	if !strings.Contains(out, "Recycle bin (1)") || !strings.Contains(out, "Fix sink") || !strings.Contains(out, "from Master") {
		t.Errorf("bin output = %q", out)
	}

	out = mustRun(t, a, "bin", "restore", "t3")
	if !strings.Contains(out, `Restored "Fix sink" to Master`) {
		t.Errorf("restore output = %q", out)
	}

	mustRun(t, a, "delete", "m1", "-y")
	mustRun(t, a, "bin", "purge", "m1", "-y")
	snap := export(t, a)
	if len(snap.DeletedTasks) != 0 || len(snap.Tasks[model.Monday]) != 0 {
		t.Errorf("after purge: deleted=%d monday=%d", len(snap.DeletedTasks), len(snap.Tasks[model.Monday]))
	}

	out = mustRun(t, a, "bin", "sweep")
	if !strings.Contains(out, "Swept 0 task(s) older than 30 days") {
		t.Errorf("sweep output = %q", out)
	}
}

func TestRestoreIntoAnotherProject(t *testing.T) {
	a := newTestApp(t, "")
	importSample(t, a)

	mustRun(t, a, "rm", "t3", "-y")
	mustRun(t, a, "project", "rm", "home", "-y")

	if _, err := run(t, a, "bin", "restore", "t3"); !board.IsNotFound(err) {
		t.Errorf("restore into deleted project: err = %v", err)
	}
	if _, err := run(t, a, "bin", "restore", "t3", "--project", "nowhere"); err == nil {
		t.Error("restore into unknown project succeeded")
	}
	out := mustRun(t, a, "bin", "restore", "t3", "--project", "work")
	if !strings.Contains(out, `Restored "Fix sink" to Master`) {
		t.Errorf("restore output = %q", out)
	}

	mustRun(t, a, "done", "t3")
	out = mustRun(t, a, "completed", "reopen", "t3", "-p", "p1")
	if !strings.Contains(out, `Reopened "Fix sink"`) {
		t.Errorf("reopen output = %q", out)
	}
	if got := findByTitle(t, export(t, a), "Fix sink"); got.ProjectID != "p1" {
		t.Errorf("project = %q, want p1", got.ProjectID)
	}
}

func TestDeclinedConfirmationKeepsTask(t *testing.T) {
	a := newTestApp(t, "")
	importSample(t, a)
	a.ask = func(string) (bool, error) { return false, nil }

	out := mustRun(t, a, "rm", "t1")
	if !strings.Contains(out, "Cancelled.") {
		t.Errorf("output = %q", out)
	}
	if snap := export(t, a); len(snap.DeletedTasks) != 0 {
		t.Errorf("task deleted after declining")
	}
}

func TestProjects(t *testing.T) {
	a := newTestApp(t, "")
	importSample(t, a)

	out := mustRun(t, a, "project", "add", "Garden", "--color", "green")
	if !strings.Contains(out, "Created project: Garden") {
		t.Errorf("add output = %q", out)
	}
	if _, err := run(t, a, "project", "add", "Bad", "--color", "plaid"); err == nil {
		t.Error("unknown color accepted")
	}

	out = mustRun(t, a, "project", "mv", "garden", "--before", "work")
	if !strings.Contains(out, "Project order: Garden, Work, Home") {
		t.Errorf("mv output = %q", out)
	}

	mustRun(t, a, "project", "edit", "garden", "--title", "Yard", "-c", "red")
	out = mustRun(t, a, "project", "ls")
	if !strings.Contains(out, "Yard") || !strings.Contains(out, "Red") || !strings.Contains(out, "3 projects, 4 active tasks") {
		t.Errorf("ls output = %q", out)
	}

	if _, err := run(t, a, "project", "rm", "work"); !errors.As(err, &board.ConflictError{}) {
		t.Errorf("deleting a project with tasks: err = %v", err)
	}
	mustRun(t, a, "project", "rm", "yard", "-y")
	if n := len(export(t, a).ProjectDefinitions); n != 2 {
		t.Errorf("projects = %d, want 2", n)
	}
}

func TestContext(t *testing.T) {
	a := newTestApp(t, "")
	importSample(t, a)

	out := mustRun(t, a, "context")
	if !strings.Contains(out, "first project (default)") {
		t.Errorf("context output = %q", out)
	}

	mustRun(t, a, "context", "set", "home")
	cfg, err := config.LoadFrom(a.cfgPath)
	if err != nil || cfg.DefaultProject != "p2" {
		t.Fatalf("saved context = %q, %v", cfg.DefaultProject, err)
	}
	out = mustRun(t, a, "context")
	if !strings.Contains(out, "Current context: Home (1 tasks)") {
		t.Errorf("context output = %q", out)
	}
	out = mustRun(t, a, "add", "Water plants")
	if !strings.Contains(out, "[Home]") {
		t.Errorf("add output = %q", out)
	}
	out = mustRun(t, a, "project", "ls")
	if !strings.Contains(out, "❯") {
		t.Errorf("default project not marked: %q", out)
	}

	mustRun(t, a, "context", "clear")
	if cfg, _ := config.LoadFrom(a.cfgPath); cfg.DefaultProject != "" {
		t.Errorf("context not cleared: %q", cfg.DefaultProject)
	}
}

func TestExportToFile(t *testing.T) {
	a := newTestApp(t, "")
	importSample(t, a)

	path := filepath.Join(t.TempDir(), "out.json")
	out := mustRun(t, a, "sync", "export", "-o", path)
	if !strings.Contains(out, "Wrote "+path) {
		t.Errorf("export output = %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil || snap.TaskCount() != 4 {
		t.Errorf("exported file: %d tasks, %v", snap.TaskCount(), err)
	}
}

func TestServerCommandsNeedAServer(t *testing.T) {
	a := newTestApp(t, "")
	for _, args := range [][]string{{"sync"}, {"drive", "scan"}, {"drive", "history"}} {
		if _, err := run(t, a, args...); err == nil || !strings.Contains(err.Error(), "no server configured") {
			t.Errorf("%v: err = %v", args, err)
		}
	}
	out := mustRun(t, a, "sync", "status")
	if !strings.Contains(out, "local only") || !strings.Contains(out, "Last sync: never") {
		t.Errorf("status output = %q", out)
	}
}

func TestRemoteWritesReachTheServer(t *testing.T) {
	store := server.NewMemStore(sampleSnapshot())
	srv := httptest.NewServer(server.New(store,
		server.WithDrive(gdrive.NewScanner(nil, gdrive.NewMemoryIndex()))).Router())
	defer srv.Close()

	a := newTestApp(t, srv.URL)

	out := mustRun(t, a, "add", "Deploy", "-P", "work", "-c", "friday")
	if !strings.Contains(out, "[Work] Friday") {
		t.Errorf("add output = %q", out)
	}
	mustRun(t, a, "done", "t2")

	snap, err := store.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := snap.Tasks[model.Friday]; len(got) != 1 || got[0].Title != "Deploy" {
		t.Errorf("server friday = %+v", got)
	}
	if len(snap.CompletedTasks) != 1 || snap.CompletedTasks[0].Task.ID != "t2" {
		t.Errorf("server completed = %+v", snap.CompletedTasks)
	}

	out = mustRun(t, a, "sync")
	if !strings.Contains(out, "Pulled 2 projects, 4 active tasks") {
		t.Errorf("sync output = %q", out)
	}
	out = mustRun(t, a, "sync", "status")
	if !strings.Contains(out, "Health:    ok") || strings.Contains(out, "Last sync: never") {
		t.Errorf("status output = %q", out)
	}

	out = mustRun(t, a, "drive", "history")
	if !strings.Contains(out, "No scans yet.") {
		t.Errorf("history output = %q", out)
	}
}

func TestRemoteImportReplacesServerBoard(t *testing.T) {
	store := server.NewMemStore(board.DefaultSnapshot())
	srv := httptest.NewServer(server.New(store).Router())
	defer srv.Close()

	a := newTestApp(t, srv.URL)
	importSample(t, a)

	snap, err := store.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.ProjectDefinitions) != 2 || snap.ProjectDefinitions[0].Title != "Work" {
		t.Errorf("server projects = %+v", snap.ProjectDefinitions)
	}

	if _, err := run(t, a, "drive", "history"); err == nil {
		t.Error("drive history without a scanner succeeded")
	}
}

func TestClearLocalCacheReseeds(t *testing.T) {
	a := newTestApp(t, "")
	importSample(t, a)

	out := mustRun(t, a, "clear", "-y")
	if !strings.Contains(out, "Local data cleared.") || strings.Contains(out, "Remote") {
		t.Errorf("clear output = %q", out)
	}
	if snap := export(t, a); snap.ProjectDefinitions[0].ID != board.DefaultSnapshot().ProjectDefinitions[0].ID {
		t.Errorf("after clear projects = %+v", snap.ProjectDefinitions)
	}

	if _, err := run(t, a, "clear", "--remote", "-y"); err == nil {
		t.Error("remote clear without a server succeeded")
	}
}

func TestClearRemote(t *testing.T) {
	store := server.NewMemStore(sampleSnapshot())
	srv := httptest.NewServer(server.New(store).Router())
	defer srv.Close()

	a := newTestApp(t, srv.URL)
	out := mustRun(t, a, "clear", "--all", "-y")
	if !strings.Contains(out, "Remote data cleared.") || !strings.Contains(out, "Local data cleared.") {
		t.Errorf("clear output = %q", out)
	}
	snap, err := store.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.ProjectDefinitions) != 0 || snap.TaskCount() != 0 {
		t.Errorf("server board not cleared: %+v", snap)
	}
}

func TestMatchID(t *testing.T) {
	ids := []string{"3f2a91", "3f2b00", "9c1d"}
	tests := []struct {
		ref     string
		want    string
		wantErr bool
	}{
		{"3f2a91", "3f2a91", false},
		{"3f2a", "3f2a91", false},
		{"9", "9c1d", false},
		{"3f2", "", true},
		{"zz", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := matchID("task", tt.ref, ids)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	// an exact id wins over a longer id sharing its prefix
	if got, err := matchID("task", "ab", []string{"abc", "ab"}); err != nil || got != "ab" {
		t.Errorf("exact match = %q, %v", got, err)
	}
}

func TestFindProject(t *testing.T) {
	b, err := board.FromSnapshot(sampleSnapshot())
	if err != nil {
		t.Fatal(err)
	}
	for ref, want := range map[string]string{"work": "p1", "HOME": "p2", "p2": "p2"} {
		p, err := findProject(b, ref)
		if err != nil || p.ID != want {
			t.Errorf("findProject(%q) = %q, %v", ref, p.ID, err)
		}
	}
	if _, err := findProject(b, "p"); err == nil {
		t.Error("ambiguous prefix accepted")
	}
}

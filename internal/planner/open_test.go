package planner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/existflow/weekplan/internal/board"
	"github.com/existflow/weekplan/internal/config"
	"github.com/existflow/weekplan/internal/model"
	"github.com/existflow/weekplan/server"
)

func testConfig(t *testing.T, serverURL string) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.ServerURL = serverURL
	cfg.DBPath = filepath.Join(t.TempDir(), "weekplan.db")
	cfg.Sync.Retries = 0
	cfg.Sync.PollInterval = 0
	return cfg
}

// A task created right after its project must not reach the server first,
// even when the project write is slow.
func TestRuntimeSendsDependentWritesInOrder(t *testing.T) {
	store := server.NewMemStore(board.DefaultSnapshot())
	api := server.New(store).Router()
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/api/projects" {
			<-release
		}
		api.ServeHTTP(w, r)
	}))
	defer srv.Close()

	ctx := context.Background()
	rt, err := Open(ctx, testConfig(t, srv.URL))
	if err != nil {
		t.Fatal(err)
	}

	p, err := rt.AddProject("Errands", "")
	if err != nil {
		close(release)
		t.Fatal(err)
	}
	task, err := rt.AddTask(model.NewTask{Title: "Post office", ProjectID: p.ID, Container: model.Monday})
	if err != nil {
		close(release)
		t.Fatal(err)
	}
	if !rt.Move(model.Move{ItemID: task.ID, Source: model.Monday, Target: model.Tuesday}) {
		close(release)
		t.Fatal("move rejected")
	}

	time.Sleep(20 * time.Millisecond)
	close(release)

	closeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	errs := rt.Errors()
	if err := rt.Close(closeCtx); err != nil {
		t.Fatal(err)
	}
	for e := range errs {
		t.Errorf("sync error: %v", e)
	}

	snap, err := store.Snapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, x := range snap.Tasks[model.Tuesday] {
		if x.ID == task.ID && x.ProjectID == p.ID {
			found = true
		}
	}
	if !found {
		t.Errorf("server tuesday = %+v, want task %s of project %s", snap.Tasks[model.Tuesday], task.ID, p.ID)
	}
}

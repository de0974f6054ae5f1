package tui

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/existflow/weekplan/internal/board"
	"github.com/existflow/weekplan/internal/model"
	"github.com/existflow/weekplan/internal/planner"
	"github.com/existflow/weekplan/internal/sync"
)

var t0 = time.Date(2025, 5, 5, 9, 0, 0, 0, time.UTC)

// sample: master holds Work (t1, t2) then Home (t3); monday holds m1..m3
func sample() model.Snapshot {
	return model.Snapshot{
		ProjectDefinitions: []model.Project{
			{ID: "p1", Title: "Work", Color: "#3b82f6"},
			{ID: "p2", Title: "Home", Color: "#22c55e"},
		},
		Tasks: map[model.Container][]model.Task{
			model.Master: {
				{ID: "t1", Title: "Report", ProjectID: "p1"},
				{ID: "t2", Title: "Slides", ProjectID: "p1"},
				{ID: "t3", Title: "Laundry", ProjectID: "p2", Notes: "# Whites\n- socks"},
			},
			model.Monday: {
				{ID: "m1", Title: "Standup", ProjectID: "p1"},
				{ID: "m2", Title: "Review", ProjectID: "p1"},
				{ID: "m3", Title: "Gym", ProjectID: "p2"},
			},
		},
	}
}

func newTestModel(t *testing.T) (Model, *planner.Session) {
	t.Helper()
	n := 0
	s := planner.New(sample(),
		planner.WithClock(board.ClockFunc(func() time.Time { return t0 })),
		planner.WithIDs(func() string { n++; return fmt.Sprintf("new-%d", n) }),
	)
	m := NewModel(s, Options{Now: func() time.Time { return t0.Add(2 * time.Hour) }})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	return next.(Model), s
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func ids(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestShiftMove(t *testing.T) {
	task := model.Item{Kind: model.ItemTask, Task: &model.Task{ID: "t"}}
	project := model.Item{Kind: model.ItemProject, Project: &model.Project{ID: "p"}}

	tests := []struct {
		name   string
		from   model.Container
		item   model.Item
		dir    int
		target model.Container
		ok     bool
	}{
		{"monday to master", model.Monday, task, -1, model.Master, true},
		{"master to monday", model.Master, task, 1, model.Monday, true},
		{"nothing left of master", model.Master, task, -1, "", false},
		{"nothing right of weekend", model.Weekend, task, 1, "", false},
		{"projects stay in master", model.Master, project, 1, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := shiftMove(tt.from, tt.item, tt.dir)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && (m.Target != tt.target || m.Source != tt.from || m.AnchorID != "") {
				t.Errorf("move = %+v", m)
			}
		})
	}
}

func TestReorderMove(t *testing.T) {
	tests := []struct {
		name    string
		c       model.Container
		row     int
		dir     int
		ok      bool
		wantC   model.Container
		want    []string
		project string // expected project of the moved task, if any
	}{
		{"day down", model.Monday, 0, 1, true, model.Monday, []string{"m2", "m1", "m3"}, ""},
		{"day down to end", model.Monday, 1, 1, true, model.Monday, []string{"m1", "m3", "m2"}, ""},
		{"day last cannot go down", model.Monday, 2, 1, false, "", nil, ""},
		{"day up", model.Monday, 1, -1, true, model.Monday, []string{"m2", "m1", "m3"}, ""},
		{"day first cannot go up", model.Monday, 0, -1, false, "", nil, ""},
		{"master down within run", model.Master, 1, 1, true, model.Master, []string{"t2", "t1", "t3"}, "p1"},
		{"master up within run", model.Master, 2, -1, true, model.Master, []string{"t2", "t1", "t3"}, "p1"},
		{"master down into next project", model.Master, 2, 1, true, model.Master, []string{"t1", "t2", "t3"}, "p2"},
		{"master up into previous project", model.Master, 4, -1, true, model.Master, []string{"t1", "t2", "t3"}, "p1"},
		{"master first task of first project", model.Master, 1, -1, false, "", nil, ""},
		{"master last task of last project", model.Master, 4, 1, false, "", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := board.FromSnapshot(sample())
			items := b.Tasks(tt.c)
			var rows []model.Item
			if tt.c == model.Master {
				rows = b.MasterItems()
			} else {
				for i := range items {
					rows = append(rows, model.Item{Kind: model.ItemTask, Task: &items[i]})
				}
			}

			mv, ok := reorderMove(b, tt.c, rows, tt.row, tt.dir)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v (move %+v)", ok, tt.ok, mv)
			}
			if !ok {
				return
			}
			nb := b.Move(mv)
			if nb == b {
				t.Fatalf("move %+v was a no-op", mv)
			}
			if got := ids(nb.Tasks(tt.wantC)); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("order = %v, want %v", got, tt.want)
			}
			if tt.project != "" {
				moved, _ := nb.Task(mv.ItemID)
				if moved.ProjectID != tt.project {
					t.Errorf("project = %s, want %s", moved.ProjectID, tt.project)
				}
			}
		})
	}
}

func TestReorderProjects(t *testing.T) {
	b, _ := board.FromSnapshot(sample())
	items := b.MasterItems()

	// Home header sits at row 3.
	mv, ok := reorderMove(b, model.Master, items, 3, -1)
	if !ok {
		t.Fatal("expected a move")
	}
	nb := b.Move(mv)
	if got := nb.Projects(); got[0].ID != "p2" || got[1].ID != "p1" {
		t.Errorf("projects = %v", got)
	}

	mv, ok = reorderMove(b, model.Master, items, 0, 1)
	if !ok || mv.AnchorID != "" {
		t.Fatalf("move = %+v, %v", mv, ok)
	}
	if got := b.Move(mv).Projects(); got[0].ID != "p2" {
		t.Errorf("projects = %v", got)
	}

	if _, ok := reorderMove(b, model.Master, items, 0, -1); ok {
		t.Error("first project cannot move up")
	}
}

func TestModelMovesFollowTheCursor(t *testing.T) {
	m, s := newTestModel(t)
	m = press(t, m, "j", "L")

	if c, _, _ := s.Board().Locate("t1"); c != model.Monday {
		t.Fatalf("t1 in %s, want monday", c)
	}
	if m.container() != model.Monday {
		t.Errorf("cursor column = %s", m.container())
	}
	if it, ok := m.selected(); !ok || it.ID() != "t1" {
		t.Errorf("selected = %v", it.ID())
	}

	m = press(t, m, "K")
	if got := ids(s.Board().Tasks(model.Monday)); !reflect.DeepEqual(got, []string{"m1", "m2", "t1", "m3"}) {
		t.Errorf("monday = %v", got)
	}
	if it, _ := m.selected(); it.ID() != "t1" {
		t.Errorf("selected = %v", it.ID())
	}
}

func TestModelCompleteAndReopen(t *testing.T) {
	m, s := newTestModel(t)
	m = press(t, m, "j", "x")
	if len(s.Board().Completed()) != 1 {
		t.Fatalf("completed = %d", len(s.Board().Completed()))
	}

	m = press(t, m, "c")
	if m.mode != ModeCompleted {
		t.Fatalf("mode = %v", m.mode)
	}
	if !strings.Contains(m.View(), "completed 2 hours ago") {
		t.Errorf("completed view missing time ago:\n%s", m.View())
	}

	m = press(t, m, "u", "esc")
	if _, ok := s.Board().Task("t1"); !ok {
		t.Error("t1 was not reopened")
	}
	if m.mode != ModeNormal {
		t.Errorf("mode = %v", m.mode)
	}
}

func TestModelBin(t *testing.T) {
	m, s := newTestModel(t)
	m = press(t, m, "j", "d", "d")
	if got := len(s.Board().Deleted()); got != 2 {
		t.Fatalf("deleted = %d", got)
	}

	// Newest first: the second deletion is on top.
	m = press(t, m, "b")
	if recs := m.deleted(); recs[0].Task.ID == "t1" {
		t.Fatalf("bin order = %v", recs)
	}
	m = press(t, m, "D")
	if got := len(s.Board().Deleted()); got != 1 {
		t.Fatalf("deleted after purge = %d", got)
	}
	m = press(t, m, "u")
	if _, ok := s.Board().Task("t1"); !ok {
		t.Error("t1 was not restored")
	}
	if len(s.Board().Deleted()) != 0 {
		t.Error("bin should be empty")
	}
	_ = m
}

func TestModelAddAndEdit(t *testing.T) {
	m, s := newTestModel(t)
	m = press(t, m, "a")
	if m.mode != ModeAddTask {
		t.Fatalf("mode = %v", m.mode)
	}
	m = press(t, m, "Buy milk", "enter")

	task, ok := s.Board().Task("new-1")
	if !ok || task.Title != "Buy milk" || task.ProjectID != "p1" || task.Container != model.Master {
		t.Fatalf("task = %+v, %v", task, ok)
	}
	if it, _ := m.selected(); it.ID() != "new-1" {
		t.Errorf("selected = %s", it.ID())
	}

	m = press(t, m, "e", "!", "enter")
	if task, _ := s.Board().Task("new-1"); task.Title != "Buy milk!" {
		t.Errorf("title = %q", task.Title)
	}

	m = press(t, m, "p", "Garden", "enter")
	if _, ok := s.Board().Project("new-2"); !ok {
		t.Error("project not created")
	}

	// Esc discards the modal.
	m = press(t, m, "a", "nope", "esc")
	if len(s.Board().MasterItems()) != 7 {
		t.Errorf("master items = %d", len(s.Board().MasterItems()))
	}
	_ = m
}

func TestModelRejectedTransitionShowsMessage(t *testing.T) {
	m, s := newTestModel(t)
	m = press(t, m, "d")
	if !strings.Contains(m.message, "still has 4 task(s)") {
		t.Errorf("message = %q", m.message)
	}
	if len(s.Board().Projects()) != 2 {
		t.Error("project should not be deleted")
	}

	m = press(t, m, "C")
	if p, _ := s.Board().Project("p1"); p.Color != "#22c55e" {
		t.Errorf("color = %s", p.Color)
	}
}

func TestModelSyncErrorBanner(t *testing.T) {
	m, _ := newTestModel(t)
	err := sync.SyncError{Op: sync.Op{Kind: sync.OpMoveTask, EntityID: "t1"}, Attempts: 3, Err: errors.New("boom")}
	next, _ := m.Update(syncErrorMsg(err))
	m = next.(Model)
	if !strings.Contains(m.banner, "move_task") {
		t.Fatalf("banner = %q", m.banner)
	}
	if !strings.Contains(m.View(), "Sync failed") {
		t.Error("banner not rendered")
	}
	m = press(t, m, "esc")
	if m.banner != "" {
		t.Error("esc should dismiss the banner")
	}

	m = press(t, m, "r")
	if m.message != "No server configured" {
		t.Errorf("message = %q", m.message)
	}
}

func TestModelPicksUpExternalChanges(t *testing.T) {
	m, s := newTestModel(t)
	s.Replace(model.Snapshot{ProjectDefinitions: []model.Project{{ID: "x", Title: "Only"}}})

	select {
	case <-m.changed:
	default:
		t.Fatal("session change was not signalled")
	}
	next, _ := m.Update(boardChangedMsg{})
	m = next.(Model)
	if got := len(m.board.MasterItems()); got != 1 {
		t.Errorf("master items = %d", got)
	}
}

func TestViewRendersColumns(t *testing.T) {
	m, _ := newTestModel(t)
	out := m.View()
	for _, want := range []string{"Master", "Monday", "Weekend", "Work", "Standup"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m = press(t, m, "j", "j", "j", "j", "enter")
	if m.mode != ModeNotes {
		t.Fatalf("mode = %v", m.mode)
	}
	if out := m.View(); !strings.Contains(out, "Laundry") || !strings.Contains(out, "socks") {
		t.Errorf("notes view:\n%s", out)
	}
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{time.Minute, "1 minute ago"},
		{45 * time.Minute, "45 minutes ago"},
		{3 * time.Hour, "3 hours ago"},
		{24 * time.Hour, "1 day ago"},
		{6 * 24 * time.Hour, "6 days ago"},
		{40 * 24 * time.Hour, "Apr 22, 2025"},
	}
	for _, tt := range tests {
		if got := TimeAgo(now.Add(-tt.ago), now); got != tt.want {
			t.Errorf("TimeAgo(-%v) = %q, want %q", tt.ago, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("hello world", 8); got != "hello..." {
		t.Errorf("got %q", got)
	}
	if got := truncate("héllo", 5); got != "héllo" {
		t.Errorf("got %q", got)
	}
}

package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/existflow/weekplan/internal/board"
	"github.com/existflow/weekplan/internal/logger"
	"github.com/existflow/weekplan/internal/model"
	"github.com/existflow/weekplan/internal/planner"
	"github.com/existflow/weekplan/internal/sync"
)

// Mode represents the current UI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeAddTask
	ModeAddProject
	ModeEditTitle
	ModeEditNotes
	ModeNotes
	ModeBin
	ModeCompleted
	ModeHelp
)

func (m Mode) editing() bool {
	switch m {
	case ModeAddTask, ModeAddProject, ModeEditTitle, ModeEditNotes:
		return true
	}
	return false
}

// Options wires the model to the optional sync collaborators
type Options struct {
	Errors <-chan sync.SyncError
	Resync func(ctx context.Context) error
	Now    func() time.Time
}

// Model is the main TUI model
type Model struct {
	session *planner.Session
	board   *board.Board
	errors  <-chan sync.SyncError
	resync  func(ctx context.Context) error
	now     func() time.Time

	// changed is signalled by the session after every transition or resync
	changed chan struct{}

	// UI state
	width  int
	height int
	mode   Mode
	col    int
	rows   []int
	cursor int // bin and completed views

	// Input
	input    textinput.Model
	editing  string // id of the project or task being edited
	notesFor string

	banner  string
	message string
}

// NewModel creates a new TUI model over session
func NewModel(session *planner.Session, opts Options) Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	m := Model{
		session: session,
		board:   session.Board(),
		errors:  opts.Errors,
		resync:  opts.Resync,
		now:     now,
		changed: make(chan struct{}, 1),
		rows:    make([]int, len(model.Containers())),
		input:   ti,
	}
	changed := m.changed
	session.SetOnChange(func(*board.Board) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})

	logger.Debug("TUI model initialized",
		logger.F("projects", len(m.board.Projects())),
		logger.F("master_items", len(m.board.MasterItems())))
	return m
}

// container returns the focused column
func (m Model) container() model.Container {
	return model.Containers()[m.col]
}

// items returns the rows of a column: project headers and tasks for master,
// tasks for the day columns
func (m Model) items(c model.Container) []model.Item {
	if c == model.Master {
		return m.board.MasterItems()
	}
	tasks := m.board.Tasks(c)
	items := make([]model.Item, len(tasks))
	for i := range tasks {
		items[i] = model.Item{Kind: model.ItemTask, Task: &tasks[i]}
	}
	return items
}

// selected returns the item under the cursor
func (m Model) selected() (model.Item, bool) {
	items := m.items(m.container())
	row := m.rows[m.col]
	if row < 0 || row >= len(items) {
		return model.Item{}, false
	}
	return items[row], true
}

// currentProjectID is the project new tasks are added to: the selected
// item's project, or the first project
func (m Model) currentProjectID() string {
	if it, ok := m.selected(); ok {
		if it.Kind == model.ItemProject {
			return it.Project.ID
		}
		return it.Task.ProjectID
	}
	if projects := m.board.Projects(); len(projects) > 0 {
		return projects[0].ID
	}
	return ""
}

// refresh picks up the session's latest board and keeps cursors in range
func (m *Model) refresh() {
	m.board = m.session.Board()
	for i, c := range model.Containers() {
		m.rows[i] = clamp(m.rows[i], len(m.items(c)))
	}
	m.cursor = clamp(m.cursor, m.archiveLen())
}

// follow puts the cursor on the item with id, wherever it now lives
func (m *Model) follow(id string) {
	for i, c := range model.Containers() {
		for j, it := range m.items(c) {
			if it.ID() == id {
				m.col, m.rows[i] = i, j
				return
			}
		}
	}
}

func (m Model) archiveLen() int {
	switch m.mode {
	case ModeBin:
		return len(m.board.Deleted())
	case ModeCompleted:
		return len(m.board.Completed())
	}
	return 0
}

// deleted returns the recycle bin newest first
func (m Model) deleted() []model.DeletedTaskRecord {
	recs := m.board.Deleted()
	for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
		recs[i], recs[j] = recs[j], recs[i]
	}
	return recs
}

// completed returns the archive newest first
func (m Model) completed() []model.CompletedTaskRecord {
	recs := m.board.Completed()
	for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
		recs[i], recs[j] = recs[j], recs[i]
	}
	return recs
}

func clamp(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

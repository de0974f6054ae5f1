package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/existflow/weekplan/internal/board"
	"github.com/existflow/weekplan/internal/logger"
	"github.com/existflow/weekplan/internal/model"
	"github.com/existflow/weekplan/internal/sync"
)

// tickMsg is sent every second so relative times stay fresh
type tickMsg time.Time

// boardChangedMsg is sent when the session installs a new board
type boardChangedMsg struct{}

// syncErrorMsg carries a failed remote write
type syncErrorMsg sync.SyncError

// resyncMsg reports the end of a manual resync
type resyncMsg struct{ err error }

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.waitForChange(), m.waitForSyncError())
}

func tickCmd() tea.Cmd {
	return tea.Every(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForChange listens for boards installed behind the UI's back
func (m Model) waitForChange() tea.Cmd {
	ch := m.changed
	return func() tea.Msg {
		<-ch
		return boardChangedMsg{}
	}
}

// waitForSyncError listens for failed remote writes
func (m Model) waitForSyncError() tea.Cmd {
	if m.errors == nil {
		return nil
	}
	ch := m.errors
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return nil
		}
		return syncErrorMsg(e)
	}
}

func (m Model) doResync() tea.Cmd {
	resync := m.resync
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return resyncMsg{err: resync(ctx)}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m, tickCmd()

	case boardChangedMsg:
		m.refresh()
		return m, m.waitForChange()

	case syncErrorMsg:
		err := sync.SyncError(msg)
		logger.Warn("remote write failed", logger.Err(err))
		m.banner = fmt.Sprintf("Sync failed: %s (r to resync)", err.Op)
		return m, m.waitForSyncError()

	case resyncMsg:
		if msg.err != nil {
			m.message = "Resync failed: " + msg.err.Error()
		} else {
			m.banner = ""
			m.message = "Board reloaded from server"
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case m.mode.editing():
			return m.updateInput(msg)
		case m.mode == ModeHelp, m.mode == ModeNotes:
			m.mode = ModeNormal
			return m, nil
		case m.mode == ModeBin, m.mode == ModeCompleted:
			return m.handleArchiveKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	return m, nil
}

// handleNormalKeys handles key presses on the board
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.message = ""
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Left):
		if m.col > 0 {
			m.col--
		}

	case key.Matches(msg, keys.Right):
		if m.col < len(model.Containers())-1 {
			m.col++
		}

	case key.Matches(msg, keys.Up):
		if m.rows[m.col] > 0 {
			m.rows[m.col]--
		}

	case key.Matches(msg, keys.Down):
		if m.rows[m.col] < len(m.items(m.container()))-1 {
			m.rows[m.col]++
		}

	case key.Matches(msg, keys.MoveLeft):
		m.handleShift(-1)

	case key.Matches(msg, keys.MoveRight):
		m.handleShift(1)

	case key.Matches(msg, keys.MoveUp):
		m.handleReorder(-1)

	case key.Matches(msg, keys.MoveDown):
		m.handleReorder(1)

	case key.Matches(msg, keys.Enter):
		if it, ok := m.selected(); ok && it.Kind == model.ItemTask {
			m.notesFor = it.Task.ID
			m.mode = ModeNotes
		}

	case key.Matches(msg, keys.Add):
		if m.currentProjectID() == "" {
			m.message = "Create a project first (p)"
			break
		}
		return m.startInput(ModeAddTask, "", "New task title...", "")

	case key.Matches(msg, keys.Project):
		return m.startInput(ModeAddProject, "", "New project title...", "")

	case key.Matches(msg, keys.Edit):
		if it, ok := m.selected(); ok {
			var title string
			if it.Kind == model.ItemProject {
				title = it.Project.Title
			} else {
				title = it.Task.Title
			}
			return m.startInput(ModeEditTitle, it.ID(), "Title...", title)
		}

	case key.Matches(msg, keys.Notes):
		if it, ok := m.selected(); ok && it.Kind == model.ItemTask {
			return m.startInput(ModeEditNotes, it.ID(), "Notes (markdown)...", it.Task.Notes)
		}

	case key.Matches(msg, keys.Color):
		m.handleNextColor()

	case key.Matches(msg, keys.Done):
		if it, ok := m.selected(); ok && it.Kind == model.ItemTask {
			if _, err := m.session.CompleteTask(it.ID()); err != nil {
				m.fail(err)
				break
			}
			m.message = fmt.Sprintf("Completed %q", it.Task.Title)
		}
		m.refresh()

	case key.Matches(msg, keys.Delete):
		m.handleDelete()

	case key.Matches(msg, keys.Bin):
		m.mode = ModeBin
		m.cursor = 0

	case key.Matches(msg, keys.Completed):
		m.mode = ModeCompleted
		m.cursor = 0

	case key.Matches(msg, keys.Escape):
		m.banner = ""

	case key.Matches(msg, keys.Help):
		m.mode = ModeHelp

	case key.Matches(msg, keys.Refresh):
		if m.resync == nil {
			m.message = "No server configured"
			break
		}
		m.message = "Resyncing..."
		return m, m.doResync()
	}

	return m, nil
}

func (m *Model) handleShift(dir int) {
	it, ok := m.selected()
	if !ok {
		return
	}
	mv, ok := shiftMove(m.container(), it, dir)
	if !ok {
		return
	}
	if m.session.Move(mv) {
		m.refresh()
		m.follow(mv.ItemID)
	}
}

func (m *Model) handleReorder(dir int) {
	c := m.container()
	mv, ok := reorderMove(m.board, c, m.items(c), m.rows[m.col], dir)
	if !ok {
		return
	}
	if m.session.Move(mv) {
		m.refresh()
		m.follow(mv.ItemID)
	}
}

func (m *Model) handleDelete() {
	it, ok := m.selected()
	if !ok {
		return
	}
	if it.Kind == model.ItemProject {
		if err := m.session.DeleteProject(it.ID()); err != nil {
			m.fail(err)
			return
		}
		m.message = fmt.Sprintf("Deleted project %q", it.Project.Title)
	} else {
		if _, err := m.session.DeleteTask(it.ID()); err != nil {
			m.fail(err)
			return
		}
		m.message = fmt.Sprintf("Moved %q to the recycle bin", it.Task.Title)
	}
	m.refresh()
}

// handleNextColor cycles the selected project through the palette
func (m *Model) handleNextColor() {
	it, ok := m.selected()
	if !ok || it.Kind != model.ItemProject {
		return
	}
	p := *it.Project
	next := model.Palette[0].Value
	for i, c := range model.Palette {
		if strings.EqualFold(c.Value, p.Color) {
			next = model.Palette[(i+1)%len(model.Palette)].Value
		}
	}
	if err := m.session.EditProject(p.ID, p.Title, next); err != nil {
		m.fail(err)
		return
	}
	m.refresh()
}

// handleArchiveKeys drives the recycle bin and completed views
func (m Model) handleArchiveKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.message = ""
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Escape), key.Matches(msg, keys.Bin) && m.mode == ModeBin,
		key.Matches(msg, keys.Completed) && m.mode == ModeCompleted:
		m.mode = ModeNormal

	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, keys.Down):
		if m.cursor < m.archiveLen()-1 {
			m.cursor++
		}

	case key.Matches(msg, keys.Restore):
		m.handleRestore()

	case key.Matches(msg, keys.Purge):
		if m.mode != ModeBin {
			break
		}
		recs := m.deleted()
		if m.cursor >= len(recs) {
			break
		}
		if err := m.session.PermanentlyDelete(recs[m.cursor].Task.ID); err != nil {
			m.fail(err)
			break
		}
		m.message = fmt.Sprintf("Deleted %q forever", recs[m.cursor].Task.Title)
		m.refresh()
	}
	return m, nil
}

func (m *Model) handleRestore() {
	var (
		id, title string
		err       error
	)
	switch m.mode {
	case ModeBin:
		recs := m.deleted()
		if m.cursor >= len(recs) {
			return
		}
		id, title = recs[m.cursor].Task.ID, recs[m.cursor].Task.Title
		_, err = m.session.RestoreTask(id)
	case ModeCompleted:
		recs := m.completed()
		if m.cursor >= len(recs) {
			return
		}
		id, title = recs[m.cursor].Task.ID, recs[m.cursor].Task.Title
		_, err = m.session.MarkIncomplete(id)
	default:
		return
	}
	if err != nil {
		m.fail(err)
		return
	}
	m.message = fmt.Sprintf("Restored %q", title)
	m.refresh()
}

func (m Model) startInput(mode Mode, id, placeholder, value string) (tea.Model, tea.Cmd) {
	m.mode = mode
	m.editing = id
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
	return m, nil
}

// updateInput handles the text modal
func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closeInput()
		return m, nil
	case tea.KeyEnter:
		m.submitInput(strings.TrimSpace(m.input.Value()))
		m.closeInput()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) closeInput() {
	m.mode = ModeNormal
	m.editing = ""
	m.input.Blur()
	m.input.SetValue("")
}

func (m *Model) submitInput(value string) {
	var err error
	switch m.mode {
	case ModeAddTask:
		var t model.Task
		t, err = m.session.AddTask(model.NewTask{
			Title:     value,
			ProjectID: m.currentProjectID(),
			Container: m.container(),
		})
		if err == nil {
			m.refresh()
			m.follow(t.ID)
			m.message = fmt.Sprintf("Added %q", t.Title)
		}

	case ModeAddProject:
		color := model.Palette[len(m.board.Projects())%len(model.Palette)].Value
		var p model.Project
		p, err = m.session.AddProject(value, color)
		if err == nil {
			m.refresh()
			m.follow(p.ID)
			m.message = fmt.Sprintf("Created project %q", p.Title)
		}

	case ModeEditTitle:
		if p, ok := m.board.Project(m.editing); ok {
			err = m.session.EditProject(p.ID, value, p.Color)
		} else {
			err = m.session.EditTask(m.editing, model.TaskPatch{Title: &value})
		}

	case ModeEditNotes:
		err = m.session.EditTask(m.editing, model.TaskPatch{Notes: &value})
	}

	if err != nil {
		m.fail(err)
		return
	}
	m.refresh()
}

// fail shows a rejected transition in the status bar
func (m *Model) fail(err error) {
	var conflict board.ConflictError
	switch {
	case errors.As(err, &conflict):
		m.message = fmt.Sprintf("Project still has %d task(s)", conflict.Outstanding)
	default:
		m.message = "Error: " + err.Error()
	}
	logger.Debug("transition rejected", logger.Err(err))
}

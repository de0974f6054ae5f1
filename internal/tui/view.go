package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/existflow/weekplan/internal/model"
)

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var main string
	switch m.mode {
	case ModeHelp:
		main = m.renderHelp()
	case ModeNotes:
		main = m.renderNotes()
	case ModeBin:
		main = m.renderBin()
	case ModeCompleted:
		main = m.renderCompleted()
	default:
		main = m.renderBoard()
		if m.mode.editing() {
			main = lipgloss.Place(
				m.width, m.bodyHeight(),
				lipgloss.Center, lipgloss.Center,
				m.renderModal(),
				lipgloss.WithWhitespaceChars(" "),
			)
		}
	}

	parts := []string{}
	if m.banner != "" {
		parts = append(parts, BannerStyle.Width(m.width).Render(m.banner))
	}
	parts = append(parts, main, m.renderStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) bodyHeight() int {
	h := m.height - 2
	if m.banner != "" {
		h--
	}
	if h < 5 {
		h = 5
	}
	return h
}

func (m Model) columnWidth() int {
	w := m.width/len(model.Containers()) - 4
	if w < 14 {
		w = 14
	}
	return w
}

func (m Model) renderBoard() string {
	cols := make([]string, 0, len(model.Containers()))
	for i, c := range model.Containers() {
		cols = append(cols, m.renderColumn(i, c))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (m Model) renderColumn(idx int, c model.Container) string {
	width := m.columnWidth()
	items := m.items(c)
	focused := idx == m.col

	var b strings.Builder
	title := fmt.Sprintf("%s %s", c.Label(), HelpStyle.Render(fmt.Sprintf("(%d)", len(m.board.Tasks(c)))))
	b.WriteString(ColumnTitleStyle.Render(title) + "\n")
	b.WriteString(lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("─", width)) + "\n")

	visible := m.bodyHeight() - 4
	if visible < 1 {
		visible = 1
	}
	start := 0
	if row := m.rows[idx]; row >= visible {
		start = row - visible + 1
	}
	end := start + visible
	if end > len(items) {
		end = len(items)
	}

	if len(items) == 0 {
		b.WriteString(HelpStyle.Render("empty") + "\n")
	}
	for i := start; i < end; i++ {
		line := m.renderItem(items[i], width)
		if focused && i == m.rows[idx] {
			line = ItemSelectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}

	style := ColumnStyle
	if focused {
		style = ColumnFocusedStyle
	}
	return style.Width(width).Height(m.bodyHeight() - 2).Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderItem(it model.Item, width int) string {
	if it.Kind == model.ItemProject {
		p := it.Project
		count := HelpStyle.Render(fmt.Sprintf(" %d", m.board.TaskCount(p.ID)))
		return swatch(p.Color) + " " + ProjectHeaderStyle.Render(truncate(p.Title, width-6)) + count
	}
	t := it.Task
	indent := ""
	if t.Container == model.Master {
		indent = "  "
	}
	title := truncate(t.Title, width-3-len(indent))
	if t.Notes != "" {
		title = truncate(t.Title, width-5-len(indent)) + HelpStyle.Render(" ✎")
	}
	return indent + swatch(m.board.ColorOf(*t)) + " " + title
}

func (m Model) renderModal() string {
	title := "Add Task"
	switch m.mode {
	case ModeAddTask:
		if p, ok := m.board.Project(m.currentProjectID()); ok {
			title = fmt.Sprintf("Add Task to %s · %s", p.Title, m.container().Label())
		}
	case ModeAddProject:
		title = "New Project"
	case ModeEditTitle:
		title = "Rename"
	case ModeEditNotes:
		title = "Edit Notes"
	}

	content := lipgloss.NewStyle().Bold(true).Render(title) + "\n\n"
	content += m.input.View() + "\n\n"
	content += HelpStyle.Render("Enter:save  Esc:cancel")

	return ModalStyle.Render(content)
}

func (m Model) renderNotes() string {
	t, ok := m.board.Task(m.notesFor)
	if !ok {
		return HelpStyle.Render("Task no longer exists")
	}
	width := m.width - 8
	if width > 100 {
		width = 100
	}
	header := swatch(m.board.ColorOf(t)) + " " + lipgloss.NewStyle().Bold(true).Render(t.Title)
	if p, ok := m.board.Project(t.ProjectID); ok {
		header += HelpStyle.Render(fmt.Sprintf("  %s · %s", p.Title, t.Container.Label()))
	}
	body := header + "\n\n" + RenderMarkdown(t.Notes, width)
	return lipgloss.Place(m.width, m.bodyHeight(), lipgloss.Center, lipgloss.Center,
		ModalStyle.Render(body))
}

// archiveRow formats one record; the live project color wins over the
// snapshot taken when the record was created
func (m Model) archiveRow(i int, t model.Task, snapshotColor, when string) string {
	color := m.board.ColorOf(t)
	if color == "" {
		color = snapshotColor
	}
	line := fmt.Sprintf("%s %s  %s", swatch(color), truncate(t.Title, 50), HelpStyle.Render(when))
	if i == m.cursor {
		line = ItemSelectedStyle.Render(line)
	}
	return line
}

func (m Model) renderBin() string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render("Recycle Bin") + "\n\n")
	recs := m.deleted()
	if len(recs) == 0 {
		b.WriteString(HelpStyle.Render("  Nothing here") + "\n")
	}
	for i, r := range recs {
		when := fmt.Sprintf("from %s, deleted %s", r.OriginalContainer.Label(), TimeAgo(r.DeletedAt, m.now()))
		b.WriteString(m.archiveRow(i, r.Task, r.ProjectColor, when) + "\n")
	}
	b.WriteString("\n" + HelpStyle.Render("u:restore  D:delete forever  esc:back"))
	return lipgloss.NewStyle().Height(m.bodyHeight()).Padding(1, 2).Render(b.String())
}

func (m Model) renderCompleted() string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render("Completed") + "\n\n")
	recs := m.completed()
	if len(recs) == 0 {
		b.WriteString(HelpStyle.Render("  Nothing completed yet") + "\n")
	}
	for i, r := range recs {
		when := fmt.Sprintf("completed %s", TimeAgo(r.CompletedAt, m.now()))
		b.WriteString(m.archiveRow(i, r.Task, r.ProjectColor, when) + "\n")
	}
	b.WriteString("\n" + HelpStyle.Render("u:mark incomplete  esc:back"))
	return lipgloss.NewStyle().Height(m.bodyHeight()).Padding(1, 2).Render(b.String())
}

func (m Model) renderStatusBar() string {
	help := "a:add  p:project  e:edit  x:done  d:del  H/L/J/K:move  b:bin  c:completed  ?:help  q:quit"
	if m.message != "" {
		help = m.message
	}

	status := ""
	if m.session.Busy() {
		status = "Syncing..."
	}
	if status != "" {
		avail := m.width - lipgloss.Width(help) - len(status) - 2
		if avail > 0 {
			help += strings.Repeat(" ", avail) + status
		} else {
			help += " " + status
		}
	}
	return StatusBarStyle.Width(m.width).Render(help)
}

func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(Primary).Render("Keyboard Shortcuts") + "\n")
	for _, g := range helpGroups() {
		b.WriteString("\n" + lipgloss.NewStyle().Bold(true).Render(g.title) + "\n")
		for _, k := range g.bindings {
			h := k.Help()
			b.WriteString(fmt.Sprintf("  %-8s %s\n", h.Key, h.Desc))
		}
	}
	b.WriteString("\n" + HelpStyle.Render("Press any key to close"))
	return lipgloss.Place(m.width, m.bodyHeight(), lipgloss.Center, lipgloss.Center,
		ModalStyle.Render(b.String()))
}

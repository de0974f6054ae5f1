package board

import "github.com/existflow/weekplan/internal/model"

// Move applies a drag-and-drop instruction and returns the resulting board.
// Malformed or stale instructions never fail: they either degrade to an
// append or leave the board unchanged, in which case the receiver itself is
// returned so callers can detect a no-op with ==.
func (b *Board) Move(m model.Move) *Board {
	if m.Target == "" || m.ItemID == "" || m.ItemID == m.AnchorID {
		return b
	}
	if b.projectIndex(m.ItemID) >= 0 {
		return b.moveProject(m)
	}
	return b.moveTask(m)
}

// moveProject reorders the project list. Tasks in master follow their
// project because master is regrouped afterwards.
func (b *Board) moveProject(m model.Move) *Board {
	if m.Source != model.Master || m.Target != model.Master {
		return b
	}
	from := b.projectIndex(m.ItemID)
	moved := b.projects[from]

	anchor := m.AnchorID
	if i := taskIndex(b.tasks[model.Master], anchor); i >= 0 {
		anchor = b.tasks[model.Master][i].ProjectID
	}
	if anchor == moved.ID {
		return b
	}

	rest := make([]model.Project, 0, len(b.projects)-1)
	rest = append(rest, b.projects[:from]...)
	rest = append(rest, b.projects[from+1:]...)

	at := len(rest)
	for i, p := range rest {
		if p.ID == anchor {
			at = i
			break
		}
	}

	nb := b.clone()
	nb.projects = insertAt(rest, at, moved)
	nb.normalize()
	if sameLayout(nb, b) {
		return b
	}
	return nb
}

func (b *Board) moveTask(m model.Move) *Board {
	from := taskIndex(b.tasks[m.Source], m.ItemID)
	if !m.Source.Valid() || from < 0 {
		return b
	}
	task := b.tasks[m.Source][from]

	target := m.Target
	if !target.Valid() {
		target = model.Master
	}
	switch {
	case m.NewProjectID != "" && b.projectIndex(m.NewProjectID) >= 0:
		task.ProjectID = m.NewProjectID
	case target == model.Master && b.projectIndex(m.AnchorID) >= 0:
		// Dropped on a project header.
		task.ProjectID = m.AnchorID
	}

	nb := b.clone()
	nb.tasks[m.Source] = removeAt(nb.tasks[m.Source], from)

	if target == model.Master {
		nb.tasks[model.Master] = insertIntoRun(nb.tasks[model.Master], task, m.AnchorID)
	} else {
		// Anchor positions are resolved after the moved task has been removed.
		tasks := nb.tasks[target]
		at := len(tasks)
		if m.AnchorID != string(target) {
			if i := taskIndex(tasks, m.AnchorID); i >= 0 {
				at = i
			}
		}
		nb.tasks[target] = insertAt(tasks, at, task)
	}

	nb.normalize()
	if sameLayout(nb, b) {
		return b
	}
	return nb
}

// insertIntoRun places task inside its project's run in a grouped master
// list: before anchor when anchor is a task of the same project, at the top
// of the run when anchor is the project header, otherwise at the end of the run.
func insertIntoRun(master []model.Task, task model.Task, anchor string) []model.Task {
	first, last := -1, -1
	for i, t := range master {
		if t.ProjectID == task.ProjectID {
			if first < 0 {
				first = i
			}
			last = i
		}
	}

	switch {
	case anchor != "" && anchor == task.ProjectID && first >= 0:
		return insertAt(master, first, task)
	case anchor != "":
		if i := taskIndex(master, anchor); i >= 0 && master[i].ProjectID == task.ProjectID {
			return insertAt(master, i, task)
		}
	}
	if last >= 0 {
		return insertAt(master, last+1, task)
	}
	// Empty run: normalize moves it into place.
	return append(master, task)
}

// flattenMaster groups tasks into contiguous runs following project order,
// keeping the relative order inside each run. Tasks of unknown projects
// are kept at the end.
func flattenMaster(projects []model.Project, tasks []model.Task) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	placed := make(map[string]bool, len(projects))
	for _, p := range projects {
		placed[p.ID] = true
		for _, t := range tasks {
			if t.ProjectID == p.ID {
				out = append(out, t)
			}
		}
	}
	for _, t := range tasks {
		if !placed[t.ProjectID] {
			out = append(out, t)
		}
	}
	return out
}

func insertAt[T any](s []T, i int, v T) []T {
	if i < 0 {
		i = 0
	}
	if i > len(s) {
		i = len(s)
	}
	out := make([]T, 0, len(s)+1)
	out = append(out, s[:i]...)
	out = append(out, v)
	return append(out, s[i:]...)
}

func removeAt[T any](s []T, i int) []T {
	out := make([]T, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...)
}

package tui

import (
	"github.com/existflow/weekplan/internal/board"
	"github.com/existflow/weekplan/internal/model"
)

// shiftMove sends the selected task to the neighbouring column, appending
// it there. Projects never leave master.
func shiftMove(c model.Container, it model.Item, dir int) (model.Move, bool) {
	if it.Kind != model.ItemTask {
		return model.Move{}, false
	}
	cols := model.Containers()
	idx := -1
	for i, col := range cols {
		if col == c {
			idx = i
		}
	}
	next := idx + dir
	if idx < 0 || next < 0 || next >= len(cols) {
		return model.Move{}, false
	}
	return model.Move{ItemID: it.Task.ID, Source: c, Target: cols[next]}, true
}

// reorderMove moves the item at row one step up (dir < 0) or down within
// its column. Anchors follow the post-removal rule: moving down anchors on
// the item two rows below. In master a task stepping past its project
// header joins the neighbouring project.
func reorderMove(b *board.Board, c model.Container, items []model.Item, row, dir int) (model.Move, bool) {
	if row < 0 || row >= len(items) {
		return model.Move{}, false
	}
	it := items[row]
	if it.Kind == model.ItemProject {
		return projectStep(b, it.Project.ID, dir)
	}
	m := model.Move{ItemID: it.Task.ID, Source: c, Target: c}
	if c != model.Master {
		ids := make([]string, len(items))
		for i, x := range items {
			ids[i] = x.ID()
		}
		anchor, ok := stepAnchor(ids, row, dir)
		m.AnchorID = anchor
		return m, ok
	}

	if dir < 0 {
		if row == 0 {
			return model.Move{}, false
		}
		prev := items[row-1]
		if prev.Kind == model.ItemTask {
			m.AnchorID = prev.ID()
			return m, true
		}
		projects := b.Projects()
		pi := projectPos(projects, it.Task.ProjectID)
		if pi <= 0 {
			return model.Move{}, false
		}
		m.NewProjectID = projects[pi-1].ID
		return m, true
	}

	if row+1 >= len(items) {
		return model.Move{}, false
	}
	next := items[row+1]
	if next.Kind == model.ItemProject {
		// Top of the next project's run.
		m.NewProjectID = next.Project.ID
		m.AnchorID = next.Project.ID
		return m, true
	}
	if row+2 < len(items) && items[row+2].Kind == model.ItemTask {
		m.AnchorID = items[row+2].ID()
	}
	return m, true
}

func projectStep(b *board.Board, id string, dir int) (model.Move, bool) {
	projects := b.Projects()
	ids := make([]string, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}
	anchor, ok := stepAnchor(ids, projectPos(projects, id), dir)
	return model.Move{ItemID: id, Source: model.Master, Target: model.Master, AnchorID: anchor}, ok
}

// stepAnchor returns the insert-before anchor that moves ids[i] one step
func stepAnchor(ids []string, i, dir int) (string, bool) {
	if i < 0 || (dir < 0 && i == 0) || (dir > 0 && i >= len(ids)-1) {
		return "", false
	}
	if dir < 0 {
		return ids[i-1], true
	}
	if i+2 < len(ids) {
		return ids[i+2], true
	}
	return "", true
}

func projectPos(projects []model.Project, id string) int {
	for i, p := range projects {
		if p.ID == id {
			return i
		}
	}
	return -1
}

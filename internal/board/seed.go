package board

import "github.com/existflow/weekplan/internal/model"

// DefaultSnapshot is the board shown on first start when nothing has been
// saved locally or remotely.
func DefaultSnapshot() model.Snapshot {
	projects := []model.Project{
		{ID: "project-1", Title: "TODAY - Urgent Tasks", Color: model.Palette[0].Value},
		{ID: "project-2", Title: "Side Project", Color: model.Palette[1].Value},
		{ID: "project-3", Title: "TO SCHEDULE", Color: model.Palette[2].Value},
	}
	master := []model.Task{
		{ID: "task-1", Title: "Reply to pending emails", ProjectID: "project-1"},
		{ID: "task-2", Title: "Update the docs", ProjectID: "project-1"},
		{ID: "task-3", Title: "Prepare quotes", ProjectID: "project-1"},
		{ID: "task-11", Title: "Start planning assignments", ProjectID: "project-2"},
		{ID: "task-16", Title: "Follow up on open questions", ProjectID: "project-3"},
	}
	s := model.Snapshot{
		ProjectDefinitions: projects,
		Tasks:              map[model.Container][]model.Task{model.Master: master},
	}
	b, _ := FromSnapshot(s)
	return b.Snapshot()
}

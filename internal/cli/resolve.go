package cli

import (
	"fmt"
	"strings"

	"github.com/existflow/weekplan/internal/board"
	"github.com/existflow/weekplan/internal/model"
)

// shortID is the id prefix printed in listings and accepted by every command
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// matchID resolves ref against ids: an exact match wins, otherwise ref must
// be the prefix of exactly one id
func matchID(kind, ref string, ids []string) (string, error) {
	var matches []string
	for _, id := range ids {
		if id == ref {
			return id, nil
		}
		if strings.HasPrefix(id, ref) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return "", board.NotFoundError{Kind: kind, ID: ref}
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%s id %q is ambiguous (%d matches)", kind, ref, len(matches))
	}
}

// findTask resolves an active task by id or id prefix
func findTask(b *board.Board, ref string) (model.Task, error) {
	var ids []string
	for _, c := range model.Containers() {
		for _, t := range b.Tasks(c) {
			ids = append(ids, t.ID)
		}
	}
	id, err := matchID("task", ref, ids)
	if err != nil {
		return model.Task{}, err
	}
	t, _ := b.Task(id)
	return t, nil
}

// findDeleted resolves a recycle-bin record by task id or prefix
func findDeleted(b *board.Board, ref string) (model.DeletedTaskRecord, error) {
	recs := b.Deleted()
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.Task.ID
	}
	id, err := matchID("deleted task", ref, ids)
	if err != nil {
		return model.DeletedTaskRecord{}, err
	}
	for _, r := range recs {
		if r.Task.ID == id {
			return r, nil
		}
	}
	return model.DeletedTaskRecord{}, board.NotFoundError{Kind: "deleted task", ID: ref}
}

// findCompleted resolves a completion record by task id or prefix
func findCompleted(b *board.Board, ref string) (model.CompletedTaskRecord, error) {
	recs := b.Completed()
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.Task.ID
	}
	id, err := matchID("completed task", ref, ids)
	if err != nil {
		return model.CompletedTaskRecord{}, err
	}
	for _, r := range recs {
		if r.Task.ID == id {
			return r, nil
		}
	}
	return model.CompletedTaskRecord{}, board.NotFoundError{Kind: "completed task", ID: ref}
}

// findProject resolves a project by title (case-insensitive), id or id prefix
func findProject(b *board.Board, ref string) (model.Project, error) {
	projects := b.Projects()
	for _, p := range projects {
		if strings.EqualFold(p.Title, ref) {
			return p, nil
		}
	}
	ids := make([]string, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}
	id, err := matchID("project", ref, ids)
	if err != nil {
		return model.Project{}, err
	}
	p, _ := b.Project(id)
	return p, nil
}

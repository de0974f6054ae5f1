package board

import (
	"strings"
	"time"

	"github.com/existflow/weekplan/internal/model"
)

// AddProject appends a new project with a generated id
func (b *Board) AddProject(title, color string) (*Board, model.Project, error) {
	return b.AddProjectWithID("", title, color)
}

// AddProjectWithID appends a new project. An empty id is generated; a
// non-empty one must not collide with an existing entity.
func (b *Board) AddProjectWithID(id, title, color string) (*Board, model.Project, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return b, model.Project{}, ValidationError{Field: "title", Msg: "must not be empty"}
	}
	value, ok := model.ResolveColor(color)
	if !ok {
		return b, model.Project{}, ValidationError{Field: "color", Msg: "not in palette: " + color}
	}
	if id == "" {
		id = b.newID()
	} else if b.knownID(id) {
		return b, model.Project{}, ValidationError{Field: "id", Msg: "already in use: " + id}
	}

	p := model.Project{ID: id, Title: title, Color: value, OrderIndex: len(b.projects)}
	nb := b.clone()
	nb.projects = append(nb.projects, p)
	nb.normalize()
	return nb, p, nil
}

// EditProject changes a project's title and color. An empty color keeps the
// current one. Project order is never touched.
func (b *Board) EditProject(id, title, color string) (*Board, error) {
	i := b.projectIndex(id)
	if i < 0 {
		return b, NotFoundError{Kind: "project", ID: id}
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return b, ValidationError{Field: "title", Msg: "must not be empty"}
	}
	value := b.projects[i].Color
	if color != "" {
		var ok bool
		if value, ok = model.ResolveColor(color); !ok {
			return b, ValidationError{Field: "color", Msg: "not in palette: " + color}
		}
	}

	nb := b.clone()
	nb.projects[i].Title = title
	nb.projects[i].Color = value
	return nb, nil
}

// DeleteProject removes a project that no active task references
func (b *Board) DeleteProject(id string) (*Board, error) {
	i := b.projectIndex(id)
	if i < 0 {
		return b, NotFoundError{Kind: "project", ID: id}
	}
	if n := b.TaskCount(id); n > 0 {
		return b, ConflictError{ProjectID: id, Outstanding: n}
	}

	nb := b.clone()
	nb.projects = removeAt(nb.projects, i)
	nb.normalize()
	return nb, nil
}

// AddTask creates a task at the end of its project's run in master, or at
// the end of a day container.
func (b *Board) AddTask(in model.NewTask) (*Board, model.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return b, model.Task{}, ValidationError{Field: "title", Msg: "must not be empty"}
	}
	if in.ProjectID == "" {
		return b, model.Task{}, ValidationError{Field: "projectId", Msg: "must not be empty"}
	}
	if b.projectIndex(in.ProjectID) < 0 {
		return b, model.Task{}, ValidationError{Field: "projectId", Msg: "unknown project " + in.ProjectID}
	}
	c := in.Container
	if c == "" {
		c = model.Master
	}
	if !c.Valid() {
		return b, model.Task{}, ValidationError{Field: "container", Msg: "unknown container " + string(c)}
	}
	id := in.ID
	if id == "" {
		id = b.newID()
	} else if b.knownID(id) {
		return b, model.Task{}, ValidationError{Field: "id", Msg: "already in use: " + id}
	}

	t := model.Task{ID: id, Title: title, Notes: in.Notes, ProjectID: in.ProjectID, Container: c}
	nb := b.clone()
	if c == model.Master {
		nb.tasks[c] = insertIntoRun(nb.tasks[c], t, "")
	} else {
		nb.tasks[c] = append(nb.tasks[c], t)
	}
	nb.normalize()
	t, _ = nb.Task(id)
	return nb, t, nil
}

// EditTask applies a partial update. Reassigning the project of a master
// task moves it to the end of the new project's run.
func (b *Board) EditTask(id string, patch model.TaskPatch) (*Board, error) {
	c, i, ok := b.Locate(id)
	if !ok {
		return b, NotFoundError{Kind: "task", ID: id}
	}
	t := b.tasks[c][i]
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return b, ValidationError{Field: "title", Msg: "must not be empty"}
		}
		t.Title = title
	}
	if patch.Notes != nil {
		t.Notes = *patch.Notes
	}
	reassigned := false
	if patch.ProjectID != nil && *patch.ProjectID != t.ProjectID {
		if b.projectIndex(*patch.ProjectID) < 0 {
			return b, ValidationError{Field: "projectId", Msg: "unknown project " + *patch.ProjectID}
		}
		t.ProjectID = *patch.ProjectID
		reassigned = true
	}

	nb := b.clone()
	if reassigned && c == model.Master {
		nb.tasks[c] = insertIntoRun(removeAt(nb.tasks[c], i), t, "")
	} else {
		nb.tasks[c][i] = t
	}
	nb.normalize()
	return nb, nil
}

// CompleteTask moves an active task into the completion archive
func (b *Board) CompleteTask(id string) (*Board, model.CompletedTaskRecord, error) {
	c, i, ok := b.Locate(id)
	if !ok {
		return b, model.CompletedTaskRecord{}, NotFoundError{Kind: "task", ID: id}
	}
	t := b.tasks[c][i]
	rec := model.CompletedTaskRecord{
		Task:              t,
		ProjectColor:      b.ColorOf(t),
		CompletedAt:       b.clock.Now(),
		OriginalContainer: c,
		OriginalIndex:     i,
	}

	nb := b.clone()
	nb.tasks[c] = removeAt(nb.tasks[c], i)
	nb.completed = append(nb.completed, rec)
	nb.normalize()
	return nb, rec, nil
}

// DeleteTask moves an active task into the recycle bin
func (b *Board) DeleteTask(id string) (*Board, model.DeletedTaskRecord, error) {
	c, i, ok := b.Locate(id)
	if !ok {
		return b, model.DeletedTaskRecord{}, NotFoundError{Kind: "task", ID: id}
	}
	t := b.tasks[c][i]
	rec := model.DeletedTaskRecord{
		Task:              t,
		ProjectColor:      b.ColorOf(t),
		DeletedAt:         b.clock.Now(),
		OriginalContainer: c,
		OriginalIndex:     i,
	}

	nb := b.clone()
	nb.tasks[c] = removeAt(nb.tasks[c], i)
	nb.deleted = append(nb.deleted, rec)
	nb.normalize()
	return nb, rec, nil
}

// RestoreTask puts a deleted task back where it was
func (b *Board) RestoreTask(id string) (*Board, model.Task, error) {
	return b.RestoreTaskInto(id, "")
}

// RestoreTaskInto restores a deleted task, moving it to projectID when set.
// A record whose project was deleted can only come back this way.
func (b *Board) RestoreTaskInto(id, projectID string) (*Board, model.Task, error) {
	i := deletedIndex(b.deleted, id)
	if i < 0 {
		return b, model.Task{}, NotFoundError{Kind: "deleted task", ID: id}
	}
	rec := b.deleted[i]
	nb, err := b.reinsert(rec.Task, projectID, rec.OriginalContainer, rec.OriginalIndex)
	if err != nil {
		return b, model.Task{}, err
	}
	nb.deleted = removeAt(nb.deleted, i)
	t, _ := nb.Task(id)
	return nb, t, nil
}

// MarkIncomplete puts a completed task back where it was
func (b *Board) MarkIncomplete(id string) (*Board, model.Task, error) {
	return b.MarkIncompleteInto(id, "")
}

// MarkIncompleteInto reopens a completed task, moving it to projectID when set
func (b *Board) MarkIncompleteInto(id, projectID string) (*Board, model.Task, error) {
	i := completedIndex(b.completed, id)
	if i < 0 {
		return b, model.Task{}, NotFoundError{Kind: "completed task", ID: id}
	}
	rec := b.completed[i]
	nb, err := b.reinsert(rec.Task, projectID, rec.OriginalContainer, rec.OriginalIndex)
	if err != nil {
		return b, model.Task{}, err
	}
	nb.completed = removeAt(nb.completed, i)
	t, _ := nb.Task(id)
	return nb, t, nil
}

// reinsert places t at min(index, len) of c, or at the end of master's run
// when c is not a known container. A non-empty projectID reassigns t first.
func (b *Board) reinsert(t model.Task, projectID string, c model.Container, index int) (*Board, error) {
	if projectID != "" {
		t.ProjectID = projectID
	}
	if b.projectIndex(t.ProjectID) < 0 {
		return b, NotFoundError{Kind: "project", ID: t.ProjectID}
	}
	nb := b.clone()
	if !c.Valid() {
		nb.tasks[model.Master] = insertIntoRun(nb.tasks[model.Master], t, "")
	} else {
		nb.tasks[c] = insertAt(nb.tasks[c], min(index, len(nb.tasks[c])), t)
	}
	nb.normalize()
	return nb, nil
}

// PermanentlyDelete purges a recycle-bin record
func (b *Board) PermanentlyDelete(id string) (*Board, error) {
	i := deletedIndex(b.deleted, id)
	if i < 0 {
		return b, NotFoundError{Kind: "deleted task", ID: id}
	}
	nb := b.clone()
	nb.deleted = removeAt(nb.deleted, i)
	return nb, nil
}

// CleanupOldDeleted drops recycle-bin records deleted more than
// RetentionPeriod before now and reports how many were dropped.
func (b *Board) CleanupOldDeleted(now time.Time) (*Board, int) {
	return b.PurgeDeletedBefore(now.Add(-RetentionPeriod))
}

// PurgeDeletedBefore drops recycle-bin records deleted strictly before cutoff
func (b *Board) PurgeDeletedBefore(cutoff time.Time) (*Board, int) {
	kept := make([]model.DeletedTaskRecord, 0, len(b.deleted))
	for _, r := range b.deleted {
		if !r.DeletedAt.Before(cutoff) {
			kept = append(kept, r)
		}
	}
	dropped := len(b.deleted) - len(kept)
	if dropped == 0 {
		return b, 0
	}
	nb := b.clone()
	nb.deleted = kept
	return nb, dropped
}

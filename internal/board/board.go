package board

import (
	"github.com/existflow/weekplan/internal/model"
	"github.com/google/uuid"
)

// Board is an immutable snapshot of projects, active tasks per container and
// the two archives. Every transition returns a new *Board and leaves the
// receiver untouched, so a renderer can keep using an old snapshot safely.
type Board struct {
	clock     Clock
	newID     func() string
	projects  []model.Project
	tasks     map[model.Container][]model.Task
	deleted   []model.DeletedTaskRecord
	completed []model.CompletedTaskRecord
}

// Option configures a new Board
type Option func(*Board)

// WithClock sets the clock used for deletion and completion timestamps
func WithClock(c Clock) Option {
	return func(b *Board) { b.clock = c }
}

// WithIDs sets the id generator used for new projects and tasks
func WithIDs(f func() string) Option {
	return func(b *Board) { b.newID = f }
}

// New returns an empty board with every container present
func New(opts ...Option) *Board {
	b := &Board{
		clock: SystemClock{},
		newID: uuid.NewString,
		tasks: make(map[model.Container][]model.Task),
	}
	for _, opt := range opts {
		opt(b)
	}
	for _, c := range model.Containers() {
		b.tasks[c] = []model.Task{}
	}
	return b
}

// FromSnapshot builds a board from persisted state. Project order follows
// the slice order and master is regrouped by project. Active tasks whose
// project is unknown, whose container is invalid or whose id repeats are
// dropped and returned. Archive records whose task id is already active or
// already archived are dropped too, so every id lives in exactly one place.
func FromSnapshot(s model.Snapshot, opts ...Option) (*Board, []model.Task) {
	b := New(opts...)
	seen := make(map[string]bool)
	for _, p := range s.ProjectDefinitions {
		if p.ID == "" || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		if p.Color == "" {
			p.Color = model.DefaultColor()
		}
		b.projects = append(b.projects, p)
	}

	var dropped []model.Task
	taskSeen := make(map[string]bool)
	for _, c := range model.Containers() {
		for _, t := range s.Tasks[c] {
			if !seen[t.ProjectID] || t.ID == "" || taskSeen[t.ID] {
				dropped = append(dropped, t)
				continue
			}
			taskSeen[t.ID] = true
			b.tasks[c] = append(b.tasks[c], t)
		}
	}
	for c, tasks := range s.Tasks {
		if !c.Valid() {
			dropped = append(dropped, tasks...)
		}
	}

	for _, r := range s.DeletedTasks {
		if r.Task.ID == "" || taskSeen[r.Task.ID] {
			dropped = append(dropped, r.Task)
			continue
		}
		taskSeen[r.Task.ID] = true
		b.deleted = append(b.deleted, r)
	}
	for _, r := range s.CompletedTasks {
		if r.Task.ID == "" || taskSeen[r.Task.ID] {
			dropped = append(dropped, r.Task)
			continue
		}
		taskSeen[r.Task.ID] = true
		b.completed = append(b.completed, r)
	}
	b.normalize()
	return b, dropped
}

// Snapshot returns a deep copy of the board in its wire shape
func (b *Board) Snapshot() model.Snapshot {
	s := model.Snapshot{
		ProjectDefinitions: b.Projects(),
		Tasks:              make(map[model.Container][]model.Task, len(b.tasks)),
		CompletedTasks:     b.Completed(),
		DeletedTasks:       b.Deleted(),
	}
	for _, c := range model.Containers() {
		s.Tasks[c] = b.Tasks(c)
	}
	return s
}

// Projects returns the projects in display order
func (b *Board) Projects() []model.Project {
	return append([]model.Project{}, b.projects...)
}

// Project looks up a project by id
func (b *Board) Project(id string) (model.Project, bool) {
	if i := b.projectIndex(id); i >= 0 {
		return b.projects[i], true
	}
	return model.Project{}, false
}

// Tasks returns the tasks of a container in order
func (b *Board) Tasks(c model.Container) []model.Task {
	return append([]model.Task{}, b.tasks[c]...)
}

// Task looks up an active task by id
func (b *Board) Task(id string) (model.Task, bool) {
	c, i, ok := b.Locate(id)
	if !ok {
		return model.Task{}, false
	}
	return b.tasks[c][i], true
}

// Locate returns the container and index of an active task
func (b *Board) Locate(id string) (model.Container, int, bool) {
	for _, c := range model.Containers() {
		if i := taskIndex(b.tasks[c], id); i >= 0 {
			return c, i, true
		}
	}
	return "", -1, false
}

// Deleted returns the recycle bin, oldest first
func (b *Board) Deleted() []model.DeletedTaskRecord {
	return append([]model.DeletedTaskRecord{}, b.deleted...)
}

// Completed returns the completion archive, oldest first
func (b *Board) Completed() []model.CompletedTaskRecord {
	return append([]model.CompletedTaskRecord{}, b.completed...)
}

// TaskCount returns the number of active tasks owned by a project
func (b *Board) TaskCount(projectID string) int {
	n := 0
	for _, tasks := range b.tasks {
		for _, t := range tasks {
			if t.ProjectID == projectID {
				n++
			}
		}
	}
	return n
}

// ColorOf resolves a task's color from its live project
func (b *Board) ColorOf(t model.Task) string {
	if p, ok := b.Project(t.ProjectID); ok {
		return p.Color
	}
	return ""
}

// MasterItems flattens the master column: each project header followed by
// its run of tasks, in project order.
func (b *Board) MasterItems() []model.Item {
	items := make([]model.Item, 0, len(b.projects)+len(b.tasks[model.Master]))
	master := b.tasks[model.Master]
	for i := range b.projects {
		p := b.projects[i]
		items = append(items, model.Item{Kind: model.ItemProject, Project: &p})
		for j := range master {
			if master[j].ProjectID == p.ID {
				t := master[j]
				items = append(items, model.Item{Kind: model.ItemTask, Task: &t})
			}
		}
	}
	return items
}

func (b *Board) clone() *Board {
	nb := &Board{
		clock:     b.clock,
		newID:     b.newID,
		projects:  append([]model.Project{}, b.projects...),
		tasks:     make(map[model.Container][]model.Task, len(b.tasks)),
		deleted:   append([]model.DeletedTaskRecord{}, b.deleted...),
		completed: append([]model.CompletedTaskRecord{}, b.completed...),
	}
	for c, tasks := range b.tasks {
		nb.tasks[c] = append([]model.Task{}, tasks...)
	}
	return nb
}

// normalize re-densifies project order, regroups master by project and
// rewrites container/order fields of every task.
func (b *Board) normalize() {
	for i := range b.projects {
		b.projects[i].OrderIndex = i
	}
	b.tasks[model.Master] = flattenMaster(b.projects, b.tasks[model.Master])
	for _, c := range model.Containers() {
		tasks := b.tasks[c]
		for i := range tasks {
			tasks[i].Container = c
			tasks[i].OrderIndex = i
		}
	}
}

func (b *Board) projectIndex(id string) int {
	for i, p := range b.projects {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// knownID reports whether id is used by any project, task or archived task
func (b *Board) knownID(id string) bool {
	if b.projectIndex(id) >= 0 {
		return true
	}
	if _, _, ok := b.Locate(id); ok {
		return true
	}
	return deletedIndex(b.deleted, id) >= 0 || completedIndex(b.completed, id) >= 0
}

// sameLayout reports whether two boards have identical ordering and ownership
func sameLayout(a, b *Board) bool {
	if len(a.projects) != len(b.projects) {
		return false
	}
	for i := range a.projects {
		if a.projects[i].ID != b.projects[i].ID {
			return false
		}
	}
	for _, c := range model.Containers() {
		ta, tb := a.tasks[c], b.tasks[c]
		if len(ta) != len(tb) {
			return false
		}
		for i := range ta {
			if ta[i].ID != tb[i].ID || ta[i].ProjectID != tb[i].ProjectID {
				return false
			}
		}
	}
	return true
}

func taskIndex(tasks []model.Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func deletedIndex(records []model.DeletedTaskRecord, id string) int {
	for i, r := range records {
		if r.Task.ID == id {
			return i
		}
	}
	return -1
}

func completedIndex(records []model.CompletedTaskRecord, id string) int {
	for i, r := range records {
		if r.Task.ID == id {
			return i
		}
	}
	return -1
}

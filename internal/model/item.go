package model

// ItemKind tags the entries of the master column
type ItemKind int

const (
	ItemProject ItemKind = iota
	ItemTask
)

func (k ItemKind) String() string {
	switch k {
	case ItemProject:
		return "project"
	case ItemTask:
		return "task"
	default:
		return "unknown"
	}
}

// Item is one row of a column: either a project header or a task.
// Exactly one of Project and Task is set, as indicated by Kind.
type Item struct {
	Kind    ItemKind
	Project *Project
	Task    *Task
}

// ID returns the id of the wrapped entity
func (i Item) ID() string {
	switch i.Kind {
	case ItemProject:
		return i.Project.ID
	case ItemTask:
		return i.Task.ID
	default:
		return ""
	}
}

// Move is the normalized outcome of a drag gesture. AnchorID names the item
// currently occupying the drop position (insert-before); empty means append.
// An empty Target means the gesture was cancelled.
type Move struct {
	ItemID       string    `json:"itemId"`
	Source       Container `json:"source"`
	Target       Container `json:"target"`
	AnchorID     string    `json:"anchorId,omitempty"`
	NewProjectID string    `json:"newProjectId,omitempty"`
}

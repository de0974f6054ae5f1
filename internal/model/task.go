package model

// Task is a single card on the board. The project color is not stored here;
// it is resolved from the owning project when the task is displayed.
type Task struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Notes      string    `json:"notes"`
	ProjectID  string    `json:"projectId"`
	Container  Container `json:"container"`
	OrderIndex int       `json:"orderIndex"`
}

// NewTask holds the input of an add-task command
type NewTask struct {
	ID        string    `json:"id,omitempty"`
	Title     string    `json:"title"`
	Notes     string    `json:"notes"`
	ProjectID string    `json:"projectId"`
	Container Container `json:"container"`
}

// TaskPatch is a partial task update; nil fields are left untouched
type TaskPatch struct {
	Title     *string `json:"title,omitempty"`
	Notes     *string `json:"notes,omitempty"`
	ProjectID *string `json:"projectId,omitempty"`
}

package model

import "time"

// ProjectInput is the body of POST /projects and PUT /projects/:id
type ProjectInput struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
	Color string `json:"color"`
}

// TaskUpdate is the body of PUT /tasks/:id
type TaskUpdate struct {
	Title     string `json:"title"`
	Notes     string `json:"notes"`
	ProjectID string `json:"projectId"`
}

// MoveTaskRequest is the body of POST /tasks/:id/move. A nil OrderIndex
// appends to the target container.
type MoveTaskRequest struct {
	Container  Container `json:"container"`
	ProjectID  string    `json:"projectId,omitempty"`
	OrderIndex *int      `json:"orderIndex,omitempty"`
}

// RestoreTaskRequest is the optional body of the restore and reopen routes.
// A set ProjectID moves the task to that project on the way back.
type RestoreTaskRequest struct {
	ProjectID string `json:"projectId,omitempty"`
}

// ReorderProjectsRequest is the body of POST /projects/reorder
type ReorderProjectsRequest struct {
	ProjectIDs []string `json:"projectIds"`
}

// CleanupRequest is the body of POST /tasks/deleted/cleanup
type CleanupRequest struct {
	Before time.Time `json:"before"`
}

// CleanupResponse reports how many recycle-bin records were purged
type CleanupResponse struct {
	Purged int `json:"purged"`
}

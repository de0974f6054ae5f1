package model

// Snapshot is the full board state as exchanged with the server and stored
// in the local cache.
type Snapshot struct {
	ProjectDefinitions []Project             `json:"projectDefinitions"`
	Tasks              map[Container][]Task  `json:"tasks"`
	CompletedTasks     []CompletedTaskRecord `json:"completedTasks"`
	DeletedTasks       []DeletedTaskRecord   `json:"deletedTasks"`
}

// TaskCount returns the number of active tasks in the snapshot
func (s Snapshot) TaskCount() int {
	n := 0
	for _, tasks := range s.Tasks {
		n += len(tasks)
	}
	return n
}

// IsEmpty reports whether the snapshot has no projects
func (s Snapshot) IsEmpty() bool {
	return len(s.ProjectDefinitions) == 0
}

package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/existflow/weekplan/internal/model"
)

// OpKind names a remote write
type OpKind string

const (
	OpCreateProject   OpKind = "create_project"
	OpUpdateProject   OpKind = "update_project"
	OpDeleteProject   OpKind = "delete_project"
	OpReorderProjects OpKind = "reorder_projects"
	OpCreateTask      OpKind = "create_task"
	OpUpdateTask      OpKind = "update_task"
	OpMoveTask        OpKind = "move_task"
	OpCompleteTask    OpKind = "complete_task"
	OpDeleteTask      OpKind = "delete_task"
	OpRestoreTask     OpKind = "restore_task"
	OpReopenTask      OpKind = "reopen_task"
	OpPurgeTask       OpKind = "purge_task"
	OpCleanupDeleted  OpKind = "cleanup_deleted"
)

// Op is one remote write produced by an accepted local transition. Only the
// fields relevant to Kind are set.
type Op struct {
	Kind       OpKind
	EntityID   string
	Project    model.ProjectInput
	NewTask    model.NewTask
	Update     model.TaskUpdate
	Move       model.MoveTaskRequest
	ProjectIDs []string
	ProjectID  string // restore/reopen target, empty keeps the original
	Before     time.Time
}

func (o Op) String() string {
	if o.EntityID == "" {
		return string(o.Kind)
	}
	return fmt.Sprintf("%s %s", o.Kind, o.EntityID)
}

// Remote is the subset of the server API the adapter writes to
type Remote interface {
	CreateProject(ctx context.Context, in model.ProjectInput) (model.Project, error)
	UpdateProject(ctx context.Context, id string, in model.ProjectInput) (model.Project, error)
	DeleteProject(ctx context.Context, id string) error
	ReorderProjects(ctx context.Context, ids []string) error
	CreateTask(ctx context.Context, in model.NewTask) (model.Task, error)
	UpdateTask(ctx context.Context, id string, in model.TaskUpdate) (model.Task, error)
	MoveTask(ctx context.Context, id string, in model.MoveTaskRequest) (model.Task, error)
	CompleteTask(ctx context.Context, id string) (model.CompletedTaskRecord, error)
	DeleteTask(ctx context.Context, id string) (model.DeletedTaskRecord, error)
	RestoreTask(ctx context.Context, id, projectID string) (model.Task, error)
	ReopenTask(ctx context.Context, id, projectID string) (model.Task, error)
	PurgeTask(ctx context.Context, id string) error
	CleanupDeleted(ctx context.Context, before time.Time) (int, error)
}

var _ Remote = (*Client)(nil)

// apply performs the write
func (o Op) apply(ctx context.Context, r Remote) error {
	var err error
	switch o.Kind {
	case OpCreateProject:
		_, err = r.CreateProject(ctx, o.Project)
	case OpUpdateProject:
		_, err = r.UpdateProject(ctx, o.EntityID, o.Project)
	case OpDeleteProject:
		err = r.DeleteProject(ctx, o.EntityID)
	case OpReorderProjects:
		err = r.ReorderProjects(ctx, o.ProjectIDs)
	case OpCreateTask:
		_, err = r.CreateTask(ctx, o.NewTask)
	case OpUpdateTask:
		_, err = r.UpdateTask(ctx, o.EntityID, o.Update)
	case OpMoveTask:
		_, err = r.MoveTask(ctx, o.EntityID, o.Move)
	case OpCompleteTask:
		_, err = r.CompleteTask(ctx, o.EntityID)
	case OpDeleteTask:
		_, err = r.DeleteTask(ctx, o.EntityID)
	case OpRestoreTask:
		_, err = r.RestoreTask(ctx, o.EntityID, o.ProjectID)
	case OpReopenTask:
		_, err = r.ReopenTask(ctx, o.EntityID, o.ProjectID)
	case OpPurgeTask:
		err = r.PurgeTask(ctx, o.EntityID)
	case OpCleanupDeleted:
		_, err = r.CleanupDeleted(ctx, o.Before)
	default:
		err = fmt.Errorf("unknown op kind %q", o.Kind)
	}
	return err
}

// SyncError is a remote write that failed after its local transition was
// already applied. The local board is not rolled back; a full resync is
// the recovery path.
type SyncError struct {
	Op       Op
	Attempts int
	Err      error
}

func (e SyncError) Error() string {
	return fmt.Sprintf("sync %s failed after %d attempt(s): %v", e.Op, e.Attempts, e.Err)
}

func (e SyncError) Unwrap() error { return e.Err }

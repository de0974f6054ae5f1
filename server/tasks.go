package server

import (
	"net/http"
	"time"

	"github.com/existflow/weekplan/internal/board"
	"github.com/existflow/weekplan/internal/model"
	"github.com/labstack/echo/v4"
)

func (s *Server) handleListTasks(c echo.Context) error {
	snap, err := s.store.Snapshot(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, snap.Tasks)
}

func (s *Server) handleCreateTask(c echo.Context) error {
	var req model.NewTask
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	var created model.Task
	err := s.store.Update(c.Request().Context(), func(b *board.Board) (*board.Board, error) {
		nb, t, err := b.AddTask(req)
		created = t
		return nb, err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) handleUpdateTask(c echo.Context) error {
	id := c.Param("id")
	var req model.TaskUpdate
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	patch := model.TaskPatch{Title: &req.Title, Notes: &req.Notes}
	if req.ProjectID != "" {
		patch.ProjectID = &req.ProjectID
	}

	var updated model.Task
	err := s.store.Update(c.Request().Context(), func(b *board.Board) (*board.Board, error) {
		nb, err := b.EditTask(id, patch)
		updated, _ = nb.Task(id)
		return nb, err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// moveFor translates a positional move request into a drag instruction.
// OrderIndex is the task's index in the target container once moved, so
// the anchor is the task that will follow it.
func moveFor(b *board.Board, id string, req model.MoveTaskRequest) (model.Move, error) {
	src, _, ok := b.Locate(id)
	if !ok {
		return model.Move{}, board.NotFoundError{Kind: "task", ID: id}
	}
	target := req.Container
	if target == "" {
		target = src
	}
	if !target.Valid() {
		return model.Move{}, board.ValidationError{Field: "container", Msg: "unknown container " + string(target)}
	}
	if req.ProjectID != "" {
		if _, ok := b.Project(req.ProjectID); !ok {
			return model.Move{}, board.ValidationError{Field: "projectId", Msg: "unknown project " + req.ProjectID}
		}
	}

	m := model.Move{ItemID: id, Source: src, Target: target, NewProjectID: req.ProjectID}
	if req.OrderIndex != nil {
		var rest []model.Task
		for _, t := range b.Tasks(target) {
			if t.ID != id {
				rest = append(rest, t)
			}
		}
		if i := *req.OrderIndex; i >= 0 && i < len(rest) {
			m.AnchorID = rest[i].ID
		}
	}
	return m, nil
}

func (s *Server) handleMoveTask(c echo.Context) error {
	id := c.Param("id")
	var req model.MoveTaskRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	var moved model.Task
	err := s.store.Update(c.Request().Context(), func(b *board.Board) (*board.Board, error) {
		m, err := moveFor(b, id, req)
		if err != nil {
			return b, err
		}
		nb := b.Move(m)
		moved, _ = nb.Task(id)
		return nb, nil
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, moved)
}

func (s *Server) handleCompleteTask(c echo.Context) error {
	id := c.Param("id")
	var rec model.CompletedTaskRecord
	err := s.store.Update(c.Request().Context(), func(b *board.Board) (*board.Board, error) {
		nb, r, err := b.CompleteTask(id)
		rec = r
		return nb, err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (s *Server) handleDeleteTask(c echo.Context) error {
	id := c.Param("id")
	var rec model.DeletedTaskRecord
	err := s.store.Update(c.Request().Context(), func(b *board.Board) (*board.Board, error) {
		nb, r, err := b.DeleteTask(id)
		rec = r
		return nb, err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

// handleListCompleted returns the completion archive, newest first
func (s *Server) handleListCompleted(c echo.Context) error {
	snap, err := s.store.Snapshot(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	out := make([]model.CompletedTaskRecord, 0, len(snap.CompletedTasks))
	for i := len(snap.CompletedTasks) - 1; i >= 0; i-- {
		out = append(out, snap.CompletedTasks[i])
	}
	return c.JSON(http.StatusOK, out)
}

// handleListDeleted returns the recycle bin, newest first
func (s *Server) handleListDeleted(c echo.Context) error {
	snap, err := s.store.Snapshot(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	out := make([]model.DeletedTaskRecord, 0, len(snap.DeletedTasks))
	for i := len(snap.DeletedTasks) - 1; i >= 0; i-- {
		out = append(out, snap.DeletedTasks[i])
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleRestoreTask(c echo.Context) error {
	id := c.Param("taskId")
	var req model.RestoreTaskRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	var restored model.Task
	err := s.store.Update(c.Request().Context(), func(b *board.Board) (*board.Board, error) {
		nb, t, err := b.RestoreTaskInto(id, req.ProjectID)
		restored = t
		return nb, err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, restored)
}

func (s *Server) handleReopenTask(c echo.Context) error {
	id := c.Param("taskId")
	var req model.RestoreTaskRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	var reopened model.Task
	err := s.store.Update(c.Request().Context(), func(b *board.Board) (*board.Board, error) {
		nb, t, err := b.MarkIncompleteInto(id, req.ProjectID)
		reopened = t
		return nb, err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, reopened)
}

func (s *Server) handlePurgeTask(c echo.Context) error {
	id := c.Param("taskId")
	err := s.store.Update(c.Request().Context(), func(b *board.Board) (*board.Board, error) {
		return b.PermanentlyDelete(id)
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// handleCleanupDeleted purges records deleted before the given time, or
// older than the retention period when none is given
func (s *Server) handleCleanupDeleted(c echo.Context) error {
	var req model.CleanupRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	before := req.Before
	if before.IsZero() {
		before = s.clock.Now().Add(-s.retention)
	}
	purged, err := s.cleanup(c.Request().Context(), before.In(time.UTC))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, model.CleanupResponse{Purged: purged})
}

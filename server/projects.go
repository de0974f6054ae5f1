package server

import (
	"net/http"

	"github.com/existflow/weekplan/internal/board"
	"github.com/existflow/weekplan/internal/model"
	"github.com/labstack/echo/v4"
)

func (s *Server) handleListProjects(c echo.Context) error {
	snap, err := s.store.Snapshot(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, snap.ProjectDefinitions)
}

func (s *Server) handleCreateProject(c echo.Context) error {
	var req model.ProjectInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	var created model.Project
	err := s.store.Update(c.Request().Context(), func(b *board.Board) (*board.Board, error) {
		nb, p, err := b.AddProjectWithID(req.ID, req.Title, req.Color)
		created = p
		return nb, err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) handleUpdateProject(c echo.Context) error {
	id := c.Param("id")
	var req model.ProjectInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	var updated model.Project
	err := s.store.Update(c.Request().Context(), func(b *board.Board) (*board.Board, error) {
		nb, err := b.EditProject(id, req.Title, req.Color)
		updated, _ = nb.Project(id)
		return nb, err
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeleteProject(c echo.Context) error {
	id := c.Param("id")
	err := s.store.Update(c.Request().Context(), func(b *board.Board) (*board.Board, error) {
		return b.DeleteProject(id)
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// handleReorderProjects moves the listed projects to the end in the given
// order, so a full list becomes the new order. Unknown ids are skipped.
func (s *Server) handleReorderProjects(c echo.Context) error {
	var req model.ReorderProjectsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	var projects []model.Project
	err := s.store.Update(c.Request().Context(), func(b *board.Board) (*board.Board, error) {
		for _, id := range req.ProjectIDs {
			b = b.Move(model.Move{ItemID: id, Source: model.Master, Target: model.Master})
		}
		projects = b.Projects()
		return b, nil
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, projects)
}

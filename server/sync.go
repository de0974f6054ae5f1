package server

import (
	"net/http"

	"github.com/existflow/weekplan/internal/logger"
	"github.com/existflow/weekplan/internal/model"
	"github.com/labstack/echo/v4"
)

// handleSyncAll returns the whole board
func (s *Server) handleSyncAll(c echo.Context) error {
	snap, err := s.store.Snapshot(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

// handleImport replaces the whole board, used for one-time migrations
func (s *Server) handleImport(c echo.Context) error {
	var snap model.Snapshot
	if err := c.Bind(&snap); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := s.store.Replace(c.Request().Context(), snap); err != nil {
		return respondError(c, err)
	}
	logger.Info("board imported",
		logger.F("projects", len(snap.ProjectDefinitions)),
		logger.F("tasks", snap.TaskCount()))
	return c.JSON(http.StatusOK, map[string]string{"status": "imported"})
}

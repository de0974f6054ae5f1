package server

import (
	"net/http"
	"strconv"

	"github.com/existflow/weekplan/internal/gdrive"
	"github.com/labstack/echo/v4"
)

// lookbackParam reads ?lookbackHours=; zero selects the scanner default
func lookbackParam(c echo.Context) (int, bool) {
	v := c.QueryParam("lookbackHours")
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func (s *Server) handleDriveScan(c echo.Context) error {
	if s.drive == nil {
		return respondError(c, gdrive.ErrNotConfigured)
	}
	var req gdrive.ScanRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.LookbackHours < 0 {
		return badRequest(c, "lookbackHours must be positive")
	}
	cs, err := s.drive.Scan(c.Request().Context(), req.LookbackHours)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, cs)
}

func (s *Server) handleDriveExport(c echo.Context) error {
	if s.drive == nil {
		return respondError(c, gdrive.ErrNotConfigured)
	}
	hours, ok := lookbackParam(c)
	if !ok {
		return badRequest(c, "lookbackHours must be a positive integer")
	}
	doc, err := s.drive.Export(c.Request().Context(), hours)
	if err != nil {
		return respondError(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		`attachment; filename="gdrive-changes-`+doc.ExportTime.Format("2006-01-02")+`.json"`)
	return c.JSON(http.StatusOK, doc)
}

func (s *Server) handleDriveScans(c echo.Context) error {
	if s.drive == nil {
		return respondError(c, gdrive.ErrNotConfigured)
	}
	limit := 20
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return badRequest(c, "limit must be a positive integer")
		}
		limit = n
	}
	logs, err := s.drive.History(c.Request().Context(), limit)
	if err != nil {
		return respondError(c, err)
	}
	if logs == nil {
		logs = []gdrive.ScanLog{}
	}
	return c.JSON(http.StatusOK, logs)
}

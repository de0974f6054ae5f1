package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/existflow/weekplan/internal/board"
	"github.com/existflow/weekplan/internal/gdrive"
	"github.com/existflow/weekplan/internal/logger"
	"github.com/labstack/echo/v4"
)

// requestLogger logs every request with its status and duration
func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		req := c.Request()

		err := next(c)
		if err != nil {
			c.Error(err)
		}

		res := c.Response()
		fields := []logger.Field{
			logger.F("method", req.Method),
			logger.F("uri", req.RequestURI),
			logger.F("status", res.Status),
			logger.F("size", res.Size),
			logger.F("duration", time.Since(start).String()),
		}
		if id := res.Header().Get(echo.HeaderXRequestID); id != "" {
			fields = append(fields, logger.F("request_id", id))
		}
		if res.Status >= http.StatusInternalServerError {
			logger.Warn("HTTP Response", fields...)
		} else {
			logger.Info("HTTP Response", fields...)
		}
		return nil
	}
}

// respondError maps domain errors to status codes
func respondError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case board.IsValidation(err):
		status = http.StatusBadRequest
	case board.IsNotFound(err):
		status = http.StatusNotFound
	case board.IsConflict(err):
		status = http.StatusConflict
	case errors.Is(err, gdrive.ErrNotConfigured):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		logger.Error("request failed", logger.F("uri", c.Request().RequestURI), logger.Err(err))
	}
	return c.JSON(status, map[string]string{"error": err.Error()})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
}

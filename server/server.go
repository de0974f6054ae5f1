package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/existflow/weekplan/internal/board"
	"github.com/existflow/weekplan/internal/gdrive"
	"github.com/existflow/weekplan/internal/logger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Server is the persistence server
type Server struct {
	store     Store
	drive     *gdrive.Scanner
	retention time.Duration
	clock     board.Clock
	echo      *echo.Echo
}

// Option configures a Server
type Option func(*Server)

// WithDrive enables the /gdrive endpoints
func WithDrive(s *gdrive.Scanner) Option {
	return func(srv *Server) { srv.drive = s }
}

// WithRetention sets how long deleted tasks are kept by the sweeper and by
// cleanup requests without a cutoff
func WithRetention(d time.Duration) Option {
	return func(srv *Server) {
		if d > 0 {
			srv.retention = d
		}
	}
}

// WithClock sets the clock used for retention cutoffs
func WithClock(c board.Clock) Option {
	return func(srv *Server) { srv.clock = c }
}

// New creates a new server over store
func New(store Store, opts ...Option) *Server {
	s := &Server{
		store:     store,
		retention: board.RetentionPeriod,
		clock:     board.SystemClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupEcho()
	return s
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(requestLogger)
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())

	e.GET("/health", s.handleHealth)

	api := e.Group("/api")
	api.GET("/health", s.handleHealth)

	api.GET("/projects", s.handleListProjects)
	api.POST("/projects", s.handleCreateProject)
	api.POST("/projects/reorder", s.handleReorderProjects)
	api.PUT("/projects/:id", s.handleUpdateProject)
	api.DELETE("/projects/:id", s.handleDeleteProject)

	api.GET("/tasks", s.handleListTasks)
	api.POST("/tasks", s.handleCreateTask)
	api.GET("/tasks/completed", s.handleListCompleted)
	api.GET("/tasks/deleted", s.handleListDeleted)
	api.POST("/tasks/restore/:taskId", s.handleRestoreTask)
	api.POST("/tasks/completed/:taskId/reopen", s.handleReopenTask)
	api.DELETE("/tasks/deleted/:taskId", s.handlePurgeTask)
	api.POST("/tasks/deleted/cleanup", s.handleCleanupDeleted)
	api.PUT("/tasks/:id", s.handleUpdateTask)
	api.DELETE("/tasks/:id", s.handleDeleteTask)
	api.POST("/tasks/:id/move", s.handleMoveTask)
	api.POST("/tasks/:id/complete", s.handleCompleteTask)

	api.GET("/sync/all", s.handleSyncAll)
	api.POST("/sync/import", s.handleImport)

	api.POST("/gdrive/scan", s.handleDriveScan)
	api.GET("/gdrive/export", s.handleDriveExport)
	api.GET("/gdrive/scans", s.handleDriveScans)

	s.echo = e
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start starts the server
func (s *Server) Start(addr string) error {
	err := s.echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Close closes the store
func (s *Server) Close() error {
	return s.store.Close()
}

// Sweeper purges expired recycle-bin records once a day
func (s *Server) Sweeper() *board.Sweeper {
	return &board.Sweeper{
		Clock: s.clock,
		Sweep: func(now time.Time) int {
			purged, err := s.cleanup(context.Background(), now.Add(-s.retention))
			if err != nil {
				logger.Error("retention sweep failed", logger.Err(err))
			}
			return purged
		},
		OnSweep: func(n int) {
			if n > 0 {
				logger.Info("recycle bin swept", logger.F("purged", n))
			}
		},
	}
}

func (s *Server) cleanup(ctx context.Context, before time.Time) (int, error) {
	var purged int
	err := s.store.Update(ctx, func(b *board.Board) (*board.Board, error) {
		nb, n := b.PurgeDeletedBefore(before)
		purged = n
		return nb, nil
	})
	return purged, err
}

func (s *Server) handleHealth(c echo.Context) error {
	if err := s.store.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

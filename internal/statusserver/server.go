package statusserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/s22625/execmon/internal/logging"
	"github.com/s22625/execmon/internal/model"
	"github.com/s22625/execmon/internal/status"
)

const shutdownTimeout = 10 * time.Second

// Options configures a Server.
type Options struct {
	Listen   string
	BasePath string
	Logger   *logging.Logger
}

// Server serves the status endpoint from a SnapshotSource.
type Server struct {
	echo     *echo.Echo
	listen   string
	basePath string
	logger   *logging.Logger
}

// New creates a server and registers its routes.
func New(source SnapshotSource, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.Component("statusserver")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = goccySerializer{}
	e.Use(middleware.Recover())

	s := &Server{
		echo:     e,
		listen:   opts.Listen,
		basePath: NormalizeBasePath(opts.BasePath),
		logger:   logger,
	}
	h := &statusHandler{source: source, logger: logger}
	h.RegisterRoutes(e.Group(s.basePath))
	return s
}

// NormalizeBasePath returns path with a leading slash and no trailing slash.
// The root path normalizes to "".
func NormalizeBasePath(path string) string {
	path = strings.TrimRight(strings.TrimSpace(path), "/")
	if path == "" {
		return ""
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// StatusPath is the full path of the status endpoint.
func (s *Server) StatusPath() string {
	return s.basePath + status.Path
}

// Addr returns the bound address once the server is listening.
func (s *Server) Addr() net.Addr {
	return s.echo.ListenerAddr()
}

// Start listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server starting",
			logging.Field("address", s.listen),
			logging.Field("path", s.StatusPath()))
		if err := s.echo.Start(s.listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}

type statusHandler struct {
	source SnapshotSource
	logger *logging.Logger
}

func (h *statusHandler) RegisterRoutes(g *echo.Group) {
	g.GET(status.Path, h.GetStatus)
}

// GetStatus returns the current snapshot. Source failures are reported as
// plain text so clients can show the body as-is.
func (h *statusHandler) GetStatus(c echo.Context) error {
	snap, err := h.source.Snapshot(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to load status snapshot", logging.ErrorField(err))
		return c.String(http.StatusInternalServerError, err.Error())
	}
	if snap == nil {
		snap = &model.StatusSnapshot{}
	}
	if snap.LiveExecutions == nil {
		snap.LiveExecutions = []model.ExecutionSummary{}
	}
	if snap.PastExecutions == nil {
		snap.PastExecutions = []model.ExecutionSummary{}
	}
	h.logger.Debug("Served status snapshot",
		logging.Field("live", len(snap.LiveExecutions)),
		logging.Field("past", len(snap.PastExecutions)))
	return c.JSON(http.StatusOK, snap)
}

// goccySerializer replaces echo's encoding/json serializer.
type goccySerializer struct{}

func (goccySerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := json.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (goccySerializer) Deserialize(c echo.Context, i interface{}) error {
	if err := json.NewDecoder(c.Request().Body).Decode(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body").SetInternal(err)
	}
	return nil
}

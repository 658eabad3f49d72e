// Package server provides the optional HTTP monitor for the arm controller.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ayusman/handarm/internal/store"
)

const shutdownTimeout = 5 * time.Second

// Config holds the server configuration.
type Config struct {
	Hub    *Hub
	Store  *store.Store
	Logger *slog.Logger
}

// Server represents the HTTP monitor.
type Server struct {
	config Config
	engine *gin.Engine
	logger *slog.Logger
	start  time.Time
}

// New creates a new Server with the given configuration. A nil Hub gets an
// empty one; a nil Store disables the session routes.
func New(config Config) *Server {
	if config.Hub == nil {
		config.Hub = NewHub()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config: config,
		engine: gin.New(),
		logger: logger.With("component", "monitor"),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	r := s.engine
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery(), s.requestLogger())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Length", "Content-Type"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health", s.handleHealth)
		api.GET("/angles", s.handleAngles)
		api.GET("/stream", s.handleStream)
		api.GET("/telemetry", s.handleTelemetry)

		if s.config.Store != nil {
			api.GET("/sessions", s.handleListSessions)
			api.GET("/sessions/:id", s.handleGetSession)
		}
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

// GinMode picks the gin mode for a log level. Route dumps and debug warnings
// only show when logging at debug.
func GinMode(level slog.Level) string {
	if level <= slog.LevelDebug {
		return gin.DebugMode
	}
	return gin.ReleaseMode
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled. Requests in flight,
// including MJPEG streams and websockets, see ctx as their parent and end with it.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("monitor listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// requestLogger logs each request at debug level.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	})
}

// handleAngles returns the latest telemetry, or 204 before the first frame.
func (s *Server) handleAngles(c *gin.Context) {
	t, ok := s.config.Hub.Latest()
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) handleListSessions(c *gin.Context) {
	sessions, err := s.config.Store.Sessions().List()
	if err != nil {
		s.logger.Error("list sessions", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list sessions"})
		return
	}
	if sessions == nil {
		sessions = []*store.Session{}
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (s *Server) handleGetSession(c *gin.Context) {
	id := c.Param("id")

	sess, err := s.config.Store.Sessions().GetByID(id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	if err != nil {
		s.logger.Error("get session", "id", id, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get session"})
		return
	}

	samples, err := s.config.Store.Samples().ListBySession(id)
	if err != nil {
		s.logger.Error("list samples", "id", id, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list samples"})
		return
	}
	if samples == nil {
		samples = []store.Sample{}
	}

	c.JSON(http.StatusOK, gin.H{
		"session": sess,
		"samples": samples,
	})
}

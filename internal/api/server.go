// Package api provides the read-only REST admin API for the relay: health,
// runtime statistics, and the loaded host table, served over Gin with a
// generated Swagger UI.
package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/foxdns/foxdns/internal/api/handlers"
	"github.com/foxdns/foxdns/internal/api/middleware"
	"github.com/foxdns/foxdns/internal/config"
	"github.com/foxdns/foxdns/internal/relay"
	"github.com/foxdns/foxdns/internal/store"
)

// Server is the admin REST API server.
type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	engine     *gin.Engine
	httpServer *http.Server
}

// New builds the admin API server. dispatcher and db may be nil (the API
// then reports zeroed stats and an empty host list); cfg must not be nil.
func New(cfg *config.Config, logger *slog.Logger, dispatcher *relay.Dispatcher, db *store.DB) *Server {
	if cfg == nil {
		panic("api.New: cfg is nil")
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.SlogRequestLogger(logger))
	mountStatic(engine)

	h := handlers.New(logger, dispatcher, db)
	RegisterRoutes(engine, h)

	addr := net.JoinHostPort(cfg.API.Host, strconv.Itoa(cfg.API.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{cfg: cfg, logger: logger, engine: engine, httpServer: httpServer}
}

func (s *Server) Addr() string {
	if s.httpServer == nil {
		return ""
	}
	return s.httpServer.Addr
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

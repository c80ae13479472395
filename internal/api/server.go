// Package api provides the HTTP JSON API next to the websocket relay: presence status,
// audit counts and stateless embed/extract endpoints.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gregriff/stegochat/internal/conceal"
	"github.com/gregriff/stegochat/internal/presence"
	"github.com/gregriff/stegochat/internal/schemas/public"
	"golang.org/x/sync/semaphore"
)

// StatsSource provides the audit summary. It is nil when auditing is disabled.
type StatsSource interface {
	Stats() (*public.Stats, error)
}

// Config holds server configuration
type Config struct {
	// largest uploaded image accepted by the stego endpoints
	MaxUploadBytes int64

	// log every request
	Debug bool
}

// Server serves the API routes. It shares the registry, concealer and codec limiter with the relay.
type Server struct {
	registry  *presence.Registry
	concealer *conceal.Concealer
	codecSem  *semaphore.Weighted
	stats     StatsSource
	router    *gin.Engine
	config    Config
}

// ErrorResponse is the body of every non-2xx JSON response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// NewServer builds the gin engine. codecSem and stats may be nil.
func NewServer(registry *presence.Registry, concealer *conceal.Concealer, codecSem *semaphore.Weighted, stats StatsSource, config Config) *Server {
	if codecSem == nil {
		codecSem = semaphore.NewWeighted(4)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	s := &Server{
		registry:  registry,
		concealer: concealer,
		codecSem:  codecSem,
		stats:     stats,
		router:    router,
		config:    config,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	if s.config.Debug {
		s.router.Use(LoggingMiddleware())
	}
	s.router.Use(gin.Recovery())

	if s.config.MaxUploadBytes > 0 {
		// multipart overhead on top of the image itself
		s.router.Use(BodyLimitMiddleware(s.config.MaxUploadBytes + 64<<10))
		s.router.MaxMultipartMemory = s.config.MaxUploadBytes
	}
}

func (s *Server) setupRoutes() {
	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/status", s.handleStatus)
		v1.GET("/stats", s.handleStats)

		codec := v1.Group("/stego")
		{
			codec.POST("/embed", s.handleEmbed)
			codec.POST("/extract", s.handleExtract)
		}
	}
}

// Handler returns the engine for mounting on the main mux.
func (s *Server) Handler() http.Handler {
	return s.router
}

// handleStatus handles GET /api/v1/status
func (s *Server) handleStatus(c *gin.Context) {
	nicknames := s.registry.Online()
	c.JSON(http.StatusOK, public.Status{Online: len(nicknames), Nicknames: nicknames})
}

// handleStats handles GET /api/v1/stats
func (s *Server) handleStats(c *gin.Context) {
	if s.stats == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "audit disabled", Message: "set audit.enabled to record relay events"})
		return
	}
	stats, err := s.stats.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "error reading audit log", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

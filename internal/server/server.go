package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"blog_aggregator/internal/config"
	"blog_aggregator/internal/loader"
)

// Server is the HTTP boundary. The list and detail routes fetch upstream
// directly (with the response-cache header on the Dev.to path); the feed,
// search and tag routes go through the in-memory loader cache. The two
// paths are intentionally separate and cache independently.
type Server struct {
	cfg        *config.Config
	loader     *loader.Loader
	httpServer *http.Server
	logger     *slog.Logger
}

func New(cfg *config.Config, ldr *loader.Loader, logger *slog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		loader: ldr,
		logger: logger,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/health", s.handleHealth)

	api := engine.Group("/api/blog")
	api.GET("", s.handleListPosts)
	api.GET("/feed", s.handleFeed)
	api.GET("/search", s.handleSearch)
	api.GET("/tags/:tag", s.handlePostsByTag)
	api.GET("/cache/stats", s.handleCacheStats)
	api.DELETE("/cache", s.handleClearCache)
	api.GET("/:id", s.handleGetPost)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s
}

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the router, used by handler tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// normalizeSource maps request aliases onto configuration keys.
func normalizeSource(name string) string {
	name = strings.ToLower(name)
	if name == "dev.to" {
		return "dev"
	}
	return name
}

// lookupSource resolves a requested source name against configuration.
// A missing entry means unsupported, which callers report separately from
// known-but-disabled.
func (s *Server) lookupSource(name string) (config.SourceConfig, bool) {
	cfg, ok := s.cfg.Blog.Sources[normalizeSource(name)]
	return cfg, ok
}

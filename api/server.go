// Package api serves the video endpoints over HTTP.
package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"growth_tools/video-editor/engine"
)

// ImageGenerator turns a prompt into a downloadable image
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Download(ctx context.Context, url, path string) error
}

// Deps are the shared, read-only collaborators of the handlers
type Deps struct {
	Images     ImageGenerator // nil when no API token is configured
	Mockups    *engine.Generator
	Slideshows *engine.SlideshowBuilder
	OutputDir  string
	FFmpegPath string
	Version    string
}

// Server holds the handlers
type Server struct {
	deps Deps
}

// NewRouter builds the gin engine with all routes registered
func NewRouter(deps Deps) *gin.Engine {
	if deps.Version == "" {
		deps.Version = "1.0.0"
	}
	s := &Server{deps: deps}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())
	r.Use(corsMiddleware())

	r.GET("/", s.home)
	r.GET("/health", s.health)
	r.POST("/slideshow", s.slideshow)
	r.POST("/whatsapp", s.whatsapp)

	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

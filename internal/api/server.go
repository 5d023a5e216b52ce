package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"i2cgo/pkg/config"
	"i2cgo/pkg/version"
)

// NewRouter builds the gin engine with every route registered.
func NewRouter(h *Handler, stats *StatsHandler, staticDir string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(), CORS())
	r.MaxMultipartMemory = h.maxMemory

	// Operational
	r.GET("/health", handleHealth)
	r.GET("/api/version", handleVersion)
	r.GET("/api/stats", stats.Handle)

	// Catalogs
	r.GET("/writing-styles/", h.WritingStyles)
	r.GET("/writing-tones/", h.WritingTones)

	// Pipeline
	r.POST("/upload-images/", h.UploadImages)
	r.POST("/generate-content/", h.GenerateContent)

	if staticDir != "" {
		r.Static("/static", staticDir)
	}
	return r
}

// NewServer creates the HTTP server around the router.
func NewServer(cfg config.ServerConfig, h *Handler, stats *StatsHandler) *http.Server {
	return &http.Server{
		Addr:              cfg.Address,
		Handler:           NewRouter(h, stats, cfg.StaticDir),
		ReadTimeout:       time.Duration(cfg.ReadTimeout),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      time.Duration(cfg.WriteTimeout),
		IdleTimeout:       time.Duration(cfg.IdleTimeout),
	}
}

func handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

func handleVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": version.Version})
}

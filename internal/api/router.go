package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/gocatalog/internal/config"
	"github.com/jonesrussell/gocatalog/internal/handlers"
	"github.com/jonesrussell/gocatalog/internal/logger"
)

const (
	corsMaxAgeHours = 12
)

// Handlers bundles the handler set the router mounts.
type Handlers struct {
	Capture  *handlers.CaptureHandler
	Staged   *handlers.StagedHandler
	Catalog  *handlers.CatalogHandler
	Ranking  *handlers.RankingHandler
	Citation *handlers.CitationHandler
	Admin    *handlers.AdminHandler
}

func NewRouter(cfg config.ServerConfig, h Handlers, log logger.Logger) *gin.Engine {
	router := gin.New()

	// CORS middleware - must be first
	router.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Content-Length", "Accept-Encoding",
			"X-CSRF-Token", "Authorization", "accept", "origin",
			"Cache-Control", "X-Requested-With",
		},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           corsMaxAgeHours * time.Hour,
	}))

	// Middleware
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1
	v1 := router.Group("/api/v1")

	// Inbox (bronze tier)
	inbox := v1.Group("/inbox")
	inbox.POST("", h.Capture.Capture)
	inbox.POST("/batch", h.Capture.CaptureBatch)
	inbox.GET("/quarantine", h.Capture.ListQuarantined)

	// Staging (silver tier)
	staging := v1.Group("/staging")
	staging.GET("", h.Staged.List)
	staging.GET("/:id", h.Staged.GetByID)
	staging.PUT("/:id/metadata", h.Staged.UpdateMetadata)
	staging.POST("/:id/promote", h.Catalog.Promote)
	staging.DELETE("/:id", h.Staged.Delete)

	// Catalog (gold tier)
	catalog := v1.Group("/catalog")
	catalog.GET("", h.Catalog.List)
	catalog.GET("/:id", h.Catalog.GetByID)
	catalog.POST("/:id/demote", h.Catalog.Demote)
	catalog.GET("/:id/backlinks", h.Catalog.Backlinks)
	catalog.POST("/:id/themes", h.Catalog.AddTheme)
	catalog.DELETE("/:id/themes/:theme", h.Catalog.RemoveTheme)

	// Rankings
	rankings := v1.Group("/rankings")
	rankings.GET("/top", h.Ranking.Top)
	rankings.GET("/themes/:theme", h.Ranking.ByTheme)
	rankings.GET("/dormant", h.Ranking.Dormant)
	rankings.GET("/emerging", h.Ranking.Emerging)
	rankings.GET("/discovery", h.Ranking.Discovery)

	// Citation links from the entry store
	citationGroup := v1.Group("/citations")
	citationGroup.POST("", h.Citation.Create)
	citationGroup.GET("/entries/:entryID", h.Citation.ListByEntry)
	citationGroup.DELETE("/entries/:entryID", h.Citation.DeleteByEntry)

	// Manual job triggers, seed import, known-domain overrides
	admin := v1.Group("/admin")
	admin.POST("/jobs/enrich", h.Admin.RunEnrich)
	admin.POST("/jobs/recalculate", h.Admin.RunRecalculate)
	admin.POST("/jobs/verify", h.Admin.RunVerify)
	admin.POST("/seeds/import", h.Admin.ImportSeeds)
	admin.GET("/domains", h.Admin.ListDomains)
	admin.PUT("/domains", h.Admin.UpsertDomain)

	return router
}

func ginLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		log.Info("HTTP request",
			logger.String("method", method),
			logger.String("path", path),
			logger.Int("status_code", statusCode),
			logger.String("client_ip", c.ClientIP()),
			logger.Duration("duration", duration),
		)
	}
}

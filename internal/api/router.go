package api

import (
	"github.com/gin-gonic/gin"

	"github.com/timmy/hearth/internal/api/handler"
	"github.com/timmy/hearth/internal/api/middleware"
	"github.com/timmy/hearth/internal/config"
	"github.com/timmy/hearth/internal/logger"
	"github.com/timmy/hearth/internal/manager"
	"github.com/timmy/hearth/internal/repository"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	cfg *config.ServerConfig,
	m *manager.Manager,
	jobRepo *repository.JobRepository,
	log *logger.Logger,
) *gin.Engine {
	// Set Gin mode
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.CORS.AllowAllOrigins,
	}))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	archiveHandler := handler.NewArchiveHandler(m)
	jobsHandler := handler.NewJobsHandler(jobRepo)

	// Health check
	r.GET("/health", healthHandler.Health)

	// Archive job surface, keyed by (subdomain, token)
	r.GET("/go/:subdomain/:token", archiveHandler.Go)
	r.GET("/progress/:subdomain/:token", archiveHandler.Progress)
	r.GET("/download/:subdomain/:token", archiveHandler.Download)
	r.GET("/cleanup/:subdomain/:token", archiveHandler.Cleanup)

	// Job ledger
	v1 := r.Group("/api/v1")
	{
		v1.GET("/jobs", jobsHandler.List)
		v1.GET("/jobs/:id", jobsHandler.Get)
	}

	return r
}

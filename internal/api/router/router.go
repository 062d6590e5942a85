package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ytgrab/ytgrab/internal/api/handler"
	"github.com/ytgrab/ytgrab/internal/web"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Static UI and liveness
	r.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", web.Index())
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	h := handler.NewAPIHandler(deps)

	api := r.Group("/api")
	{
		api.GET("/doctor", h.Doctor)
		api.GET("/info", h.Info)
		api.GET("/list", h.List)
		api.GET("/playlist", h.List)
		api.POST("/download", h.Download)
		api.GET("/files/:job_id", h.Files)
		api.GET("/file/:job_id/:name", h.File)
		api.GET("/events/:job_id", h.Events)
	}

	return r
}

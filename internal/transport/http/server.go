package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"papermind/internal/bootstrap"
	"papermind/internal/transport/http/handler"
	"papermind/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(), middleware.Metrics())
	router.Use(cors.New(corsConfig(app.Config.CORS.AllowOrigins)))

	maxUpload := int64(app.Config.App.MaxUploadMB) << 20
	router.MaxMultipartMemory = maxUpload

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	RegisterAPI(router, handler.NewDocumentHandler(app.Documents, maxUpload), handler.NewSummaryHandler(app.Summaries))
	return router
}

// RegisterAPI mounts the /api/v1 routes.
func RegisterAPI(router *gin.Engine, documents *handler.DocumentHandler, summaries *handler.SummaryHandler) {
	v1 := router.Group("/api/v1")

	docs := v1.Group("/documents")
	docs.POST("", documents.UploadText)
	docs.POST("/pdf", documents.UploadPDF)
	docs.GET("/:id/passages", documents.Passages)

	v1.POST("/search", documents.Search)

	v1.POST("/summarize", summaries.Summarize)
	v1.GET("/summarizer/backends", summaries.Backends)
	v1.PUT("/summarizer/backend", summaries.SwitchBackend)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", middleware.RequestIDHeader)
	cfg.ExposeHeaders = []string{middleware.RequestIDHeader}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

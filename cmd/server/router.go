package main

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"rental-assistant/internal/handler"
	"rental-assistant/internal/logger"
	"rental-assistant/internal/metrics"
)

// routerDeps are the handlers served by the API
type routerDeps struct {
	search         *handler.SearchHandler
	explain        *handler.ExplainHandler
	feedback       *handler.FeedbackHandler
	listings       *handler.ListingsHandler
	allowedOrigins string
	backend        string
	logger         *zap.Logger
}

func setupRouter(deps routerDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.GinMiddleware(deps.logger))
	router.Use(metrics.Middleware())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = splitOrigins(deps.allowedOrigins)
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", handler.SessionHeader}
	corsConfig.ExposeHeaders = []string{handler.SessionHeader, logger.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":       "healthy",
			"service":      "rental-assistant",
			"vector_index": deps.backend,
			"version":      Version,
			"build_time":   BuildTime,
			"git_commit":   GitCommit,
		})
	})

	// Version endpoint
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	apiV1 := router.Group("/api/v1")
	{
		// Search endpoints
		apiV1.POST("/search", deps.search.Search)
		apiV1.POST("/search/stream", deps.search.SearchStream)

		// Listing endpoints
		apiV1.GET("/listings/:id", deps.search.GetListing)
		apiV1.POST("/listings/batch", deps.listings.BatchUpsert)

		// Session endpoints
		apiV1.GET("/session", deps.search.Session)
		apiV1.POST("/session/reset", deps.search.Reset)
		apiV1.GET("/session/export", deps.search.Export)

		apiV1.POST("/explain", deps.explain.Explain)
		apiV1.POST("/feedback", deps.feedback.Submit)
	}

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "API endpoint not found"})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	return router
}

func splitOrigins(origins string) []string {
	var out []string
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

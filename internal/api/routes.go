package api

import (
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/exiletally/deck-tracker/backend/internal/api/handlers"
	"github.com/exiletally/deck-tracker/backend/internal/metrics"
	"github.com/exiletally/deck-tracker/backend/internal/services"
	"github.com/exiletally/deck-tracker/backend/internal/store"
	"github.com/exiletally/deck-tracker/backend/internal/valuation"
)

func SetupRouter(resolver *valuation.Resolver, st *store.Store, summaries *services.SummaryService, snapshots *services.SnapshotService, corsOrigins []string) *gin.Engine {
	router := gin.Default()

	config := cors.DefaultConfig()
	if len(corsOrigins) > 0 {
		config.AllowOrigins = corsOrigins
	} else {
		config.AllowOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	config.AllowCredentials = false
	router.Use(cors.New(config))
	router.Use(metricsMiddleware())

	sessionHandler := handlers.NewSessionHandler(resolver, st, summaries)
	snapshotHandler := handlers.NewSnapshotHandler(st, snapshots)

	api := router.Group("/api")
	{
		sessions := api.Group("/sessions")
		{
			sessions.GET("", sessionHandler.ListSessions)
			sessions.GET("/search", sessionHandler.SearchSessions)
			sessions.GET("/:id", sessionHandler.GetSession)
			sessions.GET("/:id/detail", sessionHandler.GetSessionDetail)
			sessions.POST("", sessionHandler.StartSession)
			sessions.POST("/:id/end", sessionHandler.EndSession)
			sessions.POST("/:id/cards", sessionHandler.AddCard)
			sessions.PUT("/:id/cards/hide", sessionHandler.SetCardHidden)
			sessions.PUT("/:id/total-count", sessionHandler.SetTotalCount)
		}

		snapshotRoutes := api.Group("/snapshots")
		{
			snapshotRoutes.GET("/:id", snapshotHandler.GetSnapshot)
			snapshotRoutes.POST("/refresh", snapshotHandler.RefreshSnapshot)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

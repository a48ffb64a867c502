package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rotabull/supportsync/internal/handlers"
)

type RouterConfig struct {
	SuggestHandler *handlers.SuggestHandler
	SyncJobHandler *handlers.SyncJobHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: false,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/suggest", cfg.SuggestHandler.Suggest)
	router.GET("/triggerManualJob", cfg.SyncJobHandler.TriggerManualJob)

	return router
}

// Package router provides triage service routing.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/pawsense/triage/internal/triage/handler"
)

// Register registers the triage service routes.
func Register(engine *gin.Engine, triageHandler *handler.TriageHandler) {
	engine.GET("/healthz", triageHandler.Healthz)

	v1 := engine.Group("/v1")
	{
		triage := v1.Group("/triage")
		{
			triage.POST("/assess", triageHandler.Assess)
			triage.POST("/extract", triageHandler.Extract)
			triage.GET("/stats", triageHandler.Stats)
		}
	}

	logger.Info("HTTP routes registered")
}

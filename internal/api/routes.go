package api

import (
	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, handler *Handler) {
	api := router.Group("/api")
	{
		api.GET("/health", handler.Health)
		api.POST("/sessions", handler.UploadCSV)
		api.GET("/sessions/:id/summary", handler.GetSummary)
		api.GET("/sessions/:id/properties", handler.GetProperties)
		api.GET("/sessions/:id/charts/status", handler.GetStatusChart)
		api.GET("/sessions/:id/charts/state", handler.GetStateChart)
		api.GET("/sessions/:id/reports/checklist", handler.GetChecklistReport)
		api.GET("/sessions/:id/reports/inventory", handler.GetInventoryReport)
		api.POST("/sessions/:id/leads/refresh", handler.RefreshLeads)
		api.DELETE("/sessions/:id", handler.DeleteSession)
	}
}

package routes

import (
	"github.com/gin-gonic/gin"

	"agentdesk/internal/middleware"
	"agentdesk/internal/models"
)

func ManagerRoutes(api *gin.RouterGroup, h *handlers) {
	manager := api.Group("/manager")
	manager.Use(middleware.RequireRole(models.RoleManager))
	{
		manager.POST("/sales-staff", h.salesStaff.Create)
		manager.GET("/sales-staff", h.salesStaff.List)
		manager.PATCH("/sales-staff/:id", h.salesStaff.Update)
		manager.DELETE("/sales-staff/:id", h.salesStaff.Deactivate)

		manager.GET("/agents", h.fieldUsers.List)

		manager.POST("/attendance-time-frames", h.manager.CreateTimeFrame)
		manager.GET("/attendance-time-frames", h.manager.ListTimeFrames)
		manager.PATCH("/attendance-time-frames/:id", h.manager.UpdateTimeFrame)
	}
}

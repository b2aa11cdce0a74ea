package routes

import (
	"github.com/gin-gonic/gin"

	"agentdesk/internal/middleware"
	"agentdesk/internal/models"
)

func AdminRoutes(api *gin.RouterGroup, h *handlers) {
	admin := api.Group("/admin")
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/users", h.users.List)
		admin.POST("/users/:id/activate", h.users.Activate)
		admin.POST("/users/:id/deactivate", h.users.Suspend)

		admin.GET("/managers", h.managers.List)
		admin.POST("/managers", h.managers.Create)
		admin.PATCH("/managers/:id", h.managers.Update)
		admin.DELETE("/managers/:id", h.managers.Deactivate)

		admin.GET("/sales-staff", h.salesStaff.List)
		admin.GET("/agents", h.fieldUsers.List)

		admin.GET("/help-requests", h.admin.ListHelpRequests)
		admin.PATCH("/help-requests/:id/resolve", h.admin.ResolveHelpRequest)

		admin.GET("/activities", h.admin.ListActivities)
		admin.POST("/activities", h.admin.CreateActivity)
	}
}

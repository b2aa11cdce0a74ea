package routes

import (
	"github.com/gin-gonic/gin"

	"agentdesk/internal/middleware"
	"agentdesk/internal/models"
)

func SalesStaffRoutes(api *gin.RouterGroup, h *handlers) {
	staff := api.Group("/sales-staff")

	// the group's leader reads the member list too
	staff.GET("/agent-groups/:id/members",
		middleware.RequireRole(models.RoleSalesStaff, models.RoleTeamLeader), h.groups.ListMembers)

	owner := staff.Group("")
	owner.Use(middleware.RequireRole(models.RoleSalesStaff))
	{
		owner.POST("/agents", h.fieldUsers.Create)
		owner.GET("/agents", h.fieldUsers.List)
		owner.PATCH("/agents/:id", h.fieldUsers.Update)
		owner.DELETE("/agents/:id", h.fieldUsers.Deactivate)

		owner.POST("/agent-groups", h.groups.Create)
		owner.GET("/agent-groups", h.groups.List)
		owner.PATCH("/agent-groups/:id", h.groups.Update)
		owner.DELETE("/agent-groups/:id", h.groups.Delete)
		owner.POST("/agent-groups/:id/members", h.groups.AddMember)
		owner.DELETE("/agent-groups/:id/members/:agentId", h.groups.RemoveMember)
	}
}

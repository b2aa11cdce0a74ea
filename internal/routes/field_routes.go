package routes

import (
	"github.com/gin-gonic/gin"

	"agentdesk/internal/middleware"
	"agentdesk/internal/models"
)

func LeaderRoutes(api *gin.RouterGroup, h *handlers) {
	leader := api.Group("/leader")
	leader.Use(middleware.RequireRole(models.RoleTeamLeader))
	{
		leader.GET("/groups", h.groups.LedGroups)
		leader.GET("/group-members", h.groups.Team)
		leader.GET("/attendance", h.attendance.List)
		leader.POST("/daily-reports", h.attendance.SubmitReport)
		leader.GET("/daily-reports", h.attendance.ListReports)
	}
}

// AgentRoutes serves Agents and TeamLeaders. A few listings are shared with
// the supervisors above them, who see their subtree.
func AgentRoutes(api *gin.RouterGroup, h *handlers) {
	field := middleware.RequireRole(models.RoleAgent, models.RoleTeamLeader)
	agent := api.Group("/agent")

	agent.POST("/clients", field, h.clients.Create)
	agent.GET("/clients", middleware.RequireRole(models.RoleAgent, models.RoleTeamLeader, models.RoleSalesStaff), h.clients.List)
	agent.GET("/clients/:id", field, h.clients.Get)
	agent.PATCH("/clients/:id", field, h.clients.Update)
	agent.DELETE("/clients/:id", field, h.clients.Delete)

	agent.POST("/attendance", field, h.attendance.CheckIn)
	agent.GET("/attendance",
		middleware.RequireRole(models.RoleAgent, models.RoleTeamLeader, models.RoleSalesStaff, models.RoleManager),
		h.attendance.List)

	agent.POST("/daily-reports", field, h.attendance.SubmitReport)
	agent.GET("/daily-reports", field, h.attendance.ListReports)
}

func MessageRoutes(api *gin.RouterGroup, h *handlers) {
	api.POST("/messages", h.messages.Send)
	api.GET("/messages", h.messages.List)
	api.PATCH("/messages/:id/read", h.messages.MarkRead)
	api.GET("/messages/conversations/:userId", h.messages.Conversation)
	api.GET("/users/available-receivers", h.messages.Receivers)
}

package routes

import (
	"github.com/gin-gonic/gin"

	"agentdesk/internal/middleware"
)

func AuthRoutes(api *gin.RouterGroup, h *handlers, auth *middleware.Authenticator, limiter *middleware.RateLimiter) {
	if limiter != nil {
		api.POST("/login", limiter.Middleware(), h.auth.Login)
	} else {
		api.POST("/login", h.auth.Login)
	}
	api.POST("/logout", h.auth.Logout)
	api.GET("/user", auth.RequireAuth(), h.auth.Me)
	api.POST("/help-requests", h.auth.CreateHelpRequest)
}

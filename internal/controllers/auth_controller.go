package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"agentdesk/internal/activity"
	"agentdesk/internal/apperr"
	"agentdesk/internal/middleware"
	"agentdesk/internal/models"
	"agentdesk/internal/security"
)

const AuthTokenHeader = "X-Auth-Token"

type AuthController struct {
	base
}

func NewAuthController(deps *Deps) *AuthController {
	return &AuthController{base: newBase(deps)}
}

type loginInput struct {
	WorkID   string `json:"workId" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (ac *AuthController) Login(c *gin.Context) {
	var in loginInput
	if err := bindJSON(c, &in); err != nil {
		ac.respondError(c, err)
		return
	}
	ctx := c.Request.Context()

	user, err := ac.Store.GetUserByCredentials(ctx, strings.TrimSpace(in.WorkID), strings.TrimSpace(in.Email))
	if errors.Is(err, apperr.ErrNotFound) {
		ac.respondError(c, apperr.Unauthenticated("User not found"))
		return
	}
	if err != nil {
		ac.respondError(c, err)
		return
	}
	if !user.IsActive {
		ac.respondError(c, apperr.Unauthenticated("Account inactive. Please contact administrator."))
		return
	}
	if !security.CheckPassword(user.Password, in.Password) {
		ac.respondError(c, apperr.Unauthenticated("Invalid credentials"))
		return
	}

	if err := middleware.StartSession(c, user.ID); err != nil {
		ac.respondError(c, err)
		return
	}
	token, err := ac.Auth.Tokens().GenerateToken(user)
	if err != nil {
		ac.respondError(c, err)
		return
	}
	ac.Activity.Recordf(ctx, user.ID, activity.ActionLogin, "%s (%s) logged in", user.FullName(), user.WorkID)

	c.Header(AuthTokenHeader, token)
	c.JSON(http.StatusOK, user.Summary())
}

// Logout always succeeds; the activity entry is only written when someone
// was actually signed in.
func (ac *AuthController) Logout(c *gin.Context) {
	user, _ := ac.Auth.Identify(c)
	if err := middleware.EndSession(c); err != nil {
		ac.Log.WithError(err).Warn("failed to clear session")
	}
	if user != nil {
		ac.Activity.Recordf(c.Request.Context(), user.ID, activity.ActionLogout, "%s (%s) logged out", user.FullName(), user.WorkID)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Me returns the signed-in user.
func (ac *AuthController) Me(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		ac.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user.Summary())
}

type helpRequestInput struct {
	Name    string `json:"name" binding:"required,notblank,max=100"`
	Email   string `json:"email" binding:"required,email"`
	Message string `json:"message" binding:"required,notblank"`
}

// CreateHelpRequest is public: it is how locked-out users reach an Admin.
func (ac *AuthController) CreateHelpRequest(c *gin.Context) {
	var in helpRequestInput
	if err := bindJSON(c, &in); err != nil {
		ac.respondError(c, err)
		return
	}
	hr := &models.HelpRequest{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Message: in.Message,
	}
	if err := ac.Store.CreateHelpRequest(c.Request.Context(), hr); err != nil {
		ac.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, hr)
}

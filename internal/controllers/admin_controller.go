package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"agentdesk/internal/activity"
	"agentdesk/internal/apperr"
	"agentdesk/internal/policy"
)

// AdminController serves the help desk queue and the activity feed.
type AdminController struct {
	base
}

func NewAdminController(deps *Deps) *AdminController {
	return &AdminController{base: newBase(deps)}
}

// ListHelpRequests lists unresolved requests unless ?resolved=true.
func (ac *AdminController) ListHelpRequests(c *gin.Context) {
	actor, err := currentUser(c)
	if err != nil {
		ac.respondError(c, err)
		return
	}
	if _, err := ac.Policy.Require(actor, policy.ResourceHelpRequests, policy.ActionRead); err != nil {
		ac.respondError(c, err)
		return
	}
	resolved := false
	if raw := c.Query("resolved"); raw != "" {
		resolved, err = strconv.ParseBool(raw)
		if err != nil {
			ac.respondError(c, apperr.InvalidField("resolved", "must be true or false"))
			return
		}
	}
	reqs, err := ac.Store.ListHelpRequests(c.Request.Context(), resolved)
	if err != nil {
		ac.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reqs)
}

func (ac *AdminController) ResolveHelpRequest(c *gin.Context) {
	actor, err := currentUser(c)
	if err != nil {
		ac.respondError(c, err)
		return
	}
	if _, err := ac.Policy.Require(actor, policy.ResourceHelpRequests, policy.ActionUpdate); err != nil {
		ac.respondError(c, err)
		return
	}
	id, err := idParam(c, "id")
	if err != nil {
		ac.respondError(c, err)
		return
	}
	hr, err := ac.Store.ResolveHelpRequest(c.Request.Context(), id)
	if err != nil {
		ac.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hr)
}

// ListActivities pages through the audit log newest first.
func (ac *AdminController) ListActivities(c *gin.Context) {
	actor, err := currentUser(c)
	if err != nil {
		ac.respondError(c, err)
		return
	}
	if _, err := ac.Policy.Require(actor, policy.ResourceActivities, policy.ActionRead); err != nil {
		ac.respondError(c, err)
		return
	}
	page, err := intQuery(c, "page", 1)
	if err != nil {
		ac.respondError(c, err)
		return
	}
	limit, err := intQuery(c, "limit", activity.DefaultPageSize)
	if err != nil {
		ac.respondError(c, err)
		return
	}
	result, err := ac.Activity.List(c.Request.Context(), page, limit)
	if err != nil {
		ac.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type activityInput struct {
	Action  string `json:"action" binding:"required,notblank,max=50"`
	Details string `json:"details"`
}

// CreateActivity appends a manual entry attributed to the caller.
func (ac *AdminController) CreateActivity(c *gin.Context) {
	actor, err := currentUser(c)
	if err != nil {
		ac.respondError(c, err)
		return
	}
	if _, err := ac.Policy.Require(actor, policy.ResourceActivities, policy.ActionCreate); err != nil {
		ac.respondError(c, err)
		return
	}
	var in activityInput
	if err := bindJSON(c, &in); err != nil {
		ac.respondError(c, err)
		return
	}
	entry, err := ac.Activity.Append(c.Request.Context(), actor.ID, in.Action, in.Details)
	if err != nil {
		ac.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.InvalidField(key, "must be an integer")
	}
	return v, nil
}

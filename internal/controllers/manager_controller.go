package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"agentdesk/internal/apperr"
	"agentdesk/internal/models"
	"agentdesk/internal/policy"
)

const clockLayout = "15:04"

// ManagerController owns the attendance time frames a Manager sets.
type ManagerController struct {
	base
}

func NewManagerController(deps *Deps) *ManagerController {
	return &ManagerController{base: newBase(deps)}
}

type timeFrameInput struct {
	StartTime string `json:"startTime" binding:"required"`
	EndTime   string `json:"endTime" binding:"required"`
}

type timeFramePatch struct {
	StartTime *string `json:"startTime"`
	EndTime   *string `json:"endTime"`
}

// validateWindow checks both bounds are HH:MM and start precedes end.
func validateWindow(start, end string) error {
	s, err := time.Parse(clockLayout, start)
	if err != nil {
		return apperr.InvalidField("startTime", "must be formatted HH:MM")
	}
	e, err := time.Parse(clockLayout, end)
	if err != nil {
		return apperr.InvalidField("endTime", "must be formatted HH:MM")
	}
	if !s.Before(e) {
		return apperr.InvalidField("endTime", "must be after startTime")
	}
	return nil
}

func (mc *ManagerController) CreateTimeFrame(c *gin.Context) {
	actor, err := currentUser(c)
	if err != nil {
		mc.respondError(c, err)
		return
	}
	if _, err := mc.Policy.Require(actor, policy.ResourceTimeFrames, policy.ActionCreate); err != nil {
		mc.respondError(c, err)
		return
	}
	var in timeFrameInput
	if err := bindJSON(c, &in); err != nil {
		mc.respondError(c, err)
		return
	}
	if err := validateWindow(in.StartTime, in.EndTime); err != nil {
		mc.respondError(c, err)
		return
	}
	tf := &models.AttendanceTimeFrame{ManagerID: actor.ID, StartTime: in.StartTime, EndTime: in.EndTime}
	if err := mc.Store.CreateTimeFrame(c.Request.Context(), tf); err != nil {
		mc.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tf)
}

func (mc *ManagerController) ListTimeFrames(c *gin.Context) {
	actor, err := currentUser(c)
	if err != nil {
		mc.respondError(c, err)
		return
	}
	filter, err := mc.Policy.Visible(c.Request.Context(), actor, policy.ResourceTimeFrames)
	if err != nil {
		mc.respondError(c, err)
		return
	}
	frames, err := mc.Store.ListTimeFrames(c.Request.Context(), filter)
	if err != nil {
		mc.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, frames)
}

func (mc *ManagerController) UpdateTimeFrame(c *gin.Context) {
	actor, err := currentUser(c)
	if err != nil {
		mc.respondError(c, err)
		return
	}
	id, err := idParam(c, "id")
	if err != nil {
		mc.respondError(c, err)
		return
	}
	ctx := c.Request.Context()
	tf, err := mc.Store.GetTimeFrame(ctx, id)
	if err != nil {
		mc.respondError(c, err)
		return
	}
	if err := mc.Policy.Authorize(ctx, actor, policy.ResourceTimeFrames, policy.ActionUpdate, policy.Owned(tf.ManagerID)); err != nil {
		mc.respondError(c, err)
		return
	}
	var in timeFramePatch
	if err := bindJSON(c, &in); err != nil {
		mc.respondError(c, err)
		return
	}
	start, end := tf.StartTime, tf.EndTime
	if in.StartTime != nil {
		start = *in.StartTime
	}
	if in.EndTime != nil {
		end = *in.EndTime
	}
	if err := validateWindow(start, end); err != nil {
		mc.respondError(c, err)
		return
	}
	updated, err := mc.Store.UpdateTimeFrame(ctx, id, start, end)
	if err != nil {
		mc.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

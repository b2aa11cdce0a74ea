package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"agentdesk/internal/apperr"
	"agentdesk/internal/models"
	"agentdesk/internal/policy"
)

// AttendanceController covers the daily check-in and the end-of-day report.
// Both are keyed by the server's calendar day; clients never pick the date.
type AttendanceController struct {
	base
}

func NewAttendanceController(deps *Deps) *AttendanceController {
	return &AttendanceController{base: newBase(deps)}
}

type attendanceInput struct {
	Sector   string `json:"sector" binding:"required,notblank,max=100"`
	Location string `json:"location" binding:"required,notblank,max=255"`
}

type dailyReportInput struct {
	Comment     string          `json:"comment"`
	ClientsData json.RawMessage `json:"clientsData"`
}

func (ac *AttendanceController) CheckIn(c *gin.Context) {
	actor, err := currentUser(c)
	if err != nil {
		ac.respondError(c, err)
		return
	}
	if _, err := ac.Policy.Require(actor, policy.ResourceAttendance, policy.ActionCreate); err != nil {
		ac.respondError(c, err)
		return
	}
	var in attendanceInput
	if err := bindJSON(c, &in); err != nil {
		ac.respondError(c, err)
		return
	}
	record := &models.Attendance{
		UserID:      actor.ID,
		Date:        ac.today(),
		Sector:      strings.TrimSpace(in.Sector),
		Location:    strings.TrimSpace(in.Location),
		CheckInTime: ac.Now(),
	}
	if err := ac.Store.CreateAttendance(c.Request.Context(), record); err != nil {
		ac.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// List returns visible attendance for ?date, today by default.
func (ac *AttendanceController) List(c *gin.Context) {
	actor, err := currentUser(c)
	if err != nil {
		ac.respondError(c, err)
		return
	}
	day, err := ac.dayQuery(c, true)
	if err != nil {
		ac.respondError(c, err)
		return
	}
	filter, err := ac.Policy.Visible(c.Request.Context(), actor, policy.ResourceAttendance)
	if err != nil {
		ac.respondError(c, err)
		return
	}
	records, err := ac.Store.ListAttendance(c.Request.Context(), filter, day)
	if err != nil {
		ac.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (ac *AttendanceController) SubmitReport(c *gin.Context) {
	actor, err := currentUser(c)
	if err != nil {
		ac.respondError(c, err)
		return
	}
	if _, err := ac.Policy.Require(actor, policy.ResourceDailyReports, policy.ActionCreate); err != nil {
		ac.respondError(c, err)
		return
	}
	var in dailyReportInput
	if err := bindJSON(c, &in); err != nil {
		ac.respondError(c, err)
		return
	}
	if len(in.ClientsData) > 0 && !json.Valid(in.ClientsData) {
		ac.respondError(c, apperr.InvalidField("clientsData", "must be valid JSON"))
		return
	}
	report := &models.DailyReport{
		AgentID:     actor.ID,
		Date:        ac.today(),
		Comment:     in.Comment,
		ClientsData: datatypes.JSON(in.ClientsData),
	}
	if err := ac.Store.CreateDailyReport(c.Request.Context(), report); err != nil {
		ac.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

// ListReports returns visible reports, optionally for one ?date.
func (ac *AttendanceController) ListReports(c *gin.Context) {
	actor, err := currentUser(c)
	if err != nil {
		ac.respondError(c, err)
		return
	}
	day, err := ac.dayQuery(c, false)
	if err != nil {
		ac.respondError(c, err)
		return
	}
	filter, err := ac.Policy.Visible(c.Request.Context(), actor, policy.ResourceDailyReports)
	if err != nil {
		ac.respondError(c, err)
		return
	}
	reports, err := ac.Store.ListDailyReports(c.Request.Context(), filter, day)
	if err != nil {
		ac.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

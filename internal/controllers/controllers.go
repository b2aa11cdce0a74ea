// Package controllers holds the HTTP handlers. Handlers authenticate through
// middleware, ask the policy engine for permission, call the store and
// translate apperr errors into responses in one place.
package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"agentdesk/internal/activity"
	"agentdesk/internal/apperr"
	"agentdesk/internal/middleware"
	"agentdesk/internal/models"
	"agentdesk/internal/policy"
	"agentdesk/internal/store"
)

const dayLayout = "2006-01-02"

// Deps is everything a controller needs. Now and Location are injectable so
// tests can pin the calendar day.
type Deps struct {
	Store    *store.Store
	Policy   *policy.Engine
	Activity *activity.Logger
	Auth     *middleware.Authenticator
	Log      logrus.FieldLogger
	Location *time.Location
	Now      func() time.Time
}

type base struct {
	*Deps
}

func newBase(deps *Deps) base {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}
	return base{Deps: deps}
}

// today is the current calendar day in the configured zone, stored as UTC midnight.
func (b base) today() datatypes.Date {
	y, m, d := b.Now().In(b.Location).Date()
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func parseDay(raw string) (datatypes.Date, error) {
	t, err := time.Parse(dayLayout, raw)
	if err != nil {
		return datatypes.Date{}, apperr.InvalidField("date", "must be formatted YYYY-MM-DD")
	}
	return datatypes.Date(t), nil
}

// dayQuery reads ?date=, falling back to today when fallbackToday is set or
// to no day filter otherwise.
func (b base) dayQuery(c *gin.Context, fallbackToday bool) (*datatypes.Date, error) {
	raw := c.Query("date")
	if raw == "" {
		if !fallbackToday {
			return nil, nil
		}
		d := b.today()
		return &d, nil
	}
	d, err := parseDay(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (b base) respondError(c *gin.Context, err error) {
	status := apperr.Status(err)
	entry := b.Log.WithFields(logrus.Fields{
		"method":     c.Request.Method,
		"route":      c.FullPath(),
		"status":     status,
		"kind":       apperr.Kind(err),
		"request_id": c.GetString("request_id"),
	})
	if user := middleware.CurrentUser(c); user != nil {
		entry = entry.WithField("user_id", user.ID)
	}
	if status == http.StatusInternalServerError {
		entry.WithError(err).Error("request failed")
	} else {
		entry.Debug(err.Error())
	}
	c.AbortWithStatusJSON(status, apperr.BodyOf(err))
}

func currentUser(c *gin.Context) (*models.User, error) {
	user := middleware.CurrentUser(c)
	if user == nil {
		return nil, apperr.Unauthenticated("Not authenticated")
	}
	return user, nil
}

func init() {
	// report validation failures by JSON field name
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("notblank", validators.NotBlank)
	}
}

// trimmed returns a trimmed copy of an optional patch value.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

// bindJSON decodes the body into obj and turns validator failures into a
// field-level validation error.
func bindJSON(c *gin.Context, obj any) error {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		appErr := apperr.Validation("Invalid input")
		for _, fe := range verrs {
			appErr.WithField(fe.Field(), fieldMessage(fe))
		}
		return appErr
	}
	return apperr.Validation("Invalid request body")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "notblank":
		return "must not be blank"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "is invalid"
	}
}

func idParam(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.InvalidField(name, "must be a positive integer")
	}
	return uint(id), nil
}

// Health reports whether the database answers.
func Health(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

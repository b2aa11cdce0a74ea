// Package activity records the audit trail: logins, logouts, user lifecycle
// changes and group creation.
package activity

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"agentdesk/internal/apperr"
	"agentdesk/internal/models"
)

type Action string

const (
	ActionLogin          Action = "login"
	ActionLogout         Action = "logout"
	ActionCreateUser     Action = "create_user"
	ActionUpdateUser     Action = "update_user"
	ActionActivateUser   Action = "activate_user"
	ActionDeactivateUser Action = "deactivate_user"
	ActionCreateGroup    Action = "create_group"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Sink persists and reads activity entries.
type Sink interface {
	CreateActivity(ctx context.Context, a *models.Activity) error
	ListActivities(ctx context.Context, offset, limit int) ([]models.Activity, int64, error)
}

type Logger struct {
	sink Sink
	log  logrus.FieldLogger
}

func New(sink Sink, log logrus.FieldLogger) *Logger {
	return &Logger{sink: sink, log: log}
}

// Record appends an entry. Failures are logged and dropped so they never
// change the outcome of the operation being described.
func (l *Logger) Record(ctx context.Context, userID uint, action Action, details string) {
	if _, err := l.Append(ctx, userID, string(action), details); err != nil {
		l.log.WithFields(logrus.Fields{
			"user_id": userID,
			"action":  action,
		}).WithError(err).Warn("failed to record activity")
	}
}

// Recordf is Record with a formatted summary.
func (l *Logger) Recordf(ctx context.Context, userID uint, action Action, format string, args ...any) {
	l.Record(ctx, userID, action, fmt.Sprintf(format, args...))
}

// Append writes an entry and reports failures to the caller.
func (l *Logger) Append(ctx context.Context, userID uint, action, details string) (*models.Activity, error) {
	if action == "" {
		return nil, apperr.InvalidField("action", "is required")
	}
	a := &models.Activity{UserID: userID, Action: action, Details: details}
	if err := l.sink.CreateActivity(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Page is one page of the audit log.
type Page struct {
	Activities []models.Activity `json:"activities"`
	Total      int64             `json:"total"`
}

// List returns page (1-based) of the log, newest first. Out-of-range page
// and limit values are clamped.
func (l *Logger) List(ctx context.Context, page, limit int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	// keep the offset within int32 so it cannot overflow
	if maxPage := math.MaxInt32/limit + 1; page > maxPage {
		page = maxPage
	}
	acts, total, err := l.sink.ListActivities(ctx, (page-1)*limit, limit)
	if err != nil {
		return Page{}, err
	}
	if acts == nil {
		acts = []models.Activity{}
	}
	return Page{Activities: acts, Total: total}, nil
}

package store

import (
	"context"

	"gorm.io/datatypes"

	"agentdesk/internal/models"
)

func (s *Store) CreateDailyReport(ctx context.Context, r *models.DailyReport) error {
	return writeErr(s.db.WithContext(ctx).Create(r).Error, "Daily report already submitted for today")
}

// ListDailyReports returns reports by agents passing f, newest first. A nil
// day means every day.
func (s *Store) ListDailyReports(ctx context.Context, f OwnerFilter, day *datatypes.Date) ([]models.DailyReport, error) {
	var reports []models.DailyReport
	q := f.apply(s.db.WithContext(ctx), "agent_id")
	if day != nil {
		q = q.Where(`"date" = ?`, *day)
	}
	err := q.Order(`"date" DESC, id DESC`).Find(&reports).Error
	return reports, err
}

package store

import (
	"context"

	"agentdesk/internal/models"
)

func (s *Store) CreateActivity(ctx context.Context, a *models.Activity) error {
	return s.db.WithContext(ctx).Create(a).Error
}

// ListActivities returns one page of the audit log, newest first, plus the
// total number of entries.
func (s *Store) ListActivities(ctx context.Context, offset, limit int) ([]models.Activity, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Activity{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var acts []models.Activity
	err := s.db.WithContext(ctx).
		Order(`"timestamp" DESC, id DESC`).
		Offset(offset).
		Limit(limit).
		Find(&acts).Error
	return acts, total, err
}

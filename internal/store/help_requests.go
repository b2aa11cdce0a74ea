package store

import (
	"context"

	"agentdesk/internal/models"
)

func (s *Store) CreateHelpRequest(ctx context.Context, hr *models.HelpRequest) error {
	return s.db.WithContext(ctx).Create(hr).Error
}

func (s *Store) ListHelpRequests(ctx context.Context, resolved bool) ([]models.HelpRequest, error) {
	var reqs []models.HelpRequest
	err := s.db.WithContext(ctx).
		Where("resolved = ?", resolved).
		Order("created_at DESC, id DESC").
		Find(&reqs).Error
	return reqs, err
}

func (s *Store) ResolveHelpRequest(ctx context.Context, id uint) (*models.HelpRequest, error) {
	var hr models.HelpRequest
	if err := s.db.WithContext(ctx).First(&hr, id).Error; err != nil {
		return nil, lookupErr(err, "Help request")
	}
	if err := s.db.WithContext(ctx).Model(&hr).Update("resolved", true).Error; err != nil {
		return nil, err
	}
	hr.Resolved = true
	return &hr, nil
}

package store

import (
	"context"

	"agentdesk/internal/models"
)

func (s *Store) CreateMessage(ctx context.Context, m *models.Message) error {
	return s.db.WithContext(ctx).Create(m).Error
}

func (s *Store) GetMessage(ctx context.Context, id uint) (*models.Message, error) {
	var m models.Message
	if err := s.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, lookupErr(err, "Message")
	}
	return &m, nil
}

// ListMessagesForUser returns everything userID sent or received, oldest first.
func (s *Store) ListMessagesForUser(ctx context.Context, userID uint) ([]models.Message, error) {
	var msgs []models.Message
	err := s.db.WithContext(ctx).
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("sent_at, id").
		Find(&msgs).Error
	return msgs, err
}

// ListConversation returns the messages exchanged between two users, oldest first.
func (s *Store) ListConversation(ctx context.Context, a, b uint) ([]models.Message, error) {
	var msgs []models.Message
	err := s.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Order("sent_at, id").
		Find(&msgs).Error
	return msgs, err
}

func (s *Store) MarkMessageRead(ctx context.Context, id uint) (*models.Message, error) {
	m, err := s.GetMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(m).Update("read", true).Error; err != nil {
		return nil, err
	}
	m.Read = true
	return m, nil
}

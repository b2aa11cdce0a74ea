package store

import (
	"context"

	"gorm.io/datatypes"

	"agentdesk/internal/models"
)

func (s *Store) CreateAttendance(ctx context.Context, a *models.Attendance) error {
	return writeErr(s.db.WithContext(ctx).Create(a).Error, "Attendance already recorded for today")
}

// ListAttendance returns check-ins by users passing f. A nil day means every day.
func (s *Store) ListAttendance(ctx context.Context, f OwnerFilter, day *datatypes.Date) ([]models.Attendance, error) {
	var rows []models.Attendance
	q := f.apply(s.db.WithContext(ctx), "user_id")
	if day != nil {
		q = q.Where(`"date" = ?`, *day)
	}
	err := q.Order("check_in_time DESC, id DESC").Find(&rows).Error
	return rows, err
}

func (s *Store) CreateTimeFrame(ctx context.Context, tf *models.AttendanceTimeFrame) error {
	return s.db.WithContext(ctx).Create(tf).Error
}

func (s *Store) GetTimeFrame(ctx context.Context, id uint) (*models.AttendanceTimeFrame, error) {
	var tf models.AttendanceTimeFrame
	if err := s.db.WithContext(ctx).First(&tf, id).Error; err != nil {
		return nil, lookupErr(err, "Attendance time frame")
	}
	return &tf, nil
}

func (s *Store) ListTimeFrames(ctx context.Context, f OwnerFilter) ([]models.AttendanceTimeFrame, error) {
	var frames []models.AttendanceTimeFrame
	err := f.apply(s.db.WithContext(ctx), "manager_id").Order("id").Find(&frames).Error
	return frames, err
}

// UpdateTimeFrame writes both bounds; callers validate the pair beforehand.
func (s *Store) UpdateTimeFrame(ctx context.Context, id uint, start, end string) (*models.AttendanceTimeFrame, error) {
	if _, err := s.GetTimeFrame(ctx, id); err != nil {
		return nil, err
	}
	err := s.db.WithContext(ctx).Model(&models.AttendanceTimeFrame{}).
		Where("id = ?", id).
		Updates(map[string]any{"start_time": start, "end_time": end}).Error
	if err != nil {
		return nil, err
	}
	return s.GetTimeFrame(ctx, id)
}

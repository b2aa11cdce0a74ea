package models

import (
	"time"

	"gorm.io/datatypes"
)

// Attendance is one check-in per user per calendar day.
type Attendance struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"not null;uniqueIndex:idx_attendance_user_date" json:"userId"`
	Date        datatypes.Date `gorm:"type:date;not null;uniqueIndex:idx_attendance_user_date" json:"date"`
	Sector      string         `gorm:"size:100;not null" json:"sector"`
	Location    string         `gorm:"size:255;not null" json:"location"`
	CheckInTime time.Time      `gorm:"not null" json:"checkInTime"`
}

func (Attendance) TableName() string { return "attendance" }

// AttendanceTimeFrame is the check-in window a Manager sets for their branch.
// Times are wall-clock "HH:MM".
type AttendanceTimeFrame struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ManagerID uint      `gorm:"not null;index" json:"managerId"`
	StartTime string    `gorm:"size:5;not null" json:"startTime"`
	EndTime   string    `gorm:"size:5;not null" json:"endTime"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

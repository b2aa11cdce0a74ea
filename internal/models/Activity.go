package models

import "time"

// Activity is an append-only audit entry.
type Activity struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	Action    string    `gorm:"size:50;not null;index" json:"action"`
	Details   string    `gorm:"type:text" json:"details"`
	Timestamp time.Time `gorm:"autoCreateTime;index" json:"timestamp"`
}

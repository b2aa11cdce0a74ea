package models

import "time"

// HelpRequest is submitted from the public login page.
type HelpRequest struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"size:255;not null" json:"email"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Resolved  bool      `gorm:"not null;default:false;index" json:"resolved"`
	CreatedAt time.Time `json:"createdAt"`
}

package models

import "time"

// User is any member of the organisation. Users are never hard-deleted;
// IsActive=false takes them out of circulation.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FirstName   string    `gorm:"size:100;not null" json:"firstName"`
	LastName    string    `gorm:"size:100;not null" json:"lastName"`
	Email       string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	WorkID      string    `gorm:"size:50;not null;uniqueIndex" json:"workId"`
	NationalID  string    `gorm:"size:50" json:"nationalId,omitempty"`
	PhoneNumber string    `gorm:"size:30" json:"phoneNumber,omitempty"`
	Password    string    `gorm:"not null" json:"-"`
	Role        Role      `gorm:"size:20;not null;index" json:"role"`
	ManagerID   *uint     `gorm:"index" json:"managerId"`
	IsActive    bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// ReportsTo is true when u's direct manager is managerID.
func (u *User) ReportsTo(managerID uint) bool {
	return u.ManagerID != nil && *u.ManagerID == managerID
}

// UserSummary is the trimmed user shape embedded in other payloads.
type UserSummary struct {
	ID        uint   `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	WorkID    string `json:"workId"`
	Role      Role   `json:"role"`
	IsActive  bool   `json:"isActive"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		WorkID:    u.WorkID,
		Role:      u.Role,
		IsActive:  u.IsActive,
	}
}

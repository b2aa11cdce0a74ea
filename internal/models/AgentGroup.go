package models

import "time"

// AgentGroup is a team of field users owned by one SalesStaff and
// optionally led by a TeamLeader.
type AgentGroup struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	SalesStaffID uint      `gorm:"not null;index" json:"salesStaffId"`
	LeaderID     *uint     `gorm:"index" json:"leaderId"`
	IsActive     bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}

// AgentGroupMember links an Agent to a group. The composite key keeps the
// pair unique.
type AgentGroupMember struct {
	GroupID   uint      `gorm:"primaryKey;autoIncrement:false" json:"groupId"`
	AgentID   uint      `gorm:"primaryKey;autoIncrement:false;index" json:"agentId"`
	CreatedAt time.Time `json:"createdAt"`
}

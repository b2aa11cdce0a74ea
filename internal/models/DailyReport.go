package models

import (
	"time"

	"gorm.io/datatypes"
)

// DailyReport is a field user's end-of-day summary. ClientsData is opaque JSON.
type DailyReport struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	AgentID     uint           `gorm:"not null;uniqueIndex:idx_daily_reports_agent_date" json:"agentId"`
	Date        datatypes.Date `gorm:"type:date;not null;uniqueIndex:idx_daily_reports_agent_date" json:"date"`
	Comment     string         `gorm:"type:text" json:"comment"`
	ClientsData datatypes.JSON `gorm:"type:json" json:"clientsData"`
	CreatedAt   time.Time      `json:"createdAt"`
}

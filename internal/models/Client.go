package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Client is an insurance customer registered by a field user.
type Client struct {
	ID               uint                `gorm:"primaryKey" json:"id"`
	FirstName        string              `gorm:"size:100;not null" json:"firstName"`
	LastName         string              `gorm:"size:100;not null" json:"lastName"`
	NationalID       string              `gorm:"size:50" json:"nationalId"`
	PhoneNumber      string              `gorm:"size:30" json:"phoneNumber"`
	InsuranceProduct string              `gorm:"size:100" json:"insuranceProduct"`
	PaymentMethod    string              `gorm:"size:50" json:"paymentMethod"`
	FeePaid          decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"feePaid"`
	Location         string              `gorm:"size:255" json:"location"`
	AgentID          uint                `gorm:"not null;index" json:"agentId"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

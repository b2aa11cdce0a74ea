package models

import "time"

type Message struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SenderID   uint      `gorm:"not null;index" json:"senderId"`
	ReceiverID uint      `gorm:"not null;index" json:"receiverId"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Read       bool      `gorm:"not null;default:false" json:"read"`
	SentAt     time.Time `gorm:"autoCreateTime;index" json:"sentAt"`
}

// Involves is true when userID sent or received the message.
func (m *Message) Involves(userID uint) bool {
	return m.SenderID == userID || m.ReceiverID == userID
}

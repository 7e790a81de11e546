package models

import (
	"time"
)

// Message senders
const (
	SenderUser   = "user"
	SenderTailor = "tailor"
)

// MaxMessageLength is the longest message text accepted, in characters
const MaxMessageLength = 1000

// JobMessage is one entry in a job's conversation. Messages are append-only.
type JobMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	JobID     uint      `gorm:"not null;index" json:"job_id"`
	Sender    string    `gorm:"not null" json:"sender"` // user or tailor
	SenderID  uint      `gorm:"not null" json:"sender_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the JobMessage model
func (JobMessage) TableName() string {
	return "job_messages"
}

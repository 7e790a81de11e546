package models

import "time"

// JobImage is a reference to a photo attached to a job. Images are append-only.
type JobImage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	JobID      uint      `gorm:"not null;index" json:"job_id"`
	URL        string    `gorm:"not null" json:"url"`
	UploadedBy string    `gorm:"not null" json:"uploaded_by"` // user or tailor
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for the JobImage model
func (JobImage) TableName() string {
	return "job_images"
}

package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// JobStatus is a state in the job lifecycle
type JobStatus string

const (
	StatusRequested                JobStatus = "requested"
	StatusAccepted                 JobStatus = "accepted"
	StatusInProgress               JobStatus = "in_progress"
	StatusFinishedByTailor         JobStatus = "finished_by_tailor"
	StatusAwaitingUserConfirmation JobStatus = "awaiting_user_confirmation"
	StatusRevisionRequested        JobStatus = "revision_requested"
	StatusRiderAssigned            JobStatus = "rider_assigned"
	StatusDelivered                JobStatus = "delivered"
	StatusClosed                   JobStatus = "closed"
	StatusCancelled                JobStatus = "cancelled"
)

// AllJobStatuses lists every status in lifecycle order
var AllJobStatuses = []JobStatus{
	StatusRequested,
	StatusAccepted,
	StatusInProgress,
	StatusFinishedByTailor,
	StatusAwaitingUserConfirmation,
	StatusRevisionRequested,
	StatusRiderAssigned,
	StatusDelivered,
	StatusClosed,
	StatusCancelled,
}

// IsTerminal reports whether no further status change is possible
func (s JobStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusClosed || s == StatusCancelled
}

// Payment states
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)

// Who cancelled a job
const (
	CancelledByUser   = "user"
	CancelledByTailor = "tailor"
	CancelledByAdmin  = "admin"
)

// Job is a single tailoring work order from request to closure
type Job struct {
	ID                  uint             `gorm:"primaryKey" json:"id"`
	UserID              *uint            `gorm:"index" json:"user_id"`   // customer account
	UserEmail           string           `gorm:"index" json:"user_email"` // legacy owner address
	User                *User            `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"-"`
	TailorID            uint             `gorm:"not null;index" json:"tailor_id"`
	Tailor              *Tailor          `gorm:"foreignKey:TailorID;constraint:OnDelete:RESTRICT" json:"tailor,omitempty"`
	WorkType            string           `gorm:"not null" json:"work_type"`
	Status              JobStatus        `gorm:"type:varchar(32);not null;default:'requested';index" json:"status"`
	EstimatedMinutes    int              `json:"estimated_minutes"`
	SpecialInstructions string           `gorm:"type:text" json:"special_instructions"`
	DeliveryAddress     string           `json:"delivery_address"`
	Price               *decimal.Decimal `gorm:"type:decimal(12,2)" json:"price"`
	PaymentStatus       string           `gorm:"not null;default:'pending'" json:"payment_status"`
	RatingValue         *int             `json:"rating_value"`
	RatingComment       *string          `json:"rating_comment"`
	CancellationReason  *string          `json:"cancellation_reason"`
	CancelledBy         *string          `json:"cancelled_by"`
	RevisionCount       int              `gorm:"not null;default:0" json:"revision_count"`
	RevisionNote        *string          `json:"revision_note"`
	Images              []JobImage       `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE" json:"images"`
	Messages            []JobMessage     `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE" json:"messages"`
	RequestedAt         time.Time        `json:"requested_at"`
	AcceptedAt          *time.Time       `json:"accepted_at"`
	StartedAt           *time.Time       `json:"started_at"`
	FinishedAt          *time.Time       `json:"finished_at"`
	ConfirmedAt         *time.Time       `json:"confirmed_at"`
	RevisionRequestedAt *time.Time       `json:"revision_requested_at"`
	RiderAssignedAt     *time.Time       `json:"rider_assigned_at"`
	DeliveredAt         *time.Time       `json:"delivered_at"`
	ClosedAt            *time.Time       `json:"closed_at"`
	CancelledAt         *time.Time       `json:"cancelled_at"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
	DeletedAt           gorm.DeletedAt   `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Job model
func (Job) TableName() string {
	return "jobs"
}

// IsRated reports whether the customer has already rated this job
func (j *Job) IsRated() bool {
	return j.RatingValue != nil
}

// BelongsTo reports whether the caller is this job's customer, matching
// either the account id or, for older jobs, the email address
func (j *Job) BelongsTo(caller Identity) bool {
	if j.UserID != nil && *j.UserID == caller.UserID {
		return true
	}
	return j.UserEmail != "" && caller.Email != "" && strings.EqualFold(j.UserEmail, caller.Email)
}

// PhaseTimestampColumn maps a status to the column recording when it was entered
var PhaseTimestampColumn = map[JobStatus]string{
	StatusRequested:                "requested_at",
	StatusAccepted:                 "accepted_at",
	StatusInProgress:               "started_at",
	StatusFinishedByTailor:         "finished_at",
	StatusAwaitingUserConfirmation: "confirmed_at",
	StatusRevisionRequested:        "revision_requested_at",
	StatusRiderAssigned:            "rider_assigned_at",
	StatusDelivered:                "delivered_at",
	StatusClosed:                   "closed_at",
	StatusCancelled:                "cancelled_at",
}

// PhaseTimestamp returns the recorded entry time of a phase, if any
func (j *Job) PhaseTimestamp(status JobStatus) *time.Time {
	switch status {
	case StatusRequested:
		if j.RequestedAt.IsZero() {
			return nil
		}
		return &j.RequestedAt
	case StatusAccepted:
		return j.AcceptedAt
	case StatusInProgress:
		return j.StartedAt
	case StatusFinishedByTailor:
		return j.FinishedAt
	case StatusAwaitingUserConfirmation:
		return j.ConfirmedAt
	case StatusRevisionRequested:
		return j.RevisionRequestedAt
	case StatusRiderAssigned:
		return j.RiderAssignedAt
	case StatusDelivered:
		return j.DeliveredAt
	case StatusClosed:
		return j.ClosedAt
	case StatusCancelled:
		return j.CancelledAt
	}
	return nil
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// Roles a user account can hold
const (
	RoleCustomer = "customer"
	RoleTailor   = "tailor"
	RoleAdmin    = "admin"
)

// DefaultCreditLimit is the number of usage credits a new account starts with
const DefaultCreditLimit = 5

// User represents an account in the system (customer, tailor or admin)
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `json:"name"`
	Phone        string         `gorm:"uniqueIndex;not null" json:"phone"` // digits only
	Email        *string        `gorm:"uniqueIndex" json:"email"`          // nullable, phone-only accounts have none
	PasswordHash string         `json:"-"`
	Role         string         `gorm:"not null;default:'customer'" json:"role"`
	Address      string         `json:"address"`
	Latitude     *float64       `json:"latitude,omitempty"`
	Longitude    *float64       `json:"longitude,omitempty"`
	CreditsUsed  int            `gorm:"not null;default:0" json:"credits_used"`
	CreditLimit  int            `gorm:"not null;default:5" json:"credit_limit"`
	IsActive     bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// EmailAddress returns the user's email or an empty string
func (u *User) EmailAddress() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}

// Identity returns the session identity for this account
func (u *User) Identity() Identity {
	return Identity{UserID: u.ID, Email: u.EmailAddress(), Role: u.Role}
}

// Identity is the caller resolved from a session token.
type Identity struct {
	UserID uint
	Email  string
	Role   string
}

// IsAdmin reports whether the caller holds the admin role
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

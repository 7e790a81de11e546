package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Work types a job can be filed under
const (
	WorkTypeLight = "light"
	WorkTypeHeavy = "heavy"
)

// FallbackAvgMins is used when a tailor has no average recorded for a work type
const FallbackAvgMins = 60

// InitialRating is the rating a tailor starts with before any rating is recorded
const InitialRating = 5.0

// Tailor represents a service provider's shop profile
type Tailor struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	UserID             *uint           `gorm:"index" json:"user_id"` // owning account, nullable for admin-created shops
	Name               string          `gorm:"not null" json:"name"`
	Email              string          `json:"email"`
	Phone              string          `gorm:"index" json:"phone"`
	ShopPhotoURL       string          `json:"shop_photo_url"`
	Address            string          `json:"address"`
	Description        string          `json:"description"`
	Latitude           float64         `gorm:"index:idx_tailors_location" json:"latitude"`
	Longitude          float64         `gorm:"index:idx_tailors_location" json:"longitude"`
	LightAvgMins       int             `gorm:"not null;default:30" json:"light_avg_mins"`
	HeavyAvgMins       int             `gorm:"not null;default:120" json:"heavy_avg_mins"`
	PriceMin           *float64        `json:"price_min"`
	PriceMax           *float64        `json:"price_max"`
	IsAvailable        bool            `gorm:"not null;default:true;index" json:"is_available"`
	IsVerified         bool            `gorm:"not null;default:false" json:"is_verified"`
	CurrentOrders      int             `gorm:"not null;default:0" json:"current_orders"`
	WaitingListCount   int             `gorm:"not null;default:0" json:"waiting_list_count"`
	Rating             float64         `gorm:"not null;default:5" json:"rating"`
	TotalRatings       int             `gorm:"not null;default:0" json:"total_ratings"`
	TotalEarnings      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_earnings"`
	TotalJobsCompleted int             `gorm:"not null;default:0" json:"total_jobs_completed"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	DeletedAt          gorm.DeletedAt  `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Tailor model
func (Tailor) TableName() string {
	return "tailors"
}

// AvgMinutes returns the average completion time for a work type,
// falling back to FallbackAvgMins when none is recorded
func (t *Tailor) AvgMinutes(workType string) int {
	avg := t.LightAvgMins
	if workType == WorkTypeHeavy {
		avg = t.HeavyAvgMins
	}
	if avg <= 0 {
		return FallbackAvgMins
	}
	return avg
}

// EstimateMinutes approximates the wait for a new job of the given type.
// It assumes a FIFO queue where every job ahead takes the average time;
// it is not a guaranteed completion time.
func (t *Tailor) EstimateMinutes(workType string) int {
	avg := t.AvgMinutes(workType)
	return t.WaitingListCount*avg + avg
}

// IsOwnedBy reports whether the given account owns this tailor profile
func (t *Tailor) IsOwnedBy(userID uint) bool {
	return t.UserID != nil && *t.UserID == userID
}

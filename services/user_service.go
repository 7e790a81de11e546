package services

import (
	"context"
	"strings"

	"github.com/ParthDhoot27/stichUP/models"
	"github.com/ParthDhoot27/stichUP/utils"
	"gorm.io/gorm"
)

// UserService manages account profiles and usage credits
type UserService struct {
	db *gorm.DB
}

// UpdateProfileInput holds the profile fields a user may change; nil means unchanged
type UpdateProfileInput struct {
	Name      *string
	Email     *string
	Address   *string
	Latitude  *float64
	Longitude *float64
}

// NewUserService creates a user service backed by db
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// GetProfile loads a user account
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if utils.IsNotFound(err) {
			return nil, notFound("User")
		}
		return nil, err
	}
	return &user, nil
}

// UpdateProfile applies the provided fields to the account
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) (*models.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fieldError("name", "name must not be empty")
		}
		updates["name"] = name
	}
	if in.Email != nil {
		if email := normalizeEmail(*in.Email); email != "" {
			updates["email"] = email
		} else {
			updates["email"] = nil
		}
	}
	if in.Address != nil {
		updates["address"] = strings.TrimSpace(*in.Address)
	}
	if in.Latitude != nil {
		if *in.Latitude < -90 || *in.Latitude > 90 {
			return nil, fieldError("latitude", "must be between -90 and 90")
		}
		updates["latitude"] = *in.Latitude
	}
	if in.Longitude != nil {
		if *in.Longitude < -180 || *in.Longitude > 180 {
			return nil, fieldError("longitude", "must be between -180 and 180")
		}
		updates["longitude"] = *in.Longitude
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		if utils.IsUniqueViolation(err) {
			return nil, duplicateIdentity("email")
		}
		return nil, err
	}
	return s.GetProfile(ctx, userID)
}

// ConsumeCredit uses one usage credit, failing once the limit is reached
func (s *UserService) ConsumeCredit(ctx context.Context, userID uint) (*models.User, error) {
	db := s.db.WithContext(ctx)
	result := db.Model(&models.User{}).
		Where("id = ? AND credits_used < credit_limit", userID).
		Update("credits_used", gorm.Expr("credits_used + 1"))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		user, err := s.GetProfile(ctx, userID)
		if err != nil {
			return nil, err
		}
		return nil, &AppError{
			Code:    CodeCreditLimitReached,
			Message: "Credit limit reached",
			Details: map[string]int{"credits_used": user.CreditsUsed, "credit_limit": user.CreditLimit},
		}
	}
	return s.GetProfile(ctx, userID)
}

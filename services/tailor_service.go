package services

import (
	"context"
	"sort"
	"strings"

	"github.com/ParthDhoot27/stichUP/models"
	"github.com/ParthDhoot27/stichUP/utils"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Search defaults and limits
const (
	DefaultSearchLimit       = 20
	MaxSearchLimit           = 50
	DefaultMaxDistanceMeters = 50000
)

// Bounds on a tailor's average completion times, in minutes
const (
	MinLightAvgMins = 5
	MinHeavyAvgMins = 15
	MaxAvgMins      = 1440
)

// TailorService manages tailor profiles, availability and counters
type TailorService struct {
	db *gorm.DB
}

// NewTailorService creates a tailor service backed by db
func NewTailorService(db *gorm.DB) *TailorService {
	return &TailorService{db: db}
}

// CreateTailorInput is the data for a new tailor profile
type CreateTailorInput struct {
	OwnerUserID  *uint // admins may attach a profile to any tailor account
	Name         string
	Email        string
	Phone        string
	ShopPhotoURL string
	Address      string
	Description  string
	Latitude     float64
	Longitude    float64
	LightAvgMins *int
	HeavyAvgMins *int
	PriceMin     *float64
	PriceMax     *float64
}

// UpdateServicesInput changes what a tailor offers; nil means unchanged
type UpdateServicesInput struct {
	LightAvgMins *int
	HeavyAvgMins *int
	PriceMin     *float64
	PriceMax     *float64
	Description  *string
}

// SearchParams are the inputs to a nearby-tailor search
type SearchParams struct {
	Latitude    float64
	Longitude   float64
	WorkType    string
	MaxDistance float64 // meters
	Limit       int
}

// TailorSummary is one search result
type TailorSummary struct {
	ID                       uint     `json:"id"`
	Name                     string   `json:"name"`
	ShopPhotoURL             string   `json:"shop_photo_url"`
	Address                  string   `json:"address"`
	Latitude                 float64  `json:"latitude"`
	Longitude                float64  `json:"longitude"`
	Rating                   float64  `json:"rating"`
	TotalRatings             int      `json:"total_ratings"`
	IsVerified               bool     `json:"is_verified"`
	PriceMin                 *float64 `json:"price_min"`
	PriceMax                 *float64 `json:"price_max"`
	DistanceMeters           float64  `json:"distance_meters"`
	DistanceKm               float64  `json:"distance_km"`
	EstimatedMinutes         int      `json:"estimated_minutes"`
	WaitingListCount         int      `json:"waiting_list_count"`
	CurrentOrders            int      `json:"current_orders"`
	AverageCompletionMinutes int      `json:"average_completion_minutes"`
}

// TailorEarnings is the owner-facing account summary
type TailorEarnings struct {
	TailorID           uint            `json:"tailor_id"`
	TotalEarnings      decimal.Decimal `json:"total_earnings"`
	TotalJobsCompleted int             `json:"total_jobs_completed"`
	CurrentOrders      int             `json:"current_orders"`
	WaitingListCount   int             `json:"waiting_list_count"`
	Rating             float64         `json:"rating"`
	TotalRatings       int             `json:"total_ratings"`
}

func validateCoordinates(lat, lng float64) error {
	details := map[string]string{}
	if lat < -90 || lat > 90 {
		details["lat"] = "must be between -90 and 90"
	}
	if lng < -180 || lng > 180 {
		details["lng"] = "must be between -180 and 180"
	}
	if len(details) > 0 {
		return validationError("Invalid coordinates", details)
	}
	return nil
}

// NormalizeWorkType defaults an empty work type to light and rejects unknown ones
func NormalizeWorkType(workType string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(workType)) {
	case "", models.WorkTypeLight:
		return models.WorkTypeLight, nil
	case models.WorkTypeHeavy:
		return models.WorkTypeHeavy, nil
	}
	return "", fieldError("work_type", "must be light or heavy")
}

func validateServiceFields(light, heavy *int, priceMin, priceMax *float64) error {
	details := map[string]string{}
	if light != nil && (*light < MinLightAvgMins || *light > MaxAvgMins) {
		details["light_avg_mins"] = "must be between 5 and 1440"
	}
	if heavy != nil && (*heavy < MinHeavyAvgMins || *heavy > MaxAvgMins) {
		details["heavy_avg_mins"] = "must be between 15 and 1440"
	}
	if priceMin != nil && *priceMin < 0 {
		details["price_min"] = "must not be negative"
	}
	if priceMax != nil && *priceMax < 0 {
		details["price_max"] = "must not be negative"
	}
	if priceMin != nil && priceMax != nil && *priceMin > *priceMax {
		details["price_max"] = "must not be less than price_min"
	}
	if len(details) > 0 {
		return validationError("Invalid service details", details)
	}
	return nil
}

// CreateProfile registers a tailor shop. Tailor accounts own the profile
// they create; admins may create one on behalf of any account.
func (s *TailorService) CreateProfile(ctx context.Context, caller models.Identity, in CreateTailorInput) (*models.Tailor, error) {
	if caller.Role != models.RoleTailor && !caller.IsAdmin() {
		return nil, forbidden("Only tailor accounts can create a tailor profile")
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fieldError("name", "name is required")
	}
	if err := validateCoordinates(in.Latitude, in.Longitude); err != nil {
		return nil, err
	}
	if err := validateServiceFields(in.LightAvgMins, in.HeavyAvgMins, in.PriceMin, in.PriceMax); err != nil {
		return nil, err
	}

	owner := in.OwnerUserID
	if !caller.IsAdmin() {
		id := caller.UserID
		owner = &id
	}

	db := s.db.WithContext(ctx)
	if owner != nil {
		var count int64
		if err := db.Model(&models.Tailor{}).Where("user_id = ?", *owner).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, &AppError{Code: CodeDuplicateIdentity, Message: "Tailor profile already exists for this account"}
		}
	}

	tailor := &models.Tailor{
		UserID:       owner,
		Name:         strings.TrimSpace(in.Name),
		Email:        normalizeEmail(in.Email),
		Phone:        utils.NormalizePhone(in.Phone),
		ShopPhotoURL: in.ShopPhotoURL,
		Address:      strings.TrimSpace(in.Address),
		Description:  strings.TrimSpace(in.Description),
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
		PriceMin:     in.PriceMin,
		PriceMax:     in.PriceMax,
		IsAvailable:  true,
		Rating:       models.InitialRating,
	}
	if in.LightAvgMins != nil {
		tailor.LightAvgMins = *in.LightAvgMins
	}
	if in.HeavyAvgMins != nil {
		tailor.HeavyAvgMins = *in.HeavyAvgMins
	}

	if err := db.Create(tailor).Error; err != nil {
		return nil, err
	}
	log.Info().Uint("tailor_id", tailor.ID).Msg("tailor profile created")
	return tailor, nil
}

// Get loads a tailor profile
func (s *TailorService) Get(ctx context.Context, tailorID uint) (*models.Tailor, error) {
	return findTailor(s.db.WithContext(ctx), tailorID)
}

func findTailor(db *gorm.DB, tailorID uint) (*models.Tailor, error) {
	var tailor models.Tailor
	if err := db.First(&tailor, tailorID).Error; err != nil {
		if utils.IsNotFound(err) {
			return nil, notFound("Tailor")
		}
		return nil, err
	}
	return &tailor, nil
}

// loadOwned loads a tailor the caller may manage
func (s *TailorService) loadOwned(ctx context.Context, tailorID uint, caller models.Identity) (*models.Tailor, error) {
	tailor, err := s.Get(ctx, tailorID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && !tailor.IsOwnedBy(caller.UserID) {
		return nil, forbidden("You can only manage your own tailor profile")
	}
	return tailor, nil
}

// UpdateServices changes average completion times, price range or description
func (s *TailorService) UpdateServices(ctx context.Context, tailorID uint, caller models.Identity, in UpdateServicesInput) (*models.Tailor, error) {
	tailor, err := s.loadOwned(ctx, tailorID, caller)
	if err != nil {
		return nil, err
	}

	priceMin, priceMax := tailor.PriceMin, tailor.PriceMax
	if in.PriceMin != nil {
		priceMin = in.PriceMin
	}
	if in.PriceMax != nil {
		priceMax = in.PriceMax
	}
	if err := validateServiceFields(in.LightAvgMins, in.HeavyAvgMins, priceMin, priceMax); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.LightAvgMins != nil {
		updates["light_avg_mins"] = *in.LightAvgMins
	}
	if in.HeavyAvgMins != nil {
		updates["heavy_avg_mins"] = *in.HeavyAvgMins
	}
	if in.PriceMin != nil {
		updates["price_min"] = *in.PriceMin
	}
	if in.PriceMax != nil {
		updates["price_max"] = *in.PriceMax
	}
	if in.Description != nil {
		updates["description"] = strings.TrimSpace(*in.Description)
	}
	if len(updates) == 0 {
		return tailor, nil
	}

	if err := s.db.WithContext(ctx).Model(&models.Tailor{}).Where("id = ?", tailorID).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, tailorID)
}

// SetAvailability toggles whether the tailor accepts new jobs
func (s *TailorService) SetAvailability(ctx context.Context, tailorID uint, isAvailable bool, caller models.Identity) (*models.Tailor, error) {
	if _, err := s.loadOwned(ctx, tailorID, caller); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Tailor{}).Where("id = ?", tailorID).
		Update("is_available", isAvailable).Error; err != nil {
		return nil, err
	}
	log.Info().Uint("tailor_id", tailorID).Bool("is_available", isAvailable).Msg("tailor availability changed")
	return s.Get(ctx, tailorID)
}

// Verify marks a tailor as verified by an administrator
func (s *TailorService) Verify(ctx context.Context, tailorID uint, caller models.Identity) (*models.Tailor, error) {
	if !caller.IsAdmin() {
		return nil, forbidden("Only administrators can verify tailors")
	}
	if _, err := s.Get(ctx, tailorID); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Tailor{}).Where("id = ?", tailorID).
		Update("is_verified", true).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, tailorID)
}

// Earnings summarizes what a tailor has been paid and is working on
func (s *TailorService) Earnings(ctx context.Context, tailorID uint, caller models.Identity) (*TailorEarnings, error) {
	tailor, err := s.loadOwned(ctx, tailorID, caller)
	if err != nil {
		return nil, err
	}
	return &TailorEarnings{
		TailorID:           tailor.ID,
		TotalEarnings:      tailor.TotalEarnings,
		TotalJobsCompleted: tailor.TotalJobsCompleted,
		CurrentOrders:      tailor.CurrentOrders,
		WaitingListCount:   tailor.WaitingListCount,
		Rating:             tailor.Rating,
		TotalRatings:       tailor.TotalRatings,
	}, nil
}

// AddRating folds a 1-5 rating into the tailor's running mean
func (s *TailorService) AddRating(ctx context.Context, tailorID uint, value int) (*models.Tailor, error) {
	if value < 1 || value > 5 {
		return nil, fieldError("value", "must be between 1 and 5")
	}
	db := s.db.WithContext(ctx)
	if err := requireAffected(applyRating(db, tailorID, value), "Tailor"); err != nil {
		return nil, err
	}
	return s.Get(ctx, tailorID)
}

// IncrementWaitingList adds one job to the tailor's queue count
func (s *TailorService) IncrementWaitingList(ctx context.Context, tailorID uint) error {
	return requireAffected(incrementCounter(s.db.WithContext(ctx), tailorID, "waiting_list_count"), "Tailor")
}

// DecrementWaitingList removes one job from the queue count, never going below zero
func (s *TailorService) DecrementWaitingList(ctx context.Context, tailorID uint) error {
	if _, err := s.Get(ctx, tailorID); err != nil {
		return err
	}
	return decrementCounter(s.db.WithContext(ctx), tailorID, "waiting_list_count").Error
}

// Search finds available tailors within MaxDistance of a point, nearest first
func (s *TailorService) Search(ctx context.Context, p SearchParams) ([]TailorSummary, error) {
	if err := validateCoordinates(p.Latitude, p.Longitude); err != nil {
		return nil, err
	}
	workType, err := NormalizeWorkType(p.WorkType)
	if err != nil {
		return nil, err
	}
	if p.MaxDistance < 0 {
		return nil, fieldError("maxDistance", "must not be negative")
	}
	if p.MaxDistance == 0 {
		p.MaxDistance = DefaultMaxDistanceMeters
	}
	if p.Limit <= 0 {
		p.Limit = DefaultSearchLimit
	}
	if p.Limit > MaxSearchLimit {
		p.Limit = MaxSearchLimit
	}

	box := boundingBoxAround(p.Latitude, p.Longitude, p.MaxDistance)
	query := s.db.WithContext(ctx).Model(&models.Tailor{}).
		Where("is_available = ?", true).
		Where("latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat)
	if !box.WrapsLng {
		query = query.Where("longitude BETWEEN ? AND ?", box.MinLng, box.MaxLng)
	}

	var candidates []models.Tailor
	if err := query.Find(&candidates).Error; err != nil {
		return nil, err
	}

	results := make([]TailorSummary, 0, len(candidates))
	for i := range candidates {
		t := &candidates[i]
		distance := HaversineMeters(p.Latitude, p.Longitude, t.Latitude, t.Longitude)
		if distance > p.MaxDistance {
			continue
		}
		results = append(results, TailorSummary{
			ID:                       t.ID,
			Name:                     t.Name,
			ShopPhotoURL:             t.ShopPhotoURL,
			Address:                  t.Address,
			Latitude:                 t.Latitude,
			Longitude:                t.Longitude,
			Rating:                   t.Rating,
			TotalRatings:             t.TotalRatings,
			IsVerified:               t.IsVerified,
			PriceMin:                 t.PriceMin,
			PriceMax:                 t.PriceMax,
			DistanceMeters:           round2(distance),
			DistanceKm:               round2(distance / 1000),
			EstimatedMinutes:         t.EstimateMinutes(workType),
			WaitingListCount:         t.WaitingListCount,
			CurrentOrders:            t.CurrentOrders,
			AverageCompletionMinutes: t.AvgMinutes(workType),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].DistanceMeters == results[j].DistanceMeters {
			return results[i].ID < results[j].ID
		}
		return results[i].DistanceMeters < results[j].DistanceMeters
	})
	if len(results) > p.Limit {
		results = results[:p.Limit]
	}
	return results, nil
}

// Counter updates below run inside the caller's transaction so they commit
// or roll back together with the job change that caused them.

func incrementCounter(tx *gorm.DB, tailorID uint, column string) *gorm.DB {
	return tx.Model(&models.Tailor{}).Where("id = ?", tailorID).
		Update(column, gorm.Expr(column+" + 1"))
}

func decrementCounter(tx *gorm.DB, tailorID uint, column string) *gorm.DB {
	return tx.Model(&models.Tailor{}).Where("id = ?", tailorID).
		Update(column, gorm.Expr("CASE WHEN "+column+" > 0 THEN "+column+" - 1 ELSE 0 END"))
}

func applyRating(tx *gorm.DB, tailorID uint, value int) *gorm.DB {
	return tx.Model(&models.Tailor{}).Where("id = ?", tailorID).Updates(map[string]interface{}{
		"rating":        gorm.Expr("(rating * total_ratings + ?) / (total_ratings + 1)", float64(value)),
		"total_ratings": gorm.Expr("total_ratings + 1"),
	})
}

func bookEarnings(tx *gorm.DB, tailorID uint, price *decimal.Decimal) *gorm.DB {
	updates := map[string]interface{}{
		"total_jobs_completed": gorm.Expr("total_jobs_completed + 1"),
	}
	if price != nil {
		updates["total_earnings"] = gorm.Expr("total_earnings + ?", price.StringFixed(2))
	}
	return tx.Model(&models.Tailor{}).Where("id = ?", tailorID).Updates(updates)
}

func requireAffected(result *gorm.DB, entity string) error {
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFound(entity)
	}
	return nil
}

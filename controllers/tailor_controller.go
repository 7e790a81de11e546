package controllers

import (
	"net/http"

	"github.com/ParthDhoot27/stichUP/config"
	"github.com/ParthDhoot27/stichUP/services"
	"github.com/gin-gonic/gin"
)

// SearchTailorsQuery represents the query string of GET /tailors/search
type SearchTailorsQuery struct {
	Lat         *float64 `form:"lat" binding:"required,gte=-90,lte=90"`
	Lng         *float64 `form:"lng" binding:"required,gte=-180,lte=180"`
	Type        string   `form:"type" binding:"omitempty,oneof=light heavy"`
	MaxDistance float64  `form:"maxDistance" binding:"omitempty,gt=0"`
	Limit       int      `form:"limit" binding:"omitempty,gt=0"`
}

// CreateTailorRequest represents the request body for POST /tailors
type CreateTailorRequest struct {
	UserID       *uint    `json:"user_id"`
	Name         string   `json:"name" binding:"required,max=100"`
	Email        string   `json:"email" binding:"omitempty,email"`
	Phone        string   `json:"phone" binding:"omitempty,phone"`
	ShopPhotoURL string   `json:"shop_photo_url" binding:"omitempty,weburl"`
	Address      string   `json:"address" binding:"max=500"`
	Description  string   `json:"description" binding:"max=2000"`
	Latitude     *float64 `json:"latitude" binding:"required,gte=-90,lte=90"`
	Longitude    *float64 `json:"longitude" binding:"required,gte=-180,lte=180"`
	LightAvgMins *int     `json:"light_avg_mins" binding:"omitempty,gte=5,lte=1440"`
	HeavyAvgMins *int     `json:"heavy_avg_mins" binding:"omitempty,gte=15,lte=1440"`
	PriceMin     *float64 `json:"price_min" binding:"omitempty,gte=0"`
	PriceMax     *float64 `json:"price_max" binding:"omitempty,gte=0"`
}

// UpdateServicesRequest represents the request body for PUT /tailors/:id/services
type UpdateServicesRequest struct {
	LightAvgMins *int     `json:"light_avg_mins" binding:"omitempty,gte=5,lte=1440"`
	HeavyAvgMins *int     `json:"heavy_avg_mins" binding:"omitempty,gte=15,lte=1440"`
	PriceMin     *float64 `json:"price_min" binding:"omitempty,gte=0"`
	PriceMax     *float64 `json:"price_max" binding:"omitempty,gte=0"`
	Description  *string  `json:"description" binding:"omitempty,max=2000"`
}

// SetAvailabilityRequest represents the request body for PUT /tailors/:id/availability
type SetAvailabilityRequest struct {
	IsAvailable *bool `json:"is_available" binding:"required"`
}

func tailorService() *services.TailorService {
	return services.NewTailorService(config.GetDB())
}

// SearchTailors handles GET /api/v1/tailors/search - nearby available tailors, nearest first
func SearchTailors(c *gin.Context) {
	var q SearchTailorsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}

	results, err := tailorService().Search(c.Request.Context(), services.SearchParams{
		Latitude:    *q.Lat,
		Longitude:   *q.Lng,
		WorkType:    q.Type,
		MaxDistance: q.MaxDistance,
		Limit:       q.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    results,
		"count":   len(results),
	})
}

// GetTailor handles GET /api/v1/tailors/:id
func GetTailor(c *gin.Context) {
	tailorID, ok := idParam(c, "id")
	if !ok {
		return
	}

	tailor, err := tailorService().Get(c.Request.Context(), tailorID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, tailor)
}

// CreateTailor handles POST /api/v1/tailors - creates a shop profile (tailors and admins)
func CreateTailor(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req CreateTailorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	tailor, err := tailorService().CreateProfile(c.Request.Context(), identity, services.CreateTailorInput{
		OwnerUserID:  req.UserID,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		ShopPhotoURL: req.ShopPhotoURL,
		Address:      req.Address,
		Description:  req.Description,
		Latitude:     *req.Latitude,
		Longitude:    *req.Longitude,
		LightAvgMins: req.LightAvgMins,
		HeavyAvgMins: req.HeavyAvgMins,
		PriceMin:     req.PriceMin,
		PriceMax:     req.PriceMax,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, tailor)
}

// UpdateTailorServices handles PUT /api/v1/tailors/:id/services
func UpdateTailorServices(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	tailorID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req UpdateServicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	tailor, err := tailorService().UpdateServices(c.Request.Context(), tailorID, identity, services.UpdateServicesInput{
		LightAvgMins: req.LightAvgMins,
		HeavyAvgMins: req.HeavyAvgMins,
		PriceMin:     req.PriceMin,
		PriceMax:     req.PriceMax,
		Description:  req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, tailor)
}

// SetTailorAvailability handles PUT /api/v1/tailors/:id/availability
func SetTailorAvailability(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	tailorID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req SetAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	tailor, err := tailorService().SetAvailability(c.Request.Context(), tailorID, *req.IsAvailable, identity)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, tailor)
}

// GetTailorEarnings handles GET /api/v1/tailors/:id/earnings (owner or admin)
func GetTailorEarnings(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	tailorID, ok := idParam(c, "id")
	if !ok {
		return
	}

	earnings, err := tailorService().Earnings(c.Request.Context(), tailorID, identity)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, earnings)
}

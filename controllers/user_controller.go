package controllers

import (
	"net/http"

	"github.com/ParthDhoot27/stichUP/config"
	"github.com/ParthDhoot27/stichUP/services"
	"github.com/gin-gonic/gin"
)

// UpdateProfileRequest represents the request body for PUT /users/me.
// Omitted fields are left unchanged.
type UpdateProfileRequest struct {
	Name      *string  `json:"name" binding:"omitempty,min=1,max=100"`
	Email     *string  `json:"email" binding:"omitempty,email"`
	Address   *string  `json:"address" binding:"omitempty,max=500"`
	Latitude  *float64 `json:"latitude" binding:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" binding:"omitempty,gte=-180,lte=180"`
}

// GetProfile handles GET /api/v1/users/me
func GetProfile(c *gin.Context) {
	GetMe(c)
}

// UpdateProfile handles PUT /api/v1/users/me
func UpdateProfile(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := services.NewUserService(config.GetDB()).UpdateProfile(c.Request.Context(), identity.UserID, services.UpdateProfileInput{
		Name:      req.Name,
		Email:     req.Email,
		Address:   req.Address,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, user)
}

// ConsumeCredit handles POST /api/v1/users/me/credits - uses one usage credit
func ConsumeCredit(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	user, err := services.NewUserService(config.GetDB()).ConsumeCredit(c.Request.Context(), identity.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"credits_used":      user.CreditsUsed,
		"credit_limit":      user.CreditLimit,
		"credits_remaining": user.CreditLimit - user.CreditsUsed,
	})
}

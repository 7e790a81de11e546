package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ParthDhoot27/stichUP/middleware"
	"github.com/ParthDhoot27/stichUP/models"
	"github.com/ParthDhoot27/stichUP/services"
	"github.com/ParthDhoot27/stichUP/utils"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func init() {
	utils.RegisterCustomValidations()
}

// statusFor maps a domain error code onto an HTTP status
func statusFor(code string) int {
	switch code {
	case services.CodeValidation,
		services.CodeDuplicateIdentity,
		services.CodeOTPNotFound,
		services.CodeOTPExpired,
		services.CodeOTPInvalid,
		services.CodeCreditLimitReached,
		services.CodeAlreadyRated,
		services.CodeTailorUnavailable,
		services.CodeInvalidTransition:
		return http.StatusBadRequest
	case services.CodeUnauthorized, services.CodeInvalidCredentials:
		return http.StatusUnauthorized
	case services.CodeForbidden:
		return http.StatusForbidden
	case services.CodeNotFound:
		return http.StatusNotFound
	case services.CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func errorJSON(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondError writes err in the standard envelope. Unknown errors are logged
// and reported as a generic 500.
func respondError(c *gin.Context, err error) {
	var appErr *services.AppError
	if errors.As(err, &appErr) {
		body := gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		}
		if appErr.Details != nil {
			body["details"] = appErr.Details
		}
		c.JSON(statusFor(appErr.Code), gin.H{"success": false, "error": body})
		return
	}

	var uploadErr *utils.FileUploadError
	if errors.As(err, &uploadErr) {
		errorJSON(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message)
		return
	}

	_ = c.Error(err)
	log.Error().Err(err).Str("method", c.Request.Method).Str("path", c.Request.URL.Path).Msg("Request failed")
	errorJSON(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
}

// respondBindError reports a request body or query that failed binding
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    services.CodeValidation,
			"message": "Invalid request data",
			"details": utils.TranslateValidationError(err),
		},
	})
}

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// currentIdentity resolves the caller, writing a 401 when there is none
func currentIdentity(c *gin.Context) (models.Identity, bool) {
	identity, err := middleware.GetIdentity(c)
	if err != nil {
		errorJSON(c, http.StatusUnauthorized, services.CodeUnauthorized, "Could not extract user information")
		return models.Identity{}, false
	}
	return identity, true
}

// idParam parses a positive numeric path parameter, writing a 400 when it is malformed
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    services.CodeValidation,
				"message": "Invalid request data",
				"details": gin.H{name: "must be a positive integer"},
			},
		})
		return 0, false
	}
	return uint(id), true
}

// pageParams reads page and limit query parameters
func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.DefaultPageSize)))
	return services.NormalizePage(page, limit)
}

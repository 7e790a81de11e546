package controllers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ParthDhoot27/stichUP/services"
	"github.com/ParthDhoot27/stichUP/utils"
	"github.com/gin-gonic/gin"
)

// UploadJobImage handles POST /api/v1/jobs/:id/images/upload - multipart field "image"
func UploadJobImage(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	jobID, ok := idParam(c, "id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    services.CodeValidation,
				"message": "Invalid request data",
				"details": gin.H{"image": "image file is required"},
			},
		})
		return
	}

	job, err := jobService().UploadImage(c.Request.Context(), jobID, identity, fileHeader)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, job)
}

// GetUploadedImage handles GET /api/v1/uploads/:filename - serves a stored job photo
// from local disk, or redirects to object storage
func GetUploadedImage(c *gin.Context) {
	filename := c.Param("filename")

	// Prevent directory traversal
	if filename == "" || strings.Contains(filename, "..") || strings.ContainsAny(filename, "/\\") {
		errorJSON(c, http.StatusBadRequest, "INVALID_FILENAME", "Invalid filename")
		return
	}
	if _, ok := utils.AllowedImageFormats[strings.ToLower(filepath.Ext(filename))]; !ok {
		errorJSON(c, http.StatusBadRequest, "INVALID_FILE_TYPE", "Only PNG and JPEG files are supported")
		return
	}

	images := services.GetImageService()
	if images == nil {
		errorJSON(c, http.StatusServiceUnavailable, services.CodeServiceUnavailable, "Image storage is not configured")
		return
	}

	loc, err := images.Locate(c.Request.Context(), filename)
	if err != nil {
		if errors.Is(err, services.ErrImageNotFound) {
			errorJSON(c, http.StatusNotFound, services.CodeNotFound, "Image not found")
			return
		}
		respondError(c, err)
		return
	}

	if loc.RedirectURL != "" {
		c.Redirect(http.StatusTemporaryRedirect, loc.RedirectURL)
		return
	}

	c.Header("Content-Type", utils.ContentTypeFor(filename))
	c.Header("Cache-Control", "public, max-age=86400") // 24 hours
	c.File(loc.Path)
}

package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// MaxFileSize caps a single job photo at 10MB
const MaxFileSize = 10 << 20

// UploadDir is where photos are written when S3 is not configured.
// main overrides it from UPLOAD_DIR.
var UploadDir = "./uploads"

// AllowedImageFormats maps accepted photo extensions to their content type
var AllowedImageFormats = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// FileUploadError is a rejected upload. Code is returned to the client as is.
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

func imageExt(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// ValidateImageFile accepts PNG and JPEG photos up to MaxFileSize
func ValidateImageFile(fileHeader *multipart.FileHeader) error {
	switch {
	case fileHeader.Size > MaxFileSize:
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: "Photo is larger than " + strconv.Itoa(MaxFileSize>>20) + " MB",
		}
	case AllowedImageFormats[imageExt(fileHeader.Filename)] == "":
		return &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: "Only PNG and JPEG files are allowed",
		}
	}
	return nil
}

// ContentTypeFor falls back to application/octet-stream for unknown extensions
func ContentTypeFor(filename string) string {
	if ct := AllowedImageFormats[imageExt(filename)]; ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// UniqueFilename turns "front view.png" into "<unixnano>_front_view.png"
func UniqueFilename(original string) string {
	base := strings.ReplaceAll(filepath.Base(original), " ", "_")
	return strconv.FormatInt(time.Now().UnixNano(), 10) + "_" + base
}

// SaveUploadedFile copies the upload into dir under a fresh name and returns that
// name. The copy goes to a temp file first so a failed write never leaves a partial
// photo behind.
func SaveUploadedFile(fileHeader *multipart.FileHeader, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating upload dir: %w", err)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("opening upload: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("writing upload: %w", err)
	}

	name := UniqueFilename(fileHeader.Filename)
	if err := os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		return "", fmt.Errorf("moving upload into place: %w", err)
	}
	return name, nil
}

// GetImageURL is the API path a stored photo is served from
func GetImageURL(filename string) string {
	if filename == "" {
		return ""
	}
	return "/api/v1/uploads/" + filename
}

package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"

	"github.com/ParthDhoot27/stichUP/utils"
)

// ImageService stores job photos and resolves where a stored photo can be fetched from
type ImageService interface {
	// UploadImage validates and stores an image file, returns its public filename
	UploadImage(ctx context.Context, fileHeader *multipart.FileHeader) (string, error)

	// Locate resolves a stored filename to a local path or a redirect URL
	Locate(ctx context.Context, filename string) (ImageLocation, error)

	// DeleteImage removes an image from storage
	DeleteImage(ctx context.Context, filename string) error
}

// ImageLocation is either a file on local disk or a remote URL to redirect to
type ImageLocation struct {
	Path        string
	RedirectURL string
}

// ErrImageNotFound is returned by Locate when no such photo is stored
var ErrImageNotFound = notFound("Image")

var imageServiceInstance ImageService

// InitImageService stores photos in bucket when one is given, under uploadDir otherwise
func InitImageService(bucket PhotoBucket, uploadDir string) ImageService {
	if bucket != nil {
		imageServiceInstance = NewBucketImageService(bucket)
	} else {
		imageServiceInstance = NewLocalImageService(uploadDir)
	}
	return imageServiceInstance
}

// GetImageService returns the initialized image service instance
func GetImageService() ImageService {
	return imageServiceInstance
}

// SetImageService sets the image service instance (primarily for testing)
func SetImageService(service ImageService) {
	imageServiceInstance = service
}

// photoKeyPrefix is the bucket folder photos live under
const photoKeyPrefix = "uploads/"

func photoKey(filename string) string {
	return photoKeyPrefix + path.Base(filename)
}

// BucketImageService keeps photos in an object store and serves them by redirect
type BucketImageService struct {
	bucket PhotoBucket
	name   func(original string) string
}

func NewBucketImageService(bucket PhotoBucket) *BucketImageService {
	return &BucketImageService{bucket: bucket, name: utils.UniqueFilename}
}

func (s *BucketImageService) UploadImage(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", err
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("opening upload: %w", err)
	}
	defer src.Close()

	filename := s.name(fileHeader.Filename)
	if err := s.bucket.Put(ctx, photoKey(filename), utils.ContentTypeFor(filename), src, fileHeader.Size); err != nil {
		return "", fmt.Errorf("storing photo: %w", err)
	}
	return filename, nil
}

// Locate checks the photo is still in the bucket before signing a link to it
func (s *BucketImageService) Locate(ctx context.Context, filename string) (ImageLocation, error) {
	key := photoKey(filename)
	ok, err := s.bucket.Exists(ctx, key)
	if err != nil {
		return ImageLocation{}, err
	}
	if !ok {
		return ImageLocation{}, ErrImageNotFound
	}

	url, err := s.bucket.SignedURL(ctx, key)
	if err != nil {
		return ImageLocation{}, err
	}
	return ImageLocation{RedirectURL: url}, nil
}

func (s *BucketImageService) DeleteImage(ctx context.Context, filename string) error {
	if filename == "" {
		return nil
	}
	return s.bucket.Remove(ctx, photoKey(filename))
}

// LocalImageService keeps photos in a directory on local disk
type LocalImageService struct {
	dir string
}

// NewLocalImageService creates an image service rooted at dir
func NewLocalImageService(dir string) *LocalImageService {
	if dir == "" {
		dir = utils.UploadDir
	}
	return &LocalImageService{dir: dir}
}

// UploadImage validates and writes an image file to the upload directory
func (s *LocalImageService) UploadImage(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", err
	}
	return utils.SaveUploadedFile(fileHeader, s.dir)
}

// Locate returns the on-disk path of a stored photo
func (s *LocalImageService) Locate(ctx context.Context, filename string) (ImageLocation, error) {
	fullPath := filepath.Join(s.dir, filepath.Base(filename))
	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return ImageLocation{}, ErrImageNotFound
		}
		return ImageLocation{}, err
	}
	return ImageLocation{Path: fullPath}, nil
}

// DeleteImage removes a stored photo, ignoring ones already gone
func (s *LocalImageService) DeleteImage(ctx context.Context, filename string) error {
	if filename == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.Base(filename)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

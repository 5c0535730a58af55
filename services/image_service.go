package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kendall-kelly/custom-orders-api/config"
)

const (
	// SignedURLTTL is how long a signed image link stays valid
	SignedURLTTL = 10 * time.Minute
	// SignedURLCacheTTL is how long a signed link is reused before signing again
	SignedURLCacheTTL = 5 * time.Minute
)

// UploadedImages are the storage keys written by one submission.
// On a failed upload it holds the keys stored before the failure.
type UploadedImages struct {
	SourcePath     string
	ReferencePaths []string
}

// Keys returns every stored key, primary first
func (u UploadedImages) Keys() []string {
	keys := make([]string, 0, len(u.ReferencePaths)+1)
	if u.SourcePath != "" {
		keys = append(keys, u.SourcePath)
	}
	return append(keys, u.ReferencePaths...)
}

// ImageService handles custom order image upload, signed access and cleanup
type ImageService interface {
	// UploadOrderImages stores the primary image and then each reference image in order.
	// Uploads are sequential and stop at the first failure.
	UploadOrderImages(ctx context.Context, ownerID string, requestID uuid.UUID, source *multipart.FileHeader, references []*multipart.FileHeader) (UploadedImages, error)

	// GetSignedURL returns a time-limited link for a stored image
	GetSignedURL(ctx context.Context, key string) (string, error)

	// DeleteImages removes images on a best-effort basis, logging failures
	DeleteImages(ctx context.Context, keys []string)
}

// S3ImageService implements ImageService using AWS S3 for storage
type S3ImageService struct {
	s3Service S3Interface
	cache     *SignedURLCache
}

var imageServiceInstance ImageService

// InitImageService initializes the image service with an S3 backend.
// cache may be nil to sign on every request.
func InitImageService(s3Service S3Interface, cache *SignedURLCache) ImageService {
	imageServiceInstance = NewS3ImageService(s3Service, cache)
	return imageServiceInstance
}

// NewS3ImageService creates an image service without registering it globally
func NewS3ImageService(s3Service S3Interface, cache *SignedURLCache) *S3ImageService {
	return &S3ImageService{
		s3Service: s3Service,
		cache:     cache,
	}
}

// GetImageService returns the initialized image service instance
func GetImageService() ImageService {
	return imageServiceInstance
}

// SetImageService sets the image service instance (primarily for testing)
func SetImageService(service ImageService) {
	imageServiceInstance = service
}

// SourceImageKey is the storage key of a submission's primary image
func SourceImageKey(ownerID string, requestID uuid.UUID, filename string) string {
	return fmt.Sprintf("%s/custom-orders/%s/source/%s", ownerID, requestID, safeFilename(filename))
}

// ReferenceImageKey is the storage key of a submission's index-th reference image
func ReferenceImageKey(ownerID string, requestID uuid.UUID, index int, filename string) string {
	return fmt.Sprintf("%s/custom-orders/%s/refs/%d_%s", ownerID, requestID, index, safeFilename(filename))
}

// safeFilename keeps only the base name of a client supplied filename
func safeFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == ".." {
		return "image"
	}
	return base
}

// UploadOrderImages uploads the primary image and then the references, one at a time
func (s *S3ImageService) UploadOrderImages(ctx context.Context, ownerID string, requestID uuid.UUID, source *multipart.FileHeader, references []*multipart.FileHeader) (UploadedImages, error) {
	logger := config.LoggerFromContext(ctx)
	var uploaded UploadedImages

	if source == nil {
		return uploaded, errors.New("source image is required")
	}

	sourceKey := SourceImageKey(ownerID, requestID, source.Filename)
	logger.Debug("uploading source image", "key", sourceKey, "content_type", source.Header.Get("Content-Type"), "size", source.Size)
	if err := s.s3Service.UploadFile(ctx, sourceKey, source); err != nil {
		return uploaded, fmt.Errorf("source image: %w", err)
	}
	uploaded.SourcePath = sourceKey

	for i, ref := range references {
		key := ReferenceImageKey(ownerID, requestID, i, ref.Filename)
		logger.Debug("uploading reference image", "key", key, "content_type", ref.Header.Get("Content-Type"), "size", ref.Size)
		if err := s.s3Service.UploadFile(ctx, key, ref); err != nil {
			return uploaded, fmt.Errorf("reference image %d: %w", i, err)
		}
		uploaded.ReferencePaths = append(uploaded.ReferencePaths, key)
	}

	return uploaded, nil
}

// GetSignedURL returns a presigned link valid for SignedURLTTL, reusing a cached one when fresh
func (s *S3ImageService) GetSignedURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", errors.New("empty image key")
	}

	if s.cache != nil {
		if url, ok := s.cache.Get(key); ok {
			return url, nil
		}
	}

	url, err := s.s3Service.GetPresignedURL(ctx, key, SignedURLTTL)
	if err != nil {
		return "", fmt.Errorf("failed to generate image URL: %w", err)
	}

	if s.cache != nil {
		s.cache.Set(key, url)
	}
	return url, nil
}

// DeleteImages deletes every key, continuing past failures
func (s *S3ImageService) DeleteImages(ctx context.Context, keys []string) {
	logger := config.LoggerFromContext(ctx)
	for _, key := range keys {
		if s.cache != nil {
			s.cache.Remove(key)
		}
		if err := s.s3Service.DeleteFile(ctx, key); err != nil {
			logger.Warn("failed to delete orphaned image", "key", key, "error", err)
			continue
		}
		logger.Info("deleted orphaned image", "key", key)
	}
}

// Package upload issues presigned upload URLs for user media and confirms
// finished uploads.
package upload

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/shared"
)

// ObjectStorage is implemented by the S3 and stub storage backends
type ObjectStorage interface {
	// GenerateUploadURL presigns a PUT of storageKey with contentType
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)

	// ObjectExists checks if an object exists in storage
	ObjectExists(ctx context.Context, storageKey string) (bool, error)

	// DeleteObject deletes an object from storage
	DeleteObject(ctx context.Context, storageKey string) error

	// PublicURL returns the URL clients use to fetch storageKey
	PublicURL(storageKey string) string

	// KeyFromURL reverses PublicURL
	KeyFromURL(rawURL string) (string, bool)
}

// Scope is the top-level key prefix of an upload
type Scope string

const (
	ScopeAvatar    Scope = "avatars"
	ScopeProduct   Scope = "products"
	ScopeThumbnail Scope = "thumbnails"
)

// AllowedImageTypes maps accepted content types to their canonical extension.
// SVG is not accepted since it can carry scripts.
var AllowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Ticket tells the client where and how to upload
type Ticket struct {
	Key         string    `json:"key"`
	UploadURL   string    `json:"upload_url"`
	Method      string    `json:"method"`
	ContentType string    `json:"content_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	PublicURL   string    `json:"public_url"`
	MaxSize     int64     `json:"max_size"`
}

// Service issues and confirms uploads
type Service struct {
	storage    ObjectStorage
	expiration time.Duration
	maxSize    int64
}

// NewService creates a new upload service
func NewService(storage ObjectStorage, expiration time.Duration, maxSize int64) *Service {
	if expiration <= 0 {
		expiration = 15 * time.Minute
	}
	if maxSize <= 0 {
		maxSize = 5 << 20
	}
	return &Service{storage: storage, expiration: expiration, maxSize: maxSize}
}

// CreateUpload returns a ticket for a new object under scope/ownerID/.
// The key extension always follows the content type, never the client file name.
func (s *Service) CreateUpload(ctx context.Context, scope Scope, ownerID uuid.UUID, contentType string) (*Ticket, error) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	ext, ok := AllowedImageTypes[contentType]
	if !ok {
		return nil, shared.NewDomainError("UNSUPPORTED_CONTENT_TYPE",
			"Only JPEG, PNG, WebP and GIF images can be uploaded")
	}

	key := fmt.Sprintf("%s/%s/%s%s", scope, ownerID, uuid.New(), ext)
	uploadURL, expiresAt, err := s.storage.GenerateUploadURL(ctx, key, contentType, s.expiration)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload url: %w", err)
	}

	return &Ticket{
		Key:         key,
		UploadURL:   uploadURL,
		Method:      "PUT",
		ContentType: contentType,
		ExpiresAt:   expiresAt,
		PublicURL:   s.storage.PublicURL(key),
		MaxSize:     s.maxSize,
	}, nil
}

// Confirm checks that key belongs to scope/ownerID and was uploaded, and
// returns its public URL
func (s *Service) Confirm(ctx context.Context, scope Scope, ownerID uuid.UUID, key string) (string, error) {
	key = strings.TrimSpace(key)
	prefix := fmt.Sprintf("%s/%s/", scope, ownerID)
	if !strings.HasPrefix(key, prefix) || strings.Contains(key, "..") || len(key) == len(prefix) {
		return "", shared.ErrInvalidInput.WithMessage("Upload key does not belong to this resource")
	}
	exists, err := s.storage.ObjectExists(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to check upload: %w", err)
	}
	if !exists {
		return "", shared.NewDomainError("UPLOAD_NOT_FOUND", "The file has not been uploaded yet")
	}
	return s.storage.PublicURL(key), nil
}

// Discard deletes the object behind a public URL issued by this service.
// URLs that do not point into the storage are ignored.
func (s *Service) Discard(ctx context.Context, publicURL string) error {
	key, ok := s.storage.KeyFromURL(publicURL)
	if !ok || key == "" {
		return nil
	}
	return s.storage.DeleteObject(ctx, key)
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/aws/smithy-go"
	"github.com/playhub/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testStorageConfig() *config.StorageConfig {
	return &config.StorageConfig{
		Bucket:            "playhub-media",
		AccessKey:         "test-key",
		SecretKey:         "test-secret",
		Region:            "us-east-1",
		Endpoint:          "http://localhost:9000",
		UsePathStyle:      true,
		PresignExpiration: 15 * time.Minute,
	}
}

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3ObjectStorage(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	tests := []struct {
		name    string
		mutate  func(*config.StorageConfig)
		wantErr string
	}{
		{"missing bucket", func(c *config.StorageConfig) { c.Bucket = "" }, "bucket is required"},
		{"missing access key", func(c *config.StorageConfig) { c.AccessKey = "" }, "access key is required"},
		{"missing secret key", func(c *config.StorageConfig) { c.SecretKey = "" }, "secret key is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testStorageConfig()
			tt.mutate(cfg)
			_, err := NewS3ObjectStorage(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("defaults", func(t *testing.T) {
		cfg := testStorageConfig()
		cfg.Endpoint = "localhost:9000"
		cfg.PresignExpiration = 0
		cfg.Region = ""
		s, err := NewS3ObjectStorage(cfg, WithLogger(zaptest.NewLogger(t)))
		require.NoError(t, err)
		assert.Equal(t, "playhub-media", s.bucket)
		assert.Equal(t, 15*time.Minute, s.presign)
		assert.Equal(t, "http://localhost:9000/playhub-media/avatars/a.png", s.PublicURL("avatars/a.png"))
	})

	t.Run("every missing credential is reported", func(t *testing.T) {
		cfg := testStorageConfig()
		cfg.AccessKey, cfg.SecretKey = "", ""
		_, err := NewS3ObjectStorage(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "access key")
		assert.Contains(t, err.Error(), "secret key")
	})
}

func TestResolveEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		ssl      bool
		want     string
		wantErr  bool
	}{
		{"", false, "http://localhost:9000", false},
		{"minio:9000", false, "http://minio:9000", false},
		{"r2.example.com", true, "https://r2.example.com", false},
		{"https://s3.amazonaws.com/", false, "https://s3.amazonaws.com", false},
		{"http://", false, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			got, err := resolveEndpoint(tt.endpoint, tt.ssl)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(&smithy.GenericAPIError{Code: "NotFound"}))
	assert.True(t, isNotFound(fmt.Errorf("head: %w", &smithy.GenericAPIError{Code: "NoSuchKey"})))
	assert.False(t, isNotFound(&smithy.GenericAPIError{Code: "AccessDenied"}))
	assert.False(t, isNotFound(errors.New("connection refused")))
}

func TestS3ObjectStorage_PublicURL(t *testing.T) {
	cfg := testStorageConfig()
	cfg.PublicBaseURL = "https://cdn.playhub.example/"
	s, err := NewS3ObjectStorage(cfg)
	require.NoError(t, err)

	u := s.PublicURL("/products/p1/img.webp")
	assert.Equal(t, "https://cdn.playhub.example/products/p1/img.webp", u)

	key, ok := s.KeyFromURL(u)
	require.True(t, ok)
	assert.Equal(t, "products/p1/img.webp", key)

	_, ok = s.KeyFromURL("https://elsewhere.example/x.png")
	assert.False(t, ok)
}

func TestS3ObjectStorage_GenerateUploadURL(t *testing.T) {
	s, err := NewS3ObjectStorage(testStorageConfig())
	require.NoError(t, err)

	t.Run("empty storage key returns error", func(t *testing.T) {
		url, _, err := s.GenerateUploadURL(context.Background(), "", "image/jpeg", 15*time.Minute)
		require.Error(t, err)
		assert.Empty(t, url)
	})

	t.Run("generates presigned URL", func(t *testing.T) {
		url, expiresAt, err := s.GenerateUploadURL(context.Background(), "avatars/u1/k.jpg", "image/jpeg", 0)
		require.NoError(t, err)
		assert.True(t, strings.Contains(url, "localhost:9000"))
		assert.True(t, strings.Contains(url, "playhub-media"))
		assert.True(t, strings.Contains(url, "X-Amz-Signature"))
		assert.True(t, expiresAt.After(time.Now()))
		assert.True(t, expiresAt.Before(time.Now().Add(16*time.Minute)))
	})
}

func TestS3ObjectStorage_KeyValidation(t *testing.T) {
	s, err := NewS3ObjectStorage(testStorageConfig())
	require.NoError(t, err)

	assert.Error(t, s.DeleteObject(context.Background(), ""))
	exists, err := s.ObjectExists(context.Background(), "")
	assert.Error(t, err)
	assert.False(t, exists)
}

// Package storage holds user media: avatars, product images and stream
// thumbnails. Clients upload straight to the bucket with presigned PUTs; the
// API only ever sees storage keys.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/playhub/backend/internal/application/upload"
	"github.com/playhub/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const (
	defaultEndpoint = "http://localhost:9000"
	defaultRegion   = "us-east-1"
	defaultPresign  = 15 * time.Minute
)

var errEmptyKey = errors.New("storage key is required")

// S3ObjectStorage is the upload.ObjectStorage backed by an S3-compatible
// bucket (AWS S3, MinIO, R2).
type S3ObjectStorage struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	publicURL string
	presign   time.Duration
	logger    *zap.Logger
}

type S3Option func(*S3ObjectStorage)

func WithLogger(logger *zap.Logger) S3Option {
	return func(s *S3ObjectStorage) { s.logger = logger.Named("storage") }
}

// NewS3ObjectStorage builds the client from cfg. No request is made; call
// EnsureBucket to verify the bucket at startup.
func NewS3ObjectStorage(cfg *config.StorageConfig, opts ...S3Option) (*S3ObjectStorage, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	var missing []error
	if cfg.Bucket == "" {
		missing = append(missing, errors.New("storage bucket is required"))
	}
	if cfg.AccessKey == "" {
		missing = append(missing, errors.New("storage access key is required"))
	}
	if cfg.SecretKey == "" {
		missing = append(missing, errors.New("storage secret key is required"))
	}
	if err := errors.Join(missing...); err != nil {
		return nil, err
	}

	endpoint, err := resolveEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = cfg.UsePathStyle
	})

	publicURL := strings.TrimRight(cfg.PublicBaseURL, "/")
	if publicURL == "" {
		publicURL = endpoint + "/" + cfg.Bucket
	}
	presign := cfg.PresignExpiration
	if presign <= 0 {
		presign = defaultPresign
	}

	s := &S3ObjectStorage{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		publicURL: publicURL,
		presign:   presign,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// resolveEndpoint adds a scheme to bare host:port endpoints
func resolveEndpoint(endpoint string, useSSL bool) (string, error) {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if !strings.Contains(endpoint, "://") {
		scheme := "http://"
		if useSSL {
			scheme = "https://"
		}
		endpoint = scheme + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid storage endpoint %q", endpoint)
	}
	return strings.TrimRight(endpoint, "/"), nil
}

// EnsureBucket creates the bucket when it is missing
func (s *S3ObjectStorage) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}

	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil && apiErrorCode(err) != "BucketAlreadyOwnedByYou" {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	s.logger.Info("Media bucket created", zap.String("bucket", s.bucket))
	return nil
}

// GenerateUploadURL presigns a PUT of storageKey. The signature covers the
// content type, so the client must send the same Content-Type header.
func (s *S3ObjectStorage) GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errEmptyKey
	}
	if expiresIn <= 0 {
		expiresIn = s.presign
	}

	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(storageKey),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(expiresIn))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to presign upload of %s: %w", storageKey, err)
	}
	return req.URL, time.Now().Add(expiresIn), nil
}

func (s *S3ObjectStorage) DeleteObject(ctx context.Context, storageKey string) error {
	if storageKey == "" {
		return errEmptyKey
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storageKey),
	}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", storageKey, err)
	}
	s.logger.Debug("Media object deleted", zap.String("key", storageKey))
	return nil
}

// ObjectExists reports whether the client finished uploading storageKey
func (s *S3ObjectStorage) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, errEmptyKey
	}
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storageKey),
	})
	switch {
	case err == nil:
		return true, nil
	case isNotFound(err):
		return false, nil
	default:
		return false, fmt.Errorf("failed to stat %s: %w", storageKey, err)
	}
}

func (s *S3ObjectStorage) PublicURL(storageKey string) string {
	return s.publicURL + "/" + strings.TrimLeft(storageKey, "/")
}

// KeyFromURL reverses PublicURL. ok is false for URLs outside the bucket.
func (s *S3ObjectStorage) KeyFromURL(rawURL string) (string, bool) {
	return strings.CutPrefix(rawURL, s.publicURL+"/")
}

// isNotFound matches missing buckets and keys. HEAD responses carry no body,
// so some providers only report the bare "NotFound" code.
func isNotFound(err error) bool {
	switch apiErrorCode(err) {
	case "NotFound", "NoSuchKey", "NoSuchBucket":
		return true
	}
	return false
}

func apiErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

var _ upload.ObjectStorage = (*S3ObjectStorage)(nil)

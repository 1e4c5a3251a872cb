package gcp

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/lyfeworks/toolkit-backend/internal/platform/logger"
)

type BucketCategory string

const (
	// BucketCategoryToolkit holds the purchased playbook PDF.
	BucketCategoryToolkit BucketCategory = "toolkit"
	// BucketCategoryGuide holds the free lead-magnet guide PDF.
	BucketCategoryGuide BucketCategory = "guide"
)

type bucketConfig struct {
	name      string
	cdnDomain string
}

type BucketService interface {
	UploadFile(ctx context.Context, category BucketCategory, key string, file io.Reader) error
	DownloadFile(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error)
	// SignedURL returns a time-limited capability URL for a private object.
	SignedURL(category BucketCategory, key string, ttl time.Duration) (string, error)
	GetPublicURL(category BucketCategory, key string) string
}

type bucketService struct {
	log           *logger.Logger
	storageClient *storage.Client
	toolkitBucket bucketConfig
	guideBucket   bucketConfig
}

func NewBucketService(log *logger.Logger) (BucketService, error) {
	serviceLog := log.With("service", "BucketService")

	toolkitBucketName := strings.TrimSpace(os.Getenv("TOOLKIT_GCS_BUCKET_NAME"))
	guideBucketName := strings.TrimSpace(os.Getenv("GUIDE_GCS_BUCKET_NAME"))
	if toolkitBucketName == "" {
		return nil, fmt.Errorf("missing env var TOOLKIT_GCS_BUCKET_NAME")
	}
	if guideBucketName == "" {
		return nil, fmt.Errorf("missing env var GUIDE_GCS_BUCKET_NAME")
	}

	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	if credsPath := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")); credsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credsPath))
	}

	ctx := context.Background()
	stClient, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	serviceLog.Info(
		"Object storage initialized",
		"toolkit_bucket", toolkitBucketName,
		"guide_bucket", guideBucketName,
	)

	return &bucketService{
		log:           serviceLog,
		storageClient: stClient,
		toolkitBucket: bucketConfig{
			name:      toolkitBucketName,
			cdnDomain: os.Getenv("TOOLKIT_CDN_DOMAIN"),
		},
		guideBucket: bucketConfig{
			name:      guideBucketName,
			cdnDomain: os.Getenv("GUIDE_CDN_DOMAIN"),
		},
	}, nil
}

func (bs *bucketService) getBucketConfig(category BucketCategory) (bucketConfig, error) {
	switch category {
	case BucketCategoryToolkit:
		return bs.toolkitBucket, nil
	case BucketCategoryGuide:
		return bs.guideBucket, nil
	default:
		return bucketConfig{}, fmt.Errorf("unknown bucket category: %s", category)
	}
}

func (bs *bucketService) UploadFile(ctx context.Context, category BucketCategory, key string, file io.Reader) error {
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := bs.storageClient.Bucket(cfg.name).Object(key).NewWriter(ctx)
	if ct := contentTypeForKey(key); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

func (bs *bucketService) DownloadFile(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error) {
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return nil, err
	}
	r, err := bs.storageClient.Bucket(cfg.name).Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open GCS object %q in bucket %q: %w", key, cfg.name, err)
	}
	return r, nil
}

func (bs *bucketService) SignedURL(category BucketCategory, key string, ttl time.Duration) (string, error) {
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return "", err
	}
	if ttl <= 0 {
		return "", fmt.Errorf("signed URL ttl must be positive")
	}
	u, err := bs.storageClient.Bucket(cfg.name).SignedURL(key, &storage.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(ttl),
		Scheme:  storage.SigningSchemeV4,
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign URL for %q in bucket %q: %w", key, cfg.name, err)
	}
	return u, nil
}

func (bs *bucketService) GetPublicURL(category BucketCategory, key string) string {
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return key
	}
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if cfg.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", cfg.cdnDomain, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", cfg.name, key)
}

func contentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	if s == "" {
		return ""
	}
	switch {
	case strings.HasSuffix(s, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(s, ".png"):
		return "image/png"
	case strings.HasSuffix(s, ".json"):
		return "application/json"
	default:
		return ""
	}
}

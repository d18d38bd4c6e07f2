package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hba-portal/membership-backend/shared/utils"
	"github.com/hba-portal/membership-backend/v1/models"
)

// uploadPrefix is the object key prefix for member-uploaded images
const uploadPrefix = "uploads/"

// StorageService manages uploaded images in S3-compatible object storage
type StorageService struct {
	client        *minio.Client
	bucket        string
	publicBaseURL string
	presignExpiry time.Duration
}

// NewStorageServiceFromEnv creates a storage service from S3_ENDPOINT,
// S3_ACCESS_KEY, S3_SECRET_KEY, S3_BUCKET, S3_USE_SSL and S3_PUBLIC_BASE_URL
func NewStorageServiceFromEnv() (*StorageService, error) {
	endpoint := utils.GetEnvOrDefault("S3_ENDPOINT", "")
	if endpoint == "" {
		return nil, fmt.Errorf("S3_ENDPOINT is required")
	}
	accessKey := utils.GetEnvOrDefault("S3_ACCESS_KEY", "")
	secretKey := utils.GetEnvOrDefault("S3_SECRET_KEY", "")
	bucket := utils.GetEnvOrDefault("S3_BUCKET", "")
	if bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required")
	}
	useSSL := utils.GetEnvOrDefault("S3_USE_SSL", "true") == "true"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}

	scheme := "https"
	if !useSSL {
		scheme = "http"
	}
	publicBaseURL := utils.GetEnvOrDefault("S3_PUBLIC_BASE_URL",
		fmt.Sprintf("%s://%s/%s", scheme, endpoint, bucket))

	return &StorageService{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		presignExpiry: time.Hour,
	}, nil
}

// PresignUpload generates a presigned PUT URL for a new upload plus the
// public URL the object will be served from. Keys are prefixed with a UUID
// so uploads never collide. A non-empty contentType is signed into the URL
// and must be sent by the uploader.
func (s *StorageService) PresignUpload(ctx context.Context, fileName, contentType string) (*models.PresignUploadResponse, error) {
	if fileName == "" {
		return nil, fmt.Errorf("file name is required")
	}

	key := uploadPrefix + uuid.New().String() + "_" + sanitizeFileName(fileName)

	var uploadURL *url.URL
	var err error
	if contentType != "" {
		headers := http.Header{"Content-Type": []string{contentType}}
		uploadURL, err = s.client.PresignHeader(ctx, http.MethodPut, s.bucket, key, s.presignExpiry, url.Values{}, headers)
	} else {
		uploadURL, err = s.client.PresignedPutObject(ctx, s.bucket, key, s.presignExpiry)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	return &models.PresignUploadResponse{
		UploadURL: uploadURL.String(),
		PublicURL: s.publicBaseURL + "/" + key,
		Key:       key,
	}, nil
}

// ListImages lists the public URLs of all uploaded images
func (s *StorageService) ListImages(ctx context.Context) ([]string, error) {
	var urls []string
	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    uploadPrefix,
		Recursive: true,
	})
	for obj := range objects {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list uploads: %w", obj.Err)
		}
		urls = append(urls, s.publicBaseURL+"/"+obj.Key)
	}
	return urls, nil
}

// Remove deletes the object behind a public URL
func (s *StorageService) Remove(ctx context.Context, publicURL string) error {
	key, err := s.objectKey(publicURL)
	if err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// objectKey extracts the object key from a public URL
func (s *StorageService) objectKey(publicURL string) (string, error) {
	if key := strings.TrimPrefix(publicURL, s.publicBaseURL+"/"); key != publicURL {
		return key, nil
	}

	// The URL was minted with a different base; fall back to path parsing
	parsed, err := url.Parse(publicURL)
	if err != nil {
		return "", fmt.Errorf("invalid object URL %q: %w", publicURL, err)
	}
	path := strings.TrimPrefix(parsed.Path, "/")
	path = strings.TrimPrefix(path, s.bucket+"/")
	if path == "" {
		return "", fmt.Errorf("object URL %q has no key", publicURL)
	}
	return path, nil
}

// sanitizeFileName keeps object keys to a safe character set
func sanitizeFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

package infra

import (
	"context"
	"fmt"
	"io"

	"github.com/baysideportal/media-gateway/config"
	"github.com/minio/madmin-go/v3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioClient struct {
	Admin    *madmin.AdminClient
	Client   *minio.Client
	Endpoint string
}

func InitMinioClient(cfg *config.EnvConfig) *MinioClient {
	endpoint := cfg.Minio.Endpoint
	if endpoint == "" {
		panic("MinIO endpoint is not configured")
	}

	rootUser := cfg.Minio.RootUser
	if rootUser == "" {
		panic("MinIO root user is not configured")
	}

	rootPassword := cfg.Minio.RootPassword
	if rootPassword == "" {
		panic("MinIO root password is not configured")
	}

	madminClient, err := madmin.New(endpoint, rootUser, rootPassword, false)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize MinIO admin client: %v", err))
	}

	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(rootUser, rootPassword, ""),
		Secure: false,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize MinIO client: %v", err))
	}

	return &MinioClient{
		Admin:    madminClient,
		Client:   minioClient,
		Endpoint: endpoint,
	}
}

// ObjectExists reports whether bucket/key holds an object. A missing bucket
// or key is a clean false, not an error.
func (m *MinioClient) ObjectExists(ctx context.Context, bucketName, key string) (bool, error) {
	_, err := m.Client.StatObject(ctx, bucketName, key, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" || resp.StatusCode == 404 {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object %s/%s: %w", bucketName, key, err)
	}
	return true, nil
}

// GetObject opens bucket/key for reading. The returned size and content type
// come from the object's stat so callers can set response headers before
// streaming.
func (m *MinioClient) GetObject(ctx context.Context, bucketName, key string) (io.ReadCloser, int64, string, error) {
	obj, err := m.Client.GetObject(ctx, bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, "", fmt.Errorf("failed to get object %s/%s: %w", bucketName, key, err)
	}

	// GetObject is lazy; Stat forces the first request so a missing object
	// surfaces here instead of mid-stream.
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, 0, "", fmt.Errorf("failed to stat object %s/%s: %w", bucketName, key, err)
	}

	return obj, info.Size, info.ContentType, nil
}

// PutObject uploads a file and returns its bucket-qualified URL.
func (m *MinioClient) PutObject(ctx context.Context, bucketName, key string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := m.Client.PutObject(ctx, bucketName, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object %s/%s: %w", bucketName, key, err)
	}
	return fmt.Sprintf("http://%s/%s/%s", m.Endpoint, bucketName, key), nil
}

// BucketExists checks if a bucket exists in MinIO
func (m *MinioClient) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	if bucketName == "" {
		return false, fmt.Errorf("bucketName cannot be empty")
	}

	exists, err := m.Client.BucketExists(ctx, bucketName)
	if err != nil {
		return false, fmt.Errorf("failed to check bucket existence: %w", err)
	}

	return exists, nil
}

// EnsureBucket creates a bucket if it doesn't exist
func (m *MinioClient) EnsureBucket(ctx context.Context, bucketName string) error {
	exists, err := m.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists: %w", err)
	}

	if !exists {
		err := m.Client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: "us-east-1"})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// ServerInfo returns the storage cluster status via the admin API.
func (m *MinioClient) ServerInfo(ctx context.Context) (madmin.InfoMessage, error) {
	info, err := m.Admin.ServerInfo(ctx)
	if err != nil {
		return madmin.InfoMessage{}, fmt.Errorf("failed to get MinIO server info: %w", err)
	}
	return info, nil
}

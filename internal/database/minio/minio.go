package minio

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"dataset-service/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioClient wraps the MinIO client with dataset service specific functionality
type MinioClient struct {
	client *minio.Client
	config config.MinioConfig
}

// Storage defines bucket names used by the dataset service
var Storage = struct {
	DatasetUploads string
}{
	DatasetUploads: "dataset-uploads",
}

// BucketNames contains all buckets the service needs at startup
var BucketNames = []string{
	Storage.DatasetUploads,
}

// NewMinioClient initializes a new MinIO client with the provided configuration
func NewMinioClient(cfg config.MinioConfig) (*MinioClient, error) {
	endpoint := strings.TrimPrefix(cfg.MinioURL, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	isSecure, err := strconv.ParseBool(cfg.MinioSecure)
	if err != nil {
		log.Printf("Invalid value for MinIO secure flag: %v. Defaulting to false.", err)
		isSecure = false
	}

	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: isSecure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err = minioClient.ListBuckets(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to MinIO server: %w", err)
	}

	mc := &MinioClient{
		client: minioClient,
		config: cfg,
	}

	if err := mc.ensureRequiredBuckets(); err != nil {
		return nil, fmt.Errorf("failed to ensure required buckets: %w", err)
	}

	log.Printf("MinIO client initialized, %d buckets ready", len(BucketNames))
	return mc, nil
}

func (mc *MinioClient) ensureRequiredBuckets() error {
	ctx := context.Background()

	for _, bucketName := range BucketNames {
		if err := mc.ensureBucket(ctx, bucketName); err != nil {
			return fmt.Errorf("failed to ensure bucket %s: %w", bucketName, err)
		}
	}
	return nil
}

// ensureBucket creates a bucket if it doesn't exist
func (mc *MinioClient) ensureBucket(ctx context.Context, bucketName string) error {
	exists, err := mc.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("error checking bucket existence: %w", err)
	}

	if !exists {
		err := mc.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{
			Region: mc.config.MinioLocation,
		})
		if err != nil {
			return fmt.Errorf("error creating bucket %s: %w", bucketName, err)
		}
		log.Printf("Bucket %s created", bucketName)
	}
	return nil
}

// UploadBytes stores raw byte content under the given object name.
func (mc *MinioClient) UploadBytes(ctx context.Context, bucketName, objectName string, data []byte, contentType string) error {
	reader := bytes.NewReader(data)
	_, err := mc.client.PutObject(ctx, bucketName, objectName, reader, int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", objectName, err)
	}
	return nil
}

// GetFile retrieves an archived object.
func (mc *MinioClient) GetFile(ctx context.Context, bucketName, objectName string) (*minio.Object, error) {
	obj, err := mc.client.GetObject(ctx, bucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", objectName, err)
	}
	return obj, nil
}

// RemoveObjectsWithPrefix deletes every object under the given prefix.
// Used when a dataset is destroyed to drop its archived uploads.
func (mc *MinioClient) RemoveObjectsWithPrefix(ctx context.Context, bucketName, prefix string) error {
	objectCh := mc.client.ListObjects(ctx, bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	for object := range objectCh {
		if object.Err != nil {
			return fmt.Errorf("failed to list objects with prefix %s: %w", prefix, object.Err)
		}
		if err := mc.client.RemoveObject(ctx, bucketName, object.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("failed to remove object %s: %w", object.Key, err)
		}
	}
	return nil
}

// GetClient returns the underlying MinIO client
func (mc *MinioClient) GetClient() *minio.Client {
	return mc.client
}

package export

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"trips-platform/internal/config"
	"trips-platform/pkg/logging"
)

// ObjectStore uploads run artifacts to an S3-compatible bucket
type ObjectStore struct {
	client *minio.Client
	bucket string
	logger *logging.StructuredLogger
}

// NewObjectStore creates an object store client from configuration
func NewObjectStore(cfg config.ObjectStoreConfig, logger *logging.StructuredLogger) (*ObjectStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	return &ObjectStore{
		client: client,
		bucket: cfg.Bucket,
		logger: logger,
	}, nil
}

// EnsureBucket creates the artifact bucket if it does not exist
func (o *ObjectStore) EnsureBucket(ctx context.Context) error {
	exists, err := o.client.BucketExists(ctx, o.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}

	if err := o.client.MakeBucket(ctx, o.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	o.logger.Info(ctx, "[EXPORT_BUCKET] Created artifact bucket", logging.Fields{
		"bucket": o.bucket,
	})

	return nil
}

// UploadFile uploads one local artifact under the given object key
func (o *ObjectStore) UploadFile(ctx context.Context, localPath, key, contentType string) error {
	_, err := o.client.FPutObject(ctx, o.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", filepath.Base(localPath), err)
	}

	o.logger.Debug(ctx, "[EXPORT_UPLOAD] Artifact uploaded", logging.Fields{
		"bucket": o.bucket,
		"key":    key,
	})

	return nil
}

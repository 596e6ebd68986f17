// Package storage provides S3-compatible object storage for email attachments.
//
// Attachment payloads are stored as individual objects keyed by an opaque
// identifier; the email record in the database carries the reference. Writes
// are acknowledged only after the store confirms completion, so a record can
// never reference a truncated blob. Deletes are idempotent: removing a
// missing object, or clearing an already-empty bucket, is a success.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/tebohomanyeli/Timeline-App-Fullstack/consts"
	"github.com/tebohomanyeli/Timeline-App-Fullstack/logger"
	"github.com/tebohomanyeli/Timeline-App-Fullstack/pkg/metrics"
)

type S3Storage struct {
	Client     *minio.Client
	BucketName string
}

func New(endpoint, accessKeyID, secretAccessKey, bucketName string, useSSL bool, debug bool) (*S3Storage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		logger.Error("STORAGE: Failed to initialize MinIO client", "error", err)
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	// Enable detailed tracing of requests and responses for debugging
	if debug {
		client.TraceOn(os.Stdout)
	}

	return &S3Storage{
		Client:     client,
		BucketName: bucketName,
	}, nil
}

// EnsureBucket creates the attachment bucket if it does not exist yet.
func (s *S3Storage) EnsureBucket(ctx context.Context) error {
	exists, err := s.Client.BucketExists(ctx, s.BucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.BucketName, err)
	}
	if exists {
		return nil
	}
	if err := s.Client.MakeBucket(ctx, s.BucketName, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.BucketName, err)
	}
	logger.Info("STORAGE: Created bucket", "bucket", s.BucketName)
	return nil
}

// Exists checks if an object with the given key exists in the bucket.
func (s *S3Storage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.Client.StatObject(ctx, s.BucketName, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}

	var minioErr minio.ErrorResponse
	if errors.As(err, &minioErr) && minioErr.StatusCode == 404 {
		return false, nil
	}

	return false, fmt.Errorf("failed to stat object %s: %w", key, err)
}

// Put uploads one attachment payload under the given key. It returns only
// after the store has acknowledged the complete write.
func (s *S3Storage) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	start := time.Now()

	_, err := s.Client.PutObject(ctx, s.BucketName, key, body, size, minio.PutObjectOptions{
		ContentType:    contentType,
		SendContentMd5: true,
	})
	if err != nil {
		metrics.S3OperationsTotal.WithLabelValues("PUT", "error").Inc()
	} else {
		metrics.S3OperationsTotal.WithLabelValues("PUT", "success").Inc()
	}
	metrics.S3OperationDuration.WithLabelValues("PUT").Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("%w: %s: %v", consts.ErrS3UploadFailed, key, err)
	}
	return nil
}

// Get returns the content type and a stream for the object under key.
// A missing key yields consts.ErrAttachmentNotFound.
func (s *S3Storage) Get(ctx context.Context, key string) (string, io.ReadCloser, error) {
	start := time.Now()

	// StatObject first: GetObject defers errors until the first read, and the
	// read path needs not-found reported up front.
	info, err := s.Client.StatObject(ctx, s.BucketName, key, minio.StatObjectOptions{})
	if err != nil {
		metrics.S3OperationsTotal.WithLabelValues("GET", "error").Inc()
		metrics.S3OperationDuration.WithLabelValues("GET").Observe(time.Since(start).Seconds())
		var minioErr minio.ErrorResponse
		if errors.As(err, &minioErr) && minioErr.StatusCode == 404 {
			return "", nil, consts.ErrAttachmentNotFound
		}
		return "", nil, fmt.Errorf("failed to stat object %s: %w", key, err)
	}

	object, err := s.Client.GetObject(ctx, s.BucketName, key, minio.GetObjectOptions{})
	if err != nil {
		metrics.S3OperationsTotal.WithLabelValues("GET", "error").Inc()
		metrics.S3OperationDuration.WithLabelValues("GET").Observe(time.Since(start).Seconds())
		return "", nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}

	metrics.S3OperationsTotal.WithLabelValues("GET", "success").Inc()
	metrics.S3OperationDuration.WithLabelValues("GET").Observe(time.Since(start).Seconds())
	return info.ContentType, object, nil
}

// Delete removes one object. Deleting a missing object is a success.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	start := time.Now()

	exists, err := s.Exists(ctx, key)
	if err != nil {
		logger.Error("STORAGE: Error checking existence of object", "key", key, "error", err)
		metrics.S3OperationsTotal.WithLabelValues("DELETE", "error").Inc()
		metrics.S3OperationDuration.WithLabelValues("DELETE").Observe(time.Since(start).Seconds())
		return err
	}
	if !exists {
		logger.Info("STORAGE: Object does not exist - skipping deletion", "key", key)
		metrics.S3OperationsTotal.WithLabelValues("DELETE", "skipped").Inc()
		metrics.S3OperationDuration.WithLabelValues("DELETE").Observe(time.Since(start).Seconds())
		return nil
	}

	err = s.Client.RemoveObject(ctx, s.BucketName, key, minio.RemoveObjectOptions{})
	if err != nil {
		metrics.S3OperationsTotal.WithLabelValues("DELETE", "error").Inc()
	} else {
		metrics.S3OperationsTotal.WithLabelValues("DELETE", "success").Inc()
	}
	metrics.S3OperationDuration.WithLabelValues("DELETE").Observe(time.Since(start).Seconds())
	return err
}

// DeleteAll removes every object in the bucket. An absent or already-empty
// bucket is treated as success, which makes the ingestion reset idempotent.
func (s *S3Storage) DeleteAll(ctx context.Context) error {
	exists, err := s.Client.BucketExists(ctx, s.BucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.BucketName, err)
	}
	if !exists {
		logger.Info("STORAGE: Bucket does not exist - nothing to clear", "bucket", s.BucketName)
		return nil
	}

	start := time.Now()
	removed := 0

	for object := range s.Client.ListObjects(ctx, s.BucketName, minio.ListObjectsOptions{Recursive: true}) {
		if object.Err != nil {
			metrics.S3OperationsTotal.WithLabelValues("DELETE_ALL", "error").Inc()
			return fmt.Errorf("failed to list objects in %s: %w", s.BucketName, object.Err)
		}
		if err := s.Client.RemoveObject(ctx, s.BucketName, object.Key, minio.RemoveObjectOptions{}); err != nil {
			metrics.S3OperationsTotal.WithLabelValues("DELETE_ALL", "error").Inc()
			return fmt.Errorf("failed to remove object %s: %w", object.Key, err)
		}
		removed++
	}

	metrics.S3OperationsTotal.WithLabelValues("DELETE_ALL", "success").Inc()
	metrics.S3OperationDuration.WithLabelValues("DELETE_ALL").Observe(time.Since(start).Seconds())
	logger.Info("STORAGE: Cleared bucket", "bucket", s.BucketName, "objects", removed)
	return nil
}

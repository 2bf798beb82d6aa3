// Package storage provides the blob-store adapter for listing images,
// backed by a MinIO / S3-compatible endpoint. The relational store remains
// the source of truth; objects here are addressed by the keys recorded in
// listing image rows and orphaned objects are acceptable garbage.
package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"
)

// Options configures the MinIO client and target bucket.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Store uploads and removes listing image blobs. It is safe for concurrent
// use; the underlying MinIO client maintains its own connection pool.
type Store struct {
	client *minio.Client
	bucket string
}

// New connects to the blob endpoint and ensures the bucket exists.
func New(ctx context.Context, opts Options) (*Store, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client for %s: %w", opts.Endpoint, err)
	}

	if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
		exists, existsErr := client.BucketExists(ctx, opts.Bucket)
		if existsErr != nil || !exists {
			return nil, fmt.Errorf("make/verify bucket %s: %w", opts.Bucket, err)
		}
	}

	return &Store{client: client, bucket: opts.Bucket}, nil
}

// Upload stores data under key and returns the public URL of the object.
func (s *Store) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("upload object %s to bucket %s: %w", key, s.bucket, err)
	}
	return fmt.Sprintf("%s/%s/%s", s.client.EndpointURL().String(), s.bucket, key), nil
}

// Remove deletes the object under key. Failures are logged and returned;
// callers treat removal as best-effort.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		log.Warn().Err(err).Str("bucket", s.bucket).Str("key", key).Msg("blob removal failed")
		return err
	}
	return nil
}

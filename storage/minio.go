// Package storage persists trained-model artifacts in a MinIO bucket. The
// derived save path of a training future doubles as the object prefix, so
// downstream loaders only need the path captured at construction time.
package storage

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/trainops/trainerd/config"
)

// ArtifactStore wraps a MinIO client with model-directory upload/download.
type ArtifactStore struct {
	client *minio.Client
	bucket string
}

// New creates an artifact store from the storage configuration.
func New(cfg config.StorageConfig) (*ArtifactStore, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("storage config is missing required fields (endpoint, accessKey, secretKey)")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage config is missing a bucket")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	log.Printf("Artifact store initialized (endpoint: %s, bucket: %s)", cfg.Endpoint, cfg.Bucket)
	return &ArtifactStore{client: client, bucket: cfg.Bucket}, nil
}

// EnsureBucket creates the configured bucket if it doesn't exist.
func (s *ArtifactStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists: %w", err)
	}
	if !exists {
		log.Printf("Creating bucket: %s", s.bucket)
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

// UploadDir uploads every file under localDir to the given object prefix.
func (s *ArtifactStore) UploadDir(ctx context.Context, localDir, prefix string) error {
	if err := s.EnsureBucket(ctx); err != nil {
		return err
	}

	prefix = normalizePrefix(prefix)
	return filepath.Walk(localDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(localDir, path)
		if err != nil {
			return err
		}
		object := prefix + "/" + filepath.ToSlash(rel)

		if _, err := s.client.FPutObject(ctx, s.bucket, object, path, minio.PutObjectOptions{}); err != nil {
			return fmt.Errorf("failed to upload %s: %w", object, err)
		}
		return nil
	})
}

// DownloadDir downloads every object under the given prefix into localDir,
// preserving the relative layout.
func (s *ArtifactStore) DownloadDir(ctx context.Context, prefix, localDir string) error {
	prefix = normalizePrefix(prefix)

	found := false
	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix + "/",
		Recursive: true,
	}) {
		if object.Err != nil {
			return fmt.Errorf("failed to list objects under %s: %w", prefix, object.Err)
		}
		found = true

		rel := strings.TrimPrefix(object.Key, prefix+"/")
		dest := filepath.Join(localDir, filepath.FromSlash(rel))
		if err := s.client.FGetObject(ctx, s.bucket, object.Key, dest, minio.GetObjectOptions{}); err != nil {
			return fmt.Errorf("failed to download %s: %w", object.Key, err)
		}
	}

	if !found {
		return fmt.Errorf("no artifact found under prefix %s", prefix)
	}
	log.Printf("Downloaded artifact %s to %s", prefix, localDir)
	return nil
}

// Exists reports whether any object lives under the given prefix.
func (s *ArtifactStore) Exists(ctx context.Context, prefix string) (bool, error) {
	prefix = normalizePrefix(prefix)

	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:  prefix + "/",
		MaxKeys: 1,
	}) {
		if object.Err != nil {
			return false, object.Err
		}
		return true, nil
	}
	return false, nil
}

// Save paths are filesystem-style and may be absolute; object keys are not.
func normalizePrefix(prefix string) string {
	return strings.Trim(filepath.ToSlash(prefix), "/")
}

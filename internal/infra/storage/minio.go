package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bryanwahyu/quantum-vault/internal/domain/vulns"
)

// maxCatalogSize bounds how much of a catalog object is read into memory.
const maxCatalogSize = 8 << 20

// Store reads catalog documents from a MinIO / S3 bucket.
type Store struct {
	client     *minio.Client
	bucketName string
}

// New buat koneksi MinIO. The bucket must already exist; this service only reads.
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	s := &Store{client: cli, bucketName: bucket}
	if err := s.Check(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Check implements the health checker: the bucket must be reachable.
func (s *Store) Check(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", s.bucketName)
	}
	return nil
}

// Fetch downloads one object.
func (s *Store) Fetch(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	data, err := io.ReadAll(io.LimitReader(obj, maxCatalogSize+1))
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("object %s/%s: %w", s.bucketName, key, vulns.ErrNotFound)
		}
		return nil, err
	}
	if len(data) > maxCatalogSize {
		return nil, fmt.Errorf("object %s/%s exceeds %d bytes", s.bucketName, key, maxCatalogSize)
	}
	return data, nil
}

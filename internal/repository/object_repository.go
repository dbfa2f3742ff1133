package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/andresuchdata/tshirt-stock/internal/domain"
)

var errObjectNotFound = errors.New("object not found")

// ObjectConfig encapsulates the connection info for S3-compatible storage.
type ObjectConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Key       string
	UseSSL    bool
}

type objectStore interface {
	get(ctx context.Context, key string) ([]byte, error)
	put(ctx context.Context, key string, data []byte) error
}

// ObjectRepository keeps the collection as one object in an S3-compatible
// bucket. Every Save uploads the full document.
type ObjectRepository struct {
	store objectStore
	key   string
}

// NewObjectRepository builds an ObjectRepository backed by a minio client.
func NewObjectRepository(cfg ObjectConfig) (*ObjectRepository, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint must be provided")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("s3 credentials must be provided")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket must be provided")
	}

	endpoint, secure := splitEndpoint(cfg.Endpoint, cfg.UseSSL)
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}

	key := cfg.Key
	if key == "" {
		key = "inventory_db.json"
	}
	return &ObjectRepository{
		store: &minioStore{client: client, bucket: cfg.Bucket},
		key:   key,
	}, nil
}

// splitEndpoint strips an http(s) scheme, which minio expects as a flag
// rather than part of the host.
func splitEndpoint(endpoint string, useSSL bool) (string, bool) {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return strings.TrimPrefix(endpoint, "https://"), true
	case strings.HasPrefix(endpoint, "http://"):
		return strings.TrimPrefix(endpoint, "http://"), false
	}
	return strings.TrimRight(strings.TrimPrefix(endpoint, "//"), "/"), useSSL
}

func (r *ObjectRepository) Load(ctx context.Context) (domain.Collection, error) {
	data, err := r.store.get(ctx, r.key)
	if errors.Is(err, errObjectNotFound) {
		return domain.Collection{}, nil
	}
	if err != nil {
		return nil, err
	}

	c, err := decodeCollection(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.key, err)
	}
	return c, nil
}

func (r *ObjectRepository) Save(ctx context.Context, c domain.Collection) error {
	data, err := encodeCollection(c)
	if err != nil {
		return err
	}
	return r.store.put(ctx, r.key, data)
}

var _ SnapshotRepository = (*ObjectRepository)(nil)

type minioStore struct {
	client *minio.Client
	bucket string
}

func (s *minioStore) get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.wrap("get", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.wrap("read", key, err)
	}
	return data, nil
}

func (s *minioStore) put(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json; charset=utf-8",
	})
	if err != nil {
		return s.wrap("put", key, err)
	}
	return nil
}

func (s *minioStore) wrap(op, key string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("s3 %s %s/%s: %w", op, s.bucket, key, errObjectNotFound)
	}
	return fmt.Errorf("s3 %s %s/%s failed: %w", op, s.bucket, key, err)
}

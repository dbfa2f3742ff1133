package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/tshirt-stock/internal/config"
	"github.com/andresuchdata/tshirt-stock/internal/domain"
)

// ErrCorruptStore means the persisted document exists but cannot be read
// back as a valid collection.
var ErrCorruptStore = errors.New("inventory store is corrupt")

// SnapshotRepository persists the whole collection as one document.
type SnapshotRepository interface {
	// Load returns the stored collection, or an empty one when nothing has
	// been saved yet.
	Load(ctx context.Context) (domain.Collection, error)
	// Save overwrites the stored document with c.
	Save(ctx context.Context, c domain.Collection) error
}

// New builds the repository selected by cfg.Backend.
func New(cfg config.StorageConfig) (SnapshotRepository, error) {
	switch cfg.Backend {
	case "", config.StorageBackendFile:
		return NewFileRepository(cfg.DataFile), nil
	case config.StorageBackendS3:
		return NewObjectRepository(ObjectConfig{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Key:       cfg.S3.Key,
			UseSSL:    cfg.S3.UseSSL,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// StoreID names the document cfg points at: the absolute data-file path,
// or the S3 endpoint, bucket and key.
func StoreID(cfg config.StorageConfig) string {
	if cfg.Backend == config.StorageBackendS3 {
		endpoint := strings.TrimSuffix(cfg.S3.Endpoint, "/")
		return "s3:" + endpoint + "/" + cfg.S3.Bucket + "/" + cfg.S3.Key
	}
	path := cfg.DataFile
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return "file:" + path
}

func encodeCollection(c domain.Collection) ([]byte, error) {
	if c == nil {
		c = domain.Collection{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c.Sorted()); err != nil {
		return nil, fmt.Errorf("encode inventory records: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeCollection(data []byte) (domain.Collection, error) {
	var c domain.Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}
	if c == nil {
		c = domain.Collection{}
	}
	return c.Sorted(), nil
}

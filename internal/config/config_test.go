package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	t.Setenv("INVENTORY_DATA_FILE", "")
	t.Setenv("STORAGE_BACKEND", "")

	cfg := FromViper(viper.New())

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, StorageBackendFile, cfg.Storage.Backend)
	assert.Equal(t, 9, cfg.Import.HeaderScanRows)
	assert.Equal(t, 2, cfg.Import.LabelColumn)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestFromViperEnvironment(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", " S3 ")
	t.Setenv("INVENTORY_DATA_FILE", "/var/lib/stock/db.json")
	t.Setenv("S3_BUCKET", "stock")
	t.Setenv("IMPORT_HEADER_SCAN_ROWS", "12")
	t.Setenv("CACHE_ENABLED", "true")

	cfg := FromViper(viper.New())

	assert.Equal(t, StorageBackendS3, cfg.Storage.Backend)
	assert.Equal(t, "/var/lib/stock/db.json", cfg.Storage.DataFile)
	assert.Equal(t, "stock", cfg.Storage.S3.Bucket)
	assert.Equal(t, 12, cfg.Import.HeaderScanRows)
	assert.True(t, cfg.Cache.Enabled)
}

package config

import (
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorageBackendFile = "file"
	StorageBackendS3   = "s3"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Import  ImportConfig
	Cache   CacheConfig
	Drive   DriveConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type StorageConfig struct {
	Backend  string
	DataFile string
	S3       S3Config
}

type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Key       string
	UseSSL    bool
}

type ImportConfig struct {
	HeaderScanRows int
	LabelColumn    int
	MaxUploadMB    int
}

type CacheConfig struct {
	Enabled           bool
	RedisURL          string
	RedisHost         string
	RedisPort         string
	RedisPassword     string
	RedisDB           int
	HistoryTTLSeconds int
}

type LogConfig struct {
	Level  string
	Format string
}

type DriveConfig struct {
	CredentialsJSON string
	FolderID        string
}

var (
	once     sync.Once
	instance *Config
)

// Load reads .env and the process environment once and returns the shared
// configuration.
func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()
		instance = FromViper(viper.GetViper())
	})

	return instance
}

// FromViper applies defaults to v, binds the environment and builds a Config.
func FromViper(v *viper.Viper) *Config {
	setDefaults(v)
	v.AutomaticEnv()

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Storage: StorageConfig{
			Backend:  strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_BACKEND"))),
			DataFile: v.GetString("INVENTORY_DATA_FILE"),
			S3: S3Config{
				Endpoint:  v.GetString("S3_ENDPOINT"),
				AccessKey: v.GetString("S3_ACCESS_KEY"),
				SecretKey: v.GetString("S3_SECRET_KEY"),
				Bucket:    v.GetString("S3_BUCKET"),
				Region:    v.GetString("S3_REGION"),
				Key:       v.GetString("S3_OBJECT_KEY"),
				UseSSL:    v.GetBool("S3_USE_SSL"),
			},
		},
		Import: ImportConfig{
			HeaderScanRows: v.GetInt("IMPORT_HEADER_SCAN_ROWS"),
			LabelColumn:    v.GetInt("IMPORT_LABEL_COLUMN"),
			MaxUploadMB:    v.GetInt("IMPORT_MAX_UPLOAD_MB"),
		},
		Cache: CacheConfig{
			Enabled:           v.GetBool("CACHE_ENABLED"),
			RedisURL:          v.GetString("REDIS_URL"),
			RedisHost:         v.GetString("REDIS_HOST"),
			RedisPort:         v.GetString("REDIS_PORT"),
			RedisPassword:     v.GetString("REDIS_PASSWORD"),
			RedisDB:           v.GetInt("REDIS_DB"),
			HistoryTTLSeconds: v.GetInt("CACHE_HISTORY_TTL_SECONDS"),
		},
		Drive: DriveConfig{
			CredentialsJSON: v.GetString("GOOGLE_DRIVE_CREDENTIALS_JSON"),
			FolderID:        v.GetString("GOOGLE_DRIVE_FOLDER_ID"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 30)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("STORAGE_BACKEND", StorageBackendFile)
	v.SetDefault("INVENTORY_DATA_FILE", "inventory_db.json")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_OBJECT_KEY", "inventory_db.json")
	v.SetDefault("S3_USE_SSL", true)
	v.SetDefault("IMPORT_HEADER_SCAN_ROWS", 9)
	v.SetDefault("IMPORT_LABEL_COLUMN", 2)
	v.SetDefault("IMPORT_MAX_UPLOAD_MB", 32)
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_HISTORY_TTL_SECONDS", 300)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
}

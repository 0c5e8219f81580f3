package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"

	StorageDriverLocal = "local"
	StorageDriverMinIO = "minio"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Directory DirectoryConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Session   SessionConfig
	CORS      CORSConfig
	Log       LogConfig
	Cache     CacheConfig
	Drives    DrivesConfig
	Roster    RosterConfig
	Audit     AuditConfig
	Reports   ReportsConfig
	MinIO     MinIOConfig
}

// DirectoryConfig points at the remote directory service that owns students, drives and records.
type DirectoryConfig struct {
	BaseURL string
	Timeout time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// SessionConfig selects where console sessions (token + roster) live.
type SessionConfig struct {
	Store string
	TTL   time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig governs Redis caching for reference lists and dashboard payloads.
type CacheConfig struct {
	Enabled      bool
	ReferenceTTL time.Duration
	DashboardTTL time.Duration
}

// DrivesConfig tunes the upcoming-drive window and the status vocabulary.
type DrivesConfig struct {
	HorizonDays    int
	StatusLabels   map[string]string
	StatusFile     string
	DefaultBatchID string
}

// RosterConfig bounds roster file uploads.
type RosterConfig struct {
	MaxUploadBytes int64
}

// AuditConfig toggles the PostgreSQL audit trail.
type AuditConfig struct {
	Enabled bool
}

// ReportsConfig configures report exports.
type ReportsConfig struct {
	StorageDriver     string
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	WorkerConcurrency int
	WorkerRetries     int
	PublicURL         string
}

// MinIOConfig configures the object store used when REPORTS_STORAGE_DRIVER=minio.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Directory = DirectoryConfig{
		BaseURL: strings.TrimRight(v.GetString("DIRECTORY_BASE_URL"), "/"),
		Timeout: parseDuration(v.GetString("DIRECTORY_TIMEOUT"), 0),
	}

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 12*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.Session = SessionConfig{
		Store: strings.ToLower(v.GetString("SESSION_STORE")),
		TTL:   parseDuration(v.GetString("SESSION_TTL"), 12*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled:      v.GetBool("ENABLE_CACHE"),
		ReferenceTTL: parseDuration(v.GetString("REFERENCE_CACHE_TTL"), 10*time.Minute),
		DashboardTTL: parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), time.Minute),
	}

	horizon := v.GetInt("DRIVE_HORIZON_DAYS")
	if horizon <= 0 {
		horizon = 30
	}
	labels, err := ParseStatusLabels(v.GetString("DRIVE_STATUS_LABELS"))
	if err != nil {
		return nil, err
	}
	cfg.Drives = DrivesConfig{
		HorizonDays:    horizon,
		StatusLabels:   labels,
		StatusFile:     v.GetString("DRIVE_STATUS_FILE"),
		DefaultBatchID: v.GetString("DEFAULT_BATCH_ID"),
	}
	if cfg.Drives.StatusFile != "" {
		fromFile, err := LoadStatusLabels(cfg.Drives.StatusFile)
		if err != nil {
			return nil, err
		}
		cfg.Drives.StatusLabels = fromFile
	}

	maxUpload := v.GetInt64("ROSTER_MAX_UPLOAD_SIZE")
	if maxUpload <= 0 {
		maxUpload = 5 * 1024 * 1024
	}
	cfg.Roster = RosterConfig{MaxUploadBytes: maxUpload}

	cfg.Audit = AuditConfig{Enabled: v.GetBool("ENABLE_AUDIT")}

	cfg.Reports = ReportsConfig{
		StorageDriver:     strings.ToLower(v.GetString("REPORTS_STORAGE_DRIVER")),
		StorageDir:        v.GetString("REPORTS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("REPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("REPORTS_SIGNED_URL_TTL"), time.Hour),
		WorkerConcurrency: v.GetInt("REPORTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("REPORTS_WORKER_RETRIES"),
		PublicURL:         strings.TrimRight(v.GetString("REPORTS_PUBLIC_URL"), "/"),
	}

	cfg.MinIO = MinIOConfig{
		Endpoint:  v.GetString("MINIO_ENDPOINT"),
		AccessKey: v.GetString("MINIO_ACCESS_KEY"),
		SecretKey: v.GetString("MINIO_SECRET_KEY"),
		Bucket:    v.GetString("MINIO_BUCKET"),
		UseSSL:    v.GetBool("MINIO_USE_SSL"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DIRECTORY_BASE_URL", "http://localhost:3000")
	v.SetDefault("DIRECTORY_TIMEOUT", "")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "vaxdrive_console")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 5)
	v.SetDefault("DB_MAX_IDLE_CONNS", 2)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "12h")
	v.SetDefault("JWT_ISSUER", "vaxdrive-console")

	v.SetDefault("SESSION_STORE", SessionStoreMemory)
	v.SetDefault("SESSION_TTL", "12h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("REFERENCE_CACHE_TTL", "10m")
	v.SetDefault("DASHBOARD_CACHE_TTL", "1m")

	v.SetDefault("DRIVE_HORIZON_DAYS", 30)
	v.SetDefault("DRIVE_STATUS_LABELS", "upcoming:Upcoming,completed:Completed,ongoing:Ongoing,cancelled:Cancelled")
	v.SetDefault("DRIVE_STATUS_FILE", "")
	v.SetDefault("DEFAULT_BATCH_ID", "batch001")

	v.SetDefault("ROSTER_MAX_UPLOAD_SIZE", 5*1024*1024)

	v.SetDefault("ENABLE_AUDIT", false)

	v.SetDefault("REPORTS_STORAGE_DRIVER", StorageDriverLocal)
	v.SetDefault("REPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("REPORTS_SIGNED_URL_SECRET", "dev_reports_secret")
	v.SetDefault("REPORTS_SIGNED_URL_TTL", "1h")
	v.SetDefault("REPORTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("REPORTS_WORKER_RETRIES", 2)
	v.SetDefault("REPORTS_PUBLIC_URL", "http://localhost:8080")

	v.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	v.SetDefault("MINIO_ACCESS_KEY", "minioadmin")
	v.SetDefault("MINIO_SECRET_KEY", "minioadmin")
	v.SetDefault("MINIO_BUCKET", "vaxdrive-exports")
	v.SetDefault("MINIO_USE_SSL", false)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

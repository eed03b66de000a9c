package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Imports  ImportsConfig
	Metrics  MetricsConfig
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
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	Timeout  time.Duration
}

type JWTConfig struct {
	Secret         string
	Issuer         string
	Audience       []string
	AccessTokenTTL time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
	MaxAge         time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// ImportsConfig tunes spreadsheet uploads and the problem-row reports.
type ImportsConfig struct {
	MaxFileSizeBytes      int64
	DefaultClassCapacity  int
	LoginNameMaxLength    int
	StatsCacheTTL         time.Duration
	ReportsEnabled        bool
	ReportsStorageDir     string
	ReportsSignedURLKey   string
	ReportsSignedURLTTL   time.Duration
	ReportsCleanupOlderBy time.Duration
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
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
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		Timeout:  parseDuration(v.GetString("REDIS_TIMEOUT"), 2*time.Second),
	}

	cfg.JWT = JWTConfig{
		Secret:   v.GetString("JWT_SECRET"),
		Issuer:   v.GetString("JWT_ISSUER"),
		Audience: splitAndTrim(v.GetString("JWT_AUDIENCE")),

		AccessTokenTTL: parseDuration(v.GetString("JWT_ACCESS_TOKEN_TTL"), 15*time.Minute),
	}

	cfg.CORS = CORSConfig{
		AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS")),
		MaxAge:         parseDuration(v.GetString("CORS_MAX_AGE"), 10*time.Minute),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	maxFileSize := v.GetInt64("IMPORT_MAX_FILE_SIZE")
	if maxFileSize <= 0 {
		maxFileSize = 10 * 1024 * 1024
	}
	cfg.Imports = ImportsConfig{
		MaxFileSizeBytes:      maxFileSize,
		DefaultClassCapacity:  v.GetInt("IMPORT_DEFAULT_CLASS_CAPACITY"),
		LoginNameMaxLength:    v.GetInt("IMPORT_LOGIN_NAME_MAX_LENGTH"),
		StatsCacheTTL:         parseDuration(v.GetString("IMPORT_STATS_CACHE_TTL"), time.Minute),
		ReportsEnabled:        v.GetBool("ENABLE_IMPORT_REPORTS"),
		ReportsStorageDir:     v.GetString("IMPORT_REPORTS_STORAGE_DIR"),
		ReportsSignedURLKey:   v.GetString("IMPORT_REPORTS_SIGNED_URL_SECRET"),
		ReportsSignedURLTTL:   parseDuration(v.GetString("IMPORT_REPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		ReportsCleanupOlderBy: parseDuration(v.GetString("IMPORT_REPORTS_RETENTION"), 72*time.Hour),
	}

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "school")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_TIMEOUT", "2s")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")
	v.SetDefault("JWT_AUDIENCE", "")
	v.SetDefault("JWT_ACCESS_TOKEN_TTL", "15m")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("CORS_MAX_AGE", "10m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("IMPORT_MAX_FILE_SIZE", 10*1024*1024)
	v.SetDefault("IMPORT_DEFAULT_CLASS_CAPACITY", 25)
	v.SetDefault("IMPORT_LOGIN_NAME_MAX_LENGTH", 20)
	v.SetDefault("IMPORT_STATS_CACHE_TTL", "1m")
	v.SetDefault("ENABLE_IMPORT_REPORTS", true)
	v.SetDefault("IMPORT_REPORTS_STORAGE_DIR", "./import-reports")
	v.SetDefault("IMPORT_REPORTS_SIGNED_URL_SECRET", "dev_import_reports_secret")
	v.SetDefault("IMPORT_REPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("IMPORT_REPORTS_RETENTION", "72h")

	v.SetDefault("ENABLE_METRICS", true)
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
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

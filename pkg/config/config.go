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

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Evaluation EvaluationConfig
	Exports    ExportsConfig
	Policies   PoliciesConfig
	Metrics    MetricsConfig
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
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// EvaluationConfig tunes the batch evaluation orchestrator and its queue.
type EvaluationConfig struct {
	SubBatchSize      int
	ErrorCap          int
	WorkerConcurrency int
	WorkerRetries     int
	QueueBuffer       int
	RetryDelay        time.Duration
	CleanupInterval   time.Duration
	Retention         time.Duration
}

// ExportsConfig governs batch result artifacts and their signed URLs.
type ExportsConfig struct {
	Enabled         bool
	ArtifactsDir    string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	CleanupInterval time.Duration
}

// PoliciesConfig controls policy resolution caching.
type PoliciesConfig struct {
	CacheTTL time.Duration
}

// MetricsConfig names the prometheus namespace.
type MetricsConfig struct {
	Namespace string
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
		if !errors.As(err, &notFound) {
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
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Evaluation = EvaluationConfig{
		SubBatchSize:      v.GetInt("EVALUATION_SUB_BATCH_SIZE"),
		ErrorCap:          v.GetInt("EVALUATION_ERROR_CAP"),
		WorkerConcurrency: v.GetInt("EVALUATION_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("EVALUATION_WORKER_RETRIES"),
		QueueBuffer:       v.GetInt("EVALUATION_QUEUE_BUFFER"),
		RetryDelay:        parseDuration(v.GetString("EVALUATION_RETRY_DELAY"), 5*time.Second),
		CleanupInterval:   parseDuration(v.GetString("EVALUATION_CLEANUP_INTERVAL"), time.Hour),
		Retention:         parseDuration(v.GetString("EVALUATION_RETENTION"), 30*24*time.Hour),
	}

	cfg.Exports = ExportsConfig{
		Enabled:         v.GetBool("ENABLE_EXPORTS"),
		ArtifactsDir:    v.GetString("EXPORTS_ARTIFACTS_DIR"),
		SignedURLSecret: v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval: parseDuration(v.GetString("EXPORTS_CLEANUP_INTERVAL"), time.Hour),
	}

	cfg.Policies = PoliciesConfig{
		CacheTTL: parseDuration(v.GetString("POLICY_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Metrics = MetricsConfig{
		Namespace: v.GetString("METRICS_NAMESPACE"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "sis_progress")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("EVALUATION_SUB_BATCH_SIZE", 25)
	v.SetDefault("EVALUATION_ERROR_CAP", 100)
	v.SetDefault("EVALUATION_WORKER_CONCURRENCY", 2)
	v.SetDefault("EVALUATION_WORKER_RETRIES", 3)
	v.SetDefault("EVALUATION_QUEUE_BUFFER", 16)
	v.SetDefault("EVALUATION_RETRY_DELAY", "5s")
	v.SetDefault("EVALUATION_CLEANUP_INTERVAL", "1h")
	v.SetDefault("EVALUATION_RETENTION", "720h")

	v.SetDefault("ENABLE_EXPORTS", true)
	v.SetDefault("EXPORTS_ARTIFACTS_DIR", "./artifacts")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("EXPORTS_CLEANUP_INTERVAL", "1h")

	v.SetDefault("POLICY_CACHE_TTL", "10m")
	v.SetDefault("METRICS_NAMESPACE", "sis")
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

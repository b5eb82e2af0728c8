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

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Storage  StorageConfig
	Pass     PassConfig
	Face     FaceConfig
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
	Migrate      bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Enabled  bool
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// StorageConfig governs profile image and proof document persistence.
type StorageConfig struct {
	ImagesDir         string
	ProofsDir         string
	MaxUploadBytes    int64
	AllowedProofMIMEs []string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
}

// PassConfig tunes the pass lifecycle engine and QR token issuer.
type PassConfig struct {
	TokenSecret        string
	GracePeriod        time.Duration
	SingleUse          bool
	AutoApprove        bool
	SweepEnabled       bool
	SweepInterval      time.Duration
	MyPassesCacheTTL   time.Duration
	OperationalDaySpan time.Duration
}

// FaceConfig configures the pluggable face detection capability.
type FaceConfig struct {
	Enabled        bool
	ServiceURL     string
	RequestTimeout time.Duration
	MatchThreshold float64
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
		Migrate:      v.GetBool("DB_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		Enabled:  v.GetBool("REDIS_ENABLED"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	maxUpload := v.GetInt64("STORAGE_MAX_UPLOAD_BYTES")
	if maxUpload <= 0 {
		maxUpload = 8 * 1024 * 1024
	}
	cfg.Storage = StorageConfig{
		ImagesDir:         v.GetString("STORAGE_IMAGES_DIR"),
		ProofsDir:         v.GetString("STORAGE_PROOFS_DIR"),
		MaxUploadBytes:    maxUpload,
		AllowedProofMIMEs: splitAndTrim(v.GetString("STORAGE_ALLOWED_PROOF_MIME_TYPES")),
		SignedURLSecret:   v.GetString("STORAGE_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("STORAGE_SIGNED_URL_TTL"), 30*time.Minute),
	}

	cfg.Pass = PassConfig{
		TokenSecret:        v.GetString("PASS_TOKEN_SECRET"),
		GracePeriod:        parseDuration(v.GetString("PASS_GRACE_PERIOD"), 30*time.Minute),
		SingleUse:          v.GetBool("PASS_SINGLE_USE"),
		AutoApprove:        v.GetBool("PASS_AUTO_APPROVE"),
		SweepEnabled:       v.GetBool("PASS_SWEEP_ENABLED"),
		SweepInterval:      parseDuration(v.GetString("PASS_SWEEP_INTERVAL"), 5*time.Minute),
		MyPassesCacheTTL:   parseDuration(v.GetString("PASS_LIST_CACHE_TTL"), time.Minute),
		OperationalDaySpan: parseDuration(v.GetString("PASS_OPERATIONAL_DAY_SPAN"), 48*time.Hour),
	}

	cfg.Face = FaceConfig{
		Enabled:        v.GetBool("FACE_ENABLED"),
		ServiceURL:     v.GetString("FACE_SERVICE_URL"),
		RequestTimeout: parseDuration(v.GetString("FACE_REQUEST_TIMEOUT"), 5*time.Second),
		MatchThreshold: v.GetFloat64("FACE_MATCH_THRESHOLD"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8000)
	v.SetDefault("API_PREFIX", "")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "campus_gatepass")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_MIGRATE", true)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_ENABLED", true)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "campus-gatepass-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("STORAGE_IMAGES_DIR", "./storage/images")
	v.SetDefault("STORAGE_PROOFS_DIR", "./storage/proofs")
	v.SetDefault("STORAGE_MAX_UPLOAD_BYTES", 8*1024*1024)
	v.SetDefault("STORAGE_ALLOWED_PROOF_MIME_TYPES", "image/jpeg,image/png,application/pdf")
	v.SetDefault("STORAGE_SIGNED_URL_SECRET", "dev_proofs_secret")
	v.SetDefault("STORAGE_SIGNED_URL_TTL", "30m")

	v.SetDefault("PASS_TOKEN_SECRET", "dev_pass_secret")
	v.SetDefault("PASS_GRACE_PERIOD", "30m")
	v.SetDefault("PASS_SINGLE_USE", true)
	v.SetDefault("PASS_AUTO_APPROVE", false)
	v.SetDefault("PASS_SWEEP_ENABLED", true)
	v.SetDefault("PASS_SWEEP_INTERVAL", "5m")
	v.SetDefault("PASS_LIST_CACHE_TTL", "1m")
	v.SetDefault("PASS_OPERATIONAL_DAY_SPAN", "48h")

	v.SetDefault("FACE_ENABLED", false)
	v.SetDefault("FACE_SERVICE_URL", "http://localhost:9090")
	v.SetDefault("FACE_REQUEST_TIMEOUT", "5s")
	v.SetDefault("FACE_MATCH_THRESHOLD", 0.6)
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

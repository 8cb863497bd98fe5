package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Collab    CollabConfig
	Assist    AssistConfig
	Snapshots SnapshotConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ClientOrigin string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

// CollabConfig controls the realtime gateway.
type CollabConfig struct {
	AutosaveInterval time.Duration
	SendBuffer       int
}

// AssistConfig configures the external text-assist collaborator.
type AssistConfig struct {
	APIKey        string
	Model         string
	BaseURL       string
	DebounceQuiet time.Duration
}

// SnapshotConfig configures optional snapshot archival to object storage.
type SnapshotConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5001")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("CLIENT_URL", "http://localhost:3000")
	viper.SetDefault("MONGODB_DATABASE", "collabwrite")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("JWT_ACCESS_TOKEN_TTL", 15)
	viper.SetDefault("JWT_REFRESH_TOKEN_TTL", 10080)
	viper.SetDefault("RATE_LIMIT_ENABLED", true)
	viper.SetDefault("RATE_LIMIT_RPS", 10.0)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	viper.SetDefault("AUTOSAVE_INTERVAL_SECONDS", 30)
	viper.SetDefault("COLLAB_SEND_BUFFER", 64)
	viper.SetDefault("ASSIST_MODEL", "gemini-1.5-flash")
	viper.SetDefault("ASSIST_BASE_URL", "https://generativelanguage.googleapis.com")
	viper.SetDefault("ASSIST_DEBOUNCE_MS", 1000)

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ClientOrigin: viper.GetString("CLIENT_URL"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		},
		JWT: JWTConfig{
			Secret:          os.Getenv("JWT_SECRET"),
			AccessTokenTTL:  time.Duration(viper.GetInt("JWT_ACCESS_TOKEN_TTL")) * time.Minute,
			RefreshTokenTTL: time.Duration(viper.GetInt("JWT_REFRESH_TOKEN_TTL")) * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Collab: CollabConfig{
			AutosaveInterval: time.Duration(viper.GetInt("AUTOSAVE_INTERVAL_SECONDS")) * time.Second,
			SendBuffer:       viper.GetInt("COLLAB_SEND_BUFFER"),
		},
		Assist: AssistConfig{
			APIKey:        os.Getenv("GEMINI_API_KEY"),
			Model:         viper.GetString("ASSIST_MODEL"),
			BaseURL:       viper.GetString("ASSIST_BASE_URL"),
			DebounceQuiet: time.Duration(viper.GetInt("ASSIST_DEBOUNCE_MS")) * time.Millisecond,
		},
		Snapshots: SnapshotConfig{
			Endpoint:  viper.GetString("SNAPSHOT_MINIO_ENDPOINT"),
			AccessKey: os.Getenv("SNAPSHOT_MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("SNAPSHOT_MINIO_SECRET_KEY"),
			Bucket:    viper.GetString("SNAPSHOT_MINIO_BUCKET"),
			UseSSL:    viper.GetBool("SNAPSHOT_MINIO_USE_SSL"),
		},
	}

	// Basic validation
	if cfg.JWT.Secret == "" {
		log.Println("WARNING: JWT_SECRET is not set; set a secure value in production")
	}

	return cfg, nil
}

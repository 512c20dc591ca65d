package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is built once at startup and passed by reference to every component
// that needs it. Nothing reads the environment after Load returns.
type Config struct {
	Port        string
	Env         string
	DatabaseURL string
	JWTSecret   string
	ClientURL   string

	AllowedOrigins []string

	Auth    AuthConfig
	Storage StorageConfig
	SMTP    SMTPConfig
	Mpesa   MpesaConfig
	Flw     FlutterwaveConfig
	Metrics MetricsConfig
}

type AuthConfig struct {
	SessionTTL      time.Duration
	ResetTTL        time.Duration
	RateLimitWindow time.Duration
	RateLimitMax    int
}

type StorageConfig struct {
	Type      string // "local" or "s3"
	LocalDir  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// S3Configured reports whether remote storage can actually be used.
func (s StorageConfig) S3Configured() bool {
	return s.Type == "s3" && s.Bucket != "" && s.AccessKey != "" && s.SecretKey != ""
}

type SMTPConfig struct {
	Host       string
	Port       string
	User       string
	Pass       string
	SenderName string
}

func (s SMTPConfig) Configured() bool {
	return s.Host != "" && s.Port != "" && s.User != ""
}

type MpesaConfig struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	Shortcode      string
	Passkey        string
	CallbackURL    string
}

type FlutterwaveConfig struct {
	BaseURL   string
	SecretKey string
}

type MetricsConfig struct {
	User string
	Pass string
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load builds the configuration from the environment. The signing secret and
// database URL are required; everything else degrades or defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "5000"),
		Env:         getEnv("APP_ENV", "development"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		ClientURL:   getEnv("CLIENT_URL", "http://localhost:5173"),
		Auth: AuthConfig{
			SessionTTL:      getDuration("JWT_SESSION_TTL", 7*24*time.Hour),
			ResetTTL:        getDuration("JWT_RESET_TTL", 30*24*time.Hour),
			RateLimitWindow: getDuration("AUTH_RATE_LIMIT_WINDOW", 15*time.Minute),
			RateLimitMax:    getInt("AUTH_RATE_LIMIT_MAX", 10),
		},
		Storage: StorageConfig{
			Type:      getEnv("STORAGE_TYPE", "local"),
			LocalDir:  getEnv("UPLOADS_DIR", "./uploads"),
			Region:    getEnv("AWS_REGION", "us-east-1"),
			Bucket:    os.Getenv("S3_BUCKET_NAME"),
			AccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		},
		SMTP: SMTPConfig{
			Host:       os.Getenv("EMAIL_HOST"),
			Port:       os.Getenv("EMAIL_PORT"),
			User:       os.Getenv("EMAIL_USER"),
			Pass:       os.Getenv("EMAIL_PASS"),
			SenderName: getEnv("EMAIL_SENDER_NAME", "QR Forge"),
		},
		Mpesa: MpesaConfig{
			BaseURL:        getEnv("MPESA_BASE_URL", "https://sandbox.safaricom.co.ke"),
			ConsumerKey:    os.Getenv("MPESA_CONSUMER_KEY"),
			ConsumerSecret: os.Getenv("MPESA_CONSUMER_SECRET"),
			Shortcode:      os.Getenv("MPESA_SHORTCODE"),
			Passkey:        os.Getenv("MPESA_PASSKEY"),
			CallbackURL:    os.Getenv("MPESA_CALLBACK_URL"),
		},
		Flw: FlutterwaveConfig{
			BaseURL:   getEnv("FLW_BASE_URL", "https://api.flutterwave.com"),
			SecretKey: os.Getenv("FLW_SECRET_KEY"),
		},
		Metrics: MetricsConfig{
			User: os.Getenv("METRICS_USER"),
			Pass: os.Getenv("METRICS_PASS"),
		},
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	} else {
		cfg.AllowedOrigins = []string{cfg.ClientURL}
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

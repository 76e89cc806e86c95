package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseDriver         string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	NATSSubject            string
	JWTSecret              string
	SessionTTL             time.Duration
	BcryptCost             int
	StudentDefaultPassword string
	EmailDomain            string
	AttendanceCacheTTL     time.Duration
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	UploadMaxSizeMB        int
	CORSAllowOrigins       string
	SigninRateLimit        int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// SecureCookies reports whether session cookies should carry the Secure flag.
func (c Config) SecureCookies() bool {
	return c.AppEnv == "production"
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ROLLCALL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Rollcall API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "3000")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("nats.subject", "rollcall.attendance")
	v.SetDefault("session.ttl", "2160h")
	v.SetDefault("bcrypt.cost", 10)
	v.SetDefault("student.default_password", "Welcome@123")
	v.SetDefault("auth.email_domain", "adithyatech.com")
	v.SetDefault("attendance.cache_ttl", "5m")
	v.SetDefault("cloudinary.folder", "rollcall/posts")
	v.SetDefault("upload.max_size_mb", 10)
	v.SetDefault("cors.allow_origins", "http://localhost:5173")
	v.SetDefault("signin.rate_limit", 10)

	sessionTTL, err := parseDuration(v.GetString("session.ttl"), "2160h")
	if err != nil {
		return Config{}, fmt.Errorf("invalid session ttl: %w", err)
	}

	cacheTTL, err := parseDuration(v.GetString("attendance.cache_ttl"), "5m")
	if err != nil {
		return Config{}, fmt.Errorf("invalid attendance cache ttl: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseDriver:         strings.ToLower(strings.TrimSpace(v.GetString("database.driver"))),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		NATSSubject:            v.GetString("nats.subject"),
		JWTSecret:              v.GetString("jwt.secret"),
		SessionTTL:             sessionTTL,
		BcryptCost:             v.GetInt("bcrypt.cost"),
		StudentDefaultPassword: v.GetString("student.default_password"),
		EmailDomain:            strings.ToLower(strings.TrimSpace(v.GetString("auth.email_domain"))),
		AttendanceCacheTTL:     cacheTTL,
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		UploadMaxSizeMB:        v.GetInt("upload.max_size_mb"),
		CORSAllowOrigins:       v.GetString("cors.allow_origins"),
		SigninRateLimit:        v.GetInt("signin.rate_limit"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.StudentDefaultPassword == "" {
		return Config{}, fmt.Errorf("student default password must not be empty")
	}

	if cfg.BcryptCost <= 0 {
		cfg.BcryptCost = 10
	}

	if cfg.UploadMaxSizeMB <= 0 {
		cfg.UploadMaxSizeMB = 10
	}

	return cfg, nil
}

func parseDuration(value, fallback string) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		value = fallback
	}
	return time.ParseDuration(value)
}

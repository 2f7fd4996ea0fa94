package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// App holds the runtime configuration loaded from an optional YAML file and environment variables.
type App struct {
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
	HTTPPort string `yaml:"http_port"`

	DatabaseDriver string `yaml:"database_driver"`
	DatabaseURL    string `yaml:"database_url"`

	DiscordToken     string `yaml:"discord_token"`
	DiscordAppID     string `yaml:"discord_app_id"`
	DiscordGuildID   string `yaml:"discord_guild_id"`
	DiscordPublicKey string `yaml:"discord_public_key"`

	QueueBackend string `yaml:"queue_backend"`
	QueueKey     string `yaml:"queue_key"`
	RedisAddr    string `yaml:"redis_addr"`

	JWTIssuer     string        `yaml:"jwt_issuer"`
	JWTSigningKey string        `yaml:"jwt_signing_key"`
	AccessTTL     time.Duration `yaml:"access_ttl"`

	RateLimitPerMin   int `yaml:"rate_limit_per_min"`
	CommandRatePerMin int `yaml:"command_rate_per_min"`

	CloudinaryURL    string `yaml:"cloudinary_url"`
	CloudinaryFolder string `yaml:"cloudinary_folder"`

	ExportLimit int `yaml:"export_limit"`
}

// DevSigningKey is the JWT signing key shipped in the defaults. It is refused in production.
const DevSigningKey = "dev-signing-secret-change"

// Defaults returns the configuration used when neither a file nor the environment sets a key.
func Defaults() App {
	return App{
		Env:               "dev",
		LogLevel:          "info",
		HTTPPort:          "8081",
		DatabaseDriver:    "sqlite3",
		DatabaseURL:       "./attendance.db",
		QueueBackend:      "none",
		QueueKey:          "attendance:records",
		RedisAddr:         "localhost:6379",
		JWTIssuer:         "attendbot",
		JWTSigningKey:     DevSigningKey,
		AccessTTL:         24 * time.Hour,
		RateLimitPerMin:   120,
		CommandRatePerMin: 30,
		CloudinaryFolder:  "attendance/proofs",
		ExportLimit:       500,
	}
}

// Load returns application config. Values from the YAML file named by ATTEND_CONFIG_FILE
// are applied over the defaults, then environment variables override both.
func Load() (App, error) {
	cfg := Defaults()
	if path := os.Getenv("ATTEND_CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return App{}, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (a *App) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, a); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (a *App) applyEnv() {
	a.Env = getEnv("APP_ENV", a.Env)
	a.LogLevel = getEnv("LOG_LEVEL", a.LogLevel)
	a.HTTPPort = getEnv("HTTP_PORT", a.HTTPPort)
	a.DatabaseDriver = getEnv("DATABASE_DRIVER", a.DatabaseDriver)
	a.DatabaseURL = getEnv("DATABASE_URL", a.DatabaseURL)
	a.DiscordToken = getEnv("DISCORD_TOKEN", a.DiscordToken)
	a.DiscordAppID = getEnv("DISCORD_APP_ID", a.DiscordAppID)
	a.DiscordGuildID = getEnv("DISCORD_GUILD_ID", a.DiscordGuildID)
	a.DiscordPublicKey = getEnv("DISCORD_PUBLIC_KEY", a.DiscordPublicKey)
	a.QueueBackend = getEnv("QUEUE_BACKEND", a.QueueBackend)
	a.QueueKey = getEnv("QUEUE_KEY", a.QueueKey)
	a.RedisAddr = getEnv("REDIS_ADDR", a.RedisAddr)
	a.JWTIssuer = getEnv("JWT_ISSUER", a.JWTIssuer)
	a.JWTSigningKey = getEnv("JWT_SIGNING_KEY", a.JWTSigningKey)
	a.AccessTTL = durationEnv("ACCESS_TTL", a.AccessTTL)
	a.RateLimitPerMin = intEnv("RATE_LIMIT_PER_MIN", a.RateLimitPerMin)
	a.CommandRatePerMin = intEnv("COMMAND_RATE_PER_MIN", a.CommandRatePerMin)
	a.CloudinaryURL = getEnv("CLOUDINARY_URL", a.CloudinaryURL)
	a.CloudinaryFolder = getEnv("CLOUDINARY_FOLDER", a.CloudinaryFolder)
	a.ExportLimit = intEnv("EXPORT_LIMIT", a.ExportLimit)
}

// Production reports whether the app runs with production logging and gin release mode.
func (a App) Production() bool {
	return a.Env == "production" || a.Env == "prod"
}

// ValidateBot checks the settings without which the bot cannot talk to the platform.
func (a App) ValidateBot() error {
	var errs []error
	if a.DiscordToken == "" {
		errs = append(errs, errors.New("DISCORD_TOKEN is required"))
	}
	if a.DiscordAppID == "" {
		errs = append(errs, errors.New("DISCORD_APP_ID is required"))
	}
	return errors.Join(errs...)
}

// ValidateAPI checks the settings the HTTP server must not run without. In production the
// records API refuses to sign or accept tokens with the default key.
func (a App) ValidateAPI() error {
	if !a.Production() {
		return nil
	}
	switch a.JWTSigningKey {
	case "":
		return errors.New("JWT_SIGNING_KEY is required in production")
	case DevSigningKey:
		return errors.New("JWT_SIGNING_KEY must be changed from the default in production")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		log.Printf("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}

package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreMongo     = "mongo"
	StoreFirestore = "firestore"
	StoreMemory    = "memory"

	RejectDelete = "delete"
	RejectCancel = "cancel"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	Timezone          string `mapstructure:"TIMEZONE"`

	// Store configuration.
	StoreDriver  string `mapstructure:"STORE_DRIVER"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Firebase project used for Firestore and ID token verification.
	FirebaseProjectID       string `mapstructure:"FIREBASE_PROJECT_ID"`
	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`
	DevAuthBypass           bool   `mapstructure:"DEV_AUTH_BYPASS"`

	// Redis configuration. An empty address disables caching.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisAuthDB   int    `mapstructure:"REDIS_AUTH_DB"`

	// Booking policy.
	PickerWindowDays    int           `mapstructure:"PICKER_WINDOW_DAYS"`
	DirectoryWindowDays int           `mapstructure:"DIRECTORY_WINDOW_DAYS"`
	RejectPolicy        string        `mapstructure:"REJECT_POLICY"`
	HoldSlotOnRequest   bool          `mapstructure:"HOLD_SLOT_ON_REQUEST"`
	WindowCacheTTL      time.Duration `mapstructure:"WINDOW_CACHE_TTL"`
}

// LoadConfig reads config.yaml from "." or "./config", an optional .env file
// and the environment, in increasing order of precedence.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables only")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	v.SetDefault("TIMEZONE", "Local")
	v.SetDefault("STORE_DRIVER", StoreMongo)
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "daresni")
	v.SetDefault("FIREBASE_PROJECT_ID", "")
	v.SetDefault("FIREBASE_CREDENTIALS_FILE", "")
	v.SetDefault("DEV_AUTH_BYPASS", false)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_CACHE_DB", 0)
	v.SetDefault("REDIS_AUTH_DB", 1)
	v.SetDefault("PICKER_WINDOW_DAYS", 21)
	v.SetDefault("DIRECTORY_WINDOW_DAYS", 14)
	v.SetDefault("REJECT_POLICY", RejectDelete)
	v.SetDefault("HOLD_SLOT_ON_REQUEST", false)
	v.SetDefault("WINDOW_CACHE_TTL", "2m")
}

// Validate rejects values the services cannot run with.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreMongo, StoreFirestore, StoreMemory:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}
	switch c.RejectPolicy {
	case RejectDelete, RejectCancel:
	default:
		return fmt.Errorf("unsupported REJECT_POLICY %q", c.RejectPolicy)
	}
	if c.PickerWindowDays <= 0 || c.DirectoryWindowDays <= 0 {
		return errors.New("window sizes must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves TIMEZONE, the single zone every slot is interpreted in.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// NeedsFirebase reports whether a Firebase app must be initialised.
func (c *Config) NeedsFirebase() bool {
	return c.StoreDriver == StoreFirestore || !c.DevAuthBypass
}

// Package config loads the application settings through viper.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds every runtime setting.
type Config struct {
	AppPort     string
	Database    Database
	JWTSecret   string
	JWTTTL      time.Duration
	RabbitMQURL string
	LogLevel    string
	LogFormat   string
}

// Database holds the store connection settings.
type Database struct {
	Driver string // "sqlite" or "postgres"
	DSN    string
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "file:smarterd.db?_foreign_keys=on")
	v.SetDefault("JWT_SECRET", "change_me")
	v.SetDefault("JWT_TTL", "30m")
	v.SetDefault("RABBITMQ_URL", "") // Empty disables lifecycle events
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
}

// Load reads the configuration from v, falling back to the defaults and the
// environment.
func Load(v *viper.Viper) Config {
	SetDefaults(v)
	v.AutomaticEnv()

	ttl := v.GetDuration("JWT_TTL")
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	return Config{
		AppPort: v.GetString("APP_PORT"),
		Database: Database{
			Driver: v.GetString("DATABASE_DRIVER"),
			DSN:    v.GetString("DATABASE_DSN"),
		},
		JWTSecret:   v.GetString("JWT_SECRET"),
		JWTTTL:      ttl,
		RabbitMQURL: v.GetString("RABBITMQ_URL"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		LogFormat:   v.GetString("LOG_FORMAT"),
	}
}

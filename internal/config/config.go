package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Realtime RealtimeConfig `mapstructure:"realtime" validate:"required"`
	Retry    RetryConfig    `mapstructure:"retry"    validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"             validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level"        validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`

	// MaxOpenConns bounds the connection pool; exhaustion surfaces as an
	// acquisition timeout, which the retry executor treats as transient.
	MaxOpenConns   int           `mapstructure:"max_open_conns"  validate:"required,gt=0"`
	MaxIdleConns   int           `mapstructure:"max_idle_conns"  validate:"gte=0"`
	AcquireTimeout time.Duration `mapstructure:"acquire_timeout" validate:"required"`
}

// RealtimeConfig contains WebSocket transport settings.
type RealtimeConfig struct {
	// AuthTimeout closes connections that never complete the session
	// handshake.
	AuthTimeout time.Duration `mapstructure:"auth_timeout" validate:"required"`

	// HeartbeatInterval is how often ping frames go out to registered
	// connections.
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval" validate:"required"`

	// WriteTimeout bounds a single frame write to one peer.
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"required"`
}

// RetryConfig contains settings for the transient-error retry executor.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts" validate:"required,gt=0"`
	BaseDelay   time.Duration `mapstructure:"base_delay"   validate:"required"`
}

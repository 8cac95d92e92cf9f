package config

import "time"

// SyncService definition sync_service YAML structure
type SyncService struct {
	Port     string         `mapstructure:"port"`
	API      APIConfig      `mapstructure:"api"`
	Push     PushConfig     `mapstructure:"push"`
	Retry    RetryConfig    `mapstructure:"retry"`
	Identity IdentityConfig `mapstructure:"identity"`
}

// APIConfig remote REST backend setting
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// PushConfig push gateway duplex endpoint setting
type PushConfig struct {
	URL string `mapstructure:"url"`
}

// RetryConfig outbound request retry setting
type RetryConfig struct {
	MaxRetries       int `mapstructure:"max_retries"`
	InitialBackoffMS int `mapstructure:"initial_backoff_ms"`
}

// IdentityConfig the signed-in actor, supplied by the external identity provider
type IdentityConfig struct {
	UserID         string `mapstructure:"user_id"`
	Token          string `mapstructure:"token"`
	FirstName      string `mapstructure:"first_name"`
	LastName       string `mapstructure:"last_name"`
	ProfilePicture string `mapstructure:"profile_picture"`
}

// Package config loads Foodgram settings.
//
// Values are layered, later layers overriding earlier ones:
//
//  1. Defaults: built-in values from defaultConfig
//  2. Config file: optional YAML file (FOODGRAM_CONFIG, else config.yaml)
//  3. Environment: FOODGRAM_* variables, "__" separating sections
//     (FOODGRAM_SERVER__PORT -> server.port)
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config is the complete application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	API      APIConfig      `koanf:"api"`
	Media    MediaConfig    `koanf:"media"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// BaseURL is the public origin used in short links and media URLs.
	BaseURL string `koanf:"base_url"`
	// Environment is "development" or "production".
	Environment string `koanf:"environment"`
}

// DatabaseConfig locates the SQLite database file.
type DatabaseConfig struct {
	Path string `koanf:"path"`
}

// AuthConfig configures access tokens.
type AuthConfig struct {
	JWTSecret     string        `koanf:"jwt_secret"`
	TokenDuration time.Duration `koanf:"token_duration"`
}

// APIConfig controls pagination.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// MediaConfig selects where uploaded images are stored.
type MediaConfig struct {
	// Backend is "local" or "s3".
	Backend string   `koanf:"backend"`
	Local   LocalCfg `koanf:"local"`
	S3      S3Config `koanf:"s3"`
}

// LocalCfg stores media in a directory served under URLPrefix.
type LocalCfg struct {
	Root      string `koanf:"root"`
	URLPrefix string `koanf:"url_prefix"`
}

// S3Config stores media in an S3-compatible bucket.
type S3Config struct {
	Bucket    string `koanf:"bucket"`
	Region    string `koanf:"region"`
	Endpoint  string `koanf:"endpoint"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	// PublicURL prefixes object keys in API responses.
	PublicURL    string `koanf:"public_url"`
	UsePathStyle bool   `koanf:"use_path_style"`
}

// SecurityConfig holds CORS and rate limiting settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig selects log level and output format.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Addr returns the host:port listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsProduction reports whether production checks apply.
func (c *ServerConfig) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

const minProductionSecretLength = 32

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	} else if c.Server.IsProduction() && len(c.Auth.JWTSecret) < minProductionSecretLength {
		errs = append(errs, fmt.Errorf("auth.jwt_secret must be at least %d characters in production", minProductionSecretLength))
	}
	if c.Auth.TokenDuration <= 0 {
		errs = append(errs, errors.New("auth.token_duration must be positive"))
	}

	if c.API.DefaultPageSize < 1 {
		errs = append(errs, errors.New("api.default_page_size must be at least 1"))
	}
	if c.API.MaxPageSize < c.API.DefaultPageSize {
		errs = append(errs, errors.New("api.max_page_size must not be below api.default_page_size"))
	}

	switch c.Media.Backend {
	case "local":
		if c.Media.Local.Root == "" {
			errs = append(errs, errors.New("media.local.root is required for the local backend"))
		}
	case "s3":
		if c.Media.S3.Bucket == "" || c.Media.S3.Region == "" {
			errs = append(errs, errors.New("media.s3.bucket and media.s3.region are required for the s3 backend"))
		}
		if (c.Media.S3.AccessKey == "") != (c.Media.S3.SecretKey == "") {
			errs = append(errs, errors.New("media.s3.access_key and media.s3.secret_key must be set together"))
		}
	default:
		errs = append(errs, fmt.Errorf("media.backend must be local or s3, got %q", c.Media.Backend))
	}

	if !c.Security.RateLimitDisabled && (c.Security.RateLimitReqs < 1 || c.Security.RateLimitWindow <= 0) {
		errs = append(errs, errors.New("security.rate_limit_reqs and security.rate_limit_window must be positive"))
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 6, cfg.API.DefaultPageSize)
	assert.Equal(t, "local", cfg.Media.Backend)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenDuration)
	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 9000
  shutdown_timeout: 3s
api:
  default_page_size: 10
logging:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("FOODGRAM_SERVER__PORT", "9100")
	t.Setenv("FOODGRAM_SECURITY__CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("FOODGRAM_MEDIA__LOCAL__ROOT", "/srv/media")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port, "env overrides file")
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 10, cfg.API.DefaultPageSize)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.CORSOrigins)
	assert.Equal(t, "/srv/media", cfg.Media.Local.Root)
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"FOODGRAM_SERVER__PORT", "server.port"},
		{"FOODGRAM_MEDIA__S3__PUBLIC_URL", "media.s3.public_url"},
		{"FOODGRAM_AUTH__JWT_SECRET", "auth.jwt_secret"},
		{"FOODGRAM_CONFIG", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, envTransformFunc(tt.in))
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"empty secret", func(c *Config) { c.Auth.JWTSecret = "" }, "auth.jwt_secret is required"},
		{"short secret in production", func(c *Config) {
			c.Server.Environment = "production"
			c.Auth.JWTSecret = "short"
		}, "at least 32 characters"},
		{"unknown media backend", func(c *Config) { c.Media.Backend = "ftp" }, "media.backend"},
		{"incomplete s3", func(c *Config) {
			c.Media.Backend = "s3"
			c.Media.S3.Bucket = "images"
			c.Media.S3.AccessKey = "key"
		}, "must be set together"},
		{"page sizes", func(c *Config) { c.API.MaxPageSize = 2 }, "api.max_page_size"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"rate limit disabled skips checks", func(c *Config) {
			c.Security.RateLimitDisabled = true
			c.Security.RateLimitReqs = 0
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.wantErr), "error %q should mention %q", err, tt.wantErr)
		})
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_FileAndDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8081
  env: production
auth:
  mode: hmac
  jwt_secret: "0123456789abcdef0123"
  admin_emails: ["trustee@example.org"]
upload:
  image_max_size: 1048576
`)
	t.Setenv("CONFIG_PATH", path)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "production", cfg.Server.Env)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, "./uploads", cfg.Storage.BasePath)
	assert.Equal(t, int64(1048576), cfg.Upload.ImageMaxSize)
	assert.Equal(t, int64(DefaultDocumentMaxSize), cfg.Upload.DocumentMaxSize)
	assert.Equal(t, DefaultImageTypes, cfg.Upload.ImageTypes)
	assert.Equal(t, []string{"trustee@example.org"}, cfg.Auth.AdminEmails)
	assert.Same(t, cfg, GetConfig())
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8081
database:
  driver: postgres
  url: postgres://file
auth:
  mode: jwks
  jwks_url: https://example.org/jwks
`)
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("AUTH_ADMIN_EMAILS", "a@example.org, b@example.org")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres://env", cfg.Database.DSN)
	assert.Equal(t, []string{"a@example.org", "b@example.org"}, cfg.Auth.AdminEmails)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := &Config{}
		c.Auth.Mode = "hmac"
		c.Auth.JWTSecret = "0123456789abcdef"
		c.applyDefaults()
		return c
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("postgres without dsn", func(t *testing.T) {
		c := valid()
		c.Database.Driver = "postgres"
		assert.ErrorContains(t, c.Validate(), "database.url")
	})

	t.Run("unknown driver", func(t *testing.T) {
		c := valid()
		c.Database.Driver = "firestore"
		assert.ErrorContains(t, c.Validate(), "unsupported database.driver")
	})

	t.Run("short hmac secret", func(t *testing.T) {
		c := valid()
		c.Auth.JWTSecret = "short"
		assert.ErrorContains(t, c.Validate(), "jwt_secret")
	})

	t.Run("jwks without url", func(t *testing.T) {
		c := valid()
		c.Auth.Mode = "jwks"
		assert.ErrorContains(t, c.Validate(), "jwks_url")
	})

	t.Run("r2 without endpoint", func(t *testing.T) {
		c := valid()
		c.Storage.Type = "cloudflare_r2"
		c.Storage.Bucket = "cases"
		assert.ErrorContains(t, c.Validate(), "storage.endpoint")
	})
}

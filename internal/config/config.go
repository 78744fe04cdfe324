package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Storage  StorageConfig  `yaml:"storage"`
	Upload   UploadConfig   `yaml:"upload"`
	CORS     CORSConfig     `yaml:"cors"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Env             string        `yaml:"env"` // development, production
	LogLevel        string        `yaml:"log_level"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // memory, postgres, mysql
	DSN      string `yaml:"url"`
	SeedDemo bool   `yaml:"seed_demo"` // load demo cases on startup
}

type AuthConfig struct {
	Mode                string        `yaml:"mode"`     // jwks, hmac
	JWKSURL             string        `yaml:"jwks_url"` // for jwks mode
	JWKSRefreshInterval time.Duration `yaml:"jwks_refresh_interval"`
	Issuer              string        `yaml:"issuer"`
	Audience            string        `yaml:"audience"`
	JWTSecret           string        `yaml:"jwt_secret"` // for hmac mode
	AdminEmails         []string      `yaml:"admin_emails"`
}

type StorageConfig struct {
	Type       string `yaml:"type"`        // local, s3, cloudflare_r2
	BasePath   string `yaml:"base_path"`   // For local storage
	BaseURL    string `yaml:"base_url"`    // Public URL base
	Bucket     string `yaml:"bucket"`      // For S3/R2
	Region     string `yaml:"region"`      // For S3
	AccessKey  string `yaml:"access_key"`  // For S3/R2
	SecretKey  string `yaml:"secret_key"`  // For S3/R2
	Endpoint   string `yaml:"endpoint"`    // For R2 or custom S3
	UseSSL     bool   `yaml:"use_ssl"`     // For S3/R2
	PublicRead bool   `yaml:"public_read"` // Make files public
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

var AppConfig *Config

// LoadConfig reads the YAML file at CONFIG_PATH (default config/config.yaml)
// when it exists, then overlays environment variables and defaults.
// An explicitly set CONFIG_PATH that cannot be read is an error.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	configPath := os.Getenv("CONFIG_PATH")
	explicit := configPath != ""
	if !explicit {
		configPath = "config/config.yaml"
	}

	f, err := os.Open(configPath)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file at %s: %w", configPath, err)
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("failed to open config file at %s: %w", configPath, err)
	}

	applyEnv(cfg)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	AppConfig = cfg
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Host, "SERVER_HOST")
	setString(&cfg.Server.Env, "SERVER_ENV")
	setString(&cfg.Server.LogLevel, "LOG_LEVEL")
	if port, err := strconv.Atoi(os.Getenv("SERVER_PORT")); err == nil {
		cfg.Server.Port = port
	}

	setString(&cfg.Database.Driver, "DATABASE_DRIVER")
	setString(&cfg.Database.DSN, "DATABASE_URL")
	if v, err := strconv.ParseBool(os.Getenv("DATABASE_SEED_DEMO")); err == nil {
		cfg.Database.SeedDemo = v
	}

	setString(&cfg.Auth.Mode, "AUTH_MODE")
	setString(&cfg.Auth.JWKSURL, "AUTH_JWKS_URL")
	setString(&cfg.Auth.Issuer, "AUTH_ISSUER")
	setString(&cfg.Auth.Audience, "AUTH_AUDIENCE")
	setString(&cfg.Auth.JWTSecret, "AUTH_JWT_SECRET")
	if v := os.Getenv("AUTH_ADMIN_EMAILS"); v != "" {
		cfg.Auth.AdminEmails = splitList(v)
	}

	setString(&cfg.Storage.Type, "STORAGE_TYPE")
	setString(&cfg.Storage.BasePath, "STORAGE_BASE_PATH")
	setString(&cfg.Storage.BaseURL, "STORAGE_BASE_URL")
	setString(&cfg.Storage.Bucket, "STORAGE_BUCKET")
	setString(&cfg.Storage.Region, "STORAGE_REGION")
	setString(&cfg.Storage.AccessKey, "STORAGE_ACCESS_KEY")
	setString(&cfg.Storage.SecretKey, "STORAGE_SECRET_KEY")
	setString(&cfg.Storage.Endpoint, "STORAGE_ENDPOINT")

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORS.AllowedOrigins = splitList(v)
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 4000
	}
	if c.Server.Env == "" {
		c.Server.Env = "development"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "memory"
	}
	if c.Auth.Mode == "" {
		c.Auth.Mode = "jwks"
	}
	if c.Auth.JWKSRefreshInterval == 0 {
		c.Auth.JWKSRefreshInterval = time.Hour
	}
	if c.Storage.Type == "" {
		c.Storage.Type = "local"
	}
	if c.Storage.Type == "local" && c.Storage.BasePath == "" {
		c.Storage.BasePath = "./uploads"
	}
	if c.Storage.Type == "local" && c.Storage.BaseURL == "" {
		c.Storage.BaseURL = "/api/v1/files"
	}
	c.Upload.ApplyDefaults()
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
}

// Validate rejects configurations the application cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}

	switch c.Database.Driver {
	case "memory":
	case "postgres", "mysql":
		if c.Database.DSN == "" {
			errs = append(errs, fmt.Errorf("database.url is required for driver %q", c.Database.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported database.driver %q", c.Database.Driver))
	}

	switch c.Auth.Mode {
	case "jwks":
		if c.Auth.JWKSURL == "" {
			errs = append(errs, errors.New("auth.jwks_url is required for jwks mode"))
		}
	case "hmac":
		if len(c.Auth.JWTSecret) < 16 {
			errs = append(errs, errors.New("auth.jwt_secret must be at least 16 characters for hmac mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported auth.mode %q", c.Auth.Mode))
	}

	switch c.Storage.Type {
	case "local":
	case "s3", "cloudflare_r2":
		if c.Storage.Bucket == "" {
			errs = append(errs, fmt.Errorf("storage.bucket is required for %s", c.Storage.Type))
		}
		if c.Storage.Type == "cloudflare_r2" && c.Storage.Endpoint == "" {
			errs = append(errs, errors.New("storage.endpoint is required for cloudflare_r2"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported storage.type %q", c.Storage.Type))
	}

	if c.Upload.DocumentMaxSize <= 0 || c.Upload.ImageMaxSize <= 0 {
		errs = append(errs, errors.New("upload size limits must be positive"))
	}

	return errors.Join(errs...)
}

func GetConfig() *Config {
	return AppConfig
}

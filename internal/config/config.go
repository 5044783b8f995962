// Package config loads the server configuration from the environment.
//
// LOADING ORDER:
//  1. An optional .env file is read with godotenv. Variables already present
//     in the process environment win over the file.
//  2. envconfig fills Config. Every key can be given with the MUZIK_ prefix
//     (MUZIK_PORT) or bare (PORT); the prefixed name wins when both are set.
//  3. Derived defaults are filled in and Validate checks the combination.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "muzik"

const (
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"

	MediaLocal = "local"
	MediaHDFS  = "hdfs"
)

// Config holds everything cmd/server needs to build the server.
type Config struct {
	Port     int    `envconfig:"PORT" default:"8080"`
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	StoreDriver   string `envconfig:"STORE_DRIVER" default:"sqlite"`
	DBPath        string `envconfig:"DB_PATH" default:"data/muzik.db"`
	MongoURI      string `envconfig:"MONGO_URI"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"muzik"`

	MediaBackend      string `envconfig:"MEDIA_BACKEND" default:"local"`
	MediaDir          string `envconfig:"MEDIA_DIR" default:"data/media"`
	MediaBaseURL      string `envconfig:"MEDIA_BASE_URL"`
	MediaMaxFileBytes int64  `envconfig:"MEDIA_MAX_FILE_BYTES" default:"10485760"`
	HDFSNamenode      string `envconfig:"HDFS_NAMENODE"`
	HDFSDir           string `envconfig:"HDFS_DIR" default:"/muzik/media"`

	JWTSecret          string `envconfig:"JWT_SECRET"`
	GitHubClientID     string `envconfig:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `envconfig:"GITHUB_CLIENT_SECRET"`
	GitHubCallbackURL  string `envconfig:"GITHUB_CALLBACK_URL"`

	// AdminLogins are GitHub logins granted admin access.
	AdminLogins       []string `envconfig:"ADMIN_LOGINS"`
	AdminUsername     string   `envconfig:"ADMIN_USERNAME" default:"admin"`
	AdminPasswordHash string   `envconfig:"ADMIN_PASSWORD_HASH"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`

	// IntegritySweepInterval is how often the catalog references are
	// checked in the background. Zero disables the sweep.
	IntegritySweepInterval time.Duration `envconfig:"INTEGRITY_SWEEP_INTERVAL" default:"1h"`
}

// Load reads the given .env files (".env" when none are named), then the
// environment. Missing .env files are not an error.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: reading env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if cfg.MediaBaseURL == "" {
		cfg.MediaBaseURL = fmt.Sprintf("http://localhost:%d/media", cfg.Port)
	}
	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}
	cfg.AdminLogins = trimAll(cfg.AdminLogins)
	cfg.CORSAllowedOrigins = trimAll(cfg.CORSAllowedOrigins)

	return &cfg, nil
}

// Validate rejects unknown drivers and settings the chosen driver or
// backend cannot run without.
func (c *Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	switch c.StoreDriver {
	case StoreSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH is required for the sqlite store"))
		}
	case StoreMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required for the mongo store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	switch c.MediaBackend {
	case MediaLocal:
		if c.MediaDir == "" {
			errs = append(errs, errors.New("MEDIA_DIR is required for the local media backend"))
		}
	case MediaHDFS:
		if c.HDFSNamenode == "" {
			errs = append(errs, errors.New("HDFS_NAMENODE is required for the hdfs media backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MEDIA_BACKEND %q", c.MediaBackend))
	}

	if c.MediaMaxFileBytes <= 0 {
		errs = append(errs, errors.New("MEDIA_MAX_FILE_BYTES must be positive"))
	}

	if c.IntegritySweepInterval < 0 {
		errs = append(errs, errors.New("INTEGRITY_SWEEP_INTERVAL must not be negative"))
	}

	if c.JWTSecret != "" && len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters"))
	}
	if c.JWTSecret == "" && c.IsProduction() {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// SlogLevel parses LOG_LEVEL (debug, info, warn, error).
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q", c.LogLevel)
	}
	return level, nil
}

// GitHubEnabled reports whether OAuth credentials are configured.
func (c *Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

// LocalAdminEnabled reports whether the password login is configured.
func (c *Config) LocalAdminEnabled() bool {
	return c.AdminUsername != "" && c.AdminPasswordHash != ""
}

func trimAll(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Package config loads runtime settings from defaults, an optional config
// file and LOSTFOUND_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/lostfound/registry/internal/db"
)

// EnvPrefix is prepended to every key when reading environment variables.
const EnvPrefix = "LOSTFOUND"

// Configuration keys.
const (
	Addr           = "ADDR"
	BaseURL        = "BASE_URL"
	DBDriver       = "DB_DRIVER"
	DBURL          = "DB_URL"
	MediaRoot      = "MEDIA_ROOT"
	MediaURL       = "MEDIA_URL"
	PageSize       = "PAGE_SIZE"
	MaxUploadBytes = "MAX_UPLOAD_BYTES"
	LogLevel       = "LOG_LEVEL"
	LogFormat      = "LOG_FORMAT"
	LogFile        = "LOG_FILE"
	AdminUser      = "ADMIN_USER"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Media    MediaConfig
	Logging  LoggingConfig
	Admin    AdminConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string
	// BaseURL, when set, is used to build absolute pagination links instead
	// of the request's Host header.
	BaseURL        string
	PageSize       int
	MaxUploadBytes int64
}

// DatabaseConfig selects the SQL driver and its DSN.
type DatabaseConfig struct {
	Driver string
	URL    string
}

// MediaConfig locates the photo blob store.
type MediaConfig struct {
	// Root is an afs URL (file://, mem://, s3://, ...). A plain path is
	// turned into an absolute file:// URL.
	Root string
	// URL is the public path prefix photos are served under.
	URL string
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string
	Format string
	File   string
}

// AdminConfig names the account created on first run.
type AdminConfig struct {
	Username string
}

// LoadConfig reads configuration. If path is empty an optional .envrc is
// looked up in the working directory and ./config.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(".envrc")
		v.SetConfigType("env")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	root, err := mediaRootURL(v.GetString(MediaRoot))
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: ServerConfig{
			Addr:           v.GetString(Addr),
			BaseURL:        strings.TrimRight(v.GetString(BaseURL), "/"),
			PageSize:       v.GetInt(PageSize),
			MaxUploadBytes: v.GetInt64(MaxUploadBytes),
		},
		Database: DatabaseConfig{
			Driver: v.GetString(DBDriver),
			URL:    v.GetString(DBURL),
		},
		Media: MediaConfig{
			Root: root,
			URL:  v.GetString(MediaURL),
		},
		Logging: LoggingConfig{
			Level:  strings.ToLower(v.GetString(LogLevel)),
			Format: strings.ToLower(v.GetString(LogFormat)),
			File:   v.GetString(LogFile),
		},
		Admin: AdminConfig{
			Username: v.GetString(AdminUser),
		},
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(Addr, ":8000")
	v.SetDefault(BaseURL, "")

	v.SetDefault(DBDriver, db.DriverSQLite)
	v.SetDefault(DBURL, "lostfound.sqlite3")

	v.SetDefault(MediaRoot, "media")
	v.SetDefault(MediaURL, "/media/")

	v.SetDefault(PageSize, 20)
	v.SetDefault(MaxUploadBytes, 5<<20)

	v.SetDefault(LogLevel, "info")
	v.SetDefault(LogFormat, "text")
	v.SetDefault(LogFile, "")

	v.SetDefault(AdminUser, "admin")
}

func mediaRootURL(root string) (string, error) {
	if root == "" || strings.Contains(root, "://") {
		return root, nil
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving media root: %w", err)
	}
	return "file://" + filepath.ToSlash(abs), nil
}

// Validate checks the configuration for missing or inconsistent values.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server address is required")
	}
	if c.Server.PageSize <= 0 {
		return fmt.Errorf("page size must be positive, got %d", c.Server.PageSize)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive, got %d", c.Server.MaxUploadBytes)
	}

	switch c.Database.Driver {
	case db.DriverSQLite, db.DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database URL is required")
	}

	if c.Media.Root == "" {
		return fmt.Errorf("media root is required")
	}
	if !strings.HasPrefix(c.Media.URL, "/") || !strings.HasSuffix(c.Media.URL, "/") {
		return fmt.Errorf("media URL must start and end with /, got %q", c.Media.URL)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}

	if c.Admin.Username == "" {
		return fmt.Errorf("admin username is required")
	}
	return nil
}

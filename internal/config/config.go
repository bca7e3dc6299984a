package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"

	"github.com/gashapon-labs/cardstock/internal/gacha"
)

// EnvPrefix is prepended to every environment override, e.g.
// CARDSTOCK_API_BASE_URL.
const EnvPrefix = "CARDSTOCK_"

// Config represents the application configuration.
type Config struct {
	// API holds the card service connection settings.
	API APIConfig `toml:"api"`

	// Browse holds the initial listing parameters.
	Browse BrowseConfig `toml:"browse"`

	// Auth holds the operator session settings.
	Auth AuthConfig `toml:"auth"`

	// Journal holds the local change journal settings.
	Journal JournalConfig `toml:"journal"`

	// Log holds application logging settings.
	Log LogConfig `toml:"log"`
}

// APIConfig contains card service connection settings.
type APIConfig struct {
	BaseURL           string `toml:"base_url" env:"API_BASE_URL"`                     // Card service address
	Timeout           string `toml:"timeout" env:"API_TIMEOUT"`                       // Request timeout ("0" = none)
	DefaultCollection string `toml:"default_collection" env:"API_DEFAULT_COLLECTION"` // Collection shown at startup ("" = service default)
}

// BrowseConfig contains the listing parameters applied at startup.
type BrowseConfig struct {
	PerPage   int    `toml:"per_page" env:"BROWSE_PER_PAGE"`     // Cards per page
	SortBy    string `toml:"sort_by" env:"BROWSE_SORT_BY"`       // Sort column
	SortOrder string `toml:"sort_order" env:"BROWSE_SORT_ORDER"` // asc or desc
}

// AuthConfig contains operator session settings.
type AuthConfig struct {
	Required    bool   `toml:"required" env:"AUTH_REQUIRED"`         // Gate protected screens behind sign-in
	SessionFile string `toml:"session_file" env:"AUTH_SESSION_FILE"` // Token file ("" = <dir>/session.json)
}

// JournalConfig contains local change journal settings.
type JournalConfig struct {
	Enabled bool   `toml:"enabled" env:"JOURNAL_ENABLED"` // Record quantity and field changes
	Path    string `toml:"path" env:"JOURNAL_PATH"`       // Journal database ("" = <dir>/journal.db)
}

// LogConfig contains application logging settings.
type LogConfig struct {
	Level string `toml:"level" env:"LOG_LEVEL"` // debug, info, warn or error
	Path  string `toml:"path" env:"LOG_PATH"`   // Log file ("" = <dir>/logs/cardstock.log)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:           "http://localhost:8000",
			Timeout:           "0",
			DefaultCollection: "",
		},
		Browse: BrowseConfig{
			PerPage:   gacha.DefaultPerPage,
			SortBy:    string(gacha.DefaultSortField),
			SortOrder: string(gacha.DefaultSortOrder),
		},
		Auth: AuthConfig{
			Required:    true,
			SessionFile: "",
		},
		Journal: JournalConfig{
			Enabled: true,
			Path:    "",
		},
		Log: LogConfig{
			Level: "info",
			Path:  "",
		},
	}
}

// Dir returns the application data directory, creating it if needed.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	dir := filepath.Join(homeDir, ".cardstock")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}

	return dir, nil
}

// configPath returns the path to the configuration file.
func configPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load loads the configuration from disk and applies environment
// overrides. A missing file yields the defaults; keys absent from the
// file keep their default values.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	return loadFrom(path, false)
}

// LoadFile loads the configuration from an explicit path instead of
// the default location. Unlike Load, a missing file is an error.
func LoadFile(path string) (*Config, error) {
	return loadFrom(path, true)
}

func loadFrom(path string, required bool) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	case os.IsNotExist(err) && !required:
		// Defaults apply.
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse environment overrides: %w", err)
	}

	return config, nil
}

// Save saves the configuration to disk.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	parsed, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid API base URL %q: %w", c.API.BaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("API base URL %q must use http or https", c.API.BaseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("API base URL %q has no host", c.API.BaseURL)
	}

	if _, err := time.ParseDuration(normalizeTimeout(c.API.Timeout)); err != nil {
		return fmt.Errorf("invalid API timeout %q: %w", c.API.Timeout, err)
	}

	if !gacha.ValidPerPage(c.Browse.PerPage) {
		return fmt.Errorf("per_page %d is not offered (choose from %v)", c.Browse.PerPage, gacha.PerPageOptions)
	}
	if !gacha.SortField(c.Browse.SortBy).Valid() {
		return fmt.Errorf("unknown sort field %q", c.Browse.SortBy)
	}
	if !gacha.SortOrder(c.Browse.SortOrder).Valid() {
		return fmt.Errorf("unknown sort order %q", c.Browse.SortOrder)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}

	return nil
}

// APITimeout returns the request timeout as a duration. Zero means no
// client-side timeout.
func (c *Config) APITimeout() (time.Duration, error) {
	return time.ParseDuration(normalizeTimeout(c.API.Timeout))
}

// SessionPath resolves the session token file location.
func (c *Config) SessionPath() (string, error) {
	if c.Auth.SessionFile != "" {
		return c.Auth.SessionFile, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "session.json"), nil
}

// JournalPath resolves the change journal database location.
func (c *Config) JournalPath() (string, error) {
	if c.Journal.Path != "" {
		return c.Journal.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "journal.db"), nil
}

// LogPath resolves the log file location, creating its directory.
func (c *Config) LogPath() (string, error) {
	if c.Log.Path != "" {
		return c.Log.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	logDir := filepath.Join(dir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return "", fmt.Errorf("create log directory: %w", err)
	}
	return filepath.Join(logDir, "cardstock.log"), nil
}

// LogLevel maps the configured level to slog. Unknown values fall
// back to info; Validate reports them.
func (c *Config) LogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// normalizeTimeout lets a bare "0" stand for no timeout.
func normalizeTimeout(s string) string {
	if s == "0" || s == "" {
		return "0s"
	}
	return s
}

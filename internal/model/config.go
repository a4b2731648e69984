package model

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Catalog source kinds.
const (
	CatalogSourceFile = "file"
	CatalogSourceFeed = "feed"
)

// UserConfig identifies the single local user.
type UserConfig struct {
	ID   string `mapstructure:"id" yaml:"id"`
	Name string `mapstructure:"name" yaml:"name"`
}

// StoreConfig holds the location of the local database.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// CatalogConfig selects where volunteer events are loaded from.
type CatalogConfig struct {
	// Source is "file" or "feed".
	Source string `mapstructure:"source" yaml:"source"`

	// Path is the YAML catalog file used by the file source.
	Path string `mapstructure:"path" yaml:"path"`

	// FeedURL is the HTTP endpoint used by the feed source.
	FeedURL string `mapstructure:"feed_url" yaml:"feed_url"`

	// RefreshIntervalSec is how often (in seconds) the catalog is reloaded.
	RefreshIntervalSec int `mapstructure:"refresh_interval_sec" yaml:"refresh_interval_sec"`
}

// LifecycleConfig holds reminder engine settings.
type LifecycleConfig struct {
	PollIntervalSec int    `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
	Timezone        string `mapstructure:"timezone" yaml:"timezone"`

	// EnforceCapacity rejects applications once an event is full.
	EnforceCapacity bool `mapstructure:"enforce_capacity" yaml:"enforce_capacity"`
}

// LogConfig controls structured logging output.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	User      UserConfig      `mapstructure:"user" yaml:"user"`
	Store     StoreConfig     `mapstructure:"store" yaml:"store"`
	Catalog   CatalogConfig   `mapstructure:"catalog" yaml:"catalog"`
	Lifecycle LifecycleConfig `mapstructure:"lifecycle" yaml:"lifecycle"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Display   DisplayConfig   `mapstructure:"display" yaml:"display"`
}

// Location resolves the configured time zone. An empty or "Local" value
// uses the system zone.
func (c LifecycleConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// PollInterval returns the reconcile interval as a duration.
func (c LifecycleConfig) PollInterval() time.Duration {
	if c.PollIntervalSec <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.PollIntervalSec) * time.Second
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/volunteer-board/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "volunteer-board", "config.yaml")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "volunteer-board")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	dataDir := defaultDataDir()
	return &AppConfig{
		User: UserConfig{
			ID: "local-user",
		},
		Store: StoreConfig{
			Path: filepath.Join(dataDir, "board.db"),
		},
		Catalog: CatalogConfig{
			Source:             CatalogSourceFile,
			Path:               filepath.Join(dataDir, "catalog.yaml"),
			RefreshIntervalSec: 900,
		},
		Lifecycle: LifecycleConfig{
			PollIntervalSec: 60,
			Timezone:        "Local",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Display: DisplayConfig{
			Theme: "default",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	def := defaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("user.id", def.User.ID)
	v.SetDefault("store.path", def.Store.Path)
	v.SetDefault("catalog.source", def.Catalog.Source)
	v.SetDefault("catalog.path", def.Catalog.Path)
	v.SetDefault("catalog.refresh_interval_sec", def.Catalog.RefreshIntervalSec)
	v.SetDefault("lifecycle.poll_interval_sec", def.Lifecycle.PollIntervalSec)
	v.SetDefault("lifecycle.timezone", def.Lifecycle.Timezone)
	v.SetDefault("lifecycle.enforce_capacity", false)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("display.theme", def.Display.Theme)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return def, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return def, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	switch cfg.Catalog.Source {
	case CatalogSourceFile, CatalogSourceFeed:
	default:
		return nil, fmt.Errorf("parsing config %s: unknown catalog source %q", path, cfg.Catalog.Source)
	}
	if _, err := cfg.Lifecycle.Location(); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("user", cfg.User)
	v.Set("store", cfg.Store)
	v.Set("catalog", cfg.Catalog)
	v.Set("lifecycle", cfg.Lifecycle)
	v.Set("log", cfg.Log)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

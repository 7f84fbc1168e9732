// Package config provides configuration types and defaults for pagebuilder.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds all configuration options for pagebuilder.
type Config struct {
	DataDir string         `mapstructure:"data_dir"`
	DBPath  string         `mapstructure:"db_path"`
	HTTP    HTTPConfig     `mapstructure:"http"`
	Theme   ThemeConfig    `mapstructure:"theme"`
	Cache   CacheConfig    `mapstructure:"cache"`
	Watcher WatcherConfig  `mapstructure:"watcher"`
	Log     LogConfig      `mapstructure:"log"`
	Sources []SourceConfig `mapstructure:"sources"`
}

// HTTPConfig configures the public and editor HTTP server.
type HTTPConfig struct {
	Addr    string `mapstructure:"addr"`
	BaseURL string `mapstructure:"base_url"` // used for canonical links
}

// ThemeConfig selects where themes live and which one is served.
type ThemeConfig struct {
	Dir    string `mapstructure:"dir"`    // directory holding theme.yaml
	Active string `mapstructure:"active"` // slug of the theme served publicly
	Watch  bool   `mapstructure:"watch"`  // dev mode: reload sections when the theme dir changes
}

// CacheConfig holds TTLs for the cache layer.
type CacheConfig struct {
	ChromeTTL       time.Duration `mapstructure:"chrome_ttl"`
	PageTTL         time.Duration `mapstructure:"page_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	WarmSchedule    string        `mapstructure:"warm_schedule"` // cron spec, empty disables warming
}

// WatcherConfig controls the database publish-state watcher.
type WatcherConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// SourceConfig describes an external database that context definitions can
// read from. The password is never stored in the config file; it is looked up
// from the environment variable named by PasswordEnv.
type SourceConfig struct {
	Name        string            `mapstructure:"name" yaml:"name"`
	Driver      string            `mapstructure:"driver" yaml:"driver"` // mysql, postgres, sqlite, mongodb
	Host        string            `mapstructure:"host" yaml:"host"`
	Port        int               `mapstructure:"port" yaml:"port"`
	Database    string            `mapstructure:"database" yaml:"database"`
	Username    string            `mapstructure:"username" yaml:"username"`
	SSLMode     string            `mapstructure:"ssl_mode" yaml:"ssl_mode"`
	PasswordEnv string            `mapstructure:"password_env" yaml:"password_env"`
	Extra       map[string]string `mapstructure:"extra" yaml:"extra"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	dataDir := defaultDataDir()
	return Config{
		DataDir: dataDir,
		DBPath:  filepath.Join(dataDir, "pagebuilder.db"),
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		Theme: ThemeConfig{
			Dir:    "themes/default",
			Active: "default",
		},
		Cache: CacheConfig{
			ChromeTTL:       24 * time.Hour,
			PageTTL:         time.Hour,
			CleanupInterval: 30 * time.Minute,
			WarmSchedule:    "@every 30m",
		},
		Watcher: WatcherConfig{
			PollInterval: 2 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pagebuilder"
	}
	return filepath.Join(home, ".local", "share", "pagebuilder")
}

var validDrivers = map[string]bool{
	"mysql":    true,
	"postgres": true,
	"sqlite":   true,
	"mongodb":  true,
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.Theme.Active == "" {
		return fmt.Errorf("theme.active is required")
	}
	if c.Cache.ChromeTTL < 0 || c.Cache.PageTTL < 0 {
		return fmt.Errorf("cache ttl must not be negative")
	}
	return ValidateSources(c.Sources)
}

// ValidateSources checks every external source has a unique name and a
// supported driver.
func ValidateSources(sources []SourceConfig) error {
	seen := make(map[string]bool, len(sources))
	for i, s := range sources {
		if s.Name == "" {
			return fmt.Errorf("source %d: name is required", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("source %d: duplicate name %q", i, s.Name)
		}
		seen[s.Name] = true
		if !validDrivers[s.Driver] {
			return fmt.Errorf("source %q: unsupported driver %q", s.Name, s.Driver)
		}
		if s.Host == "" {
			return fmt.Errorf("source %q: host is required", s.Name)
		}
	}
	return nil
}

// Source returns the source named name.
func (c Config) Source(name string) (SourceConfig, bool) {
	for _, s := range c.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return SourceConfig{}, false
}

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the on-disk layout of config.yaml. Durations are written
// as strings so the file stays readable.
type fileConfig struct {
	DataDir string         `yaml:"data_dir"`
	DBPath  string         `yaml:"db_path"`
	HTTP    map[string]any `yaml:"http"`
	Theme   map[string]any `yaml:"theme"`
	Cache   map[string]any `yaml:"cache"`
	Watcher map[string]any `yaml:"watcher"`
	Log     map[string]any `yaml:"log"`
	Sources []SourceConfig `yaml:"sources,omitempty"`
}

// WriteDefaultConfig writes the default configuration to path, creating parent
// directories as needed. An existing file is left untouched.
func WriteDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := Marshal(Defaults())
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil { //nolint:gosec // config is not secret
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	fc := fileConfig{
		DataDir: cfg.DataDir,
		DBPath:  cfg.DBPath,
		HTTP: map[string]any{
			"addr":     cfg.HTTP.Addr,
			"base_url": cfg.HTTP.BaseURL,
		},
		Theme: map[string]any{
			"dir":    cfg.Theme.Dir,
			"active": cfg.Theme.Active,
			"watch":  cfg.Theme.Watch,
		},
		Cache: map[string]any{
			"chrome_ttl":       cfg.Cache.ChromeTTL.String(),
			"page_ttl":         cfg.Cache.PageTTL.String(),
			"cleanup_interval": cfg.Cache.CleanupInterval.String(),
			"warm_schedule":    cfg.Cache.WarmSchedule,
		},
		Watcher: map[string]any{
			"poll_interval": cfg.Watcher.PollInterval.String(),
		},
		Log: map[string]any{
			"level": cfg.Log.Level,
			"file":  cfg.Log.File,
		},
		Sources: cfg.Sources,
	}
	data, err := yaml.Marshal(fc)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

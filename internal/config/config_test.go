package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaults_Valid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 24*time.Hour, cfg.Cache.ChromeTTL)
	require.Equal(t, time.Hour, cfg.Cache.PageTTL)
	require.Equal(t, "default", cfg.Theme.Active)
}

func TestValidate_MissingActiveTheme(t *testing.T) {
	cfg := Defaults()
	cfg.Theme.Active = ""
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "theme.active")
}

func TestValidateSources(t *testing.T) {
	tests := []struct {
		name    string
		sources []SourceConfig
		wantErr string
	}{
		{name: "empty", sources: nil},
		{name: "valid", sources: []SourceConfig{{Name: "blog", Driver: "postgres", Host: "localhost"}}},
		{name: "missing name", sources: []SourceConfig{{Driver: "mysql", Host: "x"}}, wantErr: "name is required"},
		{name: "bad driver", sources: []SourceConfig{{Name: "a", Driver: "oracle", Host: "x"}}, wantErr: "unsupported driver"},
		{name: "duplicate", sources: []SourceConfig{
			{Name: "a", Driver: "mysql", Host: "x"},
			{Name: "a", Driver: "mysql", Host: "y"},
		}, wantErr: "duplicate name"},
		{name: "missing host", sources: []SourceConfig{{Name: "a", Driver: "mongodb"}}, wantErr: "host is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSources(tt.sources)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSourceLookup(t *testing.T) {
	cfg := Defaults()
	cfg.Sources = []SourceConfig{{Name: "shop", Driver: "mysql", Host: "db"}}

	s, ok := cfg.Source("shop")
	require.True(t, ok)
	require.Equal(t, "mysql", s.Driver)

	_, ok = cfg.Source("missing")
	require.False(t, ok)
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, yaml.Unmarshal(data, &parsed))
	cache, ok := parsed["cache"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "24h0m0s", cache["chrome_ttl"])
}

func TestWriteDefaultConfig_KeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("theme:\n  active: custom\n"), 0644))

	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "custom")
}

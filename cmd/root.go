package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pagebuilder/internal/app"
	"pagebuilder/internal/config"
	"pagebuilder/internal/log"
)

var (
	version = "dev"
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:     "pagebuilder",
	Short:   "A section-based page builder",
	Long:    `Compose storefront pages from theme sections, publish them, and serve them through a catch-all route.`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/pagebuilder/config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "path to the SQLite database")
	rootCmd.PersistentFlags().String("theme", "", "theme directory")
	rootCmd.PersistentFlags().String("log-level", "", "debug, info, warn or error")

	// Bind flags to viper
	_ = viper.BindPFlag("db_path", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("theme.dir", rootCmd.PersistentFlags().Lookup("theme"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("data_dir", defaults.DataDir)
	viper.SetDefault("db_path", defaults.DBPath)
	viper.SetDefault("http.addr", defaults.HTTP.Addr)
	viper.SetDefault("http.base_url", defaults.HTTP.BaseURL)
	viper.SetDefault("theme.dir", defaults.Theme.Dir)
	viper.SetDefault("theme.active", defaults.Theme.Active)
	viper.SetDefault("theme.watch", defaults.Theme.Watch)
	viper.SetDefault("cache.chrome_ttl", defaults.Cache.ChromeTTL)
	viper.SetDefault("cache.page_ttl", defaults.Cache.PageTTL)
	viper.SetDefault("cache.cleanup_interval", defaults.Cache.CleanupInterval)
	viper.SetDefault("cache.warm_schedule", defaults.Cache.WarmSchedule)
	viper.SetDefault("watcher.poll_interval", defaults.Watcher.PollInterval)
	viper.SetDefault("log.level", defaults.Log.Level)

	viper.SetEnvPrefix("PAGEBUILDER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .pagebuilder/config.yaml (current directory)
		// 2. ~/.config/pagebuilder/config.yaml (user config)
		if _, err := os.Stat(".pagebuilder/config.yaml"); err == nil {
			viper.SetConfigFile(".pagebuilder/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "pagebuilder"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - create default at .pagebuilder/config.yaml
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			defaultPath := ".pagebuilder/config.yaml"
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				viper.SetConfigFile(defaultPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

// openApp sets up logging and builds the application from the loaded config.
// The returned cleanup closes both.
func openApp(ctx context.Context) (*app.App, func(), error) {
	closeLog, err := log.Init(cfg.Log.File, log.ParseLevel(cfg.Log.Level))
	if err != nil {
		return nil, nil, err
	}
	a, err := app.New(ctx, cfg, nil)
	if err != nil {
		closeLog()
		return nil, nil, err
	}
	return a, func() {
		a.Close()
		closeLog()
	}, nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

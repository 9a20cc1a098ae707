package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig
	Resolver ResolverConfig
	Types    TypesConfig
	Log      LogConfig
	UI       UIConfig
}

// DatabaseConfig holds sqlite settings. Driver is "sqlite3" (cgo) or
// "sqlite" (pure Go).
type DatabaseConfig struct {
	Path   string
	Driver string
}

// ResolverConfig bounds path resolution and view depth.
type ResolverConfig struct {
	MaxDepth int `mapstructure:"max_depth"`
}

// TypesConfig points at an optional TOML file of extra panel types.
type TypesConfig struct {
	File string
}

// LogConfig holds zap settings. An empty File discards logs, since the TUI
// owns the terminal.
type LogConfig struct {
	Level       string
	File        string
	Development bool
}

// UIConfig holds presentation settings.
type UIConfig struct {
	Root string
}

func configPath() string {
	if p := os.Getenv("PANELS_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "panels", "config.toml")
}

// Load reads configuration from file and env. Env var overrides use prefix PANELS_.
func Load() (Config, error) {
	v := viper.New()

	dataDir := filepath.Join(os.Getenv("HOME"), ".local", "share", "panels")
	v.SetDefault("database.path", filepath.Join(dataDir, "panels.db"))
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("resolver.max_depth", 64)
	v.SetDefault("types.file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", filepath.Join(dataDir, "panels.log"))
	v.SetDefault("log.development", false)
	v.SetDefault("ui.root", "home")

	v.SetConfigType("toml")
	v.SetConfigFile(configPath())

	v.SetEnvPrefix("PANELS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// a missing file is fine, a broken one is not
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Save writes cfg to the config file, creating its directory if needed.
func Save(cfg Config) error {
	path := configPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("database.driver", cfg.Database.Driver)
	v.Set("resolver.max_depth", cfg.Resolver.MaxDepth)
	v.Set("types.file", cfg.Types.File)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.file", cfg.Log.File)
	v.Set("log.development", cfg.Log.Development)
	v.Set("ui.root", cfg.UI.Root)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

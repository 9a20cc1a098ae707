package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PANELS_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))

	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, "sqlite3", c.Database.Driver)
	require.Equal(t, 64, c.Resolver.MaxDepth)
	require.Equal(t, "home", c.UI.Root)
	require.Equal(t, "info", c.Log.Level)
}

func TestSaveThenLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("PANELS_CONFIG", filepath.Join(dir, "cfg", "config.toml"))

	want := Config{
		Database: DatabaseConfig{Path: filepath.Join(dir, "p.db"), Driver: "sqlite"},
		Resolver: ResolverConfig{MaxDepth: 12},
		Types:    TypesConfig{File: filepath.Join(dir, "types.toml")},
		Log:      LogConfig{Level: "debug", File: filepath.Join(dir, "p.log"), Development: true},
		UI:       UIConfig{Root: "inbox"},
	}
	require.NoError(t, Save(want))

	got, err := Load()
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PANELS_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("PANELS_UI_ROOT", "work")
	t.Setenv("PANELS_RESOLVER_MAX_DEPTH", "8")

	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, "work", c.UI.Root)
	require.Equal(t, 8, c.Resolver.MaxDepth)
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[database\npath = "), 0o600))
	t.Setenv("PANELS_CONFIG", path)

	_, err := Load()
	require.Error(t, err)
}

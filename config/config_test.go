package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveThenLoad(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := DefaultConfig()
	cfg.Scheduler.BPM = 97
	cfg.Feedback = FeedbackConfig{PortName: "Faderfox", Channel: 3}
	require.NoError(t, cfg.Save())

	_, err := os.Stat(filepath.Join(home, ".config", "go-pattern", "config.json"))
	require.NoError(t, err)

	got, err := Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".config", "go-pattern")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"engine":{"port":9000}}`), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Engine.Port)
	assert.Equal(t, "127.0.0.1", cfg.Engine.Host)
	assert.Equal(t, 120.0, cfg.Scheduler.BPM)
}

func TestLoadRejectsBadJSON(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".config", "go-pattern")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{`), 0644))

	_, err := Load()
	assert.Error(t, err)
}

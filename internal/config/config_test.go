package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "mongo", cfg.Database.Driver)
	assert.Equal(t, "gemini-2.5-flash", cfg.AI.Model)
	assert.Equal(t, int32(8192), cfg.AI.MaxOutputTokens)
	assert.Equal(t, time.Hour, cfg.Reminder.Interval)
	assert.Equal(t, 15*time.Second, cfg.Reminder.DisplayFor)
	assert.Equal(t, 5*time.Second, cfg.Reminder.AfterGeneration)
	assert.Equal(t, 12*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, 30*24*time.Hour, cfg.JWT.RememberExpiration)
	assert.Equal(t, 15*time.Minute, cfg.S3.ExportExpiry)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := "database:\n  driver: sqlite\n  sqlite_path: /tmp/plans.db\nreminder:\n  interval: 30m\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Setenv("AI_API_KEY", "from-env")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/plans.db", cfg.Database.SQLitePath)
	assert.Equal(t, 30*time.Minute, cfg.Reminder.Interval)
	assert.Equal(t, "from-env", cfg.AI.APIKey)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigRejectsBrokenFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unclosed"), 0o600))

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644))
	return dir
}

func TestLoad_FullConfig(t *testing.T) {
	dir := writeConfig(t, `
connection:
  host: db.example.com
  port: 5433
  username: student
  database: sparkifydb
  sslmode: require
data:
  song_data: songs
  log_data: events
timeout: 10m
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "db.example.com", cfg.Connection.Host)
	assert.Equal(t, 5433, cfg.Connection.Port)
	assert.Equal(t, "student", cfg.Connection.Username)
	assert.Equal(t, "sparkifydb", cfg.Connection.Database)
	assert.Equal(t, "require", cfg.Connection.SSLMode)
	assert.Equal(t, "songs", cfg.Data.SongSubdir)
	assert.Equal(t, "events", cfg.Data.LogSubdir)
	assert.Equal(t, "10m", cfg.Timeout)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := writeConfig(t, "connection: [not a map")
	_, err := Load(dir)
	assert.ErrorContains(t, err, "invalid songline.yaml")
}

func TestLoad_InvalidAuthMethod(t *testing.T) {
	dir := writeConfig(t, `
connection:
  auth_method: kerberos
`)
	_, err := Load(dir)
	assert.ErrorContains(t, err, "invalid auth_method")
}

func TestLoad_CloudAuthMethods(t *testing.T) {
	for _, method := range []string{"azure", "aws", "google"} {
		dir := writeConfig(t, "connection:\n  auth_method: "+method+"\n")
		cfg, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, method, cfg.Connection.AuthMethod)
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	dir := writeConfig(t, `
connection:
  port: 123456
`)
	_, err := Load(dir)
	assert.ErrorContains(t, err, "invalid port")
}

func TestSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := &ProjectConfig{
		Connection: ConnectionConfig{
			Host:     "db.example.com",
			Port:     5433,
			Username: "student",
			Database: "sparkifydb",
			SSLMode:  "require",
		},
		Data:    DataConfig{SongSubdir: "songs", LogSubdir: "events"},
		Timeout: "5m",
	}
	require.NoError(t, Save(dir, cfg))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

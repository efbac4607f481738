package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"shareanything/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
port = 8080

[storage]
namespace = "other"
`), 0o644))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Hostname)
	assert.Equal(t, "other", cfg.Storage.Namespace)
	assert.Equal(t, config.DefaultDatabase, cfg.Storage.Database)
	assert.False(t, cfg.Storage.Ephemeral)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorContains(t, err, "error reading config file")

	path := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\nport = "), 0o644))
	_, err = config.LoadConfig(path)
	assert.ErrorContains(t, err, "error parsing config file")
}

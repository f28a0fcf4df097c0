package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lariat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"url: fms.example.com\nusername: admin\npassword: hunter2\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "fms.example.com", cfg.URL)
	assert.Equal(t, "admin", cfg.Username)
	assert.Equal(t, "hunter2", cfg.Password)
}

func TestLoadConfig_EnvFallback(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("LARIAT_URL", "env.example.com")
	t.Setenv("LARIAT_USERNAME", "envuser")
	t.Setenv("LARIAT_PASSWORD", "envpass")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "env.example.com", cfg.URL)
	assert.Equal(t, "envuser", cfg.Username)
}

func TestLoadConfig_FileWinsOverEnv(t *testing.T) {
	t.Setenv("LARIAT_URL", "env.example.com")
	t.Setenv("LARIAT_USERNAME", "envuser")

	path := filepath.Join(t.TempDir(), "lariat.yaml")
	require.NoError(t, os.WriteFile(path, []byte("url: file.example.com\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "file.example.com", cfg.URL)
	// Fields the file leaves empty still fill from the environment.
	assert.Equal(t, "envuser", cfg.Username)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadConfig_NoURL(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("LARIAT_URL", "")
	t.Setenv("LARIAT_USERNAME", "")
	t.Setenv("LARIAT_PASSWORD", "")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no server URL")
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every XDG base at a fresh temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(tmp, "state"))
	t.Setenv("XDG_RUNTIME_DIR", filepath.Join(tmp, "run"))
	t.Cleanup(reset)
	return tmp
}

func TestLoadDefaults(t *testing.T) {
	tmp := isolate(t)
	Load()

	assert.Equal(t, DefaultAppID, Get("app_id", ""))
	assert.Equal(t, "short", Get("duration", ""))
	assert.Equal(t, 60, GetInt("timeout_seconds", 0))
	assert.Equal(t, 20, GetInt("channel_wait_seconds", 0))
	assert.True(t, GetBool("history_enabled", false))
	assert.False(t, GetBool("logging_enabled", true))
	assert.Equal(t, filepath.Join(tmp, "config", "ntfytoast"), Get("config_dir", ""))
	assert.Equal(t, filepath.Join(tmp, "state", "ntfytoast"), Get("state_dir", ""))
	assert.Equal(t, filepath.Join(tmp, "run", "ntfytoast"), Get("runtime_dir", ""))
	assert.Equal(t, filepath.Join(tmp, "config", "ntfytoast", "hooks"), Get("hooks_dir", ""))
	assert.Equal(t, "default", Get("missing", "default"))
}

func TestLoadCreatesSampleConfig(t *testing.T) {
	tmp := isolate(t)
	Load()

	data, err := os.ReadFile(filepath.Join(tmp, "config", "ntfytoast", "config.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "# ntfytoast configuration")
	assert.Contains(t, string(data), "io.ntfytoast.DesktopToasts")
	assert.NotContains(t, string(data), "state_dir")
}

func TestLoadingPrecedence(t *testing.T) {
	tmp := isolate(t)
	configFile := filepath.Join(tmp, "custom.toml")
	require.NoError(t, os.WriteFile(configFile, []byte(`
timeout_seconds = 30
duration = "long"
hooks_enabled = false
hooks_failure_mode = "abort"
`), 0644))

	t.Setenv("NTFYTOAST_CONFIG_PATH", configFile)
	t.Setenv("NTFYTOAST_TIMEOUT_SECONDS", "90")
	t.Setenv("NTFYTOAST_HOOKS_ENABLED", "yes")

	Load()

	assert.Equal(t, 90, GetInt("timeout_seconds", 0), "environment should override config file")
	assert.True(t, GetBool("hooks_enabled", false), "environment should override config file")
	assert.Equal(t, "long", Get("duration", ""), "file value should apply when env is unset")
	assert.Equal(t, "abort", Get("hooks_failure_mode", ""))
	_, present := config["config_path"]
	assert.False(t, present)
}

func TestInvalidValuesFallBackToDefaults(t *testing.T) {
	isolate(t)
	t.Setenv("NTFYTOAST_DURATION", "forever")
	t.Setenv("NTFYTOAST_TIMEOUT_SECONDS", "-5")
	t.Setenv("NTFYTOAST_DEBUG", "maybe")
	t.Setenv("NTFYTOAST_APP_ID", "not an id")

	Load()

	assert.Equal(t, "short", Get("duration", ""))
	assert.Equal(t, 60, GetInt("timeout_seconds", 0))
	assert.Equal(t, "false", Get("debug", ""))
	assert.Equal(t, DefaultAppID, Get("app_id", ""))
}

func TestConfigDirOverrideMovesHooks(t *testing.T) {
	tmp := isolate(t)
	custom := filepath.Join(tmp, "elsewhere")
	t.Setenv("NTFYTOAST_CONFIG_DIR", custom)

	Load()

	assert.Equal(t, filepath.Join(custom, "hooks"), Get("hooks_dir", ""))
}

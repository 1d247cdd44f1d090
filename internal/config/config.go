// Package config provides configuration loading.
//
// Values come from three layers, lowest precedence first: built-in defaults,
// the TOML file at {config_dir}/config.toml (or NTFYTOAST_CONFIG_PATH), and
// NTFYTOAST_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/adrg/xdg"
	"github.com/cristianoliveira/ntfytoast/internal/colors"
	"github.com/pelletier/go-toml/v2"
)

const (
	// Permissions for created directories and files.
	FileModeDir  os.FileMode = 0755
	FileModeFile os.FileMode = 0644

	// FileExtTOML is the only configuration file extension read.
	FileExtTOML = ".toml"

	envPrefix = "NTFYTOAST_"
	appDir    = "ntfytoast"
)

// DefaultAppID is the application identity used when none is configured.
const DefaultAppID = "io.ntfytoast.DesktopToasts"

var (
	config    map[string]string // effective values
	configMap map[string]string // built-in defaults
	mu        sync.RWMutex
)

// machineKeys depend on the XDG environment and never go into the sample file.
var machineKeys = map[string]bool{
	"config_dir":  true,
	"state_dir":   true,
	"runtime_dir": true,
	"hooks_dir":   true,
}

func init() {
	initValidators()
}

// Load initializes configuration.
func Load() {
	mu.Lock()
	defer mu.Unlock()

	configMap = defaults()
	config = make(map[string]string, len(configMap))
	for k, v := range configMap {
		config[k] = v
	}

	env := environment()
	// config_dir from the environment decides where the file is looked up
	if dir, ok := env["config_dir"]; ok {
		config["config_dir"] = dir
	}
	merge(readFile(configFilePath()))
	merge(env)

	validate()
	if dir := config["config_dir"]; dir != configMap["config_dir"] && config["hooks_dir"] == configMap["hooks_dir"] {
		config["hooks_dir"] = filepath.Join(dir, "hooks")
	}
	writeSample(config["config_dir"])
}

// reset clears loaded state. Tests call it between Load calls.
func reset() {
	mu.Lock()
	defer mu.Unlock()
	config = nil
	configMap = nil
}

func defaults() map[string]string {
	xdg.Reload()
	configDir := filepath.Join(xdg.ConfigHome, appDir)

	return map[string]string{
		"config_dir":  configDir,
		"state_dir":   filepath.Join(xdg.StateHome, appDir),
		"runtime_dir": filepath.Join(xdg.RuntimeDir, appDir),
		"hooks_dir":   filepath.Join(configDir, "hooks"),

		"app_id":               DefaultAppID,
		"sound":                "Notification.Default",
		"duration":             "short",
		"timeout_seconds":      "60",
		"channel_wait_seconds": "20",
		"launch_grace_ms":      "500",

		"history_enabled":     "true",
		"history_max_entries": "500",

		"hooks_enabled":      "true",
		"hooks_failure_mode": "warn",
		"hooks_timeout":      "10",
		"hooks_async":        "false",
		"max_hooks":          "10",

		"logging_enabled":   "false",
		"logging_level":     "info",
		"logging_max_files": "10",

		"debug": "false",
		"quiet": "false",
	}
}

func merge(layer map[string]string) {
	for k, v := range layer {
		config[k] = v
	}
}

// configFilePath returns NTFYTOAST_CONFIG_PATH, or config.toml in config_dir
// when it exists.
func configFilePath() string {
	if path := os.Getenv(envPrefix + "CONFIG_PATH"); path != "" {
		return path
	}
	path := filepath.Join(config["config_dir"], "config"+FileExtTOML)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// readFile parses a flat TOML table into string values. Problems are
// reported and yield no values.
func readFile(path string) map[string]string {
	if path == "" {
		return nil
	}
	if !strings.EqualFold(filepath.Ext(path), FileExtTOML) {
		colors.Debug(fmt.Sprintf("ignoring config file %s: not %s", path, FileExtTOML))
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		colors.Debug(fmt.Sprintf("unable to read config file %s: %v", path, err))
		return nil
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		colors.Warning(fmt.Sprintf("unable to parse config file %s: %v", path, err))
		return nil
	}

	values := make(map[string]string, len(raw))
	for k, v := range raw {
		key := strings.ToLower(k)
		var s string
		switch typed := v.(type) {
		case string:
			s = typed
		case bool:
			s = strconv.FormatBool(typed)
		case int64:
			s = strconv.FormatInt(typed, 10)
		case float64:
			s = strconv.FormatFloat(typed, 'f', -1, 64)
		default:
			colors.Warning(fmt.Sprintf("unsupported config value type for %s: %T", key, v))
			continue
		}
		values[key] = s
	}
	return values
}

// environment collects NTFYTOAST_* variables, keyed by the lowercased rest
// of the name.
func environment() map[string]string {
	values := map[string]string{}
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, envPrefix) {
			continue
		}
		key := strings.ToLower(name[len(envPrefix):])
		if key == "config_path" {
			continue
		}
		values[key] = value
	}
	return values
}

func validate() {
	for key, value := range config {
		check, ok := validators[key]
		if !ok {
			continue
		}
		def := configMap[key]
		normalized, err := check(key, value, def)
		if err != nil {
			colors.Warning(fmt.Sprintf("validation error for %s: %v, using default: %s", key, err, def))
			normalized = def
		}
		config[key] = normalized
	}
}

const sampleHeader = `# ntfytoast configuration (TOML).
# NTFYTOAST_* environment variables take precedence over these values.

`

// writeSample writes the defaults to dir/config.toml unless the file exists.
func writeSample(dir string) {
	if dir == "" {
		return
	}
	path := filepath.Join(dir, "config"+FileExtTOML)
	if _, err := os.Stat(path); err == nil {
		return
	}
	if err := os.MkdirAll(dir, FileModeDir); err != nil {
		colors.Debug(fmt.Sprintf("unable to create config dir %s: %v", dir, err))
		return
	}

	sample := make(map[string]any, len(configMap))
	for k, v := range configMap {
		if machineKeys[k] {
			continue
		}
		if n, err := strconv.Atoi(v); err == nil {
			sample[k] = n
		} else if b, err := strconv.ParseBool(v); err == nil {
			sample[k] = b
		} else {
			sample[k] = v
		}
	}

	data, err := toml.Marshal(sample)
	if err != nil {
		colors.Warning(fmt.Sprintf("unable to marshal sample config: %v", err))
		return
	}
	if err := os.WriteFile(path, append([]byte(sampleHeader), data...), FileModeFile); err != nil {
		colors.Warning(fmt.Sprintf("unable to write sample config to %s: %v", path, err))
	}
}

// Get returns a configuration value or default.
func Get(key, defaultValue string) string {
	mu.RLock()
	defer mu.RUnlock()
	if val, ok := config[key]; ok {
		return val
	}
	return defaultValue
}

// GetInt returns a configuration value as integer, or default.
func GetInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(Get(key, ""))
	if err != nil {
		return defaultValue
	}
	return n
}

// GetBool returns a configuration value as boolean, or default.
func GetBool(key string, defaultValue bool) bool {
	switch normalizeBool(Get(key, "")) {
	case "true":
		return true
	case "false":
		return false
	}
	return defaultValue
}

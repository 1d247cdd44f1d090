package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cristianoliveira/ntfytoast/internal/colors"
)

// Validator normalizes a configuration value. Invalid values fall back to
// defaultValue with a warning; err is reserved for validators that cannot
// decide.
type Validator func(key, value, defaultValue string) (normalized string, err error)

// validators maps configuration keys to their validator. It is filled once
// by initValidators.
var validators = map[string]Validator{}

func registerValidator(key string, v Validator) {
	if _, exists := validators[key]; exists {
		panic(fmt.Sprintf("validator already registered for key: %s", key))
	}
	validators[key] = v
}

// rejected warns about value and returns the default in its place.
func rejected(key, value, rule, defaultValue string) (string, error) {
	colors.Warning(fmt.Sprintf("invalid %s value '%s': %s; using default: %s", key, value, rule, defaultValue))
	return defaultValue, nil
}

// PositiveIntValidator accepts integers greater than zero.
func PositiveIntValidator() Validator {
	return func(key, value, defaultValue string) (string, error) {
		if value == "" {
			return defaultValue, nil
		}
		if n, err := strconv.Atoi(value); err != nil || n <= 0 {
			return rejected(key, value, "must be a positive integer", defaultValue)
		}
		return value, nil
	}
}

// EnumValidator accepts one of allowed, case-insensitively, and lowercases it.
func EnumValidator(allowed map[string]bool) Validator {
	names := make([]string, 0, len(allowed))
	for k := range allowed {
		names = append(names, k)
	}
	sort.Strings(names)
	rule := "must be one of: " + strings.Join(names, ", ")

	return func(key, value, defaultValue string) (string, error) {
		if value == "" {
			return defaultValue, nil
		}
		lower := strings.ToLower(value)
		if !allowed[lower] {
			return rejected(key, value, rule, defaultValue)
		}
		return lower, nil
	}
}

// BoolValidator normalizes 1/yes/on and 0/no/off to true and false.
func BoolValidator() Validator {
	return func(key, value, defaultValue string) (string, error) {
		if value == "" {
			return defaultValue, nil
		}
		switch normalized := normalizeBool(value); normalized {
		case "true", "false":
			return normalized, nil
		}
		return rejected(key, value, "must be one of: 1, true, yes, on, 0, false, no, off", defaultValue)
	}
}

// AppIDValidator accepts reverse-DNS identifiers usable as a D-Bus well-known
// name and desktop file basename: at least two dot-separated elements of
// [A-Za-z0-9_-], not starting with a digit.
func AppIDValidator() Validator {
	return func(key, value, defaultValue string) (string, error) {
		if value == "" {
			return defaultValue, nil
		}
		if !isAppID(value) {
			return rejected(key, value, "must be a reverse-DNS name such as "+DefaultAppID, defaultValue)
		}
		return value, nil
	}
}

func initValidators() {
	positiveInt := PositiveIntValidator()
	boolean := BoolValidator()
	for _, key := range []string{
		"timeout_seconds",
		"channel_wait_seconds",
		"launch_grace_ms",
		"history_max_entries",
		"hooks_timeout",
		"max_hooks",
		"logging_max_files",
	} {
		registerValidator(key, positiveInt)
	}
	for _, key := range []string{
		"history_enabled",
		"hooks_enabled",
		"hooks_async",
		"logging_enabled",
		"debug",
		"quiet",
	} {
		registerValidator(key, boolean)
	}

	registerValidator("app_id", AppIDValidator())
	registerValidator("duration", EnumValidator(map[string]bool{"short": true, "long": true}))
	registerValidator("hooks_failure_mode", EnumValidator(map[string]bool{"ignore": true, "warn": true, "abort": true}))
	registerValidator("logging_level", EnumValidator(map[string]bool{"debug": true, "info": true, "warn": true, "error": true}))
}

func isAppID(s string) bool {
	if len(s) > 255 {
		return false
	}
	elements := strings.Split(s, ".")
	if len(elements) < 2 {
		return false
	}
	for _, e := range elements {
		if e == "" || (e[0] >= '0' && e[0] <= '9') {
			return false
		}
		for _, r := range e {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			default:
				return false
			}
		}
	}
	return true
}

// normalizeBool maps the accepted spellings to "true" or "false" and
// returns anything else unchanged.
func normalizeBool(val string) string {
	switch strings.ToLower(val) {
	case "1", "true", "yes", "on":
		return "true"
	case "0", "false", "no", "off":
		return "false"
	default:
		return val
	}
}

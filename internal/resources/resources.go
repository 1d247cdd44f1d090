// Package resources carries files bundled into the ntfytoast binary.
package resources

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cristianoliveira/ntfytoast/internal/version"
)

//go:embed logo.svg
var logo []byte

// LogoName is the file name of the bundled icon.
const LogoName = "logo.svg"

// IconDir is where the bundled icon is extracted for this version.
func IconDir() string {
	return filepath.Join(os.TempDir(), "ntfytoast", version.Version, "data")
}

// Icon extracts the bundled icon once and returns its path.
func Icon() (string, error) {
	return ExtractIcon(IconDir())
}

// ExtractIcon writes the bundled icon into dir unless it is already there.
func ExtractIcon(dir string) (string, error) {
	path := filepath.Join(dir, LogoName)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("resources: create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, LogoName+".*")
	if err != nil {
		return "", fmt.Errorf("resources: extract icon: %w", err)
	}
	if _, err := tmp.Write(logo); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("resources: extract icon: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("resources: extract icon: %w", err)
	}
	// concurrent extractions race on the rename; any winner is fine
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("resources: extract icon: %w", err)
	}
	return path, nil
}

// Logo returns the bundled icon bytes.
func Logo() []byte {
	return logo
}

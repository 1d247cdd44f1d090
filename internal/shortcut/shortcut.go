// Package shortcut registers an application identity with the desktop: an
// XDG desktop entry named after the app id and a D-Bus session service that
// starts ntfytoast in embedded mode when the desktop activates it.
package shortcut

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"

	"github.com/cristianoliveira/ntfytoast/internal/colors"
)

const (
	desktopExt = ".desktop"
	serviceExt = ".service"

	// EmbeddingFlag makes ntfytoast wait for an activation instead of
	// showing a notification.
	EmbeddingFlag = "-Embedding"
)

// Options describes an installation.
type Options struct {
	// Shortcut is the desktop entry path. Relative paths are placed under
	// the applications directory; the extension is always .desktop.
	Shortcut string
	Exec     string
	AppID    string
	Name     string
	Icon     string
	// CallbackID is recorded in the entry so the endpoint can be verified.
	CallbackID string
	// DataHome overrides $XDG_DATA_HOME.
	DataHome string
}

// Result lists what Install wrote.
type Result struct {
	DesktopPath    string
	ServicePath    string
	DesktopCreated bool
	ServiceCreated bool
}

// ApplicationsDir returns the directory desktop entries are installed in.
func ApplicationsDir(dataHome string) string {
	if dataHome == "" {
		dataHome = xdg.DataHome
	}
	return filepath.Join(dataHome, "applications")
}

// ServicesDir returns the D-Bus session services directory.
func ServicesDir(dataHome string) string {
	if dataHome == "" {
		dataHome = xdg.DataHome
	}
	return filepath.Join(dataHome, "dbus-1", "services")
}

// DesktopPath resolves a shortcut name to the desktop entry path.
func DesktopPath(shortcut, dataHome string) string {
	path := shortcut
	if !filepath.IsAbs(path) {
		path = filepath.Join(ApplicationsDir(dataHome), path)
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + desktopExt
}

// Install writes the desktop entry and the service file. Files that already
// exist are left untouched.
func Install(opts Options) (Result, error) {
	if opts.AppID == "" || opts.Exec == "" {
		return Result{}, fmt.Errorf("shortcut: app id and executable are required")
	}
	if opts.Shortcut == "" {
		opts.Shortcut = opts.AppID
	}
	if opts.Name == "" {
		opts.Name = displayName(opts.AppID)
	}

	res := Result{
		DesktopPath: DesktopPath(opts.Shortcut, opts.DataHome),
		ServicePath: filepath.Join(ServicesDir(opts.DataHome), opts.AppID+serviceExt),
	}
	if base := filepath.Base(res.DesktopPath); base != opts.AppID+desktopExt {
		colors.Warning(fmt.Sprintf("desktop entry %s is not named after %s; notification servers may not match it", base, opts.AppID))
	}

	var err error
	if res.DesktopCreated, err = createOrSkip(res.DesktopPath, desktopEntry(opts)); err != nil {
		return res, err
	}
	if res.ServiceCreated, err = createOrSkip(res.ServicePath, serviceFile(opts)); err != nil {
		return res, err
	}
	return res, nil
}

// Registered reports whether a desktop entry for appID is installed in any
// XDG data directory.
func Registered(appID string) bool {
	if appID == "" {
		return false
	}
	path, err := xdg.SearchDataFile(filepath.Join("applications", appID+desktopExt))
	if err != nil {
		colors.Debug(fmt.Sprintf("no desktop entry for %s: %v", appID, err))
		return false
	}
	colors.Debug("desktop entry: " + path)
	return true
}

func createOrSkip(path, content string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		colors.Debug(fmt.Sprintf("Path: %s already exists, skip creation", path))
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("shortcut: create %s: %w", filepath.Dir(path), err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if os.IsExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("shortcut: write %s: %w", path, err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return false, fmt.Errorf("shortcut: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("shortcut: write %s: %w", path, err)
	}
	return true, nil
}

func desktopEntry(opts Options) string {
	var b strings.Builder
	b.WriteString("[Desktop Entry]\n")
	b.WriteString("Type=Application\n")
	b.WriteString("Name=" + opts.Name + "\n")
	b.WriteString("Exec=" + quoteExec(opts.Exec) + "\n")
	if opts.Icon != "" {
		b.WriteString("Icon=" + opts.Icon + "\n")
	}
	b.WriteString("NoDisplay=true\n")
	b.WriteString("DBusActivatable=true\n")
	b.WriteString("X-GNOME-UsesNotifications=true\n")
	b.WriteString("X-NtfyToast-AppID=" + opts.AppID + "\n")
	if opts.CallbackID != "" {
		b.WriteString("X-NtfyToast-CallbackID=" + opts.CallbackID + "\n")
	}
	return b.String()
}

func serviceFile(opts Options) string {
	return "[D-BUS Service]\n" +
		"Name=" + opts.AppID + "\n" +
		"Exec=" + quoteExec(opts.Exec) + " " + EmbeddingFlag + " " + opts.AppID + "\n"
}

// quoteExec quotes an executable path for an Exec key.
func quoteExec(path string) string {
	if !strings.ContainsAny(path, " \t\"'\\$`") {
		return path
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "`", "\\`", `$`, `\$`)
	return `"` + r.Replace(path) + `"`
}

func displayName(appID string) string {
	if i := strings.LastIndex(appID, "."); i >= 0 && i < len(appID)-1 {
		return appID[i+1:]
	}
	return appID
}

// Package app wires the ntfytoast components together and implements the
// command use-cases on top of them.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/cristianoliveira/ntfytoast/internal/action"
	"github.com/cristianoliveira/ntfytoast/internal/activator"
	"github.com/cristianoliveira/ntfytoast/internal/bridge"
	"github.com/cristianoliveira/ntfytoast/internal/colors"
	"github.com/cristianoliveira/ntfytoast/internal/config"
	ntfyerrors "github.com/cristianoliveira/ntfytoast/internal/errors"
	"github.com/cristianoliveira/ntfytoast/internal/history"
	"github.com/cristianoliveira/ntfytoast/internal/hooks"
	"github.com/cristianoliveira/ntfytoast/internal/logging"
	"github.com/cristianoliveira/ntfytoast/internal/notify"
	"github.com/cristianoliveira/ntfytoast/internal/resources"
	"github.com/cristianoliveira/ntfytoast/internal/session"
	"github.com/cristianoliveira/ntfytoast/internal/shortcut"
	"github.com/cristianoliveira/ntfytoast/internal/toast"
)

// Toast is one notification session as the use-cases drive it.
// *session.Session satisfies it.
type Toast interface {
	DisplayToast(ctx context.Context, title, body, image string) error
	UserAction(ctx context.Context) action.Kind
	CloseNotification(ctx context.Context) bool
	UseFallbackMode() bool
	Release()
}

// Receiver reads payloads from a delivery channel. *bridge.Listener
// satisfies it.
type Receiver interface {
	Receive(ctx context.Context) (string, error)
	Path() string
	Close() error
}

// Runtime owns the process-wide collaborators. Each one is created on first
// use, so a command that never shows a notification never connects to the
// session bus.
type Runtime struct {
	logger logging.Logger
	pid    int

	mu        sync.Mutex
	notifier  notify.Notifier
	bus       *dbus.Conn
	registry  *bridge.Registry
	channel   *bridge.Channel
	callback  *bridge.Callback
	registrar *activator.Registrar
	store     *history.Store
	storeErr  error
	storeInit bool

	exeOnce sync.Once
	exe     string
	exeErr  error
}

// NewRuntime creates an empty runtime. With a nil logger the global logger
// is used, as it is when each component is created.
func NewRuntime(logger logging.Logger) *Runtime {
	return &Runtime{logger: logger, pid: os.Getpid()}
}

func (r *Runtime) log() logging.Logger {
	if r.logger != nil {
		return r.logger
	}
	return logging.GetGlobal()
}

// PID returns the process id the runtime correlates activations with.
func (r *Runtime) PID() int {
	return r.pid
}

// Notifier returns the rendering service client.
func (r *Runtime) Notifier() (notify.Notifier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.notifier != nil {
		return r.notifier, nil
	}
	n, err := notify.New()
	if err != nil {
		return nil, err
	}
	r.notifier = n
	return n, nil
}

// Registry returns the named event registry rooted in runtime_dir.
func (r *Runtime) Registry() *bridge.Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registryLocked()
}

func (r *Runtime) registryLocked() *bridge.Registry {
	if r.registry == nil {
		dir := filepath.Join(config.Get("runtime_dir", filepath.Join(os.TempDir(), "ntfytoast")), "events")
		r.registry = bridge.NewRegistry(dir, r.log().With("component", "bridge"))
	}
	return r.registry
}

func (r *Runtime) channelLocked() *bridge.Channel {
	if r.channel == nil {
		wait := time.Duration(config.GetInt("channel_wait_seconds", 20)) * time.Second
		r.channel = bridge.NewChannel(wait, r.log().With("component", "channel"))
	}
	return r.channel
}

// Callback returns the activation callback shared by every session of this
// process and by the activation endpoint.
func (r *Runtime) Callback() *bridge.Callback {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.callbackLocked()
}

func (r *Runtime) callbackLocked() *bridge.Callback {
	if r.callback == nil {
		grace := time.Duration(config.GetInt("launch_grace_ms", 500)) * time.Millisecond
		logger := r.log().With("component", "callback")
		launcher := bridge.NewProcessLauncher(grace, logger)
		r.callback = bridge.NewCallback(r.registryLocked(), r.channelLocked(), launcher, logger, r.pid)
	}
	return r.callback
}

// Registrar returns the activation endpoint for appID. A process serves a
// single identity; asking for another one is an error.
func (r *Runtime) Registrar(appID string) (*activator.Registrar, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.registrar != nil {
		if r.registrar.AppID() != appID {
			return nil, ntfyerrors.New(ntfyerrors.ValidationFailed, "app.Registrar",
				fmt.Sprintf("activation endpoint already serves %s", r.registrar.AppID()))
		}
		return r.registrar, nil
	}
	if r.bus == nil {
		conn, err := dbus.ConnectSessionBus()
		if err != nil {
			return nil, ntfyerrors.Wrap(ntfyerrors.PlatformDenied, "app.Registrar", err)
		}
		r.bus = conn
	}
	r.registrar = activator.New(r.bus, appID, r.callbackLocked(), r.registryLocked(), r.pid,
		r.log().With("component", "activator"))
	return r.registrar, nil
}

// History returns the history store, or nil when history is disabled.
func (r *Runtime) History() (*history.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.storeInit {
		return r.store, r.storeErr
	}
	r.storeInit = true
	if !config.GetBool("history_enabled", true) {
		return nil, nil
	}

	path := history.DefaultPath(config.Get("state_dir", ""))
	if err := os.MkdirAll(filepath.Dir(path), config.FileModeDir); err != nil {
		r.storeErr = fmt.Errorf("history: create state dir: %w", err)
		return nil, r.storeErr
	}
	store, err := history.Open(path)
	if err != nil {
		r.storeErr = err
		return nil, err
	}
	if limit := config.GetInt("history_max_entries", 500); limit > 0 {
		if n, err := store.Trim(context.Background(), limit); err != nil {
			r.log().Warn("history trim failed", "error", err)
		} else if n > 0 {
			r.log().Debug("history trimmed", "removed", n)
		}
	}
	r.store = store
	return store, nil
}

// Executable returns the resolved path of the running binary.
func (r *Runtime) Executable() (string, error) {
	r.exeOnce.Do(func() {
		exe, err := os.Executable()
		if err != nil {
			r.exeErr = fmt.Errorf("resolve executable: %w", err)
			return
		}
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		r.exe = exe
	})
	return r.exe, r.exeErr
}

// deps assembles the collaborators of a session. interactive sessions get
// the activation endpoint and the delivery channel.
func (r *Runtime) deps(appID string, interactive bool) (session.Deps, error) {
	n, err := r.Notifier()
	if err != nil {
		return session.Deps{}, err
	}
	d := session.Deps{
		Notifier: n,
		Registry: r.Registry(),
		Logger:   r.log().With("component", "session"),
		Timeout:  time.Duration(config.GetInt("timeout_seconds", 60)) * time.Second,
		PID:      r.pid,
	}
	if store, err := r.History(); err != nil {
		colors.Warning(fmt.Sprintf("history unavailable: %v", err))
	} else if store != nil {
		d.History = store
	}
	if !interactive {
		return d, nil
	}

	r.mu.Lock()
	d.Channel = r.channelLocked()
	d.Callback = r.callbackLocked()
	r.mu.Unlock()
	d.Registered = shortcut.Registered
	d.Hooks = hooks.RunPostAction
	if reg, err := r.Registrar(appID); err != nil {
		r.log().Warn("activation endpoint unavailable", "error", err)
	} else {
		d.Activator = reg
	}
	return d, nil
}

// NewSession prepares a session that shows req and waits for its outcome.
func (r *Runtime) NewSession(req toast.Request) (Toast, error) {
	d, err := r.deps(req.AppID, true)
	if err != nil {
		return nil, err
	}
	return newSession(req, d)
}

// NewCloseSession prepares a session that only closes req.ID.
func (r *Runtime) NewCloseSession(req toast.Request) (Toast, error) {
	d, err := r.deps(req.AppID, false)
	if err != nil {
		return nil, err
	}
	return newSession(req, d)
}

func newSession(req toast.Request, d session.Deps) (Toast, error) {
	s, err := session.New(req, d)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// EnsureIdentity installs the desktop entry and service file for appID
// unless a desktop entry is already present.
func (r *Runtime) EnsureIdentity(appID string) error {
	if shortcut.Registered(appID) {
		return nil
	}
	exe, err := r.Executable()
	if err != nil {
		return err
	}
	res, err := r.Install(shortcut.Options{Shortcut: appID, Exec: exe, AppID: appID})
	if err != nil {
		return err
	}
	if res.DesktopCreated {
		colors.Debug("installed desktop entry " + res.DesktopPath)
	}
	return nil
}

// Install registers an identity. The activation identity and the bundled
// icon are filled in when not given.
func (r *Runtime) Install(opts shortcut.Options) (shortcut.Result, error) {
	if opts.CallbackID == "" {
		opts.CallbackID = activator.CallbackID(opts.AppID).String()
	}
	if opts.Icon == "" {
		if icon, err := resources.Icon(); err == nil {
			opts.Icon = icon
		} else {
			r.log().Warn("bundled icon unavailable", "error", err)
		}
	}
	return shortcut.Install(opts)
}

// DefaultIcon returns the bundled icon, extracting it on first use.
func (r *Runtime) DefaultIcon() (string, error) {
	return resources.Icon()
}

// ListHistory returns the newest entries for appID, or for every app when
// appID is empty.
func (r *Runtime) ListHistory(ctx context.Context, appID string, limit int) ([]history.Entry, error) {
	store, err := r.History()
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, nil
	}
	return store.List(ctx, appID, limit)
}

// Activate handles an activation the way the rendering service would
// report it.
func (r *Runtime) Activate(ctx context.Context, appID, args string, inputs []bridge.Input) (action.Payload, error) {
	return r.Callback().Activate(ctx, appID, args, inputs)
}

// WaitForCallbackActivation serves the activation endpoint for appID until
// one activation was handled.
func (r *Runtime) WaitForCallbackActivation(ctx context.Context, appID string, timeout time.Duration) (bridge.WaitResult, error) {
	reg, err := r.Registrar(appID)
	if err != nil {
		return bridge.TimedOut, err
	}
	return reg.WaitForCallbackActivation(ctx, timeout)
}

// Listen opens a delivery channel at path.
func (r *Runtime) Listen(path string) (Receiver, error) {
	l, err := bridge.Listen(path)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Capabilities reports what the rendering service supports.
func (r *Runtime) Capabilities() ([]string, error) {
	n, err := r.Notifier()
	if err != nil {
		return nil, err
	}
	return n.Capabilities()
}

type shutdowner interface {
	Shutdown() error
}

// Close releases everything the runtime opened.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if r.registrar != nil {
		keep(r.registrar.Unregister())
	}
	if r.registry != nil {
		keep(r.registry.Close())
	}
	if r.store != nil {
		keep(r.store.Close())
		r.store = nil
	}
	if s, ok := r.notifier.(shutdowner); ok {
		keep(s.Shutdown())
	}
	r.notifier = nil
	if r.bus != nil {
		keep(r.bus.Close())
		r.bus = nil
	}
	return firstErr
}

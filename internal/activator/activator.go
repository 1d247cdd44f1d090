// Package activator exposes the process to the desktop as the
// org.freedesktop.Application of its app id, so activations of a
// notification reach the result bridge even when they arrive through the
// session bus instead of a notification signal.
package activator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"

	"github.com/cristianoliveira/ntfytoast/internal/action"
	"github.com/cristianoliveira/ntfytoast/internal/bridge"
	ntfyerrors "github.com/cristianoliveira/ntfytoast/internal/errors"
	"github.com/cristianoliveira/ntfytoast/internal/logging"
	"github.com/cristianoliveira/ntfytoast/internal/toast"
)

const (
	// ActionName is the application action carrying a notification payload.
	ActionName = "ntfytoast.activate"

	applicationInterface = "org.freedesktop.Application"
)

// Bus is the part of a session bus connection the registrar uses.
// *dbus.Conn satisfies it.
type Bus interface {
	Export(v interface{}, path dbus.ObjectPath, iface string) error
	RequestName(name string, flags dbus.RequestNameFlags) (dbus.RequestNameReply, error)
	ReleaseName(name string) (dbus.ReleaseNameReply, error)
}

// Handler receives activations. *bridge.Callback satisfies it.
type Handler interface {
	Activate(ctx context.Context, appID, invokedArgs string, inputs []bridge.Input) (action.Payload, error)
}

// Registrar registers the activation endpoint for one app id. Construct a
// single Registrar per process and share it between sessions.
type Registrar struct {
	bus     Bus
	appID   string
	handler Handler
	events  *bridge.Registry
	pid     int
	logger  logging.Logger

	mu         sync.Mutex
	registered bool
	ownsName   bool
	refs       int
}

// New creates the registrar. Nothing is exported until Register.
func New(bus Bus, appID string, handler Handler, events *bridge.Registry, pid int, logger logging.Logger) *Registrar {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Registrar{
		bus:     bus,
		appID:   appID,
		handler: handler,
		events:  events,
		pid:     pid,
		logger:  logger,
	}
}

// AppID returns the registered application id.
func (r *Registrar) AppID() string {
	return r.appID
}

// ObjectPath derives the object path of an application id: dots become
// slashes and dashes become underscores.
func ObjectPath(appID string) dbus.ObjectPath {
	p := strings.NewReplacer(".", "/", "-", "_").Replace(appID)
	return dbus.ObjectPath("/" + p)
}

// IsRegistered reports whether the endpoint is exported.
func (r *Registrar) IsRegistered() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registered
}

// Register exports the application object and requests the bus name.
// Calling it again while registered does nothing. When another process
// already owns the name the object is still exported and activations go to
// that process instead.
func (r *Registrar) Register() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.register()
}

func (r *Registrar) register() error {
	const op = "activator.Register"
	if r.registered {
		return nil
	}
	if r.bus == nil {
		return ntfyerrors.New(ntfyerrors.PlatformDenied, op, "no session bus")
	}
	if err := r.bus.Export(&application{r: r}, ObjectPath(r.appID), applicationInterface); err != nil {
		return ntfyerrors.Wrap(ntfyerrors.PlatformDenied, op, err)
	}
	reply, err := r.bus.RequestName(r.appID, dbus.NameFlagDoNotQueue)
	if err != nil {
		_ = r.bus.Export(nil, ObjectPath(r.appID), applicationInterface)
		return ntfyerrors.Wrap(ntfyerrors.PlatformDenied, op, err)
	}
	r.ownsName = reply == dbus.RequestNameReplyPrimaryOwner || reply == dbus.RequestNameReplyAlreadyOwner
	if !r.ownsName {
		r.logger.Warn("bus name owned by another process", "app_id", r.appID)
	}
	r.registered = true
	r.logger.Debug("activator registered", "app_id", r.appID, "owns_name", r.ownsName)
	return nil
}

// Unregister withdraws the object and releases the bus name. It is safe to
// call when nothing is registered.
func (r *Registrar) Unregister() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unregister()
}

func (r *Registrar) unregister() error {
	if !r.registered {
		return nil
	}
	r.registered = false
	err := r.bus.Export(nil, ObjectPath(r.appID), applicationInterface)
	if r.ownsName {
		r.ownsName = false
		if _, rerr := r.bus.ReleaseName(r.appID); rerr != nil && err == nil {
			err = rerr
		}
	}
	r.logger.Debug("activator unregistered", "app_id", r.appID)
	if err != nil {
		return ntfyerrors.Wrap(ntfyerrors.PlatformDenied, "activator.Unregister", err)
	}
	return nil
}

// Acquire registers on first use and returns a release func. The endpoint
// stays registered while any acquired guard is unreleased. Release is safe
// to call more than once.
func (r *Registrar) Acquire() (release func(), err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.register(); err != nil {
		return func() {}, err
	}
	r.refs++

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.refs--
			if r.refs == 0 {
				if err := r.unregister(); err != nil {
					r.logger.Warn("unregister failed", "error", err)
				}
			}
		})
	}, nil
}

// WaitForCallbackActivation registers the endpoint and blocks until an
// activation has been handled by this process, timeout elapses or ctx ends.
func (r *Registrar) WaitForCallbackActivation(ctx context.Context, timeout time.Duration) (bridge.WaitResult, error) {
	release, err := r.Acquire()
	if err != nil {
		return bridge.TimedOut, err
	}
	defer release()

	ev := r.events.Create(bridge.ActivationEventName(r.pid))
	res := ev.Wait(ctx, timeout)
	r.logger.Debug("callback activation wait finished", "result", res.String())
	return res, nil
}

// application is the exported org.freedesktop.Application object.
type application struct {
	r *Registrar
}

func (a *application) Activate(platformData map[string]dbus.Variant) *dbus.Error {
	a.r.logger.Debug("activated without action")
	return nil
}

func (a *application) Open(uris []string, platformData map[string]dbus.Variant) *dbus.Error {
	return nil
}

// ActivateAction handles ntfytoast.activate. The first parameter is the
// payload; an optional second string parameter is the user's reply.
func (a *application) ActivateAction(name string, params []dbus.Variant, platformData map[string]dbus.Variant) *dbus.Error {
	if name != ActionName {
		return dbus.NewError("org.freedesktop.DBus.Error.InvalidArgs", []interface{}{"unknown action " + name})
	}
	args, inputs, ok := actionParams(params)
	if !ok {
		return dbus.NewError("org.freedesktop.DBus.Error.InvalidArgs", []interface{}{"expected a string payload"})
	}
	if _, err := a.r.handler.Activate(context.Background(), a.r.appID, args, inputs); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

func actionParams(params []dbus.Variant) (string, []bridge.Input, bool) {
	if len(params) == 0 {
		return "", nil, false
	}
	args, ok := params[0].Value().(string)
	if !ok {
		return "", nil, false
	}
	var inputs []bridge.Input
	if len(params) > 1 {
		if text, ok := params[1].Value().(string); ok {
			inputs = append(inputs, bridge.Input{Key: toast.TextBoxID, Value: text})
		}
	}
	return args, inputs, true
}

// callbackNamespace derives stable callback ids from application ids.
var callbackNamespace = uuid.MustParse("9f4c2855-9f79-4b39-a8d0-e1d42de1d5f3")

// CallbackID is the stable identity of the activation endpoint of appID.
// It is written into the installed desktop entry and shown by the version
// banner.
func CallbackID(appID string) uuid.UUID {
	return uuid.NewSHA1(callbackNamespace, []byte(appID))
}

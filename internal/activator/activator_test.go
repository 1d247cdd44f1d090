package activator

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristianoliveira/ntfytoast/internal/action"
	"github.com/cristianoliveira/ntfytoast/internal/bridge"
	ntfyerrors "github.com/cristianoliveira/ntfytoast/internal/errors"
)

const appID = "io.ntfytoast.DesktopToasts"

type fakeBus struct {
	mu         sync.Mutex
	exported   map[dbus.ObjectPath]interface{}
	names      map[string]bool
	reply      dbus.RequestNameReply
	exportErr  error
	requests   int
	releases   int
	unexported int
}

func newFakeBus() *fakeBus {
	return &fakeBus{
		exported: make(map[dbus.ObjectPath]interface{}),
		names:    make(map[string]bool),
		reply:    dbus.RequestNameReplyPrimaryOwner,
	}
}

func (b *fakeBus) Export(v interface{}, path dbus.ObjectPath, iface string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.exportErr != nil {
		return b.exportErr
	}
	if v == nil {
		b.unexported++
		delete(b.exported, path)
		return nil
	}
	b.exported[path] = v
	return nil
}

func (b *fakeBus) object(path dbus.ObjectPath) *application {
	b.mu.Lock()
	defer b.mu.Unlock()
	obj, _ := b.exported[path].(*application)
	return obj
}

func (b *fakeBus) RequestName(name string, _ dbus.RequestNameFlags) (dbus.RequestNameReply, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests++
	if b.reply == dbus.RequestNameReplyPrimaryOwner {
		b.names[name] = true
	}
	return b.reply, nil
}

func (b *fakeBus) ReleaseName(name string) (dbus.ReleaseNameReply, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.releases++
	delete(b.names, name)
	return dbus.ReleaseNameReplyReleased, nil
}

type recordingHandler struct {
	mu     sync.Mutex
	args   []string
	inputs [][]bridge.Input
	err    error
	onCall func()
}

func (h *recordingHandler) Activate(_ context.Context, _ string, args string, inputs []bridge.Input) (action.Payload, error) {
	h.mu.Lock()
	h.args = append(h.args, args)
	h.inputs = append(h.inputs, inputs)
	h.mu.Unlock()
	if h.onCall != nil {
		h.onCall()
	}
	return action.Payload{}, h.err
}

func shortDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "nta")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func TestObjectPath(t *testing.T) {
	assert.Equal(t, dbus.ObjectPath("/io/ntfytoast/DesktopToasts"), ObjectPath(appID))
	assert.Equal(t, dbus.ObjectPath("/org/example/my_app"), ObjectPath("org.example.my-app"))
	assert.True(t, ObjectPath("org.example.my-app").IsValid())
}

func TestRegisterIsIdempotent(t *testing.T) {
	bus := newFakeBus()
	r := New(bus, appID, &recordingHandler{}, nil, 1, nil)

	require.NoError(t, r.Register())
	require.NoError(t, r.Register())

	assert.True(t, r.IsRegistered())
	assert.Equal(t, 1, bus.requests)
	assert.Contains(t, bus.exported, ObjectPath(appID))
	assert.True(t, bus.names[appID])
}

func TestUnregisterWithoutRegister(t *testing.T) {
	bus := newFakeBus()
	r := New(bus, appID, &recordingHandler{}, nil, 1, nil)

	require.NoError(t, r.Unregister())
	require.NoError(t, r.Unregister())
	assert.Zero(t, bus.unexported)
	assert.Zero(t, bus.releases)
}

func TestUnregisterReleasesOwnedName(t *testing.T) {
	bus := newFakeBus()
	r := New(bus, appID, &recordingHandler{}, nil, 1, nil)

	require.NoError(t, r.Register())
	require.NoError(t, r.Unregister())
	require.NoError(t, r.Unregister())

	assert.False(t, r.IsRegistered())
	assert.Empty(t, bus.exported)
	assert.Empty(t, bus.names)
	assert.Equal(t, 1, bus.releases)
}

func TestNameOwnedElsewhere(t *testing.T) {
	bus := newFakeBus()
	bus.reply = dbus.RequestNameReplyExists
	r := New(bus, appID, &recordingHandler{}, nil, 1, nil)

	require.NoError(t, r.Register())
	assert.True(t, r.IsRegistered())

	require.NoError(t, r.Unregister())
	assert.Zero(t, bus.releases)
}

func TestRegisterFailures(t *testing.T) {
	r := New(nil, appID, &recordingHandler{}, nil, 1, nil)
	assert.ErrorIs(t, r.Register(), ntfyerrors.PlatformDenied)

	bus := newFakeBus()
	bus.exportErr = errors.New("boom")
	r = New(bus, appID, &recordingHandler{}, nil, 1, nil)
	assert.ErrorIs(t, r.Register(), ntfyerrors.PlatformDenied)
	assert.False(t, r.IsRegistered())
}

func TestAcquireCountsSessions(t *testing.T) {
	bus := newFakeBus()
	r := New(bus, appID, &recordingHandler{}, nil, 1, nil)

	first, err := r.Acquire()
	require.NoError(t, err)
	second, err := r.Acquire()
	require.NoError(t, err)
	assert.Equal(t, 1, bus.requests)

	first()
	first()
	assert.True(t, r.IsRegistered(), "still held by the second guard")

	second()
	assert.False(t, r.IsRegistered())

	third, err := r.Acquire()
	require.NoError(t, err)
	defer third()
	assert.Equal(t, 2, bus.requests)
}

func TestActivateActionForwardsPayload(t *testing.T) {
	bus := newFakeBus()
	h := &recordingHandler{}
	r := New(bus, appID, h, nil, 1, nil)
	require.NoError(t, r.Register())

	obj := bus.object(ObjectPath(appID))
	payload := "action=textEntered;notificationId=42;"

	derr := obj.ActivateAction(ActionName, []dbus.Variant{dbus.MakeVariant(payload), dbus.MakeVariant("hello")}, nil)
	require.Nil(t, derr)

	require.Equal(t, []string{payload}, h.args)
	assert.Equal(t, []bridge.Input{{Key: "textBox", Value: "hello"}}, h.inputs[0])
}

func TestActivateActionRejects(t *testing.T) {
	h := &recordingHandler{}
	r := New(newFakeBus(), appID, h, nil, 1, nil)
	obj := &application{r: r}

	assert.NotNil(t, obj.ActivateAction("other", []dbus.Variant{dbus.MakeVariant("x")}, nil))
	assert.NotNil(t, obj.ActivateAction(ActionName, nil, nil))
	assert.NotNil(t, obj.ActivateAction(ActionName, []dbus.Variant{dbus.MakeVariant(7)}, nil))
	assert.Empty(t, h.args)

	h.err = ntfyerrors.New(ntfyerrors.MissingField, "test", "no action")
	assert.NotNil(t, obj.ActivateAction(ActionName, []dbus.Variant{dbus.MakeVariant("junk")}, nil))
}

func TestWaitForCallbackActivation(t *testing.T) {
	events := bridge.NewRegistry(shortDir(t), nil)
	defer events.Close()

	bus := newFakeBus()
	h := &recordingHandler{}
	h.onCall = func() { events.Create(bridge.ActivationEventName(99)).Signal() }
	r := New(bus, appID, h, events, 99, nil)

	go func() {
		for !r.IsRegistered() {
			time.Sleep(5 * time.Millisecond)
		}
		obj := bus.object(ObjectPath(appID))
		obj.ActivateAction(ActionName, []dbus.Variant{dbus.MakeVariant("action=clicked;")}, nil)
	}()

	res, err := r.WaitForCallbackActivation(context.Background(), 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, bridge.Signaled, res)
	assert.False(t, r.IsRegistered())
}

func TestWaitForCallbackActivationTimesOut(t *testing.T) {
	events := bridge.NewRegistry(shortDir(t), nil)
	defer events.Close()

	r := New(newFakeBus(), appID, &recordingHandler{}, events, 100, nil)
	res, err := r.WaitForCallbackActivation(context.Background(), 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, bridge.TimedOut, res)
}

func TestCallbackID(t *testing.T) {
	id := CallbackID(appID)
	assert.Equal(t, id, CallbackID(appID))
	assert.NotEqual(t, id, CallbackID("org.example.Other"))
	assert.Equal(t, uuid.Version(5), id.Version())
}

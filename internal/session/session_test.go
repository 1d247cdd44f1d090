package session

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristianoliveira/ntfytoast/internal/action"
	"github.com/cristianoliveira/ntfytoast/internal/bridge"
	ntfyerrors "github.com/cristianoliveira/ntfytoast/internal/errors"
	"github.com/cristianoliveira/ntfytoast/internal/history"
	"github.com/cristianoliveira/ntfytoast/internal/hooks"
	"github.com/cristianoliveira/ntfytoast/internal/notify"
	"github.com/cristianoliveira/ntfytoast/internal/toast"
)

const (
	appID = "io.ntfytoast.DesktopToasts"
	pipe  = "/tmp/ntfytoast-test.sock"
)

type fakeNotifier struct {
	mu        sync.Mutex
	nextID    uint32
	shown     []notify.Notification
	closed    []uint32
	subs      map[uint32]chan notify.Event
	inhibited bool
	notifyErr error
	closeErr  error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{nextID: 100, subs: make(map[uint32]chan notify.Event)}
}

func (f *fakeNotifier) Notify(_ context.Context, n notify.Notification) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.notifyErr != nil {
		return 0, f.notifyErr
	}
	f.nextID++
	f.shown = append(f.shown, n)
	return f.nextID, nil
}

func (f *fakeNotifier) Close(id uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closeErr != nil {
		return f.closeErr
	}
	f.closed = append(f.closed, id)
	return nil
}

func (f *fakeNotifier) Subscribe(id uint32) (<-chan notify.Event, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan notify.Event, 8)
	f.subs[id] = ch
	return ch, func() {}
}

func (f *fakeNotifier) Inhibited() (bool, error) { return f.inhibited, nil }

func (f *fakeNotifier) Capabilities() ([]string, error) {
	return []string{"actions", "body", "inline-reply"}, nil
}

func (f *fakeNotifier) emit(t *testing.T, id uint32, ev notify.Event) {
	t.Helper()
	f.mu.Lock()
	ch, ok := f.subs[id]
	f.mu.Unlock()
	require.True(t, ok, "no subscription for %d", id)
	ev.ID = id
	ch <- ev
}

func (f *fakeNotifier) closedIDs() []uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint32(nil), f.closed...)
}

type delivery struct {
	path    string
	payload string
}

type fakeDeliverer struct {
	mu         sync.Mutex
	deliveries []delivery
}

func (d *fakeDeliverer) Deliver(_ context.Context, path, payload string, _ bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deliveries = append(d.deliveries, delivery{path, payload})
	return true
}

func (d *fakeDeliverer) payloads(t *testing.T) []action.Payload {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []action.Payload
	for _, del := range d.deliveries {
		p, err := action.DecodePayload(del.payload)
		require.NoError(t, err)
		out = append(out, p)
	}
	return out
}

type fakeCallback struct {
	mu       sync.Mutex
	args     []string
	inputs   [][]bridge.Input
	registry *bridge.Registry
}

func (c *fakeCallback) Activate(_ context.Context, _, args string, inputs []bridge.Input) (action.Payload, error) {
	c.mu.Lock()
	c.args = append(c.args, args)
	c.inputs = append(c.inputs, inputs)
	c.mu.Unlock()
	p, err := action.DecodePayload(args)
	if err != nil {
		return p, err
	}
	if len(inputs) > 0 {
		p.Extra = append(p.Extra, action.Field{Key: action.KeyText, Value: inputs[0].Value})
	}
	c.registry.SignalWith(bridge.EventName(p.NotificationID), p.Action)
	return p, nil
}

type fakeGuard struct {
	acquired int
	released int
	err      error
}

func (g *fakeGuard) Acquire() (func(), error) {
	if g.err != nil {
		return nil, g.err
	}
	g.acquired++
	return func() { g.released++ }, nil
}

type harness struct {
	notifier *fakeNotifier
	channel  *fakeDeliverer
	callback *fakeCallback
	guard    *fakeGuard
	registry *bridge.Registry
	store    *history.Store
	stdout   *bytes.Buffer
	hookRuns []hooks.Result
	deps     Deps
}

func shortDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "nts")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func newHarness(t *testing.T, registered bool) *harness {
	t.Helper()
	h := &harness{
		notifier: newFakeNotifier(),
		channel:  &fakeDeliverer{},
		guard:    &fakeGuard{},
		registry: bridge.NewRegistry(shortDir(t), nil),
		stdout:   &bytes.Buffer{},
	}
	t.Cleanup(func() { h.registry.Close() })

	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	h.store = store

	h.callback = &fakeCallback{registry: h.registry}
	h.deps = Deps{
		Notifier:   h.notifier,
		Registry:   h.registry,
		Channel:    h.channel,
		Callback:   h.callback,
		Activator:  h.guard,
		History:    store,
		Registered: func(string) bool { return registered },
		Hooks: func(r hooks.Result) error {
			h.hookRuns = append(h.hookRuns, r)
			return nil
		},
		Stdout:  h.stdout,
		Timeout: 5 * time.Second,
		PID:     4242,
	}
	return h
}

func request(mutate func(*toast.Request)) toast.Request {
	req := toast.Request{AppID: appID, ID: "42", Pipe: pipe}
	if mutate != nil {
		mutate(&req)
	}
	return req
}

func (h *harness) display(t *testing.T, req toast.Request) *Session {
	t.Helper()
	s, err := New(req, h.deps)
	require.NoError(t, err)
	t.Cleanup(s.Release)
	require.NoError(t, s.DisplayToast(context.Background(), "Title", "Body", ""))
	require.Equal(t, Submitted, s.State())
	return s
}

func TestNewDefaultsIDToPID(t *testing.T) {
	h := newHarness(t, true)
	s, err := New(request(func(r *toast.Request) { r.ID = "" }), h.deps)
	require.NoError(t, err)
	defer s.Release()

	assert.Equal(t, "4242", s.ID())
	assert.Equal(t, Constructed, s.State())
	assert.False(t, s.UseFallbackMode())
	assert.Equal(t, 1, h.guard.acquired)
}

func TestNewRequiresNotifierAndRegistry(t *testing.T) {
	_, err := New(request(nil), Deps{})
	assert.ErrorIs(t, err, ntfyerrors.ValidationFailed)
}

func TestFallbackModeSkipsActivator(t *testing.T) {
	h := newHarness(t, false)
	s, err := New(request(nil), h.deps)
	require.NoError(t, err)
	defer s.Release()

	assert.True(t, s.UseFallbackMode())
	assert.Zero(t, h.guard.acquired)
}

func TestActivatorFailureIsNotFatal(t *testing.T) {
	h := newHarness(t, true)
	h.guard.err = errors.New("no bus")
	s, err := New(request(nil), h.deps)
	require.NoError(t, err)
	s.Release()
}

func TestDisplayValidation(t *testing.T) {
	h := newHarness(t, true)

	s, err := New(request(nil), h.deps)
	require.NoError(t, err)
	defer s.Release()
	err = s.DisplayToast(context.Background(), "", "Body", "")
	assert.ErrorIs(t, err, ntfyerrors.ValidationFailed)
	assert.Equal(t, ErrorAborted, s.State())

	s2, err := New(request(func(r *toast.Request) {
		r.Pipe = ""
		r.TextInput = true
	}), h.deps)
	require.NoError(t, err)
	defer s2.Release()
	err = s2.DisplayToast(context.Background(), "Title", "Body", "")
	assert.ErrorIs(t, err, ntfyerrors.NoChannelConfigured)

	assert.Empty(t, h.notifier.shown)
}

func TestDisplaySubmissionFailure(t *testing.T) {
	h := newHarness(t, true)
	h.notifier.notifyErr = errors.New("service gone")

	s, err := New(request(nil), h.deps)
	require.NoError(t, err)
	defer s.Release()

	err = s.DisplayToast(context.Background(), "Title", "Body", "")
	assert.ErrorIs(t, err, ntfyerrors.SubmissionFailed)
	assert.Equal(t, ErrorAborted, s.State())
	assert.Equal(t, action.Error, s.UserAction(context.Background()))
}

func TestDisplayTwice(t *testing.T) {
	h := newHarness(t, true)
	s := h.display(t, request(nil))
	assert.Error(t, s.DisplayToast(context.Background(), "Title", "Body", ""))
}

func TestDisplayRecordsHistory(t *testing.T) {
	h := newHarness(t, true)
	s := h.display(t, request(nil))

	entry, err := h.store.Find(context.Background(), appID, history.DefaultGroup, "42")
	require.NoError(t, err)
	assert.Equal(t, s.ServerID(), entry.ServerID)
	assert.Equal(t, "Title", entry.Title)
	assert.False(t, entry.Resolved)

	require.Len(t, h.notifier.shown, 1)
	assert.Equal(t, "Title", h.notifier.shown[0].Summary)
}

func TestClickRoutesThroughCallback(t *testing.T) {
	h := newHarness(t, true)
	s := h.display(t, request(nil))

	h.notifier.emit(t, s.ServerID(), notify.Event{Kind: notify.EventActionInvoked, ActionKey: notify.ActionDefault})
	assert.Equal(t, action.Clicked, s.UserAction(context.Background()))
	assert.Equal(t, Resolved, s.State())

	require.Len(t, h.callback.args, 1)
	p, err := action.DecodePayload(h.callback.args[0])
	require.NoError(t, err)
	assert.Equal(t, action.Clicked, p.Action)
	assert.Equal(t, pipe, p.Pipe)
	assert.Empty(t, h.channel.payloads(t), "the callback owns delivery outside fallback mode")

	entry, err := h.store.Find(context.Background(), appID, history.DefaultGroup, "42")
	require.NoError(t, err)
	assert.True(t, entry.Resolved)
	assert.Equal(t, action.Clicked, entry.Outcome)

	require.Len(t, h.hookRuns, 1)
	assert.Equal(t, action.Clicked, h.hookRuns[0].Outcome)
}

func TestReplyRoutesThroughCallback(t *testing.T) {
	h := newHarness(t, true)
	s := h.display(t, request(func(r *toast.Request) { r.TextInput = true }))

	h.notifier.emit(t, s.ServerID(), notify.Event{Kind: notify.EventReplied, Text: "see you"})
	assert.Equal(t, action.TextEntered, s.UserAction(context.Background()))

	require.Len(t, h.callback.inputs, 1)
	assert.Equal(t, []bridge.Input{{Key: toast.TextBoxID, Value: "see you"}}, h.callback.inputs[0])
	require.Len(t, h.hookRuns, 1)
	assert.Equal(t, "see you", h.hookRuns[0].Text)
}

func TestFallbackButtonWritesPipeAndPrintsLabel(t *testing.T) {
	h := newHarness(t, false)
	s := h.display(t, request(func(r *toast.Request) { r.Buttons = []string{"Yes", "No"} }))

	key := h.notifier.shown[0].Actions[2].Key
	h.notifier.emit(t, s.ServerID(), notify.Event{Kind: notify.EventActionInvoked, ActionKey: key})
	assert.Equal(t, action.ButtonClicked, s.UserAction(context.Background()))

	assert.Equal(t, "No\n", h.stdout.String())
	assert.Empty(t, h.callback.args)

	payloads := h.channel.payloads(t)
	require.Len(t, payloads, 1)
	assert.Equal(t, action.ButtonClicked, payloads[0].Action)
	assert.Equal(t, "42", payloads[0].NotificationID)
	button, _ := payloads[0].Get(action.KeyButton)
	assert.Equal(t, "No", button)
	assert.Equal(t, "No", h.hookRuns[0].Button)
}

func TestFallbackReplyWritesText(t *testing.T) {
	h := newHarness(t, false)
	s := h.display(t, request(func(r *toast.Request) { r.TextInput = true }))

	h.notifier.emit(t, s.ServerID(), notify.Event{Kind: notify.EventReplied, Text: "hello"})
	assert.Equal(t, action.TextEntered, s.UserAction(context.Background()))

	payloads := h.channel.payloads(t)
	require.Len(t, payloads, 1)
	text, _ := payloads[0].Get(action.KeyText)
	assert.Equal(t, "hello", text)
}

func TestDismissalOutcomes(t *testing.T) {
	tests := []struct {
		reason notify.CloseReason
		want   action.Kind
	}{
		{notify.ReasonDismissed, action.Dismissed},
		{notify.ReasonExpired, action.Timedout},
		{notify.ReasonClosedByCall, action.Hidden},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			h := newHarness(t, true)
			s := h.display(t, request(nil))

			h.notifier.emit(t, s.ServerID(), notify.Event{Kind: notify.EventClosed, Reason: tt.reason})
			assert.Equal(t, tt.want, s.UserAction(context.Background()))

			payloads := h.channel.payloads(t)
			require.Len(t, payloads, 1)
			assert.Equal(t, tt.want, payloads[0].Action)
		})
	}
}

func TestFirstOutcomeWins(t *testing.T) {
	h := newHarness(t, false)
	s := h.display(t, request(nil))

	h.notifier.emit(t, s.ServerID(), notify.Event{Kind: notify.EventActionInvoked, ActionKey: notify.ActionDefault})
	h.notifier.emit(t, s.ServerID(), notify.Event{Kind: notify.EventClosed, Reason: notify.ReasonDismissed})
	assert.Equal(t, action.Clicked, s.UserAction(context.Background()))

	s.Release()
	payloads := h.channel.payloads(t)
	require.Len(t, payloads, 1)
	assert.Equal(t, action.Clicked, payloads[0].Action)
}

func TestUnknownActionIsError(t *testing.T) {
	h := newHarness(t, false)
	s := h.display(t, request(nil))

	h.notifier.emit(t, s.ServerID(), notify.Event{Kind: notify.EventActionInvoked, ActionKey: "garbage"})
	assert.Equal(t, action.Error, s.UserAction(context.Background()))
}

func TestUserActionTimesOut(t *testing.T) {
	h := newHarness(t, true)
	h.deps.Timeout = 50 * time.Millisecond
	s := h.display(t, request(nil))

	assert.Equal(t, action.Error, s.UserAction(context.Background()))
	require.Len(t, h.hookRuns, 1)
	assert.Equal(t, action.Error, h.hookRuns[0].Outcome)
}

func TestInhibitedShowsWithoutCallbacks(t *testing.T) {
	h := newHarness(t, true)
	h.notifier.inhibited = true
	h.deps.Timeout = 50 * time.Millisecond
	s := h.display(t, request(nil))

	assert.Len(t, h.notifier.shown, 1)
	assert.Empty(t, h.notifier.subs)
	assert.Equal(t, action.Error, s.UserAction(context.Background()))
}

func TestCloseFromAnotherProcessHides(t *testing.T) {
	h := newHarness(t, true)
	s := h.display(t, request(nil))

	other := bridge.NewRegistry(h.registry.Dir(), nil)
	defer other.Close()
	closer, err := New(request(nil), Deps{Notifier: newFakeNotifier(), Registry: other, Registered: func(string) bool { return false }})
	require.NoError(t, err)
	defer closer.Release()

	assert.True(t, closer.CloseNotification(context.Background()))
	assert.Equal(t, action.Hidden, s.UserAction(context.Background()))
	assert.Equal(t, []uint32{s.ServerID()}, h.notifier.closedIDs())

	payloads := h.channel.payloads(t)
	require.Len(t, payloads, 1)
	assert.Equal(t, action.Hidden, payloads[0].Action)
}

func TestCloseNotificationFromHistory(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()
	require.NoError(t, h.store.Record(ctx, history.Entry{AppID: appID, Tag: "42", ServerID: 77}))

	s, err := New(request(nil), h.deps)
	require.NoError(t, err)
	defer s.Release()

	assert.True(t, s.CloseNotification(ctx))
	assert.Equal(t, []uint32{77}, h.notifier.closedIDs())

	_, err = h.store.Find(ctx, appID, history.DefaultGroup, "42")
	assert.ErrorIs(t, err, history.ErrEntryNotFound)

	assert.False(t, s.CloseNotification(ctx))
}

func TestCloseAfterUserAnswered(t *testing.T) {
	tests := []struct {
		name   string
		reason notify.CloseReason
	}{
		{"dismissed", notify.ReasonDismissed},
		{"expired", notify.ReasonExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, true)
			ctx := context.Background()
			shown := h.display(t, request(nil))
			h.notifier.emit(t, shown.ServerID(), notify.Event{Kind: notify.EventClosed, Reason: tt.reason})
			shown.UserAction(ctx)
			shown.Release()

			closer, err := New(request(nil), h.deps)
			require.NoError(t, err)
			defer closer.Release()

			assert.False(t, closer.CloseNotification(ctx))
			assert.Empty(t, h.notifier.closedIDs())

			entry, err := h.store.Find(ctx, appID, history.DefaultGroup, "42")
			require.NoError(t, err, "resolved entries stay listed")
			assert.True(t, entry.Resolved)
		})
	}
}

func TestCloseAfterTimedOutWait(t *testing.T) {
	h := newHarness(t, true)
	h.deps.Timeout = 50 * time.Millisecond
	ctx := context.Background()
	shown := h.display(t, request(nil))
	require.Equal(t, action.Error, shown.UserAction(ctx))
	shown.Release()

	closer, err := New(request(nil), h.deps)
	require.NoError(t, err)
	defer closer.Release()

	assert.True(t, closer.CloseNotification(ctx))
	assert.Equal(t, []uint32{shown.ServerID()}, h.notifier.closedIDs())
}

func TestCloseKeepsHistoryWhenServiceFails(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()
	require.NoError(t, h.store.Record(ctx, history.Entry{AppID: appID, Tag: "42", ServerID: 77}))
	h.notifier.closeErr = errors.New("bus gone")

	s, err := New(request(nil), h.deps)
	require.NoError(t, err)
	defer s.Release()

	assert.False(t, s.CloseNotification(ctx))
	_, err = h.store.Find(ctx, appID, history.DefaultGroup, "42")
	require.NoError(t, err)

	h.notifier.closeErr = nil
	assert.True(t, s.CloseNotification(ctx))
	assert.Equal(t, []uint32{77}, h.notifier.closedIDs())
}

func TestCloseNotificationWithoutHistory(t *testing.T) {
	h := newHarness(t, true)
	h.deps.History = nil
	s, err := New(request(nil), h.deps)
	require.NoError(t, err)
	defer s.Release()

	assert.False(t, s.CloseNotification(context.Background()))
}

func TestReleaseIsIdempotent(t *testing.T) {
	h := newHarness(t, true)
	s := h.display(t, request(nil))

	s.Release()
	s.Release()
	assert.Equal(t, 1, h.guard.released)

	_, ok := h.registry.Open(bridge.EventName("42"))
	assert.False(t, ok)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "awaiting-result", AwaitingResult.String())
	assert.Equal(t, "unknown", State(99).String())
}

func TestMissingCapabilities(t *testing.T) {
	buttons := request(func(r *toast.Request) { r.Buttons = []string{"Yes"} })
	reply := request(func(r *toast.Request) { r.TextInput = true })

	assert.Empty(t, missingCapabilities(buttons, nil))
	assert.Empty(t, missingCapabilities(buttons, []string{"body", "actions"}))
	assert.Equal(t, []string{notify.CapabilityActions}, missingCapabilities(buttons, []string{"body"}))
	assert.Equal(t, []string{notify.CapabilityInlineReply}, missingCapabilities(reply, []string{"actions"}))
	assert.Empty(t, missingCapabilities(request(nil), []string{}))
}

package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristianoliveira/ntfytoast/cmd"
	"github.com/cristianoliveira/ntfytoast/internal/action"
	"github.com/cristianoliveira/ntfytoast/internal/app"
	"github.com/cristianoliveira/ntfytoast/internal/bridge"
	ntfyerrors "github.com/cristianoliveira/ntfytoast/internal/errors"
	"github.com/cristianoliveira/ntfytoast/internal/history"
	"github.com/cristianoliveira/ntfytoast/internal/shortcut"
	"github.com/cristianoliveira/ntfytoast/internal/toast"
)

type fakeToast struct {
	outcome action.Kind
	closed  bool
	title   string
}

func (f *fakeToast) DisplayToast(_ context.Context, title, _, _ string) error {
	f.title = title
	return nil
}
func (f *fakeToast) UserAction(context.Context) action.Kind { return f.outcome }
func (f *fakeToast) CloseNotification(context.Context) bool { return f.closed }
func (f *fakeToast) UseFallbackMode() bool                  { return false }
func (f *fakeToast) Release()                               {}

type fakeClient struct {
	toast    *fakeToast
	requests []toast.Request

	installed []shortcut.Options
	entries   []history.Entry
	payload   action.Payload
	waited    []string
	caps      []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{toast: &fakeToast{outcome: action.Clicked}}
}

func (f *fakeClient) EnsureIdentity(string) error  { return nil }
func (f *fakeClient) DefaultIcon() (string, error) { return "", nil }

func (f *fakeClient) NewSession(req toast.Request) (app.Toast, error) {
	f.requests = append(f.requests, req)
	return f.toast, nil
}

func (f *fakeClient) NewCloseSession(req toast.Request) (app.Toast, error) {
	return f.NewSession(req)
}

func (f *fakeClient) Install(opts shortcut.Options) (shortcut.Result, error) {
	f.installed = append(f.installed, opts)
	return shortcut.Result{}, nil
}

func (f *fakeClient) ListHistory(context.Context, string, int) ([]history.Entry, error) {
	return f.entries, nil
}

func (f *fakeClient) Activate(context.Context, string, string, []bridge.Input) (action.Payload, error) {
	return f.payload, nil
}

func (f *fakeClient) WaitForCallbackActivation(_ context.Context, appID string, _ time.Duration) (bridge.WaitResult, error) {
	f.waited = append(f.waited, appID)
	return bridge.Signaled, nil
}

func (f *fakeClient) Listen(string) (app.Receiver, error) {
	return nil, ntfyerrors.New(ntfyerrors.ChannelUnavailable, "test", "in use")
}

func (f *fakeClient) Capabilities() ([]string, error) { return f.caps, nil }

func execute(t *testing.T, c *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c.SetOut(&out)
	c.SetErr(&out)
	c.SetArgs(args)
	err := c.ExecuteContext(context.Background())
	return out.String(), err
}

func TestConstructorsPanicWhenClientIsNil(t *testing.T) {
	ctors := map[string]func(){
		"NewCloseCmd":     func() { NewCloseCmd(nil) },
		"NewInstallCmd":   func() { NewInstallCmd(nil) },
		"NewVersionCmd":   func() { NewVersionCmd(nil) },
		"NewListenCmd":    func() { NewListenCmd(nil) },
		"NewHistoryCmd":   func() { NewHistoryCmd(nil) },
		"NewActivateCmd":  func() { NewActivateCmd(nil) },
		"configureRoot":   func() { configureRoot(&cobra.Command{}, nil) },
		"embeddedHandler": func() { embeddedHandler(nil) },
	}
	for name, ctor := range ctors {
		t.Run(name, func(t *testing.T) {
			assert.PanicsWithValue(t, name+": client dependency cannot be nil", ctor)
		})
	}
}

func TestRootNotifies(t *testing.T) {
	client := newFakeClient()
	client.toast.outcome = action.ButtonClicked
	root := configureRoot(&cobra.Command{Use: "ntfytoast"}, client)

	_, err := execute(t, root, "-t", "Build", "-m", "done", "-b", "Open;Later", "--appid", "org.example.CI", "--id", "9", "-d", "long")

	var status *cmd.ExitStatus
	require.True(t, errors.As(err, &status))
	assert.Equal(t, action.ButtonClicked, status.Kind)
	require.Len(t, client.requests, 1)
	req := client.requests[0]
	assert.Equal(t, "org.example.CI", req.AppID)
	assert.Equal(t, "9", req.ID)
	assert.Equal(t, []string{"Open", "Later"}, req.Buttons)
	assert.Equal(t, toast.Long, req.Duration)
	assert.Equal(t, "Build", client.toast.title)
}

func TestRootClickedExitsCleanly(t *testing.T) {
	client := newFakeClient()
	root := configureRoot(&cobra.Command{Use: "ntfytoast"}, client)

	_, err := execute(t, root, "--title", "a", "--message", "b", "--silent", "--persistent")
	require.NoError(t, err)
	assert.True(t, client.requests[0].Silent)
	assert.True(t, client.requests[0].Persistent)
}

func TestRootWithoutContentShowsHelp(t *testing.T) {
	client := newFakeClient()
	root := configureRoot(&cobra.Command{Use: "ntfytoast"}, client)

	_, err := execute(t, root, "-t", "only a title")
	require.NoError(t, err)
	assert.Empty(t, client.requests)
}

func TestRootTextBoxWithoutPipe(t *testing.T) {
	root := configureRoot(&cobra.Command{Use: "ntfytoast"}, newFakeClient())

	_, err := execute(t, root, "-t", "a", "-m", "b", "--textbox")
	assert.True(t, errors.Is(err, ntfyerrors.NoChannelConfigured))
}

func TestCloseCmd(t *testing.T) {
	client := newFakeClient()

	client.toast.closed = true
	_, err := execute(t, NewCloseCmd(client), "7", "--appid", "org.example.CI")
	require.NoError(t, err)
	assert.Equal(t, toast.Request{AppID: "org.example.CI", ID: "7"}, client.requests[0])

	client.toast.closed = false
	_, err = execute(t, NewCloseCmd(client), "8", "--appid", "org.example.CI")
	var status *cmd.ExitStatus
	require.True(t, errors.As(err, &status))
	assert.Equal(t, action.Error, status.Kind)

	_, err = execute(t, NewCloseCmd(client))
	assert.Error(t, err)
}

func TestInstallCmd(t *testing.T) {
	client := newFakeClient()

	_, err := execute(t, NewInstallCmd(client), "Mail", "/usr/bin/mail")
	assert.True(t, errors.Is(err, ntfyerrors.ValidationFailed))

	_, err = execute(t, NewInstallCmd(client), "Mail", "/usr/bin/mail", "org.example.Mail")
	require.NoError(t, err)
	assert.Equal(t, shortcut.Options{Shortcut: "Mail", Exec: "/usr/bin/mail", AppID: "org.example.Mail"}, client.installed[0])
}

func TestVersionCmd(t *testing.T) {
	client := newFakeClient()
	client.caps = []string{"actions"}

	out, err := execute(t, NewVersionCmd(client), "--appid", "org.example.Mail")
	require.NoError(t, err)
	assert.Contains(t, out, "org.example.Mail")
	assert.Contains(t, out, "actions")
}

func TestHistoryCmd(t *testing.T) {
	client := newFakeClient()
	client.entries = []history.Entry{{AppID: "org.example.CI", Tag: "3", Title: "Deploy", CreatedAt: time.Now()}}

	out, err := execute(t, NewHistoryCmd(client), "-n", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Deploy")
}

func TestListenCmdReportsChannelErrors(t *testing.T) {
	_, err := execute(t, NewListenCmd(newFakeClient()), "/tmp/x.sock")
	assert.True(t, errors.Is(err, ntfyerrors.ChannelUnavailable))
}

func TestActivateCmd(t *testing.T) {
	client := newFakeClient()
	client.payload = action.Payload{Action: action.Dismissed}

	_, err := execute(t, NewActivateCmd(client), "action=dismissed;notificationId=1;")
	var status *cmd.ExitStatus
	require.True(t, errors.As(err, &status))
	assert.Equal(t, action.Dismissed, status.Kind)

	client.payload = action.Payload{Action: action.Clicked}
	_, err = execute(t, NewActivateCmd(client), "action=clicked;", "--text", "hi")
	require.NoError(t, err)
}

func TestEmbeddedHandler(t *testing.T) {
	client := newFakeClient()
	handler := embeddedHandler(client)

	assert.Equal(t, action.Clicked, handler(context.Background(), "org.example.Mail"))
	assert.Equal(t, action.Clicked, handler(context.Background(), ""))
	require.Len(t, client.waited, 2)
	assert.Equal(t, "org.example.Mail", client.waited[0])
	assert.True(t, strings.Contains(client.waited[1], "."), "falls back to the configured app id")
}

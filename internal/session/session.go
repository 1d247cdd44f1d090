// Package session drives one notification from submission to its outcome.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/cristianoliveira/ntfytoast/internal/action"
	"github.com/cristianoliveira/ntfytoast/internal/bridge"
	"github.com/cristianoliveira/ntfytoast/internal/colors"
	ntfyerrors "github.com/cristianoliveira/ntfytoast/internal/errors"
	"github.com/cristianoliveira/ntfytoast/internal/history"
	"github.com/cristianoliveira/ntfytoast/internal/hooks"
	"github.com/cristianoliveira/ntfytoast/internal/logging"
	"github.com/cristianoliveira/ntfytoast/internal/notify"
	"github.com/cristianoliveira/ntfytoast/internal/toast"
)

// DefaultTimeout bounds UserAction.
const DefaultTimeout = 60 * time.Second

// ActivationHandler routes an activation the way an out-of-process
// activation would be handled. *bridge.Callback satisfies it.
type ActivationHandler interface {
	Activate(ctx context.Context, appID, invokedArgs string, inputs []bridge.Input) (action.Payload, error)
}

// Guard keeps the activation endpoint registered while held.
// *activator.Registrar satisfies it.
type Guard interface {
	Acquire() (release func(), err error)
}

// History persists shown notifications. *history.Store satisfies it.
type History interface {
	Record(ctx context.Context, e history.Entry) error
	SetOutcome(ctx context.Context, appID, group, tag string, kind action.Kind) error
	Find(ctx context.Context, appID, group, tag string) (history.Entry, error)
	Remove(ctx context.Context, appID, group, tag string) (history.Entry, error)
}

// Deps are the collaborators of a session. Notifier and Registry are
// required; the rest are optional.
type Deps struct {
	Notifier  notify.Notifier
	Registry  *bridge.Registry
	Channel   bridge.Deliverer
	Callback  ActivationHandler
	Activator Guard
	History   History
	// Registered reports whether the app identity is installed. When it
	// returns false the session runs in fallback mode.
	Registered func(appID string) bool
	// Hooks runs after the outcome is resolved.
	Hooks   func(hooks.Result) error
	Logger  logging.Logger
	Stdout  io.Writer
	Timeout time.Duration
	PID     int
}

// Session is one notification. It is not reusable: create a new session for
// every notification.
type Session struct {
	req      toast.Request
	deps     Deps
	logger   logging.Logger
	fallback bool

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	state        State
	event        *bridge.Event
	notification notify.Notification
	serverID     uint32
	unsubscribe  func()
	release      func()
	handled      bool
	button       string
	text         string

	watchDone   chan struct{}
	releaseOnce sync.Once
}

// New prepares a session for req. The notification id defaults to the
// process id.
func New(req toast.Request, deps Deps) (*Session, error) {
	if deps.Notifier == nil || deps.Registry == nil {
		return nil, ntfyerrors.New(ntfyerrors.ValidationFailed, "session.New", "notifier and registry are required")
	}
	if deps.PID == 0 {
		deps.PID = os.Getpid()
	}
	if deps.Timeout <= 0 {
		deps.Timeout = DefaultTimeout
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}
	if req.ID == "" {
		req.ID = strconv.Itoa(deps.PID)
	}

	s := &Session{
		req:    req,
		deps:   deps,
		logger: deps.Logger.With("notification_id", req.ID, "app_id", req.AppID),
		state:  Constructed,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	if deps.Registered != nil && !deps.Registered(req.AppID) {
		s.fallback = true
		s.logger.Info("app identity not registered, using fallback mode")
	}
	if !s.fallback && deps.Activator != nil {
		release, err := deps.Activator.Acquire()
		if err != nil {
			s.logger.Warn("activation endpoint unavailable", "error", err)
		} else {
			s.release = release
		}
	}
	return s, nil
}

// ID returns the notification id.
func (s *Session) ID() string {
	return s.req.ID
}

// Request returns the request as it will be or was displayed.
func (s *Session) Request() toast.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.req
}

// UseFallbackMode reports whether activations bypass the registered
// identity and are written to the delivery channel by this process.
func (s *Session) UseFallbackMode() bool {
	return s.fallback
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ServerID returns the rendering service id of the shown notification.
func (s *Session) ServerID() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serverID
}

// DisplayToast validates, builds and submits the notification, then
// listens for its outcome.
func (s *Session) DisplayToast(ctx context.Context, title, body, image string) error {
	const op = "session.DisplayToast"

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Constructed {
		return ntfyerrors.New(ntfyerrors.ValidationFailed, op, "notification already displayed")
	}

	s.req.Title, s.req.Body, s.req.Image = title, body, image
	if err := s.req.Validate(); err != nil {
		s.state = ErrorAborted
		return err
	}
	if s.req.TextInput && s.req.Pipe == "" {
		s.state = ErrorAborted
		return ntfyerrors.New(ntfyerrors.NoChannelConfigured, op,
			"text box notifications only work if a pipe for the result was provided")
	}

	doc, err := toast.Build(s.req)
	if err != nil {
		s.state = ErrorAborted
		return err
	}
	if colors.DebugEnabled() {
		if xml, err := doc.XML(); err == nil {
			s.logger.Debug("toast document", "xml", xml)
		}
	}
	n, err := notify.FromDocument(doc, s.req.AppID)
	if err != nil {
		s.state = ErrorAborted
		return err
	}

	inhibited, err := s.deps.Notifier.Inhibited()
	if err != nil {
		s.logger.Debug("could not query inhibition", "error", err)
	}
	if inhibited {
		colors.Warning("Notifications are disabled for this session; the result cannot be reported.")
	}
	if s.req.Interactive() {
		caps, err := s.deps.Notifier.Capabilities()
		if err != nil {
			s.logger.Debug("could not query capabilities", "error", err)
		}
		for _, c := range missingCapabilities(s.req, caps) {
			colors.Warning(fmt.Sprintf("The notification server does not support %q; the notification may show without it.", c))
		}
	}

	s.event = s.deps.Registry.Create(bridge.EventName(s.req.ID))

	id, err := s.deps.Notifier.Notify(ctx, n)
	if err != nil {
		s.state = ErrorAborted
		s.logger.Error("submission failed", "error", err)
		colors.StructuredWarn("session", "display", "failed", err, s.req.ID, map[string]any{"app_id": s.req.AppID})
		if errors.Is(err, ntfyerrors.SubmissionFailed) {
			return err
		}
		return ntfyerrors.Wrap(ntfyerrors.SubmissionFailed, op, err)
	}
	s.notification = n
	s.serverID = id
	s.logger.Info("notification shown", "server_id", id, "fallback", s.fallback)
	colors.StructuredDebug("session", "display", "submitted", nil, s.req.ID,
		map[string]any{"app_id": s.req.AppID, "server_id": id, "fallback": s.fallback})

	if s.deps.History != nil {
		entry := history.Entry{
			AppID:    s.req.AppID,
			Group:    history.DefaultGroup,
			Tag:      s.req.ID,
			ServerID: id,
			Title:    s.req.Title,
			Body:     s.req.Body,
		}
		if err := s.deps.History.Record(ctx, entry); err != nil {
			s.logger.Warn("history record failed", "error", err)
		}
	}

	if !inhibited {
		events, cancel := s.deps.Notifier.Subscribe(id)
		s.unsubscribe = cancel
		s.watchDone = make(chan struct{})
		go s.watch(events, s.watchDone)
	}
	s.state = Submitted
	return nil
}

func (s *Session) watch(events <-chan notify.Event, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				s.fail()
				return
			}
			s.handle(ev)
		}
	}
}

func (s *Session) handle(ev notify.Event) {
	switch ev.Kind {
	case notify.EventActionInvoked:
		s.activated(s.notification.Arguments(ev.ActionKey), nil)
	case notify.EventReplied:
		s.activated(s.notification.ReplyArguments, []bridge.Input{{Key: toast.TextBoxID, Value: ev.Text}})
	case notify.EventClosed:
		s.dismissed(ev.Reason.Outcome())
	}
}

// claim marks the notification handled. Only the first handler wins.
func (s *Session) claim() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handled {
		return false
	}
	s.handled = true
	return true
}

func (s *Session) activated(args string, inputs []bridge.Input) {
	if !s.claim() {
		return
	}
	p, err := action.DecodePayload(args)
	if err != nil {
		s.logger.Warn("activation payload not understood", "args", args, "error", err)
		s.event.SignalWith(action.Error)
		return
	}

	switch p.Action {
	case action.TextEntered:
		s.logger.Info("The user entered a text.")
	case action.Clicked:
		s.logger.Info("The user clicked on the toast.")
	case action.ButtonClicked:
		s.logger.Info("The user clicked on a toast button.")
		button, _ := p.Get(action.KeyButton)
		s.setResult(button, "")
		fmt.Fprintln(s.deps.Stdout, button)
	}

	if s.fallback || s.deps.Callback == nil {
		extra := []action.Field{}
		if button, ok := p.Get(action.KeyButton); ok {
			extra = append(extra, action.Field{Key: action.KeyButton, Value: button})
		}
		if p.Action == action.TextEntered {
			if text, ok := bridge.UserText(inputs); ok {
				s.setResult("", text)
				extra = append(extra, action.Field{Key: action.KeyText, Value: text})
			}
		}
		s.writePipe(p.Action, extra...)
	} else {
		routed, err := s.deps.Callback.Activate(s.ctx, s.req.AppID, args, inputs)
		if err != nil {
			s.logger.Warn("activation callback failed", "error", err)
		}
		if text, ok := routed.Get(action.KeyText); ok {
			s.setResult("", text)
		}
	}
	s.event.SignalWith(p.Action)
}

func (s *Session) dismissed(kind action.Kind) {
	if !s.claim() {
		return
	}
	switch kind {
	case action.Hidden:
		s.logger.Info("The application hid the toast")
	case action.Dismissed:
		s.logger.Info("The user dismissed this toast")
	case action.Timedout:
		s.logger.Info("The toast has timed out")
	}
	s.writePipe(kind)
	s.event.SignalWith(kind)
}

func (s *Session) fail() {
	if !s.claim() {
		return
	}
	colors.Error("ntfytoast lost the connection to the notification service.")
	colors.Error("Please make sure that the app id is set correctly.")
	s.event.SignalWith(action.Error)
}

func (s *Session) setResult(button, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if button != "" {
		s.button = button
	}
	if text != "" {
		s.text = text
	}
}

// writePipe delivers the session's own payload for kind to the configured
// channel.
func (s *Session) writePipe(kind action.Kind, extra ...action.Field) {
	if s.req.Pipe == "" || s.deps.Channel == nil {
		return
	}
	p := action.Payload{
		Action:         kind,
		NotificationID: s.req.ID,
		Pipe:           s.req.Pipe,
		Application:    s.req.Application,
		Extra:          extra,
	}
	if !s.deps.Channel.Deliver(s.ctx, s.req.Pipe, p.Encode(), false) {
		s.logger.Warn("result delivery failed", "pipe", s.req.Pipe, "action", kind.String())
	}
}

// missingCapabilities lists the server capabilities req needs but caps
// lacks. A nil caps means unknown and reports nothing.
func missingCapabilities(req toast.Request, caps []string) []string {
	if caps == nil {
		return nil
	}
	var missing []string
	if len(req.Buttons) > 0 && !notify.Has(caps, notify.CapabilityActions) {
		missing = append(missing, notify.CapabilityActions)
	}
	if req.TextInput && !notify.Has(caps, notify.CapabilityInlineReply) {
		missing = append(missing, notify.CapabilityInlineReply)
	}
	return missing
}

// UserAction waits for the outcome of the displayed notification. A wait
// that times out yields Error. A wake-up without a recorded outcome means
// the notification was closed from elsewhere: it is hidden and Hidden is
// returned.
func (s *Session) UserAction(ctx context.Context) action.Kind {
	s.mu.Lock()
	if s.state != Submitted {
		state := s.state
		s.mu.Unlock()
		s.logger.Warn("no notification to wait for", "state", state.String())
		return action.Error
	}
	s.state = AwaitingResult
	ev := s.event
	s.mu.Unlock()

	kind := action.Error
	switch ev.Wait(ctx, s.deps.Timeout) {
	case bridge.Signaled:
		if recorded, ok := ev.Outcome(); ok {
			kind = recorded
		} else {
			kind = action.Hidden
			s.hide()
		}
	case bridge.TimedOut:
		s.logger.Warn("timed out waiting for the user", "timeout", s.deps.Timeout.String())
	}

	s.mu.Lock()
	s.state = Resolved
	result := hooks.Result{
		AppID:          s.req.AppID,
		NotificationID: s.req.ID,
		Outcome:        kind,
		Button:         s.button,
		Text:           s.text,
		Pipe:           s.req.Pipe,
	}
	s.mu.Unlock()

	s.logger.Info("notification resolved", "action", kind.String())
	colors.StructuredDebug("session", "await", kind.String(), nil, s.req.ID, map[string]any{"app_id": s.req.AppID})
	if s.deps.History != nil {
		if err := s.deps.History.SetOutcome(ctx, s.req.AppID, history.DefaultGroup, s.req.ID, kind); err != nil {
			s.logger.Warn("history update failed", "error", err)
		}
	}
	if s.deps.Hooks != nil {
		if err := s.deps.Hooks(result); err != nil {
			colors.Warning(fmt.Sprintf("post-action hook failed: %v", err))
		}
	}
	return kind
}

// hide retracts the notification after an external close and reports Hidden
// to the channel.
func (s *Session) hide() {
	if s.claim() {
		s.writePipe(action.Hidden)
	}
	if err := s.deps.Notifier.Close(s.ServerID()); err != nil {
		s.logger.Warn("hide failed", "error", err)
	}
}

// CloseNotification closes the notification with this session's id. A
// process still waiting on it is woken; otherwise an unresolved history entry
// is closed on the rendering service and then removed. It never waits for a
// result.
func (s *Session) CloseNotification(ctx context.Context) bool {
	name := bridge.EventName(s.req.ID)
	if s.deps.Registry.Signal(name) {
		s.logger.Info("signaled waiting process")
		return true
	}
	if s.deps.History == nil {
		return false
	}
	entry, err := s.deps.History.Find(ctx, s.req.AppID, history.DefaultGroup, s.req.ID)
	if err != nil {
		if !errors.Is(err, history.ErrEntryNotFound) {
			s.logger.Warn("history lookup failed", "error", err)
		}
		return false
	}
	// answered notifications are gone from the screen; a wait that timed out
	// (Error) leaves its notification up
	if entry.Resolved && entry.Outcome != action.Error {
		s.logger.Debug("notification already resolved", "outcome", entry.Outcome.String())
		return false
	}
	if err := s.deps.Notifier.Close(entry.ServerID); err != nil {
		s.logger.Warn("close failed", "server_id", entry.ServerID, "error", err)
		return false
	}
	if _, err := s.deps.History.Remove(ctx, s.req.AppID, history.DefaultGroup, s.req.ID); err != nil {
		s.logger.Warn("history remove failed", "error", err)
	}
	s.logger.Info("closed notification from history", "server_id", entry.ServerID)
	return true
}

// Release stops listening for events, closes the event and releases the
// activation endpoint. It is safe to call more than once.
func (s *Session) Release() {
	s.releaseOnce.Do(func() {
		s.cancel()
		s.mu.Lock()
		unsubscribe, done, ev, release := s.unsubscribe, s.watchDone, s.event, s.release
		s.mu.Unlock()

		if unsubscribe != nil {
			unsubscribe()
		}
		if done != nil {
			<-done
		}
		if ev != nil {
			ev.Close()
		}
		if release != nil {
			release()
		}
	})
}

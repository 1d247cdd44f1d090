//go:build linux

package notify

import (
	"context"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/cristianoliveira/ntfytoast/internal/colors"
	ntfyerrors "github.com/cristianoliveira/ntfytoast/internal/errors"
)

const (
	dbusNotifyDest      = "org.freedesktop.Notifications"
	dbusNotifyPath      = "/org/freedesktop/Notifications"
	dbusNotifyInterface = "org.freedesktop.Notifications"

	signalActionInvoked = dbusNotifyInterface + ".ActionInvoked"
	signalClosed        = dbusNotifyInterface + ".NotificationClosed"
	signalReplied       = dbusNotifyInterface + ".NotificationReplied"

	// maxPending bounds events kept for notifications nobody subscribed to yet.
	maxPending = 64
)

type dbusNotifier struct {
	conn    *dbus.Conn
	obj     dbus.BusObject
	signals chan *dbus.Signal
	stop    chan struct{}
	done    chan struct{}

	mu      sync.Mutex
	subs    map[uint32][]chan Event
	pending []Event
	closed  bool
}

// New connects to the session bus notification service.
func New() (Notifier, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, ntfyerrors.Wrap(ntfyerrors.SubmissionFailed, "notify.New", err)
	}
	return NewWithConn(conn)
}

// NewWithConn uses an existing bus connection. The notifier owns conn.
func NewWithConn(conn *dbus.Conn) (Notifier, error) {
	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(dbusNotifyPath),
		dbus.WithMatchInterface(dbusNotifyInterface),
	); err != nil {
		conn.Close()
		return nil, ntfyerrors.Wrap(ntfyerrors.SubmissionFailed, "notify.New", err)
	}
	n := &dbusNotifier{
		conn:    conn,
		obj:     conn.Object(dbusNotifyDest, dbusNotifyPath),
		signals: make(chan *dbus.Signal, 16),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		subs:    make(map[uint32][]chan Event),
	}
	conn.Signal(n.signals)
	go n.dispatch()
	return n, nil
}

func (n *dbusNotifier) Notify(ctx context.Context, msg Notification) (uint32, error) {
	actions := make([]string, 0, len(msg.Actions)*2)
	for _, a := range msg.Actions {
		actions = append(actions, a.Key, a.Label)
	}

	call := n.obj.CallWithContext(ctx, dbusNotifyInterface+".Notify", 0,
		msg.AppName,
		msg.ReplacesID,
		msg.Icon,
		msg.Summary,
		msg.Body,
		actions,
		hintMap(msg.Hints),
		msg.Timeout,
	)
	if call.Err != nil {
		return 0, ntfyerrors.Wrap(ntfyerrors.SubmissionFailed, "notify.Notify", call.Err)
	}
	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, ntfyerrors.Wrap(ntfyerrors.SubmissionFailed, "notify.Notify", err)
	}
	return id, nil
}

func hintMap(h Hints) map[string]dbus.Variant {
	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(byte(h.Urgency)),
	}
	if h.DesktopEntry != "" {
		hints["desktop-entry"] = dbus.MakeVariant(h.DesktopEntry)
	}
	if h.ImagePath != "" {
		hints["image-path"] = dbus.MakeVariant(h.ImagePath)
	}
	if h.SoundName != "" {
		hints["sound-name"] = dbus.MakeVariant(h.SoundName)
	}
	if h.SuppressSound {
		hints["suppress-sound"] = dbus.MakeVariant(true)
	}
	if h.ReplyPlaceholder != "" {
		hints["x-kde-reply-placeholder-text"] = dbus.MakeVariant(h.ReplyPlaceholder)
	}
	return hints
}

func (n *dbusNotifier) Close(id uint32) error {
	if id == 0 {
		return nil
	}
	call := n.obj.Call(dbusNotifyInterface+".CloseNotification", 0, id)
	if call.Err != nil {
		return ntfyerrors.Wrap(ntfyerrors.SubmissionFailed, "notify.Close", call.Err)
	}
	return nil
}

func (n *dbusNotifier) Subscribe(id uint32) (<-chan Event, func()) {
	ch := make(chan Event, 8)

	n.mu.Lock()
	kept := n.pending[:0]
	for _, ev := range n.pending {
		if ev.ID == id {
			select {
			case ch <- ev:
			default:
			}
			continue
		}
		kept = append(kept, ev)
	}
	n.pending = kept
	n.subs[id] = append(n.subs[id], ch)
	n.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			subs := n.subs[id]
			for i, c := range subs {
				if c == ch {
					n.subs[id] = append(subs[:i], subs[i+1:]...)
					break
				}
			}
			if len(n.subs[id]) == 0 {
				delete(n.subs, id)
			}
		})
	}
	return ch, cancel
}

func (n *dbusNotifier) Inhibited() (bool, error) {
	v, err := n.obj.GetProperty(dbusNotifyInterface + ".Inhibited")
	if err != nil {
		// Older servers do not expose the property.
		colors.Debug("notification server has no Inhibited property: " + err.Error())
		return false, nil
	}
	inhibited, _ := v.Value().(bool)
	return inhibited, nil
}

func (n *dbusNotifier) Capabilities() ([]string, error) {
	var caps []string
	if err := n.obj.Call(dbusNotifyInterface+".GetCapabilities", 0).Store(&caps); err != nil {
		return nil, ntfyerrors.Wrap(ntfyerrors.SubmissionFailed, "notify.Capabilities", err)
	}
	return caps, nil
}

// Shutdown stops signal dispatch and closes the bus connection.
func (n *dbusNotifier) Shutdown() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	n.mu.Unlock()

	// godbus does not close a channel handed to RemoveSignal
	close(n.stop)
	<-n.done
	n.conn.RemoveSignal(n.signals)
	return n.conn.Close()
}

func (n *dbusNotifier) dispatch() {
	defer close(n.done)
	for {
		select {
		case <-n.stop:
			return
		case sig, ok := <-n.signals:
			if !ok {
				return
			}
			if ev, ok := parseSignal(sig); ok {
				n.deliver(ev)
			}
		}
	}
}

func (n *dbusNotifier) deliver(ev Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	subs := n.subs[ev.ID]
	if len(subs) == 0 {
		if len(n.pending) == maxPending {
			n.pending = n.pending[1:]
		}
		n.pending = append(n.pending, ev)
		return
	}
	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
			colors.Debug("dropping notification event for a slow subscriber")
		}
	}
}

func parseSignal(sig *dbus.Signal) (Event, bool) {
	if sig == nil || sig.Path != dbusNotifyPath || len(sig.Body) < 2 {
		return Event{}, false
	}
	id, ok := sig.Body[0].(uint32)
	if !ok {
		return Event{}, false
	}
	switch sig.Name {
	case signalActionInvoked:
		key, ok := sig.Body[1].(string)
		return Event{ID: id, Kind: EventActionInvoked, ActionKey: key}, ok
	case signalClosed:
		reason, ok := sig.Body[1].(uint32)
		return Event{ID: id, Kind: EventClosed, Reason: CloseReason(reason)}, ok
	case signalReplied:
		text, ok := sig.Body[1].(string)
		return Event{ID: id, Kind: EventReplied, Text: text}, ok
	}
	return Event{}, false
}

// Package notify talks to the desktop notification service
// (org.freedesktop.Notifications) and maps toast documents onto it.
package notify

import (
	"context"

	"github.com/cristianoliveira/ntfytoast/internal/action"
)

// Urgency represents notification priority levels per freedesktop spec.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// Action is a button offered by the notification. Key is what the service
// reports back when it is invoked.
type Action struct {
	Key   string
	Label string
}

// Hints are the notification hints ntfytoast sets.
type Hints struct {
	Urgency          Urgency
	DesktopEntry     string
	ImagePath        string
	SoundName        string
	SuppressSound    bool
	ReplyPlaceholder string
}

// Notification contains data for a desktop notification.
type Notification struct {
	AppName    string
	Icon       string
	Summary    string
	Body       string
	Actions    []Action
	Hints      Hints
	Timeout    int32  // ms, -1 = server default, 0 = never expire
	ReplacesID uint32 // 0 = new notification, >0 = replace existing

	// Payloads behind the well-known action keys. They are not sent to the
	// service.
	Launch         string
	ReplyArguments string
}

// CloseReason is why the service closed a notification.
type CloseReason uint32

const (
	ReasonExpired      CloseReason = 1
	ReasonDismissed    CloseReason = 2
	ReasonClosedByCall CloseReason = 3
	ReasonUndefined    CloseReason = 4
)

// Outcome maps a close reason onto the notification outcome.
func (r CloseReason) Outcome() action.Kind {
	switch r {
	case ReasonExpired:
		return action.Timedout
	case ReasonClosedByCall:
		return action.Hidden
	default:
		return action.Dismissed
	}
}

// EventKind tells the signals of the service apart.
type EventKind int

const (
	EventActionInvoked EventKind = iota
	EventClosed
	EventReplied
)

// Event is a signal concerning one notification.
type Event struct {
	ID        uint32
	Kind      EventKind
	ActionKey string
	Reason    CloseReason
	Text      string
}

// Notifier is the rendering service.
type Notifier interface {
	// Notify shows n and returns the service's id for it.
	Notify(ctx context.Context, n Notification) (uint32, error)
	// Close retracts a notification.
	Close(id uint32) error
	// Subscribe delivers events for id until cancel is called. Events that
	// arrived before the subscription are replayed.
	Subscribe(id uint32) (events <-chan Event, cancel func())
	// Inhibited reports whether the user has disabled notifications.
	Inhibited() (bool, error)
	// Capabilities lists the optional features of the service.
	Capabilities() ([]string, error)
}

// Well-known action keys.
const (
	ActionDefault     = "default"
	ActionInlineReply = "inline-reply"
)

// Capabilities ntfytoast relies on. Servers advertising inline replies use
// the action key as the capability name.
const (
	CapabilityActions     = "actions"
	CapabilityInlineReply = ActionInlineReply
)

// Has reports whether caps contains capability.
func Has(caps []string, capability string) bool {
	for _, c := range caps {
		if c == capability {
			return true
		}
	}
	return false
}

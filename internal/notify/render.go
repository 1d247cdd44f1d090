package notify

import (
	ntfyerrors "github.com/cristianoliveira/ntfytoast/internal/errors"
	"github.com/cristianoliveira/ntfytoast/internal/toast"
)

// Expiry per duration class, in milliseconds.
const (
	TimeoutShort = 7000
	TimeoutLong  = 25000
)

// soundNames maps toast sound selectors onto freedesktop sound theme names.
var soundNames = map[string]string{
	"Notification.Default":        "message-new-instant",
	"Notification.IM":             "message-new-instant",
	"Notification.Mail":           "message-new-email",
	"Notification.Reminder":       "alarm-clock-elapsed",
	"Notification.SMS":            "message",
	"Notification.Looping.Alarm":  "alarm-clock-elapsed",
	"Notification.Looping.Alarm2": "alarm-clock-elapsed",
	"Notification.Looping.Call":   "phone-incoming-call",
	"Notification.Looping.Call2":  "phone-incoming-call",
	"Default":                     "message-new-instant",
	"IM":                          "message-new-instant",
	"Mail":                        "message-new-email",
	"Reminder":                    "alarm-clock-elapsed",
	"SMS":                         "message",
}

// SoundName returns the freedesktop sound for a toast sound selector.
// Unknown selectors are passed through as theme names.
func SoundName(selector string) string {
	name := toast.SoundName(selector)
	if mapped, ok := soundNames[name]; ok {
		return mapped
	}
	if name == "" {
		return soundNames[toast.DefaultSound]
	}
	return name
}

// FromDocument renders a toast document as a notification for appID.
func FromDocument(doc *toast.Document, appID string) (Notification, error) {
	const op = "notify.FromDocument"
	texts := doc.Texts()
	if len(texts) < 2 {
		return Notification{}, ntfyerrors.New(ntfyerrors.DocumentBuildFailed, op, "document has no title and body")
	}

	n := Notification{
		AppName: appID,
		Summary: texts[0].Text,
		Body:    texts[1].Text,
		Timeout: TimeoutShort,
		Hints: Hints{
			Urgency:      UrgencyNormal,
			DesktopEntry: appID,
		},
	}

	if img := doc.Image(); img != nil {
		if src, _ := img.Attr("src"); src != "" {
			n.Icon = src
			n.Hints.ImagePath = src
		}
	}

	if d, _ := doc.Root.Attr("duration"); d == toast.Long.String() {
		n.Timeout = TimeoutLong
	}
	if _, ok := doc.Root.Attr("scenario"); ok {
		n.Timeout = 0
		n.Hints.Urgency = UrgencyCritical
	}

	if audio := doc.Audio(); audio != nil {
		src, _ := audio.Attr("src")
		n.Hints.SoundName = SoundName(src)
		if silent, _ := audio.Attr("silent"); silent == "true" {
			n.Hints.SuppressSound = true
		}
	}

	if launch, ok := doc.Root.Attr("launch"); ok {
		n.Launch = launch
		n.Actions = append(n.Actions, Action{Key: ActionDefault, Label: "Open"})
	}

	if actions := doc.Actions(); actions != nil {
		for _, child := range actions.Children {
			switch child.Name {
			case "input":
				n.Hints.ReplyPlaceholder, _ = child.Attr("placeHolderContent")
			case "action":
				args, _ := child.Attr("arguments")
				label, _ := child.Attr("content")
				if args == "" {
					return Notification{}, ntfyerrors.New(ntfyerrors.DocumentBuildFailed, op, "action "+label+" has no arguments")
				}
				if _, reply := child.Attr("hint-inputId"); reply {
					n.ReplyArguments = args
					n.Actions = append(n.Actions, Action{Key: ActionInlineReply, Label: label})
					continue
				}
				n.Actions = append(n.Actions, Action{Key: args, Label: label})
			}
		}
	}
	return n, nil
}

// Arguments returns the payload behind an invoked action key.
func (n Notification) Arguments(key string) string {
	switch key {
	case ActionDefault:
		return n.Launch
	case ActionInlineReply:
		return n.ReplyArguments
	}
	return key
}

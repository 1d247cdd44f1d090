package action

import (
	"strings"

	ntfyerrors "github.com/cristianoliveira/ntfytoast/internal/errors"
	"github.com/cristianoliveira/ntfytoast/internal/version"
)

// Payload keys.
const (
	KeyAction         = "action"
	KeyNotificationID = "notificationId"
	KeyPipe           = "pipe"
	KeyApplication    = "application"
	KeyButton         = "button"
	KeyText           = "text"
	KeyVersion        = "version"
)

const (
	fieldDelimiter = ";"
	keySeparator   = "="
)

// Field is an action-specific key/value pair appended after the fixed keys.
type Field struct {
	Key   string
	Value string
}

// Payload is the unit carried in launch arguments and over delivery channels.
type Payload struct {
	Action         Kind
	NotificationID string
	Pipe           string
	Application    string
	Extra          []Field
}

// Encode renders the payload. The fixed keys come first, then the extra
// fields in order, then the version. Empty values are omitted.
func (p Payload) Encode() string {
	fields := make([]Field, 0, 5+len(p.Extra))
	fields = append(fields,
		Field{KeyAction, p.Action.String()},
		Field{KeyNotificationID, p.NotificationID},
		Field{KeyPipe, p.Pipe},
		Field{KeyApplication, p.Application},
	)
	fields = append(fields, p.Extra...)
	return Format(fields...)
}

// Encode renders a payload with additional fields appended after the
// payload's own extra fields.
func Encode(p Payload, extra ...Field) string {
	p.Extra = append(append([]Field(nil), p.Extra...), extra...)
	return p.Encode()
}

// Format writes fields as key=value; pairs followed by the version field.
// Values are not escaped.
func Format(fields ...Field) string {
	var b strings.Builder
	add := func(key, value string) {
		if value == "" {
			return
		}
		b.WriteString(key)
		b.WriteString(keySeparator)
		b.WriteString(value)
		b.WriteString(fieldDelimiter)
	}
	for _, f := range fields {
		add(f.Key, f.Value)
	}
	add(KeyVersion, version.Version)
	return b.String()
}

// Decode splits a payload string into its key/value pairs. Segments without
// a separator, or with an empty key, are ignored. Decode never fails.
func Decode(s string) map[string]string {
	out := make(map[string]string)
	for _, segment := range strings.Split(s, fieldDelimiter) {
		pos := strings.Index(segment, keySeparator)
		if pos <= 0 {
			continue
		}
		value := segment[pos+1:]
		if value == "" {
			continue
		}
		out[segment[:pos]] = value
	}
	return out
}

// Interpret turns decoded data into a Payload. The action key is required;
// an unknown action yields kind Error. Keys outside the fixed set, except the
// version, are returned as extra fields in key order of well-known extras
// followed by the rest sorted by name.
func Interpret(data map[string]string) (Payload, error) {
	name, ok := data[KeyAction]
	if !ok {
		return Payload{Action: Error}, ntfyerrors.New(ntfyerrors.MissingField, "action.Interpret",
			"payload has no "+KeyAction+" field")
	}
	p := Payload{
		Action:         Parse(name),
		NotificationID: data[KeyNotificationID],
		Pipe:           data[KeyPipe],
		Application:    data[KeyApplication],
	}
	for _, key := range extraKeys(data) {
		p.Extra = append(p.Extra, Field{Key: key, Value: data[key]})
	}
	return p, nil
}

// Get returns the value of an extra field.
func (p Payload) Get(key string) (string, bool) {
	for _, f := range p.Extra {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// DecodePayload is Decode followed by Interpret.
func DecodePayload(s string) (Payload, error) {
	return Interpret(Decode(s))
}

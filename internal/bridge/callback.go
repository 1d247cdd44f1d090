package bridge

import (
	"context"
	"strings"

	"github.com/cristianoliveira/ntfytoast/internal/action"
	"github.com/cristianoliveira/ntfytoast/internal/colors"
	"github.com/cristianoliveira/ntfytoast/internal/logging"
)

// Input is a user-entered value reported with an activation, keyed by the
// id of the input element.
type Input struct {
	Key   string
	Value string
}

// Callback handles an activation as the rendering service reports it. It
// relies only on the payload, never on in-memory session state, so it works
// the same in a freshly started process.
type Callback struct {
	registry *Registry
	channel  Deliverer
	launcher Launcher
	logger   logging.Logger
	pid      int
}

// NewCallback wires a callback. pid names the process activation event.
func NewCallback(registry *Registry, channel Deliverer, launcher Launcher, logger logging.Logger, pid int) *Callback {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Callback{
		registry: registry,
		channel:  channel,
		launcher: launcher,
		logger:   logger,
		pid:      pid,
	}
}

// Activate decodes invokedArgs, forwards the outcome to the payload's
// delivery channel and wakes the waiters.
//
// For TextEntered the joined input values are appended as text=<value>;. When
// the channel has no listener the payload's application is started and
// delivery is retried once it runs. The notification's event is signaled
// with the decoded outcome when it can be opened, and the process activation
// event is signaled in every case, delivery failures included.
func (c *Callback) Activate(ctx context.Context, appID, invokedArgs string, inputs []Input) (action.Payload, error) {
	c.logger.Info("activation", "app_id", appID, "args", invokedArgs, "inputs", len(inputs))
	defer c.registry.Create(ActivationEventName(c.pid)).Signal()

	p, err := action.DecodePayload(invokedArgs)
	if err != nil {
		c.logger.Warn("activation payload not understood", "args", invokedArgs, "error", err)
		return p, err
	}

	data := invokedArgs
	if p.Action == action.TextEntered {
		if text, ok := UserText(inputs); ok {
			data = appendText(data, text)
			p.Extra = append(p.Extra, action.Field{Key: action.KeyText, Value: text})
		}
	}

	if p.Pipe != "" {
		c.forward(ctx, p, data)
	}

	if p.NotificationID != "" {
		if c.registry.SignalWith(EventName(p.NotificationID), p.Action) {
			c.logger.Debug("signaled notification event", "notification_id", p.NotificationID, "action", p.Action.String())
		}
	}
	return p, nil
}

func (c *Callback) forward(ctx context.Context, p action.Payload, data string) {
	fields := map[string]any{"pipe": p.Pipe, "action": p.Action.String()}
	if c.channel.Deliver(ctx, p.Pipe, data, false) {
		colors.StructuredDebug("bridge", "deliver", "delivered", nil, p.NotificationID, fields)
		return
	}
	if p.Application == "" {
		colors.StructuredWarn("bridge", "deliver", "no_listener", nil, p.NotificationID, fields)
		return
	}
	fields["application"] = p.Application
	if !c.launcher.Start(ctx, p.Application) {
		c.logger.Warn("fallback application did not start", "application", p.Application)
		colors.StructuredWarn("bridge", "launch", "failed", nil, p.NotificationID, fields)
		return
	}
	if !c.channel.Deliver(ctx, p.Pipe, data, true) {
		c.logger.Warn("delivery failed after starting application", "pipe", p.Pipe, "application", p.Application)
		colors.StructuredWarn("bridge", "deliver", "failed", nil, p.NotificationID, fields)
		return
	}
	colors.StructuredDebug("bridge", "deliver", "delivered_after_launch", nil, p.NotificationID, fields)
}

// UserText joins the values of all inputs in order, turning every carriage
// return into a line feed. ok is false when there are no inputs.
func UserText(inputs []Input) (text string, ok bool) {
	if len(inputs) == 0 {
		return "", false
	}
	var b strings.Builder
	for _, in := range inputs {
		b.WriteString(strings.ReplaceAll(in.Value, "\r", "\n"))
	}
	return b.String(), true
}

// appendText adds the reply to an encoded payload. A ';' inside the reply
// ends the value for decoders.
func appendText(data, text string) string {
	if data != "" && !strings.HasSuffix(data, ";") {
		data += ";"
	}
	return data + action.KeyText + "=" + text + ";"
}

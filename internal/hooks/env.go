package hooks

import (
	"strconv"

	"github.com/cristianoliveira/ntfytoast/internal/action"
)

// Result describes a resolved notification for the post-action hooks.
type Result struct {
	AppID          string
	NotificationID string
	Outcome        action.Kind
	Button         string
	Text           string
	Pipe           string
}

// Env renders the result as hook environment variables.
func (r Result) Env() []string {
	env := []string{
		"NTFYTOAST_APP_ID=" + r.AppID,
		"NTFYTOAST_NOTIFICATION_ID=" + r.NotificationID,
		"NTFYTOAST_ACTION=" + r.Outcome.String(),
		"NTFYTOAST_EXIT_CODE=" + strconv.Itoa(int(r.Outcome)),
	}
	if r.Button != "" {
		env = append(env, "NTFYTOAST_BUTTON="+r.Button)
	}
	if r.Text != "" {
		env = append(env, "NTFYTOAST_TEXT="+r.Text)
	}
	if r.Pipe != "" {
		env = append(env, "NTFYTOAST_PIPE="+r.Pipe)
	}
	return env
}

// RunPostAction runs the post-action hooks for r.
func RunPostAction(r Result) error {
	return Run(PostAction, r.Env()...)
}

package logging

import (
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	// user replies travel inside payload strings as text=<value>;
	payloadText = regexp.MustCompile(`(^|;)text=[^;]*`)
)

// redactor hides credentials and user-entered replies in log key/value pairs.
type redactor struct {
	sensitiveWords map[string]bool
	payloadKeys    map[string]bool
}

func newRedactor() *redactor {
	r := &redactor{
		sensitiveWords: make(map[string]bool),
		payloadKeys:    map[string]bool{"payload": true, "args": true, "arguments": true},
	}
	for _, w := range []string{"secret", "password", "token", "key", "auth", "credential", "reply", "text"} {
		r.sensitiveWords[w] = true
	}
	return r
}

// redact returns a copy of the flattened pairs with sensitive values replaced.
// A key is sensitive when one of its alphanumeric segments is a sensitive
// word. Payload-like values keep their structure with the text field masked.
func (r *redactor) redact(pairs []any) []any {
	if len(pairs) == 0 {
		return pairs
	}
	result := make([]any, len(pairs))
	copy(result, pairs)
	for i := 0; i+1 < len(result); i += 2 {
		key, ok := result[i].(string)
		if !ok {
			continue
		}
		switch {
		case r.isSensitive(key):
			result[i+1] = redacted
		case r.payloadKeys[strings.ToLower(key)]:
			if s, ok := result[i+1].(string); ok {
				result[i+1] = redactPayload(s)
			}
		}
	}
	return result
}

func (r *redactor) isSensitive(key string) bool {
	for _, part := range nonAlphanumeric.Split(strings.ToLower(key), -1) {
		if r.sensitiveWords[part] {
			return true
		}
	}
	return false
}

func redactPayload(s string) string {
	return payloadText.ReplaceAllString(s, "${1}text="+redacted)
}

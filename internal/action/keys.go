package action

import "sort"

var fixedKeys = map[string]bool{
	KeyAction:         true,
	KeyNotificationID: true,
	KeyPipe:           true,
	KeyApplication:    true,
	KeyVersion:        true,
}

// extraKeys orders the non-fixed keys: button and text first, then the rest by name.
func extraKeys(data map[string]string) []string {
	var known, rest []string
	for _, key := range []string{KeyButton, KeyText} {
		if _, ok := data[key]; ok {
			known = append(known, key)
		}
	}
	for key := range data {
		if fixedKeys[key] || key == KeyButton || key == KeyText {
			continue
		}
		rest = append(rest, key)
	}
	sort.Strings(rest)
	return append(known, rest...)
}

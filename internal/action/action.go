// Package action defines the closed set of notification outcomes and the
// key=value; payload format used to carry them between processes.
package action

// Kind is the outcome of a notification as observed by the user or the
// rendering service. The ordinal values double as the process exit status.
type Kind int

const (
	Clicked Kind = iota
	Hidden
	Dismissed
	Timedout
	ButtonClicked
	TextEntered

	// Error is never encoded. It is produced when a wait fails or a payload
	// carries an action that cannot be interpreted.
	Error Kind = -1
)

var kindNames = map[Kind]string{
	Clicked:       "clicked",
	Hidden:        "hidden",
	Dismissed:     "dismissed",
	Timedout:      "timedout",
	ButtonClicked: "buttonClicked",
	TextEntered:   "textEntered",
}

// Kinds returns every encodable kind in ordinal order.
func Kinds() []Kind {
	return []Kind{Clicked, Hidden, Dismissed, Timedout, ButtonClicked, TextEntered}
}

// IsValid reports whether the kind belongs to the encodable set.
func (k Kind) IsValid() bool {
	_, ok := kindNames[k]
	return ok
}

// String returns the wire name of the kind, or "error" for Error and
// out-of-range values.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "error"
}

// Parse maps a wire name back to its kind. Unknown names map to Error.
func Parse(s string) Kind {
	for k, name := range kindNames {
		if name == s {
			return k
		}
	}
	return Error
}

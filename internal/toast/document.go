package toast

import (
	"encoding/xml"
	"fmt"
	"strings"

	ntfyerrors "github.com/cristianoliveira/ntfytoast/internal/errors"
)

// Attr is a node attribute. Order is preserved.
type Attr struct {
	Name  string
	Value string
}

// Node is an element of a toast document.
type Node struct {
	Name     string
	Attrs    []Attr
	Text     string
	Children []*Node
}

// NewNode creates a detached node. The name must be a valid element name.
func NewNode(name string, attrs ...Attr) (*Node, error) {
	if !validName(name) {
		return nil, buildError("invalid element name %q", name)
	}
	n := &Node{Name: name}
	for _, a := range attrs {
		if err := n.SetAttr(a.Name, a.Value); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// Append creates a child element at the end of n.
func (n *Node) Append(name string, attrs ...Attr) (*Node, error) {
	child, err := NewNode(name, attrs...)
	if err != nil {
		return nil, err
	}
	n.Children = append(n.Children, child)
	return child, nil
}

// SetAttr sets or replaces an attribute.
func (n *Node) SetAttr(name, value string) error {
	if !validName(name) {
		return buildError("invalid attribute name %q on <%s>", name, n.Name)
	}
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs[i].Value = value
			return nil
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
	return nil
}

// Attr returns the value of an attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Child returns the first direct child with the given name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ElementsByName returns every descendant of n (n included) named name, in
// document order.
func (n *Node) ElementsByName(name string) []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(cur *Node) {
		if cur.Name == name {
			out = append(out, cur)
		}
		for _, c := range cur.Children {
			walk(c)
		}
	}
	walk(n)
	return out
}

// Equal reports structural equality: names, attributes in order, text and
// children.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.Name != o.Name || n.Text != o.Text || len(n.Attrs) != len(o.Attrs) || len(n.Children) != len(o.Children) {
		return false
	}
	for i := range n.Attrs {
		if n.Attrs[i] != o.Attrs[i] {
			return false
		}
	}
	for i := range n.Children {
		if !n.Children[i].Equal(o.Children[i]) {
			return false
		}
	}
	return true
}

// MarshalXML writes the node with its attributes in insertion order.
func (n *Node) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	start := xml.StartElement{Name: xml.Name{Local: n.Name}}
	for _, a := range n.Attrs {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: a.Name}, Value: a.Value})
	}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if n.Text != "" {
		if err := e.EncodeToken(xml.CharData(n.Text)); err != nil {
			return err
		}
	}
	for _, c := range n.Children {
		if err := e.Encode(c); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

// Document is a built toast: the tree rooted at <toast> and the template the
// visual part was derived from.
type Document struct {
	Template Template
	Root     *Node
}

// Binding returns the template binding under toast/visual.
func (d *Document) Binding() *Node {
	if visual := d.Root.Child("visual"); visual != nil {
		return visual.Child("binding")
	}
	return nil
}

// Texts returns the text nodes of the binding in template order.
func (d *Document) Texts() []*Node {
	if b := d.Binding(); b != nil {
		return b.ElementsByName("text")
	}
	return nil
}

// Image returns the image slot, or nil for text-only templates.
func (d *Document) Image() *Node {
	if b := d.Binding(); b != nil {
		return b.Child("image")
	}
	return nil
}

// Audio returns the audio element.
func (d *Document) Audio() *Node {
	return d.Root.Child("audio")
}

// Actions returns the actions container, or nil when the toast is not
// interactive.
func (d *Document) Actions() *Node {
	return d.Root.Child("actions")
}

// XML renders the document, indented, for debug output.
func (d *Document) XML() (string, error) {
	var b strings.Builder
	enc := xml.NewEncoder(&b)
	enc.Indent("", "  ")
	if err := enc.Encode(d.Root); err != nil {
		return "", fmt.Errorf("encode toast document: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return "", fmt.Errorf("encode toast document: %w", err)
	}
	return b.String(), nil
}

func buildError(format string, args ...any) error {
	return ntfyerrors.New(ntfyerrors.DocumentBuildFailed, "toast.Build", fmt.Sprintf(format, args...))
}

// validName accepts the XML names used by toast documents: a letter or '_'
// followed by letters, digits, '-', '_' or '.'.
func validName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case i > 0 && (r >= '0' && r <= '9' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}

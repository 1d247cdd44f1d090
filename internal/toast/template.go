package toast

import "strconv"

// Template names a toast layout. The layout fixes how many text and image
// slots the binding has and in which order.
type Template string

const (
	// ToastText02 is a title line followed by a wrapped body.
	ToastText02 Template = "ToastText02"
	// ToastImageAndText02 is ToastText02 with one image before the texts.
	ToastImageAndText02 Template = "ToastImageAndText02"
)

// TemplateFor selects the layout from the presence of an image.
func TemplateFor(image string) Template {
	if image != "" {
		return ToastImageAndText02
	}
	return ToastText02
}

// TextSlots is the number of text elements the template declares.
func (t Template) TextSlots() int {
	return 2
}

// HasImage reports whether the template declares an image slot.
func (t Template) HasImage() bool {
	return t == ToastImageAndText02
}

// Content returns the empty skeleton for the template:
//
//	<toast><visual><binding template="..."><image id="1" src=""/><text id="1"/><text id="2"/></binding></visual></toast>
//
// The image slot exists only for image templates.
func (t Template) Content() (*Document, error) {
	if t != ToastText02 && t != ToastImageAndText02 {
		return nil, buildError("unknown template %q", string(t))
	}
	root, err := NewNode("toast")
	if err != nil {
		return nil, err
	}
	visual, err := root.Append("visual")
	if err != nil {
		return nil, err
	}
	binding, err := visual.Append("binding", Attr{"template", string(t)})
	if err != nil {
		return nil, err
	}
	if t.HasImage() {
		if _, err := binding.Append("image", Attr{"id", "1"}, Attr{"src", ""}); err != nil {
			return nil, err
		}
	}
	for i := 1; i <= t.TextSlots(); i++ {
		if _, err := binding.Append("text", Attr{"id", strconv.Itoa(i)}); err != nil {
			return nil, err
		}
	}
	return &Document{Template: t, Root: root}, nil
}

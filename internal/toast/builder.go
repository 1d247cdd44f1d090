package toast

import (
	"path/filepath"
	"strings"

	"github.com/cristianoliveira/ntfytoast/internal/action"
)

// Fixed vocabulary of the toast document.
const (
	ActivationForeground = "foreground"
	ScenarioIncomingCall = "incomingCall"
	SoundScheme          = "ms-winsoundevent:"

	TextBoxID          = "textBox"
	TextBoxPlaceholder = "Type a reply"
	SendLabel          = "Send"
)

// Build produces the document for req. The request is expected to have been
// validated; when both buttons and text input are set, buttons win. Any
// structural failure aborts the build with DocumentBuildFailed and no
// document is returned.
func Build(req Request) (*Document, error) {
	doc, err := TemplateFor(req.Image).Content()
	if err != nil {
		return nil, err
	}
	b := builder{req: req, doc: doc}
	steps := []func() error{
		b.setTexts,
		b.setImage,
		b.setRoot,
		b.setAudio,
		b.setActions,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

type builder struct {
	req Request
	doc *Document
}

// payload encodes an outcome with this notification's correlation fields.
func (b builder) payload(kind action.Kind, extra ...action.Field) string {
	return action.Encode(action.Payload{
		Action:         kind,
		NotificationID: b.req.ID,
		Pipe:           b.req.Pipe,
		Application:    b.req.Application,
	}, extra...)
}

func (b builder) setTexts() error {
	texts := b.doc.Texts()
	if len(texts) < 2 {
		return buildError("template %s has %d text slots, need 2", b.doc.Template, len(texts))
	}
	texts[0].Text = b.req.Title
	texts[1].Text = b.req.Body
	return nil
}

func (b builder) setImage() error {
	if b.req.Image == "" {
		return nil
	}
	slot := b.doc.Image()
	if slot == nil {
		return buildError("template %s has no image slot", b.doc.Template)
	}
	path, err := filepath.Abs(b.req.Image)
	if err != nil {
		return buildError("resolve image %q: %v", b.req.Image, err)
	}
	return slot.SetAttr("src", path)
}

func (b builder) setRoot() error {
	root := b.doc.Root
	if err := root.SetAttr("launch", b.payload(action.Clicked)); err != nil {
		return err
	}
	if err := root.SetAttr("activationType", ActivationForeground); err != nil {
		return err
	}
	if b.req.Persistent {
		if err := root.SetAttr("scenario", ScenarioIncomingCall); err != nil {
			return err
		}
	}
	return root.SetAttr("duration", b.req.Duration.String())
}

func (b builder) setAudio() error {
	_, err := b.doc.Root.Append("audio",
		Attr{"src", SoundURI(b.req.Sound)},
		Attr{"silent", boolString(b.req.Silent)},
	)
	return err
}

func (b builder) setActions() error {
	switch {
	case len(b.req.Buttons) > 0:
		actions, err := b.doc.Root.Append("actions")
		if err != nil {
			return err
		}
		for _, label := range b.req.Buttons {
			_, err := actions.Append("action",
				Attr{"content", label},
				Attr{"arguments", b.payload(action.ButtonClicked, action.Field{Key: action.KeyButton, Value: label})},
				Attr{"activationType", ActivationForeground},
			)
			if err != nil {
				return err
			}
		}
	case b.req.TextInput:
		actions, err := b.doc.Root.Append("actions")
		if err != nil {
			return err
		}
		if _, err := actions.Append("input",
			Attr{"id", TextBoxID},
			Attr{"type", "text"},
			Attr{"placeHolderContent", TextBoxPlaceholder},
		); err != nil {
			return err
		}
		if _, err := actions.Append("action",
			Attr{"content", SendLabel},
			Attr{"arguments", b.payload(action.TextEntered)},
			Attr{"hint-inputId", TextBoxID},
		); err != nil {
			return err
		}
	}
	return nil
}

// SoundURI prefixes the sound selector with the sound scheme unless it
// already carries it. An empty selector means the default sound.
func SoundURI(sound string) string {
	if sound == "" {
		sound = DefaultSound
	}
	if strings.Contains(sound, SoundScheme) {
		return sound
	}
	return SoundScheme + sound
}

// SoundName strips the sound scheme from a sound URI.
func SoundName(uri string) string {
	if i := strings.Index(uri, SoundScheme); i >= 0 {
		return uri[i+len(SoundScheme):]
	}
	return uri
}

func boolString(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

package state

import (
	"mime/multipart"
	"net/url"

	"github.com/goliatone/go-formdemo/pkg/model"
)

// ChangeEvent is one input interaction: the control's name, its kind and the
// raw payload the control reported. Only the payload matching Kind is read.
type ChangeEvent struct {
	Name     string
	Kind     model.InputKind
	Value    string
	Checked  bool
	Files    []FileHandle
	Selected []string
}

// Apply returns a copy of current with the named field replaced by the value
// derived from the event kind. Unknown names are added verbatim.
func Apply(current FormState, ev ChangeEvent) FormState {
	next := current.Clone()
	next.set(ev.Name, valueFor(ev))
	return next
}

// ApplyAll folds a sequence of events over current.
func ApplyAll(current FormState, events ...ChangeEvent) FormState {
	next := current
	for _, ev := range events {
		next = Apply(next, ev)
	}
	return next
}

func valueFor(ev ChangeEvent) Value {
	switch ev.Kind {
	case model.KindCheckbox:
		return Bool(ev.Checked)
	case model.KindFile:
		if len(ev.Files) == 0 {
			return File(nil)
		}
		return File(&ev.Files[0])
	case model.KindMultiSelect:
		return Options(ev.Selected)
	case model.KindRadio, model.KindSelect:
		return Option(ev.Value)
	default:
		return Text(ev.Value)
	}
}

// EventsFromForm translates a full form post into change events, one per
// catalogue field the browser reported. Checkboxes and multi-selects are
// always emitted because browsers omit them when unchecked or empty; other
// missing fields (for example a hidden extra-info input) produce no event so
// their stored value is retained. File parts without a filename are skipped.
func EventsFromForm(form model.FormModel, values url.Values, files map[string][]*multipart.FileHeader) []ChangeEvent {
	events := make([]ChangeEvent, 0, len(form.Fields))
	for _, field := range form.Fields {
		name := field.Name
		switch field.Kind {
		case model.KindCheckbox:
			events = append(events, ChangeEvent{
				Name:    name,
				Kind:    field.Kind,
				Checked: isChecked(values.Get(name)),
			})
		case model.KindMultiSelect:
			events = append(events, ChangeEvent{
				Name:     name,
				Kind:     field.Kind,
				Selected: append([]string{}, values[name]...),
			})
		case model.KindFile:
			handles := FileHandles(files[name])
			if len(handles) == 0 {
				continue
			}
			events = append(events, ChangeEvent{Name: name, Kind: field.Kind, Files: handles})
		default:
			if _, ok := values[name]; !ok {
				continue
			}
			events = append(events, ChangeEvent{Name: name, Kind: field.Kind, Value: values.Get(name)})
		}
	}
	return events
}

// ChangeEventFromForm decodes a single change event posted by the page
// script: `name`, `kind`, then `checked`, repeated `selected`, a multipart
// `file` part or `value` depending on the kind. When kind is blank it is
// looked up in form.
func ChangeEventFromForm(form model.FormModel, values url.Values, files map[string][]*multipart.FileHeader) ChangeEvent {
	ev := ChangeEvent{
		Name: values.Get("name"),
		Kind: model.ParseKind(values.Get("kind")),
	}
	if values.Get("kind") == "" {
		if field, ok := form.Lookup(ev.Name); ok {
			ev.Kind = field.Kind
		}
	}
	switch ev.Kind {
	case model.KindCheckbox:
		ev.Checked = isChecked(values.Get("checked"))
	case model.KindMultiSelect:
		ev.Selected = append([]string{}, values["selected"]...)
	case model.KindFile:
		ev.Files = FileHandles(files["file"])
	default:
		ev.Value = values.Get("value")
	}
	return ev
}

// FileHandles converts multipart headers into handles, dropping empty parts.
func FileHandles(headers []*multipart.FileHeader) []FileHandle {
	var out []FileHandle
	for _, header := range headers {
		if header == nil || header.Filename == "" {
			continue
		}
		out = append(out, FileHandle{
			Name:        header.Filename,
			Size:        header.Size,
			ContentType: header.Header.Get("Content-Type"),
		})
	}
	return out
}

func isChecked(raw string) bool {
	switch raw {
	case "", "false", "off", "0":
		return false
	default:
		return true
	}
}

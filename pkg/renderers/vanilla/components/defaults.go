package components

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/goliatone/go-formdemo/pkg/model"
	"github.com/goliatone/go-formdemo/pkg/state"
)

const (
	templatePrefix = "templates/components/"
)

// Attr is one extra HTML attribute on a control.
type Attr struct {
	Name  string
	Value string
}

// Choice is one option of a radio group or select.
type Choice struct {
	ID       string
	Value    string
	Label    string
	TestID   string
	Selected bool
}

// Control is the template payload describing a single control.
type Control struct {
	ID          string
	Name        string
	TestID      string
	Kind        string
	Type        string
	Value       string
	Checked     bool
	Multiple    bool
	Placeholder string
	Attrs       []Attr
	Options     []Choice
}

// NewDefaultRegistry constructs a registry pre-populated with the built-in
// controls used by the vanilla renderer.
func NewDefaultRegistry() *Registry {
	registry := New()
	registry.MustRegister("input", templateDescriptor("input.tmpl"))
	registry.MustRegister("checkbox", templateDescriptor("checkbox.tmpl"), model.KindCheckbox)
	registry.MustRegister("radio", templateDescriptor("radio.tmpl"), model.KindRadio)
	registry.MustRegister("select", templateDescriptor("select.tmpl"), model.KindSelect, model.KindMultiSelect)
	registry.MustRegister("textarea", templateDescriptor("textarea.tmpl"), model.KindTextarea)
	registry.MustRegister("file", templateDescriptor("file.tmpl"), model.KindFile)
	return registry
}

func templateDescriptor(name string) Descriptor {
	return Descriptor{Renderer: templateComponentRenderer(templatePrefix + name)}
}

func templateComponentRenderer(templateName string) Renderer {
	return func(buf *bytes.Buffer, field model.Field, data ComponentData) error {
		if data.Template == nil {
			return fmt.Errorf("components: template renderer not configured for %q", templateName)
		}
		rendered, err := data.Template.RenderTemplate(templateName, map[string]any{
			"control": BuildControl(field, data.Value),
		})
		if err != nil {
			return fmt.Errorf("components: render template %q: %w", templateName, err)
		}
		buf.WriteString(rendered)
		return nil
	}
}

// BuildControl projects a field and its current value into a Control.
func BuildControl(field model.Field, value state.Value) Control {
	ctrl := Control{
		ID:          field.Name,
		Name:        field.Name,
		TestID:      field.TestID,
		Kind:        string(field.Kind),
		Type:        string(field.Kind),
		Placeholder: field.Placeholder,
		Attrs:       sortedAttrs(field.Attrs),
	}

	switch field.Kind {
	case model.KindCheckbox:
		ctrl.Checked = value.Bool()
	case model.KindFile:
		ctrl.Value = value.String()
	case model.KindRadio, model.KindSelect:
		ctrl.Value = value.String()
		ctrl.Options = choices(field, func(option string) bool { return option == ctrl.Value })
	case model.KindMultiSelect:
		ctrl.Multiple = true
		selected := value.Selected()
		ctrl.Options = choices(field, func(option string) bool { return slices.Contains(selected, option) })
	default:
		ctrl.Value = value.String()
	}
	return ctrl
}

func choices(field model.Field, selected func(string) bool) []Choice {
	out := make([]Choice, 0, len(field.Options))
	for _, option := range field.Options {
		out = append(out, Choice{
			ID:       field.Name + "-" + option,
			Value:    option,
			Label:    option,
			TestID:   field.OptionTestID(option),
			Selected: selected(option),
		})
	}
	return out
}

func sortedAttrs(attrs map[string]string) []Attr {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]Attr, 0, len(attrs))
	for name, value := range attrs {
		out = append(out, Attr{Name: name, Value: value})
	}
	slices.SortFunc(out, func(a, b Attr) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return out
}

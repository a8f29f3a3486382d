package vanilla

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/goliatone/go-formdemo/pkg/model"
	"github.com/goliatone/go-formdemo/pkg/render/template"
	"github.com/goliatone/go-formdemo/pkg/renderers/vanilla/components"
	"github.com/goliatone/go-formdemo/pkg/state"
)

type componentRenderer struct {
	templates template.TemplateRenderer
	registry  *components.Registry
	overrides map[string]string

	used []string
}

func newComponentRenderer(templates template.TemplateRenderer, registry *components.Registry, overrides map[string]string) *componentRenderer {
	if registry == nil {
		registry = components.NewDefaultRegistry()
	}
	return &componentRenderer{
		templates: templates,
		registry:  registry,
		overrides: overrides,
	}
}

func (r *componentRenderer) render(field model.Field, value state.Value) (string, error) {
	descriptor, err := r.registry.Resolve(field, r.overrides[field.Name])
	if err != nil {
		return "", err
	}
	componentName := descriptor.Name

	var control bytes.Buffer
	data := components.ComponentData{Template: r.templates, Value: value}
	if err := descriptor.Renderer(&control, field, data); err != nil {
		return "", fmt.Errorf("render component %q for field %q: %w", componentName, field.Name, err)
	}

	r.markUsed(componentName)
	return buildFieldMarkup(field, componentName, value, control.String()), nil
}

func (r *componentRenderer) markUsed(name string) {
	for _, existing := range r.used {
		if existing == name {
			return
		}
	}
	r.used = append(r.used, name)
}

func (r *componentRenderer) stylesheets() []string {
	return r.registry.Stylesheets(r.used)
}

// buildFieldMarkup wraps a control in its form-group chrome. Checkboxes put
// the label after the control inside a wrapping <label>; radio groups use a
// caption because the label cannot point at a single input.
func buildFieldMarkup(field model.Field, componentName string, value state.Value, control string) string {
	var builder strings.Builder
	builder.Grow(len(control) + 256)

	builder.WriteString(`<div class="form-group" data-field="`)
	builder.WriteString(html.EscapeString(field.Name))
	builder.WriteString(`" data-component="`)
	builder.WriteString(html.EscapeString(componentName))
	builder.WriteString(`">`)
	builder.WriteByte('\n')

	label := labelText(field, value)
	switch field.Kind {
	case model.KindCheckbox:
		builder.WriteString(`  <label class="fd-inline">`)
		builder.WriteString(strings.TrimSpace(control))
		builder.WriteString(` <span>`)
		builder.WriteString(html.EscapeString(label))
		builder.WriteString("</span></label>\n")
		builder.WriteString("</div>\n")
		return builder.String()
	case model.KindRadio:
		if label != "" {
			builder.WriteString(`  <label class="fd-caption" id="`)
			builder.WriteString(html.EscapeString(labelID(field.Name)))
			builder.WriteString(`">`)
			builder.WriteString(html.EscapeString(label))
			builder.WriteString(":</label>\n")
		}
	default:
		if label != "" {
			builder.WriteString(`  <label for="`)
			builder.WriteString(html.EscapeString(field.Name))
			builder.WriteString(`">`)
			builder.WriteString(html.EscapeString(label))
			builder.WriteString(":</label>\n")
		}
	}

	// Controls are copied verbatim: re-indenting would alter textarea content.
	if control = strings.TrimSpace(control); control != "" {
		builder.WriteString(control)
		builder.WriteByte('\n')
	}

	builder.WriteString("</div>\n")
	return builder.String()
}

// labelText returns the visible label. The range label echoes the current
// value.
func labelText(field model.Field, value state.Value) string {
	label := strings.TrimSpace(field.Label)
	if label == "" {
		label = model.DefaultLabeler(field.Name)
	}
	if field.Kind == model.KindRange {
		label = fmt.Sprintf("%s (%s)", label, value.String())
	}
	return label
}

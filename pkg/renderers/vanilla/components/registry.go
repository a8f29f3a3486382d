package components

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/goliatone/go-formdemo/pkg/model"
	rendertemplate "github.com/goliatone/go-formdemo/pkg/render/template"
	"github.com/goliatone/go-formdemo/pkg/state"
)

// Renderer writes the HTML of one control into buf.
type Renderer func(buf *bytes.Buffer, field model.Field, data ComponentData) error

// ComponentData carries the helpers and the current value a control needs.
type ComponentData struct {
	Template rendertemplate.TemplateRenderer
	Value    state.Value
}

// Descriptor bundles a control renderer with the stylesheet hrefs it needs.
type Descriptor struct {
	Name        string
	Renderer    Renderer
	Stylesheets []string
}

// Registry holds the control renderers by name and the input kinds each one
// draws. Kinds without a binding fall back to "input".
type Registry struct {
	mu         sync.RWMutex
	components map[string]Descriptor
	kinds      map[model.InputKind]string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		components: make(map[string]Descriptor),
		kinds:      make(map[model.InputKind]string),
	}
}

// Register associates a descriptor with name and binds kinds to it.
// Registering an existing name replaces it.
func (r *Registry) Register(name string, descriptor Descriptor, kinds ...model.InputKind) error {
	if name = normalize(name); name == "" {
		return fmt.Errorf("components: component name is required")
	}
	if descriptor.Renderer == nil {
		return fmt.Errorf("components: renderer for %q is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	descriptor.Name = name
	descriptor.Stylesheets = slices.Clone(descriptor.Stylesheets)
	r.components[name] = descriptor
	for _, kind := range kinds {
		r.kinds[kind] = name
	}
	return nil
}

// MustRegister panics on registration failure.
func (r *Registry) MustRegister(name string, descriptor Descriptor, kinds ...model.InputKind) {
	if err := r.Register(name, descriptor, kinds...); err != nil {
		panic(err)
	}
}

// Descriptor fetches a descriptor by name.
func (r *Registry) Descriptor(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	descriptor, ok := r.components[normalize(name)]
	if !ok {
		return Descriptor{}, false
	}
	descriptor.Stylesheets = slices.Clone(descriptor.Stylesheets)
	return descriptor, true
}

// NameFor reports the component bound to kind.
func (r *Registry) NameFor(kind model.InputKind) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name, ok := r.kinds[kind]; ok {
		return name
	}
	return "input"
}

// Resolve picks the descriptor for field: override when non-empty, else the
// component bound to the field's kind.
func (r *Registry) Resolve(field model.Field, override string) (Descriptor, error) {
	name := override
	if name == "" {
		name = r.NameFor(field.Kind)
	}
	descriptor, ok := r.Descriptor(name)
	if !ok {
		return Descriptor{}, fmt.Errorf("component %q not registered for field %q", name, field.Name)
	}
	return descriptor, nil
}

// Names returns the sorted component names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.components))
	for name := range r.components {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Stylesheets collects the deduplicated stylesheet hrefs of the named
// components, in the order given.
func (r *Registry) Stylesheets(names []string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for _, name := range names {
		for _, href := range r.components[normalize(name)].Stylesheets {
			if href != "" && !slices.Contains(out, href) {
				out = append(out, href)
			}
		}
	}
	return out
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

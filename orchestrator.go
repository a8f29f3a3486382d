// Package formdemo renders the demo form from Go code without going through
// the HTTP server. Most callers only need GenerateHTML.
package formdemo

import (
	"context"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formdemo/pkg/form"
	"github.com/goliatone/go-formdemo/pkg/orchestrator"
	"github.com/goliatone/go-formdemo/pkg/render"
	"github.com/goliatone/go-formdemo/pkg/state"
)

// RenderOptions describes per-request data such as hidden fields, a flash
// message or fragment-only output.
type RenderOptions = render.RenderOptions

// ChangeEvent is a single control change.
type ChangeEvent = state.ChangeEvent

// NewComponent builds a form component with the default catalogue.
func NewComponent(options ...form.Option) *form.Component {
	return form.New(options...)
}

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// GenerateHTML renders component with the named renderer. A nil component
// renders the initial state of a fresh one.
func GenerateHTML(ctx context.Context, component *form.Component, rendererName string, options ...orchestrator.Option) ([]byte, error) {
	return GenerateHTMLWithOptions(ctx, component, rendererName, RenderOptions{}, options...)
}

// GenerateHTMLWithOptions is GenerateHTML with explicit render options.
func GenerateHTMLWithOptions(ctx context.Context, component *form.Component, rendererName string, opts RenderOptions, options ...orchestrator.Option) ([]byte, error) {
	if component == nil {
		component = form.New()
	}
	gen := orchestrator.New(options...)
	return gen.Generate(ctx, orchestrator.Request{
		Component:     component,
		Renderer:      rendererName,
		RenderOptions: opts,
	})
}

// GenerateThemedHTML resolves themeName and variant before rendering.
func GenerateThemedHTML(ctx context.Context, component *form.Component, themeName, variant string, options ...orchestrator.Option) ([]byte, error) {
	if component == nil {
		component = form.New()
	}
	return orchestrator.New(options...).Generate(ctx, orchestrator.Request{
		Component: component,
		Theme:     themeName,
		Variant:   variant,
	})
}

// WithThemeSelector passes a go-theme selector through to the orchestrator so
// theme/variant choices can be resolved ahead of rendering.
func WithThemeSelector(selector theme.ThemeSelector) orchestrator.Option {
	return orchestrator.WithThemeSelector(selector)
}

// WithPreset relabels the form with a preset built by
// orchestrator.NewPresetTransformerFromFS or its JSON/YAML siblings.
func WithPreset(preset *orchestrator.PresetTransformer) orchestrator.Option {
	return orchestrator.WithTransformer(preset)
}

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"slices"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formdemo/pkg/form"
	"github.com/goliatone/go-formdemo/pkg/render"
	"github.com/goliatone/go-formdemo/pkg/renderers/tui"
	"github.com/goliatone/go-formdemo/pkg/renderers/vanilla"
)

const defaultRendererName = "vanilla"

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer overrides the renderer used when a request omits an
// explicit Renderer field.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithThemeSelector resolves Request.Theme and Request.Variant through
// selector. Defaults to the built-in manifest.
func WithThemeSelector(selector theme.ThemeSelector) Option {
	return func(o *Orchestrator) {
		o.selector = selector
	}
}

// WithTransformer registers a Transformer that runs on every view before it
// reaches the renderer. Transformers run in registration order.
func WithTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.transformers = append(o.transformers, t)
		}
	}
}

// Orchestrator renders form components. The zero configuration registers the
// vanilla HTML renderer as the default and the terminal renderer under "tui".
type Orchestrator struct {
	registry        *render.Registry
	defaultRenderer string
	selector        theme.ThemeSelector
	transformers    []Transformer
	initialiseErr   error
}

// New constructs an Orchestrator applying any provided options.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{defaultRenderer: defaultRendererName}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Request describes one render.
type Request struct {
	// Component supplies the view. Ignored when View is set.
	Component *form.Component

	// View renders a prepared view directly.
	View *render.View

	// Renderer names the renderer to use. If empty, the orchestrator falls back
	// to the configured default renderer.
	Renderer string

	// Theme and Variant are resolved through the theme selector when
	// RenderOptions.Theme is nil and either one is set.
	Theme   string
	Variant string

	RenderOptions render.RenderOptions
}

// Generate resolves the view, runs the transformers and renders it.
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := o.initialiseErr; err != nil {
		return nil, err
	}

	view, err := resolveView(req)
	if err != nil {
		return nil, err
	}
	if err := o.applyTransformers(ctx, &view); err != nil {
		return nil, err
	}

	renderer, err := o.rendererFor(req.Renderer)
	if err != nil {
		return nil, err
	}

	opts := req.RenderOptions
	if opts.Theme == nil && (req.Theme != "" || req.Variant != "") {
		resolved, err := render.ResolveTheme(o.selector, req.Theme, req.Variant)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: resolve theme: %w", err)
		}
		opts.Theme = resolved
	}

	output, err := renderer.Render(ctx, view, opts)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render output: %w", err)
	}
	return output, nil
}

// Renderers lists the registered renderer names.
func (o *Orchestrator) Renderers() []string {
	if o.registry == nil {
		return nil
	}
	return o.registry.List()
}

// resolveView copies the field slices so transformers never touch the
// component's catalogue.
func resolveView(req Request) (render.View, error) {
	var view render.View
	switch {
	case req.View != nil:
		view = *req.View
	case req.Component != nil:
		v, err := req.Component.View()
		if err != nil {
			return render.View{}, fmt.Errorf("orchestrator: %w", err)
		}
		view = v
	default:
		return render.View{}, errors.New("orchestrator: component or view is required")
	}
	view.Form.Fields = slices.Clone(view.Form.Fields)
	view.Fields = slices.Clone(view.Fields)
	return view, nil
}

func (o *Orchestrator) rendererFor(name string) (render.Renderer, error) {
	if o.registry == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}

	target := name
	if target == "" {
		target = o.defaultRenderer
	}

	if target != "" {
		renderer, err := o.registry.Get(target)
		if err == nil {
			return renderer, nil
		}
		if name != "" {
			return nil, fmt.Errorf("orchestrator: renderer %q: %w", name, err)
		}
	}

	renderer, err := o.registry.Resolve("")
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	return renderer, nil
}

func (o *Orchestrator) applyTransformers(ctx context.Context, view *render.View) error {
	for _, t := range o.transformers {
		if err := t.Transform(ctx, view); err != nil {
			return fmt.Errorf("orchestrator: transform view: %w", err)
		}
	}
	return nil
}

func (o *Orchestrator) applyDefaults() {
	if o.selector == nil {
		o.selector = render.NewStaticSelector("", render.DefaultThemeManifest())
	}
	if o.registry != nil {
		return
	}
	o.registry = render.NewRegistry()
	html, err := vanilla.New()
	if err != nil {
		o.initialiseErr = fmt.Errorf("orchestrator: default renderer: %w", err)
		return
	}
	o.registry.MustRegister(html)

	terminal, err := tui.New()
	if err != nil {
		o.initialiseErr = fmt.Errorf("orchestrator: terminal renderer: %w", err)
		return
	}
	o.registry.MustRegister(terminal)
}

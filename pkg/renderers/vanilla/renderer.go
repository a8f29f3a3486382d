package vanilla

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formdemo/pkg/render"
	rendertemplate "github.com/goliatone/go-formdemo/pkg/render/template"
	"github.com/goliatone/go-formdemo/pkg/render/template/pongo"
	"github.com/goliatone/go-formdemo/pkg/renderers/vanilla/components"
)

const (
	// DefaultChangeURL is where the runtime script posts change events.
	DefaultChangeURL = "/form/change"

	formTemplate         = "templates/form.tmpl"
	pageTemplate         = "templates/page.tmpl"
	confirmationTemplate = "templates/confirmation.tmpl"
)

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	registry         *components.Registry
	overrides        map[string]string
	theme            *render.ThemeConfig
	changeURL        string
	stylesheets      []string
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithComponentRegistry replaces the built-in control registry.
func WithComponentRegistry(registry *components.Registry) Option {
	return func(cfg *config) {
		if registry != nil {
			cfg.registry = registry
		}
	}
}

// WithComponentOverrides forces a component per field name.
func WithComponentOverrides(overrides map[string]string) Option {
	return func(cfg *config) {
		if cfg.overrides == nil {
			cfg.overrides = make(map[string]string, len(overrides))
		}
		for name, component := range overrides {
			cfg.overrides[name] = component
		}
	}
}

// WithDefaultTheme sets the theme used when RenderOptions.Theme is nil.
func WithDefaultTheme(theme *render.ThemeConfig) Option {
	return func(cfg *config) {
		cfg.theme = theme
	}
}

// WithChangeURL sets the endpoint the page script posts change events to. An
// empty URL disables live updates.
func WithChangeURL(url string) Option {
	return func(cfg *config) {
		cfg.changeURL = strings.TrimSpace(url)
	}
}

// WithStylesheets links extra stylesheets from the page head.
func WithStylesheets(hrefs ...string) Option {
	return func(cfg *config) {
		cfg.stylesheets = append(cfg.stylesheets, hrefs...)
	}
}

// Renderer produces the HTML page (or the bare <form> fragment) for a view.
type Renderer struct {
	templates rendertemplate.TemplateRenderer
	registry  *components.Registry
	overrides map[string]string
	theme     *render.ThemeConfig
	changeURL string
	links     []string
	sanitizer *bluemonday.Policy
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the vanilla renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS(), changeURL: DefaultChangeURL}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := pongo.New(
			pongo.WithFS(cfg.templateFS),
			pongo.WithExtension(".tmpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	if cfg.theme == nil {
		theme, err := render.ResolveTheme(render.NewStaticSelector("", render.DefaultThemeManifest()), "", "")
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: resolve default theme: %w", err)
		}
		cfg.theme = theme
	}

	registry := cfg.registry
	if registry == nil {
		registry = components.NewDefaultRegistry()
	}

	return &Renderer{
		templates: renderer,
		registry:  registry,
		overrides: cfg.overrides,
		theme:     cfg.theme,
		changeURL: cfg.changeURL,
		links:     cfg.stylesheets,
		sanitizer: flashPolicy(),
	}, nil
}

func (r *Renderer) Name() string {
	return "vanilla"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render draws view.Fields in order with the values held in view.State.
func (r *Renderer) Render(ctx context.Context, view render.View, opts render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("vanilla renderer: template renderer is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fields := newComponentRenderer(r.templates, r.registry, r.overrides)
	markup := make([]string, 0, len(view.Fields))
	for _, field := range view.Fields {
		value, _ := view.State.Get(field.Name)
		html, err := fields.render(field, value)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: %w", err)
		}
		markup = append(markup, html)
	}

	flashHTML, err := r.renderFlash(opts.Flash)
	if err != nil {
		return nil, err
	}

	action := strings.TrimSpace(opts.Action)
	if action == "" {
		action = view.Form.Action
	}

	formHTML, err := r.templates.RenderTemplate(formTemplate, map[string]any{
		"form":          view.Form,
		"action":        action,
		"change_url":    r.changeURL,
		"hidden_fields": render.SortedHiddenFields(opts.HiddenFields),
		"fields":        markup,
		"flash_html":    flashHTML,
	})
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render form: %w", err)
	}
	if opts.Fragment {
		return []byte(formHTML), nil
	}

	theme := opts.Theme
	if theme == nil {
		theme = r.theme
	}
	themeName := ""
	if theme != nil {
		themeName = theme.Name
	}

	page, err := r.templates.RenderTemplate(pageTemplate, map[string]any{
		"form":        view.Form,
		"form_html":   formHTML,
		"theme_name":  themeName,
		"theme_vars":  theme.CSSVarsStyle(),
		"stylesheet":  defaultStylesheet(),
		"stylesheets": append(fields.stylesheets(), r.links...),
		"script":      defaultRuntimeScript(),
	})
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render page: %w", err)
	}
	return []byte(page), nil
}

func (r *Renderer) renderFlash(flash *render.Flash) (string, error) {
	if flash == nil || strings.TrimSpace(flash.Message) == "" {
		return "", nil
	}
	out, err := r.templates.RenderTemplate(confirmationTemplate, map[string]any{
		"flash": map[string]any{
			"Class":   flashClass(string(flash.Level)),
			"Level":   string(flash.Level),
			"Message": r.sanitizer.Sanitize(flash.Message),
		},
	})
	if err != nil {
		return "", fmt.Errorf("vanilla renderer: render flash: %w", err)
	}
	return out, nil
}

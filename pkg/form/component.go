// Package form wires the catalogue, the record, visibility rules and the
// submission sink into a single component.
//
// A Component is not safe for concurrent use. Callers that share one across
// goroutines (the HTTP server keeps one per session) must serialise access.
package form

import (
	"context"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/url"
	"strings"

	"github.com/goliatone/go-formdemo/pkg/model"
	"github.com/goliatone/go-formdemo/pkg/render"
	"github.com/goliatone/go-formdemo/pkg/state"
	"github.com/goliatone/go-formdemo/pkg/submit"
	"github.com/goliatone/go-formdemo/pkg/visibility"
	"github.com/goliatone/go-formdemo/pkg/visibility/expr"
)

// Option configures a Component.
type Option func(*Component)

// WithForm replaces the demo catalogue.
func WithForm(form model.FormModel) Option {
	return func(c *Component) {
		c.form = form
	}
}

// WithInitialState seeds the record instead of the catalogue defaults.
func WithInitialState(initial state.FormState) Option {
	return func(c *Component) {
		c.initial = &initial
	}
}

// WithEvaluator swaps the visibility rule evaluator.
func WithEvaluator(evaluator visibility.Evaluator) Option {
	return func(c *Component) {
		if evaluator != nil {
			c.evaluator = evaluator
		}
	}
}

// WithExtras exposes caller flags to rules under the `extras.` prefix.
func WithExtras(extras map[string]any) Option {
	return func(c *Component) {
		c.extras = extras
	}
}

// WithSink sets where submissions go.
func WithSink(sink submit.Sink) Option {
	return func(c *Component) {
		if sink != nil {
			c.sink = sink
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Component) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Component owns one FormState for the lifetime of a form instance.
type Component struct {
	form      model.FormModel
	initial   *state.FormState
	current   state.FormState
	evaluator visibility.Evaluator
	extras    map[string]any
	sink      submit.Sink
	logger    *slog.Logger
}

// New builds a Component. Without options it serves the demo form, evaluates
// rules with pkg/visibility/expr and logs submissions.
func New(options ...Option) *Component {
	c := &Component{
		form:      model.DemoForm(),
		evaluator: expr.New(),
		logger:    slog.Default(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	if c.sink == nil {
		c.sink = submit.NewLogSink(c.logger)
	}
	if c.initial != nil {
		c.current = c.initial.Clone()
	} else {
		c.current = state.New(c.form)
	}
	return c
}

// Form returns the catalogue.
func (c *Component) Form() model.FormModel { return c.form }

// State returns the current record. FormState is never mutated in place, so
// the result stays valid after later changes.
func (c *Component) State() state.FormState { return c.current }

// HandleChange applies one interaction. Names outside the catalogue are
// accepted and stored.
func (c *Component) HandleChange(ev state.ChangeEvent) {
	if _, ok := c.form.Lookup(ev.Name); !ok {
		c.logger.Debug("change for unknown field", slog.String("field", ev.Name), slog.String("kind", string(ev.Kind)))
	}
	c.current = state.Apply(c.current, ev)
	c.logger.Debug("field changed", slog.String("field", ev.Name), slog.String("kind", string(ev.Kind)))
}

// HandleForm applies a full form post, see state.EventsFromForm.
func (c *Component) HandleForm(values url.Values, files map[string][]*multipart.FileHeader) {
	for _, ev := range state.EventsFromForm(c.form, values, files) {
		c.HandleChange(ev)
	}
}

// VisibleFields returns the catalogue fields whose rule holds for the
// current record, in catalogue order.
func (c *Component) VisibleFields() ([]model.Field, error) {
	return visibility.Filter(c.form.Fields, c.evaluator, c.visibilityContext())
}

// IsVisible reports whether the named field is rendered right now. Unknown
// names and rules that fail to evaluate count as hidden.
func (c *Component) IsVisible(name string) bool {
	field, ok := c.form.Lookup(name)
	if !ok {
		return false
	}
	rule := strings.TrimSpace(field.VisibleWhen)
	if rule == "" || c.evaluator == nil {
		return true
	}
	visible, err := c.evaluator.Eval(field.Name, rule, c.visibilityContext())
	if err != nil {
		c.logger.Warn("visibility rule failed", slog.String("field", name), slog.Any("error", err))
		return false
	}
	return visible
}

// View bundles the catalogue, the visible fields and the record.
func (c *Component) View() (render.View, error) {
	fields, err := c.VisibleFields()
	if err != nil {
		return render.View{}, fmt.Errorf("form: resolve visible fields: %w", err)
	}
	return render.View{Form: c.form, Fields: fields, State: c.current}, nil
}

// Render draws the component with renderer.
func (c *Component) Render(ctx context.Context, renderer render.Renderer, opts render.RenderOptions) ([]byte, error) {
	if renderer == nil {
		return nil, fmt.Errorf("form: renderer is nil")
	}
	view, err := c.View()
	if err != nil {
		return nil, err
	}
	out, err := renderer.Render(ctx, view, opts)
	if err != nil {
		return nil, fmt.Errorf("form: render %s: %w", renderer.Name(), err)
	}
	return out, nil
}

// Submit hands the full record, hidden fields included, to the sink. It
// always acknowledges: a failing sink is logged and reported through
// Ack.Delivered.
func (c *Component) Submit(ctx context.Context) submit.Ack {
	record := c.current.Clone()
	ack, err := c.sink.Submit(ctx, record)
	if err != nil {
		c.logger.ErrorContext(ctx, "form submission sink failed", slog.Any("error", err))
		ack.Delivered = false
	}
	if ack.Message == "" {
		ack.Message = submit.DefaultMessage
	}
	return ack
}

func (c *Component) visibilityContext() visibility.Context {
	return visibility.Context{Values: c.current.Values(), Extras: c.extras}
}

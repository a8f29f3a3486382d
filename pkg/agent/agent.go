package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goliatone/go-formdemo/pkg/model"
)

const (
	// StatusCompleted marks a run whose submission was acknowledged.
	StatusCompleted = "completed"
	// StatusFailed marks a run that could not submit.
	StatusFailed = "failed"

	defaultMaxRounds = 5
)

// FilledField is one line of the report.
type FilledField struct {
	ID    string          `json:"id"`
	Label string          `json:"label"`
	Kind  model.InputKind `json:"kind"`
	Value string          `json:"value"`
}

// Report summarises a run.
type Report struct {
	Status    string        `json:"status"`
	Submitted bool          `json:"submission_success"`
	Message   string        `json:"message,omitempty"`
	Fields    []FilledField `json:"filled_fields"`
}

// Option configures an Agent.
type Option func(*Agent)

// WithGenerator replaces the value generator.
func WithGenerator(gen *Generator) Option {
	return func(a *Agent) {
		if gen != nil {
			a.gen = gen
		}
	}
}

// WithSeed seeds the default generator.
func WithSeed(seed uint64) Option {
	return func(a *Agent) {
		a.gen = NewGenerator(seed)
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithFormID selects which form on the page is filled.
func WithFormID(id string) Option {
	return func(a *Agent) {
		if id != "" {
			a.formID = id
		}
	}
}

// WithMaxRounds bounds how many discovery passes run before submitting.
func WithMaxRounds(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxRounds = n
		}
	}
}

// Agent fills a Target with generated values and submits it.
type Agent struct {
	target    Target
	gen       *Generator
	logger    *slog.Logger
	formID    string
	maxRounds int
}

// New builds an Agent for target.
func New(target Target, options ...Option) *Agent {
	a := &Agent{
		target:    target,
		logger:    slog.Default(),
		formID:    "myForm",
		maxRounds: defaultMaxRounds,
	}
	for _, opt := range options {
		if opt != nil {
			opt(a)
		}
	}
	if a.gen == nil {
		a.gen = NewGenerator(uint64(time.Now().UnixNano()))
	}
	return a
}

// Run discovers the form, fills every control, re-discovers after each pass
// so revealed controls get filled, then submits.
func (a *Agent) Run(ctx context.Context) (Report, error) {
	if a.target == nil {
		return Report{Status: StatusFailed}, fmt.Errorf("agent: target is nil")
	}

	markup, err := a.target.Page(ctx)
	if err != nil {
		return Report{Status: StatusFailed}, err
	}

	var (
		fills  []Fill
		filled = map[string]bool{}
		hidden map[string]string
	)
	for round := 0; round < a.maxRounds; round++ {
		page, err := Discover(markup, a.formID)
		if err != nil {
			return Report{Status: StatusFailed}, err
		}
		if page.Hidden != nil {
			hidden = page.Hidden
		}

		pending := 0
		for _, ctrl := range page.Controls {
			if ctrl.Name == "" || filled[ctrl.Name] {
				continue
			}
			if err := ctx.Err(); err != nil {
				return a.report(fills, false, ""), err
			}
			pending++
			fill := a.gen.Fill(ctrl)
			next, err := a.target.Apply(ctx, fill, hidden)
			if err != nil {
				return a.report(fills, false, ""), fmt.Errorf("agent: fill %s: %w", ctrl.Name, err)
			}
			markup = next
			filled[ctrl.Name] = true
			fills = append(fills, fill)
			a.logger.DebugContext(ctx, "agent filled field",
				slog.String("field", ctrl.Name),
				slog.String("kind", string(ctrl.Kind)),
				slog.String("value", fill.Display()),
			)
		}
		if pending == 0 {
			break
		}
	}

	ack, err := a.target.Submit(ctx, fills, hidden)
	if err != nil {
		a.logger.ErrorContext(ctx, "agent submission failed", slog.Any("error", err))
		return a.report(fills, false, ""), err
	}
	a.logger.InfoContext(ctx, "agent submitted form", slog.Int("fields", len(fills)), slog.Bool("delivered", ack.Delivered))
	return a.report(fills, true, ack.Message), nil
}

func (a *Agent) report(fills []Fill, submitted bool, message string) Report {
	report := Report{Status: StatusFailed, Submitted: submitted, Message: message, Fields: make([]FilledField, 0, len(fills))}
	if submitted {
		report.Status = StatusCompleted
	}
	for _, fill := range fills {
		report.Fields = append(report.Fields, FilledField{
			ID:    fill.Control.ID,
			Label: fill.Control.Label,
			Kind:  fill.Control.Kind,
			Value: fill.Display(),
		})
	}
	return report
}

package tui

import (
	"io"

	"github.com/goliatone/go-formdemo/pkg/visibility"
)

// OutputFormat controls how collected values are serialized.
type OutputFormat string

const (
	// OutputFormatJSON emits application/json payloads.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatFormURLEncoded emits application/x-www-form-urlencoded payloads.
	OutputFormatFormURLEncoded OutputFormat = "form"
	// OutputFormatPrettyText emits a human-friendly text summary.
	OutputFormatPrettyText OutputFormat = "pretty"
)

// ParseOutputFormat maps a flag value to an OutputFormat, defaulting to JSON.
func ParseOutputFormat(raw string) OutputFormat {
	switch OutputFormat(raw) {
	case OutputFormatFormURLEncoded, OutputFormatPrettyText:
		return OutputFormat(raw)
	default:
		return OutputFormatJSON
	}
}

// Theme captures optional formatting hints applied to printed messages.
type Theme struct {
	InfoPrefix string
}

// Option configures the TUI renderer.
type Option func(*Renderer)

// WithPromptDriver overrides the prompt driver used by the renderer.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Renderer) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithMessageOutput sends informational messages (validation hints) of the
// built-in survey driver to w instead of stdout. Ignored for custom drivers.
func WithMessageOutput(w io.Writer) Option {
	return func(r *Renderer) {
		if d, ok := r.driver.(*surveyDriver); ok && w != nil {
			d.out = w
		}
	}
}

// WithOutputFormat selects the output serialization format.
func WithOutputFormat(format OutputFormat) Option {
	return func(r *Renderer) {
		if format != "" {
			r.outputFormat = format
		}
	}
}

// WithEvaluator sets the visibility evaluator used by Render. Fill relies on
// the session instead.
func WithEvaluator(evaluator visibility.Evaluator) Option {
	return func(r *Renderer) {
		if evaluator != nil {
			r.evaluator = evaluator
		}
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(r *Renderer) {
		r.theme = theme
	}
}

package model

import "github.com/goliatone/go-formdemo/internal/model"

// BuilderOption configures catalogue construction.
type BuilderOption func(*model.Options)

// WithLabeler overrides the default label generation function.
func WithLabeler(labeler func(string) string) BuilderOption {
	return func(opts *model.Options) {
		opts.Labeler = labeler
	}
}

// WithAction overrides the submission endpoint written into the form.
func WithAction(action string) BuilderOption {
	return func(opts *model.Options) {
		opts.Action = action
	}
}

// DemoForm returns the complete demonstration form.
func DemoForm(options ...BuilderOption) FormModel {
	opts := model.Options{}
	for _, opt := range options {
		if opt != nil {
			opt(&opts)
		}
	}
	return model.New(opts).Build()
}

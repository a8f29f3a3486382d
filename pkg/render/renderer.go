package render

import (
	"context"

	"github.com/goliatone/go-formdemo/pkg/model"
	"github.com/goliatone/go-formdemo/pkg/state"
)

// View is everything a renderer needs for one pass: the catalogue, the
// subset of fields currently visible, and the record supplying their values.
type View struct {
	Form   model.FormModel
	Fields []model.Field
	State  state.FormState
}

// Renderer converts a View into a byte representation (HTML, JSON, text).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, view View, options RenderOptions) ([]byte, error)
}

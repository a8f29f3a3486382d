package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formdemo/pkg/model"
	"github.com/goliatone/go-formdemo/pkg/render"
)

// Transformer mutates a view before rendering. Implementations can relabel
// fields, add attributes or retitle the form.
type Transformer interface {
	Transform(ctx context.Context, view *render.View) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, view *render.View) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, view *render.View) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, view)
}

// PresetTransformer applies a declarative document of per-field patches.
// Example:
//
//	{
//	  "title": "Checkout",
//	  "fields": {
//	    "text": {"label": "Full name", "placeholder": "Ada Lovelace"}
//	  }
//	}
type PresetTransformer struct {
	document presetDocument
}

type presetDocument struct {
	Title       string                `json:"title,omitempty" yaml:"title,omitempty"`
	SubmitLabel string                `json:"submitLabel,omitempty" yaml:"submitLabel,omitempty"`
	Fields      map[string]fieldPatch `json:"fields,omitempty" yaml:"fields,omitempty"`
}

type fieldPatch struct {
	Label       string            `json:"label,omitempty" yaml:"label,omitempty"`
	Placeholder string            `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Attrs       map[string]string `json:"attrs,omitempty" yaml:"attrs,omitempty"`
}

// NewJSONPresetTransformer constructs a transformer from raw JSON bytes.
func NewJSONPresetTransformer(data []byte) (*PresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("preset transformer: document is empty")
	}
	var document presetDocument
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("preset transformer: parse document: %w", err)
	}
	return &PresetTransformer{document: document}, nil
}

// NewYAMLPresetTransformer constructs a transformer from raw YAML bytes.
func NewYAMLPresetTransformer(data []byte) (*PresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("preset transformer: document is empty")
	}
	var document presetDocument
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("preset transformer: parse document: %w", err)
	}
	return &PresetTransformer{document: document}, nil
}

// NewPresetTransformerFromFS loads a preset from fsys. Files ending in .yaml
// or .yml are read as YAML, everything else as JSON.
func NewPresetTransformerFromFS(fsys fs.FS, name string) (*PresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("preset transformer: read %s: %w", name, err)
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return NewYAMLPresetTransformer(data)
	default:
		return NewJSONPresetTransformer(data)
	}
}

// Transform applies the patches. A patch naming a field outside the
// catalogue is an error; hidden fields are patched in the catalogue only.
func (t *PresetTransformer) Transform(ctx context.Context, view *render.View) error {
	if view == nil {
		return errors.New("preset transformer: view is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if t.document.Title != "" {
		view.Form.Title = t.document.Title
	}
	if t.document.SubmitLabel != "" {
		view.Form.SubmitLabel = t.document.SubmitLabel
	}

	for name, patch := range t.document.Fields {
		field := findField(view.Form.Fields, name)
		if field == nil {
			return fmt.Errorf("preset transformer: field %q not found", name)
		}
		applyFieldPatch(field, patch)
		if visible := findField(view.Fields, name); visible != nil {
			applyFieldPatch(visible, patch)
		}
	}
	return nil
}

func applyFieldPatch(field *model.Field, patch fieldPatch) {
	if patch.Label != "" {
		field.Label = patch.Label
	}
	if patch.Placeholder != "" {
		field.Placeholder = patch.Placeholder
	}
	if len(patch.Attrs) > 0 {
		field.Attrs = mergeStringMap(field.Attrs, patch.Attrs)
	}
}

func findField(fields []model.Field, name string) *model.Field {
	for idx := range fields {
		if fields[idx].Name == name {
			return &fields[idx]
		}
	}
	return nil
}

// mergeStringMap returns a fresh map so the source catalogue stays untouched.
func mergeStringMap(dst, src map[string]string) map[string]string {
	out := make(map[string]string, len(dst)+len(src))
	maps.Copy(out, dst)
	maps.Copy(out, src)
	return out
}

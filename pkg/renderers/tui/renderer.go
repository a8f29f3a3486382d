package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goliatone/go-formdemo/pkg/model"
	"github.com/goliatone/go-formdemo/pkg/render"
	"github.com/goliatone/go-formdemo/pkg/state"
	"github.com/goliatone/go-formdemo/pkg/visibility"
	"github.com/goliatone/go-formdemo/pkg/visibility/expr"
)

// Renderer implements render.Renderer for terminal-driven sessions: every
// visible field becomes a prompt and each answer is applied as a change
// event.
type Renderer struct {
	driver       PromptDriver
	outputFormat OutputFormat
	evaluator    visibility.Evaluator
	theme        Theme
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(options ...Option) (*Renderer, error) {
	driver, err := newSurveyDriver()
	if err != nil {
		return nil, err
	}

	r := &Renderer{
		driver:       driver,
		outputFormat: OutputFormatJSON,
		evaluator:    expr.New(),
	}

	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}

	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain"
	default:
		return "application/json"
	}
}

// Render prompts for the fields of view starting from view.State and returns
// the serialized record. The caller's state is not modified.
func (r *Renderer) Render(ctx context.Context, view render.View, _ render.RenderOptions) ([]byte, error) {
	session := &viewSession{
		form:      view.Form,
		current:   view.State.Clone(),
		evaluator: r.evaluator,
	}
	if err := r.Fill(ctx, session); err != nil {
		return nil, err
	}
	return r.Serialize(session.State())
}

// Fill walks the catalogue in order and prompts for every field that is
// visible at the time it is reached.
func (r *Renderer) Fill(ctx context.Context, session Session) error {
	if ctx == nil {
		return errors.New("tui: context is required")
	}
	if session == nil {
		return ErrNoSession
	}
	if r.driver == nil {
		return errors.New("tui: prompt driver is nil")
	}

	for _, field := range session.Form().Fields {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !session.IsVisible(field.Name) {
			continue
		}
		current, _ := session.State().Get(field.Name)
		ev, ok, err := r.promptField(ctx, field, current)
		if err != nil {
			return fmt.Errorf("tui: prompt %q: %w", field.Name, err)
		}
		if ok {
			session.HandleChange(ev)
		}
	}
	return nil
}

// promptField asks for one field. ok is false when the answer should leave
// the stored value untouched.
func (r *Renderer) promptField(ctx context.Context, field model.Field, current state.Value) (state.ChangeEvent, bool, error) {
	ev := state.ChangeEvent{Name: field.Name, Kind: field.Kind}
	q := Question{Field: field.Name, Message: displayLabel(field)}

	switch field.Kind {
	case model.KindCheckbox:
		q.Kind, q.Checked = PromptConfirm, current.Bool()
		answer, err := r.driver.Ask(ctx, q)
		if err != nil {
			return ev, false, err
		}
		ev.Checked = answer.Checked
		return ev, true, nil

	case model.KindRadio, model.KindSelect:
		q.Kind, q.Options, q.Default, q.Help = PromptSelect, field.Options, current.String(), field.Placeholder
		answer, err := r.driver.Ask(ctx, q)
		if err != nil {
			return ev, false, err
		}
		if indexOf(field.Options, answer.Text) < 0 {
			return ev, false, nil
		}
		ev.Value = answer.Text
		return ev, true, nil

	case model.KindMultiSelect:
		q.Kind, q.Options, q.Selected = PromptMultiSelect, field.Options, current.Selected()
		answer, err := r.driver.Ask(ctx, q)
		if err != nil {
			return ev, false, err
		}
		ev.Selected = known(field.Options, answer.Selected)
		return ev, true, nil

	case model.KindTextarea, model.KindPassword:
		q.Kind = PromptMultiline
		if field.Kind == model.KindPassword {
			q.Kind = PromptPassword
		} else {
			q.Default = current.String()
		}
		answer, err := r.driver.Ask(ctx, q)
		if err != nil {
			return ev, false, err
		}
		ev.Value = answer.Text
		return ev, true, nil

	case model.KindFile:
		return r.promptFile(ctx, q)

	default:
		q.Kind, q.Default, q.Help = PromptInput, current.String(), field.Placeholder
		text, err := r.promptText(ctx, field, q)
		if err != nil {
			return ev, false, err
		}
		ev.Value = text
		return ev, true, nil
	}
}

// promptText repeats q until the answer passes the field's format check.
func (r *Renderer) promptText(ctx context.Context, field model.Field, q Question) (string, error) {
	validate := validatorFor(field)
	for {
		answer, err := r.driver.Ask(ctx, q)
		if err != nil {
			return "", err
		}
		if err := validate(answer.Text); err != nil {
			if err := r.info(ctx, fmt.Sprintf("Invalid %s: %v", field.Name, err)); err != nil {
				return "", err
			}
			continue
		}
		return answer.Text, nil
	}
}

// promptFile asks for a path on disk and records a handle for it. An empty
// answer keeps the current selection.
func (r *Renderer) promptFile(ctx context.Context, q Question) (state.ChangeEvent, bool, error) {
	ev := state.ChangeEvent{Name: q.Field, Kind: model.KindFile}
	q.Kind, q.Help = PromptInput, "Path to a local file, empty to skip"
	for {
		answer, err := r.driver.Ask(ctx, q)
		if err != nil {
			return ev, false, err
		}
		path := strings.TrimSpace(answer.Text)
		if path == "" {
			return ev, false, nil
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			if err := r.info(ctx, fmt.Sprintf("Invalid %s: %q is not a readable file", q.Field, path)); err != nil {
				return ev, false, err
			}
			continue
		}
		ev.Files = []state.FileHandle{{
			Name:        filepath.Base(path),
			Size:        info.Size(),
			ContentType: mime.TypeByExtension(filepath.Ext(path)),
		}}
		return ev, true, nil
	}
}

func (r *Renderer) info(ctx context.Context, msg string) error {
	return r.driver.Info(ctx, r.theme.InfoPrefix+msg)
}

// validatorFor returns the format check for numeric controls. It mirrors the
// browser's value sanitisation for number and range inputs, so a terminal
// answer can hold only what a browser control could; other kinds accept any
// text.
func validatorFor(field model.Field) func(string) error {
	switch field.Kind {
	case model.KindNumber:
		return func(raw string) error {
			if strings.TrimSpace(raw) == "" {
				return nil
			}
			if _, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err != nil {
				return errors.New("not a number")
			}
			return nil
		}
	case model.KindRange:
		lo, hi := attrFloat(field, "min", 0), attrFloat(field, "max", 100)
		return func(raw string) error {
			n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return errors.New("not a number")
			}
			if n < lo || n > hi {
				return fmt.Errorf("must be between %g and %g", lo, hi)
			}
			return nil
		}
	default:
		return func(string) error { return nil }
	}
}

func attrFloat(field model.Field, name string, def float64) float64 {
	if raw, ok := field.Attrs[name]; ok {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	}
	return def
}

// Serialize encodes a record in the renderer's output format.
func (r *Renderer) Serialize(current state.FormState) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return []byte(flattenForm(current)), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(current)), nil
	default:
		return json.MarshalIndent(current, "", "  ")
	}
}

func displayLabel(field model.Field) string {
	if label := strings.TrimSpace(field.Label); label != "" {
		return label
	}
	return model.DefaultLabeler(field.Name)
}

func flattenForm(current state.FormState) string {
	values := url.Values{}
	for _, name := range current.Names() {
		value, _ := current.Get(name)
		switch value.Kind() {
		case state.ValueOptions:
			for _, option := range value.Selected() {
				values.Add(name, option)
			}
		default:
			values.Set(name, value.String())
		}
	}
	return values.Encode()
}

func prettyPrint(current state.FormState) string {
	var b strings.Builder
	for _, name := range current.Names() {
		value, _ := current.Get(name)
		b.WriteString(name)
		b.WriteString(": ")
		switch value.Kind() {
		case state.ValueOptions:
			b.WriteString("[" + value.String() + "]")
		case state.ValueFile:
			if handle := value.File(); handle != nil {
				fmt.Fprintf(&b, "%s (%d bytes)", handle.Name, handle.Size)
			} else {
				b.WriteString("<none>")
			}
		default:
			b.WriteString(value.String())
		}
		b.WriteByte('\n')
	}
	return b.String()
}

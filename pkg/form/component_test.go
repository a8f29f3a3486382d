package form_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formdemo/pkg/form"
	"github.com/goliatone/go-formdemo/pkg/model"
	"github.com/goliatone/go-formdemo/pkg/render"
	"github.com/goliatone/go-formdemo/pkg/renderers/tui"
	"github.com/goliatone/go-formdemo/pkg/renderers/vanilla"
	"github.com/goliatone/go-formdemo/pkg/state"
	"github.com/goliatone/go-formdemo/pkg/submit"
	"github.com/goliatone/go-formdemo/pkg/testsupport"
	"github.com/goliatone/go-formdemo/pkg/visibility"
)

var _ tui.Session = (*form.Component)(nil)

type recordingSink struct {
	records []state.FormState
	err     error
}

func (s *recordingSink) Submit(_ context.Context, record state.FormState) (submit.Ack, error) {
	s.records = append(s.records, record)
	if s.err != nil {
		return submit.Ack{}, s.err
	}
	return submit.Ack{Message: "ok", Delivered: true}, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func visibleNames(t *testing.T, c *form.Component) []string {
	t.Helper()
	fields, err := c.VisibleFields()
	if err != nil {
		t.Fatalf("visible fields: %v", err)
	}
	names := make([]string, 0, len(fields))
	for _, field := range fields {
		names = append(names, field.Name)
	}
	return names
}

func TestComponent_CheckboxRevealsAndRetainsExtraInfo(t *testing.T) {
	c := form.New(form.WithLogger(quietLogger()))

	if c.IsVisible(model.ExtraInfoField) {
		t.Fatalf("extraInfo must start hidden")
	}
	if strings.Contains(strings.Join(visibleNames(t, c), ","), model.ExtraInfoField) {
		t.Fatalf("extraInfo listed while hidden")
	}

	c.HandleChange(state.ChangeEvent{Name: model.CheckboxField, Kind: model.KindCheckbox, Checked: true})
	if !c.IsVisible(model.ExtraInfoField) {
		t.Fatalf("extraInfo must show once checked")
	}
	names := visibleNames(t, c)
	for i, name := range names {
		if name == model.CheckboxField {
			if i+1 >= len(names) || names[i+1] != model.ExtraInfoField {
				t.Fatalf("extraInfo should follow the checkbox: %v", names)
			}
		}
	}

	c.HandleChange(state.ChangeEvent{Name: model.ExtraInfoField, Kind: model.KindText, Value: "note"})
	c.HandleChange(state.ChangeEvent{Name: model.CheckboxField, Kind: model.KindCheckbox, Checked: false})
	if c.IsVisible(model.ExtraInfoField) {
		t.Fatalf("extraInfo must hide when unchecked")
	}
	if v, _ := c.State().Get(model.ExtraInfoField); v.String() != "note" {
		t.Fatalf("hidden value must be retained, got %q", v.String())
	}

	c.HandleChange(state.ChangeEvent{Name: model.CheckboxField, Kind: model.KindCheckbox, Checked: true})
	renderer, err := vanilla.New()
	if err != nil {
		t.Fatalf("vanilla: %v", err)
	}
	out, err := c.Render(testsupport.Context(), renderer, render.RenderOptions{Fragment: true})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	extra := testsupport.FindByTestID(testsupport.ParseHTML(t, out), "extraInfo-input")
	if v, _ := testsupport.Attr(extra, "value"); v != "note" {
		t.Fatalf("re-checked extraInfo should show the retained value, got %q", v)
	}
}

func TestComponent_StateSnapshotsAreStable(t *testing.T) {
	c := form.New(form.WithLogger(quietLogger()))
	before := c.State()
	c.HandleChange(state.ChangeEvent{Name: "text", Kind: model.KindText, Value: "a"})
	c.HandleChange(state.ChangeEvent{Name: "text", Kind: model.KindText, Value: "ab"})

	if v, _ := before.Get("text"); v.String() != "" {
		t.Fatalf("earlier snapshot changed: %q", v.String())
	}
	if v, _ := c.State().Get("text"); v.String() != "ab" {
		t.Fatalf("text = %q, want ab", v.String())
	}
}

func TestComponent_UnknownFieldIsStoredAndLogged(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := form.New(form.WithLogger(logger))

	c.HandleChange(state.ChangeEvent{Name: "nickname", Kind: model.KindText, Value: "zed"})
	if v, ok := c.State().Get("nickname"); !ok || v.String() != "zed" {
		t.Fatalf("unknown field should be stored")
	}
	if c.IsVisible("nickname") {
		t.Fatalf("unknown fields are never rendered")
	}
	if !strings.Contains(logs.String(), "change for unknown field") {
		t.Fatalf("expected debug entry, got:\n%s", logs.String())
	}
}

func TestComponent_SubmitWithEmptyFields(t *testing.T) {
	sink := &recordingSink{}
	c := form.New(form.WithSink(sink), form.WithLogger(quietLogger()))

	ack := c.Submit(context.Background())
	if diff := cmp.Diff(submit.Ack{Message: "ok", Delivered: true}, ack); diff != "" {
		t.Fatalf("ack mismatch (-want +got):\n%s", diff)
	}
	if len(sink.records) != 1 {
		t.Fatalf("sink should receive one record, got %d", len(sink.records))
	}
	if diff := cmp.Diff(c.Form().Names(), sink.records[0].Names()); diff != "" {
		t.Fatalf("record should carry every field (-want +got):\n%s", diff)
	}
}

func TestComponent_SubmitIncludesHiddenValues(t *testing.T) {
	sink := &recordingSink{}
	c := form.New(form.WithSink(sink), form.WithLogger(quietLogger()))
	c.HandleChange(state.ChangeEvent{Name: model.ExtraInfoField, Kind: model.KindText, Value: "kept"})
	c.Submit(context.Background())

	if v, _ := sink.records[0].Get(model.ExtraInfoField); v.String() != "kept" {
		t.Fatalf("hidden extraInfo should still be submitted, got %q", v.String())
	}
}

func TestComponent_SinkFailureStillAcknowledges(t *testing.T) {
	var logs bytes.Buffer
	c := form.New(
		form.WithSink(&recordingSink{err: errors.New("offline")}),
		form.WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
	)

	ack := c.Submit(context.Background())
	if ack.Delivered || ack.Message != submit.DefaultMessage {
		t.Fatalf("unexpected ack: %+v", ack)
	}
	if !strings.Contains(logs.String(), "offline") {
		t.Fatalf("sink error should be logged:\n%s", logs.String())
	}
}

func TestComponent_HandleFormAndExtras(t *testing.T) {
	evaluator := visibility.EvaluatorFunc(func(_, rule string, ctx visibility.Context) (bool, error) {
		return ctx.Extras["preview"] == true, nil
	})
	c := form.New(
		form.WithEvaluator(evaluator),
		form.WithExtras(map[string]any{"preview": true}),
		form.WithLogger(quietLogger()),
	)
	if !c.IsVisible(model.ExtraInfoField) {
		t.Fatalf("custom evaluator should see extras")
	}

	c.HandleForm(url.Values{"text": {"posted"}, "checkbox": {"on"}}, nil)
	got := c.State().Values()
	if got["text"] != "posted" || got["checkbox"] != true {
		t.Fatalf("form post not applied: %v", got)
	}
}

func TestComponent_WithInitialStateIsCopied(t *testing.T) {
	demo := model.DemoForm()
	seed := state.Apply(state.New(demo), state.ChangeEvent{Name: "search", Kind: model.KindSearch, Value: "go"})
	c := form.New(form.WithForm(demo), form.WithInitialState(seed), form.WithLogger(quietLogger()))
	c.HandleChange(state.ChangeEvent{Name: "search", Kind: model.KindSearch, Value: "rust"})

	if v, _ := seed.Get("search"); v.String() != "go" {
		t.Fatalf("seed mutated: %q", v.String())
	}
	if _, err := c.Render(context.Background(), nil, render.RenderOptions{}); err == nil {
		t.Fatalf("expected error for nil renderer")
	}
}

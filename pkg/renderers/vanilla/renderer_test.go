package vanilla_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"

	internalmodel "github.com/goliatone/go-formdemo/internal/model"
	"github.com/goliatone/go-formdemo/pkg/model"
	"github.com/goliatone/go-formdemo/pkg/render"
	"github.com/goliatone/go-formdemo/pkg/renderers/vanilla"
	"github.com/goliatone/go-formdemo/pkg/state"
	"github.com/goliatone/go-formdemo/pkg/testsupport"
	"github.com/goliatone/go-formdemo/pkg/visibility"
	"github.com/goliatone/go-formdemo/pkg/visibility/expr"
)

func newRenderer(t *testing.T, opts ...vanilla.Option) *vanilla.Renderer {
	t.Helper()
	renderer, err := vanilla.New(opts...)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	return renderer
}

func viewFor(t *testing.T, current state.FormState) render.View {
	t.Helper()
	form := model.DemoForm()
	fields, err := visibility.Filter(form.Fields, expr.New(), visibility.Context{Values: current.Values()})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	return render.View{Form: form, Fields: fields, State: current}
}

func renderDoc(t *testing.T, renderer *vanilla.Renderer, view render.View, opts render.RenderOptions) *html.Node {
	t.Helper()
	out, err := renderer.Render(testsupport.Context(), view, opts)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return testsupport.ParseHTML(t, out)
}

func TestRenderer_Metadata(t *testing.T) {
	renderer := newRenderer(t)
	if renderer.Name() != "vanilla" {
		t.Fatalf("name = %q", renderer.Name())
	}
	if !strings.HasPrefix(renderer.ContentType(), "text/html") {
		t.Fatalf("content type = %q", renderer.ContentType())
	}
}

func TestRenderer_InitialPage(t *testing.T) {
	_, initial := testsupport.DemoForm()
	doc := renderDoc(t, newRenderer(t), viewFor(t, initial), render.RenderOptions{})

	form := testsupport.FindByID(doc, "myForm")
	if form == nil {
		t.Fatalf("form #myForm not rendered")
	}
	if action, _ := testsupport.Attr(form, "action"); action != internalmodel.DefaultAction {
		t.Fatalf("action = %q", action)
	}
	if testsupport.FindByTestID(doc, "submit-button") == nil {
		t.Fatalf("submit button missing")
	}

	for _, id := range []string{
		"text-input", "email-input", "password-input", "number-input", "tel-input",
		"url-input", "date-input", "time-input", "datetime-input", "month-input",
		"week-input", "color-input", "range-input", "file-input", "search-input",
		"checkbox-input", "radio-option1", "radio-option2", "radio-option3",
		"select-input", "multiselect-input", "textarea-input",
	} {
		if testsupport.FindByTestID(doc, id) == nil {
			t.Errorf("control %q missing", id)
		}
	}
	if testsupport.FindByTestID(doc, "extraInfo-input") != nil {
		t.Fatalf("extraInfo must be hidden while the checkbox is unchecked")
	}

	rangeLabel := testsupport.FindAll(doc, func(n *html.Node) bool {
		v, _ := testsupport.Attr(n, "for")
		return n.Data == "label" && v == "range"
	})
	if len(rangeLabel) != 1 || testsupport.Text(rangeLabel[0]) != "Range (50):" {
		t.Fatalf("unexpected range label: %v", rangeLabel)
	}

	radio := testsupport.FindByTestID(doc, "radio-option1")
	if _, checked := testsupport.Attr(radio, "checked"); !checked {
		t.Fatalf("option1 should be checked initially")
	}

	color := testsupport.FindByTestID(doc, "color-input")
	if v, _ := testsupport.Attr(color, "value"); v != "#000000" {
		t.Fatalf("color value = %q", v)
	}

	styles := testsupport.FindTag(doc, "style")
	if len(styles) == 0 || !strings.Contains(testsupport.Text(styles[0]), "--fd-brand: #3b82f6;") {
		t.Fatalf("theme variables missing from page")
	}
	if title := testsupport.FindTag(doc, "title"); len(title) != 1 || testsupport.Text(title[0]) != internalmodel.DefaultTitle {
		t.Fatalf("unexpected title")
	}
}

func TestRenderer_CheckedStateShowsExtraInfo(t *testing.T) {
	_, initial := testsupport.DemoForm()
	current := state.ApplyAll(initial,
		state.ChangeEvent{Name: "checkbox", Kind: model.KindCheckbox, Checked: true},
		state.ChangeEvent{Name: "extraInfo", Kind: model.KindText, Value: "hello"},
		state.ChangeEvent{Name: "select", Kind: model.KindSelect, Value: "PayPal"},
		state.ChangeEvent{Name: "multiselect", Kind: model.KindMultiSelect, Selected: []string{"Feature 2", "Feature 4"}},
		state.ChangeEvent{Name: "textarea", Kind: model.KindTextarea, Value: "line one\n\n  line two"},
	)
	doc := renderDoc(t, newRenderer(t), viewFor(t, current), render.RenderOptions{Fragment: true})

	checkbox := testsupport.FindByTestID(doc, "checkbox-input")
	if _, checked := testsupport.Attr(checkbox, "checked"); !checked {
		t.Fatalf("checkbox should be checked")
	}
	extra := testsupport.FindByTestID(doc, "extraInfo-input")
	if extra == nil {
		t.Fatalf("extraInfo must render when the checkbox is checked")
	}
	if v, _ := testsupport.Attr(extra, "value"); v != "hello" {
		t.Fatalf("extraInfo value = %q", v)
	}

	selectedIn := func(testID string) []string {
		node := testsupport.FindByTestID(doc, testID)
		var out []string
		for _, option := range testsupport.FindTag(node, "option") {
			if _, ok := testsupport.Attr(option, "selected"); ok {
				v, _ := testsupport.Attr(option, "value")
				out = append(out, v)
			}
		}
		return out
	}
	if diff := cmp.Diff([]string{"PayPal"}, selectedIn("select-input")); diff != "" {
		t.Fatalf("select mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Feature 2", "Feature 4"}, selectedIn("multiselect-input")); diff != "" {
		t.Fatalf("multiselect mismatch (-want +got):\n%s", diff)
	}

	textarea := testsupport.FindByTestID(doc, "textarea-input")
	if textarea == nil || textarea.FirstChild == nil || textarea.FirstChild.Data != "line one\n\n  line two" {
		t.Fatalf("textarea content altered")
	}
}

func TestRenderer_FragmentOmitsPageShell(t *testing.T) {
	_, initial := testsupport.DemoForm()
	out, err := newRenderer(t).Render(testsupport.Context(), viewFor(t, initial), render.RenderOptions{Fragment: true})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	markup := strings.TrimSpace(string(out))
	if !strings.HasPrefix(markup, `<form id="myForm"`) {
		t.Fatalf("fragment should start with the form element:\n%s", markup[:min(len(markup), 120)])
	}
	if strings.Contains(markup, "<title>") || strings.Contains(markup, "<script>") {
		t.Fatalf("fragment must not include the page shell")
	}
}

func TestRenderer_FlashIsSanitised(t *testing.T) {
	_, initial := testsupport.DemoForm()
	doc := renderDoc(t, newRenderer(t), viewFor(t, initial), render.RenderOptions{
		Fragment: true,
		Flash: &render.Flash{
			Level:   render.FlashSuccess,
			Message: `Form submitted <strong>successfully</strong>!<script>alert(1)</script>`,
		},
	})

	flash := testsupport.FindByTestID(doc, "confirmation")
	if flash == nil {
		t.Fatalf("confirmation missing")
	}
	if len(testsupport.FindTag(flash, "strong")) != 1 {
		t.Fatalf("strong emphasis should survive sanitisation")
	}
	if len(testsupport.FindTag(flash, "script")) != 0 {
		t.Fatalf("script must be stripped")
	}
	if got := testsupport.Text(flash); got != "Form submitted successfully!" {
		t.Fatalf("flash text = %q", got)
	}
}

func TestRenderer_HiddenFieldsAndAction(t *testing.T) {
	_, initial := testsupport.DemoForm()
	doc := renderDoc(t, newRenderer(t), viewFor(t, initial), render.RenderOptions{
		Fragment:     true,
		Action:       "/custom/submit",
		HiddenFields: render.MergeHiddenFields(nil, render.CSRFToken("_csrf", "tok"), render.Hidden("session", "s1")),
	})

	form := testsupport.FindByID(doc, "myForm")
	if action, _ := testsupport.Attr(form, "action"); action != "/custom/submit" {
		t.Fatalf("action = %q", action)
	}

	var got []string
	for _, input := range testsupport.FindTag(doc, "input") {
		if typ, _ := testsupport.Attr(input, "type"); typ != "hidden" {
			continue
		}
		name, _ := testsupport.Attr(input, "name")
		value, _ := testsupport.Attr(input, "value")
		got = append(got, name+"="+value)
	}
	if diff := cmp.Diff([]string{"_csrf=tok", "session=s1"}, got); diff != "" {
		t.Fatalf("hidden fields mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderer_DarkTheme(t *testing.T) {
	selector := render.NewStaticSelector("", render.DefaultThemeManifest())
	dark, err := render.ResolveTheme(selector, render.DefaultThemeName, "dark")
	if err != nil {
		t.Fatalf("resolve theme: %v", err)
	}
	_, initial := testsupport.DemoForm()
	out, err := newRenderer(t).Render(testsupport.Context(), viewFor(t, initial), render.RenderOptions{Theme: dark})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(out), "--fd-surface: #111827;") {
		t.Fatalf("dark surface token missing")
	}
}

func TestRenderer_UnknownComponentOverride(t *testing.T) {
	renderer := newRenderer(t, vanilla.WithComponentOverrides(map[string]string{"text": "missing"}))
	_, initial := testsupport.DemoForm()
	_, err := renderer.Render(testsupport.Context(), viewFor(t, initial), render.RenderOptions{})
	if err == nil || !strings.Contains(err.Error(), `component "missing" not registered for field "text"`) {
		t.Fatalf("expected unknown component error, got %v", err)
	}
}

package model_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formdemo/pkg/model"
)

func TestDemoForm_CoversEveryInputKind(t *testing.T) {
	form := model.DemoForm()

	seen := make(map[model.InputKind]int)
	for _, field := range form.Fields {
		seen[field.Kind]++
	}
	for _, kind := range model.Kinds() {
		if seen[kind] == 0 {
			t.Errorf("kind %q has no control", kind)
		}
	}
	if seen[model.KindText] != 2 {
		t.Fatalf("expected text + extraInfo text controls, got %d", seen[model.KindText])
	}
}

func TestDemoForm_ExtraInfoFollowsCheckbox(t *testing.T) {
	names := model.DemoForm().Names()
	for i, name := range names {
		if name != model.CheckboxField {
			continue
		}
		if i+1 >= len(names) || names[i+1] != model.ExtraInfoField {
			t.Fatalf("expected %q after checkbox, got %v", model.ExtraInfoField, names)
		}
		return
	}
	t.Fatalf("checkbox field missing: %v", names)
}

func TestDemoForm_TestIDsAreUnique(t *testing.T) {
	form := model.DemoForm()
	ids := make(map[string]string)
	for _, field := range form.Fields {
		var candidates []string
		if field.Kind == model.KindRadio {
			for _, option := range field.Options {
				candidates = append(candidates, field.OptionTestID(option))
			}
		} else {
			candidates = append(candidates, field.TestID)
		}
		for _, id := range candidates {
			if id == "" {
				t.Fatalf("field %q has an empty test id", field.Name)
			}
			if owner, dup := ids[id]; dup {
				t.Fatalf("test id %q used by %q and %q", id, owner, field.Name)
			}
			ids[id] = field.Name
		}
	}
	if ids["radio-option2"] != "radio" {
		t.Fatalf("radio option test ids missing: %v", ids)
	}
}

func TestDemoForm_OptionLists(t *testing.T) {
	form := model.DemoForm()

	cases := map[string][]string{
		"radio":       {"option1", "option2", "option3"},
		"select":      {"Credit Card", "PayPal", "Bank Transfer"},
		"multiselect": {"Feature 1", "Feature 2", "Feature 3", "Feature 4"},
	}
	for name, want := range cases {
		field, ok := form.Lookup(name)
		if !ok {
			t.Fatalf("field %q missing", name)
		}
		if diff := cmp.Diff(want, field.Options); diff != "" {
			t.Fatalf("%s options mismatch (-want +got):\n%s", name, diff)
		}
	}
}

func TestDemoForm_WithAction(t *testing.T) {
	form := model.DemoForm(model.WithAction("/custom"))
	if form.Action != "/custom" {
		t.Fatalf("action = %q, want /custom", form.Action)
	}
	if form.ID != "myForm" {
		t.Fatalf("form id = %q, want myForm", form.ID)
	}
}

func TestDefaultLabeler(t *testing.T) {
	cases := map[string]string{
		"extraInfo":     "Extra Info",
		"date_of-birth": "Date Of Birth",
		"field2":        "Field 2",
		"":              "",
	}
	for in, want := range cases {
		if got := model.DefaultLabeler(in); got != want {
			t.Errorf("DefaultLabeler(%q) = %q, want %q", in, got, want)
		}
	}
}

package model

import "strings"

const (
	DefaultFormID      = "myForm"
	DefaultTitle       = "Complete Form Demo"
	DefaultAction      = "/form/submit"
	DefaultSubmitLabel = "Submit"

	// CheckboxField gates the visibility of ExtraInfoField.
	CheckboxField  = "checkbox"
	ExtraInfoField = "extraInfo"
)

var (
	SelectOptions      = []string{"Credit Card", "PayPal", "Bank Transfer"}
	MultiSelectOptions = []string{"Feature 1", "Feature 2", "Feature 3", "Feature 4"}
	RadioOptions       = []string{"option1", "option2", "option3"}
)

// Options tunes catalogue construction.
type Options struct {
	// Labeler derives labels for fields declared without one.
	Labeler func(string) string
	// Action overrides the form submission endpoint.
	Action string
}

// Builder assembles the demo form catalogue.
type Builder struct {
	opts Options
}

// New creates a Builder with the supplied options.
func New(options Options) *Builder {
	opts := Options{Labeler: DefaultLabeler, Action: DefaultAction}
	if options.Labeler != nil {
		opts.Labeler = options.Labeler
	}
	if action := strings.TrimSpace(options.Action); action != "" {
		opts.Action = action
	}
	return &Builder{opts: opts}
}

// Build returns the complete form: one control per input kind plus the
// conditional extra-info field placed right after the checkbox.
func (b *Builder) Build() FormModel {
	fields := []Field{
		b.input("text", KindText, "Text"),
		b.input("email", KindEmail, "Email"),
		b.input("password", KindPassword, "Password"),
		b.input("number", KindNumber, "Number"),
		b.input("tel", KindTel, "Telephone"),
		b.input("url", KindURL, "URL"),
		b.input("date", KindDate, "Date"),
		b.input("time", KindTime, "Time"),
		b.input("datetime", KindDateTime, "DateTime"),
		b.input("month", KindMonth, "Month"),
		b.input("week", KindWeek, "Week"),
		withDefault(b.input("color", KindColor, "Color"), "#000000"),
		withAttrs(withDefault(b.input("range", KindRange, "Range"), "50"), map[string]string{"min": "0", "max": "100"}),
		withDefault(b.input("file", KindFile, "File"), nil),
		b.input("search", KindSearch, "Search"),
		withDefault(b.input(CheckboxField, KindCheckbox, "I agree to terms (triggers extra field)"), false),
		{
			Name:        ExtraInfoField,
			Kind:        KindText,
			Label:       "Extra Information (if agreed)",
			TestID:      ExtraInfoField + "-input",
			Default:     "",
			VisibleWhen: CheckboxField + " == true",
		},
		{
			Name:    "radio",
			Kind:    KindRadio,
			Label:   "Radio Options",
			Options: cloneStrings(RadioOptions),
			Default: RadioOptions[0],
		},
		{
			Name:        "select",
			Kind:        KindSelect,
			Label:       "Payment Method",
			TestID:      "select-input",
			Placeholder: "Select payment method",
			Options:     cloneStrings(SelectOptions),
			Default:     "",
		},
		{
			Name:    "multiselect",
			Kind:    KindMultiSelect,
			Label:   "Features (Multi-Select)",
			TestID:  "multiselect-input",
			Options: cloneStrings(MultiSelectOptions),
			Default: []string{},
			Attrs:   map[string]string{"size": "4"},
		},
		withAttrs(b.input("textarea", KindTextarea, "Comments"), map[string]string{"rows": "4"}),
	}

	return FormModel{
		ID:          DefaultFormID,
		Title:       DefaultTitle,
		Action:      b.opts.Action,
		Method:      "POST",
		SubmitLabel: DefaultSubmitLabel,
		Fields:      fields,
	}
}

func (b *Builder) input(name string, kind InputKind, label string) Field {
	if label == "" && b.opts.Labeler != nil {
		label = b.opts.Labeler(name)
	}
	return Field{
		Name:    name,
		Kind:    kind,
		Label:   label,
		TestID:  name + "-input",
		Default: "",
	}
}

func withDefault(field Field, value any) Field {
	field.Default = value
	return field
}

func withAttrs(field Field, attrs map[string]string) Field {
	field.Attrs = attrs
	return field
}

func cloneStrings(in []string) []string {
	return append([]string(nil), in...)
}

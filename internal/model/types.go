package model

// InputKind identifies the native control a field renders as. The values match
// the HTML `type` attribute (or the DOM `type` property for select/textarea)
// so change events coming from a browser can be dispatched without mapping.
type InputKind string

const (
	KindText        InputKind = "text"
	KindEmail       InputKind = "email"
	KindPassword    InputKind = "password"
	KindNumber      InputKind = "number"
	KindTel         InputKind = "tel"
	KindURL         InputKind = "url"
	KindDate        InputKind = "date"
	KindTime        InputKind = "time"
	KindDateTime    InputKind = "datetime-local"
	KindMonth       InputKind = "month"
	KindWeek        InputKind = "week"
	KindColor       InputKind = "color"
	KindRange       InputKind = "range"
	KindFile        InputKind = "file"
	KindSearch      InputKind = "search"
	KindCheckbox    InputKind = "checkbox"
	KindRadio       InputKind = "radio"
	KindSelect      InputKind = "select-one"
	KindMultiSelect InputKind = "select-multiple"
	KindTextarea    InputKind = "textarea"
)

// Kinds lists every supported input kind in catalogue order.
func Kinds() []InputKind {
	return []InputKind{
		KindText, KindEmail, KindPassword, KindNumber, KindTel, KindURL,
		KindDate, KindTime, KindDateTime, KindMonth, KindWeek, KindColor,
		KindRange, KindFile, KindSearch, KindCheckbox, KindRadio, KindSelect,
		KindMultiSelect, KindTextarea,
	}
}

// ParseKind normalises raw kind strings, accepting the aliases browsers and
// HTML authors commonly use ("select", "multiselect", "datetime").
func ParseKind(raw string) InputKind {
	switch raw {
	case "select":
		return KindSelect
	case "multiselect", "select-multi":
		return KindMultiSelect
	case "datetime":
		return KindDateTime
	case "":
		return KindText
	}
	return InputKind(raw)
}

// IsTextual reports whether the kind stores the raw string it receives.
func (k InputKind) IsTextual() bool {
	switch k {
	case KindCheckbox, KindFile, KindMultiSelect:
		return false
	default:
		return true
	}
}

// HasOptions reports whether the control renders a fixed option list.
func (k InputKind) HasOptions() bool {
	return k == KindRadio || k == KindSelect || k == KindMultiSelect
}

// Field describes one control of the demo form.
type Field struct {
	Name        string            `json:"name"`
	Kind        InputKind         `json:"kind"`
	Label       string            `json:"label,omitempty"`
	TestID      string            `json:"testId,omitempty"`
	Placeholder string            `json:"placeholder,omitempty"`
	Options     []string          `json:"options,omitempty"`
	Default     any               `json:"default,omitempty"`
	Attrs       map[string]string `json:"attrs,omitempty"`
	// VisibleWhen holds a visibility rule evaluated against current values.
	// Empty means always visible.
	VisibleWhen string `json:"visibleWhen,omitempty"`
}

// OptionTestID returns the per-option test identifier used by radio groups.
func (f Field) OptionTestID(option string) string {
	return f.Name + "-" + option
}

// FormModel is the full description renderers consume.
type FormModel struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Action      string  `json:"action"`
	Method      string  `json:"method"`
	SubmitLabel string  `json:"submitLabel"`
	Fields      []Field `json:"fields"`
}

// Lookup returns the field registered under name.
func (f FormModel) Lookup(name string) (Field, bool) {
	for _, field := range f.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// Names lists field names in render order.
func (f FormModel) Names() []string {
	names := make([]string, 0, len(f.Fields))
	for _, field := range f.Fields {
		names = append(names, field.Name)
	}
	return names
}

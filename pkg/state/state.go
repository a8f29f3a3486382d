package state

import (
	"encoding/json"
	"log/slog"

	"github.com/goliatone/go-formdemo/pkg/model"
)

// FormState maps every field name to its current Value. Treat it as a value
// type: Apply returns a new FormState and never mutates its input.
type FormState struct {
	order  []string
	values map[string]Value
}

// New seeds a FormState with the defaults declared by the form catalogue.
func New(form model.FormModel) FormState {
	s := FormState{
		order:  make([]string, 0, len(form.Fields)),
		values: make(map[string]Value, len(form.Fields)),
	}
	for _, field := range form.Fields {
		s.set(field.Name, defaultValue(field))
	}
	return s
}

// FromValues builds a FormState from explicit values, preserving the given
// key order. Useful for fixtures.
func FromValues(order []string, values map[string]Value) FormState {
	s := FormState{
		order:  make([]string, 0, len(order)),
		values: make(map[string]Value, len(values)),
	}
	for _, name := range order {
		s.set(name, values[name])
	}
	return s
}

// Get returns the value stored under name.
func (s FormState) Get(name string) (Value, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Known reports whether name is a key of the record.
func (s FormState) Known(name string) bool {
	_, ok := s.values[name]
	return ok
}

// Names returns the keys in insertion order.
func (s FormState) Names() []string {
	return append([]string(nil), s.order...)
}

// Len reports the number of keys.
func (s FormState) Len() int { return len(s.order) }

// Clone returns an independent copy. Values are immutable so a shallow copy of
// the map is sufficient.
func (s FormState) Clone() FormState {
	out := FormState{
		order:  append([]string(nil), s.order...),
		values: make(map[string]Value, len(s.values)),
	}
	for k, v := range s.values {
		out.values[k] = v
	}
	return out
}

// Values flattens the record into plain Go values.
func (s FormState) Values() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v.Any()
	}
	return out
}

// Equal reports whether both records hold the same keys and values.
func (s FormState) Equal(other FormState) bool {
	if len(s.values) != len(other.values) {
		return false
	}
	for k, v := range s.values {
		ov, ok := other.values[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the flattened record.
func (s FormState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Values())
}

// LogValue renders the record as an ordered slog group.
func (s FormState) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(s.order))
	for _, name := range s.order {
		attrs = append(attrs, slog.Any(name, s.values[name].Any()))
	}
	return slog.GroupValue(attrs...)
}

func (s *FormState) set(name string, v Value) {
	if s.values == nil {
		s.values = make(map[string]Value)
	}
	if _, exists := s.values[name]; !exists {
		s.order = append(s.order, name)
	}
	s.values[name] = v
}

func defaultValue(field model.Field) Value {
	switch field.Kind {
	case model.KindCheckbox:
		b, _ := field.Default.(bool)
		return Bool(b)
	case model.KindFile:
		handle, _ := field.Default.(*FileHandle)
		return File(handle)
	case model.KindMultiSelect:
		selected, _ := field.Default.([]string)
		return Options(selected)
	case model.KindRadio, model.KindSelect:
		s, _ := field.Default.(string)
		return Option(s)
	default:
		s, _ := field.Default.(string)
		return Text(s)
	}
}

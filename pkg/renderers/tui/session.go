package tui

import (
	"github.com/goliatone/go-formdemo/pkg/model"
	"github.com/goliatone/go-formdemo/pkg/state"
	"github.com/goliatone/go-formdemo/pkg/visibility"
)

// Session is the form owner the renderer drives. Visibility is asked per
// field right before prompting, so fields revealed by earlier answers are
// prompted too.
type Session interface {
	Form() model.FormModel
	State() state.FormState
	IsVisible(name string) bool
	HandleChange(ev state.ChangeEvent)
}

// viewSession adapts a render.View into a Session that owns a private copy
// of the record.
type viewSession struct {
	form      model.FormModel
	current   state.FormState
	evaluator visibility.Evaluator
}

func (s *viewSession) Form() model.FormModel { return s.form }

func (s *viewSession) State() state.FormState { return s.current }

func (s *viewSession) HandleChange(ev state.ChangeEvent) {
	s.current = state.Apply(s.current, ev)
}

func (s *viewSession) IsVisible(name string) bool {
	field, ok := s.form.Lookup(name)
	if !ok {
		return false
	}
	if s.evaluator == nil || field.VisibleWhen == "" {
		return true
	}
	visible, err := s.evaluator.Eval(field.Name, field.VisibleWhen, visibility.Context{Values: s.current.Values()})
	return err == nil && visible
}

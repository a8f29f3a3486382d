package visibility

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-formdemo/pkg/model"
)

// Evaluator decides whether a field is shown given its rule and the current
// record.
type Evaluator interface {
	Eval(fieldName, rule string, ctx Context) (bool, error)
}

// Context carries the inputs a rule may reference. Values is the flattened
// form record; Extras holds caller supplied flags reachable via `extras.`.
type Context struct {
	Values map[string]any
	Extras map[string]any
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(fieldName, rule string, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(fieldName, rule string, ctx Context) (bool, error) {
	return fn(fieldName, rule, ctx)
}

// Filter returns the fields whose VisibleWhen rule holds. Fields without a
// rule are always kept. Hidden fields are only dropped from the returned
// slice; their values are untouched.
func Filter(fields []model.Field, evaluator Evaluator, ctx Context) ([]model.Field, error) {
	out := make([]model.Field, 0, len(fields))
	for _, field := range fields {
		rule := strings.TrimSpace(field.VisibleWhen)
		if rule == "" || evaluator == nil {
			out = append(out, field)
			continue
		}
		ok, err := evaluator.Eval(field.Name, rule, ctx)
		if err != nil {
			return nil, fmt.Errorf("visibility: field %q: %w", field.Name, err)
		}
		if ok {
			out = append(out, field)
		}
	}
	return out, nil
}

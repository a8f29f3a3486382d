package agent

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/goliatone/go-formdemo/pkg/model"
	"github.com/goliatone/go-formdemo/pkg/state"
)

const (
	letters      = "abcdefghijklmnopqrstuvwxyz"
	alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// FakeFileName is the name reported for generated file selections.
	FakeFileName    = "agent-upload.txt"
	fakeFileContent = "generated by the form agent\n"
)

// Fill is the value chosen for one control.
type Fill struct {
	Control Control
	Event   state.ChangeEvent
	// Content is the body posted for file controls.
	Content []byte
}

// Display renders the chosen value the way the report shows it.
func (f Fill) Display() string {
	switch f.Event.Kind {
	case model.KindCheckbox:
		if f.Event.Checked {
			return "true"
		}
		return "false"
	case model.KindMultiSelect:
		return strings.Join(f.Event.Selected, ", ")
	case model.KindFile:
		if len(f.Event.Files) == 0 {
			return ""
		}
		return f.Event.Files[0].Name
	}
	return f.Event.Value
}

// Generator produces plausible random values per control kind.
type Generator struct {
	rnd *rand.Rand
}

// NewGenerator seeds a generator. Equal seeds yield equal sequences.
func NewGenerator(seed uint64) *Generator {
	return &Generator{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Fill picks a value for ctrl and wraps it as a change event.
func (g *Generator) Fill(ctrl Control) Fill {
	ev := state.ChangeEvent{Name: ctrl.Name, Kind: ctrl.Kind}
	fill := Fill{Control: ctrl}

	switch ctrl.Kind {
	case model.KindCheckbox:
		// the gate is always ticked so the extra field gets exercised
		ev.Checked = ctrl.Name == model.CheckboxField || g.rnd.IntN(2) == 1
	case model.KindRadio, model.KindSelect:
		ev.Value = g.pick(ctrl.Options)
	case model.KindMultiSelect:
		ev.Selected = g.sample(ctrl.Options, 2)
	case model.KindFile:
		fill.Content = []byte(fakeFileContent)
		ev.Files = []state.FileHandle{{
			Name:        FakeFileName,
			Size:        int64(len(fill.Content)),
			ContentType: "text/plain",
		}}
	default:
		ev.Value = g.Value(ctrl.Kind)
	}

	fill.Event = ev
	return fill
}

// Value generates a textual value for kinds that store plain strings.
func (g *Generator) Value(kind model.InputKind) string {
	switch kind {
	case model.KindEmail:
		return g.word(5) + "@example.com"
	case model.KindPassword:
		return g.chars(alphanumeric, 10)
	case model.KindNumber:
		return fmt.Sprintf("%d", 1+g.rnd.IntN(100))
	case model.KindTel:
		return fmt.Sprintf("%03d-%03d-%04d", g.rnd.IntN(1000), g.rnd.IntN(1000), g.rnd.IntN(10000))
	case model.KindURL:
		return "https://" + g.word(5) + ".com"
	case model.KindDate:
		return "2023-10-15"
	case model.KindTime:
		return "12:34"
	case model.KindDateTime:
		return "2023-10-15T12:34"
	case model.KindMonth:
		return "2023-10"
	case model.KindWeek:
		return "2023-W42"
	case model.KindColor:
		return fmt.Sprintf("#%06x", g.rnd.IntN(0x1000000))
	case model.KindRange:
		return fmt.Sprintf("%d", g.rnd.IntN(101))
	case model.KindTextarea:
		return strings.Join([]string{g.word(5), g.word(5), g.word(5)}, " ")
	}
	return g.word(8)
}

func (g *Generator) word(n int) string {
	return g.chars(letters, n)
}

func (g *Generator) chars(alphabet string, n int) string {
	var b strings.Builder
	b.Grow(n)
	for range n {
		b.WriteByte(alphabet[g.rnd.IntN(len(alphabet))])
	}
	return b.String()
}

func (g *Generator) pick(options []string) string {
	if len(options) == 0 {
		return ""
	}
	return options[g.rnd.IntN(len(options))]
}

// sample returns up to n distinct options in their original order.
func (g *Generator) sample(options []string, n int) []string {
	if len(options) <= n {
		return append([]string{}, options...)
	}
	chosen := map[int]bool{}
	for _, idx := range g.rnd.Perm(len(options))[:n] {
		chosen[idx] = true
	}
	out := make([]string, 0, n)
	for i, option := range options {
		if chosen[i] {
			out = append(out, option)
		}
	}
	return out
}

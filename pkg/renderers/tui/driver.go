package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// PromptKind selects the terminal control used for a Question.
type PromptKind int

const (
	PromptInput PromptKind = iota
	PromptPassword
	PromptConfirm
	PromptSelect
	PromptMultiSelect
	PromptMultiline
)

// Question is one prompt for one form field.
type Question struct {
	Kind    PromptKind
	Field   string
	Message string
	Help    string
	// Default seeds text prompts and names the preselected option of a
	// select.
	Default string
	// Checked seeds a confirm prompt.
	Checked bool
	Options []string
	// Selected seeds a multi-select prompt.
	Selected []string
}

// Answer carries the response; only the member matching the question kind
// is set.
type Answer struct {
	Text     string
	Checked  bool
	Selected []string
}

// PromptDriver abstracts the terminal so the renderer can be tested without
// one.
type PromptDriver interface {
	Ask(ctx context.Context, q Question) (Answer, error)
	Info(ctx context.Context, msg string) error
}

type surveyDriver struct {
	out      io.Writer
	pageSize int
}

func newSurveyDriver() (*surveyDriver, error) {
	return &surveyDriver{out: os.Stdout, pageSize: 7}, nil
}

func (d *surveyDriver) Ask(ctx context.Context, q Question) (Answer, error) {
	if err := ctx.Err(); err != nil {
		return Answer{}, err
	}

	var (
		answer Answer
		err    error
	)
	switch q.Kind {
	case PromptInput:
		err = survey.AskOne(&survey.Input{Message: q.Message, Help: q.Help, Default: q.Default}, &answer.Text)
	case PromptPassword:
		err = survey.AskOne(&survey.Password{Message: q.Message, Help: q.Help}, &answer.Text)
	case PromptMultiline:
		err = survey.AskOne(&survey.Multiline{Message: q.Message, Help: q.Help, Default: q.Default}, &answer.Text)
	case PromptConfirm:
		err = survey.AskOne(&survey.Confirm{Message: q.Message, Help: q.Help, Default: q.Checked}, &answer.Checked)
	case PromptSelect:
		prompt := &survey.Select{Message: q.Message, Help: q.Help, Options: q.Options, PageSize: d.pageSize}
		if indexOf(q.Options, q.Default) >= 0 {
			prompt.Default = q.Default
		}
		err = survey.AskOne(prompt, &answer.Text)
	case PromptMultiSelect:
		prompt := &survey.MultiSelect{Message: q.Message, Help: q.Help, Options: q.Options, PageSize: d.pageSize}
		if defaults := known(q.Options, q.Selected); len(defaults) > 0 {
			prompt.Default = defaults
		}
		err = survey.AskOne(prompt, &answer.Selected)
	default:
		return Answer{}, fmt.Errorf("tui: unsupported prompt kind %d for %q", q.Kind, q.Field)
	}
	if err != nil {
		return Answer{}, translateSurveyErr(err)
	}
	return answer, nil
}

func (d *surveyDriver) Info(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.out, msg)
	return err
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}

func indexOf(options []string, value string) int {
	for i, option := range options {
		if option == value {
			return i
		}
	}
	return -1
}

// known keeps the values that are present in options, in options order.
func known(options, values []string) []string {
	var out []string
	for _, option := range options {
		if indexOf(values, option) >= 0 {
			out = append(out, option)
		}
	}
	return out
}

package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// Question is one prompt derived from a form field. Which members apply
// depends on the driver method it is passed to.
type Question struct {
	Message string
	Help    string
	// Default pre-fills text answers.
	Default string
	// Accept is the default answer of a confirmation.
	Accept bool
	// Options are the labels offered by Choose and ChooseMany.
	Options []string
	// Selected holds preselected indices into Options.
	Selected []int
	// Validate rejects a text answer; the driver asks again.
	Validate func(string) error
}

// PromptDriver asks questions on behalf of a Collector. Choice methods answer
// with indices into Question.Options; -1 means nothing was chosen.
type PromptDriver interface {
	Text(ctx context.Context, q Question) (string, error)
	Secret(ctx context.Context, q Question) (string, error)
	Multiline(ctx context.Context, q Question) (string, error)
	Confirm(ctx context.Context, q Question) (bool, error)
	Choose(ctx context.Context, q Question) (int, error)
	ChooseMany(ctx context.Context, q Question) ([]int, error)
	Notify(ctx context.Context, msg string) error
}

// SurveyDriver asks on the process terminal.
type SurveyDriver struct {
	out io.Writer
}

var _ PromptDriver = (*SurveyDriver)(nil)

// NewSurveyDriver returns a driver that prints notices to out, or stdout when
// out is nil.
func NewSurveyDriver(out io.Writer) *SurveyDriver {
	if out == nil {
		out = os.Stdout
	}
	return &SurveyDriver{out: out}
}

func (d *SurveyDriver) Text(ctx context.Context, q Question) (string, error) {
	var answer string
	err := d.ask(ctx, &survey.Input{Message: q.Message, Help: q.Help, Default: q.Default}, &answer, q.Validate)
	return answer, err
}

// Secret never offers a default so stored secrets are not echoed.
func (d *SurveyDriver) Secret(ctx context.Context, q Question) (string, error) {
	var answer string
	err := d.ask(ctx, &survey.Password{Message: q.Message, Help: q.Help}, &answer, q.Validate)
	return answer, err
}

func (d *SurveyDriver) Multiline(ctx context.Context, q Question) (string, error) {
	var answer string
	err := d.ask(ctx, &survey.Multiline{Message: q.Message, Help: q.Help, Default: q.Default}, &answer, q.Validate)
	return answer, err
}

func (d *SurveyDriver) Confirm(ctx context.Context, q Question) (bool, error) {
	var answer bool
	err := d.ask(ctx, &survey.Confirm{Message: q.Message, Help: q.Help, Default: q.Accept}, &answer, nil)
	return answer, err
}

func (d *SurveyDriver) Choose(ctx context.Context, q Question) (int, error) {
	prompt := &survey.Select{Message: q.Message, Help: q.Help, Options: q.Options}
	if preset := labelsAt(q.Options, q.Selected); len(preset) > 0 {
		prompt.Default = preset[0]
	}
	index := -1
	if err := d.ask(ctx, prompt, &index, nil); err != nil {
		return -1, err
	}
	return index, nil
}

func (d *SurveyDriver) ChooseMany(ctx context.Context, q Question) ([]int, error) {
	prompt := &survey.MultiSelect{Message: q.Message, Help: q.Help, Options: q.Options}
	if preset := labelsAt(q.Options, q.Selected); len(preset) > 0 {
		prompt.Default = preset
	}
	var picked []int
	if err := d.ask(ctx, prompt, &picked, nil); err != nil {
		return nil, err
	}
	return picked, nil
}

func (d *SurveyDriver) Notify(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.out, msg)
	return err
}

// ask runs one survey prompt. Select and MultiSelect write option indices
// when answer points at an int or an int slice.
func (d *SurveyDriver) ask(ctx context.Context, p survey.Prompt, answer any, validate func(string) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var opts []survey.AskOpt
	if validate != nil {
		opts = append(opts, survey.WithValidator(func(ans any) error {
			text, _ := ans.(string)
			return validate(text)
		}))
	}

	err := survey.AskOne(p, answer, opts...)
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}

func labelsAt(options []string, indices []int) []string {
	var out []string
	for _, i := range indices {
		if i >= 0 && i < len(options) {
			out = append(out, options[i])
		}
	}
	return out
}

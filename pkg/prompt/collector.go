package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formcollect/pkg/collect"
	"github.com/goliatone/go-formcollect/pkg/formdef"
	"github.com/goliatone/go-formcollect/pkg/logger"
	"github.com/goliatone/go-formcollect/pkg/signup"
	"github.com/goliatone/go-formcollect/pkg/validation"
)

const defaultMaxAttempts = 3

// Theme carries the prefixes used for informational and error lines.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
}

// Option configures a Collector.
type Option func(*Collector)

// WithPromptDriver overrides the driver used to ask questions.
func WithPromptDriver(driver PromptDriver) Option {
	return func(c *Collector) {
		if driver != nil {
			c.driver = driver
		}
	}
}

// WithMaxAttempts bounds how many times Run re-asks after invalid answers.
func WithMaxAttempts(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithTheme applies message prefixes.
func WithTheme(theme Theme) Option {
	return func(c *Collector) {
		c.theme = theme
	}
}

func WithLogger(lggr logger.Logger) Option {
	return func(c *Collector) {
		if lggr != nil {
			c.lggr = lggr
		}
	}
}

// Collector asks for each field of a definition.
type Collector struct {
	driver      PromptDriver
	maxAttempts int
	theme       Theme
	lggr        logger.Logger
}

// New returns a Collector on the process terminal unless a driver is given.
func New(opts ...Option) *Collector {
	c := &Collector{
		maxAttempts: defaultMaxAttempts,
		theme:       Theme{InfoPrefix: "", ErrorPrefix: "! "},
		lggr:        logger.Nop(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	if c.driver == nil {
		c.driver = NewSurveyDriver(nil)
	}
	c.lggr = c.lggr.Named("prompt")
	return c
}

// Entries asks every field of def in order. previous pre-fills the answers,
// except secrets, and errs is shown next to the fields it names.
func (c *Collector) Entries(ctx context.Context, def formdef.Definition, previous collect.Record, errs validation.ErrorMapping) ([]collect.FieldEntry, error) {
	if ctx == nil {
		return nil, errors.New("prompt: context is required")
	}
	for _, message := range errs.Form {
		if err := c.driver.Notify(ctx, c.theme.ErrorPrefix+message); err != nil {
			return nil, err
		}
	}

	var entries []collect.FieldEntry
	for _, field := range def.Fields {
		for _, message := range errs.For(field.Name) {
			if err := c.driver.Notify(ctx, c.theme.ErrorPrefix+field.DisplayLabel()+": "+message); err != nil {
				return nil, err
			}
		}
		answers, err := c.ask(ctx, field, previous)
		if err != nil {
			return nil, fmt.Errorf("prompt: %s: %w", field.Name, err)
		}
		for _, answer := range answers {
			entries = append(entries, collect.Entry(field.Name, answer))
		}
	}
	return entries, nil
}

func (c *Collector) ask(ctx context.Context, field formdef.Field, previous collect.Record) ([]string, error) {
	q := Question{Message: field.DisplayLabel(), Help: field.Help}
	var prior []string
	if !field.IsSecret() {
		prior = previous.Strings(field.Name)
	}

	switch field.Type {
	case formdef.FieldPassword:
		q.Validate = requiredValidator(field)
		answer, err := c.driver.Secret(ctx, q)
		return []string{answer}, err

	case formdef.FieldCheckbox:
		q.Accept = len(prior) > 0
		checked, err := c.driver.Confirm(ctx, q)
		if err != nil || !checked {
			return nil, err
		}
		return []string{"on"}, nil

	case formdef.FieldSelect, formdef.FieldCheckboxGroup:
		values := field.OptionValues()
		q.Options = field.OptionLabels()
		q.Selected = positions(values, prior)

		var picked []int
		if field.IsMulti() {
			idxs, err := c.driver.ChooseMany(ctx, q)
			if err != nil {
				return nil, err
			}
			picked = idxs
		} else {
			idx, err := c.driver.Choose(ctx, q)
			if err != nil {
				return nil, err
			}
			picked = []int{idx}
		}

		var answers []string
		for _, idx := range picked {
			if idx >= 0 && idx < len(values) {
				answers = append(answers, values[idx])
			}
		}
		return answers, nil

	case formdef.FieldTextArea:
		q.Default = last(prior)
		answer, err := c.driver.Multiline(ctx, q)
		return []string{answer}, err

	default:
		q.Default = last(prior)
		q.Validate = requiredValidator(field)
		answer, err := c.driver.Text(ctx, q)
		return []string{answer}, err
	}
}

// Run asks for the form of session until a submission is not Invalid or the
// attempts run out. Delivery errors end the loop.
func (c *Collector) Run(ctx context.Context, session *signup.Session) (signup.Outcome, error) {
	if session == nil {
		return signup.Outcome{}, errors.New("prompt: session is required")
	}
	def := session.Definition()

	var previous signup.Outcome
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		entries, err := c.Entries(ctx, def, previous.Record, previous.Errors)
		if err != nil {
			return previous, err
		}

		outcome, err := session.Submit(ctx, entries)
		if err != nil {
			return outcome, err
		}
		if outcome.State != signup.Invalid {
			return outcome, nil
		}

		c.lggr.Debugw("invalid answers", "attempt", attempt, "fields", outcome.Errors.Names())
		if err := c.driver.Notify(ctx, c.theme.InfoPrefix+"Please correct the highlighted answers."); err != nil {
			return outcome, err
		}
		previous = outcome
	}
	return previous, ErrTooManyAttempts
}

func requiredValidator(field formdef.Field) func(string) error {
	if !field.Required {
		return nil
	}
	label := field.DisplayLabel()
	return func(answer string) error {
		if strings.TrimSpace(answer) == "" {
			return fmt.Errorf("%s is required", label)
		}
		return nil
	}
}

// positions returns the indices of selected within values, in values order.
func positions(values, selected []string) []int {
	if len(selected) == 0 {
		return nil
	}
	var out []int
	for i, value := range values {
		for _, s := range selected {
			if s == value {
				out = append(out, i)
				break
			}
		}
	}
	return out
}

func last(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[len(values)-1]
}

package signup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-formcollect/pkg/collect"
	"github.com/goliatone/go-formcollect/pkg/formdef"
	"github.com/goliatone/go-formcollect/pkg/logger"
	"github.com/goliatone/go-formcollect/pkg/render"
	"github.com/goliatone/go-formcollect/pkg/sink"
	"github.com/goliatone/go-formcollect/pkg/validation"
)

// RejectedMessage is shown when the sink refuses a submission without saying
// which field is at fault.
const RejectedMessage = "We could not accept your details. Please review the form and try again."

// ErrDelivery wraps sink failures that are not validation rejections.
var ErrDelivery = errors.New("signup: delivery failed")

// Outcome describes what happened to one submission.
type Outcome struct {
	State  State                   `json:"state"`
	ID     string                  `json:"id,omitempty"`
	Errors validation.ErrorMapping `json:"errors,omitempty"`
	// Record is the collected record. For Submitted outcomes it is exactly what
	// the sink received.
	Record collect.Record `json:"-"`
}

// Err returns ErrPasswordMismatch when the outcome is a confirmation failure.
func (o Outcome) Err() error {
	if o.State != Invalid {
		return nil
	}
	for _, message := range o.Errors.For(validation.ConfirmPasswordField) {
		if message == validation.PasswordMismatchMessage {
			return validation.ErrPasswordMismatch
		}
	}
	return nil
}

// Option configures a Session.
type Option func(*Session)

// WithDefinition sets the form definition used to collect entries.
func WithDefinition(def formdef.Definition) Option {
	return func(s *Session) {
		if s == nil || len(def.Fields) == 0 {
			return
		}
		s.def = def
	}
}

// WithSink sets where accepted records are delivered.
func WithSink(target sink.Sink) Option {
	return func(s *Session) {
		if s == nil || target == nil {
			return
		}
		s.sink = target
	}
}

// WithConstraints enables the per-field checks of the definition (required,
// email format, lengths, options) after the password confirmation.
func WithConstraints(enabled bool) Option {
	return func(s *Session) {
		if s == nil {
			return
		}
		s.constraints = enabled
	}
}

// WithSanitize toggles stripping markup from non-secret values before
// delivery. It is on by default.
func WithSanitize(enabled bool) Option {
	return func(s *Session) {
		if s == nil {
			return
		}
		s.sanitize = enabled
	}
}

// WithLogger sets the session logger.
func WithLogger(lggr logger.Logger) Option {
	return func(s *Session) {
		if s == nil || lggr == nil {
			return
		}
		s.lggr = lggr
	}
}

// WithClock overrides the time source stamped on submissions.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if s == nil || now == nil {
			return
		}
		s.now = now
	}
}

// WithIDGenerator overrides how submission IDs are minted.
func WithIDGenerator(next func() string) Option {
	return func(s *Session) {
		if s == nil || next == nil {
			return
		}
		s.newID = next
	}
}

// Session holds the transient state of one form. Submit calls are serialised.
type Session struct {
	mu sync.Mutex

	def         formdef.Definition
	known       map[string]struct{}
	sink        sink.Sink
	constraints bool
	sanitize    bool
	lggr        logger.Logger
	now         func() time.Time
	newID       func() string

	state State
	last  Outcome
}

// NewSession returns an Idle session over the embedded signup form that logs
// nothing and discards accepted records unless configured otherwise.
func NewSession(opts ...Option) *Session {
	s := &Session{
		def:      formdef.Default(),
		sanitize: true,
		lggr:     logger.Nop(),
		now:      time.Now,
		newID:    sink.NewID,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.sink == nil {
		s.sink = sink.NewLog(s.lggr, s.def.Secrets())
	}
	s.known = make(map[string]struct{}, len(s.def.Fields))
	for _, field := range s.def.Fields {
		s.known[field.Name] = struct{}{}
	}
	s.lggr = s.lggr.Named("signup").With("form", s.def.ID)
	return s
}

// Definition returns the form the session collects.
func (s *Session) Definition() formdef.Definition {
	return s.def.Clone()
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Last returns the outcome of the most recent Submit.
func (s *Session) Last() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Reset returns the session to Idle, as when the form is shown afresh.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Idle
	s.last = Outcome{}
}

// Submit runs one submission. Validation failures are reported through the
// Invalid outcome with a nil error; the record is not forwarded. Delivery
// failures leave the session Idle and return an error wrapping ErrDelivery.
func (s *Session) Submit(ctx context.Context, entries []collect.FieldEntry) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Idle

	record := s.def.Collect(entries)

	if validation.Validate(record) == validation.Mismatch {
		s.lggr.Infow("submission rejected", "reason", "password mismatch")
		return s.invalid(record, []validation.Issue{validation.MismatchIssue()}), nil
	}

	if s.constraints {
		if issues := validation.CheckConstraints(record, s.def); len(issues) > 0 {
			s.lggr.Infow("submission rejected", "reason", "constraints", "issues", len(issues))
			return s.invalid(record, issues), nil
		}
	}

	if s.sanitize {
		record = render.SanitizeRecord(record, s.def.Secrets())
	}

	submission := sink.Submission{
		ID:         s.newID(),
		Form:       s.def.ID,
		Record:     record,
		ReceivedAt: s.now().UTC(),
	}

	if err := s.sink.Deliver(ctx, submission); err != nil {
		var rejected *sink.RejectedError
		if errors.As(err, &rejected) {
			issues := rejected.Issues
			if len(issues) == 0 {
				issues = []validation.Issue{{Message: RejectedMessage}}
			}
			s.lggr.Infow("submission rejected downstream", "id", submission.ID, "status", rejected.StatusCode)
			return s.invalid(record, issues), nil
		}
		s.lggr.Errorw("submission delivery failed", "id", submission.ID, "err", err)
		s.last = Outcome{State: Idle, Record: record}
		return s.last, fmt.Errorf("%w: %w", ErrDelivery, err)
	}

	s.state = Submitted
	s.last = Outcome{State: Submitted, ID: submission.ID, Record: record}
	s.lggr.Infow("submission accepted", "id", submission.ID)
	return s.last, nil
}

func (s *Session) invalid(record collect.Record, issues []validation.Issue) Outcome {
	s.state = Invalid
	s.last = Outcome{
		State:  Invalid,
		Errors: validation.MapIssues(s.known, issues),
		Record: record,
	}
	return s.last
}

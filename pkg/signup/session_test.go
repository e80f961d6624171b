package signup_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formcollect/pkg/collect"
	"github.com/goliatone/go-formcollect/pkg/logger"
	"github.com/goliatone/go-formcollect/pkg/signup"
	"github.com/goliatone/go-formcollect/pkg/sink"
	"github.com/goliatone/go-formcollect/pkg/testsupport"
	"github.com/goliatone/go-formcollect/pkg/validation"
)

var fixedTime = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

func newSession(t *testing.T, target sink.Sink, opts ...signup.Option) *signup.Session {
	t.Helper()
	base := []signup.Option{
		signup.WithSink(target),
		signup.WithLogger(logger.Test(t)),
		signup.WithClock(func() time.Time { return fixedTime }),
		signup.WithIDGenerator(func() string { return "sub_test" }),
	}
	return signup.NewSession(append(base, opts...)...)
}

// validForm is the shared signup fixture without acquisition channels.
func validForm() signup.Form {
	form := testsupport.SignupForm(testsupport.Password)
	form.Acquisition = nil
	return form
}

func TestSession_SubmitForwardsMatchingPasswords(t *testing.T) {
	mem := sink.NewMemory()
	session := newSession(t, mem)

	outcome, err := session.Submit(context.Background(), validForm().Entries())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if outcome.State != signup.Submitted || outcome.ID != "sub_test" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if session.State() != signup.Submitted {
		t.Fatalf("expected submitted state, got %s", session.State())
	}

	stored := mem.All()
	if len(stored) != 1 {
		t.Fatalf("expected one delivery, got %d", len(stored))
	}
	want := collect.Record{
		"email":            collect.Single("a@b.com"),
		"password":         collect.Single("secret1"),
		"confirm-password": collect.Single("secret1"),
		"first-name":       collect.Single("A"),
		"last-name":        collect.Single("B"),
		"role":             collect.Single("student"),
		"acquisition":      collect.Multi(),
		"terms":            collect.Single("on"),
	}
	if !want.Equal(stored[0].Record) {
		t.Fatalf("record mismatch (-want +got):\n%s", cmp.Diff(want.Map(), stored[0].Record.Map()))
	}
	if stored[0].Form != "signup" || !stored[0].ReceivedAt.Equal(fixedTime) {
		t.Fatalf("unexpected submission metadata %+v", stored[0])
	}
}

func TestSession_SubmitMismatchDoesNotForward(t *testing.T) {
	mem := sink.NewMemory()
	session := newSession(t, mem)

	form := validForm()
	form.ConfirmPassword = "other"

	outcome, err := session.Submit(context.Background(), form.Entries())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if outcome.State != signup.Invalid {
		t.Fatalf("expected invalid, got %s", outcome.State)
	}
	wantErrors := map[string][]string{"confirm-password": {"Passwords must match."}}
	if diff := cmp.Diff(wantErrors, outcome.Errors.Fields); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if !errors.Is(outcome.Err(), validation.ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", outcome.Err())
	}
	if mem.Len() != 0 {
		t.Fatalf("record must not be forwarded on mismatch")
	}
}

func TestSession_ResubmitClearsInvalidState(t *testing.T) {
	mem := sink.NewMemory()
	session := newSession(t, mem)

	bad := validForm()
	bad.ConfirmPassword = "nope"
	if _, err := session.Submit(context.Background(), bad.Entries()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if session.State() != signup.Invalid {
		t.Fatalf("expected invalid, got %s", session.State())
	}

	outcome, err := session.Submit(context.Background(), validForm().Entries())
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if outcome.State != signup.Submitted || outcome.Err() != nil {
		t.Fatalf("expected submitted outcome, got %+v", outcome)
	}
	if !outcome.Errors.Empty() {
		t.Fatalf("expected errors cleared, got %+v", outcome.Errors)
	}

	session.Reset()
	if session.State() != signup.Idle || session.Last().State != signup.Idle {
		t.Fatalf("expected idle after reset")
	}
}

func TestSession_AcquisitionKeepsOrder(t *testing.T) {
	mem := sink.NewMemory()
	session := newSession(t, mem)

	form := validForm()
	form.Acquisition = []string{"google", "friend", "other"}
	if _, err := session.Submit(context.Background(), form.Entries()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	got := mem.All()[0].Record.Strings("acquisition")
	if diff := cmp.Diff([]string{"google", "friend", "other"}, got); diff != "" {
		t.Fatalf("acquisition mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_ConstraintsAreOptIn(t *testing.T) {
	form := validForm()
	form.Terms = false
	form.Email = "not-an-email"

	lenient := newSession(t, sink.NewMemory())
	outcome, err := lenient.Submit(context.Background(), form.Entries())
	if err != nil || outcome.State != signup.Submitted {
		t.Fatalf("expected lenient session to submit, got %+v (%v)", outcome, err)
	}

	mem := sink.NewMemory()
	strict := newSession(t, mem, signup.WithConstraints(true))
	outcome, err = strict.Submit(context.Background(), form.Entries())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	want := map[string][]string{
		"email": {"Please enter a valid email address."},
		"terms": {"Please tick this box to continue."},
	}
	if diff := cmp.Diff(want, outcome.Errors.Fields); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if outcome.Err() != nil {
		t.Fatalf("constraint failures are not a password mismatch")
	}
	if mem.Len() != 0 {
		t.Fatalf("invalid record forwarded")
	}
}

func TestSession_MismatchWinsOverConstraints(t *testing.T) {
	form := validForm()
	form.ConfirmPassword = "x"
	form.Email = ""

	session := newSession(t, sink.NewMemory(), signup.WithConstraints(true))
	outcome, _ := session.Submit(context.Background(), form.Entries())

	if diff := cmp.Diff([]string{"confirm-password"}, outcome.Errors.Names()); diff != "" {
		t.Fatalf("unexpected error fields (-want +got):\n%s", diff)
	}
}

func TestSession_SanitizesNonSecretValues(t *testing.T) {
	mem := sink.NewMemory()
	session := newSession(t, mem)

	form := validForm()
	form.FirstName = "<b>Ada</b>"
	form.Password = "<pw>"
	form.ConfirmPassword = "<pw>"
	if _, err := session.Submit(context.Background(), form.Entries()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	record := mem.All()[0].Record
	if record.String("first-name") != "Ada" || record.String("password") != "<pw>" {
		t.Fatalf("unexpected sanitized record %#v", record)
	}

	encoded := sink.NewMemory()
	session = newSession(t, encoded)
	form.LastName = "&lt;script&gt;alert(1)&lt;/script&gt;Lovelace"
	if _, err := session.Submit(context.Background(), form.Entries()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got := encoded.All()[0].Record.String("last-name"); got != "Lovelace" {
		t.Fatalf("expected encoded markup stripped, got %q", got)
	}

	raw := sink.NewMemory()
	session = newSession(t, raw, signup.WithSanitize(false))
	if _, err := session.Submit(context.Background(), form.Entries()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got := raw.All()[0].Record.String("first-name"); got != "<b>Ada</b>" {
		t.Fatalf("expected raw value, got %q", got)
	}
}

func TestSession_DeliveryFailureStaysIdle(t *testing.T) {
	mem := sink.NewMemory()
	boom := errors.New("connection refused")
	mem.FailWith(boom)
	session := newSession(t, mem)

	outcome, err := session.Submit(context.Background(), validForm().Entries())
	if !errors.Is(err, signup.ErrDelivery) || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped delivery error, got %v", err)
	}
	if outcome.State != signup.Idle || session.State() != signup.Idle {
		t.Fatalf("expected idle after delivery failure, got %s", session.State())
	}
}

func TestSession_DownstreamRejectionBecomesInvalid(t *testing.T) {
	rejecting := sink.Func(func(context.Context, sink.Submission) error {
		return &sink.RejectedError{
			StatusCode: http.StatusConflict,
			Issues: []validation.Issue{
				{Field: "email", Rule: validation.RuleRemote, Message: "Email already registered"},
				{Field: "nickname", Rule: validation.RuleRemote, Message: "Unknown field"},
			},
		}
	})
	session := newSession(t, rejecting)

	outcome, err := session.Submit(context.Background(), validForm().Entries())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if outcome.State != signup.Invalid {
		t.Fatalf("expected invalid, got %s", outcome.State)
	}
	if diff := cmp.Diff([]string{"Email already registered"}, outcome.Errors.For("email")); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Unknown field"}, outcome.Errors.Form); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}

	bare := newSession(t, sink.Func(func(context.Context, sink.Submission) error {
		return &sink.RejectedError{StatusCode: http.StatusBadRequest}
	}))
	outcome, _ = bare.Submit(context.Background(), validForm().Entries())
	if diff := cmp.Diff([]string{signup.RejectedMessage}, outcome.Errors.Form); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_ConcurrentSubmitsAreSerialised(t *testing.T) {
	mem := sink.NewMemory()
	session := signup.NewSession(signup.WithSink(mem))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = session.Submit(context.Background(), validForm().Entries())
		}()
	}
	wg.Wait()

	if mem.Len() != 8 {
		t.Fatalf("expected 8 deliveries, got %d", mem.Len())
	}
	ids := make(map[string]struct{})
	for _, s := range mem.All() {
		ids[s.ID] = struct{}{}
	}
	if len(ids) != 8 {
		t.Fatalf("expected unique submission ids, got %d", len(ids))
	}
}

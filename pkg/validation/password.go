package validation

import (
	"errors"

	"github.com/goliatone/go-formcollect/pkg/collect"
)

const (
	// PasswordField is the name of the primary password input.
	PasswordField = "password"
	// ConfirmPasswordField is the name of the confirmation input.
	ConfirmPasswordField = "confirm-password"

	// PasswordMismatchMessage is shown next to the confirmation input.
	PasswordMismatchMessage = "Passwords must match."
)

// ErrPasswordMismatch is the only domain error raised while validating a
// submission.
var ErrPasswordMismatch = errors.New("validation: passwords must match")

// Result is the outcome of Validate.
type Result int

const (
	// Ok means the record may be forwarded.
	Ok Result = iota
	// Mismatch means password and confirmation differ.
	Mismatch
)

func (r Result) String() string {
	switch r {
	case Ok:
		return "ok"
	case Mismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}

// Err maps the result onto ErrPasswordMismatch.
func (r Result) Err() error {
	if r == Mismatch {
		return ErrPasswordMismatch
	}
	return nil
}

// Validate checks that the password and its confirmation are equal. Absent
// fields read as empty strings, so a record missing both validates.
func Validate(record collect.Record) Result {
	return ValidatePair(record, PasswordField, ConfirmPasswordField)
}

// ValidatePair compares two single-valued fields of record.
func ValidatePair(record collect.Record, field, confirm string) Result {
	if record.String(field) != record.String(confirm) {
		return Mismatch
	}
	return Ok
}

// MismatchIssue reports a failed confirmation against the confirmation field.
func MismatchIssue() Issue {
	return Issue{
		Field:   ConfirmPasswordField,
		Rule:    RuleMatch,
		Message: PasswordMismatchMessage,
	}
}

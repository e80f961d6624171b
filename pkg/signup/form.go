package signup

import (
	"github.com/goliatone/go-formcollect/pkg/collect"
)

// Field names of the signup form.
const (
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirm-password"
	FieldFirstName       = "first-name"
	FieldLastName        = "last-name"
	FieldRole            = "role"
	FieldAcquisition     = "acquisition"
	FieldTerms           = "terms"
)

// Form is the typed view of a signup record.
type Form struct {
	Email           string
	Password        string
	ConfirmPassword string
	FirstName       string
	LastName        string
	Role            string
	Acquisition     []string
	Terms           bool
}

// FormFromRecord reads the signup fields out of record. Missing fields stay
// zero; terms counts as accepted for any non-empty value.
func FormFromRecord(record collect.Record) Form {
	return Form{
		Email:           record.String(FieldEmail),
		Password:        record.String(FieldPassword),
		ConfirmPassword: record.String(FieldConfirmPassword),
		FirstName:       record.String(FieldFirstName),
		LastName:        record.String(FieldLastName),
		Role:            record.String(FieldRole),
		Acquisition:     record.Strings(FieldAcquisition),
		Terms:           record.String(FieldTerms) != "",
	}
}

// Entries returns the form as the ordered entries a browser would submit.
// An unticked terms box and an empty acquisition list produce no entries.
func (f Form) Entries() []collect.FieldEntry {
	entries := []collect.FieldEntry{
		collect.Entry(FieldEmail, f.Email),
		collect.Entry(FieldPassword, f.Password),
		collect.Entry(FieldConfirmPassword, f.ConfirmPassword),
		collect.Entry(FieldFirstName, f.FirstName),
		collect.Entry(FieldLastName, f.LastName),
		collect.Entry(FieldRole, f.Role),
	}
	for _, channel := range f.Acquisition {
		entries = append(entries, collect.Entry(FieldAcquisition, channel))
	}
	if f.Terms {
		entries = append(entries, collect.Entry(FieldTerms, "on"))
	}
	return entries
}

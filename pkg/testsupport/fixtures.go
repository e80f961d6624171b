// Package testsupport holds the signup submissions shared by package tests.
package testsupport

import (
	"net/url"

	"github.com/goliatone/go-formcollect/pkg/collect"
	"github.com/goliatone/go-formcollect/pkg/signup"
)

// Signup fixture values.
const (
	Email    = "a@b.com"
	Password = "secret1"
)

// SignupEntries returns a complete signup submission in browser order. The
// confirmation is confirm, so passing Password yields a valid submission.
func SignupEntries(confirm string) []collect.FieldEntry {
	return SignupForm(confirm).Entries()
}

// SignupForm is the typed form behind SignupEntries.
func SignupForm(confirm string) signup.Form {
	return signup.Form{
		Email:           Email,
		Password:        Password,
		ConfirmPassword: confirm,
		FirstName:       "A",
		LastName:        "B",
		Role:            "student",
		Acquisition:     []string{"google", "friend", "other"},
		Terms:           true,
	}
}

// SignupValues returns the submission as url-encoded form values.
func SignupValues(confirm string) url.Values {
	values := url.Values{}
	for _, entry := range SignupEntries(confirm) {
		values.Add(entry.Name, entry.Value)
	}
	return values
}

// SignupJSON returns the submission as a JSON document, with the terms box
// as a boolean the way API clients send it.
func SignupJSON(confirm string) string {
	return `{"email":"` + Email + `","password":"` + Password + `","confirm-password":"` + confirm + `",` +
		`"first-name":"A","last-name":"B","role":"student","acquisition":["google","friend","other"],"terms":true}`
}

// Package signup exposes the signup form as a net/http component.
//
// GET and HEAD render the form page. POST accepts url-encoded, multipart or
// JSON bodies, runs one submission through a signup.Session and answers with
// the re-rendered page (422) on validation failures, a 303 redirect to the
// reset form once the record is accepted, or JSON equivalents when the
// client asks for application/json.
package signup

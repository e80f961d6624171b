// Package render turns a form definition, the values of a rejected
// submission and its error mapping into an HTML page. It also owns the
// plain-text sanitiser applied to values before they leave the collector and
// the go-theme selection used to style the page.
package render

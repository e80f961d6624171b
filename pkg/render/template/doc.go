// Package template defines the engine-agnostic template contract used to
// render form pages, with a pongo2 adapter in the gotemplate subpackage.
package template

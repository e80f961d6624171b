package template

import (
	"io"
)

// TemplateRenderer is the part of the github.com/goliatone/go-template engine
// contract the page renderer relies on.
type TemplateRenderer interface {
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	GlobalContext(data any) error
}

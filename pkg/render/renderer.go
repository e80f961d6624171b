package render

import (
	"embed"
	"fmt"
	"io"
	"io/fs"

	"github.com/goliatone/go-formcollect/pkg/render/template"
	"github.com/goliatone/go-formcollect/pkg/render/template/gotemplate"
)

// PageTemplate is the template name rendered by PageRenderer.
const PageTemplate = "signup"

//go:embed templates/*.tpl
var embeddedTemplates embed.FS

// TemplatesFS exposes the built-in page templates.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		panic(fmt.Sprintf("render: embedded templates: %v", err))
	}
	return sub
}

// PageRenderer writes Page values through a template engine.
type PageRenderer struct {
	engine   template.TemplateRenderer
	template string
}

// NewPageRenderer renders name through engine. An empty name uses
// PageTemplate.
func NewPageRenderer(engine template.TemplateRenderer, name string) (*PageRenderer, error) {
	if engine == nil {
		return nil, fmt.Errorf("render: template engine is required")
	}
	if name == "" {
		name = PageTemplate
	}
	return &PageRenderer{engine: engine, template: name}, nil
}

// NewDefaultPageRenderer renders the embedded signup page with the pongo2
// engine. gotemplate.WithBaseDir adds a local directory that is searched
// before the embedded templates.
func NewDefaultPageRenderer(options ...gotemplate.Option) (*PageRenderer, error) {
	opts := append([]gotemplate.Option{gotemplate.WithFS(TemplatesFS())}, options...)
	engine, err := gotemplate.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("render: template engine: %w", err)
	}
	return NewPageRenderer(engine, PageTemplate)
}

// Render writes page to w.
func (r *PageRenderer) Render(w io.Writer, page Page) error {
	if _, err := r.engine.RenderTemplate(r.template, map[string]any{"page": page}, w); err != nil {
		return fmt.Errorf("render: page %q: %w", r.template, err)
	}
	return nil
}

// Package gotemplate renders form pages with the go-template (pongo2) engine.
package gotemplate

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	gotemplatepkg "github.com/goliatone/go-template"

	"github.com/goliatone/go-formcollect/pkg/render/template"
)

var errNilEngine = errors.New("gotemplate: engine is nil")

// Option configures the engine before construction.
type Option func(*config)

type config struct {
	hasSource bool
	options   []gotemplatepkg.Option
}

// WithBaseDir loads templates from a directory on disk, searched before any
// fs.FS given through WithFS so single pages can be overridden.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		if dir = strings.TrimSpace(dir); dir != "" {
			cfg.hasSource = true
			cfg.options = append(cfg.options, gotemplatepkg.WithBaseDir(dir))
		}
	}
}

func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		if files != nil {
			cfg.hasSource = true
			cfg.options = append(cfg.options, gotemplatepkg.WithFS(files))
		}
	}
}

// WithExtension overrides the extension appended to template names.
func WithExtension(ext string) Option {
	return func(cfg *config) {
		if ext = strings.Trim(strings.TrimSpace(ext), "."); ext != "" {
			cfg.options = append(cfg.options, gotemplatepkg.WithExtension(ext))
		}
	}
}

// WithGlobalData seeds values visible to every template.
func WithGlobalData(data map[string]any) Option {
	return func(cfg *config) {
		if len(data) > 0 {
			cfg.options = append(cfg.options, gotemplatepkg.WithGlobalData(data))
		}
	}
}

// WithGoTemplateOptions hands options straight to the go-template engine,
// for example WithTemplateFunc to add filters and callable globals.
func WithGoTemplateOptions(options ...gotemplatepkg.Option) Option {
	return func(cfg *config) {
		for _, opt := range options {
			if opt != nil {
				cfg.options = append(cfg.options, opt)
			}
		}
	}
}

// Engine renders named templates through go-template. The trim and
// lowerfirst filters are always available. Numbers reach templates as
// floats; print them with the integer filter.
type Engine struct {
	renderer *gotemplatepkg.Engine
}

var _ template.TemplateRenderer = (*Engine)(nil)

// New builds an Engine. At least one of WithBaseDir or WithFS is required.
func New(options ...Option) (*Engine, error) {
	cfg := &config{}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}
	if !cfg.hasSource {
		return nil, errors.New("gotemplate: a template dir or fs.FS is required")
	}

	renderer, err := gotemplatepkg.NewRenderer(cfg.options...)
	if err != nil {
		return nil, fmt.Errorf("gotemplate: %w", err)
	}
	return &Engine{renderer: renderer}, nil
}

// RenderTemplate executes the named template, appending the configured
// extension when name lacks it. The output is returned and also written to
// every writer in out.
func (e *Engine) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	if e == nil || e.renderer == nil {
		return "", errNilEngine
	}
	result, err := e.renderer.RenderTemplate(name, data, out...)
	if err != nil {
		return "", fmt.Errorf("gotemplate: render %s: %w", name, err)
	}
	return result, nil
}

// RegisterFilter adds a filter. pongo2 filters are process wide, so an
// existing name is an error.
func (e *Engine) RegisterFilter(name string, fn func(input any, param any) (any, error)) error {
	if e == nil || e.renderer == nil {
		return errNilEngine
	}
	name = strings.TrimSpace(name)
	if name == "" || fn == nil {
		return errors.New("gotemplate: filter name and function required")
	}
	if err := e.renderer.RegisterFilter(name, fn); err != nil {
		return fmt.Errorf("gotemplate: %w", err)
	}
	return nil
}

// GlobalContext merges data into the values visible to every template.
func (e *Engine) GlobalContext(data any) error {
	if e == nil || e.renderer == nil {
		return errNilEngine
	}
	return e.renderer.GlobalContext(data)
}

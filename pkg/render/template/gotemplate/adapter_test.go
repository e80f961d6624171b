package gotemplate_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/flosch/pongo2/v6"
	gotemplatepkg "github.com/goliatone/go-template"

	"github.com/goliatone/go-formcollect/pkg/render/template/gotemplate"
)

var templates = fstest.MapFS{
	"hello.tpl":      {Data: []byte("Hello {{ name }}!")},
	"use-global.tpl": {Data: []byte("env={{ settings.env }}")},
	"use-filter.tpl": {Data: []byte("{{ name|shout }}")},
	"escape.tpl":     {Data: []byte("<p>{{ message }}</p>")},
	"struct.tpl":     {Data: []byte("{{ field.name }}:{{ field.required }}:{{ field.errors|length }}")},
}

func newEngine(t *testing.T, opts ...gotemplate.Option) *gotemplate.Engine {
	t.Helper()

	engine, err := gotemplate.New(append([]gotemplate.Option{gotemplate.WithFS(templates)}, opts...)...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestNew_RequiresSource(t *testing.T) {
	if _, err := gotemplate.New(); err == nil {
		t.Fatalf("expected error without base dir or fs")
	}
}

func TestEngine_RenderTemplateWritesOutput(t *testing.T) {
	engine := newEngine(t)

	var out strings.Builder
	result, err := engine.RenderTemplate("hello", map[string]any{"name": "Ada"}, &out)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != "Hello Ada!" || out.String() != result {
		t.Fatalf("unexpected output %q / %q", result, out.String())
	}
}

func TestEngine_AutoescapesValues(t *testing.T) {
	engine := newEngine(t)

	result, err := engine.RenderTemplate("escape.tpl", map[string]any{"message": "<script>x</script>"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(result, "<script>") {
		t.Fatalf("expected escaped output, got %q", result)
	}
}

func TestEngine_StructDataUsesJSONNames(t *testing.T) {
	type field struct {
		Name     string   `json:"name"`
		Required bool     `json:"required"`
		Errors   []string `json:"errors"`
	}
	engine := newEngine(t)

	result, err := engine.RenderTemplate("struct", map[string]any{
		"field": field{Name: "email", Required: true, Errors: []string{"a", "b"}},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != "email:True:2" {
		t.Fatalf("unexpected output %q", result)
	}
}

func TestEngine_GlobalContext(t *testing.T) {
	engine := newEngine(t, gotemplate.WithGlobalData(map[string]any{"unused": 1}))
	if err := engine.GlobalContext(map[string]any{
		"settings": map[string]any{"env": "staging"},
	}); err != nil {
		t.Fatalf("global context: %v", err)
	}

	result, err := engine.RenderTemplate("use-global", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != "env=staging" {
		t.Fatalf("unexpected output %q", result)
	}
}

func TestEngine_RegisterFilter(t *testing.T) {
	engine := newEngine(t)
	err := engine.RegisterFilter("shout", func(input any, _ any) (any, error) {
		return fmt.Sprintf("%s!", strings.ToUpper(fmt.Sprint(input))), nil
	})
	if err != nil {
		t.Fatalf("register filter: %v", err)
	}
	if err := engine.RegisterFilter("shout", func(any, any) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected duplicate filter registration to fail")
	}

	result, err := engine.RenderTemplate("use-filter", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != "ADA!" {
		t.Fatalf("unexpected output %q", result)
	}
}

func TestEngine_TrimFilterAndGoTemplateOptions(t *testing.T) {
	exclaim := func(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		return pongo2.AsValue(in.String() + "!"), nil
	}
	engine, err := gotemplate.New(
		gotemplate.WithFS(fstest.MapFS{"greet.tpl": {Data: []byte("{{ greeting|trim }}, {{ name|exclaim }}")}}),
		gotemplate.WithGoTemplateOptions(gotemplatepkg.WithTemplateFunc(map[string]any{"exclaim": exclaim})),
	)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	result, err := engine.RenderTemplate("greet", map[string]any{"greeting": "  Hi ", "name": "Ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != "Hi, Ada!" {
		t.Fatalf("unexpected output %q", result)
	}
}

func TestEngine_RejectsNonObjectData(t *testing.T) {
	engine := newEngine(t)
	if _, err := engine.RenderTemplate("hello", []string{"Ada"}); err == nil {
		t.Fatalf("expected error for non-object data")
	}
}

func TestEngine_BaseDirTakesPrecedence(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "hello.html"), []byte("Override {{ name }}"), 0o600); err != nil {
		t.Fatalf("write override: %v", err)
	}
	engine := newEngine(t, gotemplate.WithBaseDir(dir), gotemplate.WithExtension("html"))

	result, err := engine.RenderTemplate("hello", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != "Override Ada" {
		t.Fatalf("unexpected output %q", result)
	}
}

func TestEngine_MissingTemplate(t *testing.T) {
	engine := newEngine(t)
	if _, err := engine.RenderTemplate("missing", nil); err == nil {
		t.Fatalf("expected error for missing template")
	}
}

func TestEngine_IntegerFilterPrintsWholeNumbers(t *testing.T) {
	engine, err := gotemplate.New(gotemplate.WithFS(fstest.MapFS{
		"limit.tpl": {Data: []byte(`minlength="{{ field.min_length|integer }}"`)},
	}))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	result, err := engine.RenderTemplate("limit", map[string]any{
		"field": struct {
			MinLength int `json:"min_length"`
		}{MinLength: 6},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != `minlength="6"` {
		t.Fatalf("unexpected output %q", result)
	}
}

package render

import (
	"errors"
	"fmt"
	"maps"
	"path"
	"slices"
	"strings"
	"sync"

	theme "github.com/goliatone/go-theme"
)

// StylesheetAsset is the manifest asset key of the page stylesheet.
const StylesheetAsset = "signup.stylesheet"

// DefaultManifest is the built-in theme used when no other theme is
// registered. It ships a light and a dark variant.
func DefaultManifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    "default",
		Version: "1.0.0",
		Tokens: map[string]string{
			"color.background": "#ffffff",
			"color.text":       "#1f2933",
			"color.primary":    "#2563eb",
			"color.error":      "#b91c1c",
			"radius":           "6px",
			"font.family":      "system-ui, sans-serif",
		},
		Assets: theme.Assets{
			Prefix: AssetsPrefix,
			Files:  map[string]string{StylesheetAsset: "signup.css"},
		},
		Variants: map[string]theme.Variant{
			"light": {},
			"dark": {
				Tokens: map[string]string{
					"color.background": "#111827",
					"color.text":       "#f9fafb",
					"color.primary":    "#60a5fa",
					"color.error":      "#f87171",
				},
			},
		},
	}
}

type manifestRegistry interface {
	Register(manifest *theme.Manifest) error
}

// StaticSelector resolves theme selections from a fixed set of manifests.
// Unknown names fall back to the default theme and unknown variants to the
// default variant.
type StaticSelector struct {
	mu             sync.RWMutex
	registry       manifestRegistry
	manifests      map[string]*theme.Manifest
	defaultTheme   string
	defaultVariant string
}

var _ theme.ThemeSelector = (*StaticSelector)(nil)

// NewStaticSelector registers manifests and returns a selector defaulting to
// defaultTheme/defaultVariant. With no manifests DefaultManifest is used.
func NewStaticSelector(defaultTheme, defaultVariant string, manifests ...*theme.Manifest) (*StaticSelector, error) {
	if len(manifests) == 0 {
		manifests = []*theme.Manifest{DefaultManifest()}
	}
	s := &StaticSelector{
		registry:       theme.NewRegistry(),
		manifests:      make(map[string]*theme.Manifest, len(manifests)),
		defaultTheme:   strings.TrimSpace(defaultTheme),
		defaultVariant: strings.TrimSpace(defaultVariant),
	}
	for _, manifest := range manifests {
		if err := s.Register(manifest); err != nil {
			return nil, err
		}
	}
	if s.defaultTheme == "" {
		s.defaultTheme = manifests[0].Name
	}
	if _, ok := s.manifests[s.defaultTheme]; !ok {
		return nil, fmt.Errorf("render: default theme %q is not registered", s.defaultTheme)
	}
	return s, nil
}

// Register adds manifest to the selector.
func (s *StaticSelector) Register(manifest *theme.Manifest) error {
	if manifest == nil || strings.TrimSpace(manifest.Name) == "" {
		return errors.New("render: theme manifest requires a name")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.registry.Register(manifest); err != nil {
		return fmt.Errorf("render: register theme %q: %w", manifest.Name, err)
	}
	s.manifests[manifest.Name] = manifest
	return nil
}

// Select implements theme.ThemeSelector.
func (s *StaticSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	name = strings.TrimSpace(name)
	manifest, ok := s.manifests[name]
	if !ok {
		name = s.defaultTheme
		manifest, ok = s.manifests[name]
		if !ok {
			return nil, fmt.Errorf("render: theme %q not found", name)
		}
	}

	return &theme.Selection{
		Theme:    name,
		Variant:  resolveVariant(manifest, strings.TrimSpace(variant), s.defaultVariant),
		Manifest: manifest,
	}, nil
}

func resolveVariant(manifest *theme.Manifest, candidates ...string) string {
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if _, ok := manifest.Variants[candidate]; ok {
			return candidate
		}
	}
	return ""
}

// ThemeConfig flattens a selection into renderer configuration: manifest
// tokens overlaid with the variant's, CSS custom properties derived from the
// tokens, and an asset resolver rooted at the manifest prefix.
func ThemeConfig(selection *theme.Selection) *theme.RendererConfig {
	if selection == nil || selection.Manifest == nil {
		return nil
	}
	manifest := selection.Manifest
	variant := manifest.Variants[selection.Variant]

	tokens := mergeStringMaps(manifest.Tokens, variant.Tokens)
	partials := mergeStringMaps(manifest.Templates, variant.Templates)
	files := mergeStringMaps(manifest.Assets.Files, variant.Assets.Files)
	prefix := manifest.Assets.Prefix
	if variant.Assets.Prefix != "" {
		prefix = variant.Assets.Prefix
	}

	return &theme.RendererConfig{
		Theme:    selection.Theme,
		Variant:  selection.Variant,
		Partials: partials,
		Tokens:   tokens,
		CSSVars:  cssVars(tokens),
		AssetURL: func(key string) string {
			file, ok := files[key]
			if !ok || file == "" {
				return ""
			}
			if strings.HasPrefix(file, "/") || strings.Contains(file, "://") || prefix == "" {
				return file
			}
			return path.Join(prefix, file)
		},
	}
}

// PageTheme is the template-facing view of a renderer configuration.
type PageTheme struct {
	Name       string            `json:"name,omitempty"`
	Variant    string            `json:"variant,omitempty"`
	Tokens     map[string]string `json:"tokens,omitempty"`
	Style      string            `json:"style,omitempty"`
	Stylesheet string            `json:"stylesheet,omitempty"`
}

// NewPageTheme converts cfg into the values the page template reads.
func NewPageTheme(cfg *theme.RendererConfig) *PageTheme {
	if cfg == nil {
		return nil
	}
	view := &PageTheme{
		Name:    cfg.Theme,
		Variant: cfg.Variant,
		Tokens:  mergeStringMaps(cfg.Tokens),
		Style:   cssVarsStyle(cfg.CSSVars),
	}
	if cfg.AssetURL != nil {
		view.Stylesheet = cfg.AssetURL(StylesheetAsset)
	}
	return view
}

var cssNameReplacer = strings.NewReplacer(".", "-", "_", "-", " ", "-")

// cssVars turns token keys such as "color.background" into custom property
// names such as "--color-background".
func cssVars(tokens map[string]string) map[string]string {
	if len(tokens) == 0 {
		return nil
	}
	out := make(map[string]string, len(tokens))
	for key, value := range tokens {
		if name := cssNameReplacer.Replace(strings.TrimSpace(key)); name != "" {
			out["--"+name] = value
		}
	}
	return out
}

// cssVarsStyle renders vars as one :root rule, sorted by name.
func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(":root {\n")
	for _, name := range slices.Sorted(maps.Keys(vars)) {
		fmt.Fprintf(&b, "  %s: %s;\n", name, vars[name])
	}
	b.WriteString("}")
	return b.String()
}

// mergeStringMaps layers maps left to right; later keys win. It returns nil
// when every layer is empty.
func mergeStringMaps(layers ...map[string]string) map[string]string {
	var out map[string]string
	for _, layer := range layers {
		if len(layer) == 0 {
			continue
		}
		if out == nil {
			out = make(map[string]string, len(layer))
		}
		maps.Copy(out, layer)
	}
	return out
}

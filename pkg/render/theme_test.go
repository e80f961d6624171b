package render

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	theme "github.com/goliatone/go-theme"
)

func acmeManifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    "acme",
		Version: "1.0.0",
		Tokens: map[string]string{
			"color.primary": "#123456",
			"radius":        "4px",
		},
		Assets: theme.Assets{
			Prefix: "/assets/themes/acme",
			Files: map[string]string{
				StylesheetAsset: "signup.css",
			},
		},
		Variants: map[string]theme.Variant{
			"dark": {
				Tokens: map[string]string{"color.primary": "#654321"},
				Assets: theme.Assets{
					Files: map[string]string{StylesheetAsset: "signup.dark.css"},
				},
			},
		},
	}
}

func TestStaticSelector_Select(t *testing.T) {
	selector, err := NewStaticSelector("acme", "dark", acmeManifest(), DefaultManifest())
	if err != nil {
		t.Fatalf("new selector: %v", err)
	}

	cases := []struct {
		name, variant     string
		wantTheme, wantVr string
	}{
		{"acme", "dark", "acme", "dark"},
		{"acme", "", "acme", "dark"},
		{"missing", "", "acme", "dark"},
		{"default", "dark", "default", "dark"},
		{"default", "sepia", "default", "dark"},
		{"default", "light", "default", "light"},
	}
	for _, tc := range cases {
		selection, err := selector.Select(tc.name, tc.variant)
		if err != nil {
			t.Fatalf("select(%q, %q): %v", tc.name, tc.variant, err)
		}
		if selection.Theme != tc.wantTheme || selection.Variant != tc.wantVr {
			t.Fatalf("select(%q, %q): got %s/%s", tc.name, tc.variant, selection.Theme, selection.Variant)
		}
		if selection.Manifest == nil || selection.Manifest.Name != tc.wantTheme {
			t.Fatalf("select(%q, %q): manifest mismatch", tc.name, tc.variant)
		}
	}
}

func TestNewStaticSelector_Errors(t *testing.T) {
	if _, err := NewStaticSelector("nope", ""); err == nil {
		t.Fatalf("expected error for unknown default theme")
	}
	if _, err := NewStaticSelector("", "", &theme.Manifest{Version: "1"}); err == nil {
		t.Fatalf("expected error for unnamed manifest")
	}
	selector, err := NewStaticSelector("", "")
	if err != nil {
		t.Fatalf("default selector: %v", err)
	}
	selection, err := selector.Select("", "")
	if err != nil || selection.Theme != "default" {
		t.Fatalf("expected default theme, got %+v (%v)", selection, err)
	}
}

func TestThemeConfig_MergesVariant(t *testing.T) {
	cfg := ThemeConfig(&theme.Selection{Theme: "acme", Variant: "dark", Manifest: acmeManifest()})
	if cfg == nil {
		t.Fatalf("expected config")
	}

	wantTokens := map[string]string{"color.primary": "#654321", "radius": "4px"}
	if diff := cmp.Diff(wantTokens, cfg.Tokens); diff != "" {
		t.Fatalf("tokens mismatch (-want +got):\n%s", diff)
	}
	wantVars := map[string]string{"--color-primary": "#654321", "--radius": "4px"}
	if diff := cmp.Diff(wantVars, cfg.CSSVars); diff != "" {
		t.Fatalf("css vars mismatch (-want +got):\n%s", diff)
	}
	if got := cfg.AssetURL(StylesheetAsset); got != "/assets/themes/acme/signup.dark.css" {
		t.Fatalf("unexpected stylesheet url %q", got)
	}
	if got := cfg.AssetURL("missing"); got != "" {
		t.Fatalf("expected empty url for unknown asset, got %q", got)
	}

	view := NewPageTheme(cfg)
	wantStyle := ":root {\n  --color-primary: #654321;\n  --radius: 4px;\n}"
	if view.Style != wantStyle {
		t.Fatalf("style mismatch\nwant: %q\n got: %q", wantStyle, view.Style)
	}
	if view.Stylesheet != "/assets/themes/acme/signup.dark.css" {
		t.Fatalf("unexpected stylesheet %q", view.Stylesheet)
	}

	if ThemeConfig(nil) != nil || NewPageTheme(nil) != nil {
		t.Fatalf("expected nil for nil input")
	}
}

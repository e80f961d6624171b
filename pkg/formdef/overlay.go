package formdef

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Overlay adjusts how a definition is presented without changing what it
// collects: titles, field labels, help text, placeholders and order.
type Overlay struct {
	Title       string                  `json:"title,omitempty" yaml:"title,omitempty"`
	Description string                  `json:"description,omitempty" yaml:"description,omitempty"`
	Order       []string                `json:"order,omitempty" yaml:"order,omitempty"`
	Fields      map[string]FieldOverlay `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// FieldOverlay holds the presentation overrides of one field. Empty values
// keep the definition's own.
type FieldOverlay struct {
	Label       string `json:"label,omitempty" yaml:"label,omitempty"`
	Help        string `json:"help,omitempty" yaml:"help,omitempty"`
	Placeholder string `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
}

// OverlayStore holds overlays keyed by form id.
type OverlayStore struct {
	overlays map[string]Overlay
}

type overlayFile struct {
	Forms map[string]Overlay `json:"forms" yaml:"forms"`
}

// LoadOverlays parses a JSON or YAML overlay document.
func LoadOverlays(data []byte, source string) (*OverlayStore, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("formdef: overlay file %s is empty", source)
	}
	var doc overlayFile
	if err := json.Unmarshal(data, &doc); err != nil {
		if yamlErr := yaml.Unmarshal(data, &doc); yamlErr != nil {
			return nil, fmt.Errorf("formdef: parse overlay %s: invalid JSON or YAML", source)
		}
	}

	store := &OverlayStore{overlays: make(map[string]Overlay, len(doc.Forms))}
	for rawID, overlay := range doc.Forms {
		id := strings.TrimSpace(rawID)
		if id == "" {
			return nil, fmt.Errorf("formdef: overlay file %s defines an empty form id", source)
		}
		store.overlays[id] = overlay
	}
	return store, nil
}

// For returns the overlay registered for form id.
func (s *OverlayStore) For(id string) (Overlay, bool) {
	if s == nil {
		return Overlay{}, false
	}
	overlay, ok := s.overlays[id]
	return overlay, ok
}

// Apply returns a copy of def with the overlay applied. Fields listed in
// Order come first in that order and the rest keep their relative order.
// Naming a field def does not have is an error.
func (o Overlay) Apply(def Definition) (Definition, error) {
	out := def.Clone()
	if title := strings.TrimSpace(o.Title); title != "" {
		out.Title = title
	}
	if description := strings.TrimSpace(o.Description); description != "" {
		out.Description = description
	}

	index := make(map[string]int, len(out.Fields))
	for i, field := range out.Fields {
		index[field.Name] = i
	}

	for name, fo := range o.Fields {
		i, ok := index[name]
		if !ok {
			return Definition{}, fmt.Errorf("formdef: overlay for form %q names unknown field %q", def.ID, name)
		}
		field := &out.Fields[i]
		if label := strings.TrimSpace(fo.Label); label != "" {
			field.Label = label
		}
		if help := strings.TrimSpace(fo.Help); help != "" {
			field.Help = help
		}
		if placeholder := strings.TrimSpace(fo.Placeholder); placeholder != "" {
			field.Placeholder = placeholder
		}
	}

	if len(o.Order) == 0 {
		return out, nil
	}

	ordered := make([]Field, 0, len(out.Fields))
	placed := make(map[string]struct{}, len(o.Order))
	for _, raw := range o.Order {
		name := strings.TrimSpace(raw)
		i, ok := index[name]
		if !ok {
			return Definition{}, fmt.Errorf("formdef: overlay order for form %q names unknown field %q", def.ID, name)
		}
		if _, dup := placed[name]; dup {
			return Definition{}, fmt.Errorf("formdef: overlay order for form %q repeats field %q", def.ID, name)
		}
		placed[name] = struct{}{}
		ordered = append(ordered, out.Fields[i])
	}
	for _, field := range out.Fields {
		if _, done := placed[field.Name]; !done {
			ordered = append(ordered, field)
		}
	}
	out.Fields = ordered
	return out, nil
}

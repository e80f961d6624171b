package render

import (
	"fmt"
	"sort"
	"strings"
)

// ReservedPrefix marks input names owned by the page rather than the form
// definition. Collectors drop them before building a record.
const ReservedPrefix = "_"

// Hidden input names written by the signup page.
const (
	CSRFFieldName = "_csrf"
	FormFieldName = "_form"
)

// HiddenField is one hidden input rendered alongside the visible fields.
type HiddenField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Hidden returns a HiddenField for an arbitrary name/value pair.
func Hidden(name string, value any) HiddenField {
	return HiddenField{Name: strings.TrimSpace(name), Value: fmt.Sprint(value)}
}

// CSRFToken returns the hidden field carrying token.
func CSRFToken(token string) HiddenField {
	return Hidden(CSRFFieldName, token)
}

// FormID returns the hidden field identifying which definition rendered the
// page.
func FormID(id string) HiddenField {
	return Hidden(FormFieldName, id)
}

// IsReserved reports whether name belongs to the page rather than the form.
func IsReserved(name string) bool {
	return strings.HasPrefix(strings.TrimSpace(name), ReservedPrefix)
}

// HiddenFields is a set of hidden inputs keyed by name.
type HiddenFields map[string]string

// With returns a copy of h with fields applied. Blank names are ignored and
// later fields win on collisions.
func (h HiddenFields) With(fields ...HiddenField) HiddenFields {
	out := make(HiddenFields, len(h)+len(fields))
	for name, value := range h {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			out[trimmed] = value
		}
	}
	for _, field := range fields {
		if name := strings.TrimSpace(field.Name); name != "" {
			out[name] = field.Value
		}
	}
	return out
}

// Sorted returns the fields ordered by name for deterministic output.
func (h HiddenFields) Sorted() []HiddenField {
	if len(h) == 0 {
		return nil
	}
	names := make([]string, 0, len(h))
	for name := range h {
		if strings.TrimSpace(name) != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := make([]HiddenField, 0, len(names))
	for _, name := range names {
		out = append(out, HiddenField{Name: strings.TrimSpace(name), Value: h[name]})
	}
	return out
}

package collect

import (
	"net/url"
	"sort"
	"strings"
)

// FieldEntry is one raw datum from a form submission.
type FieldEntry struct {
	Name  string
	Value string
}

// Entry builds a FieldEntry.
func Entry(name, value string) FieldEntry {
	return FieldEntry{Name: name, Value: value}
}

// Names is a set of field names.
type Names map[string]struct{}

// NewNames builds a set from the provided names. Blank names are dropped.
func NewNames(names ...string) Names {
	out := make(Names, len(names))
	for _, name := range names {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			out[trimmed] = struct{}{}
		}
	}
	return out
}

// Has reports membership; a nil set contains nothing.
func (n Names) Has(name string) bool {
	if n == nil {
		return false
	}
	_, ok := n[name]
	return ok
}

// Sorted returns the names in lexical order.
func (n Names) Sorted() []string {
	out := make([]string, 0, len(n))
	for name := range n {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Record is the normalised result of one submission, keyed by field name.
type Record map[string]Value

// Collect groups entries by their exact submitted name, so "email " and
// "email" stay distinct keys. Names in multiValued become ordered lists of
// every submitted value; all other names keep the last submitted value.
// Entries whose name is blank are ignored.
func Collect(entries []FieldEntry, multiValued Names) Record {
	record := make(Record, len(entries))
	for _, entry := range entries {
		name := entry.Name
		if strings.TrimSpace(name) == "" {
			continue
		}
		if multiValued.Has(name) {
			current, ok := record[name]
			if !ok {
				record[name] = Multi(entry.Value)
				continue
			}
			current.multi = append(current.multi, entry.Value)
			record[name] = current
			continue
		}
		record[name] = Single(entry.Value)
	}
	return record
}

// Get returns the value stored under name.
func (r Record) Get(name string) (Value, bool) {
	if r == nil {
		return Value{}, false
	}
	v, ok := r[name]
	return v, ok
}

// String returns the single value for name, or "" when absent.
func (r Record) String(name string) string {
	v, _ := r.Get(name)
	return v.String()
}

// Strings returns all values for name, or nil when absent.
func (r Record) Strings(name string) []string {
	v, ok := r.Get(name)
	if !ok {
		return nil
	}
	return v.Strings()
}

// Names returns the record keys in lexical order.
func (r Record) Names() []string {
	out := make([]string, 0, len(r))
	for name := range r {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Equal compares two records key by key.
func (r Record) Equal(other Record) bool {
	if len(r) != len(other) {
		return false
	}
	for name, value := range r {
		otherValue, ok := other[name]
		if !ok || !value.Equal(otherValue) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for name, value := range r {
		if value.IsMulti() {
			out[name] = Multi(value.multi...)
			continue
		}
		out[name] = value
	}
	return out
}

// Map converts the record into a plain map of string and []string values.
func (r Record) Map() map[string]any {
	out := make(map[string]any, len(r))
	for name, value := range r {
		out[name] = value.Any()
	}
	return out
}

// Values converts the record back into url.Values, preserving list order.
func (r Record) Values() url.Values {
	out := make(url.Values, len(r))
	for name, value := range r {
		out[name] = value.Strings()
	}
	return out
}

// Entries flattens url.Values into an entry sequence. Names listed in order
// come first, in that order; remaining names follow lexically so the output is
// deterministic. Values under one name keep their submitted order.
func Entries(values url.Values, order []string) []FieldEntry {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	out := make([]FieldEntry, 0, len(values))
	appendName := func(name string) {
		if _, done := seen[name]; done {
			return
		}
		items, ok := values[name]
		if !ok {
			return
		}
		seen[name] = struct{}{}
		for _, item := range items {
			out = append(out, FieldEntry{Name: name, Value: item})
		}
	}

	for _, name := range order {
		appendName(name)
	}

	rest := make([]string, 0, len(values))
	for name := range values {
		if _, done := seen[name]; !done {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		appendName(name)
	}
	return out
}

// EntriesFromMap flattens a decoded JSON object into entries. Arrays expand to
// one entry per element, true becomes "on" and false or null are skipped,
// mirroring what a browser submits for unchecked checkboxes.
func EntriesFromMap(payload map[string]any, order []string) []FieldEntry {
	if len(payload) == 0 {
		return nil
	}
	values := make(url.Values, len(payload))
	for name, raw := range payload {
		switch typed := raw.(type) {
		case nil:
			continue
		case bool:
			if typed {
				values.Add(name, "on")
			}
		case []any:
			for _, item := range typed {
				if item == nil {
					continue
				}
				if b, ok := item.(bool); ok {
					if b {
						values.Add(name, "on")
					}
					continue
				}
				values.Add(name, scalarText(item))
			}
		case []string:
			for _, item := range typed {
				values.Add(name, item)
			}
		default:
			values.Add(name, scalarText(typed))
		}
	}
	return Entries(values, order)
}

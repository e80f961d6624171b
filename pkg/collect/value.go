package collect

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind distinguishes single from multi-valued fields.
type Kind int

const (
	// KindSingle marks a field carrying one string.
	KindSingle Kind = iota
	// KindMulti marks a field carrying an ordered list of strings.
	KindMulti
)

func (k Kind) String() string {
	switch k {
	case KindMulti:
		return "multi"
	default:
		return "single"
	}
}

// Value is the per-field payload of a Record. It is either a single string or
// an ordered list of strings; the zero value is an empty single value.
type Value struct {
	kind   Kind
	single string
	multi  []string
}

// Single wraps one string.
func Single(value string) Value {
	return Value{kind: KindSingle, single: value}
}

// Multi wraps an ordered list. The slice is copied; a nil or empty list
// yields an empty, non-nil list.
func Multi(values ...string) Value {
	out := make([]string, len(values))
	copy(out, values)
	return Value{kind: KindMulti, multi: out}
}

// Kind reports whether the value is single or multi.
func (v Value) Kind() Kind {
	return v.kind
}

// IsMulti reports whether the value holds a list.
func (v Value) IsMulti() bool {
	return v.kind == KindMulti
}

// String returns the single value. For lists it returns the last element,
// which is what a single-valued reader of the same form would have seen.
func (v Value) String() string {
	if v.kind == KindMulti {
		if len(v.multi) == 0 {
			return ""
		}
		return v.multi[len(v.multi)-1]
	}
	return v.single
}

// Strings returns the values as a fresh slice. Single values yield a one
// element slice.
func (v Value) Strings() []string {
	if v.kind == KindMulti {
		out := make([]string, len(v.multi))
		copy(out, v.multi)
		return out
	}
	return []string{v.single}
}

// Len reports the number of submitted values.
func (v Value) Len() int {
	if v.kind == KindMulti {
		return len(v.multi)
	}
	return 1
}

// Equal compares kind and contents.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	if v.kind == KindSingle {
		return v.single == other.single
	}
	if len(v.multi) != len(other.multi) {
		return false
	}
	for i := range v.multi {
		if v.multi[i] != other.multi[i] {
			return false
		}
	}
	return true
}

// Any returns the value as a string or []string, for serializers that work
// with untyped maps.
func (v Value) Any() any {
	if v.kind == KindMulti {
		return v.Strings()
	}
	return v.single
}

// GoString keeps test failure output readable.
func (v Value) GoString() string {
	if v.kind == KindMulti {
		return fmt.Sprintf("collect.Multi(%q)", strings.Join(v.multi, ","))
	}
	return fmt.Sprintf("collect.Single(%q)", v.single)
}

// MarshalJSON encodes single values as JSON strings and lists as arrays.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindMulti {
		if v.multi == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.multi)
	}
	return json.Marshal(v.single)
}

// UnmarshalJSON accepts a string, an array of strings, a bool or a number.
// Scalars other than strings are stored in their canonical text form.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var raw []any
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("collect: decode list: %w", err)
		}
		values := make([]string, 0, len(raw))
		for _, item := range raw {
			values = append(values, scalarText(item))
		}
		*v = Multi(values...)
		return nil
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("collect: decode value: %w", err)
	}
	*v = Single(scalarText(raw))
	return nil
}

func scalarText(raw any) string {
	switch typed := raw.(type) {
	case nil:
		return ""
	case string:
		return typed
	case bool:
		if typed {
			return "on"
		}
		return ""
	default:
		return fmt.Sprint(typed)
	}
}

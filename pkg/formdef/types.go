package formdef

import (
	"strings"

	"github.com/goliatone/go-formcollect/pkg/collect"
)

// FieldType names the input control a field is submitted from.
type FieldType string

const (
	FieldText          FieldType = "text"
	FieldEmail         FieldType = "email"
	FieldPassword      FieldType = "password"
	FieldTextArea      FieldType = "textarea"
	FieldSelect        FieldType = "select"
	FieldCheckbox      FieldType = "checkbox"
	FieldCheckboxGroup FieldType = "checkbox-group"
)

// Option is one selectable value of a select or checkbox group.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// Field describes one named input.
type Field struct {
	Name        string    `json:"name" yaml:"name"`
	Label       string    `json:"label,omitempty" yaml:"label,omitempty"`
	Type        FieldType `json:"type,omitempty" yaml:"type,omitempty"`
	Help        string    `json:"help,omitempty" yaml:"help,omitempty"`
	Placeholder string    `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Required    bool      `json:"required,omitempty" yaml:"required,omitempty"`
	MinLength   int       `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength   int       `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Multiple    bool      `json:"multiple,omitempty" yaml:"multiple,omitempty"`
	Options     []Option  `json:"options,omitempty" yaml:"options,omitempty"`
}

// IsMulti reports whether several inputs submit under this field's name.
func (f Field) IsMulti() bool {
	return f.Multiple || f.Type == FieldCheckboxGroup
}

// IsSecret reports whether values should be masked when echoed or logged.
func (f Field) IsSecret() bool {
	return f.Type == FieldPassword
}

// DisplayLabel falls back to the field name when no label is configured.
func (f Field) DisplayLabel() string {
	if label := strings.TrimSpace(f.Label); label != "" {
		return label
	}
	return f.Name
}

// AllowsValue reports whether value is one of the configured options. Fields
// without options accept anything.
func (f Field) AllowsValue(value string) bool {
	if len(f.Options) == 0 {
		return true
	}
	for _, option := range f.Options {
		if option.Value == value {
			return true
		}
	}
	return false
}

// OptionValues lists the option values in declaration order.
func (f Field) OptionValues() []string {
	if len(f.Options) == 0 {
		return nil
	}
	out := make([]string, 0, len(f.Options))
	for _, option := range f.Options {
		out = append(out, option.Value)
	}
	return out
}

// OptionLabels lists option labels, falling back to values.
func (f Field) OptionLabels() []string {
	if len(f.Options) == 0 {
		return nil
	}
	out := make([]string, 0, len(f.Options))
	for _, option := range f.Options {
		label := strings.TrimSpace(option.Label)
		if label == "" {
			label = option.Value
		}
		out = append(out, label)
	}
	return out
}

// Definition is an ordered set of fields submitted together.
type Definition struct {
	ID          string  `json:"id,omitempty" yaml:"id,omitempty"`
	Title       string  `json:"title,omitempty" yaml:"title,omitempty"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []Field `json:"fields" yaml:"fields"`

	// Source records where the definition was loaded from.
	Source string `json:"-" yaml:"-"`
}

// Field returns the field named name.
func (d Definition) Field(name string) (Field, bool) {
	for _, field := range d.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// Order lists field names in declaration order.
func (d Definition) Order() []string {
	out := make([]string, 0, len(d.Fields))
	for _, field := range d.Fields {
		out = append(out, field.Name)
	}
	return out
}

// MultiValued returns the names whose values collect into lists.
func (d Definition) MultiValued() collect.Names {
	names := make([]string, 0, len(d.Fields))
	for _, field := range d.Fields {
		if field.IsMulti() {
			names = append(names, field.Name)
		}
	}
	return collect.NewNames(names...)
}

// Secrets returns the names of password fields.
func (d Definition) Secrets() collect.Names {
	var names []string
	for _, field := range d.Fields {
		if field.IsSecret() {
			names = append(names, field.Name)
		}
	}
	return collect.NewNames(names...)
}

// Collect groups entries using the definition's multi-valued names. Declared
// multi-valued fields that received no entries are present as empty lists so
// consumers always see every list key.
func (d Definition) Collect(entries []collect.FieldEntry) collect.Record {
	multi := d.MultiValued()
	record := collect.Collect(entries, multi)
	for name := range multi {
		if _, ok := record[name]; !ok {
			record[name] = collect.Multi()
		}
	}
	return record
}

// Clone returns a deep copy.
func (d Definition) Clone() Definition {
	out := d
	out.Fields = make([]Field, len(d.Fields))
	for i, field := range d.Fields {
		cloned := field
		if len(field.Options) > 0 {
			cloned.Options = append([]Option(nil), field.Options...)
		}
		out.Fields[i] = cloned
	}
	return out
}

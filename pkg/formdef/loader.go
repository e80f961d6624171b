package formdef

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Store holds definitions keyed by form id.
type Store struct {
	forms map[string]Definition
}

// Form returns the definition registered under id.
func (s *Store) Form(id string) (Definition, bool) {
	if s == nil {
		return Definition{}, false
	}
	def, ok := s.forms[id]
	if !ok {
		return Definition{}, false
	}
	return def.Clone(), true
}

// IDs lists the registered form ids in lexical order.
func (s *Store) IDs() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.forms))
	for id := range s.forms {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Empty reports whether the store holds any definitions.
func (s *Store) Empty() bool {
	return s == nil || len(s.forms) == 0
}

type documentFile struct {
	Forms map[string]Definition `json:"forms" yaml:"forms"`
}

// Load parses a single JSON or YAML document. source is used in error
// messages and recorded on every definition.
func Load(data []byte, source string) (*Store, error) {
	store := &Store{forms: make(map[string]Definition)}
	if err := store.add(data, source); err != nil {
		return nil, err
	}
	return store, nil
}

// LoadFS walks fsys and parses every JSON/YAML file it finds. A nil fsys
// yields an empty store.
func LoadFS(fsys fs.FS) (*Store, error) {
	store := &Store{forms: make(map[string]Definition)}
	if fsys == nil {
		return store, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDefinitionFile(path) {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("formdef: read %s: %w", path, err)
		}
		return store.add(data, path)
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Store) add(data []byte, source string) error {
	doc, err := parseDocument(data, source)
	if err != nil {
		return err
	}
	for rawID, def := range doc.Forms {
		id := strings.TrimSpace(rawID)
		if id == "" {
			return fmt.Errorf("formdef: file %s defines an empty form id", source)
		}
		if _, exists := s.forms[id]; exists {
			return fmt.Errorf("formdef: duplicate form %q (file %s)", id, source)
		}
		normalised, err := normaliseDefinition(def, id, source)
		if err != nil {
			return err
		}
		s.forms[id] = normalised
	}
	return nil
}

func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return documentFile{}, fmt.Errorf("formdef: file %s is empty", source)
	}

	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}

	if err := yaml.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}

	return documentFile{}, fmt.Errorf("formdef: parse %s: invalid JSON or YAML", source)
}

func normaliseDefinition(raw Definition, id, source string) (Definition, error) {
	def := raw.Clone()
	def.ID = id
	def.Source = source
	def.Title = strings.TrimSpace(def.Title)
	def.Description = strings.TrimSpace(def.Description)

	if len(def.Fields) == 0 {
		return Definition{}, fmt.Errorf("formdef: form %q (file %s) has no fields", id, source)
	}

	seen := make(map[string]struct{}, len(def.Fields))
	for idx := range def.Fields {
		field := &def.Fields[idx]
		field.Name = strings.TrimSpace(field.Name)
		if field.Name == "" {
			return Definition{}, fmt.Errorf("formdef: form %q (file %s) field %d has no name", id, source, idx)
		}
		if _, exists := seen[field.Name]; exists {
			return Definition{}, fmt.Errorf("formdef: form %q (file %s) defines duplicate field %q", id, source, field.Name)
		}
		seen[field.Name] = struct{}{}

		if field.Type == "" {
			field.Type = FieldText
		}
		if !knownType(field.Type) {
			return Definition{}, fmt.Errorf("formdef: form %q (file %s) field %q has unknown type %q", id, source, field.Name, field.Type)
		}
		if field.MinLength < 0 || field.MaxLength < 0 {
			return Definition{}, fmt.Errorf("formdef: form %q (file %s) field %q has a negative length bound", id, source, field.Name)
		}
		if field.MaxLength > 0 && field.MinLength > field.MaxLength {
			return Definition{}, fmt.Errorf("formdef: form %q (file %s) field %q minLength exceeds maxLength", id, source, field.Name)
		}
		if field.Type == FieldSelect && len(field.Options) == 0 {
			return Definition{}, fmt.Errorf("formdef: form %q (file %s) select field %q has no options", id, source, field.Name)
		}
		for optIdx := range field.Options {
			field.Options[optIdx].Value = strings.TrimSpace(field.Options[optIdx].Value)
			if field.Options[optIdx].Value == "" {
				return Definition{}, fmt.Errorf("formdef: form %q (file %s) field %q option %d has no value", id, source, field.Name, optIdx)
			}
		}
	}
	return def, nil
}

func knownType(t FieldType) bool {
	switch t {
	case FieldText, FieldEmail, FieldPassword, FieldTextArea, FieldSelect, FieldCheckbox, FieldCheckboxGroup:
		return true
	default:
		return false
	}
}

func isDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

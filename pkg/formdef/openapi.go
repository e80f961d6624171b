package formdef

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/getkin/kin-openapi/openapi3"
)

// fieldOrderExtension lets an OpenAPI schema pin the field order, since
// schema properties are unordered.
const fieldOrderExtension = "x-field-order"

// FromOpenAPI builds a definition from the request body of operationID.
// Form-encoded bodies are preferred over JSON ones. Array properties become
// multi-valued fields; enums become options.
func FromOpenAPI(ctx context.Context, raw []byte, operationID string) (Definition, error) {
	if err := ctx.Err(); err != nil {
		return Definition{}, err
	}
	if len(raw) == 0 {
		return Definition{}, errors.New("formdef: openapi document is empty")
	}
	operationID = strings.TrimSpace(operationID)
	if operationID == "" {
		return Definition{}, errors.New("formdef: operation id is required")
	}

	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return Definition{}, fmt.Errorf("formdef: load openapi document: %w", err)
	}

	operation := findOperation(doc, operationID)
	if operation == nil {
		return Definition{}, fmt.Errorf("formdef: operation %q not found", operationID)
	}

	schema := requestSchema(operation)
	if schema == nil {
		return Definition{}, fmt.Errorf("formdef: operation %q has no request body schema", operationID)
	}
	if t := firstSchemaType(schema.Type); t != "" && t != "object" {
		return Definition{}, fmt.Errorf("formdef: operation %q request body is %s, want object", operationID, t)
	}

	def := Definition{
		ID:          operationID,
		Title:       firstNonEmpty(operation.Summary, schema.Title),
		Description: firstNonEmpty(operation.Description, schema.Description),
		Source:      "openapi:" + operationID,
	}

	required := make(map[string]struct{}, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = struct{}{}
	}

	for _, name := range propertyOrder(schema) {
		ref := schema.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		_, isRequired := required[name]
		def.Fields = append(def.Fields, fieldFromSchema(name, ref.Value, isRequired))
	}

	return normaliseDefinition(def, operationID, def.Source)
}

func findOperation(doc *openapi3.T, operationID string) *openapi3.Operation {
	if doc == nil || doc.Paths == nil {
		return nil
	}
	for _, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for _, op := range item.Operations() {
			if op != nil && op.OperationID == operationID {
				return op
			}
		}
	}
	return nil
}

func requestSchema(operation *openapi3.Operation) *openapi3.Schema {
	if operation.RequestBody == nil || operation.RequestBody.Value == nil {
		return nil
	}
	content := operation.RequestBody.Value.Content
	for _, mediaType := range []string{"application/x-www-form-urlencoded", "multipart/form-data", "application/json"} {
		if mt, ok := content[mediaType]; ok && mt != nil && mt.Schema != nil && mt.Schema.Value != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

func fieldFromSchema(name string, schema *openapi3.Schema, required bool) Field {
	field := Field{
		Name:     name,
		Label:    firstNonEmpty(schema.Title, humanize(name)),
		Help:     schema.Description,
		Required: required,
	}

	target := schema
	if firstSchemaType(schema.Type) == "array" {
		field.Multiple = true
		field.Type = FieldCheckboxGroup
		if schema.Items != nil && schema.Items.Value != nil {
			target = schema.Items.Value
		}
	}

	field.Options = enumOptions(target.Enum)
	field.MinLength = int(target.MinLength)
	if target.MaxLength != nil {
		field.MaxLength = int(*target.MaxLength)
	}

	if field.Multiple {
		return field
	}

	switch {
	case firstSchemaType(target.Type) == "boolean":
		field.Type = FieldCheckbox
	case len(field.Options) > 0:
		field.Type = FieldSelect
	case target.Format == "email":
		field.Type = FieldEmail
	case target.Format == "password":
		field.Type = FieldPassword
	case target.Format == "textarea":
		field.Type = FieldTextArea
	default:
		field.Type = FieldText
	}
	return field
}

func propertyOrder(schema *openapi3.Schema) []string {
	seen := make(map[string]struct{}, len(schema.Properties))
	var out []string

	if raw, ok := schema.Extensions[fieldOrderExtension]; ok {
		if items, ok := raw.([]any); ok {
			for _, item := range items {
				name, ok := item.(string)
				if !ok {
					continue
				}
				if _, exists := schema.Properties[name]; !exists {
					continue
				}
				if _, dup := seen[name]; dup {
					continue
				}
				seen[name] = struct{}{}
				out = append(out, name)
			}
		}
	}

	rest := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		if _, done := seen[name]; !done {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func enumOptions(values []any) []Option {
	if len(values) == 0 {
		return nil
	}
	out := make([]Option, 0, len(values))
	for _, value := range values {
		text := strings.TrimSpace(fmt.Sprint(value))
		if text == "" {
			continue
		}
		out = append(out, Option{Value: text, Label: humanize(text)})
	}
	return out
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	values := types.Slice()
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

var wordSeparators = strings.NewReplacer("-", " ", "_", " ")

// humanize turns a property or enum name into a label, upper-casing the
// first rune only.
func humanize(name string) string {
	label := strings.Join(strings.Fields(wordSeparators.Replace(name)), " ")
	first, size := utf8.DecodeRuneInString(label)
	if size == 0 {
		return ""
	}
	return string(unicode.ToUpper(first)) + label[size:]
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

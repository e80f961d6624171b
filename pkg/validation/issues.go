package validation

import (
	"maps"
	"slices"
	"strconv"
	"strings"
)

// ErrorMapping splits issues into field-level and form-level messages keyed
// by field name.
type ErrorMapping struct {
	Fields map[string][]string `json:"fields,omitempty"`
	Form   []string            `json:"form,omitempty"`
}

// Empty reports whether the mapping carries no messages.
func (m ErrorMapping) Empty() bool {
	return len(m.Fields) == 0 && len(m.Form) == 0
}

// For returns the messages attached to field.
func (m ErrorMapping) For(field string) []string {
	if len(m.Fields) == 0 {
		return nil
	}
	return m.Fields[field]
}

// Names returns the fields carrying messages, sorted.
func (m ErrorMapping) Names() []string {
	if len(m.Fields) == 0 {
		return nil
	}
	return slices.Sorted(maps.Keys(m.Fields))
}

// MapIssues groups issues by field. Issues naming a field outside known, or
// no field at all, become form-level messages so nothing is dropped. A nil
// known set accepts every field name.
func MapIssues(known map[string]struct{}, issues []Issue) ErrorMapping {
	mapping := ErrorMapping{Fields: make(map[string][]string)}
	for _, issue := range issues {
		message := strings.TrimSpace(issue.Message)
		if message == "" {
			continue
		}
		field := strings.TrimSpace(issue.Field)
		_, declared := known[field]
		if field == "" || (known != nil && !declared) {
			mapping.Form = append(mapping.Form, message)
			continue
		}
		mapping.Fields[field] = append(mapping.Fields[field], message)
	}
	for field, messages := range mapping.Fields {
		mapping.Fields[field] = cleanMessages(messages)
	}
	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = cleanMessages(mapping.Form)
	return mapping
}

// IssuesFromPayload converts a downstream error payload keyed by JSON pointer
// or dotted paths ("/body/email", "data.email", "non_field_errors") into
// issues. Wrapper segments such as body or payload and array indices are
// skipped; the first remaining segment names the field.
func IssuesFromPayload(payload map[string][]string) []Issue {
	var issues []Issue
	for path, messages := range payload {
		field := fieldFromPath(path)
		for _, message := range cleanMessages(messages) {
			issues = append(issues, Issue{Field: field, Rule: RuleRemote, Message: message})
		}
	}
	return issues
}

// MergeFormErrors appends extras to existing, trimming blanks and dropping
// repeats while keeping first-seen order.
func MergeFormErrors(existing []string, extras ...string) []string {
	return cleanMessages(append(slices.Clone(existing), extras...))
}

func cleanMessages(messages []string) []string {
	var out []string
	for _, message := range messages {
		message = strings.TrimSpace(message)
		if message != "" && !slices.Contains(out, message) {
			out = append(out, message)
		}
	}
	return out
}

var (
	formLevelKeys = map[string]bool{
		"": true, "form": true, "base": true, "__all__": true,
		"non_field_errors": true, "non-field-errors": true,
	}
	wrapperSegments = map[string]bool{
		"body": true, "request": true, "payload": true, "data": true, "attributes": true,
	}
	pointerUnescape = strings.NewReplacer("~1", "/", "~0", "~")
)

func fieldFromPath(path string) string {
	if formLevelKeys[strings.ToLower(strings.Trim(path, " ./#$"))] {
		return ""
	}
	segments := strings.FieldsFunc(path, func(r rune) bool {
		return strings.ContainsRune("/.[]#$", r)
	})
	for _, segment := range segments {
		segment = strings.TrimSpace(pointerUnescape.Replace(segment))
		if segment == "" || wrapperSegments[strings.ToLower(segment)] {
			continue
		}
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		return segment
	}
	return ""
}

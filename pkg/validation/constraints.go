package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/goliatone/go-formcollect/pkg/collect"
	"github.com/goliatone/go-formcollect/pkg/formdef"
)

// Rule names the constraint an Issue violates.
type Rule string

const (
	RuleRequired  Rule = "required"
	RuleEmail     Rule = "email"
	RuleMinLength Rule = "min"
	RuleMaxLength Rule = "max"
	RuleOption    Rule = "oneof"
	RuleMatch     Rule = "match"
	RuleRemote    Rule = "remote"
)

// Issue is one field-level or form-level validation message. An empty Field
// marks a form-level message.
type Issue struct {
	Field   string `json:"field,omitempty"`
	Rule    Rule   `json:"rule,omitempty"`
	Message string `json:"message"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// CheckConstraints applies the per-field constraints of def to record:
// required, email format, length bounds and option membership. It reports at
// most one issue per field, in definition order. Fields absent from def are
// ignored.
func CheckConstraints(record collect.Record, def formdef.Definition) []Issue {
	var issues []Issue
	for _, field := range def.Fields {
		if issue, ok := checkField(record, field); ok {
			issues = append(issues, issue)
		}
	}
	return issues
}

func checkField(record collect.Record, field formdef.Field) (Issue, bool) {
	value, present := record.Get(field.Name)

	if field.IsMulti() {
		values := []string(nil)
		if present {
			values = nonBlank(value.Strings())
		}
		if field.Required && len(values) == 0 {
			return fieldIssue(field, RuleRequired, ""), true
		}
		for _, item := range values {
			if !field.AllowsValue(item) {
				return fieldIssue(field, RuleOption, item), true
			}
		}
		return Issue{}, false
	}

	text := strings.TrimSpace(value.String())
	if text == "" {
		if field.Required {
			return fieldIssue(field, RuleRequired, ""), true
		}
		return Issue{}, false
	}

	if tag := tagFor(field); tag != "" {
		// Passwords are measured untrimmed.
		target := text
		if field.Type == formdef.FieldPassword {
			target = value.String()
		}
		if err := validate.Var(target, tag); err != nil {
			var fieldErrs validator.ValidationErrors
			if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
				return fieldIssue(field, Rule(fieldErrs[0].Tag()), fieldErrs[0].Param()), true
			}
			return Issue{Field: field.Name, Message: err.Error()}, true
		}
	}

	if !field.AllowsValue(text) {
		return fieldIssue(field, RuleOption, text), true
	}
	return Issue{}, false
}

func tagFor(field formdef.Field) string {
	var tags []string
	if field.Type == formdef.FieldEmail {
		tags = append(tags, "email")
	}
	if field.MinLength > 0 {
		tags = append(tags, "min="+strconv.Itoa(field.MinLength))
	}
	if field.MaxLength > 0 {
		tags = append(tags, "max="+strconv.Itoa(field.MaxLength))
	}
	return strings.Join(tags, ",")
}

func fieldIssue(field formdef.Field, rule Rule, param string) Issue {
	return Issue{
		Field:   field.Name,
		Rule:    rule,
		Message: messageFor(field, rule, param),
	}
}

func messageFor(field formdef.Field, rule Rule, param string) string {
	switch rule {
	case RuleRequired:
		if field.Type == formdef.FieldCheckbox {
			return "Please tick this box to continue."
		}
		return fmt.Sprintf("%s is required.", field.DisplayLabel())
	case RuleEmail:
		return "Please enter a valid email address."
	case RuleMinLength:
		return fmt.Sprintf("%s must be at least %s characters.", field.DisplayLabel(), param)
	case RuleMaxLength:
		return fmt.Sprintf("%s must be at most %s characters.", field.DisplayLabel(), param)
	case RuleOption:
		return fmt.Sprintf("%q is not a valid choice.", param)
	default:
		return fmt.Sprintf("%s is invalid.", field.DisplayLabel())
	}
}

func nonBlank(values []string) []string {
	out := values[:0:0]
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			out = append(out, value)
		}
	}
	return out
}

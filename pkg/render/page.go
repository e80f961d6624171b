package render

import (
	"strings"

	"github.com/goliatone/go-formcollect/pkg/collect"
	"github.com/goliatone/go-formcollect/pkg/formdef"
	"github.com/goliatone/go-formcollect/pkg/validation"
)

// SubmittedMessage confirms an accepted submission above the reset form.
const SubmittedMessage = "Thanks! Your details were received."

// Page is the view model handed to the page template.
type Page struct {
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Action      string        `json:"action"`
	SubmitLabel string        `json:"submit_label"`
	ResetLabel  string        `json:"reset_label"`
	Fields      []FieldView   `json:"fields"`
	FormErrors  []string      `json:"form_errors,omitempty"`
	Hidden      []HiddenField `json:"hidden,omitempty"`
	Notice      string        `json:"notice,omitempty"`
	SubmittedID string        `json:"submitted_id,omitempty"`
	Theme       *PageTheme    `json:"theme,omitempty"`
}

// FieldView is one rendered control.
type FieldView struct {
	Name        string       `json:"name"`
	Label       string       `json:"label"`
	Type        string       `json:"type"`
	Help        string       `json:"help,omitempty"`
	Placeholder string       `json:"placeholder,omitempty"`
	Required    bool         `json:"required"`
	MinLength   int          `json:"min_length,omitempty"`
	MaxLength   int          `json:"max_length,omitempty"`
	Value       string       `json:"value,omitempty"`
	Checked     bool         `json:"checked"`
	Options     []OptionView `json:"options,omitempty"`
	Errors      []string     `json:"errors,omitempty"`
}

// OptionView is one choice of a select or checkbox group.
type OptionView struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// PageInput gathers what BuildPage needs.
type PageInput struct {
	Definition formdef.Definition
	// Values re-populates the controls after a rejected submission. Secret
	// fields are never echoed back.
	Values      collect.Record
	Errors      validation.ErrorMapping
	Action      string
	Hidden      HiddenFields
	SubmittedID string
	Theme       *PageTheme
}

// BuildPage lays out the definition's fields in order with their values and
// errors.
func BuildPage(in PageInput) Page {
	def := in.Definition
	page := Page{
		Title:       strings.TrimSpace(def.Title),
		Description: strings.TrimSpace(def.Description),
		Action:      in.Action,
		SubmitLabel: "Sign up",
		ResetLabel:  "Reset",
		Fields:      make([]FieldView, 0, len(def.Fields)),
		FormErrors:  in.Errors.Form,
		Hidden:      in.Hidden.Sorted(),
		SubmittedID: in.SubmittedID,
		Theme:       in.Theme,
	}
	if page.Title == "" {
		page.Title = def.ID
	}
	if in.SubmittedID != "" {
		page.Notice = SubmittedMessage
	}

	for _, field := range def.Fields {
		page.Fields = append(page.Fields, buildField(field, in.Values, in.Errors.For(field.Name)))
	}
	return page
}

func buildField(field formdef.Field, values collect.Record, errors []string) FieldView {
	view := FieldView{
		Name:        field.Name,
		Label:       field.DisplayLabel(),
		Type:        string(field.Type),
		Help:        field.Help,
		Placeholder: field.Placeholder,
		Required:    field.Required,
		MinLength:   field.MinLength,
		MaxLength:   field.MaxLength,
		Errors:      errors,
	}
	if view.Type == "" {
		view.Type = string(formdef.FieldText)
	}

	selected := make(map[string]struct{})
	if !field.IsSecret() {
		for _, value := range values.Strings(field.Name) {
			selected[value] = struct{}{}
		}
		view.Value = values.String(field.Name)
	}
	if field.Type == formdef.FieldCheckbox {
		view.Checked = view.Value != ""
		view.Value = ""
	}

	for _, option := range field.Options {
		_, isSelected := selected[option.Value]
		label := option.Label
		if strings.TrimSpace(label) == "" {
			label = option.Value
		}
		view.Options = append(view.Options, OptionView{
			Value:    option.Value,
			Label:    label,
			Selected: isSelected,
		})
	}
	return view
}

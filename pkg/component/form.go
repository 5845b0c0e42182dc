package component

import (
	"encoding/json"
	"time"

	"github.com/leapstack-labs/leapadmin/pkg/schema"
)

// FormField is one input of a ModelForm.
type FormField interface {
	Kind() string
	FieldName() string
}

// FormFieldInput is a text-like input element.
type FormFieldInput struct {
	Name        string   `json:"name"`
	Title       []string `json:"title"`
	Required    bool     `json:"required"`
	Locked      bool     `json:"locked"`
	HTMLType    string   `json:"htmlType"`
	Initial     any      `json:"initial,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
	Step        any      `json:"step,omitempty"`
	Description string   `json:"description,omitempty"`
	ClassName   string   `json:"className,omitempty"`
}

// Kind implements FormField.
func (FormFieldInput) Kind() string { return "FormFieldInput" }

// FieldName implements FormField.
func (f FormFieldInput) FieldName() string { return f.Name }

// MarshalJSON adds the component type.
func (f FormFieldInput) MarshalJSON() ([]byte, error) {
	type alias FormFieldInput
	if f.HTMLType == "" {
		f.HTMLType = "text"
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{f.Kind(), alias(f)})
}

// FormFieldBoolean is a checkbox or switch.
type FormFieldBoolean struct {
	Name        string   `json:"name"`
	Title       []string `json:"title"`
	Required    bool     `json:"required"`
	Locked      bool     `json:"locked"`
	Initial     *bool    `json:"initial,omitempty"`
	Mode        string   `json:"mode"`
	Description string   `json:"description,omitempty"`
	ClassName   string   `json:"className,omitempty"`
}

// Kind implements FormField.
func (FormFieldBoolean) Kind() string { return "FormFieldBoolean" }

// FieldName implements FormField.
func (f FormFieldBoolean) FieldName() string { return f.Name }

// MarshalJSON adds the component type.
func (f FormFieldBoolean) MarshalJSON() ([]byte, error) {
	type alias FormFieldBoolean
	if f.Mode == "" {
		f.Mode = "checkbox"
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{f.Kind(), alias(f)})
}

// ModelForm is a form whose submission POSTs to SubmitURL.
type ModelForm struct {
	SubmitURL  string      `json:"submitUrl"`
	Method     string      `json:"method"`
	FormFields []FormField `json:"formFields"`
	Footer     []Component `json:"footer,omitempty"`
	ClassName  string      `json:"className,omitempty"`
}

// Kind implements Component.
func (ModelForm) Kind() string { return "ModelForm" }

// MarshalJSON adds the component type.
func (c ModelForm) MarshalJSON() ([]byte, error) {
	type alias ModelForm
	if c.Method == "" {
		c.Method = "POST"
	}
	if c.FormFields == nil {
		c.FormFields = []FormField{}
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{c.Kind(), alias(c)})
}

var inputTypes = map[schema.FieldType]string{
	schema.FieldString:   "text",
	schema.FieldInt:      "number",
	schema.FieldFloat:    "number",
	schema.FieldDecimal:  "number",
	schema.FieldDateTime: "datetime-local",
	schema.FieldDate:     "date",
	schema.FieldTime:     "time",
}

// FormFields maps schema fields to form inputs. Initial values come from
// initial when present, otherwise from the field default.
func FormFields(s *schema.Schema, initial map[string]any) []FormField {
	out := make([]FormField, 0, len(s.Fields))
	for _, f := range s.Fields {
		value, ok := initial[f.Name]
		if !ok {
			value = f.Default
		}
		title := []string{f.Title}

		if f.Type == schema.FieldBool {
			field := FormFieldBoolean{Name: f.Name, Title: title}
			if b, ok := value.(bool); ok {
				field.Initial = &b
			}
			out = append(out, field)
			continue
		}

		field := FormFieldInput{
			Name:     f.Name,
			Title:    title,
			Required: f.Required,
			HTMLType: inputTypes[f.Type],
			Initial:  inputValue(f.Type, value),
		}
		if f.Type == schema.FieldFloat || f.Type == schema.FieldDecimal {
			field.Step = "any"
		}
		out = append(out, field)
	}
	return out
}

// inputValue formats a value the way the matching HTML input expects it.
func inputValue(ft schema.FieldType, v any) any {
	t, ok := v.(time.Time)
	if !ok {
		return v
	}
	switch ft {
	case schema.FieldDate:
		return t.Format("2006-01-02")
	case schema.FieldTime:
		return t.Format("15:04:05")
	default:
		return t.UTC().Format("2006-01-02T15:04:05")
	}
}

package schema

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var validate = validator.New()

// Field is one entry of a derived schema.
type Field struct {
	Name     string
	Title    string
	Type     FieldType
	GoType   reflect.Type
	Nullable bool
	Required bool
	Default  any
	Rules    string
}

// Schema is the validation and display schema derived from a table.
type Schema struct {
	Name   string
	Fields []Field
}

// DeriveOptions selects which columns end up in a derived schema.
type DeriveOptions struct {
	// Include limits the schema to these columns. Nil or empty means all.
	Include []string
	// Exclude drops these columns.
	Exclude []string
	// ForForm drops the primary key.
	ForForm bool
}

// Derive builds a schema from table metadata.
func Derive(t *Table, opts DeriveOptions) *Schema {
	s := &Schema{Name: t.Model + "Schema"}
	pk := t.PrimaryKey()

	for _, c := range t.Columns {
		if len(opts.Include) > 0 && !slices.Contains(opts.Include, c.Name) {
			continue
		}
		if slices.Contains(opts.Exclude, c.Name) {
			continue
		}
		if opts.ForForm && c.Name == pk {
			continue
		}

		f := Field{
			Name:     c.Name,
			Title:    Title(c.Name),
			Type:     c.FieldType(),
			GoType:   c.GoType,
			Nullable: c.Nullable,
			Rules:    c.Rules,
		}
		switch {
		case c.Default != nil:
			f.Default = c.Default
		case c.Nullable:
		default:
			f.Required = true
		}
		s.Fields = append(s.Fields, f)
	}
	return s
}

// Field looks up a field by name.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldNames returns the field names in order.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// FieldError describes why one field failed validation.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError collects every field that failed validation.
type ValidationError struct {
	Schema string
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return fmt.Sprintf("%d validation error(s) for %s: %s", len(e.Errors), e.Schema, strings.Join(parts, "; "))
}

// Validate coerces raw input into a record matching the schema. Unknown keys
// are ignored. All failing fields are reported in a *ValidationError.
func (s *Schema) Validate(raw map[string]any) (Record, error) {
	rec := make(Record, len(s.Fields))
	verr := &ValidationError{Schema: s.Name}

	for _, f := range s.Fields {
		v, present := raw[f.Name]
		// Browsers submit empty inputs for untouched optional fields.
		if str, ok := v.(string); ok && str == "" && f.Type != FieldString {
			v = nil
			if !f.Nullable {
				present = false
			}
		}

		if !present {
			switch {
			case f.Default != nil:
				rec[f.Name] = f.Default
			case f.Nullable:
				rec[f.Name] = nil
			default:
				verr.Errors = append(verr.Errors, FieldError{Field: f.Name, Message: "field required"})
			}
			continue
		}

		if v == nil {
			if !f.Nullable {
				verr.Errors = append(verr.Errors, FieldError{Field: f.Name, Message: "must not be null"})
				continue
			}
			rec[f.Name] = nil
			continue
		}

		if f.Type == FieldString {
			if _, ok := v.(string); !ok {
				verr.Errors = append(verr.Errors, FieldError{Field: f.Name, Message: "must be a string"})
				continue
			}
		}

		value, err := Coerce(f.Type, v)
		if err != nil {
			verr.Errors = append(verr.Errors, FieldError{Field: f.Name, Message: err.Error()})
			continue
		}
		if n, ok := value.(int64); ok && f.GoType != nil {
			if err := fitsKind(f.GoType, n); err != nil {
				verr.Errors = append(verr.Errors, FieldError{Field: f.Name, Message: err.Error()})
				continue
			}
		}

		if f.Rules != "" {
			if err := validate.Var(value, f.Rules); err != nil {
				verr.Errors = append(verr.Errors, FieldError{Field: f.Name, Message: ruleMessage(err)})
				continue
			}
		}
		rec[f.Name] = value
	}

	if len(verr.Errors) > 0 {
		return nil, verr
	}
	return rec, nil
}

func ruleMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Param() != "" {
			return fmt.Sprintf("failed %s=%s rule", fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("failed %s rule", fe.Tag())
	}
	return err.Error()
}

// Dump projects a record onto the schema's fields, ready for JSON encoding.
func (s *Schema) Dump(rec Record) map[string]any {
	out := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		out[f.Name] = JSONValue(f.Type, rec[f.Name])
	}
	return out
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts a display name to a URL-safe slug: "Audit Logs" becomes
// "audit-logs".
func Slugify(name string) string {
	return strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-"), "-")
}

// Title converts a column or table name to a display title: "is_active"
// becomes "Is Active".
func Title(name string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}

// TableTitle title-cases each underscore separated part of a table name and
// keeps the underscores: "audit_logs" becomes "Audit_Logs".
func TableTitle(name string) string {
	caser := cases.Title(language.English)
	parts := strings.Split(name, "_")
	for i, p := range parts {
		parts[i] = caser.String(p)
	}
	return strings.Join(parts, "_")
}

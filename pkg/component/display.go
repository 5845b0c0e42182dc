package component

import (
	"encoding/json"

	"github.com/leapstack-labs/leapadmin/pkg/schema"
)

// DisplayLookup describes how one field of a row is shown in a Table or
// Details component.
type DisplayLookup struct {
	Field   string `json:"field"`
	Title   string `json:"title,omitempty"`
	Mode    string `json:"mode,omitempty"`
	OnClick Event  `json:"onClick,omitempty"`
}

// Lookups builds one DisplayLookup per schema field.
func Lookups(s *schema.Schema) []DisplayLookup {
	out := make([]DisplayLookup, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = DisplayLookup{Field: f.Name, Title: f.Title}
	}
	return out
}

// Table renders rows of data. Columns default to every key of the first row
// on the frontend when empty.
type Table struct {
	Data          []map[string]any `json:"data"`
	Columns       []DisplayLookup  `json:"columns,omitempty"`
	NoDataMessage string           `json:"noDataMessage,omitempty"`
	ClassName     string           `json:"className,omitempty"`
}

// Kind implements Component.
func (Table) Kind() string { return "Table" }

// MarshalJSON adds the component type.
func (c Table) MarshalJSON() ([]byte, error) {
	type alias Table
	if c.Data == nil {
		c.Data = []map[string]any{}
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{c.Kind(), alias(c)})
}

// Details renders a single record as a description list.
type Details struct {
	Data      map[string]any  `json:"data"`
	Fields    []DisplayLookup `json:"fields,omitempty"`
	ClassName string          `json:"className,omitempty"`
}

// Kind implements Component.
func (Details) Kind() string { return "Details" }

// MarshalJSON adds the component type.
func (c Details) MarshalJSON() ([]byte, error) {
	type alias Details
	if c.Data == nil {
		c.Data = map[string]any{}
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{c.Kind(), alias(c)})
}

// Pagination renders page links driven by the "page" query parameter.
type Pagination struct {
	Page           int    `json:"page"`
	PageSize       int    `json:"pageSize"`
	Total          int64  `json:"total"`
	PageQueryParam string `json:"pageQueryParam,omitempty"`
	ClassName      string `json:"className,omitempty"`
}

// Kind implements Component.
func (Pagination) Kind() string { return "Pagination" }

// PageCount is the number of pages needed for Total rows.
func (c Pagination) PageCount() int {
	if c.PageSize <= 0 {
		return 0
	}
	return int((c.Total + int64(c.PageSize) - 1) / int64(c.PageSize))
}

// MarshalJSON adds the component type and page count.
func (c Pagination) MarshalJSON() ([]byte, error) {
	type alias Pagination
	if c.PageQueryParam == "" {
		c.PageQueryParam = "page"
	}
	return json.Marshal(struct {
		Type      string `json:"type"`
		PageCount int    `json:"pageCount"`
		alias
	}{c.Kind(), c.PageCount(), alias(c)})
}

package admin

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/leapstack-labs/leapadmin/pkg/component"
	"github.com/leapstack-labs/leapadmin/pkg/schema"
)

// View is anything listed in the navbar.
type View interface {
	Name() string
	Visible() bool
	slug() string
}

// BaseView is a plain custom screen served at /<slug>/ with its components
// at /api/<slug>/. Content returns the page body; the layout is added around it.
type BaseView struct {
	Title    string
	Category string
	Icon     string
	Hidden   bool
	Content  func(r *http.Request) ([]component.Component, error)
}

// Name implements View.
func (v *BaseView) Name() string { return v.Title }

// Visible implements View.
func (v *BaseView) Visible() bool { return !v.Hidden }

func (v *BaseView) slug() string { return schema.Slugify(v.Title) }

func (v *BaseView) render(r *http.Request) ([]component.Component, error) {
	if v.Content == nil {
		return nil, nil
	}
	return v.Content(r)
}

// IndexView is the dashboard shown at the base URL. Content, when set,
// replaces the default welcome page.
type IndexView struct {
	Title   string
	Icon    string
	Content func(r *http.Request) ([]component.Component, error)
}

// Name implements View.
func (v *IndexView) Name() string {
	if v.Title == "" {
		return "Dashboard"
	}
	return v.Title
}

// Visible implements View.
func (v *IndexView) Visible() bool { return true }

func (v *IndexView) slug() string { return "" }

// Permissions toggles the write and detail screens of a model view.
type Permissions struct {
	Create      bool
	Edit        bool
	Delete      bool
	ViewDetails bool
}

// AllPermissions enables every screen.
func AllPermissions() *Permissions {
	return &Permissions{Create: true, Edit: true, Delete: true, ViewDetails: true}
}

// ReadOnly disables create, edit and delete.
func ReadOnly() *Permissions {
	return &Permissions{ViewDetails: true}
}

// DefaultPageSize is used when ModelView.PageSize is zero.
const DefaultPageSize = 25

// ModelView generates list, detail, create, edit and delete screens for a
// model struct.
type ModelView struct {
	// Model is a value or pointer of the model struct.
	Model any
	// Title defaults to the table name, title-cased.
	Title string
	// ColumnList limits and orders the columns shown. Nil means all.
	ColumnList        []string
	ColumnExcludeList []string
	PageSize          int
	// Permissions defaults to AllPermissions when nil.
	Permissions *Permissions
	Icon        string
	Hidden      bool

	table      *schema.Table
	listCols   []string
	listSchema *schema.Schema
	formSchema *schema.Schema
}

// Name implements View.
func (v *ModelView) Name() string {
	if v.Title != "" {
		return v.Title
	}
	if v.table != nil {
		return schema.TableTitle(v.table.Name)
	}
	return ""
}

// Visible implements View.
func (v *ModelView) Visible() bool { return !v.Hidden }

func (v *ModelView) slug() string { return v.table.Name }

// Table returns the reflected model metadata. Nil until the view is added.
func (v *ModelView) Table() *schema.Table { return v.table }

func (v *ModelView) perms() Permissions {
	if v.Permissions == nil {
		return *AllPermissions()
	}
	return *v.Permissions
}

func (v *ModelView) pageSize() int {
	if v.PageSize <= 0 {
		return DefaultPageSize
	}
	return v.PageSize
}

// prepare reflects the model and derives the list and form schemas.
func (v *ModelView) prepare() error {
	t, err := schema.Inspect(v.Model)
	if err != nil {
		return fmt.Errorf("model view: %w", err)
	}
	v.table = t

	cols := v.columns()
	v.listCols = cols
	v.listSchema = schema.Derive(t, schema.DeriveOptions{Include: cols})
	v.formSchema = schema.Derive(t, schema.DeriveOptions{Include: cols, ForForm: true})
	return nil
}

// columns resolves ColumnList and ColumnExcludeList against the model.
func (v *ModelView) columns() []string {
	all := v.table.ColumnNames()
	var out []string
	if len(v.ColumnList) > 0 {
		for _, c := range v.ColumnList {
			if slices.Contains(all, c) {
				out = append(out, c)
			}
		}
		return out
	}
	for _, c := range all {
		if !slices.Contains(v.ColumnExcludeList, c) {
			out = append(out, c)
		}
	}
	return out
}

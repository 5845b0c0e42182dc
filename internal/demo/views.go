package demo

import (
	"fmt"
	"net/http"

	"github.com/leapstack-labs/leapadmin/internal/cli/config"
	"github.com/leapstack-labs/leapadmin/pkg/admin"
	"github.com/leapstack-labs/leapadmin/pkg/component"
	"github.com/leapstack-labs/leapadmin/pkg/schema"
)

// Models lists every demo model in registration order.
func Models() []any {
	return []any{User{}, Post{}, Todo{}, AuditLog{}, Product{}}
}

// Views returns the demo model views. Overrides are keyed by table name.
func Views(overrides map[string]config.ViewConfig) []*admin.ModelView {
	noDelete := admin.AllPermissions()
	noDelete.Delete = false

	views := []*admin.ModelView{
		{Model: User{}, ColumnList: []string{"id", "username", "email", "is_active", "created_at"}},
		{Model: Post{}, ColumnList: []string{"id", "title", "published", "author_id", "created_at"}},
		{Model: Todo{}, Title: "Todos"},
		{Model: AuditLog{}, Title: "Audit Logs", Permissions: admin.ReadOnly()},
		{Model: Product{}, Permissions: noDelete},
	}
	for _, v := range views {
		t := schema.MustInspect(v.Model)
		if o, ok := overrides[t.Name]; ok {
			o.Apply(v)
		}
	}
	return views
}

// Register adds the demo views and a row count overview to a.
func Register(a *admin.Admin, st admin.Store, overrides map[string]config.ViewConfig) error {
	views := Views(overrides)
	for _, v := range views {
		if err := a.AddView(v); err != nil {
			return fmt.Errorf("failed to add %T view: %w", v.Model, err)
		}
	}
	return a.AddView(&admin.BaseView{
		Title: "Overview",
		Icon:  "chart",
		Content: func(r *http.Request) ([]component.Component, error) {
			return overview(r, st, views)
		},
	})
}

func overview(r *http.Request, st admin.Store, views []*admin.ModelView) ([]component.Component, error) {
	rows := make([]map[string]any, 0, len(views))
	for _, v := range views {
		n, err := st.Count(r.Context(), v.Table())
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", v.Table().Name, err)
		}
		rows = append(rows, map[string]any{"model": v.Name(), "table": v.Table().Name, "rows": n})
	}
	return []component.Component{
		component.Heading{Text: "Overview", Level: 2},
		component.Table{
			Data: rows,
			Columns: []component.DisplayLookup{
				{Field: "model", Title: "Model"},
				{Field: "table", Title: "Table"},
				{Field: "rows", Title: "Rows"},
			},
		},
	}, nil
}

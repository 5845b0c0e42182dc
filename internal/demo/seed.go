package demo

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/leapadmin/pkg/admin"
	"github.com/leapstack-labs/leapadmin/pkg/schema"
)

// Seed inserts sample rows into empty demo tables. It reports whether
// anything was written; seeding twice is a no-op.
func Seed(ctx context.Context, st admin.Store) (bool, error) {
	users := schema.MustInspect(User{})
	n, err := st.Count(ctx, users)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	var ids []int64
	for _, u := range []User{
		{Username: "alice", Email: "alice@example.com", IsActive: true},
		{Username: "bob", Email: "bob@example.com", IsActive: true},
		{Username: "charlie", Email: "charlie@example.com", IsActive: false},
	} {
		id, err := insert(ctx, st, u)
		if err != nil {
			return false, err
		}
		ids = append(ids, id)
	}

	rows := []any{
		Post{Title: "Hello World", Content: "My first post!", Published: true, AuthorID: ids[0]},
		Post{Title: "Learning LeapAdmin", Content: "Admin screens straight from Go structs.", Published: true, AuthorID: ids[0]},
		Post{Title: "Draft Post", Content: "This is a draft that hasn't been published yet.", AuthorID: ids[1]},
		Todo{Title: "Write the docs", Status: "doing"},
		Todo{Title: "Ship v1", Status: "pending"},
		AuditLog{Action: "login", User: "alice", Detail: "Logged in from 192.168.1.1"},
		AuditLog{Action: "create", User: "alice", Detail: "Created product SKU-001"},
		AuditLog{Action: "login", User: "bob", Detail: "Logged in from 10.0.0.5"},
		Product{Name: "Widget", Price: 9.99, SKU: "SKU-001"},
		Product{Name: "Gadget", Price: 24.99, SKU: "SKU-002"},
		Product{Name: "Doohickey", Price: 4.50, SKU: "SKU-003"},
	}
	for _, m := range rows {
		if _, err := insert(ctx, st, m); err != nil {
			return false, err
		}
	}
	return true, nil
}

// insert writes one model, letting the database assign the primary key.
func insert(ctx context.Context, st admin.Store, model any) (int64, error) {
	t, err := schema.Inspect(model)
	if err != nil {
		return 0, err
	}
	rec, err := t.Record(model)
	if err != nil {
		return 0, err
	}
	delete(rec, t.PrimaryKey())

	id, err := st.Insert(ctx, t, rec)
	if err != nil {
		return 0, fmt.Errorf("seed %s: %w", t.Name, err)
	}
	return id, nil
}

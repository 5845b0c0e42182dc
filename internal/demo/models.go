// Package demo holds the example models served by the leapadmin command:
// a small blog (users and posts), a todo list, a read-only audit log and a
// product catalogue whose rows cannot be deleted.
package demo

import (
	"time"

	"github.com/leapstack-labs/leapadmin/pkg/store"
)

// User is a blog author.
type User struct {
	ID        int64      `db:"id,pk"`
	Username  string     `db:"username,size=50,unique" validate:"min=3,max=50"`
	Email     string     `db:"email,size=100" validate:"email"`
	IsActive  bool       `db:"is_active" default:"true"`
	CreatedAt *time.Time `db:"created_at,autonow"`
}

// TableName implements schema.Tabler.
func (User) TableName() string { return "users" }

// Post is a blog post written by a User.
type Post struct {
	ID        int64      `db:"id,pk"`
	Title     string     `db:"title,size=200" validate:"max=200"`
	Content   string     `db:"content,type=text"`
	Published bool       `db:"published" default:"false"`
	AuthorID  int64      `db:"author_id" validate:"gt=0"`
	CreatedAt *time.Time `db:"created_at,autonow"`
}

// TableName implements schema.Tabler.
func (Post) TableName() string { return "posts" }

// Todo is the smallest possible model.
type Todo struct {
	ID     int64  `db:"id,pk"`
	Title  string `db:"title,size=200"`
	Status string `db:"status,size=20" default:"pending" validate:"oneof=pending doing done"`
}

// TableName implements schema.Tabler.
func (Todo) TableName() string { return "todos" }

// AuditLog records who did what. It is never written through the admin.
type AuditLog struct {
	ID        int64      `db:"id,pk"`
	Action    string     `db:"action,size=50"`
	User      string     `db:"user,size=100"`
	Detail    string     `db:"detail,size=500"`
	Timestamp *time.Time `db:"timestamp,autonow"`
}

// TableName implements schema.Tabler.
func (AuditLog) TableName() string { return "audit_logs" }

// Product can be viewed, created and edited but not deleted.
type Product struct {
	ID    int64   `db:"id,pk"`
	Name  string  `db:"name,size=200"`
	Price float64 `db:"price" validate:"gte=0"`
	SKU   string  `db:"sku,size=50,unique"`
}

// TableName implements schema.Tabler.
func (Product) TableName() string { return "products" }

// Migrations creates the demo tables.
func Migrations() []store.Migration {
	return []store.Migration{
		store.CreateTables(1, User{}, Post{}),
		store.CreateTables(2, Todo{}),
		store.CreateTables(3, AuditLog{}, Product{}),
	}
}

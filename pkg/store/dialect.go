package store

import (
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"

	"github.com/leapstack-labs/leapadmin/pkg/schema"
)

// PlaceholderStyle defines how query parameters are formatted.
type PlaceholderStyle int

const (
	// PlaceholderQuestion uses ? for all parameters (SQLite, MySQL).
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar uses $1, $2, etc. for parameters (PostgreSQL).
	PlaceholderDollar
)

// Dialect holds the SQL differences between supported databases.
type Dialect struct {
	Name        string
	Placeholder PlaceholderStyle
	Goose       goose.Dialect

	// Types maps column types to DDL types. Strings with a size use VARCHAR(n).
	Types map[schema.ColumnType]string
	// SerialKey is the DDL for integer primary keys, keyed by column type.
	SerialKey map[schema.ColumnType]string
}

// FormatPlaceholder returns a placeholder for the given parameter index (1-based).
func (d *Dialect) FormatPlaceholder(index int) string {
	switch d.Placeholder {
	case PlaceholderDollar:
		return fmt.Sprintf("$%d", index)
	default:
		return "?"
	}
}

// Quote quotes an identifier.
func (d *Dialect) Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// ColumnDDL returns the column definition used by CREATE TABLE.
func (d *Dialect) ColumnDDL(c schema.Column) string {
	if c.PrimaryKey {
		if serial, ok := d.SerialKey[c.Type]; ok {
			return d.Quote(c.Name) + " " + serial
		}
		return d.Quote(c.Name) + " " + d.SerialKey[schema.TypeInteger]
	}

	typ, ok := d.Types[c.Type]
	if !ok {
		typ = d.Types[schema.TypeUnknown]
	}
	if c.Type == schema.TypeString && c.Size > 0 {
		typ = fmt.Sprintf("VARCHAR(%d)", c.Size)
	}

	var b strings.Builder
	b.WriteString(d.Quote(c.Name))
	b.WriteByte(' ')
	b.WriteString(typ)
	if !c.Nullable {
		b.WriteString(" NOT NULL")
	}
	if c.Unique {
		b.WriteString(" UNIQUE")
	}
	return b.String()
}

// SQLiteDialect is the dialect of the sqlite adapter.
var SQLiteDialect = &Dialect{
	Name:        "sqlite",
	Placeholder: PlaceholderQuestion,
	Goose:       goose.DialectSQLite3,
	Types: map[schema.ColumnType]string{
		schema.TypeUnknown:      "TEXT",
		schema.TypeInteger:      "INTEGER",
		schema.TypeBigInteger:   "INTEGER",
		schema.TypeSmallInteger: "INTEGER",
		schema.TypeFloat:        "REAL",
		schema.TypeNumeric:      "NUMERIC",
		schema.TypeString:       "TEXT",
		schema.TypeText:         "TEXT",
		schema.TypeBoolean:      "BOOLEAN",
		schema.TypeDateTime:     "DATETIME",
		schema.TypeDate:         "DATE",
		schema.TypeTime:         "TIME",
	},
	SerialKey: map[schema.ColumnType]string{
		schema.TypeInteger: "INTEGER PRIMARY KEY AUTOINCREMENT",
	},
}

// PostgresDialect is the dialect of the postgres adapter.
var PostgresDialect = &Dialect{
	Name:        "postgres",
	Placeholder: PlaceholderDollar,
	Goose:       goose.DialectPostgres,
	Types: map[schema.ColumnType]string{
		schema.TypeUnknown:      "TEXT",
		schema.TypeInteger:      "INTEGER",
		schema.TypeBigInteger:   "BIGINT",
		schema.TypeSmallInteger: "SMALLINT",
		schema.TypeFloat:        "DOUBLE PRECISION",
		schema.TypeNumeric:      "NUMERIC",
		schema.TypeString:       "TEXT",
		schema.TypeText:         "TEXT",
		schema.TypeBoolean:      "BOOLEAN",
		schema.TypeDateTime:     "TIMESTAMPTZ",
		schema.TypeDate:         "DATE",
		schema.TypeTime:         "TIME",
	},
	SerialKey: map[schema.ColumnType]string{
		schema.TypeInteger:      "SERIAL PRIMARY KEY",
		schema.TypeSmallInteger: "SMALLSERIAL PRIMARY KEY",
		schema.TypeBigInteger:   "BIGSERIAL PRIMARY KEY",
	},
}

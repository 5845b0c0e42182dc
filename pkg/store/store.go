// Package store persists model records in a SQL database. Tables are
// described by pkg/schema metadata; SQL differences between databases live in
// a Dialect supplied by a registered adapter.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/leapadmin/pkg/schema"
)

// ErrNotFound is returned when no row has the requested primary key.
var ErrNotFound = errors.New("record not found")

// Config selects the adapter and connection string.
type Config struct {
	Driver string `koanf:"driver" json:"driver" yaml:"driver"`
	DSN    string `koanf:"dsn" json:"dsn" yaml:"dsn"`
}

// DB runs record operations against one database.
type DB struct {
	db      *sql.DB
	dialect *Dialect
	logger  *slog.Logger
}

// Open connects through the adapter registered for cfg.Driver.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	a, err := NewAdapter(cfg.Driver, logger)
	if err != nil {
		return nil, err
	}
	conn, err := a.Connect(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	return New(conn, a.Dialect(), logger), nil
}

// New wraps an open connection. If logger is nil, a discard logger is used.
func New(conn *sql.DB, d *Dialect, logger *slog.Logger) *DB {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DB{db: conn, dialect: d, logger: logger}
}

// SQL returns the underlying connection pool.
func (s *DB) SQL() *sql.DB { return s.db }

// Dialect returns the dialect used to build statements.
func (s *DB) Dialect() *Dialect { return s.dialect }

// Close closes the database connection.
func (s *DB) Close() error {
	if s.db == nil {
		return nil
	}
	s.logger.Debug("closing database connection")
	return s.db.Close()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CreateTable creates the table for t if it does not exist.
func (s *DB) CreateTable(ctx context.Context, t *schema.Table) error {
	return createTable(ctx, s.db, s.dialect, t)
}

func createTable(ctx context.Context, ex execer, d *Dialect, t *schema.Table) error {
	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		defs[i] = d.ColumnDDL(c)
	}
	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", d.Quote(t.Name), strings.Join(defs, ",\n\t"))
	if _, err := ex.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create table %s: %w", t.Name, err)
	}
	return nil
}

func dropTable(ctx context.Context, ex execer, d *Dialect, t *schema.Table) error {
	if _, err := ex.ExecContext(ctx, "DROP TABLE IF EXISTS "+d.Quote(t.Name)); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", t.Name, err)
	}
	return nil
}

func (s *DB) columnList(t *schema.Table) string {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = s.dialect.Quote(c.Name)
	}
	return strings.Join(cols, ", ")
}

// Count returns the number of rows in t.
func (s *DB) Count(ctx context.Context, t *schema.Table) (int64, error) {
	var n int64
	query := "SELECT COUNT(*) FROM " + s.dialect.Quote(t.Name)
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", t.Name, err)
	}
	return n, nil
}

// List returns up to limit rows of t starting at offset, ordered by primary key.
func (s *DB) List(ctx context.Context, t *schema.Table, offset, limit int) ([]schema.Record, error) {
	//nolint:gosec // identifiers come from model metadata and are quoted
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s LIMIT %s OFFSET %s",
		s.columnList(t), s.dialect.Quote(t.Name), s.dialect.Quote(t.PrimaryKey()),
		s.dialect.FormatPlaceholder(1), s.dialect.FormatPlaceholder(2))

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", t.Name, err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.Record
	for rows.Next() {
		rec, err := scanRecord(rows, t)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", t.Name, err)
	}
	return out, nil
}

// Get returns the row of t with primary key pk, or ErrNotFound.
func (s *DB) Get(ctx context.Context, t *schema.Table, pk int64) (schema.Record, error) {
	//nolint:gosec // identifiers come from model metadata and are quoted
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		s.columnList(t), s.dialect.Quote(t.Name), s.dialect.Quote(t.PrimaryKey()), s.dialect.FormatPlaceholder(1))

	rows, err := s.db.QueryContext(ctx, query, pk)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s #%d: %w", t.Name, pk, err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to get %s #%d: %w", t.Name, pk, err)
		}
		return nil, ErrNotFound
	}
	return scanRecord(rows, t)
}

func scanRecord(rows *sql.Rows, t *schema.Table) (schema.Record, error) {
	values := make([]any, len(t.Columns))
	dest := make([]any, len(t.Columns))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("failed to scan %s row: %w", t.Name, err)
	}

	rec := make(schema.Record, len(t.Columns))
	for i, c := range t.Columns {
		v, err := schema.Coerce(c.FieldType(), values[i])
		if err != nil {
			return nil, fmt.Errorf("column %s.%s: %w", t.Name, c.Name, err)
		}
		rec[c.Name] = v
	}
	return rec, nil
}

// Insert adds rec to t and returns the new primary key. Missing columns get
// their scalar default, and autonow columns the current UTC time.
func (s *DB) Insert(ctx context.Context, t *schema.Table, rec schema.Record) (int64, error) {
	pkName := t.PrimaryKey()
	var cols, marks []string
	var args []any

	now := time.Now().UTC()
	for _, c := range t.Columns {
		v, ok := rec[c.Name]
		if c.Name == pkName && (!ok || v == nil) {
			continue
		}
		if !ok || v == nil {
			switch {
			case c.AutoNow:
				v, ok = now, true
			case c.Default != nil:
				v, ok = c.Default, true
			}
		}
		if !ok {
			continue
		}
		cols = append(cols, s.dialect.Quote(c.Name))
		marks = append(marks, s.dialect.FormatPlaceholder(len(cols)))
		args = append(args, v)
	}

	var query string
	if len(cols) == 0 {
		query = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING %s", s.dialect.Quote(t.Name), s.dialect.Quote(pkName))
	} else {
		//nolint:gosec // identifiers come from model metadata and are quoted
		query = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
			s.dialect.Quote(t.Name), strings.Join(cols, ", "), strings.Join(marks, ", "), s.dialect.Quote(pkName))
	}

	var raw any
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, query, args...).Scan(&raw)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert into %s: %w", t.Name, err)
	}

	pk, err := schema.Coerce(schema.FieldInt, raw)
	if err != nil {
		return 0, fmt.Errorf("unexpected primary key %v: %w", raw, err)
	}
	s.logger.Debug("inserted record", slog.String("table", t.Name), slog.Int64("pk", pk.(int64)))
	return pk.(int64), nil
}

// Update writes the columns present in rec to the row with primary key pk.
func (s *DB) Update(ctx context.Context, t *schema.Table, pk int64, rec schema.Record) error {
	pkName := t.PrimaryKey()
	var sets []string
	var args []any
	for _, c := range t.Columns {
		v, ok := rec[c.Name]
		if !ok || c.Name == pkName {
			continue
		}
		args = append(args, v)
		sets = append(sets, s.dialect.Quote(c.Name)+" = "+s.dialect.FormatPlaceholder(len(args)))
	}

	if len(sets) == 0 {
		_, err := s.Get(ctx, t, pk)
		return err
	}

	args = append(args, pk)
	//nolint:gosec // identifiers come from model metadata and are quoted
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		s.dialect.Quote(t.Name), strings.Join(sets, ", "), s.dialect.Quote(pkName), s.dialect.FormatPlaceholder(len(args)))

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		return requireRow(res)
	})
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update %s #%d: %w", t.Name, pk, err)
	}
	return nil
}

// Delete removes the row with primary key pk.
func (s *DB) Delete(ctx context.Context, t *schema.Table, pk int64) error {
	//nolint:gosec // identifiers come from model metadata and are quoted
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
		s.dialect.Quote(t.Name), s.dialect.Quote(t.PrimaryKey()), s.dialect.FormatPlaceholder(1))

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, pk)
		if err != nil {
			return err
		}
		return requireRow(res)
	})
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete %s #%d: %w", t.Name, pk, err)
	}
	return nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// withTx runs fn in a transaction, rolling back if fn or the commit fails.
func (s *DB) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("rollback failed", slog.Any("error", rbErr))
		}
		return err
	}
	return tx.Commit()
}

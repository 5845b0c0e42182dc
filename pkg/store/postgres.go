package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
)

func init() {
	Register("postgres", func(logger *slog.Logger) Adapter { return NewPostgres(logger) })
}

// Postgres is the adapter for PostgreSQL through pgx.
type Postgres struct {
	logger *slog.Logger
}

// NewPostgres creates a PostgreSQL adapter. If logger is nil, a discard logger is used.
func NewPostgres(logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Postgres{logger: logger}
}

// Name implements Adapter.
func (a *Postgres) Name() string { return "postgres" }

// Dialect implements Adapter.
func (a *Postgres) Dialect() *Dialect { return PostgresDialect }

// Connect opens a connection pool. dsn is a URL or key=value connection string.
func (a *Postgres) Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	a.logger.Debug("connecting to postgres")

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return db, nil
}

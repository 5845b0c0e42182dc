package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"slices"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/leapstack-labs/leapadmin/pkg/schema"
)

// Migrations are Go migrations only; the provider still needs a filesystem.
var noMigrationFiles embed.FS

// Migration is one versioned schema change. Up and Down run inside a
// transaction and receive the dialect of the target database.
type Migration struct {
	Version int64
	Up      func(ctx context.Context, tx *sql.Tx, d *Dialect) error
	Down    func(ctx context.Context, tx *sql.Tx, d *Dialect) error
}

// CreateTables returns a migration that creates the tables of models on the
// way up and drops them, in reverse order, on the way down.
func CreateTables(version int64, models ...any) Migration {
	return Migration{
		Version: version,
		Up: func(ctx context.Context, tx *sql.Tx, d *Dialect) error {
			for _, m := range models {
				t, err := schema.Inspect(m)
				if err != nil {
					return err
				}
				if err := createTable(ctx, tx, d, t); err != nil {
					return err
				}
			}
			return nil
		},
		Down: func(ctx context.Context, tx *sql.Tx, d *Dialect) error {
			for _, m := range slices.Backward(models) {
				t, err := schema.Inspect(m)
				if err != nil {
					return err
				}
				if err := dropTable(ctx, tx, d, t); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// MigrationStatus reports whether one migration has been applied.
type MigrationStatus struct {
	Version   int64     `json:"version" yaml:"version"`
	Applied   bool      `json:"applied" yaml:"applied"`
	AppliedAt time.Time `json:"applied_at,omitzero" yaml:"applied_at,omitempty"`
}

func (s *DB) provider(migrations []Migration) (*goose.Provider, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	gm := make([]*goose.Migration, len(migrations))
	for i, m := range migrations {
		gm[i] = goose.NewGoMigration(m.Version, s.goFunc(m.Up), s.goFunc(m.Down))
	}

	p, err := goose.NewProvider(s.dialect.Goose, s.db, noMigrationFiles,
		goose.WithGoMigrations(gm...),
		goose.WithDisableGlobalRegistry(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	return p, nil
}

func (s *DB) goFunc(fn func(context.Context, *sql.Tx, *Dialect) error) *goose.GoFunc {
	if fn == nil {
		return nil
	}
	return &goose.GoFunc{
		RunTx: func(ctx context.Context, tx *sql.Tx) error {
			return fn(ctx, tx, s.dialect)
		},
	}
}

// Migrate runs all pending migrations and returns the versions it applied.
func (s *DB) Migrate(ctx context.Context, migrations []Migration) ([]int64, error) {
	p, err := s.provider(migrations)
	if err != nil {
		return nil, err
	}

	results, err := p.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	applied := make([]int64, 0, len(results))
	for _, r := range results {
		applied = append(applied, r.Source.Version)
		s.logger.Info("applied migration", "version", r.Source.Version, "duration", r.Duration)
	}
	return applied, nil
}

// MigrationStatus reports the state of every known migration.
func (s *DB) MigrationStatus(ctx context.Context, migrations []Migration) ([]MigrationStatus, error) {
	p, err := s.provider(migrations)
	if err != nil {
		return nil, err
	}

	statuses, err := p.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration status: %w", err)
	}

	out := make([]MigrationStatus, len(statuses))
	for i, st := range statuses {
		out[i] = MigrationStatus{
			Version:   st.Source.Version,
			Applied:   st.State == goose.StateApplied,
			AppliedAt: st.AppliedAt,
		}
	}
	return out, nil
}

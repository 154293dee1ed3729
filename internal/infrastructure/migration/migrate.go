// Package migration applies the postgres schema with golang-migrate and
// scaffolds new sequentially numbered migration files.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// DefaultMigrationsTable keeps finance schema versions apart from other
// tools sharing the database.
const DefaultMigrationsTable = "finance_schema_migrations"

// Migrator runs migrations from an fs.FS against a postgres database
type Migrator struct {
	migrate *migrate.Migrate
	source  fs.FS
	logger  *zap.Logger
}

// Option configures a Migrator
type Option func(*options)

type options struct {
	table string
}

// WithMigrationsTable overrides DefaultMigrationsTable
func WithMigrationsTable(table string) Option {
	return func(o *options) {
		if table != "" {
			o.table = table
		}
	}
}

// New creates a Migrator reading NNNNNN_name.{up,down}.sql files from the
// root of source.
func New(db *sql.DB, source fs.FS, logger *zap.Logger, opts ...Option) (*Migrator, error) {
	o := options{table: DefaultMigrationsTable}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	src, err := iofs.New(source, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to open migration source: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: o.table})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return &Migrator{migrate: m, source: source, logger: logger}, nil
}

// Up applies every pending migration
func (m *Migrator) Up() error {
	return m.apply("up", m.migrate.Up)
}

// Down rolls back every applied migration
func (m *Migrator) Down() error {
	return m.apply("down", m.migrate.Down)
}

// Steps applies n migrations; negative n rolls back
func (m *Migrator) Steps(n int) error {
	if n == 0 {
		return nil
	}
	return m.apply(fmt.Sprintf("steps %+d", n), func() error { return m.migrate.Steps(n) })
}

// GoTo migrates up or down to version
func (m *Migrator) GoTo(version uint) error {
	return m.apply(fmt.Sprintf("goto %d", version), func() error { return m.migrate.Migrate(version) })
}

// apply runs op and treats ErrNoChange as success
func (m *Migrator) apply(name string, op func() error) error {
	m.logger.Info("Running migration", zap.String("operation", name))
	if err := op(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.Info("Schema already up to date", zap.String("operation", name))
			return nil
		}
		return fmt.Errorf("migration %s failed: %w", name, err)
	}
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	m.logger.Info("Migration completed",
		zap.String("operation", name),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}

// Version returns the applied version; zero when nothing is applied
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read migration version: %w", err)
	}
	return version, dirty, nil
}

// Status pairs every migration in the source with whether it is applied
type Status struct {
	Version    uint
	Dirty      bool
	Migrations []Entry
}

// Entry is one migration of a Status
type Entry struct {
	Migration
	Applied bool
}

// Pending returns the migrations not yet applied
func (s *Status) Pending() []Migration {
	var out []Migration
	for _, e := range s.Migrations {
		if !e.Applied {
			out = append(out, e.Migration)
		}
	}
	return out
}

// Status reports the applied version against the available migrations
func (m *Migrator) Status() (*Status, error) {
	version, dirty, err := m.Version()
	if err != nil {
		return nil, err
	}
	available, err := ListMigrations(m.source)
	if err != nil {
		return nil, err
	}
	return statusOf(version, dirty, available), nil
}

func statusOf(version uint, dirty bool, available []Migration) *Status {
	st := &Status{Version: version, Dirty: dirty, Migrations: make([]Entry, len(available))}
	for i, mig := range available {
		st.Migrations[i] = Entry{Migration: mig, Applied: mig.Version <= version}
	}
	return st
}

// Force records version as applied without running anything.
// It only exists to recover from a dirty state after a failed migration.
func (m *Migrator) Force(version int) error {
	m.logger.Warn("Forcing migration version", zap.Int("version", version))
	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	return nil
}

// Drop removes every object in the database, data included
func (m *Migrator) Drop() error {
	m.logger.Warn("Dropping every database object")
	if err := m.migrate.Drop(); err != nil {
		return fmt.Errorf("failed to drop database: %w", err)
	}
	return nil
}

// Close releases the source and the database driver
func (m *Migrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()
	return errors.Join(sourceErr, dbErr)
}

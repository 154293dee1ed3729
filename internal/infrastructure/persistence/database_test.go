package persistence

import (
	"testing"

	"github.com/erp/backoffice/internal/infrastructure/config"
	"github.com/erp/backoffice/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func sqliteConfig() *config.DatabaseConfig {
	return &config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: ":memory:",
		LogLevel:   "warn",
	}
}

func TestNewDatabase_SQLite(t *testing.T) {
	core, _ := observer.New(zap.DebugLevel)
	db, err := NewDatabase(sqliteConfig(),
		WithDatabaseLogger(zap.New(core)),
		WithDBTracing(telemetry.NewDBTracingPlugin(telemetry.DefaultDBTracingConfig(), zap.NewNop())),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.Equal(t, config.DriverSQLite, db.Driver())
	require.NoError(t, db.Ping())
	require.NoError(t, db.AutoMigrate())
	assert.True(t, db.DB.Migrator().HasTable("monetary_documents"))
	assert.True(t, db.DB.Migrator().HasIndex("monetary_documents", "idx_monetary_document_installment"))

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MaxOpenConnections)
	assert.Equal(t, stats.OpenConnections, stats.InUse+stats.Idle)
}

func TestNewDatabase_UnsupportedDriver(t *testing.T) {
	_, err := NewDatabase(&config.DatabaseConfig{Driver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported database driver "mysql"`)
}

func TestDialectorFor(t *testing.T) {
	d, err := dialectorFor(&config.DatabaseConfig{Driver: config.DriverPostgres, Host: "localhost", Port: 5432})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	d, err = dialectorFor(sqliteConfig())
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "finance-engine", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "finance", cfg.Database.DBName)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, "UTC", cfg.Sweeper.Timezone)
	assert.Equal(t, 0, cfg.Sweeper.RunHour)
	assert.Equal(t, 5*time.Minute, cfg.Sweeper.Timeout)
	assert.Equal(t, 10*time.Minute, cfg.Cache.DisplayNameTTL)
	assert.Equal(t, "finance-engine", cfg.Telemetry.ServiceName)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FIN_APP_PORT", "9000")
	t.Setenv("FIN_DATABASE_DRIVER", "sqlite")
	t.Setenv("FIN_DATABASE_SQLITE_PATH", ":memory:")
	t.Setenv("FIN_SWEEPER_ENABLED", "true")
	t.Setenv("FIN_SWEEPER_RUN_HOUR", "3")
	t.Setenv("FIN_SWEEPER_TIMEZONE", "America/Sao_Paulo")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.App.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, ":memory:", cfg.Database.DSN())
	assert.True(t, cfg.Sweeper.Enabled)
	assert.Equal(t, 3, cfg.Sweeper.RunHour)
	assert.Equal(t, "America/Sao_Paulo", cfg.Sweeper.Location().String())
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("FIN_APP_NAME=from-dotenv\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("FIN_APP_NAME") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.App.Name)
}

func TestLoadFile(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Run("reads toml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "finance.toml")
		content := `
[app]
port = "7070"

[sweeper]
run_hour = 6
timeout = "30s"

[cache]
display_name_ttl = "1m"
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "7070", cfg.App.Port)
		assert.Equal(t, 6, cfg.Sweeper.RunHour)
		assert.Equal(t, 30*time.Second, cfg.Sweeper.Timeout)
		assert.Equal(t, time.Minute, cfg.Cache.DisplayNameTTL)
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := decode(newViper())
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.App.Port = "http" }, "app.port"},
		{"port out of range", func(c *Config) { c.App.Port = "70000" }, "app.port"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "database.driver"},
		{"idle exceeds open", func(c *Config) { c.Database.MaxIdleConns = 100 }, "max_idle_conns"},
		{"run hour too large", func(c *Config) { c.Sweeper.RunHour = 24 }, "run_hour"},
		{"bad timezone", func(c *Config) { c.Sweeper.Timezone = "Mars/Olympus" }, "timezone"},
		{"lock without redis", func(c *Config) { c.Sweeper.UseLock = true }, "redis.enabled"},
		{"sampling ratio", func(c *Config) { c.Telemetry.SamplingRatio = 1.5 }, "sampling_ratio"},
		{"production needs password", func(c *Config) { c.App.Env = "production" }, "database.password"},
		{"swagger in production", func(c *Config) {
			c.App.Env = "production"
			c.Database.Driver = DriverSQLite
			c.Docs.Enabled = true
		}, "docs.enabled"},
		{"production sqlite ok", func(c *Config) {
			c.App.Env = "production"
			c.Database.Driver = DriverSQLite
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg, err := decode(newViper())
	require.NoError(t, err)
	cfg.App.Port = "0"
	cfg.Sweeper.RunHour = -1

	err = cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "app.port")
	assert.Contains(t, err.Error(), "run_hour")
}

func TestValidate_ObservabilityDependencies(t *testing.T) {
	cfg, err := decode(newViper())
	require.NoError(t, err)
	cfg.Telemetry.LogsEnabled = true
	cfg.Profiling.Enabled = true

	err = cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telemetry.logs_enabled requires telemetry.enabled")
	assert.Contains(t, err.Error(), "profiling.server_address")

	cfg.Telemetry.Enabled = true
	cfg.Profiling.ServerAddress = "http://pyroscope:4040"
	assert.NoError(t, cfg.validate())
}

func TestLoad_DurationsFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FIN_DATABASE_CONN_MAX_LIFETIME", "15m")
	t.Setenv("FIN_HTTP_CORS_ALLOW_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.CORSAllowOrigins)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Driver:   DriverPostgres,
		Host:     "db",
		Port:     5432,
		User:     "fin",
		Password: "p@ss word",
		DBName:   "finance",
		SSLMode:  "require",
	}
	assert.Equal(t, "postgres://fin:p%40ss%20word@db:5432/finance?sslmode=require", d.DSN())
}

func TestSweeperConfig_Location(t *testing.T) {
	assert.Equal(t, time.UTC, SweeperConfig{}.Location())
	assert.Equal(t, time.UTC, SweeperConfig{Timezone: "Nowhere/Bogus"}.Location())
}

// Package config loads the finance engine settings from config.toml, a
// .env file and FIN_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "FIN"

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Sweeper   SweeperConfig   `mapstructure:"sweeper"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Profiling ProfilingConfig `mapstructure:"profiling"`
	Docs      DocsConfig      `mapstructure:"docs"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Port string `mapstructure:"port"`
}

func (a AppConfig) IsProduction() bool { return a.Env == "production" }

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	// SQLitePath is a file path or ":memory:"
	SQLitePath      string        `mapstructure:"sqlite_path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	LogLevel        string        `mapstructure:"log_level"`
}

// DSN is the sqlite path, or a postgres URL with user info escaped.
func (d *DatabaseConfig) DSN() string {
	if d.Driver == DriverSQLite {
		return d.SQLitePath
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r RedisConfig) Addr() string { return fmt.Sprintf("%s:%d", r.Host, r.Port) }

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
	Output string `mapstructure:"output"` // stdout, stderr or a file path
	// Sampling thins repeated json entries under load.
	Sampling bool `mapstructure:"sampling"`
}

type HTTPConfig struct {
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	IdleTimeout      time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes   int           `mapstructure:"max_header_bytes"`
	MaxBodySize      int64         `mapstructure:"max_body_size"`
	CORSAllowOrigins []string      `mapstructure:"cors_allow_origins"`
	CORSAllowMethods []string      `mapstructure:"cors_allow_methods"`
	CORSAllowHeaders []string      `mapstructure:"cors_allow_headers"`
}

// SweeperConfig schedules the overdue sweep. Timezone defines which
// calendar day is "today".
type SweeperConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	RunHour  int           `mapstructure:"run_hour"`
	Timezone string        `mapstructure:"timezone"`
	Timeout  time.Duration `mapstructure:"timeout"`
	// UseLock makes replicas compete for a redis lock so one sweeps per day.
	UseLock bool          `mapstructure:"use_lock"`
	LockTTL time.Duration `mapstructure:"lock_ttl"`
}

// Location resolves Timezone. Empty or unknown names resolve to UTC.
func (s SweeperConfig) Location() *time.Location {
	if loc, err := time.LoadLocation(s.Timezone); err == nil {
		return loc
	}
	return time.UTC
}

type CacheConfig struct {
	DisplayNameTTL time.Duration `mapstructure:"display_name_ttl"`
}

type TelemetryConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	CollectorEndpoint string        `mapstructure:"collector_endpoint"`
	SamplingRatio     float64       `mapstructure:"sampling_ratio"`
	ServiceName       string        `mapstructure:"service_name"`
	Insecure          bool          `mapstructure:"insecure"`
	ExportInterval    time.Duration `mapstructure:"export_interval"`
	DBTraceEnabled    bool          `mapstructure:"db_trace_enabled"`
	DBLogFullSQL      bool          `mapstructure:"db_log_full_sql"`
	DBSlowQueryThresh time.Duration `mapstructure:"db_slow_query_threshold"`
	// LogsEnabled forwards zap entries at LogsLevel and above over OTLP
	LogsEnabled bool   `mapstructure:"logs_enabled"`
	LogsLevel   string `mapstructure:"logs_level"`
}

// ProfilingConfig points the process at a pyroscope server.
type ProfilingConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	ServerAddress string `mapstructure:"server_address"`
	BasicAuthUser string `mapstructure:"basic_auth_user"`
	BasicAuthPass string `mapstructure:"basic_auth_password"`
	Contention    bool   `mapstructure:"contention"`
}

// DocsConfig controls the swagger UI under /swagger.
type DocsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load searches config.toml in ., ./config and /etc/finengine. A missing
// file leaves the defaults in place.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile reads the given config file, which must exist. An empty path
// behaves like Load.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env: %w", err)
	}

	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		for _, dir := range []string{".", "./config", "/etc/finengine"} {
			v.AddConfigPath(dir)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newViper returns a viper carrying every default and reading FIN_*
// variables. Every key has a default so the environment can override it
// on Unmarshal.
func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	port, err := strconv.Atoi(c.App.Port)
	check(err == nil && port >= 1 && port <= 65535, "app.port must be a number between 1 and 65535, got %q", c.App.Port)

	db := c.Database
	check(db.Driver == DriverPostgres || db.Driver == DriverSQLite,
		"database.driver must be %q or %q, got %q", DriverPostgres, DriverSQLite, db.Driver)
	check(db.MaxOpenConns > 0, "database.max_open_conns must be positive")
	check(db.MaxIdleConns >= 0, "database.max_idle_conns cannot be negative")
	check(db.MaxIdleConns <= db.MaxOpenConns,
		"database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)", db.MaxIdleConns, db.MaxOpenConns)

	sw := c.Sweeper
	check(sw.RunHour >= 0 && sw.RunHour <= 23, "sweeper.run_hour must be between 0 and 23, got %d", sw.RunHour)
	if _, err := time.LoadLocation(sw.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("sweeper.timezone %q is invalid: %w", sw.Timezone, err))
	}
	check(sw.Timeout >= 0 && sw.LockTTL >= 0, "sweeper.timeout and sweeper.lock_ttl cannot be negative")
	check(!sw.UseLock || c.Redis.Enabled, "sweeper.use_lock requires redis.enabled")

	h := c.HTTP
	check(h.ReadTimeout >= 0 && h.WriteTimeout >= 0 && h.IdleTimeout >= 0, "http timeouts cannot be negative")

	check(!c.Telemetry.LogsEnabled || c.Telemetry.Enabled, "telemetry.logs_enabled requires telemetry.enabled")
	check(!c.Profiling.Enabled || c.Profiling.ServerAddress != "", "profiling.server_address is required when profiling is enabled")
	check(c.Telemetry.SamplingRatio >= 0 && c.Telemetry.SamplingRatio <= 1,
		"telemetry.sampling_ratio must be between 0.0 and 1.0, got %g", c.Telemetry.SamplingRatio)

	if c.App.IsProduction() {
		pg := db.Driver == DriverPostgres
		check(!pg || db.Password != "", "database.password is required in production")
		check(!pg || db.SSLMode != "disable", "database.sslmode cannot be 'disable' in production")
		for _, origin := range h.CORSAllowOrigins {
			check(origin != "*", "http.cors_allow_origins cannot be '*' in production")
		}
		check(!c.Telemetry.DBLogFullSQL, "telemetry.db_log_full_sql must be false in production")
		check(!c.Docs.Enabled, "docs.enabled must be false in production")
	}
	return errors.Join(errs...)
}

package config

import "time"

// defaults holds the value of every known key. sweeper.run_hour 0 means
// midnight; http.cors_allow_origins is empty so cross-origin requests stay
// disabled until configured.
var defaults = map[string]any{
	"app.name": "finance-engine",
	"app.env":  "development",
	"app.port": "8080",

	"database.driver":             DriverPostgres,
	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.password":           "",
	"database.dbname":             "finance",
	"database.sslmode":            "disable",
	"database.sqlite_path":        "finance.db",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  time.Hour,
	"database.conn_max_idle_time": 30 * time.Minute,
	"database.log_level":          "warn",

	"redis.enabled":  false,
	"redis.host":     "localhost",
	"redis.port":     6379,
	"redis.password": "",
	"redis.db":       0,

	"log.level":    "info",
	"log.format":   "console",
	"log.output":   "stdout",
	"log.sampling": false,

	"http.read_timeout":       15 * time.Second,
	"http.write_timeout":      15 * time.Second,
	"http.idle_timeout":       time.Minute,
	"http.max_header_bytes":   1 << 20,
	"http.max_body_size":      int64(1 << 20),
	"http.cors_allow_origins": []string{},
	"http.cors_allow_methods": []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	"http.cors_allow_headers": []string{"Content-Type", "Authorization", "X-Request-ID", "X-Tenant-ID", "X-Actor-ID"},

	"sweeper.enabled":  false,
	"sweeper.run_hour": 0,
	"sweeper.timezone": "UTC",
	"sweeper.timeout":  5 * time.Minute,
	"sweeper.use_lock": false,
	"sweeper.lock_ttl": 10 * time.Minute,

	"cache.display_name_ttl": 10 * time.Minute,

	"telemetry.enabled":                 false,
	"telemetry.collector_endpoint":      "localhost:4317",
	"telemetry.sampling_ratio":          1.0,
	"telemetry.service_name":            "",
	"telemetry.insecure":                false,
	"telemetry.export_interval":         time.Minute,
	"telemetry.db_trace_enabled":        false,
	"telemetry.db_log_full_sql":         false,
	"telemetry.db_slow_query_threshold": 200 * time.Millisecond,
	"telemetry.logs_enabled":            false,
	"telemetry.logs_level":              "info",

	"profiling.enabled":             false,
	"profiling.server_address":      "",
	"profiling.basic_auth_user":     "",
	"profiling.basic_auth_password": "",
	"profiling.contention":          false,

	"docs.enabled": false,
}

package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultSlowQuery = 200 * time.Millisecond

// DBTracingConfig configures statement spans.
type DBTracingConfig struct {
	Enabled bool
	// LogFullSQL puts bind variables on spans. Amounts and counterparty ids
	// end up in the collector, so keep it off outside development.
	LogFullSQL      bool
	SlowQueryThresh time.Duration
	DBSystem        string
}

// DefaultDBTracingConfig returns a disabled postgres configuration.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: defaultSlowQuery,
		DBSystem:        "postgresql",
	}
}

// DBTracingPlugin is a gorm.Plugin that installs otelgorm and adds the
// finance attributes to its spans: affected rows, table, whether the
// statement took row locks, and a slow-statement marker.
type DBTracingPlugin struct {
	cfg DBTracingConfig
	log *zap.Logger
}

var _ gorm.Plugin = (*DBTracingPlugin)(nil)

// NewDBTracingPlugin creates the plugin. Register it with db.Use.
func NewDBTracingPlugin(cfg DBTracingConfig, log *zap.Logger) *DBTracingPlugin {
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = defaultSlowQuery
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &DBTracingPlugin{cfg: cfg, log: log}
}

// Enabled reports whether Initialize installs anything.
func (p *DBTracingPlugin) Enabled() bool { return p.cfg.Enabled }

func (p *DBTracingPlugin) Name() string { return "finance:db_tracing" }

// Initialize implements gorm.Plugin.
func (p *DBTracingPlugin) Initialize(db *gorm.DB) error {
	if !p.cfg.Enabled {
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.cfg.DBSystem)}
	if !p.cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	// annotations run before otelgorm's after hooks end the span; its query
	// hooks are named "select"
	cb := db.Callback()
	errs := []error{
		cb.Create().Before("gorm:create").Register("finance_trace:start_create", startTimer),
		cb.Query().Before("gorm:query").Register("finance_trace:start_query", startTimer),
		cb.Update().Before("gorm:update").Register("finance_trace:start_update", startTimer),
		cb.Delete().Before("gorm:delete").Register("finance_trace:start_delete", startTimer),
		cb.Row().Before("gorm:row").Register("finance_trace:start_row", startTimer),
		cb.Raw().Before("gorm:raw").Register("finance_trace:start_raw", startTimer),
		cb.Create().After("gorm:create").Before("otel:after:create").Register("finance_trace:annotate_create", p.annotate),
		cb.Query().After("gorm:query").Before("otel:after:select").Register("finance_trace:annotate_query", p.annotate),
		cb.Update().After("gorm:update").Before("otel:after:update").Register("finance_trace:annotate_update", p.annotate),
		cb.Delete().After("gorm:delete").Before("otel:after:delete").Register("finance_trace:annotate_delete", p.annotate),
		cb.Row().After("gorm:row").Before("otel:after:row").Register("finance_trace:annotate_row", p.annotate),
		cb.Raw().After("gorm:raw").Before("otel:after:raw").Register("finance_trace:annotate_raw", p.annotate),
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	p.log.Info("Database tracing enabled",
		zap.String("db_system", p.cfg.DBSystem),
		zap.Bool("log_full_sql", p.cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", p.cfg.SlowQueryThresh),
	)
	return nil
}

type startedAtKey struct{}

func startTimer(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, startedAtKey{}, time.Now())
	}
}

func (p *DBTracingPlugin) annotate(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	attrs := []attribute.KeyValue{attribute.Int64("db.rows_affected", db.Statement.RowsAffected)}
	if db.Statement.Table != "" {
		attrs = append(attrs, attribute.String("db.sql.table", db.Statement.Table))
	}
	if _, locked := db.Statement.Clauses["FOR"]; locked {
		attrs = append(attrs, attribute.Bool("db.row_lock", true))
	}
	if start, ok := ctx.Value(startedAtKey{}).(time.Time); ok {
		if elapsed := time.Since(start); elapsed > p.cfg.SlowQueryThresh {
			attrs = append(attrs,
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
		}
	}
	span.SetAttributes(attrs...)

	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}
}

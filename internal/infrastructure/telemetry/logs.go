package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// WithLogExporter replaces the OTLP log exporter.
func WithLogExporter(exp sdklog.Exporter) Option {
	return func(s *setup) { s.logExporter = exp }
}

func newLoggerProvider(ctx context.Context, s Settings, res *resource.Resource, exp sdklog.Exporter) (*sdklog.LoggerProvider, error) {
	if exp == nil {
		opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(s.Endpoint)}
		if s.Insecure {
			opts = append(opts, otlploggrpc.WithInsecure())
		}
		var err error
		if exp, err = otlploggrpc.New(ctx, opts...); err != nil {
			return nil, fmt.Errorf("create otlp log exporter: %w", err)
		}
	}
	return sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exp)),
	), nil
}

// LogsEnabled reports whether log entries are exported over OTLP.
func (p *Providers) LogsEnabled() bool {
	return p.logs != nil
}

// BridgeLogger returns log with a second core that forwards entries at or
// above min to the OTLP log pipeline. Without a log pipeline log is
// returned as is.
func (p *Providers) BridgeLogger(log *zap.Logger, name string, min zapcore.Level) *zap.Logger {
	if p.logs == nil || log == nil {
		return log
	}
	bridge := &minLevelCore{
		Core: otelzap.NewCore(name, otelzap.WithLoggerProvider(p.logs)),
		min:  min,
	}
	return log.WithOptions(zap.WrapCore(func(base zapcore.Core) zapcore.Core {
		return zapcore.NewTee(base, bridge)
	}))
}

// minLevelCore drops entries below min. The otelzap core accepts every level.
type minLevelCore struct {
	zapcore.Core
	min zapcore.Level
}

func (c *minLevelCore) Enabled(lvl zapcore.Level) bool {
	return lvl >= c.min && c.Core.Enabled(lvl)
}

func (c *minLevelCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(e.Level) {
		return ce
	}
	return c.Core.Check(e, ce)
}

func (c *minLevelCore) With(fields []zapcore.Field) zapcore.Core {
	return &minLevelCore{Core: c.Core.With(fields), min: c.min}
}

// Package telemetry wires OpenTelemetry tracing, metrics and logs for the finance engine.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	defaultExportInterval = 60 * time.Second
	shutdownTimeout       = 10 * time.Second
)

// Settings configures the signals. Spans, metrics and logs share one OTLP
// collector and one service identity.
type Settings struct {
	Enabled        bool
	Endpoint       string // host:port of the OTLP gRPC collector
	Insecure       bool
	ServiceName    string
	ServiceVersion string
	SamplingRatio  float64 // 0.0-1.0
	ExportInterval time.Duration
	// Logs adds the log pipeline; zap entries reach it through BridgeLogger
	Logs bool
	// Profiling labels spans with pyroscope profile ids
	Profiling bool
}

// Option adjusts how Setup builds the providers.
type Option func(*setup)

type setup struct {
	spanExporter sdktrace.SpanExporter
	metricReader sdkmetric.Reader
	logExporter  sdklog.Exporter
	global       bool
}

// WithSpanExporter replaces the OTLP span exporter.
func WithSpanExporter(exp sdktrace.SpanExporter) Option {
	return func(s *setup) { s.spanExporter = exp }
}

// WithMetricReader replaces the periodic OTLP metric reader.
func WithMetricReader(r sdkmetric.Reader) Option {
	return func(s *setup) { s.metricReader = r }
}

// WithoutGlobalRegistration keeps the providers out of the otel globals.
func WithoutGlobalRegistration() Option {
	return func(s *setup) { s.global = false }
}

// Providers owns the tracer, meter and logger providers of the process.
// When telemetry is disabled they stay nil and lookups fall through to the
// otel globals, which are no-ops unless something else installed them.
type Providers struct {
	tracer  *sdktrace.TracerProvider
	meter   *sdkmetric.MeterProvider
	logs    *sdklog.LoggerProvider
	tracing trace.TracerProvider
	log     *zap.Logger
}

// Setup builds the tracer and meter providers described by s.
func Setup(ctx context.Context, s Settings, log *zap.Logger, opts ...Option) (*Providers, error) {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Providers{log: log.Named("telemetry")}
	if !s.Enabled {
		p.log.Info("telemetry disabled")
		return p, nil
	}

	cfg := setup{global: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	res, err := newResource(s.ServiceName, s.ServiceVersion)
	if err != nil {
		return nil, err
	}

	if cfg.spanExporter == nil {
		traceOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(s.Endpoint)}
		if s.Insecure {
			traceOpts = append(traceOpts, otlptracegrpc.WithInsecure())
		}
		if cfg.spanExporter, err = otlptracegrpc.New(ctx, traceOpts...); err != nil {
			return nil, fmt.Errorf("create otlp trace exporter: %w", err)
		}
	}
	if cfg.metricReader == nil {
		metricOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(s.Endpoint)}
		if s.Insecure {
			metricOpts = append(metricOpts, otlpmetricgrpc.WithInsecure())
		}
		exporter, err := otlpmetricgrpc.New(ctx, metricOpts...)
		if err != nil {
			_ = cfg.spanExporter.Shutdown(ctx)
			return nil, fmt.Errorf("create otlp metric exporter: %w", err)
		}
		interval := s.ExportInterval
		if interval <= 0 {
			interval = defaultExportInterval
		}
		cfg.metricReader = sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))
	}

	p.tracer = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(cfg.spanExporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFor(s.SamplingRatio)),
	)
	p.meter = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(cfg.metricReader),
	)
	if s.Logs {
		if p.logs, err = newLoggerProvider(ctx, s, res, cfg.logExporter); err != nil {
			_ = p.tracer.Shutdown(ctx)
			_ = p.meter.Shutdown(ctx)
			return nil, err
		}
	}
	p.tracing = p.tracer
	if s.Profiling {
		p.tracing = profiledTracerProvider(p.tracer)
	}
	if cfg.global {
		otel.SetTracerProvider(p.tracing)
		otel.SetMeterProvider(p.meter)
		if p.logs != nil {
			global.SetLoggerProvider(p.logs)
		}
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}

	p.log.Info("telemetry enabled",
		zap.String("collector_endpoint", s.Endpoint),
		zap.Float64("sampling_ratio", s.SamplingRatio),
		zap.String("service_name", s.ServiceName),
		zap.Bool("logs", p.logs != nil),
		zap.Bool("profiling", s.Profiling),
	)
	return p, nil
}

func samplerFor(ratio float64) sdktrace.Sampler {
	switch {
	case ratio >= 1.0:
		return sdktrace.AlwaysSample()
	case ratio <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}

func newResource(serviceName, version string) (*resource.Resource, error) {
	if serviceName == "" {
		serviceName = TracerName
	}
	if version == "" {
		version = "dev"
	}
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("build telemetry resource: %w", err)
	}
	return res, nil
}

// Enabled reports whether spans and metrics are exported.
func (p *Providers) Enabled() bool {
	return p.tracer != nil && p.meter != nil
}

// Tracer returns a named tracer.
func (p *Providers) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	if p.tracer == nil {
		return otel.GetTracerProvider().Tracer(name, opts...)
	}
	return p.tracing.Tracer(name, opts...)
}

// Meter returns a named meter.
func (p *Providers) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if p.meter == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return p.meter.Meter(name, opts...)
}

// Shutdown flushes pending spans, metrics and logs. Every provider is shut
// down even when an earlier one fails.
func (p *Providers) Shutdown(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	var errs []error
	if err := p.meter.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown meter provider: %w", err))
	}
	if err := p.tracer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown tracer provider: %w", err))
	}
	if p.logs != nil {
		if err := p.logs.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown logger provider: %w", err))
		}
	}
	err := errors.Join(errs...)
	if err != nil {
		p.log.Error("telemetry shutdown failed", zap.Error(err))
	}
	return err
}

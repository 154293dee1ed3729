package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	otelpyroscope "github.com/grafana/otel-profiling-go"
	"github.com/grafana/pyroscope-go"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const defaultContentionRate = 5

// Profile label keys. Values must stay low cardinality.
const (
	ProfileLabelRoute  = "route"
	ProfileLabelMethod = "method"
	ProfileLabelTenant = "tenant_id"
	ProfileLabelJob    = "job"
)

// ProfilerSettings configures continuous profiling. Cpu, heap and goroutine
// profiles are always pushed; Contention adds mutex and block profiles.
type ProfilerSettings struct {
	Enabled         bool
	ServerAddress   string
	ApplicationName string
	BasicAuthUser   string
	BasicAuthPass   string
	Contention      bool
}

// Profiler owns the pyroscope session of the process. A disabled Profiler
// is a no-op.
type Profiler struct {
	session *pyroscope.Profiler
	log     *zap.Logger
	mu      sync.Mutex
}

// StartProfiler begins pushing profiles to the pyroscope server.
func StartProfiler(s ProfilerSettings, log *zap.Logger) (*Profiler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Profiler{log: log.Named("profiler")}
	if !s.Enabled {
		return p, nil
	}
	if s.ServerAddress == "" || s.ApplicationName == "" {
		return nil, errors.New("profiler: server address and application name are required")
	}

	types := []pyroscope.ProfileType{
		pyroscope.ProfileCPU,
		pyroscope.ProfileAllocSpace,
		pyroscope.ProfileInuseSpace,
		pyroscope.ProfileGoroutines,
	}
	if s.Contention {
		runtime.SetMutexProfileFraction(defaultContentionRate)
		runtime.SetBlockProfileRate(defaultContentionRate)
		types = append(types, pyroscope.ProfileMutexDuration, pyroscope.ProfileBlockDuration)
	}

	tags := map[string]string{}
	if host, err := os.Hostname(); err == nil {
		tags["hostname"] = host
	}
	session, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   s.ApplicationName,
		ServerAddress:     s.ServerAddress,
		BasicAuthUser:     s.BasicAuthUser,
		BasicAuthPassword: s.BasicAuthPass,
		Logger:            pyroscopeLogger{p.log.Sugar()},
		Tags:              tags,
		ProfileTypes:      types,
	})
	if err != nil {
		return nil, fmt.Errorf("start pyroscope profiler: %w", err)
	}
	p.session = session
	p.log.Info("profiler started",
		zap.String("server_address", s.ServerAddress),
		zap.Int("profile_types", len(types)),
	)
	return p, nil
}

// Enabled reports whether profiles are being pushed.
func (p *Profiler) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session != nil
}

// Stop flushes and ends the session. Later calls are no-ops.
func (p *Profiler) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return nil
	}
	err := p.session.Stop()
	p.session = nil
	if err != nil {
		return fmt.Errorf("stop pyroscope profiler: %w", err)
	}
	return nil
}

// WithProfileLabels runs fn with pprof labels on its goroutine. pairs are
// key, value, key, value; pairs with an empty value are dropped.
func WithProfileLabels(ctx context.Context, fn func(context.Context), pairs ...string) {
	kv := make([]string, 0, len(pairs))
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] != "" {
			kv = append(kv, pairs[i], pairs[i+1])
		}
	}
	if len(kv) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(kv...), fn)
}

// profiledTracerProvider tags the goroutines running a span with its span
// id so profiles can be joined to traces.
func profiledTracerProvider(tp trace.TracerProvider) trace.TracerProvider {
	return otelpyroscope.NewTracerProvider(tp)
}

type pyroscopeLogger struct{ s *zap.SugaredLogger }

func (l pyroscopeLogger) Infof(format string, args ...any)  { l.s.Debugf(format, args...) }
func (l pyroscopeLogger) Debugf(format string, args ...any) { l.s.Debugf(format, args...) }
func (l pyroscopeLogger) Errorf(format string, args ...any) { l.s.Errorf(format, args...) }

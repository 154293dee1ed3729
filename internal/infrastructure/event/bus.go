// Package event delivers domain events to in-process subscribers.
package event

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

var attrEventType = attribute.Key("event_type")

// subscription binds a handler to a set of event types. A nil set matches
// every event.
type subscription struct {
	handler shared.EventHandler
	types   map[string]struct{}
}

func (s subscription) matches(eventType string) bool {
	if s.types == nil {
		return true
	}
	_, ok := s.types[eventType]
	return ok
}

// Bus dispatches events synchronously, in subscription order. Handlers run
// after the state change is committed, so their errors and panics are
// logged and counted but never returned to the publisher.
type Bus struct {
	log      *zap.Logger
	failed   *telemetry.Counter
	mu       sync.RWMutex
	subs     []subscription
	running  atomic.Bool
	failures atomic.Int64
}

type BusOption func(*Bus) error

// WithMeter counts handler failures as event_handler_failures_total.
func WithMeter(meter metric.Meter) BusOption {
	return func(b *Bus) error {
		c, err := telemetry.NewCounter(meter, "event_handler_failures_total",
			"Domain event handlers that returned an error or panicked", "{failure}")
		if err != nil {
			return err
		}
		b.failed = c
		return nil
	}
}

func NewBus(log *zap.Logger, opts ...BusOption) (*Bus, error) {
	if log == nil {
		log = zap.NewNop()
	}
	b := &Bus{log: log.Named("event_bus")}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Publish always returns nil; see Bus.
func (b *Bus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	b.mu.RLock()
	subs := slices.Clone(b.subs)
	b.mu.RUnlock()

	for _, ev := range events {
		for _, s := range subs {
			if !s.matches(ev.EventType()) {
				continue
			}
			if err := deliver(ctx, s.handler, ev); err != nil {
				b.recordFailure(ctx, ev, err)
			}
		}
	}
	return nil
}

func (b *Bus) recordFailure(ctx context.Context, ev shared.DomainEvent, err error) {
	b.failures.Add(1)
	if b.failed != nil {
		b.failed.Inc(ctx, attrEventType.String(ev.EventType()))
	}
	b.log.Error("event handler failed",
		zap.String("event_type", ev.EventType()),
		zap.Stringer("event_id", ev.EventID()),
		zap.Stringer("aggregate_id", ev.AggregateID()),
		zap.Error(err),
	)
}

// Subscribe registers handler for eventTypes, defaulting to
// handler.EventTypes(). With no types at all it receives every event.
func (b *Bus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	s := subscription{handler: handler}
	if len(eventTypes) > 0 {
		s.types = make(map[string]struct{}, len(eventTypes))
		for _, t := range eventTypes {
			s.types[t] = struct{}{}
		}
	}

	b.mu.Lock()
	b.subs = append(b.subs, s)
	b.mu.Unlock()
	b.log.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes every subscription of handler.
func (b *Bus) Unsubscribe(handler shared.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = slices.DeleteFunc(b.subs, func(s subscription) bool { return s.handler == handler })
}

func (b *Bus) Start(context.Context) error {
	b.running.Store(true)
	b.log.Info("event bus started", zap.Int("subscriptions", b.subscriptions()))
	return nil
}

// Stop has nothing to drain since delivery is synchronous.
func (b *Bus) Stop(context.Context) error {
	b.running.Store(false)
	b.log.Info("event bus stopped", zap.Int64("handler_failures", b.failures.Load()))
	return nil
}

// Failures is the number of handler errors and panics so far.
func (b *Bus) Failures() int64 { return b.failures.Load() }

func (b *Bus) subscriptions() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func deliver(ctx context.Context, h shared.EventHandler, ev shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h.Handle(ctx, ev)
}

var _ shared.EventBus = (*Bus)(nil)

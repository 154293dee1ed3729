package acl

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PaymentMethodQueryService resolves payment method display names
type PaymentMethodQueryService interface {
	// GetPaymentMethodNames returns the names of the given payment methods.
	// Unknown IDs are absent from the result.
	GetPaymentMethodNames(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

// ActorQueryService resolves actor (employee) display names
type ActorQueryService interface {
	// GetActorNames returns the names of the given actors.
	// Unknown IDs are absent from the result.
	GetActorNames(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

// DisplayNameKind namespaces cached display names
type DisplayNameKind string

const (
	DisplayNamePaymentMethod DisplayNameKind = "payment_method"
	DisplayNameActor         DisplayNameKind = "actor"
)

// DisplayNameCache caches display names in front of the query services
type DisplayNameCache interface {
	// GetMany returns the cached names for ids; misses are absent from the result
	GetMany(ctx context.Context, tenantID uuid.UUID, kind DisplayNameKind, ids []uuid.UUID) (map[uuid.UUID]string, error)

	// SetMany stores names for the given ttl
	SetMany(ctx context.Context, tenantID uuid.UUID, kind DisplayNameKind, names map[uuid.UUID]string, ttl time.Duration) error
}

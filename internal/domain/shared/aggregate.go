package shared

import (
	"time"

	"github.com/google/uuid"
)

// TenantAggregateRoot is embedded by every tenant-scoped aggregate. Version
// starts at 1 and is bumped on each change so writers can detect lost updates.
type TenantAggregateRoot struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	CreatedBy *uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int

	events []DomainEvent
}

// NewTenantAggregateRoot allocates an identity for a new aggregate of tenantID
func NewTenantAggregateRoot(tenantID uuid.UUID) TenantAggregateRoot {
	now := time.Now().UTC()
	return TenantAggregateRoot{
		ID:        uuid.New(),
		TenantID:  tenantID,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
}

// SetCreatedBy records the actor that created the aggregate
func (a *TenantAggregateRoot) SetCreatedBy(actorID uuid.UUID) {
	a.CreatedBy = &actorID
}

// GetVersion returns the optimistic-lock version
func (a *TenantAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion bumps the version after a state change
func (a *TenantAggregateRoot) IncrementVersion() {
	a.Version++
}

// AddDomainEvent queues an event until the aggregate is persisted
func (a *TenantAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.events = append(a.events, event)
}

// GetDomainEvents returns the queued events in the order they were raised
func (a *TenantAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.events
}

// ClearDomainEvents drops the queued events once they have been handed off
func (a *TenantAggregateRoot) ClearDomainEvents() {
	a.events = nil
}

package acl

import (
	"context"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
)

// CounterpartyRole identifies which master-data context owns a counterparty
type CounterpartyRole string

const (
	CounterpartyRoleSupplier CounterpartyRole = "SUPPLIER"
	CounterpartyRoleCustomer CounterpartyRole = "CUSTOMER"
)

// IsValid checks if the role is valid
func (r CounterpartyRole) IsValid() bool {
	return r == CounterpartyRoleSupplier || r == CounterpartyRoleCustomer
}

// String returns the string representation of CounterpartyRole
func (r CounterpartyRole) String() string {
	return string(r)
}

// CounterpartyReference holds the denormalized counterparty information a
// monetary document keeps for display.
type CounterpartyReference struct {
	id    uuid.UUID
	role  CounterpartyRole
	name  string
	taxID string
}

// NewCounterpartyReference creates a new CounterpartyReference.
// Returns an error if the ID or the name is empty.
func NewCounterpartyReference(id uuid.UUID, role CounterpartyRole, name, taxID string) (CounterpartyReference, error) {
	if id == uuid.Nil {
		return CounterpartyReference{}, shared.NewValidationError("INVALID_COUNTERPARTY", "Counterparty ID cannot be empty")
	}
	if !role.IsValid() {
		return CounterpartyReference{}, shared.NewValidationError("INVALID_COUNTERPARTY_ROLE", "Counterparty role is not valid")
	}
	if name == "" {
		return CounterpartyReference{}, shared.NewValidationError("INVALID_COUNTERPARTY_NAME", "Counterparty name cannot be empty")
	}
	return CounterpartyReference{id: id, role: role, name: name, taxID: taxID}, nil
}

// ID returns the counterparty ID
func (r CounterpartyReference) ID() uuid.UUID {
	return r.id
}

// Role returns the counterparty role
func (r CounterpartyReference) Role() CounterpartyRole {
	return r.role
}

// Name returns the counterparty name
func (r CounterpartyReference) Name() string {
	return r.name
}

// TaxID returns the counterparty tax identifier, which may be empty
func (r CounterpartyReference) TaxID() string {
	return r.taxID
}

// IsEmpty returns true if the reference is empty
func (r CounterpartyReference) IsEmpty() bool {
	return r.id == uuid.Nil
}

// CounterpartyQueryService answers questions about suppliers and customers.
// Implementations must scope every lookup by tenant.
type CounterpartyQueryService interface {
	// CounterpartyExists checks if an active counterparty with the given role exists
	CounterpartyExists(ctx context.Context, tenantID uuid.UUID, role CounterpartyRole, id uuid.UUID) (bool, error)

	// GetCounterpartyReference returns the display information of a counterparty.
	// Returns a not-found domain error when it does not exist.
	GetCounterpartyReference(ctx context.Context, tenantID uuid.UUID, role CounterpartyRole, id uuid.UUID) (CounterpartyReference, error)
}

package models

import (
	"time"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
)

// BaseModel is the identity and audit timestamps every table carries.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TenantAggregateModel maps shared.TenantAggregateRoot. Version is the
// optimistic lock checked on every update.
type TenantAggregateModel struct {
	BaseModel
	TenantColumn
	Version   int        `gorm:"not null;default:1"`
	CreatedBy *uuid.UUID `gorm:"type:uuid"`
}

func (m *TenantAggregateModel) fromAggregate(root shared.TenantAggregateRoot) {
	*m = TenantAggregateModel{
		BaseModel:    BaseModel{ID: root.ID, CreatedAt: root.CreatedAt, UpdatedAt: root.UpdatedAt},
		TenantColumn: TenantColumn{TenantID: root.TenantID},
		Version:      root.Version,
		CreatedBy:    root.CreatedBy,
	}
}

// toAggregate rebuilds the root. Pending domain events are not persisted,
// so the result has none.
func (m *TenantAggregateModel) toAggregate() shared.TenantAggregateRoot {
	return shared.TenantAggregateRoot{
		ID:        m.ID,
		TenantID:  m.TenantID,
		CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
		Version:   m.Version,
	}
}

package models

import "github.com/google/uuid"

// Read models of master data owned by the partner, payment and HR contexts.
// Finance only queries them; the migrations create the tables so that a
// standalone deployment can seed them.

const (
	PartnerStatusActive   = "active"
	PartnerStatusInactive = "inactive"
)

// TenantColumn scopes a master data row to its tenant.
type TenantColumn struct {
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// PartyColumns are shared by suppliers and customers. Only active parties
// may be referenced by new documents.
type PartyColumns struct {
	Code   string `gorm:"type:varchar(50);not null"`
	Name   string `gorm:"type:varchar(200);not null"`
	TaxID  string `gorm:"type:varchar(50)"`
	Status string `gorm:"type:varchar(20);not null;default:'active'"`
}

type SupplierModel struct {
	BaseModel
	TenantColumn
	PartyColumns
}

func (SupplierModel) TableName() string { return "suppliers" }

type CustomerModel struct {
	BaseModel
	TenantColumn
	PartyColumns
}

func (CustomerModel) TableName() string { return "customers" }

type PaymentMethodModel struct {
	BaseModel
	TenantColumn
	Name     string `gorm:"type:varchar(100);not null"`
	IsActive bool   `gorm:"not null;default:true"`
}

func (PaymentMethodModel) TableName() string { return "payment_methods" }

type EmployeeModel struct {
	BaseModel
	TenantColumn
	Name string `gorm:"type:varchar(200);not null"`
}

func (EmployeeModel) TableName() string { return "employees" }

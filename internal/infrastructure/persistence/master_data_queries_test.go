package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/backoffice/internal/domain/finance/acl"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseModel(id uuid.UUID) models.BaseModel {
	now := time.Now()
	return models.BaseModel{ID: id, CreatedAt: now, UpdatedAt: now}
}

func TestGormCounterpartyQueryService(t *testing.T) {
	db := setupDocumentTestDB(t)
	svc := NewGormCounterpartyQueryService(db)
	ctx := context.Background()
	tenantID := uuid.New()

	supplierID, inactiveID, customerID := uuid.New(), uuid.New(), uuid.New()
	require.NoError(t, db.Create(&models.SupplierModel{
		BaseModel: baseModel(supplierID), TenantColumn: models.TenantColumn{TenantID: tenantID},
		PartyColumns: models.PartyColumns{Code: "S001", Name: "Acme Supplies", TaxID: "12.345.678/0001-90", Status: models.PartnerStatusActive},
	}).Error)
	require.NoError(t, db.Create(&models.SupplierModel{
		BaseModel: baseModel(inactiveID), TenantColumn: models.TenantColumn{TenantID: tenantID},
		PartyColumns: models.PartyColumns{Code: "S002", Name: "Gone Ltd", Status: models.PartnerStatusInactive},
	}).Error)
	require.NoError(t, db.Create(&models.CustomerModel{
		BaseModel: baseModel(customerID), TenantColumn: models.TenantColumn{TenantID: tenantID},
		PartyColumns: models.PartyColumns{Code: "C001", Name: "Loja Centro", Status: models.PartnerStatusActive},
	}).Error)

	t.Run("exists by role", func(t *testing.T) {
		ok, err := svc.CounterpartyExists(ctx, tenantID, acl.CounterpartyRoleSupplier, supplierID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = svc.CounterpartyExists(ctx, tenantID, acl.CounterpartyRoleCustomer, supplierID)
		require.NoError(t, err)
		assert.False(t, ok, "a supplier is not a customer")

		ok, err = svc.CounterpartyExists(ctx, tenantID, acl.CounterpartyRoleSupplier, inactiveID)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = svc.CounterpartyExists(ctx, uuid.New(), acl.CounterpartyRoleSupplier, supplierID)
		require.NoError(t, err)
		assert.False(t, ok, "lookups are tenant scoped")
	})

	t.Run("reference", func(t *testing.T) {
		ref, err := svc.GetCounterpartyReference(ctx, tenantID, acl.CounterpartyRoleSupplier, supplierID)
		require.NoError(t, err)
		assert.Equal(t, "Acme Supplies", ref.Name())
		assert.Equal(t, "12.345.678/0001-90", ref.TaxID())
		assert.Equal(t, acl.CounterpartyRoleSupplier, ref.Role())

		_, err = svc.GetCounterpartyReference(ctx, tenantID, acl.CounterpartyRoleSupplier, customerID)
		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("invalid role", func(t *testing.T) {
		_, err := svc.CounterpartyExists(ctx, tenantID, acl.CounterpartyRole("BANK"), supplierID)
		assert.True(t, shared.IsValidation(err))
	})
}

func TestGormDisplayNameQueryService(t *testing.T) {
	db := setupDocumentTestDB(t)
	svc := NewGormDisplayNameQueryService(db)
	ctx := context.Background()
	tenantID := uuid.New()

	pixID, employeeID, otherTenantEmployee := uuid.New(), uuid.New(), uuid.New()
	require.NoError(t, db.Create(&models.PaymentMethodModel{BaseModel: baseModel(pixID), TenantColumn: models.TenantColumn{TenantID: tenantID}, Name: "PIX", IsActive: true}).Error)
	require.NoError(t, db.Create(&models.EmployeeModel{BaseModel: baseModel(employeeID), TenantColumn: models.TenantColumn{TenantID: tenantID}, Name: "Maria Souza"}).Error)
	require.NoError(t, db.Create(&models.EmployeeModel{BaseModel: baseModel(otherTenantEmployee), TenantColumn: models.TenantColumn{TenantID: uuid.New()}, Name: "Other"}).Error)

	names, err := svc.GetPaymentMethodNames(ctx, tenantID, []uuid.UUID{pixID, uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]string{pixID: "PIX"}, names)

	names, err = svc.GetActorNames(ctx, tenantID, []uuid.UUID{employeeID, otherTenantEmployee})
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]string{employeeID: "Maria Souza"}, names)

	names, err = svc.GetActorNames(ctx, tenantID, nil)
	require.NoError(t, err)
	assert.Empty(t, names)
}

package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/backoffice/internal/domain/finance/acl"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/persistence/models"
	"github.com/erp/backoffice/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCounterpartyQueryService reads suppliers and customers for the finance context
type GormCounterpartyQueryService struct {
	db *gorm.DB
}

// NewGormCounterpartyQueryService creates a new GormCounterpartyQueryService
func NewGormCounterpartyQueryService(db *gorm.DB) *GormCounterpartyQueryService {
	return &GormCounterpartyQueryService{db: db}
}

var _ acl.CounterpartyQueryService = (*GormCounterpartyQueryService)(nil)

type counterpartyRow struct {
	ID    uuid.UUID
	Name  string
	TaxID string
}

func counterpartyTable(role acl.CounterpartyRole) (string, error) {
	switch role {
	case acl.CounterpartyRoleSupplier:
		return models.SupplierModel{}.TableName(), nil
	case acl.CounterpartyRoleCustomer:
		return models.CustomerModel{}.TableName(), nil
	default:
		return "", shared.NewValidationError("INVALID_COUNTERPARTY_ROLE", "Counterparty role is not valid")
	}
}

// CounterpartyExists checks if an active supplier or customer exists
func (s *GormCounterpartyQueryService) CounterpartyExists(ctx context.Context, tenantID uuid.UUID, role acl.CounterpartyRole, id uuid.UUID) (bool, error) {
	table, err := counterpartyTable(role)
	if err != nil {
		return false, err
	}
	var count int64
	if err := s.db.WithContext(ctx).Table(table).
		Scopes(tenant.Scope(tenantID)).
		Where("id = ? AND status = ?", id, models.PartnerStatusActive).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check %s: %w", table, err)
	}
	return count > 0, nil
}

// GetCounterpartyReference returns the name and tax id of a supplier or customer
func (s *GormCounterpartyQueryService) GetCounterpartyReference(ctx context.Context, tenantID uuid.UUID, role acl.CounterpartyRole, id uuid.UUID) (acl.CounterpartyReference, error) {
	table, err := counterpartyTable(role)
	if err != nil {
		return acl.CounterpartyReference{}, err
	}
	var row counterpartyRow
	if err := s.db.WithContext(ctx).Table(table).
		Select("id, name, tax_id").
		Scopes(tenant.Scope(tenantID)).
		Where("id = ?", id).
		Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return acl.CounterpartyReference{}, shared.NewNotFoundError("COUNTERPARTY_NOT_FOUND",
				fmt.Sprintf("%s %s not found", role, id))
		}
		return acl.CounterpartyReference{}, fmt.Errorf("failed to load %s: %w", table, err)
	}
	return acl.NewCounterpartyReference(row.ID, role, row.Name, row.TaxID)
}

// GormDisplayNameQueryService resolves payment method and employee names
type GormDisplayNameQueryService struct {
	db *gorm.DB
}

// NewGormDisplayNameQueryService creates a new GormDisplayNameQueryService
func NewGormDisplayNameQueryService(db *gorm.DB) *GormDisplayNameQueryService {
	return &GormDisplayNameQueryService{db: db}
}

var (
	_ acl.PaymentMethodQueryService = (*GormDisplayNameQueryService)(nil)
	_ acl.ActorQueryService         = (*GormDisplayNameQueryService)(nil)
)

// GetPaymentMethodNames returns the names of the given payment methods
func (s *GormDisplayNameQueryService) GetPaymentMethodNames(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	return s.names(ctx, models.PaymentMethodModel{}.TableName(), tenantID, ids)
}

// GetActorNames returns the names of the given employees
func (s *GormDisplayNameQueryService) GetActorNames(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	return s.names(ctx, models.EmployeeModel{}.TableName(), tenantID, ids)
}

func (s *GormDisplayNameQueryService) names(ctx context.Context, table string, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	var rows []struct {
		ID   uuid.UUID
		Name string
	}
	if err := s.db.WithContext(ctx).Table(table).
		Select("id, name").
		Scopes(tenant.Scope(tenantID)).
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load %s names: %w", table, err)
	}
	for _, row := range rows {
		names[row.ID] = row.Name
	}
	return names, nil
}

// AllModels returns every model managed by this service, in creation order
func AllModels() []any {
	return []any{
		&models.SupplierModel{},
		&models.CustomerModel{},
		&models.PaymentMethodModel{},
		&models.EmployeeModel{},
		&models.MonetaryDocumentModel{},
	}
}

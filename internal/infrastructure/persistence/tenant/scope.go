// Package tenant scopes gorm statements to one tenant.
//
// Repositories apply the scope explicitly on every statement:
//
//	db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).Find(&documents)
//
// The overdue sweep is the only statement that intentionally spans tenants.
package tenant

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Column is the tenant discriminator present on every tenant-owned table.
const Column = "tenant_id"

// ErrTenantIDRequired is added to the statement when the tenant is uuid.Nil.
var ErrTenantIDRequired = errors.New("tenant_id is required")

// Scope restricts a statement to tenantID on its current table. A nil tenant
// makes the statement fail instead of silently matching nothing.
func Scope(tenantID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return Qualified(clause.CurrentTable, tenantID)
}

// Qualified restricts a statement to tenantID on the named table. Use it when
// the statement joins other tenant-owned tables and the bare column would be
// ambiguous.
func Qualified(table string, tenantID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if tenantID == uuid.Nil {
			_ = db.AddError(ErrTenantIDRequired)
			return db
		}
		return db.Where(clause.Eq{
			Column: clause.Column{Table: table, Name: Column},
			Value:  tenantID,
		})
	}
}

package tenant

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type ledgerRow struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
	Balance  string
}

func (ledgerRow) TableName() string { return "ledger_rows" }

func mockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: conn, DriverName: "postgres"}),
		&gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return db, mock
}

func TestScope(t *testing.T) {
	t.Run("filters the current table", func(t *testing.T) {
		db, mock := mockDB(t)
		tenantID := uuid.New()

		// scopes run at execution, after the chained conditions
		mock.ExpectQuery(`SELECT \* FROM "ledger_rows" WHERE balance > \$1 AND "ledger_rows"."tenant_id" = \$2`).
			WithArgs("0", tenantID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "balance"}))

		var rows []ledgerRow
		require.NoError(t, db.Scopes(Scope(tenantID)).Where("balance > ?", "0").Find(&rows).Error)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("resolves the table of Table()", func(t *testing.T) {
		db, mock := mockDB(t)
		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "suppliers" WHERE "suppliers"."tenant_id" = \$1`).
			WithArgs(tenantID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

		var n int64
		require.NoError(t, db.Table("suppliers").Scopes(Scope(tenantID)).Count(&n).Error)
		assert.Equal(t, int64(2), n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil tenant fails without querying", func(t *testing.T) {
		db, mock := mockDB(t)

		var rows []ledgerRow
		err := db.Scopes(Scope(uuid.Nil)).Find(&rows).Error
		assert.ErrorIs(t, err, ErrTenantIDRequired)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestQualified(t *testing.T) {
	db, mock := mockDB(t)
	tenantID := uuid.New()

	mock.ExpectQuery(`SELECT "ledger_rows"."id" FROM "ledger_rows" JOIN suppliers ON suppliers.id = ledger_rows.id WHERE "suppliers"."tenant_id" = \$1`).
		WithArgs(tenantID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	var ids []uuid.UUID
	err := db.Model(&ledgerRow{}).
		Joins("JOIN suppliers ON suppliers.id = ledger_rows.id").
		Scopes(Qualified("suppliers", tenantID)).
		Pluck("ledger_rows.id", &ids).Error
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/domain/invoice"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/domain/shared"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newMockDB wires a gorm postgres dialector onto a sqlmock connection
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestLatestForShopReadsMostRecentRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := persistence.NewGormCounterRepository(db)

	now := time.Now()
	mock.ExpectQuery(`SELECT \* FROM "invoice_number_counters" WHERE shop_id = .+ ORDER BY updated_at DESC`).
		WithArgs("shop_1", 1).
		WillReturnRows(sqlmock.NewRows(
			[]string{"shop_id", "counter", "invoice_number", "updated_at"}).
			AddRow("shop_1", int64(105), "invoice-0000000105", now))

	counter, err := repo.LatestForShop(context.Background(), "shop_1")
	require.NoError(t, err)
	assert.Equal(t, int64(105), counter.Counter)
	assert.Equal(t, "invoice-0000000105", counter.InvoiceNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestForShopNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := persistence.NewGormCounterRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "invoice_number_counters"`).
		WithArgs("shop_404", 1).
		WillReturnRows(sqlmock.NewRows([]string{"shop_id", "counter", "invoice_number", "updated_at"}))

	_, err := repo.LatestForShop(context.Background(), "shop_404")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCounterUpsertOnConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := persistence.NewGormCounterRepository(db)

	mock.ExpectExec(`INSERT INTO "invoice_number_counters" .+ ON CONFLICT \("shop_id"\) DO UPDATE`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), &invoice.NumberCounter{
		ShopID:        "shop_1",
		Counter:       100,
		InvoiceNumber: "invoice-0000000100",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

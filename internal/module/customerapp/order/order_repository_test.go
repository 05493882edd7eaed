package order

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hirestore/hs-order/pkg/errors"
	"github.com/hirestore/hs-order/pkg/status"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var orderColumnNames = []string{
	"id", "reference", "store_id", "order_desc", "discount_code", "platform", "currency_code",
	"payment_option", "delivery_option", "customer_id", "customer_email", "total_qty",
	"subtotal", "total_discount", "loyalty_discount", "service_charge", "gateway_fee", "vat",
	"total", "total_paid", "balance", "status", "staged", "inventory_state", "created_at", "updated_at",
}

func orderRow(rows *sqlmock.Rows, ID int64, reference string, customerID int64, createdAt time.Time) *sqlmock.Rows {
	return rows.AddRow(
		ID, reference, 1, "Standing Desk", nil, "web", "NGN",
		PaymentOptionInstant, "pickup", customerID, "ada@example.com", 2,
		"2000", "0", "0", "0", "130", "150",
		"2280", "0", "2280", StatusStaged, true, InventoryReserved, createdAt, createdAt,
	)
}

func TestOrderRepository_Save(t *testing.T) {
	db, mock := newMockDB(t)
	logger, _ := test.NewNullLogger()
	repo := NewOrderRepository(logger, db)

	o := Order{
		Reference:      "ORD-1",
		StoreID:        1,
		Status:         StatusStaged,
		Staged:         true,
		InventoryState: InventoryReserved,
		Subtotal:       amount("2000"),
		Total:          amount("2280"),
		Balance:        amount("2280"),
	}

	mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO orders")).
		ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	ID, err := repo.Save(context.Background(), o, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(42), ID)

	mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO orders")).
		ExpectQuery().
		WillReturnError(&pq.Error{Code: "23505", Constraint: "orders_reference_key"})

	_, err = repo.Save(context.Background(), o, nil)
	assert.True(t, errors.HasStatus(err, status.CONFLICT))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_FindByReference(t *testing.T) {
	db, mock := newMockDB(t)
	logger, _ := test.NewNullLogger()
	repo := NewOrderRepository(logger, db)
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	mock.ExpectPrepare(regexp.QuoteMeta("reference = $1")).
		ExpectQuery().
		WithArgs("ORD-1").
		WillReturnRows(orderRow(sqlmock.NewRows(orderColumnNames), 42, "ORD-1", 7, now))

	o, err := repo.FindByReference(context.Background(), "ORD-1", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(42), o.ID)
	assert.Equal(t, int64(7), o.CustomerID)
	assert.Nil(t, o.DiscountCode)
	assert.True(t, o.Staged)
	assert.Equal(t, InventoryReserved, o.InventoryState)
	assertAmount(t, "2280", o.Total, "total")

	mock.ExpectPrepare(regexp.QuoteMeta("reference = $1")).
		ExpectQuery().
		WithArgs("ORD-2").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.FindByReference(context.Background(), "ORD-2", nil)
	assert.True(t, errors.HasStatus(err, status.ORDER_NOT_FOUND))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_FindManyExcludesStaged(t *testing.T) {
	db, mock := newMockDB(t)
	logger, _ := test.NewNullLogger()
	repo := NewOrderRepository(logger, db)

	mock.ExpectPrepare(regexp.QuoteMeta("NOT staged")).
		ExpectQuery().
		WithArgs(int64(7), StatusNew, int64(10), int64(10)).
		WillReturnRows(orderRow(sqlmock.NewRows(orderColumnNames), 42, "ORD-1", 7, time.Now()))

	data, err := repo.FindMany(context.Background(), 7, StatusNew, 10, 10, nil)
	require.NoError(t, err)
	assert.Len(t, data, 1)

	mock.ExpectPrepare(regexp.QuoteMeta("SELECT count(id)")).
		ExpectQuery().
		WithArgs(int64(7), "").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	total, err := repo.Count(context.Background(), 7, "", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(11), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Savepoints(t *testing.T) {
	db, mock := newMockDB(t)
	logger, _ := test.NewNullLogger()
	repo := NewOrderRepository(logger, db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SAVEPOINT unique_reference")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("ROLLBACK TO SAVEPOINT unique_reference")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("RELEASE SAVEPOINT unique_reference")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.Savepoint(ctx, referenceSavepoint, tx))
	require.NoError(t, repo.RollbackToSavepoint(ctx, referenceSavepoint, tx))
	require.NoError(t, repo.ReleaseSavepoint(ctx, referenceSavepoint, tx))
	require.NoError(t, repo.CommitTx(ctx, tx))

	// rolling back a finished transaction is a no-op
	assert.NoError(t, repo.Rollback(ctx, tx))
	assert.NoError(t, repo.Rollback(ctx, nil))
	assert.NoError(t, repo.Savepoint(ctx, referenceSavepoint, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_UpdateSettlement(t *testing.T) {
	db, mock := newMockDB(t)
	logger, _ := test.NewNullLogger()
	repo := NewOrderRepository(logger, db)
	now := time.Now()

	mock.ExpectPrepare(regexp.QuoteMeta("UPDATE orders")).
		ExpectExec().
		WithArgs(StatusNew, false, sqlmock.AnyArg(), sqlmock.AnyArg(), InventoryCommitted, now, int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateSettlement(context.Background(), Order{
		ID:             42,
		Status:         StatusNew,
		TotalPaid:      amount("2280"),
		Balance:        amount("0"),
		InventoryState: InventoryCommitted,
		UpdatedAt:      now,
	}, nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItemRepository_SaveMany(t *testing.T) {
	db, mock := newMockDB(t)
	logger, _ := test.NewNullLogger()
	repo := NewItemRepository(logger, db)
	now := time.Now()
	categoryID := int64(4)

	mock.ExpectPrepare(regexp.QuoteMeta("($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11), ($12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)")).
		ExpectExec().
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := repo.SaveMany(context.Background(), []Item{
		{OrderID: 42, ProductID: 1, ProductName: "Standing Desk", ProductCategoryID: &categoryID, Price: amount("1000"), Quantity: 2, VAT: amount("150"), CreatedAt: now},
		{OrderID: 42, ProductID: 2, ProductName: "Bread", Price: amount("500"), Quantity: 1, VAT: amount("0"), VATExempted: true, CreatedAt: now},
	}, nil)
	require.NoError(t, err)

	assert.NoError(t, repo.SaveMany(context.Background(), nil, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItemRepository_FindManyByOrderID(t *testing.T) {
	db, mock := newMockDB(t)
	logger, _ := test.NewNullLogger()
	repo := NewItemRepository(logger, db)
	now := time.Now()

	mock.ExpectPrepare(regexp.QuoteMeta("FROM order_items")).
		ExpectQuery().
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "order_id", "product_id", "product_name", "product_barcode", "product_category_id",
			"price", "quantity", "vat", "on_sales", "vat_exempted", "created_at",
		}).
			AddRow(1, 42, 1, "Standing Desk", "0001", 4, "1000", 2, "150", false, false, now).
			AddRow(2, 42, 2, "Bread", nil, nil, "500", 1, "0", false, true, now))

	items, err := repo.FindManyByOrderID(context.Background(), 42, nil)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "0001", items[0].ProductBarcode)
	require.NotNil(t, items[0].ProductCategoryID)
	assert.Equal(t, int64(4), *items[0].ProductCategoryID)
	assert.Nil(t, items[1].ProductCategoryID)
	assertAmount(t, "150", items[0].VAT, "vat")
	assert.NoError(t, mock.ExpectationsWereMet())
}

package payment

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hirestore/hs-order/pkg/errors"
	"github.com/hirestore/hs-order/pkg/status"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{
	"id", "reference", "order_id", "store_id", "gateway_code", "customer_id", "customer_email", "currency_code",
	"amount", "amount_paid", "pass_charges", "gateway_fee", "status", "verified", "verified_at",
	"gateway_reference", "gateway_response", "payment_link", "initiated", "created_at", "updated_at",
}

func newRepository(t *testing.T) (OnlinePaymentRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger, _ := test.NewNullLogger()
	return NewOnlinePaymentRepository(logger, db), mock
}

func newPayment() OnlinePayment {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return OnlinePayment{
		Reference:     "PAY-01J0000000000000000000000",
		OrderID:       1,
		StoreID:       10,
		GatewayCode:   "paystack",
		CustomerID:    5,
		CustomerEmail: "buyer@example.com",
		CurrencyCode:  "NGN",
		Amount:        decimal.NewFromInt(2280),
		AmountPaid:    decimal.Zero,
		PassCharges:   true,
		GatewayFee:    decimal.NewFromInt(130),
		Status:        StatusPending,
		Initiated:     now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestOnlinePaymentRepository_Save(t *testing.T) {
	t.Run("saved", func(t *testing.T) {
		repo, mock := newRepository(t)

		mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO online_payments")).
			ExpectQuery().
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

		ID, err := repo.Save(context.Background(), newPayment(), nil)
		require.NoError(t, err)
		assert.Equal(t, int64(42), ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reference taken", func(t *testing.T) {
		repo, mock := newRepository(t)

		mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO online_payments")).
			ExpectQuery().
			WillReturnError(&pq.Error{Code: "23505"})

		_, err := repo.Save(context.Background(), newPayment(), nil)
		assert.True(t, errors.HasStatus(err, status.CONFLICT))
	})
}

func TestOnlinePaymentRepository_FindByReferenceForUpdate(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo, mock := newRepository(t)
		now := time.Now()

		mock.ExpectPrepare(regexp.QuoteMeta("FOR UPDATE")).
			ExpectQuery().
			WithArgs("PAY-1").
			WillReturnRows(sqlmock.NewRows(columns).AddRow(
				1, "PAY-1", 1, 10, "paystack", 5, "buyer@example.com", "NGN",
				"2280", "0", true, "130", "unknown", false, nil,
				nil, nil, "https://checkout.example.com/x", now, now, now,
			))

		p, err := repo.FindByReferenceForUpdate(context.Background(), "PAY-1", nil)
		require.NoError(t, err)
		assert.False(t, p.IsFinal())
		assert.Nil(t, p.VerifiedAt)
		require.NotNil(t, p.PaymentLink)
		assert.Equal(t, "https://checkout.example.com/x", *p.PaymentLink)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newRepository(t)

		mock.ExpectPrepare(regexp.QuoteMeta("FOR UPDATE")).
			ExpectQuery().
			WillReturnRows(sqlmock.NewRows(columns))

		_, err := repo.FindByReferenceForUpdate(context.Background(), "PAY-404", nil)
		assert.True(t, errors.HasStatus(err, status.PAYMENT_NOT_FOUND))
	})
}

func TestOnlinePaymentRepository_UpdateVerification(t *testing.T) {
	p := newPayment()
	p.Status = StatusCompleted
	p.Verified = true
	p.AmountPaid = p.Amount

	t.Run("pending payment", func(t *testing.T) {
		repo, mock := newRepository(t)

		mock.ExpectPrepare(regexp.QuoteMeta("status IN ('pending', 'unknown')")).
			ExpectExec().
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdateVerification(context.Background(), p, nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already settled", func(t *testing.T) {
		repo, mock := newRepository(t)

		mock.ExpectPrepare(regexp.QuoteMeta("status IN ('pending', 'unknown')")).
			ExpectExec().
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateVerification(context.Background(), p, nil)
		assert.True(t, errors.HasStatus(err, status.CONFLICT))
	})
}

func TestOnlinePayment_IsFinal(t *testing.T) {
	for s, final := range map[string]bool{
		StatusPending:   false,
		StatusUnknown:   false,
		StatusCompleted: true,
		StatusFailed:    true,
		StatusAbandoned: true,
	} {
		assert.Equal(t, final, OnlinePayment{Status: s}.IsFinal(), s)
	}
}

package inventory

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hirestore/hs-order/pkg/errors"
	"github.com/hirestore/hs-order/pkg/status"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepository(t *testing.T) (InventoryRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger, _ := test.NewNullLogger()
	return NewInventoryRepository(logger, db), mock
}

func TestInventoryRepository_FindManyByProductIDsForUpdate(t *testing.T) {
	repo, mock := newRepository(t)

	now := time.Now()
	mock.ExpectPrepare(regexp.QuoteMeta("FOR UPDATE")).
		ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "track_quantity", "quantity", "reserved", "updated_at"}).
			AddRow(1, true, 10, 4, now).
			AddRow(2, false, 0, 0, now))

	data, err := repo.FindManyByProductIDsForUpdate(context.Background(), []int64{1, 2}, nil)
	require.NoError(t, err)
	require.Len(t, data, 2)
	assert.Equal(t, int64(6), data[0].Available())
	assert.False(t, data[1].TrackQuantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventoryRepository_Reserve(t *testing.T) {
	t.Run("enough stock", func(t *testing.T) {
		repo, mock := newRepository(t)

		mock.ExpectPrepare(regexp.QuoteMeta("reserved = reserved + $1")).
			ExpectExec().
			WithArgs(int64(2), int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Reserve(context.Background(), 1, 2, nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not enough stock", func(t *testing.T) {
		repo, mock := newRepository(t)

		mock.ExpectPrepare(regexp.QuoteMeta("reserved = reserved + $1")).
			ExpectExec().
			WithArgs(int64(5), int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Reserve(context.Background(), 1, 5, nil)
		assert.True(t, errors.HasStatus(err, status.INSUFFICIENT_INVENTORY))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestInventoryRepository_Decrement(t *testing.T) {
	repo, mock := newRepository(t)

	mock.ExpectPrepare(regexp.QuoteMeta("quantity - reserved >= $1")).
		ExpectExec().
		WithArgs(int64(3), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Decrement(context.Background(), 7, 3, nil)
	assert.True(t, errors.HasStatus(err, status.INSUFFICIENT_INVENTORY))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventoryRepository_ReleaseAndCommit(t *testing.T) {
	repo, mock := newRepository(t)

	mock.ExpectPrepare(regexp.QuoteMeta("reserved = GREATEST(reserved - $1, 0)")).
		ExpectExec().
		WithArgs(int64(2), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectPrepare(regexp.QuoteMeta("quantity = quantity - $1")).
		ExpectExec().
		WithArgs(int64(2), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// untracked products affect no rows and are not an error
	assert.NoError(t, repo.Release(context.Background(), 1, 2, nil))
	assert.NoError(t, repo.CommitReservation(context.Background(), 1, 2, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

package discount

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/hirestore/hs-order/pkg/errors"
	"github.com/hirestore/hs-order/pkg/status"
	"github.com/sirupsen/logrus"
)

type DiscountRepository interface {
	FindByStoreIDAndCodeForUpdate(ctx context.Context, storeID int64, code string, tx *sql.Tx) (Discount, error)
	IncrementUsage(ctx context.Context, ID int64, tx *sql.Tx) error
}

type sqlCommand interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type discountRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewDiscountRepository(logger *logrus.Logger, db *sql.DB) DiscountRepository {
	return &discountRepository{
		logger: logger,
		db:     db,
	}
}

// FindByStoreIDAndCodeForUpdate implements DiscountRepository.
func (r *discountRepository) FindByStoreIDAndCodeForUpdate(ctx context.Context, storeID int64, code string, tx *sql.Tx) (Discount, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT
			id, store_id, code, type, value, min_purchase_vol, min_purchase_qty,
			usage_limit, usage_count, platform, status, start_date, end_date
		FROM discounts
		WHERE
			store_id = $1
		AND
			code = $2
		FOR UPDATE
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Discount{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting discount's properties")
	}
	defer stmt.Close()

	row := stmt.QueryRowContext(ctx, storeID, code)

	var data Discount
	var discountType string
	err = row.Scan(
		&data.ID, &data.StoreID, &data.Code, &discountType, &data.Value, &data.MinPurchaseVol, &data.MinPurchaseQty,
		&data.UsageLimit, &data.UsageCount, &data.Platform, &data.Status, &data.StartDate, &data.EndDate,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return Discount{}, errors.New(http.StatusUnprocessableEntity, status.INVALID_DISCOUNT_CODE, "discount code is not valid")
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return Discount{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting discount's properties")
	}

	data.Type = Type(discountType)

	return data, nil
}

// IncrementUsage implements DiscountRepository.
func (r *discountRepository) IncrementUsage(ctx context.Context, ID int64, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE discounts
		SET
			usage_count = usage_count + 1,
			updated_at = NOW()
		WHERE
			id = $1
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating discount's usage")
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, ID); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating discount's usage")
	}

	return nil
}

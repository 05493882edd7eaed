package store

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/hirestore/hs-order/pkg/errors"
	"github.com/hirestore/hs-order/pkg/status"
	"github.com/sirupsen/logrus"
)

type StoreRepository interface {
	// FindActiveByID returns the store's order settings. Unknown or
	// inactive stores are reported as STORE_NOT_FOUND.
	FindActiveByID(ctx context.Context, ID int64, tx *sql.Tx) (Store, error)
}

type sqlCommand interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type storeRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewStoreRepository(logger *logrus.Logger, db *sql.DB) StoreRepository {
	return &storeRepository{
		logger: logger,
		db:     db,
	}
}

// FindActiveByID implements StoreRepository.
func (r *storeRepository) FindActiveByID(ctx context.Context, ID int64, tx *sql.Tx) (Store, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT
			id, store_name, currency_code, country_code, region_code,
			apply_vat, vat_percent, apply_service_charge, service_charge_type, service_charge, status
		FROM stores
		WHERE
			id = $1
		AND
			status = $2
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Store{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting store's properties")
	}
	defer stmt.Close()

	row := stmt.QueryRowContext(ctx, ID, StatusActive)

	var data Store
	var chargeType string
	err = row.Scan(
		&data.ID, &data.Name, &data.CurrencyCode, &data.CountryCode, &data.RegionCode,
		&data.ApplyVAT, &data.VATPercent, &data.ApplyServiceCharge, &chargeType, &data.ServiceCharge, &data.Status,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return Store{}, errors.New(http.StatusNotFound, status.STORE_NOT_FOUND, "store is not found")
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return Store{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting store's properties")
	}

	data.ServiceChargeType = ServiceChargeType(chargeType)

	return data, nil
}

package gateway

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/hirestore/hs-order/pkg/errors"
	"github.com/hirestore/hs-order/pkg/status"
	"github.com/sirupsen/logrus"
)

type PaymentGatewayRepository interface {
	FindActiveByCodeAndCurrency(ctx context.Context, code, currencyCode string, tx *sql.Tx) (PaymentGateway, error)
	FindActiveByCode(ctx context.Context, code string, tx *sql.Tx) (PaymentGateway, error)
	// FindActiveForCurrency prefers a gateway configured for the currency and
	// falls back to the default gateway.
	FindActiveForCurrency(ctx context.Context, currencyCode string, tx *sql.Tx) (PaymentGateway, error)
}

type sqlCommand interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type paymentGatewayRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewPaymentGatewayRepository(logger *logrus.Logger, db *sql.DB) PaymentGatewayRepository {
	return &paymentGatewayRepository{
		logger: logger,
		db:     db,
	}
}

const selectColumns = `
	id, code, name, currency_code, status, is_default,
	live_secret_key, live_public_key, test_secret_key, test_public_key,
	pass_charges, percent, surcharge, capped_at
`

// FindActiveByCodeAndCurrency implements PaymentGatewayRepository.
func (r *paymentGatewayRepository) FindActiveByCodeAndCurrency(ctx context.Context, code, currencyCode string, tx *sql.Tx) (PaymentGateway, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM payment_gateways
		WHERE
			code = $1
		AND
			currency_code = $2
		AND
			status = 'active'
		LIMIT 1
	`

	return r.findOne(ctx, tx, query, code, currencyCode)
}

// FindActiveByCode implements PaymentGatewayRepository.
func (r *paymentGatewayRepository) FindActiveByCode(ctx context.Context, code string, tx *sql.Tx) (PaymentGateway, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM payment_gateways
		WHERE
			code = $1
		AND
			status = 'active'
		ORDER BY is_default DESC, id
		LIMIT 1
	`

	return r.findOne(ctx, tx, query, code)
}

// FindActiveForCurrency implements PaymentGatewayRepository.
func (r *paymentGatewayRepository) FindActiveForCurrency(ctx context.Context, currencyCode string, tx *sql.Tx) (PaymentGateway, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM payment_gateways
		WHERE
			status = 'active'
		AND
			(currency_code = $1 OR is_default)
		ORDER BY (currency_code = $1) DESC, is_default DESC, id
		LIMIT 1
	`

	return r.findOne(ctx, tx, query, currencyCode)
}

func (r *paymentGatewayRepository) findOne(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) (PaymentGateway, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return PaymentGateway{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting payment gateway's properties")
	}
	defer stmt.Close()

	row := stmt.QueryRowContext(ctx, args...)

	var data PaymentGateway
	var liveSecret, livePublic, testSecret, testPublic sql.NullString
	err = row.Scan(
		&data.ID, &data.Code, &data.Name, &data.CurrencyCode, &data.Status, &data.IsDefault,
		&liveSecret, &livePublic, &testSecret, &testPublic,
		&data.PassCharges, &data.Percent, &data.Surcharge, &data.CappedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return PaymentGateway{}, errors.New(http.StatusUnprocessableEntity, status.GATEWAY_INACTIVE, "no active payment gateway is available")
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return PaymentGateway{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting payment gateway's properties")
	}

	data.LiveSecretKey = liveSecret.String
	data.LivePublicKey = livePublic.String
	data.TestSecretKey = testSecret.String
	data.TestPublicKey = testPublic.String

	return data, nil
}

package payment

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/hirestore/hs-order/pkg/errors"
	"github.com/hirestore/hs-order/pkg/postgresql"
	"github.com/hirestore/hs-order/pkg/status"
	"github.com/sirupsen/logrus"
)

type OnlinePaymentRepository interface {
	// Save returns a CONFLICT error when the reference is already taken.
	Save(ctx context.Context, p OnlinePayment, tx *sql.Tx) (int64, error)
	FindByReference(ctx context.Context, reference string, tx *sql.Tx) (OnlinePayment, error)
	FindByReferenceForUpdate(ctx context.Context, reference string, tx *sql.Tx) (OnlinePayment, error)
	FindManyByOrderID(ctx context.Context, orderID int64, tx *sql.Tx) ([]OnlinePayment, error)
	// UpdateVerification records a verification outcome. Only pending or
	// unknown payments are updated; anything else is a CONFLICT.
	UpdateVerification(ctx context.Context, p OnlinePayment, tx *sql.Tx) error
	UpdatePaymentLink(ctx context.Context, reference, link string, tx *sql.Tx) error
	// MarkFailed fails a payment that is still pending.
	MarkFailed(ctx context.Context, reference, reason string, tx *sql.Tx) error
}

type sqlCommand interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type onlinePaymentRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewOnlinePaymentRepository(logger *logrus.Logger, db *sql.DB) OnlinePaymentRepository {
	return &onlinePaymentRepository{
		logger: logger,
		db:     db,
	}
}

const selectColumns = `
	id, reference, order_id, store_id, gateway_code, customer_id, customer_email, currency_code,
	amount, amount_paid, pass_charges, gateway_fee, status, verified, verified_at,
	gateway_reference, gateway_response, payment_link, initiated, created_at, updated_at
`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scan(s scanner) (OnlinePayment, error) {
	var p OnlinePayment
	var verifiedAt sql.NullTime
	var gatewayReference, gatewayResponse, paymentLink sql.NullString

	err := s.Scan(
		&p.ID, &p.Reference, &p.OrderID, &p.StoreID, &p.GatewayCode, &p.CustomerID, &p.CustomerEmail, &p.CurrencyCode,
		&p.Amount, &p.AmountPaid, &p.PassCharges, &p.GatewayFee, &p.Status, &p.Verified, &verifiedAt,
		&gatewayReference, &gatewayResponse, &paymentLink, &p.Initiated, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return OnlinePayment{}, err
	}

	if verifiedAt.Valid {
		p.VerifiedAt = &verifiedAt.Time
	}
	if paymentLink.Valid {
		p.PaymentLink = &paymentLink.String
	}
	p.GatewayReference = gatewayReference.String
	p.GatewayResponse = gatewayResponse.String

	return p, nil
}

// Save implements OnlinePaymentRepository.
func (r *onlinePaymentRepository) Save(ctx context.Context, p OnlinePayment, tx *sql.Tx) (int64, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		INSERT INTO online_payments (
			reference, order_id, store_id, gateway_code, customer_id, customer_email, currency_code,
			amount, amount_paid, pass_charges, gateway_fee, status, verified, initiated, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving online payment's properties")
	}
	defer stmt.Close()

	var ID int64
	err = stmt.QueryRowContext(ctx,
		p.Reference, p.OrderID, p.StoreID, p.GatewayCode, p.CustomerID, p.CustomerEmail, p.CurrencyCode,
		p.Amount, p.AmountPaid, p.PassCharges, p.GatewayFee, p.Status, p.Verified, p.Initiated, p.CreatedAt, p.UpdatedAt,
	).Scan(&ID)
	if err != nil {
		if postgresql.IsUniqueViolation(err) {
			r.logger.WithContext(ctx).WithField("reference", p.Reference).Warn("payment reference is already taken")
			return 0, errors.New(http.StatusConflict, status.CONFLICT, "payment reference is already taken")
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving online payment's properties")
	}

	return ID, nil
}

// FindByReference implements OnlinePaymentRepository.
func (r *onlinePaymentRepository) FindByReference(ctx context.Context, reference string, tx *sql.Tx) (OnlinePayment, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM online_payments
		WHERE
			reference = $1
	`

	return r.findOne(ctx, tx, query, reference)
}

// FindByReferenceForUpdate implements OnlinePaymentRepository.
func (r *onlinePaymentRepository) FindByReferenceForUpdate(ctx context.Context, reference string, tx *sql.Tx) (OnlinePayment, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM online_payments
		WHERE
			reference = $1
		FOR UPDATE
	`

	return r.findOne(ctx, tx, query, reference)
}

func (r *onlinePaymentRepository) findOne(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) (OnlinePayment, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return OnlinePayment{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting online payment's properties")
	}
	defer stmt.Close()

	p, err := scan(stmt.QueryRowContext(ctx, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return OnlinePayment{}, errors.New(http.StatusNotFound, status.PAYMENT_NOT_FOUND, "payment is not found")
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return OnlinePayment{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting online payment's properties")
	}

	return p, nil
}

// FindManyByOrderID implements OnlinePaymentRepository.
func (r *onlinePaymentRepository) FindManyByOrderID(ctx context.Context, orderID int64, tx *sql.Tx) ([]OnlinePayment, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT ` + selectColumns + `
		FROM online_payments
		WHERE
			order_id = $1
		ORDER BY id
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of online payment's properties")
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, orderID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of online payment's properties")
	}
	defer rows.Close()

	var data = make([]OnlinePayment, 0)
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of online payment's properties")
		}
		data = append(data, p)
	}

	return data, nil
}

// UpdateVerification implements OnlinePaymentRepository.
func (r *onlinePaymentRepository) UpdateVerification(ctx context.Context, p OnlinePayment, tx *sql.Tx) error {
	query := `
		UPDATE online_payments
		SET
			status = $1,
			verified = $2,
			verified_at = $3,
			amount_paid = $4,
			gateway_reference = $5,
			gateway_response = $6,
			updated_at = $7
		WHERE
			reference = $8
		AND
			status IN ('pending', 'unknown')
	`

	affected, err := r.exec(ctx, tx, query, "an error occurred while updating online payment's verification",
		p.Status, p.Verified, p.VerifiedAt, p.AmountPaid, p.GatewayReference, p.GatewayResponse, p.UpdatedAt, p.Reference,
	)
	if err != nil {
		return err
	}

	if affected == 0 {
		return errors.New(http.StatusConflict, status.CONFLICT, "payment has already been settled")
	}

	return nil
}

// UpdatePaymentLink implements OnlinePaymentRepository.
func (r *onlinePaymentRepository) UpdatePaymentLink(ctx context.Context, reference, link string, tx *sql.Tx) error {
	query := `
		UPDATE online_payments
		SET
			payment_link = $1,
			updated_at = $2
		WHERE
			reference = $3
	`

	_, err := r.exec(ctx, tx, query, "an error occurred while updating online payment's link", link, time.Now(), reference)
	return err
}

// MarkFailed implements OnlinePaymentRepository.
func (r *onlinePaymentRepository) MarkFailed(ctx context.Context, reference, reason string, tx *sql.Tx) error {
	query := `
		UPDATE online_payments
		SET
			status = 'failed',
			gateway_response = $1,
			updated_at = $2
		WHERE
			reference = $3
		AND
			status = 'pending'
	`

	_, err := r.exec(ctx, tx, query, "an error occurred while failing online payment", reason, time.Now(), reference)
	return err
}

func (r *onlinePaymentRepository) exec(ctx context.Context, tx *sql.Tx, query, message string, args ...interface{}) (int64, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, message)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, message)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, message)
	}

	return affected, nil
}

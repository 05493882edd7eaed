package order

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/hirestore/hs-order/pkg/errors"
	"github.com/hirestore/hs-order/pkg/postgresql"
	"github.com/hirestore/hs-order/pkg/status"
	"github.com/sirupsen/logrus"
)

type OrderRepository interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)
	CommitTx(ctx context.Context, tx *sql.Tx) error
	Rollback(ctx context.Context, tx *sql.Tx) error
	Savepoint(ctx context.Context, name string, tx *sql.Tx) error
	RollbackToSavepoint(ctx context.Context, name string, tx *sql.Tx) error
	ReleaseSavepoint(ctx context.Context, name string, tx *sql.Tx) error

	// Save returns a CONFLICT error when the reference is already taken.
	Save(ctx context.Context, o Order, tx *sql.Tx) (int64, error)
	FindByID(ctx context.Context, ID int64, tx *sql.Tx) (Order, error)
	FindByIDForUpdate(ctx context.Context, ID int64, tx *sql.Tx) (Order, error)
	FindByReference(ctx context.Context, reference string, tx *sql.Tx) (Order, error)
	// FindMany lists the customer's orders that are no longer staged.
	FindMany(ctx context.Context, customerID int64, orderStatus string, offset, limit int64, tx *sql.Tx) ([]Order, error)
	Count(ctx context.Context, customerID int64, orderStatus string, tx *sql.Tx) (int64, error)
	UpdateSettlement(ctx context.Context, o Order, tx *sql.Tx) error
}

type sqlCommand interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type orderRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewOrderRepository(logger *logrus.Logger, db *sql.DB) OrderRepository {
	return &orderRepository{
		logger: logger,
		db:     db,
	}
}

const orderColumns = `
	id, reference, store_id, order_desc, discount_code, platform, currency_code,
	payment_option, delivery_option, customer_id, customer_email, total_qty,
	subtotal, total_discount, loyalty_discount, service_charge, gateway_fee, vat,
	total, total_paid, balance, status, staged, inventory_state, created_at, updated_at
`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(s scanner) (Order, error) {
	var o Order
	var discountCode, inventoryState sql.NullString

	err := s.Scan(
		&o.ID, &o.Reference, &o.StoreID, &o.Description, &discountCode, &o.Platform, &o.CurrencyCode,
		&o.PaymentOption, &o.DeliveryOption, &o.CustomerID, &o.CustomerEmail, &o.TotalQty,
		&o.Subtotal, &o.TotalDiscount, &o.LoyaltyDiscount, &o.ServiceCharge, &o.GatewayFee, &o.VAT,
		&o.Total, &o.TotalPaid, &o.Balance, &o.Status, &o.Staged, &inventoryState, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return Order{}, err
	}

	if discountCode.Valid {
		o.DiscountCode = &discountCode.String
	}
	o.InventoryState = inventoryState.String

	return o, nil
}

// BeginTx implements OrderRepository.
func (r *orderRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to begin transaction")
	}

	return tx, nil
}

// CommitTx implements OrderRepository.
func (r *orderRepository) CommitTx(ctx context.Context, tx *sql.Tx) error {
	if err := tx.Commit(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to commit transaction")
	}

	return nil
}

// Rollback implements OrderRepository.
func (r *orderRepository) Rollback(ctx context.Context, tx *sql.Tx) error {
	if tx == nil {
		return nil
	}

	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to rollback transaction")
	}

	return nil
}

// Savepoint implements OrderRepository.
func (r *orderRepository) Savepoint(ctx context.Context, name string, tx *sql.Tx) error {
	return r.savepoint(ctx, tx, "SAVEPOINT "+name)
}

// RollbackToSavepoint implements OrderRepository.
func (r *orderRepository) RollbackToSavepoint(ctx context.Context, name string, tx *sql.Tx) error {
	return r.savepoint(ctx, tx, "ROLLBACK TO SAVEPOINT "+name)
}

// ReleaseSavepoint implements OrderRepository.
func (r *orderRepository) ReleaseSavepoint(ctx context.Context, name string, tx *sql.Tx) error {
	return r.savepoint(ctx, tx, "RELEASE SAVEPOINT "+name)
}

func (r *orderRepository) savepoint(ctx context.Context, tx *sql.Tx, query string) error {
	if tx == nil {
		return nil
	}

	if _, err := tx.ExecContext(ctx, query); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to manage savepoint")
	}

	return nil
}

// Save implements OrderRepository.
func (r *orderRepository) Save(ctx context.Context, o Order, tx *sql.Tx) (int64, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		INSERT INTO orders
		(
			reference, store_id, order_desc, discount_code, platform, currency_code,
			payment_option, delivery_option, customer_id, customer_email, total_qty,
			subtotal, total_discount, loyalty_discount, service_charge, gateway_fee, vat,
			total, total_paid, balance, status, staged, inventory_state, created_at, updated_at
		)
		VALUES
		(
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25
		)
		RETURNING id
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving order's properties")
	}
	defer stmt.Close()

	var discountCode, inventoryState sql.NullString
	if o.DiscountCode != nil {
		discountCode = sql.NullString{String: *o.DiscountCode, Valid: true}
	}
	if o.InventoryState != "" {
		inventoryState = sql.NullString{String: o.InventoryState, Valid: true}
	}

	var ID int64
	err = stmt.QueryRowContext(ctx,
		o.Reference, o.StoreID, o.Description, discountCode, o.Platform, o.CurrencyCode,
		o.PaymentOption, o.DeliveryOption, o.CustomerID, o.CustomerEmail, o.TotalQty,
		o.Subtotal, o.TotalDiscount, o.LoyaltyDiscount, o.ServiceCharge, o.GatewayFee, o.VAT,
		o.Total, o.TotalPaid, o.Balance, o.Status, o.Staged, inventoryState, o.CreatedAt, o.UpdatedAt,
	).Scan(&ID)
	if err != nil {
		if postgresql.IsUniqueViolation(err) {
			r.logger.WithContext(ctx).WithField("reference", o.Reference).Warn("order reference is already taken")
			return 0, errors.New(http.StatusConflict, status.CONFLICT, "order reference is already taken")
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving order's properties")
	}

	return ID, nil
}

// FindByID implements OrderRepository.
func (r *orderRepository) FindByID(ctx context.Context, ID int64, tx *sql.Tx) (Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE
			id = $1
	`

	return r.findOne(ctx, tx, query, fmt.Sprintf("order with id '%d' is not found", ID), ID)
}

// FindByIDForUpdate implements OrderRepository.
func (r *orderRepository) FindByIDForUpdate(ctx context.Context, ID int64, tx *sql.Tx) (Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE
			id = $1
		FOR UPDATE
	`

	return r.findOne(ctx, tx, query, fmt.Sprintf("order with id '%d' is not found", ID), ID)
}

// FindByReference implements OrderRepository.
func (r *orderRepository) FindByReference(ctx context.Context, reference string, tx *sql.Tx) (Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE
			reference = $1
	`

	return r.findOne(ctx, tx, query, fmt.Sprintf("order '%s' is not found", reference), reference)
}

func (r *orderRepository) findOne(ctx context.Context, tx *sql.Tx, query, notFound string, args ...interface{}) (Order, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Order{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting order's properties")
	}
	defer stmt.Close()

	o, err := scanOrder(stmt.QueryRowContext(ctx, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return Order{}, errors.New(http.StatusNotFound, status.ORDER_NOT_FOUND, notFound)
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return Order{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting order's properties")
	}

	return o, nil
}

// FindMany implements OrderRepository.
func (r *orderRepository) FindMany(ctx context.Context, customerID int64, orderStatus string, offset, limit int64, tx *sql.Tx) ([]Order, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE
			customer_id = $1
		AND
			NOT staged
		AND
			($2 = '' OR status = $2)
		ORDER BY id DESC
		OFFSET $3
		LIMIT $4
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of order's properties")
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, customerID, orderStatus, offset, limit)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of order's properties")
	}
	defer rows.Close()

	var data = make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of order's properties")
		}
		data = append(data, o)
	}

	return data, nil
}

// Count implements OrderRepository.
func (r *orderRepository) Count(ctx context.Context, customerID int64, orderStatus string, tx *sql.Tx) (int64, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT count(id)
		FROM orders
		WHERE
			customer_id = $1
		AND
			NOT staged
		AND
			($2 = '' OR status = $2)
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while counting order's properties")
	}
	defer stmt.Close()

	var count int64
	if err := stmt.QueryRowContext(ctx, customerID, orderStatus).Scan(&count); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while counting order's properties")
	}

	return count, nil
}

// UpdateSettlement implements OrderRepository.
func (r *orderRepository) UpdateSettlement(ctx context.Context, o Order, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE orders
		SET
			status = $1,
			staged = $2,
			total_paid = $3,
			balance = $4,
			inventory_state = $5,
			updated_at = $6
		WHERE
			id = $7
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating order's properties")
	}
	defer stmt.Close()

	var inventoryState sql.NullString
	if o.InventoryState != "" {
		inventoryState = sql.NullString{String: o.InventoryState, Valid: true}
	}

	_, err = stmt.ExecContext(ctx, o.Status, o.Staged, o.TotalPaid, o.Balance, inventoryState, o.UpdatedAt, o.ID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating order's properties")
	}

	return nil
}

package order

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/hirestore/hs-order/pkg/errors"
	"github.com/hirestore/hs-order/pkg/status"
	"github.com/sirupsen/logrus"
)

type OrderRepository interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)
	CommitTx(ctx context.Context, tx *sql.Tx) error
	Rollback(ctx context.Context, tx *sql.Tx) error
	// FindManyByStoreID lists the store's orders that are no longer staged.
	FindManyByStoreID(ctx context.Context, storeID int64, orderStatus string, offset, limit int64, tx *sql.Tx) ([]Order, error)
	CountByStoreID(ctx context.Context, storeID int64, orderStatus string, tx *sql.Tx) (int64, error)
	// FindByStoreIDAndReference hides staged orders like FindManyByStoreID.
	FindByStoreIDAndReference(ctx context.Context, storeID int64, reference string, tx *sql.Tx) (Order, error)
	FindByStoreIDAndReferenceForUpdate(ctx context.Context, storeID int64, reference string, tx *sql.Tx) (Order, error)
	FindItemsByOrderID(ctx context.Context, orderID int64, tx *sql.Tx) ([]Item, error)
	// UpdateStatus moves the order only while it still has status from.
	UpdateStatus(ctx context.Context, ID int64, from, to string, at time.Time, tx *sql.Tx) error
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
	id, reference, store_id, order_desc, currency_code, payment_option, delivery_option,
	customer_id, customer_email, total_qty, total, total_paid, balance, status, staged,
	created_at, updated_at
`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(s scanner) (Order, error) {
	var o Order
	err := s.Scan(
		&o.ID, &o.Reference, &o.StoreID, &o.Description, &o.CurrencyCode, &o.PaymentOption, &o.DeliveryOption,
		&o.CustomerID, &o.CustomerEmail, &o.TotalQty, &o.Total, &o.TotalPaid, &o.Balance, &o.Status, &o.Staged,
		&o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
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

// FindManyByStoreID implements OrderRepository.
func (r *orderRepository) FindManyByStoreID(ctx context.Context, storeID int64, orderStatus string, offset, limit int64, tx *sql.Tx) ([]Order, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE
			store_id = $1
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

	rows, err := stmt.QueryContext(ctx, storeID, orderStatus, offset, limit)
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

// CountByStoreID implements OrderRepository.
func (r *orderRepository) CountByStoreID(ctx context.Context, storeID int64, orderStatus string, tx *sql.Tx) (int64, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT count(id)
		FROM orders
		WHERE
			store_id = $1
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
	if err := stmt.QueryRowContext(ctx, storeID, orderStatus).Scan(&count); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while counting order's properties")
	}

	return count, nil
}

// FindByStoreIDAndReference implements OrderRepository.
func (r *orderRepository) FindByStoreIDAndReference(ctx context.Context, storeID int64, reference string, tx *sql.Tx) (Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE
			store_id = $1
		AND
			reference = $2
		AND
			NOT staged
	`

	return r.findOne(ctx, query, storeID, reference, tx)
}

// FindByStoreIDAndReferenceForUpdate implements OrderRepository.
func (r *orderRepository) FindByStoreIDAndReferenceForUpdate(ctx context.Context, storeID int64, reference string, tx *sql.Tx) (Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE
			store_id = $1
		AND
			reference = $2
		FOR UPDATE
	`

	return r.findOne(ctx, query, storeID, reference, tx)
}

func (r *orderRepository) findOne(ctx context.Context, query string, storeID int64, reference string, tx *sql.Tx) (Order, error) {
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

	o, err := scanOrder(stmt.QueryRowContext(ctx, storeID, reference))
	if err != nil {
		if err == sql.ErrNoRows {
			return Order{}, errors.New(http.StatusNotFound, status.ORDER_NOT_FOUND, fmt.Sprintf("order '%s' is not found", reference))
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return Order{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting order's properties")
	}

	return o, nil
}

// UpdateStatus implements OrderRepository.
func (r *orderRepository) UpdateStatus(ctx context.Context, ID int64, from, to string, at time.Time, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE orders
		SET
			status = $1,
			updated_at = $2
		WHERE
			id = $3
		AND
			status = $4
		AND
			NOT staged
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating order's status")
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, to, at, ID, from)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating order's status")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating order's status")
	}

	if affected == 0 {
		return errors.New(http.StatusConflict, status.INVALID_STATUS_TRANSITION, fmt.Sprintf("order is no longer %s", from))
	}

	return nil
}

// FindItemsByOrderID implements OrderRepository.
func (r *orderRepository) FindItemsByOrderID(ctx context.Context, orderID int64, tx *sql.Tx) ([]Item, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT
			product_id, product_name, product_barcode, price, quantity, vat
		FROM order_items
		WHERE
			order_id = $1
		ORDER BY id
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of order item's properties")
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, orderID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of order item's properties")
	}
	defer rows.Close()

	var data = make([]Item, 0)
	for rows.Next() {
		var i Item
		var barcode sql.NullString

		if err := rows.Scan(&i.ProductID, &i.ProductName, &barcode, &i.Price, &i.Quantity, &i.VAT); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of order item's properties")
		}
		i.ProductBarcode = barcode.String

		data = append(data, i)
	}

	if err := rows.Err(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of order item's properties")
	}

	return data, nil
}

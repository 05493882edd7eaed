package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/hirestore/hs-order/pkg/errors"
	"github.com/hirestore/hs-order/pkg/status"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

type InventoryRepository interface {
	FindManyByProductIDsForUpdate(ctx context.Context, productIDs []int64, tx *sql.Tx) ([]Inventory, error)
	// Decrement takes quantity out of stock immediately.
	// It fails when less than quantity is available.
	Decrement(ctx context.Context, productID, quantity int64, tx *sql.Tx) error
	// Reserve holds quantity for a staged order.
	// It fails when less than quantity is available.
	Reserve(ctx context.Context, productID, quantity int64, tx *sql.Tx) error
	Release(ctx context.Context, productID, quantity int64, tx *sql.Tx) error
	// CommitReservation turns a held quantity into a decrement.
	CommitReservation(ctx context.Context, productID, quantity int64, tx *sql.Tx) error
	// Deduct decrements without an availability check, for settled payments
	// whose reservation had already been released.
	Deduct(ctx context.Context, productID, quantity int64, tx *sql.Tx) error
}

type sqlCommand interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type inventoryRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewInventoryRepository(logger *logrus.Logger, db *sql.DB) InventoryRepository {
	return &inventoryRepository{
		logger: logger,
		db:     db,
	}
}

// FindManyByProductIDsForUpdate implements InventoryRepository.
func (r *inventoryRepository) FindManyByProductIDsForUpdate(ctx context.Context, productIDs []int64, tx *sql.Tx) ([]Inventory, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT
			product_id, track_quantity, quantity, reserved, updated_at
		FROM inventories
		WHERE
			product_id = ANY($1)
		ORDER BY product_id
		FOR UPDATE
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of inventory's properties for update")
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, pq.Array(productIDs))
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of inventory's properties for update")
	}
	defer rows.Close()

	var data = make([]Inventory, 0, len(productIDs))
	for rows.Next() {
		var inv Inventory
		if err := rows.Scan(&inv.ProductID, &inv.TrackQuantity, &inv.Quantity, &inv.Reserved, &inv.UpdatedAt); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of inventory's properties for update")
		}
		data = append(data, inv)
	}

	if err := rows.Err(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of inventory's properties for update")
	}

	return data, nil
}

// Decrement implements InventoryRepository.
func (r *inventoryRepository) Decrement(ctx context.Context, productID, quantity int64, tx *sql.Tx) error {
	query := `
		UPDATE inventories
		SET
			quantity = quantity - $1,
			updated_at = NOW()
		WHERE
			product_id = $2
		AND
			track_quantity
		AND
			quantity - reserved >= $1
	`

	affected, err := r.exec(ctx, tx, query, "decrementing", quantity, productID)
	if err != nil {
		return err
	}

	if affected == 0 {
		return errors.New(http.StatusConflict, status.INSUFFICIENT_INVENTORY, fmt.Sprintf("insufficient quantity for product %d", productID))
	}

	return nil
}

// Reserve implements InventoryRepository.
func (r *inventoryRepository) Reserve(ctx context.Context, productID, quantity int64, tx *sql.Tx) error {
	query := `
		UPDATE inventories
		SET
			reserved = reserved + $1,
			updated_at = NOW()
		WHERE
			product_id = $2
		AND
			track_quantity
		AND
			quantity - reserved >= $1
	`

	affected, err := r.exec(ctx, tx, query, "reserving", quantity, productID)
	if err != nil {
		return err
	}

	if affected == 0 {
		return errors.New(http.StatusConflict, status.INSUFFICIENT_INVENTORY, fmt.Sprintf("insufficient quantity for product %d", productID))
	}

	return nil
}

// Release implements InventoryRepository.
func (r *inventoryRepository) Release(ctx context.Context, productID, quantity int64, tx *sql.Tx) error {
	query := `
		UPDATE inventories
		SET
			reserved = GREATEST(reserved - $1, 0),
			updated_at = NOW()
		WHERE
			product_id = $2
		AND
			track_quantity
	`

	_, err := r.exec(ctx, tx, query, "releasing", quantity, productID)
	return err
}

// CommitReservation implements InventoryRepository.
func (r *inventoryRepository) CommitReservation(ctx context.Context, productID, quantity int64, tx *sql.Tx) error {
	query := `
		UPDATE inventories
		SET
			quantity = quantity - $1,
			reserved = GREATEST(reserved - $1, 0),
			updated_at = NOW()
		WHERE
			product_id = $2
		AND
			track_quantity
	`

	_, err := r.exec(ctx, tx, query, "committing", quantity, productID)
	return err
}

// Deduct implements InventoryRepository.
func (r *inventoryRepository) Deduct(ctx context.Context, productID, quantity int64, tx *sql.Tx) error {
	query := `
		UPDATE inventories
		SET
			quantity = quantity - $1,
			updated_at = NOW()
		WHERE
			product_id = $2
		AND
			track_quantity
	`

	_, err := r.exec(ctx, tx, query, "deducting", quantity, productID)
	return err
}

func (r *inventoryRepository) exec(ctx context.Context, tx *sql.Tx, query, action string, args ...interface{}) (int64, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	message := fmt.Sprintf("an error occurred while %s inventory's quantity", action)

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

package order

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"

	"github.com/hirestore/hs-order/pkg/errors"
	"github.com/hirestore/hs-order/pkg/status"
	"github.com/sirupsen/logrus"
)

type ItemRepository interface {
	FindManyByOrderID(ctx context.Context, orderID int64, tx *sql.Tx) ([]Item, error)
	// SaveMany inserts all items with a single statement.
	SaveMany(ctx context.Context, items []Item, tx *sql.Tx) error
}

type itemRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewItemRepository(logger *logrus.Logger, db *sql.DB) ItemRepository {
	return &itemRepository{
		logger: logger,
		db:     db,
	}
}

// FindManyByOrderID implements ItemRepository.
func (r *itemRepository) FindManyByOrderID(ctx context.Context, orderID int64, tx *sql.Tx) ([]Item, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT
			id, order_id, product_id, product_name, product_barcode, product_category_id,
			price, quantity, vat, on_sales, vat_exempted, created_at
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
		var categoryID sql.NullInt64

		if err := rows.Scan(
			&i.ID, &i.OrderID, &i.ProductID, &i.ProductName, &barcode, &categoryID,
			&i.Price, &i.Quantity, &i.VAT, &i.OnSales, &i.VATExempted, &i.CreatedAt,
		); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of order item's properties")
		}

		i.ProductBarcode = barcode.String
		if categoryID.Valid {
			i.ProductCategoryID = &categoryID.Int64
		}

		data = append(data, i)
	}

	return data, nil
}

// SaveMany implements ItemRepository.
func (r *itemRepository) SaveMany(ctx context.Context, items []Item, tx *sql.Tx) error {
	if len(items) == 0 {
		return nil
	}

	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	const columns = 11

	placeholders := make([]string, len(items))
	args := make([]interface{}, 0, len(items)*columns)

	for k, i := range items {
		p := make([]string, columns)
		for c := 0; c < columns; c++ {
			p[c] = fmt.Sprintf("$%d", k*columns+c+1)
		}
		placeholders[k] = "(" + strings.Join(p, ", ") + ")"

		var barcode sql.NullString
		var categoryID sql.NullInt64
		if i.ProductBarcode != "" {
			barcode = sql.NullString{String: i.ProductBarcode, Valid: true}
		}
		if i.ProductCategoryID != nil {
			categoryID = sql.NullInt64{Int64: *i.ProductCategoryID, Valid: true}
		}

		args = append(args,
			i.OrderID, i.ProductID, i.ProductName, barcode, categoryID,
			i.Price, i.Quantity, i.VAT, i.OnSales, i.VATExempted, i.CreatedAt,
		)
	}

	query := `
		INSERT INTO order_items
		(
			order_id, product_id, product_name, product_barcode, product_category_id,
			price, quantity, vat, on_sales, vat_exempted, created_at
		)
		VALUES ` + strings.Join(placeholders, ", ")

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving order item's properties")
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving order item's properties")
	}

	return nil
}

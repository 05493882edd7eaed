package product

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/hirestore/hs-order/pkg/errors"
	"github.com/hirestore/hs-order/pkg/status"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type ProductRepository interface {
	FindManyByIDs(ctx context.Context, storeID int64, IDs []int64, countryCode, regionCode string, tx *sql.Tx) ([]Product, error)
}

type sqlCommand interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type productRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewProductRepository(logger *logrus.Logger, db *sql.DB) ProductRepository {
	return &productRepository{
		logger: logger,
		db:     db,
	}
}

// FindManyByIDs implements ProductRepository. Only active products of the
// store are returned; the regional price is joined when one exists.
func (r *productRepository) FindManyByIDs(ctx context.Context, storeID int64, IDs []int64, countryCode, regionCode string, tx *sql.Tx) ([]Product, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT
			p.id, p.store_id, p.title, p.barcode, p.category_id, p.exempt_vat,
			pp.country_code, pp.region_code, pp.current_price, pp.sales_price, pp.on_sales
		FROM products p
		LEFT JOIN product_pricings pp
			ON pp.product_id = p.id
			AND pp.country_code = $3
			AND pp.region_code = $4
		WHERE
			p.store_id = $1
		AND
			p.id = ANY($2)
		AND
			p.status = 'active'
		AND
			p.deleted_at IS NULL
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of product's properties")
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, storeID, pq.Array(IDs), countryCode, regionCode)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of product's properties")
	}
	defer rows.Close()

	var data = make([]Product, 0, len(IDs))

	for rows.Next() {
		var p Product
		var barcode sql.NullString
		var categoryID sql.NullInt64
		var pricingCountry, pricingRegion sql.NullString
		var currentPrice, salesPrice decimal.NullDecimal
		var onSales sql.NullBool

		if err := rows.Scan(
			&p.ID, &p.StoreID, &p.Title, &barcode, &categoryID, &p.ExemptVAT,
			&pricingCountry, &pricingRegion, &currentPrice, &salesPrice, &onSales,
		); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of product's properties")
		}

		p.Barcode = barcode.String
		if categoryID.Valid {
			p.CategoryID = &categoryID.Int64
		}

		if currentPrice.Valid {
			p.Pricing = &Pricing{
				CountryCode:  pricingCountry.String,
				RegionCode:   pricingRegion.String,
				CurrentPrice: currentPrice.Decimal,
				SalesPrice:   salesPrice.Decimal,
				OnSales:      onSales.Bool,
			}
		}

		data = append(data, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of product's properties")
	}

	return data, nil
}

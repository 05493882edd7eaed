package discount

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/hirestore/hs-order/pkg/errors"
	"github.com/hirestore/hs-order/pkg/status"
	"github.com/shopspring/decimal"
)

type Type string

const (
	TypePercentage Type = "PERCENTAGE"
	TypeFixed      Type = "FIXED"
)

const (
	StatusActive   = "ACTIVE"
	StatusDisabled = "DISABLED"
	StatusExpired  = "EXPIRED"
)

type Discount struct {
	ID             int64
	StoreID        int64
	Code           string
	Type           Type
	Value          decimal.Decimal
	MinPurchaseVol decimal.NullDecimal
	MinPurchaseQty sql.NullInt64
	UsageLimit     sql.NullInt64
	UsageCount     int64
	Platform       sql.NullString
	Status         string
	StartDate      time.Time
	EndDate        sql.NullTime
}

// Rule is a resolved discount ready to be applied to a cart. The zero Rule
// applies no discount.
type Rule struct {
	DiscountID     int64
	Code           string
	Type           Type
	Value          decimal.Decimal
	MinPurchaseVol decimal.NullDecimal
	MinPurchaseQty sql.NullInt64
}

func (r Rule) IsZero() bool {
	return r.Code == ""
}

// Amount is the discount granted on subtotal for a cart of totalQty units.
// It never exceeds the subtotal.
func (r Rule) Amount(subtotal decimal.Decimal, totalQty int64) (decimal.Decimal, error) {
	if r.IsZero() {
		return decimal.Zero, nil
	}

	if r.Value.IsNegative() {
		return decimal.Zero, errors.New(http.StatusUnprocessableEntity, status.INVALID_DISCOUNT_CODE, "discount code has a negative value")
	}

	if r.MinPurchaseVol.Valid && subtotal.LessThan(r.MinPurchaseVol.Decimal) {
		return decimal.Zero, errors.New(http.StatusUnprocessableEntity, status.INVALID_DISCOUNT_CODE, "order does not reach the discount's minimum purchase volume")
	}

	if r.MinPurchaseQty.Valid && totalQty < r.MinPurchaseQty.Int64 {
		return decimal.Zero, errors.New(http.StatusUnprocessableEntity, status.INVALID_DISCOUNT_CODE, "order does not reach the discount's minimum purchase quantity")
	}

	var amount decimal.Decimal
	switch r.Type {
	case TypePercentage:
		if r.Value.GreaterThan(decimal.NewFromInt(100)) {
			return decimal.Zero, errors.New(http.StatusUnprocessableEntity, status.INVALID_DISCOUNT_CODE, "discount percentage is over 100")
		}
		amount = subtotal.Mul(r.Value).Div(decimal.NewFromInt(100)).Round(2)
	case TypeFixed:
		amount = r.Value
	default:
		return decimal.Zero, errors.New(http.StatusUnprocessableEntity, status.INVALID_DISCOUNT_CODE, "discount type is not supported")
	}

	if amount.GreaterThan(subtotal) {
		amount = subtotal
	}

	return amount, nil
}

package discount

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/hirestore/hs-order/pkg/errors"
	"github.com/hirestore/hs-order/pkg/status"
)

type Query struct {
	StoreID  int64
	Code     string
	Platform string
	At       time.Time
}

// Resolver turns a discount code into a Rule. An empty code always resolves
// to the zero Rule.
type Resolver interface {
	Resolve(ctx context.Context, q Query, tx *sql.Tx) (Rule, error)
	// Redeem records one use of a rule within the order's transaction.
	Redeem(ctx context.Context, rule Rule, tx *sql.Tx) error
}

type noDiscountResolver struct{}

// NewNoDiscountResolver rejects every code.
func NewNoDiscountResolver() Resolver {
	return noDiscountResolver{}
}

func (noDiscountResolver) Resolve(ctx context.Context, q Query, tx *sql.Tx) (Rule, error) {
	if strings.TrimSpace(q.Code) == "" {
		return Rule{}, nil
	}
	return Rule{}, errors.New(http.StatusUnprocessableEntity, status.INVALID_DISCOUNT_CODE, "discount code is not valid")
}

func (noDiscountResolver) Redeem(ctx context.Context, rule Rule, tx *sql.Tx) error {
	return nil
}

type repositoryResolver struct {
	discountRepository DiscountRepository
}

func NewRepositoryResolver(discountRepository DiscountRepository) Resolver {
	return &repositoryResolver{
		discountRepository: discountRepository,
	}
}

func (r *repositoryResolver) Resolve(ctx context.Context, q Query, tx *sql.Tx) (Rule, error) {
	code := strings.TrimSpace(q.Code)
	if code == "" {
		return Rule{}, nil
	}

	d, err := r.discountRepository.FindByStoreIDAndCodeForUpdate(ctx, q.StoreID, code, tx)
	if err != nil {
		return Rule{}, err
	}

	if d.Status != StatusActive {
		return Rule{}, errors.New(http.StatusUnprocessableEntity, status.INVALID_DISCOUNT_CODE, "discount code is not active")
	}

	if q.At.Before(d.StartDate) || (d.EndDate.Valid && q.At.After(d.EndDate.Time)) {
		return Rule{}, errors.New(http.StatusUnprocessableEntity, status.INVALID_DISCOUNT_CODE, "discount code is not within its validity period")
	}

	if d.UsageLimit.Valid && d.UsageCount >= d.UsageLimit.Int64 {
		return Rule{}, errors.New(http.StatusUnprocessableEntity, status.INVALID_DISCOUNT_CODE, "discount code has reached its usage limit")
	}

	if d.Platform.Valid && d.Platform.String != "" && !strings.EqualFold(d.Platform.String, q.Platform) {
		return Rule{}, errors.New(http.StatusUnprocessableEntity, status.INVALID_DISCOUNT_CODE, "discount code is not available on this platform")
	}

	return Rule{
		DiscountID:     d.ID,
		Code:           d.Code,
		Type:           d.Type,
		Value:          d.Value,
		MinPurchaseVol: d.MinPurchaseVol,
		MinPurchaseQty: d.MinPurchaseQty,
	}, nil
}

func (r *repositoryResolver) Redeem(ctx context.Context, rule Rule, tx *sql.Tx) error {
	if rule.IsZero() {
		return nil
	}
	return r.discountRepository.IncrementUsage(ctx, rule.DiscountID, tx)
}

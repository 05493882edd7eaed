package paymentgateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hirestore/hs-order/pkg/errors"
	"github.com/hirestore/hs-order/pkg/status"
	"github.com/shopspring/decimal"
)

// Normalized transaction outcomes reported by adapters.
const (
	TransactionSuccess   = "success"
	TransactionFailed    = "failed"
	TransactionAbandoned = "abandoned"
	TransactionPending   = "pending"
)

type Credentials struct {
	SecretKey string
	PublicKey string
}

type LinkRequest struct {
	Credentials   Credentials
	Reference     string
	Amount        decimal.Decimal
	CurrencyCode  string
	CustomerEmail string
	CustomerName  string
	CallbackURL   string
}

type Verification struct {
	// Status is one of the Transaction* outcomes or the provider's own
	// status when it has no normalized equivalent.
	Status           string
	AmountPaid       decimal.Decimal
	GatewayReference string
	Raw              string
}

type Adapter interface {
	Code() string
	// ChargeAmount is amount as the provider collects it, rounded to the
	// unit the provider accepts.
	ChargeAmount(amount decimal.Decimal) decimal.Decimal
	CreatePaymentLink(ctx context.Context, req LinkRequest) (string, error)
	VerifyTransaction(ctx context.Context, creds Credentials, reference string) (Verification, error)
}

type Registry interface {
	Get(code string) (Adapter, error)
}

type registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) Registry {
	r := &registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Code()] = a
	}
	return r
}

// Get implements Registry.
func (r *registry) Get(code string) (Adapter, error) {
	a, ok := r.adapters[code]
	if !ok {
		return nil, errors.New(http.StatusUnprocessableEntity, status.UNSUPPORTED_GATEWAY, fmt.Sprintf("payment gateway %q is not supported", code))
	}
	return a, nil
}

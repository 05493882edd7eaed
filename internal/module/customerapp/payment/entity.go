package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusAbandoned = "abandoned"
	StatusUnknown   = "unknown"
)

// OnlinePayment is one attempt to collect money for an order through a
// gateway.
type OnlinePayment struct {
	ID               int64
	Reference        string
	OrderID          int64
	StoreID          int64
	GatewayCode      string
	CustomerID       int64
	CustomerEmail    string
	CurrencyCode     string
	Amount           decimal.Decimal
	AmountPaid       decimal.Decimal
	PassCharges      bool
	GatewayFee       decimal.Decimal
	Status           string
	Verified         bool
	VerifiedAt       *time.Time
	GatewayReference string
	GatewayResponse  string
	PaymentLink      *string
	Initiated        time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsFinal reports whether the payment has reached a terminal outcome.
// Unknown outcomes may be verified again.
func (p OnlinePayment) IsFinal() bool {
	switch p.Status {
	case StatusCompleted, StatusFailed, StatusAbandoned:
		return true
	}
	return false
}

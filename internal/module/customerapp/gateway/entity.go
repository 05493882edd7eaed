package gateway

import "github.com/shopspring/decimal"

const StatusActive = "active"

// PaymentGateway is a gateway configured for a currency along with the fee
// the platform passes on to the customer.
type PaymentGateway struct {
	ID            int64
	Code          string
	Name          string
	CurrencyCode  string
	Status        string
	IsDefault     bool
	LiveSecretKey string
	LivePublicKey string
	TestSecretKey string
	TestPublicKey string
	PassCharges   bool
	Percent       decimal.Decimal
	Surcharge     decimal.Decimal
	CappedAt      decimal.NullDecimal
}

func (g PaymentGateway) SecretKey(production bool) string {
	if production {
		return g.LiveSecretKey
	}
	return g.TestSecretKey
}

func (g PaymentGateway) PublicKey(production bool) string {
	if production {
		return g.LivePublicKey
	}
	return g.TestPublicKey
}

package store

import "github.com/shopspring/decimal"

type ServiceChargeType string

const (
	ServiceChargeFixed   ServiceChargeType = "fixed"
	ServiceChargePercent ServiceChargeType = "percent"
)

const StatusActive = "active"

type Store struct {
	ID                 int64
	Name               string
	CurrencyCode       string
	CountryCode        string
	RegionCode         string
	ApplyVAT           bool
	// VATPercent is a fraction, 0.075 for 7.5%.
	VATPercent         decimal.Decimal
	ApplyServiceCharge bool
	ServiceChargeType  ServiceChargeType
	ServiceCharge      decimal.Decimal
	Status             string
}

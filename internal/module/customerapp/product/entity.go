package product

import "github.com/shopspring/decimal"

type Product struct {
	ID         int64
	StoreID    int64
	Title      string
	Barcode    string
	CategoryID *int64
	ExemptVAT  bool
	// Pricing is nil when the product has no price for the requested region.
	Pricing *Pricing
}

type Pricing struct {
	CountryCode  string
	RegionCode   string
	CurrentPrice decimal.Decimal
	SalesPrice   decimal.Decimal
	OnSales      bool
}

// UnitPrice is the sale price while the product is on sale.
func (p Pricing) UnitPrice() decimal.Decimal {
	if p.OnSales {
		return p.SalesPrice
	}
	return p.CurrentPrice
}

package order

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusStaged    = "staged"
	StatusNew       = "new"
	StatusConfirmed = "confirmed"
	StatusShipped   = "shipped"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

// transitions lists the statuses a store owner may move an order to.
var transitions = map[string][]string{
	StatusNew:       {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered},
}

func CanTransition(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Order struct {
	ID             int64
	Reference      string
	StoreID        int64
	Description    string
	CurrencyCode   string
	PaymentOption  string
	DeliveryOption string
	CustomerID     int64
	CustomerEmail  string
	TotalQty       int64
	Total          decimal.Decimal
	TotalPaid      decimal.Decimal
	Balance        decimal.Decimal
	Status         string
	Staged         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Items          []Item
}

type Item struct {
	ProductID      int64
	ProductName    string
	ProductBarcode string
	Price          decimal.Decimal
	Quantity       int64
	VAT            decimal.Decimal
}

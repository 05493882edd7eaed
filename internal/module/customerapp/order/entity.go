package order

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentOptionInstant       = "instant"
	PaymentOptionPayOnDelivery = "pod"
)

const (
	StatusStaged    = "staged"
	StatusNew       = "new"
	StatusConfirmed = "confirmed"
	StatusShipped   = "shipped"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

// Inventory states track which stock adjustment an order has made so each
// transition happens once.
const (
	InventoryReserved  = "reserved"
	InventoryCommitted = "committed"
	InventoryReleased  = "released"
)

type Order struct {
	ID              int64
	Reference       string
	StoreID         int64
	Description     string
	DiscountCode    *string
	Platform        string
	CurrencyCode    string
	PaymentOption   string
	DeliveryOption  string
	CustomerID      int64
	CustomerEmail   string
	TotalQty        int64
	Subtotal        decimal.Decimal
	TotalDiscount   decimal.Decimal
	LoyaltyDiscount decimal.Decimal
	ServiceCharge   decimal.Decimal
	GatewayFee      decimal.Decimal
	VAT             decimal.Decimal
	Total           decimal.Decimal
	TotalPaid       decimal.Decimal
	Balance         decimal.Decimal
	Status          string
	Staged          bool
	InventoryState  string
	Items           []Item
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ApplyPayment credits amount to the order and unstages it.
func (o *Order) ApplyPayment(amount decimal.Decimal, at time.Time) {
	o.TotalPaid = o.TotalPaid.Add(amount)
	o.Balance = o.Total.Sub(o.TotalPaid)
	if o.Staged {
		o.Staged = false
		o.Status = StatusNew
	}
	o.UpdatedAt = at
}

type Item struct {
	ID                int64
	OrderID           int64
	ProductID         int64
	ProductName       string
	ProductBarcode    string
	ProductCategoryID *int64
	Price             decimal.Decimal
	Quantity          int64
	VAT               decimal.Decimal
	OnSales           bool
	VATExempted       bool
	CreatedAt         time.Time
}

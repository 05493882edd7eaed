package order

import (
	"fmt"
	"net/http"

	"github.com/hirestore/hs-order/internal/module/customerapp/discount"
	"github.com/hirestore/hs-order/internal/module/customerapp/inventory"
	"github.com/hirestore/hs-order/internal/module/customerapp/product"
	"github.com/hirestore/hs-order/internal/module/customerapp/store"
	"github.com/hirestore/hs-order/internal/pkg/money"
	"github.com/hirestore/hs-order/pkg/errors"
	"github.com/hirestore/hs-order/pkg/status"
	"github.com/shopspring/decimal"
)

// Line is one requested product joined with its catalog and stock data.
type Line struct {
	ProductID     int64
	Name          string
	Barcode       string
	CategoryID    *int64
	Quantity      int64
	Pricing       *product.Pricing
	ExemptVAT     bool
	TrackQuantity bool
	Available     int64
}

type FeeConfig struct {
	ApplyVAT           bool
	VATPercent         decimal.Decimal
	ApplyServiceCharge bool
	ServiceChargeType  store.ServiceChargeType
	ServiceCharge      decimal.Decimal
}

type GatewayFeeConfig struct {
	PassCharges bool
	Percent     decimal.Decimal
	Surcharge   decimal.Decimal
	CappedAt    decimal.NullDecimal
}

type Cart struct {
	Lines         []Line
	Fees          FeeConfig
	GatewayFee    *GatewayFeeConfig
	PaymentOption string
	Discount      discount.Rule
}

// Totals is the itemized result of pricing a cart.
type Totals struct {
	TotalQty      int64
	Subtotal      decimal.Decimal
	TotalDiscount decimal.Decimal
	VAT           decimal.Decimal
	ServiceCharge decimal.Decimal
	GatewayFee    decimal.Decimal
	Total         decimal.Decimal
	Items         []Item
}

// BuildLines joins requested items with the products and inventories found
// for them. Products without an inventory row are not tracked.
func BuildLines(items []ItemRequest, products []product.Product, inventories []inventory.Inventory) ([]Line, error) {
	if len(products) != len(items) {
		return nil, errors.New(http.StatusUnprocessableEntity, status.PRODUCT_COUNT_MISMATCH, fmt.Sprintf("%d of %d requested products were found", len(products), len(items)))
	}

	productByID := make(map[int64]product.Product, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}

	inventoryByID := make(map[int64]inventory.Inventory, len(inventories))
	for _, inv := range inventories {
		inventoryByID[inv.ProductID] = inv
	}

	lines := make([]Line, 0, len(items))
	for _, item := range items {
		p, ok := productByID[item.ProductID]
		if !ok {
			return nil, errors.New(http.StatusUnprocessableEntity, status.PRODUCT_COUNT_MISMATCH, fmt.Sprintf("product %d is not found", item.ProductID))
		}

		line := Line{
			ProductID:  p.ID,
			Name:       p.Title,
			Barcode:    p.Barcode,
			CategoryID: p.CategoryID,
			Quantity:   item.Qty,
			Pricing:    p.Pricing,
			ExemptVAT:  p.ExemptVAT,
		}

		if inv, ok := inventoryByID[p.ID]; ok && inv.TrackQuantity {
			line.TrackQuantity = true
			line.Available = inv.Available()
		}

		lines = append(lines, line)
	}

	return lines, nil
}

// ComputeTotals prices a cart. It has no side effects.
func ComputeTotals(cart Cart) (Totals, error) {
	if err := validateFees(cart); err != nil {
		return Totals{}, err
	}

	totals := Totals{
		Subtotal: decimal.Zero,
		VAT:      decimal.Zero,
		Items:    make([]Item, 0, len(cart.Lines)),
	}

	for _, line := range cart.Lines {
		if line.Pricing == nil {
			return Totals{}, errors.New(http.StatusNotFound, status.PRODUCT_NOT_FOUND, fmt.Sprintf("product %q has no price in this region", line.Name))
		}

		if line.TrackQuantity && line.Available < line.Quantity {
			return Totals{}, errors.New(http.StatusConflict, status.INSUFFICIENT_INVENTORY, fmt.Sprintf("insufficient quantity for product %q", line.Name))
		}

		price := line.Pricing.UnitPrice()
		amount := money.Round(price.Mul(decimal.NewFromInt(line.Quantity)))

		vat := decimal.Zero
		if cart.Fees.ApplyVAT && !line.ExemptVAT {
			vat = money.Round(amount.Mul(cart.Fees.VATPercent))
		}

		totals.TotalQty += line.Quantity
		totals.Subtotal = totals.Subtotal.Add(amount)
		totals.VAT = totals.VAT.Add(vat)
		totals.Items = append(totals.Items, Item{
			ProductID:         line.ProductID,
			ProductName:       line.Name,
			ProductBarcode:    line.Barcode,
			ProductCategoryID: line.CategoryID,
			Price:             price,
			Quantity:          line.Quantity,
			VAT:               vat,
			OnSales:           line.Pricing.OnSales,
			VATExempted:       line.ExemptVAT,
		})
	}

	discountAmount, err := cart.Discount.Amount(totals.Subtotal, totals.TotalQty)
	if err != nil {
		return Totals{}, err
	}
	totals.TotalDiscount = discountAmount

	totals.ServiceCharge = decimal.Zero
	if cart.Fees.ApplyServiceCharge {
		switch cart.Fees.ServiceChargeType {
		case store.ServiceChargePercent:
			totals.ServiceCharge = money.Round(money.Percent(totals.Subtotal, cart.Fees.ServiceCharge))
		default:
			totals.ServiceCharge = money.Round(cart.Fees.ServiceCharge)
		}
	}

	totals.GatewayFee = decimal.Zero
	if cart.PaymentOption == PaymentOptionInstant && cart.GatewayFee != nil && cart.GatewayFee.PassCharges {
		fee := money.Percent(totals.Subtotal, cart.GatewayFee.Percent).Add(cart.GatewayFee.Surcharge)
		if cart.GatewayFee.CappedAt.Valid && fee.GreaterThan(cart.GatewayFee.CappedAt.Decimal) {
			fee = cart.GatewayFee.CappedAt.Decimal
		}
		totals.GatewayFee = money.Round(fee)
	}

	totals.Total = totals.Subtotal.
		Sub(totals.TotalDiscount).
		Add(totals.VAT).
		Add(totals.ServiceCharge).
		Add(totals.GatewayFee)

	return totals, nil
}

func validateFees(cart Cart) error {
	if cart.Fees.VATPercent.IsNegative() || cart.Fees.ServiceCharge.IsNegative() {
		return errors.New(http.StatusUnprocessableEntity, status.INVALID_FEE_CONFIGURATION, "store has a negative vat or service charge")
	}

	if cart.Fees.ApplyServiceCharge && cart.Fees.ServiceChargeType != store.ServiceChargeFixed && cart.Fees.ServiceChargeType != store.ServiceChargePercent {
		return errors.New(http.StatusUnprocessableEntity, status.INVALID_FEE_CONFIGURATION, fmt.Sprintf("service charge type %q is not supported", cart.Fees.ServiceChargeType))
	}

	if g := cart.GatewayFee; g != nil {
		if g.Percent.IsNegative() || g.Surcharge.IsNegative() || (g.CappedAt.Valid && g.CappedAt.Decimal.IsNegative()) {
			return errors.New(http.StatusUnprocessableEntity, status.INVALID_FEE_CONFIGURATION, "payment gateway has a negative fee")
		}
	}

	return nil
}

package order

import (
	"time"

	"github.com/hirestore/hs-order/internal/module/customerapp/payment"
)

type OrderResponse struct {
	Reference       string            `json:"reference"`
	StoreID         int64             `json:"store_id"`
	OrderDesc       string            `json:"order_desc"`
	DiscountCode    *string           `json:"discount_code"`
	Platform        string            `json:"platform"`
	CurrencyCode    string            `json:"currency_code"`
	PaymentOption   string            `json:"payment_option"`
	DeliveryOption  string            `json:"delivery_option"`
	CustomerID      int64             `json:"customer_id"`
	CustomerEmail   string            `json:"customer_email"`
	TotalQty        int64             `json:"total_qty"`
	Subtotal        float64           `json:"subtotal"`
	TotalDiscount   float64           `json:"total_discount"`
	LoyaltyDiscount float64           `json:"loyalty_discount"`
	ServiceCharge   float64           `json:"service_charge"`
	GatewayFee      float64           `json:"gateway_fee"`
	VAT             float64           `json:"vat"`
	Total           float64           `json:"total"`
	TotalPaid       float64           `json:"total_paid"`
	Balance         float64           `json:"balance"`
	Status          string            `json:"status"`
	Staged          bool              `json:"staged"`
	Items           []ItemResponse    `json:"items,omitempty"`
	Payments        []PaymentResponse `json:"payments,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func (r *OrderResponse) PopulateFromEntity(o Order) {
	r.Reference = o.Reference
	r.StoreID = o.StoreID
	r.OrderDesc = o.Description
	r.DiscountCode = o.DiscountCode
	r.Platform = o.Platform
	r.CurrencyCode = o.CurrencyCode
	r.PaymentOption = o.PaymentOption
	r.DeliveryOption = o.DeliveryOption
	r.CustomerID = o.CustomerID
	r.CustomerEmail = o.CustomerEmail
	r.TotalQty = o.TotalQty
	r.Subtotal = o.Subtotal.InexactFloat64()
	r.TotalDiscount = o.TotalDiscount.InexactFloat64()
	r.LoyaltyDiscount = o.LoyaltyDiscount.InexactFloat64()
	r.ServiceCharge = o.ServiceCharge.InexactFloat64()
	r.GatewayFee = o.GatewayFee.InexactFloat64()
	r.VAT = o.VAT.InexactFloat64()
	r.Total = o.Total.InexactFloat64()
	r.TotalPaid = o.TotalPaid.InexactFloat64()
	r.Balance = o.Balance.InexactFloat64()
	r.Status = o.Status
	r.Staged = o.Staged
	r.CreatedAt = o.CreatedAt
	r.UpdatedAt = o.UpdatedAt

	if len(o.Items) == 0 {
		return
	}

	itemsResponse := make([]ItemResponse, len(o.Items))
	for k, v := range o.Items {
		itemsResponse[k] = ItemResponse{
			ProductID:         v.ProductID,
			ProductName:       v.ProductName,
			ProductBarcode:    v.ProductBarcode,
			ProductCategoryID: v.ProductCategoryID,
			Price:             v.Price.InexactFloat64(),
			Quantity:          v.Quantity,
			VAT:               v.VAT.InexactFloat64(),
			OnSales:           v.OnSales,
			VATExempted:       v.VATExempted,
		}
	}
	r.Items = itemsResponse
}

type ItemResponse struct {
	ProductID         int64   `json:"product_id"`
	ProductName       string  `json:"product_name"`
	ProductBarcode    string  `json:"product_barcode"`
	ProductCategoryID *int64  `json:"product_category_id"`
	Price             float64 `json:"price"`
	Quantity          int64   `json:"quantity"`
	VAT               float64 `json:"vat"`
	OnSales           bool    `json:"on_sales"`
	VATExempted       bool    `json:"vat_exempted"`
}

type PaymentResponse struct {
	Reference     string    `json:"reference"`
	GatewayCode   string    `json:"gateway_code"`
	CustomerID    int64     `json:"customer_id"`
	CustomerEmail string    `json:"customer_email"`
	Initiated     time.Time `json:"initiated"`
	Amount        float64   `json:"amount"`
	CurrencyCode  string    `json:"currency_code"`
	Status        string    `json:"status,omitempty"`
	PaymentLink   *string   `json:"payment_link,omitempty"`
}

func (r *PaymentResponse) PopulateFromEntity(p payment.OnlinePayment) {
	r.Reference = p.Reference
	r.GatewayCode = p.GatewayCode
	r.CustomerID = p.CustomerID
	r.CustomerEmail = p.CustomerEmail
	r.Initiated = p.Initiated
	r.Amount = p.Amount.InexactFloat64()
	r.CurrencyCode = p.CurrencyCode
	r.Status = p.Status
	r.PaymentLink = p.PaymentLink
}

type PlaceOrderResponse struct {
	Order   OrderResponse    `json:"order"`
	Payment *PaymentResponse `json:"payment,omitempty"`
}

type GetManyOrderResponse []OrderResponse

type VerifyPaymentResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Order   *OrderResponse   `json:"order,omitempty"`
	Payment *PaymentResponse `json:"payment,omitempty"`
}

type InitializePaymentResponse struct {
	Success      bool    `json:"success"`
	Reference    string  `json:"reference"`
	Amount       float64 `json:"amount"`
	CurrencyCode string  `json:"currency_code"`
	GatewayCode  string  `json:"gateway_code"`
	PaymentLink  *string `json:"payment_link,omitempty"`
}

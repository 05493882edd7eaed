package order

import "time"

type ItemResponse struct {
	ProductID      int64   `json:"product_id"`
	ProductName    string  `json:"product_name"`
	ProductBarcode string  `json:"product_barcode"`
	Price          float64 `json:"price"`
	Quantity       int64   `json:"quantity"`
	VAT            float64 `json:"vat"`
}

type OrderResponse struct {
	Reference      string         `json:"reference"`
	StoreID        int64          `json:"store_id"`
	OrderDesc      string         `json:"order_desc"`
	CurrencyCode   string         `json:"currency_code"`
	PaymentOption  string         `json:"payment_option"`
	DeliveryOption string         `json:"delivery_option"`
	CustomerID     int64          `json:"customer_id"`
	CustomerEmail  string         `json:"customer_email"`
	TotalQty       int64          `json:"total_qty"`
	Total          float64        `json:"total"`
	TotalPaid      float64        `json:"total_paid"`
	Balance        float64        `json:"balance"`
	Status         string         `json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	Items          []ItemResponse `json:"items,omitempty"`
}

func (r *OrderResponse) PopulateFromEntity(o Order) {
	r.Reference = o.Reference
	r.StoreID = o.StoreID
	r.OrderDesc = o.Description
	r.CurrencyCode = o.CurrencyCode
	r.PaymentOption = o.PaymentOption
	r.DeliveryOption = o.DeliveryOption
	r.CustomerID = o.CustomerID
	r.CustomerEmail = o.CustomerEmail
	r.TotalQty = o.TotalQty
	r.Total = o.Total.InexactFloat64()
	r.TotalPaid = o.TotalPaid.InexactFloat64()
	r.Balance = o.Balance.InexactFloat64()
	r.Status = o.Status
	r.CreatedAt = o.CreatedAt
	r.UpdatedAt = o.UpdatedAt

	for _, i := range o.Items {
		r.Items = append(r.Items, ItemResponse{
			ProductID:      i.ProductID,
			ProductName:    i.ProductName,
			ProductBarcode: i.ProductBarcode,
			Price:          i.Price.InexactFloat64(),
			Quantity:       i.Quantity,
			VAT:            i.VAT.InexactFloat64(),
		})
	}
}

type GetManyOrderResponse []OrderResponse

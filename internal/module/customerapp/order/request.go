package order

type ItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Qty       int64 `json:"qty" validate:"required,gt=0"`
}

type PlaceOrderRequest struct {
	StoreID        int64         `json:"store_id" validate:"required,gt=0"`
	OrderDesc      string        `json:"order_desc" validate:"max=255"`
	DiscountCode   string        `json:"discount_code" validate:"max=64"`
	Platform       string        `json:"platform" validate:"required,oneof=web mobile"`
	CurrencyCode   string        `json:"currency_code" validate:"omitempty,len=3"`
	PaymentOption  string        `json:"payment_option" validate:"required,oneof=instant pod"`
	DeliveryOption string        `json:"delivery_option" validate:"required,oneof=pickup delivery"`
	GatewayCode    string        `json:"gateway_code" validate:"omitempty,max=32"`
	RegionCode     string        `json:"region_code" validate:"omitempty,max=16"`
	Items          []ItemRequest `json:"items" validate:"required,min=1,unique=ProductID,dive"`
	GenerateLink   bool          `json:"generate_link"`
}

type GetManyOrderRequest struct {
	Status string `validate:"omitempty,oneof=new confirmed shipped delivered cancelled"`
	Page   int64  `validate:"required,gt=0"`
	Size   int64  `validate:"required,gt=0,lte=100"`
}

type InitializePaymentRequest struct {
	Reference    string `json:"reference" validate:"required"`
	GenerateLink bool   `json:"generate_link"`
}

type VerifyPaymentRequest struct {
	Reference string `json:"reference" validate:"required"`
}

// PaymentNotificationRequest accepts the webhook bodies of the supported
// gateways. Only the payment reference is read.
type PaymentNotificationRequest struct {
	Event     string `json:"event"`
	Reference string `json:"reference"`
	OrderID   string `json:"order_id"`
	Data      struct {
		Reference string `json:"reference"`
		TxRef     string `json:"tx_ref"`
	} `json:"data"`
}

func (r PaymentNotificationRequest) PaymentReference() string {
	switch {
	case r.Reference != "":
		return r.Reference
	case r.Data.Reference != "":
		return r.Data.Reference
	case r.Data.TxRef != "":
		return r.Data.TxRef
	default:
		return r.OrderID
	}
}

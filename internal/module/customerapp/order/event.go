package order

const (
	TopicOrderCreated     = "order-created"
	TopicPaymentCompleted = "payment-completed"
)

// VerifyPaymentTask is the body of the deferred verification poll.
type VerifyPaymentTask struct {
	Reference string `json:"reference"`
}

type OrderCreatedEvent struct {
	Reference     string  `json:"reference"`
	StoreID       int64   `json:"store_id"`
	CustomerID    int64   `json:"customer_id"`
	PaymentOption string  `json:"payment_option"`
	Status        string  `json:"status"`
	CurrencyCode  string  `json:"currency_code"`
	Total         float64 `json:"total"`
	Staged        bool    `json:"staged"`
}

type PaymentCompletedEvent struct {
	PaymentReference string  `json:"payment_reference"`
	OrderReference   string  `json:"order_reference"`
	StoreID          int64   `json:"store_id"`
	CustomerID       int64   `json:"customer_id"`
	GatewayCode      string  `json:"gateway_code"`
	CurrencyCode     string  `json:"currency_code"`
	AmountPaid       float64 `json:"amount_paid"`
	Balance          float64 `json:"balance"`
}

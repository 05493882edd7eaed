package order

const TopicOrderStatusUpdated = "order-status-updated"

type OrderStatusUpdatedEvent struct {
	Reference      string `json:"reference"`
	StoreID        int64  `json:"store_id"`
	CustomerID     int64  `json:"customer_id"`
	PreviousStatus string `json:"previous_status"`
	Status         string `json:"status"`
}

package inventory

import "time"

type Inventory struct {
	ProductID     int64
	TrackQuantity bool
	Quantity      int64
	Reserved      int64
	UpdatedAt     time.Time
}

// Available is the quantity not yet held by staged orders.
func (i Inventory) Available() int64 {
	return i.Quantity - i.Reserved
}

package order

type GetManyOrderRequest struct {
	Status string `validate:"omitempty,oneof=new confirmed shipped delivered cancelled"`
	Page   int64  `validate:"required,gt=0"`
	Size   int64  `validate:"required,gt=0,lte=100"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed shipped delivered cancelled"`
}

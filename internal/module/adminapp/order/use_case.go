package order

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hirestore/hs-order/internal/pkg/session"
	"github.com/hirestore/hs-order/pkg/errors"
	"github.com/hirestore/hs-order/pkg/pubsub"
	"github.com/hirestore/hs-order/pkg/status"
	"github.com/sirupsen/logrus"
)

type OrderUseCase interface {
	GetManyOrder(ctx context.Context, acc session.Account, req GetManyOrderRequest) (GetManyOrderResponse, int64, error)
	GetOrder(ctx context.Context, acc session.Account, reference string) (OrderResponse, error)
	UpdateOrderStatus(ctx context.Context, acc session.Account, reference string, req UpdateOrderStatusRequest) (OrderResponse, error)
}

type orderUseCase struct {
	logger          *logrus.Logger
	timeout         time.Duration
	now             func() time.Time
	orderRepository OrderRepository
	publisher       pubsub.Publisher
}

type OrderUseCaseProperty struct {
	Logger          *logrus.Logger
	Timeout         time.Duration
	Now             func() time.Time
	OrderRepository OrderRepository
	Publisher       pubsub.Publisher
}

func NewOrderUseCase(props OrderUseCaseProperty) OrderUseCase {
	u := &orderUseCase{
		logger:          props.Logger,
		timeout:         props.Timeout,
		now:             props.Now,
		orderRepository: props.OrderRepository,
		publisher:       props.Publisher,
	}

	if u.now == nil {
		u.now = time.Now
	}

	return u
}

// GetManyOrder implements OrderUseCase.
func (u *orderUseCase) GetManyOrder(ctx context.Context, acc session.Account, req GetManyOrderRequest) (GetManyOrderResponse, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	offset := (req.Page - 1) * req.Size

	orders, err := u.orderRepository.FindManyByStoreID(ctx, acc.StoreID, req.Status, offset, req.Size, nil)
	if err != nil {
		return nil, 0, err
	}

	total, err := u.orderRepository.CountByStoreID(ctx, acc.StoreID, req.Status, nil)
	if err != nil {
		return nil, 0, err
	}

	resp := make(GetManyOrderResponse, len(orders))
	for k, o := range orders {
		resp[k].PopulateFromEntity(o)
	}

	return resp, total, nil
}

// GetOrder implements OrderUseCase.
func (u *orderUseCase) GetOrder(ctx context.Context, acc session.Account, reference string) (OrderResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	o, err := u.orderRepository.FindByStoreIDAndReference(ctx, acc.StoreID, reference, nil)
	if err != nil {
		return OrderResponse{}, err
	}

	o.Items, err = u.orderRepository.FindItemsByOrderID(ctx, o.ID, nil)
	if err != nil {
		return OrderResponse{}, err
	}

	resp := OrderResponse{}
	resp.PopulateFromEntity(o)

	return resp, nil
}

// UpdateOrderStatus implements OrderUseCase. Staged orders are still waiting
// for their payment and cannot be moved.
func (u *orderUseCase) UpdateOrderStatus(ctx context.Context, acc session.Account, reference string, req UpdateOrderStatusRequest) (OrderResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	tx, err := u.orderRepository.BeginTx(ctx)
	if err != nil {
		return OrderResponse{}, err
	}

	o, err := u.orderRepository.FindByStoreIDAndReferenceForUpdate(ctx, acc.StoreID, reference, tx)
	if err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return OrderResponse{}, err
	}

	if o.Staged || !CanTransition(o.Status, req.Status) {
		u.orderRepository.Rollback(ctx, tx)
		return OrderResponse{}, errors.New(http.StatusConflict, status.INVALID_STATUS_TRANSITION, fmt.Sprintf("order cannot move from %s to %s", o.Status, req.Status))
	}

	now := u.now()
	if err := u.orderRepository.UpdateStatus(ctx, o.ID, o.Status, req.Status, now, tx); err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return OrderResponse{}, err
	}

	if err := u.orderRepository.CommitTx(ctx, tx); err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return OrderResponse{}, err
	}

	previous := o.Status
	o.Status = req.Status
	o.UpdatedAt = now

	u.publishStatusUpdated(ctx, o, previous)

	resp := OrderResponse{}
	resp.PopulateFromEntity(o)

	return resp, nil
}

func (u *orderUseCase) publishStatusUpdated(ctx context.Context, o Order, previous string) {
	if u.publisher == nil {
		return
	}

	buff, _ := json.Marshal(OrderStatusUpdatedEvent{
		Reference:      o.Reference,
		StoreID:        o.StoreID,
		CustomerID:     o.CustomerID,
		PreviousStatus: previous,
		Status:         o.Status,
	})

	if err := u.publisher.Publish(ctx, TopicOrderStatusUpdated, o.Reference, nil, buff); err != nil {
		u.logger.WithContext(ctx).WithError(err).WithField("reference", o.Reference).Error("failed to publish order status updated")
	}
}

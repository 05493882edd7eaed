package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"

	"cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
	"github.com/hirestore/hs-order/internal/module/customerapp/gateway"
	"github.com/hirestore/hs-order/internal/module/customerapp/payment"
	"github.com/hirestore/hs-order/internal/module/customerapp/paymentgateway"
	"github.com/hirestore/hs-order/internal/pkg/session"
	"github.com/hirestore/hs-order/internal/pkg/util"
	"github.com/hirestore/hs-order/pkg/errors"
	"github.com/hirestore/hs-order/pkg/gctasks"
	"github.com/hirestore/hs-order/pkg/status"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// InitializePayment implements OrderUseCase.
func (u *orderUseCase) InitializePayment(ctx context.Context, acc session.Account, req InitializePaymentRequest) (InitializePaymentResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	tx, err := u.orderRepository.BeginTx(ctx)
	if err != nil {
		return InitializePaymentResponse{}, err
	}

	order, err := u.findCustomerOrder(ctx, acc, req.Reference, tx)
	if err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return InitializePaymentResponse{}, err
	}

	if order.Status == StatusCancelled {
		u.orderRepository.Rollback(ctx, tx)
		return InitializePaymentResponse{}, errors.New(http.StatusConflict, status.ORDER_CANCELLED, "order has been cancelled")
	}

	if !order.Balance.IsPositive() {
		u.orderRepository.Rollback(ctx, tx)
		return InitializePaymentResponse{}, errors.New(http.StatusUnprocessableEntity, status.NOTHING_TO_PAY, "order has no outstanding balance")
	}

	gw, err := u.paymentGatewayRepository.FindActiveForCurrency(ctx, order.CurrencyCode, tx)
	if err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return InitializePaymentResponse{}, err
	}

	now := u.now()
	p := payment.OnlinePayment{
		OrderID:       order.ID,
		StoreID:       order.StoreID,
		GatewayCode:   gw.Code,
		CustomerID:    order.CustomerID,
		CustomerEmail: order.CustomerEmail,
		CurrencyCode:  order.CurrencyCode,
		Amount:        order.Balance,
		AmountPaid:    decimal.Zero,
		PassCharges:   gw.PassCharges,
		GatewayFee:    decimal.Zero,
		Status:        payment.StatusPending,
		Initiated:     now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	p.ID, p.Reference, err = u.withUniqueReference(ctx, util.PaymentReferencePrefix, tx, func(reference string) (int64, error) {
		np := p
		np.Reference = reference
		return u.onlinePaymentRepository.Save(ctx, np, tx)
	})
	if err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return InitializePaymentResponse{}, err
	}

	if err := u.orderRepository.CommitTx(ctx, tx); err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return InitializePaymentResponse{}, err
	}

	u.scheduleVerification(ctx, p.Reference)

	resp := InitializePaymentResponse{
		Success:      true,
		Reference:    p.Reference,
		Amount:       p.Amount.InexactFloat64(),
		CurrencyCode: p.CurrencyCode,
		GatewayCode:  p.GatewayCode,
	}

	if !req.GenerateLink {
		return resp, nil
	}

	link, err := u.createPaymentLink(ctx, order, gw, p, "payment created, payment link failed")
	if err != nil {
		resp.Success = false
		return resp, err
	}
	resp.PaymentLink = &link

	return resp, nil
}

// VerifyPayment implements OrderUseCase. The payment row stays locked from
// the read through the gateway call to the state update, so concurrent
// verifications of one reference apply at most once.
func (u *orderUseCase) VerifyPayment(ctx context.Context, req VerifyPaymentRequest) (VerifyPaymentResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	tx, err := u.orderRepository.BeginTx(ctx)
	if err != nil {
		return VerifyPaymentResponse{}, err
	}

	p, err := u.onlinePaymentRepository.FindByReferenceForUpdate(ctx, req.Reference, tx)
	if err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return VerifyPaymentResponse{}, err
	}

	if p.IsFinal() {
		order, err := u.orderRepository.FindByID(ctx, p.OrderID, tx)
		u.orderRepository.Rollback(ctx, tx)
		if err != nil {
			return VerifyPaymentResponse{}, err
		}
		return verificationResponse(order, p, "payment has already been "+p.Status), nil
	}

	gw, err := u.paymentGatewayRepository.FindActiveByCode(ctx, p.GatewayCode, tx)
	if err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return VerifyPaymentResponse{}, err
	}

	adapter, err := u.gatewayRegistry.Get(gw.Code)
	if err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return VerifyPaymentResponse{}, err
	}

	v, err := adapter.VerifyTransaction(ctx, u.credentials(gw), p.Reference)
	if err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return VerifyPaymentResponse{}, err
	}

	order, err := u.orderRepository.FindByIDForUpdate(ctx, p.OrderID, tx)
	if err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return VerifyPaymentResponse{}, err
	}

	items, err := u.itemRepository.FindManyByOrderID(ctx, order.ID, tx)
	if err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return VerifyPaymentResponse{}, err
	}
	order.Items = items

	now := u.now()
	p.VerifiedAt = &now
	p.UpdatedAt = now
	p.GatewayReference = v.GatewayReference
	p.GatewayResponse = v.Raw

	var message string
	inventoryState := order.InventoryState

	switch v.Status {
	case paymentgateway.TransactionSuccess:
		// a gateway that collects whole units settles the rounded amount,
		// which still pays the requested one in full
		credited := v.AmountPaid
		if v.AmountPaid.Equal(adapter.ChargeAmount(p.Amount)) {
			credited = p.Amount
		} else {
			u.logger.WithContext(ctx).WithFields(logrus.Fields{
				"reference":   p.Reference,
				"amount":      p.Amount.String(),
				"amount_paid": v.AmountPaid.String(),
			}).Warn("gateway settled a different amount")
		}

		p.Status = payment.StatusCompleted
		p.Verified = true
		p.AmountPaid = v.AmountPaid
		order.ApplyPayment(credited, now)
		err = u.commitInventory(ctx, &order, tx)
		message = "payment verified successfully"
	case paymentgateway.TransactionFailed:
		p.Status = payment.StatusFailed
		err = u.releaseInventory(ctx, &order, tx)
		message = "payment failed"
	case paymentgateway.TransactionAbandoned:
		p.Status = payment.StatusAbandoned
		err = u.releaseInventory(ctx, &order, tx)
		message = "payment was abandoned"
	default:
		p.Status = payment.StatusUnknown
		message = fmt.Sprintf("payment is %s at the gateway", v.Status)
	}
	if err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return VerifyPaymentResponse{}, err
	}

	if err := u.onlinePaymentRepository.UpdateVerification(ctx, p, tx); err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return VerifyPaymentResponse{}, err
	}

	if p.Status == payment.StatusCompleted || order.InventoryState != inventoryState {
		order.UpdatedAt = now
		if err := u.orderRepository.UpdateSettlement(ctx, order, tx); err != nil {
			u.orderRepository.Rollback(ctx, tx)
			return VerifyPaymentResponse{}, err
		}
	}

	if err := u.orderRepository.CommitTx(ctx, tx); err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return VerifyPaymentResponse{}, err
	}

	if p.Status == payment.StatusCompleted {
		u.publishPaymentCompleted(ctx, order, p)
	}

	return verificationResponse(order, p, message), nil
}

func verificationResponse(o Order, p payment.OnlinePayment, message string) VerifyPaymentResponse {
	resp := VerifyPaymentResponse{
		Success: p.Status == payment.StatusCompleted,
		Message: message,
		Order:   &OrderResponse{},
		Payment: &PaymentResponse{},
	}
	resp.Order.PopulateFromEntity(o)
	resp.Payment.PopulateFromEntity(p)

	return resp
}

// commitInventory turns the order's reservation into a decrement. A
// reservation released by an earlier failed attempt is decremented directly.
func (u *orderUseCase) commitInventory(ctx context.Context, o *Order, tx *sql.Tx) error {
	var adjust func(ctx context.Context, productID, quantity int64, tx *sql.Tx) error

	switch o.InventoryState {
	case InventoryReserved:
		adjust = u.inventoryRepository.CommitReservation
	case InventoryReleased:
		adjust = u.inventoryRepository.Deduct
	default:
		return nil
	}

	for _, item := range o.Items {
		if err := adjust(ctx, item.ProductID, item.Quantity, tx); err != nil {
			return err
		}
	}
	o.InventoryState = InventoryCommitted

	return nil
}

func (u *orderUseCase) releaseInventory(ctx context.Context, o *Order, tx *sql.Tx) error {
	if o.InventoryState != InventoryReserved {
		return nil
	}

	for _, item := range o.Items {
		if err := u.inventoryRepository.Release(ctx, item.ProductID, item.Quantity, tx); err != nil {
			return err
		}
	}
	o.InventoryState = InventoryReleased

	return nil
}

// failPayment marks a pending payment failed and releases the order's
// reservation in one transaction.
func (u *orderUseCase) failPayment(ctx context.Context, reference, reason string) error {
	tx, err := u.orderRepository.BeginTx(ctx)
	if err != nil {
		return err
	}

	p, err := u.onlinePaymentRepository.FindByReferenceForUpdate(ctx, reference, tx)
	if err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return err
	}

	if p.Status != payment.StatusPending {
		u.orderRepository.Rollback(ctx, tx)
		return nil
	}

	if err := u.onlinePaymentRepository.MarkFailed(ctx, reference, reason, tx); err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return err
	}

	order, err := u.orderRepository.FindByIDForUpdate(ctx, p.OrderID, tx)
	if err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return err
	}

	if order.InventoryState == InventoryReserved {
		items, err := u.itemRepository.FindManyByOrderID(ctx, order.ID, tx)
		if err != nil {
			u.orderRepository.Rollback(ctx, tx)
			return err
		}
		order.Items = items

		if err := u.releaseInventory(ctx, &order, tx); err != nil {
			u.orderRepository.Rollback(ctx, tx)
			return err
		}

		order.UpdatedAt = u.now()
		if err := u.orderRepository.UpdateSettlement(ctx, order, tx); err != nil {
			u.orderRepository.Rollback(ctx, tx)
			return err
		}
	}

	return u.orderRepository.CommitTx(ctx, tx)
}

func (u *orderUseCase) credentials(gw gateway.PaymentGateway) paymentgateway.Credentials {
	return paymentgateway.Credentials{
		SecretKey: gw.SecretKey(u.production),
		PublicKey: gw.PublicKey(u.production),
	}
}

// createPaymentLink asks the gateway for a hosted checkout. On failure the
// payment is marked failed, its reservation released, and a
// PAYMENT_LINK_FAILED error carrying message is returned.
func (u *orderUseCase) createPaymentLink(ctx context.Context, o Order, gw gateway.PaymentGateway, p payment.OnlinePayment, message string) (string, error) {
	adapter, err := u.gatewayRegistry.Get(gw.Code)

	var link string
	if err == nil {
		link, err = adapter.CreatePaymentLink(ctx, paymentgateway.LinkRequest{
			Credentials:   u.credentials(gw),
			Reference:     p.Reference,
			Amount:        p.Amount,
			CurrencyCode:  p.CurrencyCode,
			CustomerEmail: p.CustomerEmail,
			CallbackURL:   u.callbackURL,
		})
	}

	if err != nil {
		u.logger.WithContext(ctx).WithError(err).WithFields(logrus.Fields{
			"reference":       p.Reference,
			"order_reference": o.Reference,
			"gateway_code":    gw.Code,
		}).Error("payment link generation failed")

		if err := u.failPayment(ctx, p.Reference, err.Error()); err != nil {
			u.logger.WithContext(ctx).WithError(err).WithField("reference", p.Reference).Error("failed to mark payment as failed")
		}

		return "", errors.New(http.StatusBadGateway, status.PAYMENT_LINK_FAILED, message)
	}

	if err := u.onlinePaymentRepository.UpdatePaymentLink(ctx, p.Reference, link, nil); err != nil {
		u.logger.WithContext(ctx).WithError(err).WithField("reference", p.Reference).Warn("failed to store payment link")
	}

	return link, nil
}

// scheduleVerification asks cloud tasks to verify the payment later in case
// the customer never returns from the gateway.
func (u *orderUseCase) scheduleVerification(ctx context.Context, reference string) {
	if u.cloudTask == nil {
		return
	}

	body, _ := json.Marshal(VerifyPaymentTask{Reference: reference})

	err := u.cloudTask.DeferCreateTaskInDuration(ctx, verifyPaymentQueueID, gctasks.Request{
		URL:    fmt.Sprintf("%s/hs-order/v1/customerapp/payments/on-verify", u.baseURL),
		Method: cloudtaskspb.HttpMethod_POST,
		Header: map[string]string{"Content-Type": "application/json"},
		Body:   body,
	}, u.pollDelay)
	if err != nil {
		u.logger.WithContext(ctx).WithError(err).WithField("reference", reference).Warn("failed to schedule payment verification")
	}
}

func (u *orderUseCase) publishPaymentCompleted(ctx context.Context, o Order, p payment.OnlinePayment) {
	if u.publisher == nil {
		return
	}

	buff, _ := json.Marshal(PaymentCompletedEvent{
		PaymentReference: p.Reference,
		OrderReference:   o.Reference,
		StoreID:          o.StoreID,
		CustomerID:       o.CustomerID,
		GatewayCode:      p.GatewayCode,
		CurrencyCode:     p.CurrencyCode,
		AmountPaid:       p.AmountPaid.InexactFloat64(),
		Balance:          o.Balance.InexactFloat64(),
	})

	if err := u.publisher.Publish(ctx, TopicPaymentCompleted, p.Reference, nil, buff); err != nil {
		u.logger.WithContext(ctx).WithError(err).WithField("reference", p.Reference).Error("failed to publish payment completed")
	}
}

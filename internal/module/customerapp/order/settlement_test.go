package order

import (
	"encoding/json"
	"net/http"

	"github.com/hirestore/hs-order/internal/module/customerapp/payment"
	"github.com/hirestore/hs-order/internal/module/customerapp/paymentgateway"
	"github.com/hirestore/hs-order/internal/module/customerapp/store"
	"github.com/hirestore/hs-order/internal/pkg/session"
	"github.com/hirestore/hs-order/pkg/errors"
	"github.com/hirestore/hs-order/pkg/status"
)

func (s *OrderUseCaseSuite) placeInstantOrder(qty int64) PlaceOrderResponse {
	resp, err := s.useCase.PlaceOrder(s.ctx, s.customer, s.placeOrder(PaymentOptionInstant, qty))
	s.Require().NoError(err)
	s.Require().NotNil(resp.Payment)
	s.publisher.messages = nil
	return resp
}

func (s *OrderUseCaseSuite) gatewayReports(outcome, amountPaid string) {
	s.paystack.verifyErr = nil
	s.paystack.verification = paymentgateway.Verification{
		Status:           outcome,
		AmountPaid:       amount(amountPaid),
		GatewayReference: "trx_1",
		Raw:              `{"status":true}`,
	}
}

func (s *OrderUseCaseSuite) TestVerifyPayment_Success() {
	placed := s.placeInstantOrder(2)
	s.gatewayReports(paymentgateway.TransactionSuccess, "2280")

	resp, err := s.useCase.VerifyPayment(s.ctx, VerifyPaymentRequest{Reference: placed.Payment.Reference})
	s.Require().NoError(err)

	s.True(resp.Success)
	s.Equal(StatusNew, resp.Order.Status)
	s.False(resp.Order.Staged)
	s.Equal(2280.0, resp.Order.TotalPaid)
	s.Equal(0.0, resp.Order.Balance)
	s.Equal(payment.StatusCompleted, resp.Payment.Status)

	p := s.memory.state.payments[placed.Payment.Reference]
	s.True(p.Verified)
	s.Require().NotNil(p.VerifiedAt)
	s.Equal(now, *p.VerifiedAt)
	s.Equal("trx_1", p.GatewayReference)
	assertAmount(s.T(), "2280", p.AmountPaid, "amount paid")

	o, _ := s.memory.orderByReference(placed.Order.Reference)
	s.Equal(InventoryCommitted, o.InventoryState)

	inv := s.memory.state.inventories[1]
	s.Equal(int64(8), inv.Quantity)
	s.Equal(int64(0), inv.Reserved)

	s.Require().Len(s.publisher.messages, 1)
	s.Equal(TopicPaymentCompleted, s.publisher.messages[0].topic)

	var event PaymentCompletedEvent
	s.Require().NoError(json.Unmarshal(s.publisher.messages[0].body, &event))
	s.Equal(placed.Order.Reference, event.OrderReference)
	s.Equal(2280.0, event.AmountPaid)
}

func (s *OrderUseCaseSuite) TestVerifyPayment_IsIdempotent() {
	placed := s.placeInstantOrder(2)
	s.gatewayReports(paymentgateway.TransactionSuccess, "2280")

	_, err := s.useCase.VerifyPayment(s.ctx, VerifyPaymentRequest{Reference: placed.Payment.Reference})
	s.Require().NoError(err)

	resp, err := s.useCase.VerifyPayment(s.ctx, VerifyPaymentRequest{Reference: placed.Payment.Reference})
	s.Require().NoError(err)

	s.True(resp.Success)
	s.Equal(2280.0, resp.Order.TotalPaid)
	s.Equal(1, s.paystack.verifyCalls)
	s.Len(s.publisher.messages, 1)
	s.Equal(int64(8), s.memory.state.inventories[1].Quantity)
}

func (s *OrderUseCaseSuite) TestVerifyPayment_PartialAmount() {
	placed := s.placeInstantOrder(2)
	s.gatewayReports(paymentgateway.TransactionSuccess, "2000")

	resp, err := s.useCase.VerifyPayment(s.ctx, VerifyPaymentRequest{Reference: placed.Payment.Reference})
	s.Require().NoError(err)

	s.True(resp.Success)
	s.Equal(2000.0, resp.Order.TotalPaid)
	s.Equal(280.0, resp.Order.Balance)
	s.Equal(StatusNew, resp.Order.Status)
}

func (s *OrderUseCaseSuite) TestVerifyPayment_WholeUnitGateway() {
	s.paystack.wholeUnits = true
	s.memory.stores[1] = func(st store.Store) store.Store {
		st.ApplyServiceCharge = true
		st.ServiceChargeType = store.ServiceChargeFixed
		st.ServiceCharge = amount("0.4")
		return st
	}(s.memory.stores[1])

	placed := s.placeInstantOrder(2)
	s.Equal(2280.4, placed.Order.Total)
	s.gatewayReports(paymentgateway.TransactionSuccess, "2280")

	resp, err := s.useCase.VerifyPayment(s.ctx, VerifyPaymentRequest{Reference: placed.Payment.Reference})
	s.Require().NoError(err)

	s.True(resp.Success)
	s.Equal(2280.4, resp.Order.TotalPaid)
	s.Equal(0.0, resp.Order.Balance)
	assertAmount(s.T(), "2280", s.memory.state.payments[placed.Payment.Reference].AmountPaid, "amount paid")
}

func (s *OrderUseCaseSuite) TestVerifyPayment_Abandoned() {
	placed := s.placeInstantOrder(2)
	s.gatewayReports(paymentgateway.TransactionAbandoned, "0")

	resp, err := s.useCase.VerifyPayment(s.ctx, VerifyPaymentRequest{Reference: placed.Payment.Reference})
	s.Require().NoError(err)

	s.False(resp.Success)
	s.Equal(payment.StatusAbandoned, resp.Payment.Status)
	s.Equal(StatusStaged, resp.Order.Status)
	s.True(resp.Order.Staged)
	s.Equal(0.0, resp.Order.TotalPaid)

	o, _ := s.memory.orderByReference(placed.Order.Reference)
	s.Equal(InventoryReleased, o.InventoryState)

	inv := s.memory.state.inventories[1]
	s.Equal(int64(10), inv.Quantity)
	s.Equal(int64(0), inv.Reserved)
	s.Empty(s.publisher.messages)
}

func (s *OrderUseCaseSuite) TestVerifyPayment_FailedThenRetried() {
	placed := s.placeInstantOrder(2)
	s.gatewayReports(paymentgateway.TransactionFailed, "0")

	resp, err := s.useCase.VerifyPayment(s.ctx, VerifyPaymentRequest{Reference: placed.Payment.Reference})
	s.Require().NoError(err)
	s.Equal(payment.StatusFailed, resp.Payment.Status)

	retry, err := s.useCase.InitializePayment(s.ctx, s.customer, InitializePaymentRequest{Reference: placed.Order.Reference})
	s.Require().NoError(err)
	s.NotEqual(placed.Payment.Reference, retry.Reference)
	s.Equal(2280.0, retry.Amount)

	s.gatewayReports(paymentgateway.TransactionSuccess, "2280")
	resp, err = s.useCase.VerifyPayment(s.ctx, VerifyPaymentRequest{Reference: retry.Reference})
	s.Require().NoError(err)
	s.True(resp.Success)
	s.Equal(StatusNew, resp.Order.Status)

	o, _ := s.memory.orderByReference(placed.Order.Reference)
	s.Equal(InventoryCommitted, o.InventoryState)

	inv := s.memory.state.inventories[1]
	s.Equal(int64(8), inv.Quantity)
	s.Equal(int64(0), inv.Reserved)
}

func (s *OrderUseCaseSuite) TestVerifyPayment_PendingAtGateway() {
	placed := s.placeInstantOrder(2)
	s.gatewayReports(paymentgateway.TransactionPending, "0")

	resp, err := s.useCase.VerifyPayment(s.ctx, VerifyPaymentRequest{Reference: placed.Payment.Reference})
	s.Require().NoError(err)

	s.False(resp.Success)
	s.Equal(payment.StatusUnknown, resp.Payment.Status)
	s.True(resp.Order.Staged)
	s.Equal(int64(2), s.memory.state.inventories[1].Reserved)

	s.gatewayReports(paymentgateway.TransactionSuccess, "2280")
	resp, err = s.useCase.VerifyPayment(s.ctx, VerifyPaymentRequest{Reference: placed.Payment.Reference})
	s.Require().NoError(err)

	s.True(resp.Success)
	s.Equal(2, s.paystack.verifyCalls)
}

func (s *OrderUseCaseSuite) TestVerifyPayment_GatewayError() {
	placed := s.placeInstantOrder(2)
	s.paystack.verifyErr = errors.New(http.StatusGatewayTimeout, status.GATEWAY_TIMEOUT, "payment gateway timed out")

	_, err := s.useCase.VerifyPayment(s.ctx, VerifyPaymentRequest{Reference: placed.Payment.Reference})
	s.assertStatus(err, status.GATEWAY_TIMEOUT)

	s.Equal(payment.StatusPending, s.memory.state.payments[placed.Payment.Reference].Status)
	s.Equal(int64(2), s.memory.state.inventories[1].Reserved)

	o, _ := s.memory.orderByReference(placed.Order.Reference)
	s.True(o.Staged)
}

func (s *OrderUseCaseSuite) TestVerifyPayment_UnknownReference() {
	_, err := s.useCase.VerifyPayment(s.ctx, VerifyPaymentRequest{Reference: "PAY-MISSING"})
	s.assertStatus(err, status.PAYMENT_NOT_FOUND)
}

func (s *OrderUseCaseSuite) TestInitializePayment_PayOnDelivery() {
	placed, err := s.useCase.PlaceOrder(s.ctx, s.customer, s.placeOrder(PaymentOptionPayOnDelivery, 2))
	s.Require().NoError(err)

	resp, err := s.useCase.InitializePayment(s.ctx, s.customer, InitializePaymentRequest{Reference: placed.Order.Reference, GenerateLink: true})
	s.Require().NoError(err)

	s.True(resp.Success)
	s.Equal(2150.0, resp.Amount)
	s.Equal("paystack", resp.GatewayCode)
	s.Require().NotNil(resp.PaymentLink)

	p := s.memory.state.payments[resp.Reference]
	s.Equal(payment.StatusPending, p.Status)
	s.Len(s.cloudTask.tasks, 1)
}

func (s *OrderUseCaseSuite) TestInitializePayment_LinkFailure() {
	placed, err := s.useCase.PlaceOrder(s.ctx, s.customer, s.placeOrder(PaymentOptionPayOnDelivery, 1))
	s.Require().NoError(err)
	s.paystack.linkErr = errors.New(http.StatusBadGateway, status.GATEWAY_REJECTED, "payment gateway rejected the request")

	resp, err := s.useCase.InitializePayment(s.ctx, s.customer, InitializePaymentRequest{Reference: placed.Order.Reference, GenerateLink: true})
	s.assertStatus(err, status.PAYMENT_LINK_FAILED)

	s.False(resp.Success)
	s.Equal(payment.StatusFailed, s.memory.state.payments[resp.Reference].Status)
}

func (s *OrderUseCaseSuite) TestInitializePayment_NothingToPay() {
	placed := s.placeInstantOrder(2)
	s.gatewayReports(paymentgateway.TransactionSuccess, "2280")

	_, err := s.useCase.VerifyPayment(s.ctx, VerifyPaymentRequest{Reference: placed.Payment.Reference})
	s.Require().NoError(err)

	_, err = s.useCase.InitializePayment(s.ctx, s.customer, InitializePaymentRequest{Reference: placed.Order.Reference})
	s.assertStatus(err, status.NOTHING_TO_PAY)
}

func (s *OrderUseCaseSuite) TestInitializePayment_CancelledOrder() {
	placed, err := s.useCase.PlaceOrder(s.ctx, s.customer, s.placeOrder(PaymentOptionPayOnDelivery, 1))
	s.Require().NoError(err)

	o, _ := s.memory.orderByReference(placed.Order.Reference)
	o.Status = StatusCancelled
	s.memory.state.orders[o.ID] = o

	_, err = s.useCase.InitializePayment(s.ctx, s.customer, InitializePaymentRequest{Reference: placed.Order.Reference})
	s.assertStatus(err, status.ORDER_CANCELLED)
	s.Empty(s.memory.paymentsOf(o.ID))
	s.Empty(s.cloudTask.tasks)
}

func (s *OrderUseCaseSuite) TestInitializePayment_OtherCustomer() {
	placed := s.placeInstantOrder(1)

	_, err := s.useCase.InitializePayment(s.ctx, session.Account{ID: 8}, InitializePaymentRequest{Reference: placed.Order.Reference})
	s.assertStatus(err, status.ORDER_NOT_FOUND)
	s.Len(s.memory.paymentsOf(s.memory.state.orders[1].ID), 1)
}

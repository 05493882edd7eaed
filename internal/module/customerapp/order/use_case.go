package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/hirestore/hs-order/internal/module/customerapp/discount"
	"github.com/hirestore/hs-order/internal/module/customerapp/gateway"
	"github.com/hirestore/hs-order/internal/module/customerapp/inventory"
	"github.com/hirestore/hs-order/internal/module/customerapp/payment"
	"github.com/hirestore/hs-order/internal/module/customerapp/paymentgateway"
	"github.com/hirestore/hs-order/internal/module/customerapp/product"
	"github.com/hirestore/hs-order/internal/module/customerapp/store"
	"github.com/hirestore/hs-order/internal/pkg/session"
	"github.com/hirestore/hs-order/internal/pkg/util"
	"github.com/hirestore/hs-order/pkg/errors"
	"github.com/hirestore/hs-order/pkg/gctasks"
	"github.com/hirestore/hs-order/pkg/pubsub"
	"github.com/hirestore/hs-order/pkg/status"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type OrderUseCase interface {
	PlaceOrder(ctx context.Context, acc session.Account, req PlaceOrderRequest) (PlaceOrderResponse, error)
	GetManyOrder(ctx context.Context, acc session.Account, req GetManyOrderRequest) (GetManyOrderResponse, int64, error)
	GetOrder(ctx context.Context, acc session.Account, reference string) (OrderResponse, error)
	InitializePayment(ctx context.Context, acc session.Account, req InitializePaymentRequest) (InitializePaymentResponse, error)
	VerifyPayment(ctx context.Context, req VerifyPaymentRequest) (VerifyPaymentResponse, error)
}

const (
	referenceSavepoint    = "unique_reference"
	verifyPaymentQueueID  = "verify-payment"
	descriptionTitleLimit = 40
)

type orderUseCase struct {
	logger                   *logrus.Logger
	timeout                  time.Duration
	baseURL                  string
	production               bool
	callbackURL              string
	pollDelay                time.Duration
	countryCode              string
	regionCode               string
	currencyCode             string
	gatewayCode              string
	referenceRetries         int
	now                      func() time.Time
	generateReference        func(prefix string) string
	storeRepository          store.StoreRepository
	paymentGatewayRepository gateway.PaymentGatewayRepository
	productRepository        product.ProductRepository
	inventoryRepository      inventory.InventoryRepository
	discountResolver         discount.Resolver
	orderRepository          OrderRepository
	itemRepository           ItemRepository
	onlinePaymentRepository  payment.OnlinePaymentRepository
	gatewayRegistry          paymentgateway.Registry
	publisher                pubsub.Publisher
	cloudTask                gctasks.Client
}

type OrderUseCaseProperty struct {
	Logger      *logrus.Logger
	Timeout     time.Duration
	BaseURL     string
	Production  bool
	CallbackURL string
	PollDelay   time.Duration
	// Defaults used when neither the request nor the store names one.
	CountryCode              string
	RegionCode               string
	CurrencyCode             string
	GatewayCode              string
	ReferenceRetries         int
	Now                      func() time.Time
	GenerateReference        func(prefix string) string
	StoreRepository          store.StoreRepository
	PaymentGatewayRepository gateway.PaymentGatewayRepository
	ProductRepository        product.ProductRepository
	InventoryRepository      inventory.InventoryRepository
	DiscountResolver         discount.Resolver
	OrderRepository          OrderRepository
	ItemRepository           ItemRepository
	OnlinePaymentRepository  payment.OnlinePaymentRepository
	GatewayRegistry          paymentgateway.Registry
	Publisher                pubsub.Publisher
	CloudTask                gctasks.Client
}

func NewOrderUseCase(props OrderUseCaseProperty) OrderUseCase {
	u := &orderUseCase{
		logger:                   props.Logger,
		timeout:                  props.Timeout,
		baseURL:                  props.BaseURL,
		production:               props.Production,
		callbackURL:              props.CallbackURL,
		pollDelay:                props.PollDelay,
		countryCode:              props.CountryCode,
		regionCode:               props.RegionCode,
		currencyCode:             props.CurrencyCode,
		gatewayCode:              props.GatewayCode,
		referenceRetries:         props.ReferenceRetries,
		now:                      props.Now,
		generateReference:        props.GenerateReference,
		storeRepository:          props.StoreRepository,
		paymentGatewayRepository: props.PaymentGatewayRepository,
		productRepository:        props.ProductRepository,
		inventoryRepository:      props.InventoryRepository,
		discountResolver:         props.DiscountResolver,
		orderRepository:          props.OrderRepository,
		itemRepository:           props.ItemRepository,
		onlinePaymentRepository:  props.OnlinePaymentRepository,
		gatewayRegistry:          props.GatewayRegistry,
		publisher:                props.Publisher,
		cloudTask:                props.CloudTask,
	}

	if u.referenceRetries <= 0 {
		u.referenceRetries = 3
	}
	if u.now == nil {
		u.now = time.Now
	}
	if u.generateReference == nil {
		u.generateReference = util.GenerateReferenceWithPrefix
	}
	if u.discountResolver == nil {
		u.discountResolver = discount.NewNoDiscountResolver()
	}

	return u
}

// PlaceOrder implements OrderUseCase.
func (u *orderUseCase) PlaceOrder(ctx context.Context, acc session.Account, req PlaceOrderRequest) (PlaceOrderResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	tx, err := u.orderRepository.BeginTx(ctx)
	if err != nil {
		return PlaceOrderResponse{}, err
	}

	order, p, gw, err := u.placeOrder(ctx, acc, req, tx)
	if err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return PlaceOrderResponse{}, err
	}

	if err := u.orderRepository.CommitTx(ctx, tx); err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return PlaceOrderResponse{}, err
	}

	u.publishOrderCreated(ctx, order)

	resp := PlaceOrderResponse{}
	resp.Order.PopulateFromEntity(order)

	if p == nil {
		return resp, nil
	}

	u.scheduleVerification(ctx, p.Reference)

	var linkErr error
	if req.GenerateLink {
		link, err := u.createPaymentLink(ctx, order, gw, *p, "order created, payment link failed")
		if err != nil {
			p.Status = payment.StatusFailed
			linkErr = err
		} else {
			p.PaymentLink = &link
		}
	}

	resp.Payment = &PaymentResponse{}
	resp.Payment.PopulateFromEntity(*p)

	return resp, linkErr
}

func (u *orderUseCase) placeOrder(ctx context.Context, acc session.Account, req PlaceOrderRequest, tx *sql.Tx) (Order, *payment.OnlinePayment, gateway.PaymentGateway, error) {
	var gw gateway.PaymentGateway

	s, err := u.storeRepository.FindActiveByID(ctx, req.StoreID, tx)
	if err != nil {
		return Order{}, nil, gw, err
	}

	currencyCode := firstNonEmpty(req.CurrencyCode, s.CurrencyCode, u.currencyCode)
	countryCode := firstNonEmpty(s.CountryCode, u.countryCode)
	regionCode := firstNonEmpty(req.RegionCode, s.RegionCode, u.regionCode)
	instant := req.PaymentOption == PaymentOptionInstant

	var gatewayFee *GatewayFeeConfig
	if instant {
		gw, err = u.orderGateway(ctx, firstNonEmpty(req.GatewayCode, u.gatewayCode), currencyCode, tx)
		if err != nil {
			return Order{}, nil, gw, err
		}

		gatewayFee = &GatewayFeeConfig{
			PassCharges: gw.PassCharges,
			Percent:     gw.Percent,
			Surcharge:   gw.Surcharge,
			CappedAt:    gw.CappedAt,
		}
	}

	productIDs := make([]int64, len(req.Items))
	for k, item := range req.Items {
		productIDs[k] = item.ProductID
	}

	products, err := u.productRepository.FindManyByIDs(ctx, s.ID, productIDs, countryCode, regionCode, tx)
	if err != nil {
		return Order{}, nil, gw, err
	}

	inventories, err := u.inventoryRepository.FindManyByProductIDsForUpdate(ctx, productIDs, tx)
	if err != nil {
		return Order{}, nil, gw, err
	}

	lines, err := BuildLines(req.Items, products, inventories)
	if err != nil {
		return Order{}, nil, gw, err
	}

	now := u.now()

	rule, err := u.discountResolver.Resolve(ctx, discount.Query{
		StoreID:  s.ID,
		Code:     req.DiscountCode,
		Platform: req.Platform,
		At:       now,
	}, tx)
	if err != nil {
		return Order{}, nil, gw, err
	}

	totals, err := ComputeTotals(Cart{
		Lines: lines,
		Fees: FeeConfig{
			ApplyVAT:           s.ApplyVAT,
			VATPercent:         s.VATPercent,
			ApplyServiceCharge: s.ApplyServiceCharge,
			ServiceChargeType:  s.ServiceChargeType,
			ServiceCharge:      s.ServiceCharge,
		},
		GatewayFee:    gatewayFee,
		PaymentOption: req.PaymentOption,
		Discount:      rule,
	})
	if err != nil {
		return Order{}, nil, gw, err
	}

	order := Order{
		StoreID:         s.ID,
		Description:     describe(req.OrderDesc, totals.Items),
		Platform:        req.Platform,
		CurrencyCode:    currencyCode,
		PaymentOption:   req.PaymentOption,
		DeliveryOption:  req.DeliveryOption,
		CustomerID:      acc.ID,
		CustomerEmail:   acc.Email,
		TotalQty:        totals.TotalQty,
		Subtotal:        totals.Subtotal,
		TotalDiscount:   totals.TotalDiscount,
		LoyaltyDiscount: decimal.Zero,
		ServiceCharge:   totals.ServiceCharge,
		GatewayFee:      totals.GatewayFee,
		VAT:             totals.VAT,
		Total:           totals.Total,
		TotalPaid:       decimal.Zero,
		Balance:         totals.Total,
		Status:          StatusNew,
		InventoryState:  InventoryCommitted,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if instant {
		order.Status = StatusStaged
		order.Staged = true
		order.InventoryState = InventoryReserved
	}

	if !rule.IsZero() {
		code := rule.Code
		order.DiscountCode = &code
	}

	order.ID, order.Reference, err = u.withUniqueReference(ctx, util.OrderReferencePrefix, tx, func(reference string) (int64, error) {
		o := order
		o.Reference = reference
		return u.orderRepository.Save(ctx, o, tx)
	})
	if err != nil {
		return Order{}, nil, gw, err
	}

	for k := range totals.Items {
		totals.Items[k].OrderID = order.ID
		totals.Items[k].CreatedAt = now
	}
	order.Items = totals.Items

	if err := u.itemRepository.SaveMany(ctx, order.Items, tx); err != nil {
		return Order{}, nil, gw, err
	}

	for _, line := range lines {
		if !line.TrackQuantity {
			continue
		}

		if instant {
			err = u.inventoryRepository.Reserve(ctx, line.ProductID, line.Quantity, tx)
		} else {
			err = u.inventoryRepository.Decrement(ctx, line.ProductID, line.Quantity, tx)
		}
		if err != nil {
			return Order{}, nil, gw, err
		}
	}

	if err := u.discountResolver.Redeem(ctx, rule, tx); err != nil {
		return Order{}, nil, gw, err
	}

	if !instant {
		return order, nil, gw, nil
	}

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
		GatewayFee:    order.GatewayFee,
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
		return Order{}, nil, gw, err
	}

	return order, &p, gw, nil
}

// orderGateway resolves the gateway named by code, or the store currency's
// preferred gateway when no code is given. The gateway must settle in the
// order's currency.
func (u *orderUseCase) orderGateway(ctx context.Context, code, currencyCode string, tx *sql.Tx) (gateway.PaymentGateway, error) {
	if code != "" {
		return u.paymentGatewayRepository.FindActiveByCodeAndCurrency(ctx, code, currencyCode, tx)
	}

	gw, err := u.paymentGatewayRepository.FindActiveForCurrency(ctx, currencyCode, tx)
	if err != nil {
		return gateway.PaymentGateway{}, err
	}

	if gw.CurrencyCode != currencyCode {
		return gateway.PaymentGateway{}, errors.New(http.StatusUnprocessableEntity, status.GATEWAY_INACTIVE, fmt.Sprintf("no active payment gateway is available for %s", currencyCode))
	}

	return gw, nil
}

// withUniqueReference saves under a savepoint so a taken reference can be
// retried with a fresh one without aborting the transaction.
func (u *orderUseCase) withUniqueReference(ctx context.Context, prefix string, tx *sql.Tx, save func(reference string) (int64, error)) (int64, string, error) {
	for attempt := 1; attempt <= u.referenceRetries; attempt++ {
		reference := u.generateReference(prefix)

		if err := u.orderRepository.Savepoint(ctx, referenceSavepoint, tx); err != nil {
			return 0, "", err
		}

		ID, err := save(reference)
		if err == nil {
			if err := u.orderRepository.ReleaseSavepoint(ctx, referenceSavepoint, tx); err != nil {
				return 0, "", err
			}
			return ID, reference, nil
		}

		if !errors.HasStatus(err, status.CONFLICT) {
			return 0, "", err
		}

		u.logger.WithContext(ctx).WithFields(logrus.Fields{
			"reference": reference,
			"attempt":   attempt,
		}).Warn("reference is already taken, regenerating")

		if err := u.orderRepository.RollbackToSavepoint(ctx, referenceSavepoint, tx); err != nil {
			return 0, "", err
		}
	}

	return 0, "", errors.New(http.StatusInternalServerError, status.REFERENCE_GENERATION_FAILED, fmt.Sprintf("could not generate a unique %s reference", prefix))
}

// GetManyOrder implements OrderUseCase.
func (u *orderUseCase) GetManyOrder(ctx context.Context, acc session.Account, req GetManyOrderRequest) (GetManyOrderResponse, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	offset := (req.Page - 1) * req.Size

	orders, err := u.orderRepository.FindMany(ctx, acc.ID, req.Status, offset, req.Size, nil)
	if err != nil {
		return nil, 0, err
	}

	total, err := u.orderRepository.Count(ctx, acc.ID, req.Status, nil)
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

	order, err := u.findCustomerOrder(ctx, acc, reference, nil)
	if err != nil {
		return OrderResponse{}, err
	}

	items, err := u.itemRepository.FindManyByOrderID(ctx, order.ID, nil)
	if err != nil {
		return OrderResponse{}, err
	}
	order.Items = items

	payments, err := u.onlinePaymentRepository.FindManyByOrderID(ctx, order.ID, nil)
	if err != nil {
		return OrderResponse{}, err
	}

	resp := OrderResponse{}
	resp.PopulateFromEntity(order)
	for _, p := range payments {
		pr := PaymentResponse{}
		pr.PopulateFromEntity(p)
		resp.Payments = append(resp.Payments, pr)
	}

	return resp, nil
}

// findCustomerOrder hides orders of other customers behind ORDER_NOT_FOUND.
func (u *orderUseCase) findCustomerOrder(ctx context.Context, acc session.Account, reference string, tx *sql.Tx) (Order, error) {
	order, err := u.orderRepository.FindByReference(ctx, reference, tx)
	if err != nil {
		return Order{}, err
	}

	if order.CustomerID != acc.ID {
		return Order{}, errors.New(http.StatusNotFound, status.ORDER_NOT_FOUND, fmt.Sprintf("order '%s' is not found", reference))
	}

	return order, nil
}

func (u *orderUseCase) publishOrderCreated(ctx context.Context, o Order) {
	if u.publisher == nil {
		return
	}

	buff, _ := json.Marshal(OrderCreatedEvent{
		Reference:     o.Reference,
		StoreID:       o.StoreID,
		CustomerID:    o.CustomerID,
		PaymentOption: o.PaymentOption,
		Status:        o.Status,
		CurrencyCode:  o.CurrencyCode,
		Total:         o.Total.InexactFloat64(),
		Staged:        o.Staged,
	})

	if err := u.publisher.Publish(ctx, TopicOrderCreated, o.Reference, nil, buff); err != nil {
		u.logger.WithContext(ctx).WithError(err).WithField("reference", o.Reference).Error("failed to publish order created")
	}
}

// describe falls back to the first product title, shortened, and the number
// of other products.
func describe(desc string, items []Item) string {
	if desc != "" || len(items) == 0 {
		return desc
	}

	title := items[0].ProductName
	if utf8.RuneCountInString(title) > descriptionTitleLimit {
		title = string([]rune(title)[:descriptionTitleLimit]) + "..."
	}

	if others := len(items) - 1; others > 0 {
		return fmt.Sprintf("%s (+%d)", title, others)
	}

	return title
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

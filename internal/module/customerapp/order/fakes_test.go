package order

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/hirestore/hs-order/internal/module/customerapp/gateway"
	"github.com/hirestore/hs-order/internal/module/customerapp/inventory"
	"github.com/hirestore/hs-order/internal/module/customerapp/payment"
	"github.com/hirestore/hs-order/internal/module/customerapp/paymentgateway"
	"github.com/hirestore/hs-order/internal/module/customerapp/product"
	"github.com/hirestore/hs-order/internal/module/customerapp/store"
	"github.com/hirestore/hs-order/pkg/errors"
	"github.com/hirestore/hs-order/pkg/gctasks"
	"github.com/hirestore/hs-order/pkg/status"
	"github.com/shopspring/decimal"
)

// state is everything the use case may write. BeginTx snapshots it and
// Rollback restores the snapshot.
type state struct {
	inventories map[int64]inventory.Inventory
	orders      map[int64]Order
	items       map[int64][]Item
	payments    map[string]payment.OnlinePayment
	references  map[string]bool
	nextID      int64
}

func (s state) clone() state {
	c := state{
		inventories: make(map[int64]inventory.Inventory, len(s.inventories)),
		orders:      make(map[int64]Order, len(s.orders)),
		items:       make(map[int64][]Item, len(s.items)),
		payments:    make(map[string]payment.OnlinePayment, len(s.payments)),
		references:  make(map[string]bool, len(s.references)),
		nextID:      s.nextID,
	}
	for k, v := range s.inventories {
		c.inventories[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.items {
		c.items[k] = append([]Item(nil), v...)
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	for k, v := range s.references {
		c.references[k] = v
	}
	return c
}

type memory struct {
	stores   map[int64]store.Store
	gateways []gateway.PaymentGateway
	products map[int64]product.Product
	state    state
	backup   *state
	// failures makes the named operation return the error.
	failures map[string]error
}

func newMemory() *memory {
	return &memory{
		stores:   map[int64]store.Store{},
		products: map[int64]product.Product{},
		state: state{
			inventories: map[int64]inventory.Inventory{},
			orders:      map[int64]Order{},
			items:       map[int64][]Item{},
			payments:    map[string]payment.OnlinePayment{},
			references:  map[string]bool{},
		},
		failures: map[string]error{},
	}
}

func (m *memory) id() int64 {
	m.state.nextID++
	return m.state.nextID
}

func (m *memory) fail(op string) error {
	return m.failures[op]
}

func (m *memory) paymentsOf(orderID int64) []payment.OnlinePayment {
	var data []payment.OnlinePayment
	for _, p := range m.state.payments {
		if p.OrderID == orderID {
			data = append(data, p)
		}
	}
	sort.Slice(data, func(i, j int) bool { return data[i].ID < data[j].ID })
	return data
}

func (m *memory) orderByReference(reference string) (Order, bool) {
	for _, o := range m.state.orders {
		if o.Reference == reference {
			return o, true
		}
	}
	return Order{}, false
}

func notFound(what string) error {
	return errors.New(http.StatusNotFound, status.NOT_FOUND, what+" is not found")
}

// catalog serves stores, gateways and products.
type fakeCatalog struct{ m *memory }

func (c fakeCatalog) FindActiveByID(ctx context.Context, ID int64, tx *sql.Tx) (store.Store, error) {
	s, ok := c.m.stores[ID]
	if !ok || s.Status != store.StatusActive {
		return store.Store{}, errors.New(http.StatusNotFound, status.STORE_NOT_FOUND, "store is not found")
	}
	return s, nil
}

func (c fakeCatalog) find(match func(g gateway.PaymentGateway) bool) (gateway.PaymentGateway, error) {
	for _, g := range c.m.gateways {
		if g.Status == gateway.StatusActive && match(g) {
			return g, nil
		}
	}
	return gateway.PaymentGateway{}, errors.New(http.StatusUnprocessableEntity, status.GATEWAY_INACTIVE, "no active payment gateway is available")
}

func (c fakeCatalog) FindActiveByCodeAndCurrency(ctx context.Context, code, currencyCode string, tx *sql.Tx) (gateway.PaymentGateway, error) {
	return c.find(func(g gateway.PaymentGateway) bool { return g.Code == code && g.CurrencyCode == currencyCode })
}

func (c fakeCatalog) FindActiveByCode(ctx context.Context, code string, tx *sql.Tx) (gateway.PaymentGateway, error) {
	return c.find(func(g gateway.PaymentGateway) bool { return g.Code == code })
}

func (c fakeCatalog) FindActiveForCurrency(ctx context.Context, currencyCode string, tx *sql.Tx) (gateway.PaymentGateway, error) {
	if g, err := c.find(func(g gateway.PaymentGateway) bool { return g.CurrencyCode == currencyCode && g.IsDefault }); err == nil {
		return g, nil
	}
	if g, err := c.find(func(g gateway.PaymentGateway) bool { return g.CurrencyCode == currencyCode }); err == nil {
		return g, nil
	}
	return c.find(func(g gateway.PaymentGateway) bool { return g.IsDefault })
}

func (c fakeCatalog) FindManyByIDs(ctx context.Context, storeID int64, IDs []int64, countryCode, regionCode string, tx *sql.Tx) ([]product.Product, error) {
	var data []product.Product
	for _, ID := range IDs {
		if p, ok := c.m.products[ID]; ok && p.StoreID == storeID {
			data = append(data, p)
		}
	}
	return data, nil
}

type fakeInventoryRepository struct{ m *memory }

func (r fakeInventoryRepository) FindManyByProductIDsForUpdate(ctx context.Context, productIDs []int64, tx *sql.Tx) ([]inventory.Inventory, error) {
	var data []inventory.Inventory
	for _, ID := range productIDs {
		if inv, ok := r.m.state.inventories[ID]; ok {
			data = append(data, inv)
		}
	}
	return data, nil
}

func (r fakeInventoryRepository) adjust(productID int64, check bool, quantity, reserved int64) error {
	inv, ok := r.m.state.inventories[productID]
	if !ok || !inv.TrackQuantity {
		return nil
	}
	if check && inv.Available() < -quantity-reserved {
		return errors.New(http.StatusConflict, status.INSUFFICIENT_INVENTORY, fmt.Sprintf("insufficient quantity for product %d", productID))
	}
	inv.Quantity += quantity
	inv.Reserved += reserved
	if inv.Reserved < 0 {
		inv.Reserved = 0
	}
	r.m.state.inventories[productID] = inv
	return nil
}

func (r fakeInventoryRepository) Decrement(ctx context.Context, productID, quantity int64, tx *sql.Tx) error {
	return r.adjust(productID, true, -quantity, 0)
}

func (r fakeInventoryRepository) Reserve(ctx context.Context, productID, quantity int64, tx *sql.Tx) error {
	inv := r.m.state.inventories[productID]
	if inv.TrackQuantity && inv.Available() < quantity {
		return errors.New(http.StatusConflict, status.INSUFFICIENT_INVENTORY, fmt.Sprintf("insufficient quantity for product %d", productID))
	}
	return r.adjust(productID, false, 0, quantity)
}

func (r fakeInventoryRepository) Release(ctx context.Context, productID, quantity int64, tx *sql.Tx) error {
	return r.adjust(productID, false, 0, -quantity)
}

func (r fakeInventoryRepository) CommitReservation(ctx context.Context, productID, quantity int64, tx *sql.Tx) error {
	return r.adjust(productID, false, -quantity, -quantity)
}

func (r fakeInventoryRepository) Deduct(ctx context.Context, productID, quantity int64, tx *sql.Tx) error {
	return r.adjust(productID, false, -quantity, 0)
}

type fakeOrderRepository struct{ m *memory }

func (r fakeOrderRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	if err := r.m.fail("BeginTx"); err != nil {
		return nil, err
	}
	backup := r.m.state.clone()
	r.m.backup = &backup
	return nil, nil
}

func (r fakeOrderRepository) CommitTx(ctx context.Context, tx *sql.Tx) error {
	r.m.backup = nil
	return nil
}

func (r fakeOrderRepository) Rollback(ctx context.Context, tx *sql.Tx) error {
	if r.m.backup != nil {
		r.m.state = *r.m.backup
		r.m.backup = nil
	}
	return nil
}

func (r fakeOrderRepository) Savepoint(ctx context.Context, name string, tx *sql.Tx) error {
	return nil
}

func (r fakeOrderRepository) RollbackToSavepoint(ctx context.Context, name string, tx *sql.Tx) error {
	return nil
}

func (r fakeOrderRepository) ReleaseSavepoint(ctx context.Context, name string, tx *sql.Tx) error {
	return nil
}

func (r fakeOrderRepository) Save(ctx context.Context, o Order, tx *sql.Tx) (int64, error) {
	if r.m.state.references[o.Reference] {
		return 0, errors.New(http.StatusConflict, status.CONFLICT, "order reference is already taken")
	}
	o.ID = r.m.id()
	r.m.state.references[o.Reference] = true
	r.m.state.orders[o.ID] = o
	return o.ID, nil
}

func (r fakeOrderRepository) FindByID(ctx context.Context, ID int64, tx *sql.Tx) (Order, error) {
	o, ok := r.m.state.orders[ID]
	if !ok {
		return Order{}, notFound("order")
	}
	return o, nil
}

func (r fakeOrderRepository) FindByIDForUpdate(ctx context.Context, ID int64, tx *sql.Tx) (Order, error) {
	return r.FindByID(ctx, ID, tx)
}

func (r fakeOrderRepository) FindByReference(ctx context.Context, reference string, tx *sql.Tx) (Order, error) {
	o, ok := r.m.orderByReference(reference)
	if !ok {
		return Order{}, errors.New(http.StatusNotFound, status.ORDER_NOT_FOUND, "order is not found")
	}
	return o, nil
}

func (r fakeOrderRepository) filter(customerID int64, orderStatus string) []Order {
	var data []Order
	for _, o := range r.m.state.orders {
		if o.CustomerID == customerID && !o.Staged && (orderStatus == "" || o.Status == orderStatus) {
			data = append(data, o)
		}
	}
	sort.Slice(data, func(i, j int) bool { return data[i].ID > data[j].ID })
	return data
}

func (r fakeOrderRepository) FindMany(ctx context.Context, customerID int64, orderStatus string, offset, limit int64, tx *sql.Tx) ([]Order, error) {
	data := r.filter(customerID, orderStatus)
	if offset >= int64(len(data)) {
		return []Order{}, nil
	}
	end := offset + limit
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	return data[offset:end], nil
}

func (r fakeOrderRepository) Count(ctx context.Context, customerID int64, orderStatus string, tx *sql.Tx) (int64, error) {
	return int64(len(r.filter(customerID, orderStatus))), nil
}

func (r fakeOrderRepository) UpdateSettlement(ctx context.Context, o Order, tx *sql.Tx) error {
	stored := r.m.state.orders[o.ID]
	stored.Status = o.Status
	stored.Staged = o.Staged
	stored.TotalPaid = o.TotalPaid
	stored.Balance = o.Balance
	stored.InventoryState = o.InventoryState
	stored.UpdatedAt = o.UpdatedAt
	r.m.state.orders[o.ID] = stored
	return nil
}

type fakeItemRepository struct{ m *memory }

func (r fakeItemRepository) FindManyByOrderID(ctx context.Context, orderID int64, tx *sql.Tx) ([]Item, error) {
	return append([]Item(nil), r.m.state.items[orderID]...), nil
}

func (r fakeItemRepository) SaveMany(ctx context.Context, items []Item, tx *sql.Tx) error {
	if err := r.m.fail("SaveMany"); err != nil {
		return err
	}
	for _, i := range items {
		i.ID = r.m.id()
		r.m.state.items[i.OrderID] = append(r.m.state.items[i.OrderID], i)
	}
	return nil
}

type fakePaymentRepository struct{ m *memory }

func (r fakePaymentRepository) Save(ctx context.Context, p payment.OnlinePayment, tx *sql.Tx) (int64, error) {
	if r.m.state.references[p.Reference] {
		return 0, errors.New(http.StatusConflict, status.CONFLICT, "payment reference is already taken")
	}
	p.ID = r.m.id()
	r.m.state.references[p.Reference] = true
	r.m.state.payments[p.Reference] = p
	return p.ID, nil
}

func (r fakePaymentRepository) FindByReference(ctx context.Context, reference string, tx *sql.Tx) (payment.OnlinePayment, error) {
	p, ok := r.m.state.payments[reference]
	if !ok {
		return payment.OnlinePayment{}, errors.New(http.StatusNotFound, status.PAYMENT_NOT_FOUND, "payment is not found")
	}
	return p, nil
}

func (r fakePaymentRepository) FindByReferenceForUpdate(ctx context.Context, reference string, tx *sql.Tx) (payment.OnlinePayment, error) {
	return r.FindByReference(ctx, reference, tx)
}

func (r fakePaymentRepository) FindManyByOrderID(ctx context.Context, orderID int64, tx *sql.Tx) ([]payment.OnlinePayment, error) {
	return r.m.paymentsOf(orderID), nil
}

func (r fakePaymentRepository) UpdateVerification(ctx context.Context, p payment.OnlinePayment, tx *sql.Tx) error {
	stored := r.m.state.payments[p.Reference]
	if stored.Status != payment.StatusPending && stored.Status != payment.StatusUnknown {
		return errors.New(http.StatusConflict, status.CONFLICT, "payment has already been settled")
	}
	r.m.state.payments[p.Reference] = p
	return nil
}

func (r fakePaymentRepository) UpdatePaymentLink(ctx context.Context, reference, link string, tx *sql.Tx) error {
	p := r.m.state.payments[reference]
	p.PaymentLink = &link
	r.m.state.payments[reference] = p
	return nil
}

func (r fakePaymentRepository) MarkFailed(ctx context.Context, reference, reason string, tx *sql.Tx) error {
	p := r.m.state.payments[reference]
	if p.Status == payment.StatusPending {
		p.Status = payment.StatusFailed
		p.GatewayResponse = reason
		r.m.state.payments[reference] = p
	}
	return nil
}

type fakeAdapter struct {
	code         string
	verification paymentgateway.Verification
	verifyErr    error
	link         string
	linkErr      error
	verifyCalls  int
	wholeUnits   bool
	linkRequests []paymentgateway.LinkRequest
}

func (a *fakeAdapter) Code() string {
	return a.code
}

func (a *fakeAdapter) ChargeAmount(amount decimal.Decimal) decimal.Decimal {
	if a.wholeUnits {
		return amount.Round(0)
	}
	return amount.Round(2)
}

func (a *fakeAdapter) CreatePaymentLink(ctx context.Context, req paymentgateway.LinkRequest) (string, error) {
	a.linkRequests = append(a.linkRequests, req)
	return a.link, a.linkErr
}

func (a *fakeAdapter) VerifyTransaction(ctx context.Context, creds paymentgateway.Credentials, reference string) (paymentgateway.Verification, error) {
	a.verifyCalls++
	return a.verification, a.verifyErr
}

type publishedMessage struct {
	topic string
	key   string
	body  []byte
}

type fakePublisher struct {
	messages []publishedMessage
}

func (p *fakePublisher) Publish(ctx context.Context, topic string, key string, headers map[string]string, body []byte) error {
	p.messages = append(p.messages, publishedMessage{topic: topic, key: key, body: body})
	return nil
}

func (p *fakePublisher) Close() error {
	return nil
}

func (p *fakePublisher) topics() []string {
	var topics []string
	for _, m := range p.messages {
		topics = append(topics, m.topic)
	}
	return topics
}

type scheduledTask struct {
	queueID  string
	request  gctasks.Request
	duration time.Duration
}

type fakeCloudTask struct {
	tasks []scheduledTask
}

func (c *fakeCloudTask) CreateTask(ctx context.Context, queueID string, request gctasks.Request) error {
	c.tasks = append(c.tasks, scheduledTask{queueID: queueID, request: request})
	return nil
}

func (c *fakeCloudTask) DeferCreateTaskInDuration(ctx context.Context, queueID string, request gctasks.Request, duration time.Duration) error {
	c.tasks = append(c.tasks, scheduledTask{queueID: queueID, request: request, duration: duration})
	return nil
}

func (c *fakeCloudTask) Close() error {
	return nil
}

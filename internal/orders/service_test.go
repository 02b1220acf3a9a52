package orders

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saltyperk/kidocart/internal/domain/cart"
	"github.com/saltyperk/kidocart/internal/domain/order"
	"github.com/saltyperk/kidocart/internal/events"
)

type fakeStore struct {
	orders      map[string]order.Order
	nextID      int64
	createErr   error
	cancelFlips int
}

func newFakeStore() *fakeStore {
	return &fakeStore{orders: map[string]order.Order{}}
}

func (f *fakeStore) Create(_ context.Context, o *order.Order) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	o.ID = f.nextID
	f.orders[o.OrderNumber] = *o
	return nil
}

func (f *fakeStore) ByNumber(_ context.Context, number string) (order.Order, error) {
	o, ok := f.orders[number]
	if !ok {
		return order.Order{}, ErrNotFound
	}
	return o, nil
}

func (f *fakeStore) ByNumberForUser(_ context.Context, userID int64, number string) (order.Order, error) {
	o, ok := f.orders[number]
	if !ok || o.UserID != userID {
		return order.Order{}, ErrNotFound
	}
	return o, nil
}

func (f *fakeStore) ListByUser(_ context.Context, userID int64) ([]order.Order, error) {
	out := []order.Order{}
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeStore) ListAll(_ context.Context) ([]order.Order, error) {
	out := []order.Order{}
	for _, o := range f.orders {
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeStore) MarkCancelled(_ context.Context, number string, at time.Time) (bool, error) {
	o, ok := f.orders[number]
	if !ok {
		return false, nil
	}
	if o.Status == order.StatusDelivered || o.Status == order.StatusCancelled {
		return false, nil
	}
	o.Status = order.StatusCancelled
	o.CancelledAt = &at
	f.orders[number] = o
	f.cancelFlips++
	return true, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, number, status string) (order.Order, error) {
	o, ok := f.orders[number]
	if !ok {
		return order.Order{}, ErrNotFound
	}
	o.Status = status
	f.orders[number] = o
	return o, nil
}

type fakeCartReader struct {
	cart cart.Cart
	err  error
}

func (f *fakeCartReader) GetCart(context.Context, int64) (cart.Cart, error) {
	if f.err != nil {
		return cart.Cart{}, f.err
	}
	return f.cart, nil
}

type recordingPublisher struct {
	queues []string
	bodies []any
}

func (r *recordingPublisher) Publish(_ context.Context, queue string, body any) error {
	r.queues = append(r.queues, queue)
	r.bodies = append(r.bodies, body)
	return nil
}

func testPricing() Pricing {
	return Pricing{FreeShippingThreshold: 499, ShippingFee: 49, TaxRate: 0.18}
}

func newTestService(store Store, carts CartReader, pub events.Publisher) *Service {
	return NewService(store, carts, testPricing(), pub)
}

func TestTotalsAboveFreeShippingThreshold(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeCartReader{}, nil)

	items := []order.Item{{Price: 200, Quantity: 3}} // 600
	subtotal, shipping, tax, total := svc.Totals(items)

	assert.Equal(t, 600.0, subtotal)
	assert.Equal(t, 0.0, shipping)
	assert.Equal(t, 108.0, tax)
	assert.Equal(t, 708.0, total)
}

func TestTotalsBelowFreeShippingThreshold(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeCartReader{}, nil)

	items := []order.Item{{Price: 150, Quantity: 2}} // 300
	subtotal, shipping, tax, total := svc.Totals(items)

	assert.Equal(t, 300.0, subtotal)
	assert.Equal(t, 49.0, shipping)
	assert.Equal(t, 54.0, tax)
	assert.Equal(t, 403.0, total)
}

func TestTotalsInvariant(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeCartReader{}, nil)

	for _, items := range [][]order.Item{
		{{Price: 499, Quantity: 1}},
		{{Price: 499.01, Quantity: 1}},
		{{Price: 33.33, Quantity: 7}, {Price: 0.01, Quantity: 3}},
	} {
		subtotal, shipping, tax, total := svc.Totals(items)
		assert.InDelta(t, subtotal+shipping+tax, total, 0.001)
	}
}

func TestNewOrderNumberFormat(t *testing.T) {
	n := NewOrderNumber(time.Now())
	assert.Regexp(t, regexp.MustCompile(`^ORD-\d{13}-[0-9a-f-]{6}$`), n)
	assert.NotEqual(t, n, NewOrderNumber(time.Now()))
}

func shippingAddr() order.ShippingAddress {
	return order.ShippingAddress{
		FirstName: "Asha", LastName: "Rao", Phone: "9876543210",
		Address: "12 MG Road", City: "Bengaluru", State: "KA", Zip: "560001",
	}
}

func TestCreateSnapshotsCart(t *testing.T) {
	store := newFakeStore()
	carts := &fakeCartReader{cart: cart.Cart{
		UserID: 7,
		Items: []cart.CartItem{
			{ProductID: 1, Quantity: 2, Size: "M", Color: "red", Name: "Tee", Price: 250, Image: "tee.jpg"},
			{ProductID: 2, Quantity: 1, Name: "Cap", Price: 100},
		},
	}}
	svc := newTestService(store, carts, nil)

	o, err := svc.Create(context.Background(), 7, CreateInput{
		ShippingAddress: shippingAddr(),
		PaymentMethod:   "phonepe",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(7), o.UserID)
	assert.Equal(t, order.StatusConfirmed, o.Status)
	assert.Equal(t, order.PaymentPending, o.PaymentStatus)
	require.Len(t, o.Items, 2)
	assert.Equal(t, "Tee", o.Items[0].Name)
	assert.Equal(t, 250.0, o.Items[0].Price)
	assert.Equal(t, 600.0, o.Subtotal)
	assert.Equal(t, 708.0, o.Total)

	// persisted under its order number
	_, err = store.ByNumber(context.Background(), o.OrderNumber)
	assert.NoError(t, err)
}

func TestCreateEmptyCart(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeCartReader{}, nil)

	_, err := svc.Create(context.Background(), 7, CreateInput{ShippingAddress: shippingAddr(), PaymentMethod: "cod"})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCreateInsufficientStock(t *testing.T) {
	store := newFakeStore()
	store.createErr = ErrInsufficientStock
	carts := &fakeCartReader{cart: cart.Cart{Items: []cart.CartItem{{ProductID: 1, Quantity: 5, Price: 10}}}}
	svc := newTestService(store, carts, nil)

	_, err := svc.Create(context.Background(), 7, CreateInput{ShippingAddress: shippingAddr(), PaymentMethod: "cod"})
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func seedOrder(store *fakeStore, userID int64, status, paymentStatus string) order.Order {
	o := order.Order{
		OrderNumber:   NewOrderNumber(time.Now()),
		UserID:        userID,
		Items:         []order.Item{{ProductID: 1, Quantity: 2, Price: 100}},
		Total:         236,
		Status:        status,
		PaymentStatus: paymentStatus,
	}
	_ = store.Create(context.Background(), &o)
	return o
}

func TestCancelConfirmedOrder(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeCartReader{}, nil)
	o := seedOrder(store, 7, order.StatusConfirmed, order.PaymentPending)

	got, err := svc.Cancel(context.Background(), 7, o.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, got.Status)
	require.NotNil(t, got.CancelledAt)

	// one flip through the store; the restock rides in its transaction
	assert.Equal(t, 1, store.cancelFlips)

	stored, _ := store.ByNumber(context.Background(), o.OrderNumber)
	assert.Equal(t, order.StatusCancelled, stored.Status)
}

func TestCreateCartLoadFailure(t *testing.T) {
	carts := &fakeCartReader{err: assert.AnError}
	svc := newTestService(newFakeStore(), carts, nil)

	_, err := svc.Create(context.Background(), 7, CreateInput{ShippingAddress: shippingAddr(), PaymentMethod: "cod"})
	assert.ErrorIs(t, err, assert.AnError)
	assert.NotErrorIs(t, err, ErrEmptyCart)
}

func TestCancelRejectsTerminalStates(t *testing.T) {
	for _, status := range []string{order.StatusDelivered, order.StatusCancelled} {
		store := newFakeStore()
		svc := newTestService(store, &fakeCartReader{}, nil)
		o := seedOrder(store, 7, status, order.PaymentPending)

		_, err := svc.Cancel(context.Background(), 7, o.OrderNumber)
		var stateErr InvalidStateError
		require.ErrorAs(t, err, &stateErr)
		assert.Equal(t, "cannot cancel a "+status+" order", stateErr.Error())
	}
}

func TestCancelNotOwned(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeCartReader{}, nil)
	o := seedOrder(store, 7, order.StatusConfirmed, order.PaymentPending)

	_, err := svc.Cancel(context.Background(), 8, o.OrderNumber)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelPaidOrderRequestsRefund(t *testing.T) {
	store := newFakeStore()
	pub := &recordingPublisher{}
	svc := newTestService(store, &fakeCartReader{}, pub)
	o := seedOrder(store, 7, order.StatusProcessing, order.PaymentPaid)

	_, err := svc.Cancel(context.Background(), 7, o.OrderNumber)
	require.NoError(t, err)

	require.Len(t, pub.queues, 1)
	assert.Equal(t, events.QueueRefundRequested, pub.queues[0])
	evt := pub.bodies[0].(events.RefundRequested)
	assert.Equal(t, o.OrderNumber, evt.OrderNumber)
	assert.Equal(t, 236.0, evt.Amount)
}

func TestCancelUnpaidOrderDoesNotRequestRefund(t *testing.T) {
	store := newFakeStore()
	pub := &recordingPublisher{}
	svc := newTestService(store, &fakeCartReader{}, pub)
	o := seedOrder(store, 7, order.StatusConfirmed, order.PaymentPending)

	_, err := svc.Cancel(context.Background(), 7, o.OrderNumber)
	require.NoError(t, err)
	assert.Empty(t, pub.queues)
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeCartReader{}, nil)
	o := seedOrder(store, 7, order.StatusConfirmed, order.PaymentPending)

	_, err := svc.UpdateStatus(context.Background(), o.OrderNumber, "misplaced")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	got, err := svc.UpdateStatus(context.Background(), o.OrderNumber, order.StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, order.StatusShipped, got.Status)
}

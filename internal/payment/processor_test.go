package payment

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saltyperk/kidocart/internal/domain/order"
	"github.com/saltyperk/kidocart/internal/events"
)

const (
	testSaltKey   = "test-salt-key"
	testSaltIndex = "1"
)

type fakeOrderStore struct {
	orders map[string]order.Order

	resultCalls int
	persistErr  error

	// staleReads makes ByNumber serve the snapshot from before any
	// write, the way a second delivery races past the first's read.
	staleReads map[string]order.Order
}

func newFakeOrderStore(orders ...order.Order) *fakeOrderStore {
	f := &fakeOrderStore{orders: map[string]order.Order{}}
	for _, o := range orders {
		f.orders[o.OrderNumber] = o
	}
	return f
}

func (f *fakeOrderStore) ByNumber(_ context.Context, number string) (order.Order, error) {
	if o, ok := f.staleReads[number]; ok {
		return o, nil
	}
	o, ok := f.orders[number]
	if !ok {
		return order.Order{}, ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeOrderStore) SetPaymentResult(_ context.Context, number, status, transactionID string, paidAt *time.Time) (bool, error) {
	if f.persistErr != nil {
		return false, f.persistErr
	}
	o := f.orders[number]
	if o.PaymentStatus == order.PaymentPaid {
		return false, nil
	}
	f.resultCalls++
	o.PaymentStatus = status
	o.TransactionID = transactionID
	o.PaidAt = paidAt
	f.orders[number] = o
	return true, nil
}

type fakeCartClearer struct {
	cleared []int64
}

func (f *fakeCartClearer) ClearCart(_ context.Context, userID int64) error {
	f.cleared = append(f.cleared, userID)
	return nil
}

type fakeMailer struct {
	sent []string
}

func (f *fakeMailer) Send(to, _, _ string) error {
	f.sent = append(f.sent, to)
	return nil
}

type fakeUserEmails struct{}

func (fakeUserEmails) EmailByID(context.Context, int64) (string, error) {
	return "shopper@example.com", nil
}

type capturingPublisher struct {
	queues []string
	bodies []any
}

func (c *capturingPublisher) Publish(_ context.Context, queue string, body any) error {
	c.queues = append(c.queues, queue)
	c.bodies = append(c.bodies, body)
	return nil
}

func testOrder(number, txnID, paymentStatus string) order.Order {
	return order.Order{
		OrderNumber:           number,
		UserID:                42,
		Total:                 708,
		Status:                order.StatusConfirmed,
		PaymentStatus:         paymentStatus,
		MerchantTransactionID: txnID,
	}
}

// encodeCallback builds a signed gateway notification body.
func encodeCallback(t *testing.T, code, merchantTxnID, gatewayTxnID string) (string, string) {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"code": code,
		"data": map[string]string{
			"merchantTransactionId": merchantTxnID,
			"transactionId":         gatewayTxnID,
		},
	})
	require.NoError(t, err)
	encoded := base64.StdEncoding.EncodeToString(raw)
	return encoded, Checksum(encoded, "", testSaltKey, testSaltIndex)
}

func TestProcessSuccessMarksPaidAndClearsCart(t *testing.T) {
	txnID := NewMerchantTransactionID("ORD-1756712345678-a1b2c3", time.Now())
	store := newFakeOrderStore(testOrder("ORD-1756712345678-a1b2c3", txnID, order.PaymentInitiated))
	carts := &fakeCartClearer{}
	pub := &capturingPublisher{}
	mailer := &fakeMailer{}
	p := NewProcessor(testSaltKey, testSaltIndex, store, carts, pub, mailer, fakeUserEmails{}, nil)

	encoded, checksum := encodeCallback(t, "PAYMENT_SUCCESS", txnID, "T2409081234")
	res, err := p.Process(context.Background(), encoded, checksum)
	require.NoError(t, err)

	assert.Equal(t, "ORD-1756712345678-a1b2c3", res.OrderNumber)
	assert.Equal(t, order.PaymentPaid, res.Status)
	assert.False(t, res.AlreadyProcessed)

	stored := store.orders["ORD-1756712345678-a1b2c3"]
	assert.Equal(t, order.PaymentPaid, stored.PaymentStatus)
	assert.Equal(t, "T2409081234", stored.TransactionID)
	require.NotNil(t, stored.PaidAt)

	assert.Equal(t, []int64{42}, carts.cleared)
	require.Len(t, pub.queues, 1)
	assert.Equal(t, events.QueueOrderPaid, pub.queues[0])
	assert.Equal(t, []string{"shopper@example.com"}, mailer.sent)
}

func TestProcessDuplicateDeliveryIsAcknowledgedOnce(t *testing.T) {
	txnID := NewMerchantTransactionID("ORD-1756712345678-a1b2c3", time.Now())
	store := newFakeOrderStore(testOrder("ORD-1756712345678-a1b2c3", txnID, order.PaymentInitiated))
	carts := &fakeCartClearer{}
	p := NewProcessor(testSaltKey, testSaltIndex, store, carts, nil, nil, nil, nil)

	encoded, checksum := encodeCallback(t, "PAYMENT_SUCCESS", txnID, "T2409081234")

	first, err := p.Process(context.Background(), encoded, checksum)
	require.NoError(t, err)
	assert.False(t, first.AlreadyProcessed)

	second, err := p.Process(context.Background(), encoded, checksum)
	require.NoError(t, err)
	assert.True(t, second.AlreadyProcessed)
	assert.Equal(t, order.PaymentPaid, second.Status)

	// side effects applied exactly once
	assert.Equal(t, 1, store.resultCalls)
	assert.Len(t, carts.cleared, 1)
}

func TestProcessRacingDeliveriesApplyOnce(t *testing.T) {
	txnID := NewMerchantTransactionID("ORD-1756712345678-a1b2c3", time.Now())
	o := testOrder("ORD-1756712345678-a1b2c3", txnID, order.PaymentInitiated)
	store := newFakeOrderStore(o)
	// both deliveries observe the pre-write state, so neither is caught
	// by the read-side guard; only the conditional write decides
	store.staleReads = map[string]order.Order{o.OrderNumber: o}
	carts := &fakeCartClearer{}
	pub := &capturingPublisher{}
	mailer := &fakeMailer{}
	p := NewProcessor(testSaltKey, testSaltIndex, store, carts, pub, mailer, fakeUserEmails{}, nil)

	encoded, checksum := encodeCallback(t, "PAYMENT_SUCCESS", txnID, "T2409081234")

	first, err := p.Process(context.Background(), encoded, checksum)
	require.NoError(t, err)
	assert.False(t, first.AlreadyProcessed)

	second, err := p.Process(context.Background(), encoded, checksum)
	require.NoError(t, err)
	assert.True(t, second.AlreadyProcessed)
	assert.Equal(t, order.PaymentPaid, second.Status)

	assert.Equal(t, 1, store.resultCalls)
	assert.Len(t, carts.cleared, 1)
	assert.Len(t, pub.queues, 1)
	assert.Len(t, mailer.sent, 1)
}

func TestProcessTamperedChecksum(t *testing.T) {
	txnID := NewMerchantTransactionID("ORD-1756712345678-a1b2c3", time.Now())
	store := newFakeOrderStore(testOrder("ORD-1756712345678-a1b2c3", txnID, order.PaymentInitiated))
	p := NewProcessor(testSaltKey, testSaltIndex, store, &fakeCartClearer{}, nil, nil, nil, nil)

	encoded, checksum := encodeCallback(t, "PAYMENT_SUCCESS", txnID, "T2409081234")

	_, err := p.Process(context.Background(), encoded, checksum+"x")
	assert.ErrorIs(t, err, ErrBadChecksum)

	// forged body with the original signature
	forged, _ := encodeCallback(t, "PAYMENT_SUCCESS", txnID, "T9999999999")
	_, err = p.Process(context.Background(), forged, checksum)
	assert.ErrorIs(t, err, ErrBadChecksum)

	assert.Equal(t, 0, store.resultCalls)
}

func TestProcessBadPayload(t *testing.T) {
	p := NewProcessor(testSaltKey, testSaltIndex, newFakeOrderStore(), &fakeCartClearer{}, nil, nil, nil, nil)

	_, err := p.Process(context.Background(), "", "whatever")
	assert.ErrorIs(t, err, ErrBadPayload)

	_, err = p.Process(context.Background(), "not-base64!!!", "whatever")
	assert.ErrorIs(t, err, ErrBadPayload)

	notJSON := base64.StdEncoding.EncodeToString([]byte("not json"))
	_, err = p.Process(context.Background(), notJSON, Checksum(notJSON, "", testSaltKey, testSaltIndex))
	assert.ErrorIs(t, err, ErrBadPayload)
}

func TestProcessUnknownOrder(t *testing.T) {
	p := NewProcessor(testSaltKey, testSaltIndex, newFakeOrderStore(), &fakeCartClearer{}, nil, nil, nil, nil)

	txnID := NewMerchantTransactionID("ORD-1756712345678-a1b2c3", time.Now())
	encoded, checksum := encodeCallback(t, "PAYMENT_SUCCESS", txnID, "T2409081234")

	_, err := p.Process(context.Background(), encoded, checksum)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestProcessStaleTransactionID(t *testing.T) {
	current := NewMerchantTransactionID("ORD-1756712345678-a1b2c3", time.Now())
	store := newFakeOrderStore(testOrder("ORD-1756712345678-a1b2c3", current, order.PaymentInitiated))
	p := NewProcessor(testSaltKey, testSaltIndex, store, &fakeCartClearer{}, nil, nil, nil, nil)

	stale := NewMerchantTransactionID("ORD-1756712345678-a1b2c3", time.Now().Add(-time.Hour))
	encoded, checksum := encodeCallback(t, "PAYMENT_SUCCESS", stale, "T2409081234")

	_, err := p.Process(context.Background(), encoded, checksum)
	assert.ErrorIs(t, err, ErrTxnMismatch)
	assert.Equal(t, 0, store.resultCalls)
}

func TestProcessPendingAndFailedCodes(t *testing.T) {
	cases := []struct {
		code       string
		wantStatus string
	}{
		{"PAYMENT_PENDING", order.PaymentPending},
		{"PAYMENT_ERROR", order.PaymentFailed},
		{"PAYMENT_DECLINED", order.PaymentFailed},
	}
	for _, tc := range cases {
		txnID := NewMerchantTransactionID("ORD-1756712345678-a1b2c3", time.Now())
		store := newFakeOrderStore(testOrder("ORD-1756712345678-a1b2c3", txnID, order.PaymentInitiated))
		carts := &fakeCartClearer{}
		pub := &capturingPublisher{}
		p := NewProcessor(testSaltKey, testSaltIndex, store, carts, pub, nil, nil, nil)

		encoded, checksum := encodeCallback(t, tc.code, txnID, "T2409081234")
		res, err := p.Process(context.Background(), encoded, checksum)
		require.NoError(t, err, "code %s", tc.code)

		assert.Equal(t, tc.wantStatus, res.Status, "code %s", tc.code)
		assert.Nil(t, store.orders["ORD-1756712345678-a1b2c3"].PaidAt)

		// cart survives anything short of a successful payment
		assert.Empty(t, carts.cleared, "code %s", tc.code)
		assert.Empty(t, pub.queues, "code %s", tc.code)
	}
}

func TestProcessPersistFailureSurfaces(t *testing.T) {
	txnID := NewMerchantTransactionID("ORD-1756712345678-a1b2c3", time.Now())
	store := newFakeOrderStore(testOrder("ORD-1756712345678-a1b2c3", txnID, order.PaymentInitiated))
	store.persistErr = assert.AnError
	carts := &fakeCartClearer{}
	p := NewProcessor(testSaltKey, testSaltIndex, store, carts, nil, nil, nil, nil)

	encoded, checksum := encodeCallback(t, "PAYMENT_SUCCESS", txnID, "T2409081234")
	_, err := p.Process(context.Background(), encoded, checksum)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, carts.cleared)
}

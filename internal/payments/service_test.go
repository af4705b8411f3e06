package payments

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dukahub/duka-backend/internal/ledger"
	"github.com/dukahub/duka-backend/internal/orders"
	"github.com/dukahub/duka-backend/pkg/config"
	"github.com/dukahub/duka-backend/pkg/daraja"
	"github.com/dukahub/duka-backend/pkg/db/models"
	"github.com/dukahub/duka-backend/pkg/enums"
	pkgerrors "github.com/dukahub/duka-backend/pkg/errors"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeGateway struct {
	pushResp  *daraja.PushResponse
	pushErr   error
	pushCalls int
	lastPush  daraja.PushRequest

	queryResp  *daraja.QueryResponse
	queryErr   error
	queryCalls int
}

func (f *fakeGateway) InitiatePush(_ context.Context, req daraja.PushRequest) (*daraja.PushResponse, error) {
	f.pushCalls++
	f.lastPush = req
	if f.pushErr != nil {
		return nil, f.pushErr
	}
	return f.pushResp, nil
}

func (f *fakeGateway) QueryStatus(_ context.Context, _ string) (*daraja.QueryResponse, error) {
	f.queryCalls++
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.queryResp, nil
}

func setupPaymentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{`
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  address_id TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  total TEXT NOT NULL,
  payment_ref TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  unit_price TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS transactions (
  id TEXT PRIMARY KEY,
  pid TEXT NOT NULL,
  provider_ref TEXT,
  category TEXT NOT NULL,
  type TEXT NOT NULL,
  channel TEXT NOT NULL,
  aggregator TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  amount TEXT NOT NULL,
  party_a TEXT NOT NULL,
  party_b TEXT NOT NULL,
  account_reference TEXT NOT NULL,
  receipt_code TEXT,
  details TEXT,
  feedback TEXT,
  order_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  lock_version INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE UNIQUE INDEX IF NOT EXISTS ux_transactions_pid ON transactions(pid);`, `
CREATE UNIQUE INDEX IF NOT EXISTS ux_transactions_provider_ref ON transactions(provider_ref) WHERE provider_ref IS NOT NULL;`, `
CREATE UNIQUE INDEX IF NOT EXISTS ux_transactions_active_order ON transactions(order_id) WHERE status IN ('pending', 'processing');`, `
CREATE TABLE IF NOT EXISTS transaction_events (
  id TEXT PRIMARY KEY,
  transaction_id TEXT NOT NULL,
  from_status TEXT NOT NULL,
  to_status TEXT NOT NULL,
  source TEXT NOT NULL,
  payload TEXT,
  created_at DATETIME
);`}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type paymentsFixture struct {
	db      *gorm.DB
	ledger  ledger.Repository
	orders  orders.Repository
	gateway *fakeGateway
	svc     Service
}

func newPaymentsFixture(t *testing.T) *paymentsFixture {
	t.Helper()

	db := setupPaymentsTestDB(t)
	ledgerRepo := ledger.NewRepository(db)
	orderRepo := orders.NewRepository(db)
	gateway := &fakeGateway{}

	svc, err := NewService(ServiceParams{
		Ledger:    ledgerRepo,
		Orders:    orderRepo,
		Gateway:   gateway,
		Tx:        stubTxRunner{},
		Policy:    NewCascadePolicy(config.OrdersConfig{PaidStatus: "processing"}),
		ShortCode: "174379",
	})
	require.NoError(t, err)

	return &paymentsFixture{
		db:      db,
		ledger:  ledgerRepo,
		orders:  orderRepo,
		gateway: gateway,
		svc:     svc,
	}
}

func (f *paymentsFixture) seedOrder(t *testing.T, userID uuid.UUID, status enums.OrderStatus, total int64) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:     uuid.New(),
		UserID: userID,
		Status: status,
		Total:  decimal.NewFromInt(total),
	}
	require.NoError(t, f.db.Create(order).Error)
	return order
}

func acceptedPush(ref string) *daraja.PushResponse {
	return &daraja.PushResponse{
		MerchantRequestID:   "merchant-1",
		CheckoutRequestID:   ref,
		ResponseCode:        "0",
		ResponseDescription: "Success. Request accepted for processing",
		CustomerMessage:     "Success. Request accepted for processing",
	}
}

func callbackEnvelope(ref string, resultCode int, items []daraja.CallbackItem) daraja.CallbackEnvelope {
	var envelope daraja.CallbackEnvelope
	envelope.Body.StkCallback.MerchantRequestID = "merchant-1"
	envelope.Body.StkCallback.CheckoutRequestID = ref
	envelope.Body.StkCallback.ResultCode = json.Number(strconv.Itoa(resultCode))
	envelope.Body.StkCallback.ResultDesc = "callback"
	envelope.Body.StkCallback.CallbackMetadata.Item = items
	return envelope
}

func TestInitiateHappyPath(t *testing.T) {
	f := newPaymentsFixture(t)
	userID := uuid.New()
	order := f.seedOrder(t, userID, enums.OrderStatusPending, 1500)
	f.gateway.pushResp = acceptedPush("ws_CO_1001")

	resp, err := f.svc.Initiate(context.Background(), userID, InitiateRequest{
		OrderID:     order.ID,
		PhoneNumber: "0712345678",
		Amount:      decimal.NewFromInt(1500),
	})
	require.NoError(t, err)
	assert.Equal(t, "ws_CO_1001", resp.CheckoutRequestID)
	assert.True(t, strings.HasPrefix(resp.PaymentRef, "ORDER-"+order.ID.String()+"-"))
	assert.Equal(t, "Success. Request accepted for processing", resp.CustomerMessage)

	assert.Equal(t, "254712345678", f.gateway.lastPush.PhoneNumber)
	assert.Equal(t, "1500", f.gateway.lastPush.Amount)

	txn, err := f.ledger.FindActiveByOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusPending, txn.Status)
	require.NotNil(t, txn.ProviderRef)
	assert.Equal(t, "ws_CO_1001", *txn.ProviderRef)
	assert.Equal(t, resp.PaymentRef, txn.PID)

	linked, err := f.orders.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.NotNil(t, linked.PaymentRef)
	assert.Equal(t, "ws_CO_1001", *linked.PaymentRef)

	events, err := f.ledger.ListEventsByTransaction(context.Background(), txn.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, sourceInitiate, events[0].Source)
}

func TestInitiateGatewayFailureLeavesNoLedgerRow(t *testing.T) {
	f := newPaymentsFixture(t)
	userID := uuid.New()
	order := f.seedOrder(t, userID, enums.OrderStatusPending, 1500)
	f.gateway.pushErr = errors.New("connection reset")

	_, err := f.svc.Initiate(context.Background(), userID, InitiateRequest{
		OrderID:     order.ID,
		PhoneNumber: "254712345678",
		Amount:      decimal.NewFromInt(1500),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeGateway))

	_, err = f.ledger.FindLatestByOrder(context.Background(), order.ID)
	assert.ErrorIs(t, err, ledger.ErrTransactionNotFound)
}

func TestInitiateGatewayRejection(t *testing.T) {
	f := newPaymentsFixture(t)
	userID := uuid.New()
	order := f.seedOrder(t, userID, enums.OrderStatusPending, 1500)
	f.gateway.pushResp = &daraja.PushResponse{
		ResponseCode:        "1",
		ResponseDescription: "Invalid Access Token",
	}

	_, err := f.svc.Initiate(context.Background(), userID, InitiateRequest{
		OrderID:     order.ID,
		PhoneNumber: "254712345678",
		Amount:      decimal.NewFromInt(1500),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeGateway))

	_, err = f.ledger.FindLatestByOrder(context.Background(), order.ID)
	assert.ErrorIs(t, err, ledger.ErrTransactionNotFound)
}

func TestInitiateAmountMismatch(t *testing.T) {
	f := newPaymentsFixture(t)
	userID := uuid.New()
	order := f.seedOrder(t, userID, enums.OrderStatusPending, 1500)

	_, err := f.svc.Initiate(context.Background(), userID, InitiateRequest{
		OrderID:     order.ID,
		PhoneNumber: "254712345678",
		Amount:      decimal.NewFromInt(1499),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeAmountMismatch))
	assert.Zero(t, f.gateway.pushCalls)
}

func TestInitiateDuplicateInFlight(t *testing.T) {
	f := newPaymentsFixture(t)
	userID := uuid.New()
	order := f.seedOrder(t, userID, enums.OrderStatusPending, 1500)
	f.gateway.pushResp = acceptedPush("ws_CO_1001")

	_, err := f.svc.Initiate(context.Background(), userID, InitiateRequest{
		OrderID:     order.ID,
		PhoneNumber: "254712345678",
		Amount:      decimal.NewFromInt(1500),
	})
	require.NoError(t, err)

	_, err = f.svc.Initiate(context.Background(), userID, InitiateRequest{
		OrderID:     order.ID,
		PhoneNumber: "254712345678",
		Amount:      decimal.NewFromInt(1500),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDuplicateInFlight))
	assert.Equal(t, 1, f.gateway.pushCalls)
}

func TestInitiateBlockedAfterSettledPayment(t *testing.T) {
	f := newPaymentsFixture(t)
	userID := uuid.New()
	order := f.seedOrder(t, userID, enums.OrderStatusPending, 1500)
	initiatePayment(t, f, userID, order, "ws_CO_9001")

	success := callbackEnvelope("ws_CO_9001", 0, []daraja.CallbackItem{
		{Name: "MpesaReceiptNumber", Value: json.RawMessage(`"QK12XYZ789"`)},
	})
	raw, _ := json.Marshal(success)
	require.NoError(t, f.svc.Reconcile(context.Background(), success, raw))

	// the cascade leaves the order non-terminal, but a paid order must never
	// be pushed a second charge
	_, err := f.svc.Initiate(context.Background(), userID, InitiateRequest{
		OrderID:     order.ID,
		PhoneNumber: "254712345678",
		Amount:      decimal.NewFromInt(1500),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDuplicateInFlight))
	assert.Equal(t, 1, f.gateway.pushCalls)
}

func TestInitiateTerminalOrder(t *testing.T) {
	f := newPaymentsFixture(t)
	userID := uuid.New()
	order := f.seedOrder(t, userID, enums.OrderStatusCancelled, 1500)

	_, err := f.svc.Initiate(context.Background(), userID, InitiateRequest{
		OrderID:     order.ID,
		PhoneNumber: "254712345678",
		Amount:      decimal.NewFromInt(1500),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
}

func TestInitiateHidesForeignOrder(t *testing.T) {
	f := newPaymentsFixture(t)
	owner := uuid.New()
	order := f.seedOrder(t, owner, enums.OrderStatusPending, 1500)

	_, err := f.svc.Initiate(context.Background(), uuid.New(), InitiateRequest{
		OrderID:     order.ID,
		PhoneNumber: "254712345678",
		Amount:      decimal.NewFromInt(1500),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestInitiateInvalidPhone(t *testing.T) {
	f := newPaymentsFixture(t)
	userID := uuid.New()
	order := f.seedOrder(t, userID, enums.OrderStatusPending, 1500)

	for _, phone := range []string{"", "12345", "255712345678", "07123456"} {
		_, err := f.svc.Initiate(context.Background(), userID, InitiateRequest{
			OrderID:     order.ID,
			PhoneNumber: phone,
			Amount:      decimal.NewFromInt(1500),
		})
		require.Error(t, err, phone)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), phone)
	}
}

func initiatePayment(t *testing.T, f *paymentsFixture, userID uuid.UUID, order *models.Order, ref string) *models.Transaction {
	t.Helper()
	f.gateway.pushResp = acceptedPush(ref)
	_, err := f.svc.Initiate(context.Background(), userID, InitiateRequest{
		OrderID:     order.ID,
		PhoneNumber: "254712345678",
		Amount:      order.Total,
	})
	require.NoError(t, err)
	txn, err := f.ledger.FindByProviderRef(context.Background(), ref)
	require.NoError(t, err)
	return txn
}

func TestReconcileSuccessCascadesOrder(t *testing.T) {
	f := newPaymentsFixture(t)
	userID := uuid.New()
	order := f.seedOrder(t, userID, enums.OrderStatusPending, 1500)
	txn := initiatePayment(t, f, userID, order, "ws_CO_2001")

	envelope := callbackEnvelope("ws_CO_2001", 0, []daraja.CallbackItem{
		{Name: "Amount", Value: json.RawMessage(`1500`)},
		{Name: "MpesaReceiptNumber", Value: json.RawMessage(`"QK12XYZ789"`)},
		{Name: "PhoneNumber", Value: json.RawMessage(`254712345678`)},
	})
	raw, err := json.Marshal(envelope)
	require.NoError(t, err)

	require.NoError(t, f.svc.Reconcile(context.Background(), envelope, raw))

	settled, err := f.ledger.FindByPID(context.Background(), txn.PID)
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusAccepted, settled.Status)
	require.NotNil(t, settled.ReceiptCode)
	assert.Equal(t, "QK12XYZ789", *settled.ReceiptCode)
	assert.JSONEq(t, string(raw), string(settled.Feedback))

	refreshed, err := f.orders.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusProcessing, refreshed.Status)
	require.NotNil(t, refreshed.PaymentRef)
	assert.Equal(t, "ws_CO_2001", *refreshed.PaymentRef)

	events, err := f.ledger.ListEventsByTransaction(context.Background(), txn.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, sourceCallback, events[1].Source)
	assert.Equal(t, enums.TransactionStatusAccepted, events[1].ToStatus)
}

func TestReconcileFailureLeavesOrderUntouched(t *testing.T) {
	f := newPaymentsFixture(t)
	userID := uuid.New()
	order := f.seedOrder(t, userID, enums.OrderStatusPending, 1500)
	txn := initiatePayment(t, f, userID, order, "ws_CO_2002")

	envelope := callbackEnvelope("ws_CO_2002", 1032, nil)
	raw, _ := json.Marshal(envelope)
	require.NoError(t, f.svc.Reconcile(context.Background(), envelope, raw))

	settled, err := f.ledger.FindByPID(context.Background(), txn.PID)
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusRejected, settled.Status)
	assert.Nil(t, settled.ReceiptCode)

	refreshed, err := f.orders.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, refreshed.Status)
	require.NotNil(t, refreshed.PaymentRef)
	assert.Equal(t, "ws_CO_2002", *refreshed.PaymentRef)
}

func TestReconcileIsIdempotent(t *testing.T) {
	f := newPaymentsFixture(t)
	userID := uuid.New()
	order := f.seedOrder(t, userID, enums.OrderStatusPending, 1500)
	txn := initiatePayment(t, f, userID, order, "ws_CO_2003")

	success := callbackEnvelope("ws_CO_2003", 0, []daraja.CallbackItem{
		{Name: "MpesaReceiptNumber", Value: json.RawMessage(`"QK12XYZ789"`)},
	})
	raw, _ := json.Marshal(success)
	require.NoError(t, f.svc.Reconcile(context.Background(), success, raw))

	// a replayed failure callback must not flip a settled transaction; the
	// delivery still refreshes the stored payload and lands in the audit log
	failure := callbackEnvelope("ws_CO_2003", 1, nil)
	rawFailure, _ := json.Marshal(failure)
	require.NoError(t, f.svc.Reconcile(context.Background(), failure, rawFailure))

	settled, err := f.ledger.FindByPID(context.Background(), txn.PID)
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusAccepted, settled.Status)
	require.NotNil(t, settled.ReceiptCode)
	assert.Equal(t, "QK12XYZ789", *settled.ReceiptCode)
	assert.JSONEq(t, string(rawFailure), string(settled.Feedback))

	events, err := f.ledger.ListEventsByTransaction(context.Background(), txn.ID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, enums.TransactionStatusAccepted, events[2].FromStatus)
	assert.Equal(t, enums.TransactionStatusAccepted, events[2].ToStatus)
}

func TestReconcileUnknownReference(t *testing.T) {
	f := newPaymentsFixture(t)

	envelope := callbackEnvelope("ws_CO_missing", 0, nil)
	raw, _ := json.Marshal(envelope)
	err := f.svc.Reconcile(context.Background(), envelope, raw)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestReconcileMissingReference(t *testing.T) {
	f := newPaymentsFixture(t)

	err := f.svc.Reconcile(context.Background(), daraja.CallbackEnvelope{}, []byte(`{}`))
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeMalformedCallback))
}

func TestQueryPaidTransaction(t *testing.T) {
	f := newPaymentsFixture(t)
	userID := uuid.New()
	order := f.seedOrder(t, userID, enums.OrderStatusPending, 1500)
	txn := initiatePayment(t, f, userID, order, "ws_CO_3001")

	success := callbackEnvelope("ws_CO_3001", 0, []daraja.CallbackItem{
		{Name: "MpesaReceiptNumber", Value: json.RawMessage(`"QK12XYZ789"`)},
	})
	raw, _ := json.Marshal(success)
	require.NoError(t, f.svc.Reconcile(context.Background(), success, raw))

	resp, err := f.svc.Query(context.Background(), userID, order.ID, false)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusAccepted, resp.Status)
	assert.Equal(t, "QK12XYZ789", resp.ReceiptCode)
	assert.Equal(t, txn.PID, resp.PaymentRef)
	assert.Zero(t, f.gateway.queryCalls)
}

func TestQueryPollsGatewayWhilePending(t *testing.T) {
	f := newPaymentsFixture(t)
	userID := uuid.New()
	order := f.seedOrder(t, userID, enums.OrderStatusPending, 1500)
	txn := initiatePayment(t, f, userID, order, "ws_CO_3002")

	f.gateway.queryResp = &daraja.QueryResponse{
		ResponseCode: "0",
		ResultCode:   "0",
		ResultDesc:   "The service request is processed successfully.",
	}

	resp, err := f.svc.Query(context.Background(), userID, order.ID, false)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusAccepted, resp.Status)
	assert.Equal(t, 1, f.gateway.queryCalls)

	settled, err := f.ledger.FindByPID(context.Background(), txn.PID)
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusAccepted, settled.Status)

	refreshed, err := f.orders.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusProcessing, refreshed.Status)
}

func TestQueryMapsPayerCancellation(t *testing.T) {
	f := newPaymentsFixture(t)
	userID := uuid.New()
	order := f.seedOrder(t, userID, enums.OrderStatusPending, 1500)
	initiatePayment(t, f, userID, order, "ws_CO_3003")

	f.gateway.queryResp = &daraja.QueryResponse{
		ResponseCode: "0",
		ResultCode:   "1032",
		ResultDesc:   "Request cancelled by user",
	}

	resp, err := f.svc.Query(context.Background(), userID, order.ID, false)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusCanceled, resp.Status)

	refreshed, err := f.orders.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, refreshed.Status)
}

func TestQueryMapsOtherFailures(t *testing.T) {
	f := newPaymentsFixture(t)
	userID := uuid.New()
	order := f.seedOrder(t, userID, enums.OrderStatusPending, 1500)
	initiatePayment(t, f, userID, order, "ws_CO_3004")

	f.gateway.queryResp = &daraja.QueryResponse{
		ResponseCode: "0",
		ResultCode:   "2001",
		ResultDesc:   "The initiator information is invalid.",
	}

	resp, err := f.svc.Query(context.Background(), userID, order.ID, false)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusRejected, resp.Status)
}

func TestQueryGatewayError(t *testing.T) {
	f := newPaymentsFixture(t)
	userID := uuid.New()
	order := f.seedOrder(t, userID, enums.OrderStatusPending, 1500)
	initiatePayment(t, f, userID, order, "ws_CO_3005")

	f.gateway.queryErr = errors.New("timeout")

	_, err := f.svc.Query(context.Background(), userID, order.ID, false)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeGateway))
}

func TestQueryNoPaymentAttempt(t *testing.T) {
	f := newPaymentsFixture(t)
	userID := uuid.New()
	order := f.seedOrder(t, userID, enums.OrderStatusPending, 1500)

	_, err := f.svc.Query(context.Background(), userID, order.ID, false)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestQueryAdminBypassesOwnership(t *testing.T) {
	f := newPaymentsFixture(t)
	owner := uuid.New()
	order := f.seedOrder(t, owner, enums.OrderStatusPending, 1500)
	initiatePayment(t, f, owner, order, "ws_CO_3006")

	f.gateway.queryResp = &daraja.QueryResponse{
		ResponseCode: "0",
		ResultCode:   "0",
		ResultDesc:   "The service request is processed successfully.",
	}

	resp, err := f.svc.Query(context.Background(), uuid.New(), order.ID, true)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusAccepted, resp.Status)
}

func TestCanonicalStatusCancelDetails(t *testing.T) {
	details := "1032: Request cancelled by user"
	txn := &models.Transaction{Status: enums.TransactionStatusRejected, Details: &details}
	assert.Equal(t, enums.PaymentStatusCanceled, canonicalStatus(txn))

	other := "2001: The initiator information is invalid."
	txn.Details = &other
	assert.Equal(t, enums.PaymentStatusRejected, canonicalStatus(txn))
}

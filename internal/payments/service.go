package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dukahub/duka-backend/internal/ledger"
	"github.com/dukahub/duka-backend/internal/orders"
	"github.com/dukahub/duka-backend/pkg/daraja"
	"github.com/dukahub/duka-backend/pkg/db"
	"github.com/dukahub/duka-backend/pkg/db/models"
	"github.com/dukahub/duka-backend/pkg/enums"
	pkgerrors "github.com/dukahub/duka-backend/pkg/errors"
	"github.com/dukahub/duka-backend/pkg/logger"
	"github.com/dukahub/duka-backend/pkg/metrics"
)

const (
	sourceInitiate = "initiate"
	sourceCallback = "callback"
	sourceQuery    = "query"

	// query result code for a payer-cancelled push
	queryResultCancelled = "1032"
)

var phonePattern = regexp.MustCompile(`^254[17]\d{8}$`)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service coordinates the payment lifecycle between orders, the ledger, and
// the provider gateway.
type Service interface {
	Initiate(ctx context.Context, userID uuid.UUID, req InitiateRequest) (*InitiateResponse, error)
	Reconcile(ctx context.Context, envelope daraja.CallbackEnvelope, raw []byte) error
	Query(ctx context.Context, userID, orderID uuid.UUID, isAdmin bool) (*StatusResponse, error)
}

type service struct {
	ledger    ledger.Repository
	orders    orders.Repository
	gateway   daraja.Gateway
	tx        txRunner
	policy    CascadePolicy
	metrics   *metrics.PaymentMetrics
	logg      *logger.Logger
	shortCode string
}

// ServiceParams bundles the dependencies required to build a payment service.
type ServiceParams struct {
	Ledger    ledger.Repository
	Orders    orders.Repository
	Gateway   daraja.Gateway
	Tx        txRunner
	Policy    CascadePolicy
	Metrics   *metrics.PaymentMetrics
	Logger    *logger.Logger
	ShortCode string
}

// NewService constructs the payment coordinator.
func NewService(params ServiceParams) (Service, error) {
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Policy == nil {
		return nil, fmt.Errorf("cascade policy required")
	}
	return &service{
		ledger:    params.Ledger,
		orders:    params.Orders,
		gateway:   params.Gateway,
		tx:        params.Tx,
		policy:    params.Policy,
		metrics:   params.Metrics,
		logg:      params.Logger,
		shortCode: params.ShortCode,
	}, nil
}

// Initiate pushes a payment prompt for the order. The ledger row is written
// only after the gateway has accepted the push, so a failed push leaves no
// trace and the customer can simply retry.
func (s *service) Initiate(ctx context.Context, userID uuid.UUID, req InitiateRequest) (*InitiateResponse, error) {
	if req.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	phone, err := normalizePhone(req.PhoneNumber)
	if err != nil {
		return nil, err
	}

	order, err := s.ownedOrder(ctx, userID, req.OrderID, false)
	if err != nil {
		return nil, err
	}
	if order.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order is %s and cannot be paid", order.Status))
	}
	if !req.Amount.Equal(order.Total) {
		return nil, pkgerrors.New(pkgerrors.CodeAmountMismatch,
			fmt.Sprintf("amount %s does not match order total %s", req.Amount, order.Total))
	}

	if active, err := s.ledger.FindActiveByOrder(ctx, order.ID); err == nil {
		if active.Status == enums.TransactionStatusAccepted {
			return nil, pkgerrors.New(pkgerrors.CodeDuplicateInFlight, "order already has a settled payment")
		}
		return nil, pkgerrors.New(pkgerrors.CodeDuplicateInFlight, "a payment for this order is already in progress")
	} else if !errors.Is(err, ledger.ErrTransactionNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check in-flight payments")
	}

	pid := newPID(order.ID)
	push, err := s.gateway.InitiatePush(ctx, daraja.PushRequest{
		Amount:           order.Total.StringFixed(0),
		PhoneNumber:      phone,
		AccountReference: pid,
		Description:      fmt.Sprintf("Order %s", order.ID),
	})
	if err != nil {
		s.metrics.IncPush("error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "initiate payment push")
	}
	if !push.Accepted() {
		s.metrics.IncPush("gateway_rejected")
		return nil, pkgerrors.New(pkgerrors.CodeGateway,
			fmt.Sprintf("gateway rejected push: %s", push.ResponseDescription))
	}

	providerRef := push.CheckoutRequestID
	txn := &models.Transaction{
		PID:              pid,
		ProviderRef:      &providerRef,
		Category:         enums.TransactionCategoryPurchaseOrder,
		Type:             enums.TransactionTypeCredit,
		Channel:          enums.TransactionChannelLNMO,
		Aggregator:       enums.TransactionAggregatorMpesaKE,
		Status:           enums.TransactionStatusPending,
		Amount:           order.Total,
		PartyA:           phone,
		PartyB:           s.shortCode,
		AccountReference: pid,
		OrderID:          order.ID,
		UserID:           order.UserID,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.ledger.WithTx(tx)
		if err := repo.Create(ctx, txn); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeDuplicateInFlight, "a payment for this order is already in progress")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record transaction")
		}
		payload, _ := json.Marshal(push)
		if err := repo.AppendEvent(ctx, &models.TransactionEvent{
			TransactionID: txn.ID,
			FromStatus:    enums.TransactionStatusPending,
			ToStatus:      enums.TransactionStatusPending,
			Source:        sourceInitiate,
			Payload:       payload,
		}); err != nil {
			return err
		}
		return s.orders.WithTx(tx).SetPaymentRef(ctx, order.ID, providerRef)
	})
	if err != nil {
		// the push is already in flight at the provider; the callback will
		// be matched by provider_ref if it lands on the winning transaction
		return nil, err
	}

	s.metrics.IncPush("accepted")
	if s.logg != nil {
		s.logg.Info(s.logg.WithTransactionPID(ctx, pid), "payment push accepted")
	}

	return &InitiateResponse{
		CheckoutRequestID: providerRef,
		PaymentRef:        pid,
		CustomerMessage:   push.CustomerMessage,
	}, nil
}

// Reconcile applies an asynchronous provider callback. Replays and races are
// tolerated: a transaction already settled is left unchanged.
func (s *service) Reconcile(ctx context.Context, envelope daraja.CallbackEnvelope, raw []byte) error {
	callback := envelope.Body.StkCallback
	if callback.CheckoutRequestID == "" {
		return pkgerrors.New(pkgerrors.CodeMalformedCallback, "callback missing CheckoutRequestID")
	}

	txn, err := s.ledger.FindByProviderRef(ctx, callback.CheckoutRequestID)
	if err != nil {
		if errors.Is(err, ledger.ErrTransactionNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "no transaction matches the callback")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
	}
	if txn.Status.IsTerminal() {
		return s.recordReplay(ctx, txn, raw)
	}

	target := enums.TransactionStatusRejected
	receipt := ""
	if callback.Succeeded() {
		target = enums.TransactionStatusAccepted
		receipt = callback.ReceiptNumber()
	}
	details := fmt.Sprintf("%s: %s", callback.ResultCode.String(), callback.ResultDesc)

	if err := s.settle(ctx, txn, target, receipt, details, sourceCallback, raw); err != nil {
		return err
	}
	s.metrics.IncCallback(target.String())
	return nil
}

// Query reports the canonical payment state for an order, polling the
// provider when the latest attempt is still in flight.
func (s *service) Query(ctx context.Context, userID, orderID uuid.UUID, isAdmin bool) (*StatusResponse, error) {
	order, err := s.ownedOrder(ctx, userID, orderID, isAdmin)
	if err != nil {
		return nil, err
	}

	txn, err := s.ledger.FindLatestByOrder(ctx, order.ID)
	if err != nil {
		if errors.Is(err, ledger.ErrTransactionNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no payment attempt for this order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
	}

	if txn.Status.IsTerminal() {
		return statusResponse(order.ID, txn), nil
	}
	if txn.ProviderRef == nil {
		return statusResponse(order.ID, txn), nil
	}

	reply, err := s.gateway.QueryStatus(ctx, *txn.ProviderRef)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "query payment status")
	}

	// the query endpoint uses its own code space: "0" means paid and
	// "1032" means the payer cancelled; anything else is a failure
	var target enums.TransactionStatus
	switch reply.ResultCode {
	case "0":
		target = enums.TransactionStatusAccepted
	default:
		target = enums.TransactionStatusRejected
	}

	details := fmt.Sprintf("%s: %s", reply.ResultCode, reply.ResultDesc)
	payload, _ := json.Marshal(reply)
	if err := s.settle(ctx, txn, target, "", details, sourceQuery, payload); err != nil {
		return nil, err
	}

	refreshed, err := s.ledger.FindByPID(ctx, txn.PID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload transaction")
	}
	return statusResponse(order.ID, refreshed), nil
}

// recordReplay absorbs a redelivered callback for a settled transaction: the
// stored payload is refreshed and the delivery is audited, the state is not
// touched.
func (s *service) recordReplay(ctx context.Context, txn *models.Transaction, payload []byte) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.ledger.WithTx(tx)
		txn.Feedback = payload
		if err := repo.Update(ctx, txn); err != nil {
			if errors.Is(err, ledger.ErrStaleTransaction) {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh callback payload")
		}
		return repo.AppendEvent(ctx, &models.TransactionEvent{
			TransactionID: txn.ID,
			FromStatus:    txn.Status,
			ToStatus:      txn.Status,
			Source:        sourceCallback,
			Payload:       payload,
		})
	})
}

// settle moves a transaction to a terminal state and cascades the order in a
// single database transaction. A concurrent writer that already settled the
// row wins; settle then becomes a no-op.
func (s *service) settle(ctx context.Context, txn *models.Transaction, target enums.TransactionStatus, receipt, details, source string, payload []byte) error {
	from := txn.Status
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ledgerRepo := s.ledger.WithTx(tx)
		orderRepo := s.orders.WithTx(tx)

		txn.Status = target
		if receipt != "" {
			txn.ReceiptCode = &receipt
		}
		txn.Details = &details
		txn.Feedback = payload

		if err := ledgerRepo.Update(ctx, txn); err != nil {
			if errors.Is(err, ledger.ErrStaleTransaction) {
				current, readErr := ledgerRepo.FindByPID(ctx, txn.PID)
				if readErr != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, readErr, "reload transaction")
				}
				if current.Status.IsTerminal() {
					*txn = *current
					return nil
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update transaction")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update transaction")
		}

		if err := ledgerRepo.AppendEvent(ctx, &models.TransactionEvent{
			TransactionID: txn.ID,
			FromStatus:    from,
			ToStatus:      target,
			Source:        source,
			Payload:       payload,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record transaction event")
		}

		if target != enums.TransactionStatusAccepted {
			return nil
		}

		order, err := orderRepo.FindByID(ctx, txn.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if next, ok := s.policy.NextStatus(order.Status); ok {
			if err := orderRepo.UpdateStatus(ctx, order.ID, next); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cascade order status")
			}
		}
		return nil
	})
}

func (s *service) ownedOrder(ctx context.Context, userID, orderID uuid.UUID, isAdmin bool) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !isAdmin && order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func statusResponse(orderID uuid.UUID, txn *models.Transaction) *StatusResponse {
	resp := &StatusResponse{
		OrderID:    orderID,
		PaymentRef: txn.PID,
		Status:     canonicalStatus(txn),
	}
	if txn.ReceiptCode != nil {
		resp.ReceiptCode = *txn.ReceiptCode
	}
	if txn.Details != nil {
		resp.Details = *txn.Details
	}
	return resp
}

// canonicalStatus maps the stored transaction state onto the API status
// vocabulary. Rejections caused by payer cancellation surface as CANCELED.
func canonicalStatus(txn *models.Transaction) enums.PaymentStatus {
	switch txn.Status {
	case enums.TransactionStatusAccepted:
		return enums.PaymentStatusAccepted
	case enums.TransactionStatusRejected:
		if txn.Details != nil && strings.HasPrefix(*txn.Details, queryResultCancelled+":") {
			return enums.PaymentStatusCanceled
		}
		return enums.PaymentStatusRejected
	default:
		return enums.PaymentStatusPending
	}
}

// newPID derives the internal correlation id from the order id and a
// nanosecond timestamp so rapid retries for the same order never collide.
func newPID(orderID uuid.UUID) string {
	return fmt.Sprintf("ORDER-%s-%d", orderID, time.Now().UnixNano())
}

func normalizePhone(raw string) (string, error) {
	phone := strings.TrimSpace(raw)
	phone = strings.TrimPrefix(phone, "+")
	if strings.HasPrefix(phone, "0") {
		phone = "254" + phone[1:]
	}
	if !phonePattern.MatchString(phone) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "phone number must be a valid Kenyan mobile number")
	}
	return phone, nil
}

package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dukahub/duka-backend/api/middleware"
	paymentsvc "github.com/dukahub/duka-backend/internal/payments"
	"github.com/dukahub/duka-backend/pkg/daraja"
	"github.com/dukahub/duka-backend/pkg/enums"
	pkgerrors "github.com/dukahub/duka-backend/pkg/errors"
	"github.com/dukahub/duka-backend/pkg/types"
)

type stubPaymentService struct {
	initiateResp *paymentsvc.InitiateResponse
	initiateErr  error
	lastUserID   uuid.UUID
	lastRequest  paymentsvc.InitiateRequest

	statusResp *paymentsvc.StatusResponse
	statusErr  error
}

func (s *stubPaymentService) Initiate(_ context.Context, userID uuid.UUID, req paymentsvc.InitiateRequest) (*paymentsvc.InitiateResponse, error) {
	s.lastUserID = userID
	s.lastRequest = req
	return s.initiateResp, s.initiateErr
}

func (s *stubPaymentService) Reconcile(context.Context, daraja.CallbackEnvelope, []byte) error {
	return nil
}

func (s *stubPaymentService) Query(context.Context, uuid.UUID, uuid.UUID, bool) (*paymentsvc.StatusResponse, error) {
	return s.statusResp, s.statusErr
}

func authedRequest(method, target string, body []byte, userID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithRole(ctx, string(enums.UserRoleCustomer))
	return req.WithContext(ctx)
}

func TestInitiatePaymentAccepted(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()
	svc := &stubPaymentService{
		initiateResp: &paymentsvc.InitiateResponse{CheckoutRequestID: "ws_CO_1001", CustomerMessage: "check your phone"},
	}

	body, _ := json.Marshal(map[string]any{
		"order_id":     orderID,
		"phone_number": "254712345678",
		"amount":       "1500",
	})
	req := authedRequest(http.MethodPost, "/api/v1/payments/initiate", body, userID)
	rec := httptest.NewRecorder()
	InitiatePayment(svc, nil)(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastUserID != userID {
		t.Fatalf("expected user %s got %s", userID, svc.lastUserID)
	}
	if !svc.lastRequest.Amount.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("unexpected amount %s", svc.lastRequest.Amount)
	}
}

func TestInitiatePaymentRequiresAuthContext(t *testing.T) {
	svc := &stubPaymentService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/initiate", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	InitiatePayment(svc, nil)(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestInitiatePaymentRejectsBadBody(t *testing.T) {
	svc := &stubPaymentService{}
	req := authedRequest(http.MethodPost, "/api/v1/payments/initiate", []byte(`{"phone_number":""}`), uuid.New())
	rec := httptest.NewRecorder()
	InitiatePayment(svc, nil)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestInitiatePaymentPropagatesDomainError(t *testing.T) {
	svc := &stubPaymentService{
		initiateErr: pkgerrors.New(pkgerrors.CodeAmountMismatch, "amount 100 does not match order total 1500"),
	}

	body, _ := json.Marshal(map[string]any{
		"order_id":     uuid.New(),
		"phone_number": "254712345678",
		"amount":       "100",
	})
	req := authedRequest(http.MethodPost, "/api/v1/payments/initiate", body, uuid.New())
	rec := httptest.NewRecorder()
	InitiatePayment(svc, nil)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeAmountMismatch) {
		t.Fatalf("unexpected code %s", envelope.Error.Code)
	}
}

package payments

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dukahub/duka-backend/pkg/enums"
)

// InitiateRequest captures a customer's request to pay an order via STK push.
type InitiateRequest struct {
	OrderID     uuid.UUID       `json:"order_id" validate:"required"`
	PhoneNumber string          `json:"phone_number" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
}

// InitiateResponse acknowledges a queued push. CheckoutRequestID is the
// provider correlation handle the client polls with.
type InitiateResponse struct {
	CheckoutRequestID string `json:"checkout_request_id"`
	PaymentRef        string `json:"payment_ref"`
	CustomerMessage   string `json:"customer_message,omitempty"`
}

// StatusResponse reports the canonical payment state for an order.
type StatusResponse struct {
	OrderID     uuid.UUID           `json:"order_id"`
	PaymentRef  string              `json:"payment_ref"`
	Status      enums.PaymentStatus `json:"status"`
	ReceiptCode string              `json:"receipt_code,omitempty"`
	Details     string              `json:"details,omitempty"`
}

package enums

import "fmt"

// PaymentStatus is the canonical payment state surfaced on the API.
// It is uppercase by contract with consuming clients and is distinct
// from the stored TransactionStatus.
type PaymentStatus string

const (
	PaymentStatusAccepted PaymentStatus = "ACCEPTED"
	PaymentStatusRejected PaymentStatus = "REJECTED"
	PaymentStatusCanceled PaymentStatus = "CANCELED"
	PaymentStatusPending  PaymentStatus = "PENDING"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusAccepted,
	PaymentStatusRejected,
	PaymentStatusCanceled,
	PaymentStatusPending,
}

// String implements fmt.Stringer.
func (s PaymentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}

package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dukahub/duka-backend/pkg/enums"
)

// Transaction is the ledger record for a single payment attempt against an
// order. PID is the internal reference handed to the provider as the account
// reference; ProviderRef is the provider-issued CheckoutRequestID and is only
// set once the push has been accepted by the gateway.
type Transaction struct {
	ID               uuid.UUID                   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PID              string                      `gorm:"column:pid;not null;uniqueIndex:ux_transactions_pid"`
	ProviderRef      *string                     `gorm:"column:provider_ref"`
	Category         enums.TransactionCategory   `gorm:"column:category;not null"`
	Type             enums.TransactionType       `gorm:"column:type;not null"`
	Channel          enums.TransactionChannel    `gorm:"column:channel;not null"`
	Aggregator       enums.TransactionAggregator `gorm:"column:aggregator;not null"`
	Status           enums.TransactionStatus     `gorm:"column:status;not null;default:'pending'"`
	Amount           decimal.Decimal             `gorm:"column:amount;type:numeric(10,2);not null"`
	PartyA           string                      `gorm:"column:party_a;not null"`
	PartyB           string                      `gorm:"column:party_b;not null"`
	AccountReference string                      `gorm:"column:account_reference;not null"`
	ReceiptCode      *string                     `gorm:"column:receipt_code"`
	Details          *string                     `gorm:"column:details"`
	Feedback         json.RawMessage             `gorm:"column:feedback;type:jsonb"`
	OrderID          uuid.UUID                   `gorm:"column:order_id;type:uuid;not null"`
	UserID           uuid.UUID                   `gorm:"column:user_id;type:uuid;not null"`
	LockVersion      int                         `gorm:"column:lock_version;not null;default:0"`
	CreatedAt        time.Time                   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time                   `gorm:"column:updated_at;autoUpdateTime"`
}

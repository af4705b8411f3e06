package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/dukahub/duka-backend/pkg/enums"
)

// TransactionEvent records an immutable state change on a transaction. Rows
// are append-only; the latest provider payload also lives on the transaction
// itself for quick reads.
type TransactionEvent struct {
	ID            uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TransactionID uuid.UUID               `gorm:"column:transaction_id;type:uuid;not null;index"`
	FromStatus    enums.TransactionStatus `gorm:"column:from_status;not null"`
	ToStatus      enums.TransactionStatus `gorm:"column:to_status;not null"`
	Source        string                  `gorm:"column:source;not null"`
	Payload       json.RawMessage         `gorm:"column:payload;type:jsonb"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Address is a delivery destination owned by a user. At most one address per
// user carries IsDefault.
type Address struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Label     string    `gorm:"column:label;not null"`
	Line1     string    `gorm:"column:line1;not null"`
	Line2     *string   `gorm:"column:line2"`
	City      string    `gorm:"column:city;not null"`
	Region    *string   `gorm:"column:region"`
	Phone     string    `gorm:"column:phone;not null"`
	IsDefault bool      `gorm:"column:is_default;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

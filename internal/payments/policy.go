package payments

import (
	"github.com/dukahub/duka-backend/pkg/config"
	"github.com/dukahub/duka-backend/pkg/enums"
)

// CascadePolicy decides how a settled payment moves the owning order.
type CascadePolicy interface {
	// NextStatus returns the order status to apply when a payment lands, or
	// false when the order should be left alone.
	NextStatus(current enums.OrderStatus) (enums.OrderStatus, bool)
}

type configuredCascade struct {
	paid enums.OrderStatus
}

// NewCascadePolicy builds the default policy: orders still pending move to
// the configured paid status; anything else is left untouched.
func NewCascadePolicy(cfg config.OrdersConfig) CascadePolicy {
	paid := enums.OrderStatus(cfg.PaidStatus)
	if !paid.IsValid() {
		paid = enums.OrderStatusProcessing
	}
	return &configuredCascade{paid: paid}
}

func (p *configuredCascade) NextStatus(current enums.OrderStatus) (enums.OrderStatus, bool) {
	if current != enums.OrderStatusPending {
		return current, false
	}
	return p.paid, true
}

package payloads

import (
	"time"

	"github.com/gaslinkhq/gaslink-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderCreatedEvent signals a freshly priced and reserved checkout.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID           `json:"order_id"`
	OrderNumber string              `json:"order_number"`
	AgencyID    uuid.UUID           `json:"agency_id"`
	CustomerID  uuid.UUID           `json:"customer_id"`
	TotalAmount decimal.Decimal     `json:"total_amount"`
	ItemCount   int                 `json:"item_count"`
	Mode        enums.DeliveryMode  `json:"delivery_mode"`
	Status      enums.OrderStatus   `json:"status"`
	CouponCode  *string             `json:"coupon_code,omitempty"`
	PaymentDue  enums.PaymentStatus `json:"payment_status"`
}

// OrderStatusChangedEvent is emitted on every lifecycle transition.
type OrderStatusChangedEvent struct {
	OrderID      uuid.UUID         `json:"order_id"`
	OrderNumber  string            `json:"order_number"`
	AgencyID     uuid.UUID         `json:"agency_id"`
	FromStatus   enums.OrderStatus `json:"from_status"`
	ToStatus     enums.OrderStatus `json:"to_status"`
	ActorRole    enums.ActorRole   `json:"actor_role"`
	ActorID      *uuid.UUID        `json:"actor_id,omitempty"`
	Reason       *string           `json:"reason,omitempty"`
	TransitionAt time.Time         `json:"transition_at"`
}

// LowStockEvent fires when a reservation drives a variant to or below its
// agency's restock threshold.
type LowStockEvent struct {
	InventoryID  uuid.UUID `json:"inventory_id"`
	VariantID    uuid.UUID `json:"variant_id"`
	AgencyID     uuid.UUID `json:"agency_id"`
	ProductID    uuid.UUID `json:"product_id"`
	VariantLabel string    `json:"variant_label"`
	Remaining    int       `json:"remaining"`
	Threshold    int       `json:"threshold"`
}

// CouponExpiredEvent records a coupon deactivated on touch.
type CouponExpiredEvent struct {
	CouponID  uuid.UUID `json:"coupon_id"`
	AgencyID  uuid.UUID `json:"agency_id"`
	Code      string    `json:"code"`
	ExpiredAt time.Time `json:"expired_at"`
}

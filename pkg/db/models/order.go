package models

import (
	"time"

	"github.com/gaslinkhq/gaslink-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is the central aggregate. Money fields are frozen at checkout and
// mutated only through the state machine afterwards. Orders are never
// deleted; they are retained for audit and history.
type Order struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber string    `gorm:"column:order_number;not null;uniqueIndex:ux_orders_order_number"`
	AgencyID    uuid.UUID `gorm:"column:agency_id;type:uuid;not null;index"`

	CustomerID      uuid.UUID `gorm:"column:customer_id;type:uuid;not null;index"`
	CustomerName    string    `gorm:"column:customer_name;not null"`
	CustomerEmail   string    `gorm:"column:customer_email;not null"`
	CustomerPhone   string    `gorm:"column:customer_phone;not null"`
	CustomerAddress *string   `gorm:"column:customer_address"`

	DeliveryMode enums.DeliveryMode `gorm:"column:delivery_mode;type:text;not null"`

	Subtotal         decimal.Decimal  `gorm:"column:subtotal;type:numeric(12,2);not null"`
	TaxType          enums.TaxType    `gorm:"column:tax_type;type:text;not null;default:'none'"`
	TaxValue         decimal.Decimal  `gorm:"column:tax_value;type:numeric(12,4);not null;default:0"`
	TaxAmount        decimal.Decimal  `gorm:"column:tax_amount;type:numeric(12,2);not null;default:0"`
	PlatformCharge   decimal.Decimal  `gorm:"column:platform_charge;type:numeric(12,2);not null;default:0"`
	DeliveryCharge   decimal.Decimal  `gorm:"column:delivery_charge;type:numeric(12,2);not null;default:0"`
	DeliveryDistance *decimal.Decimal `gorm:"column:delivery_distance;type:numeric(8,2)"`
	CouponCode       *string          `gorm:"column:coupon_code"`
	CouponDiscount   decimal.Decimal  `gorm:"column:coupon_discount;type:numeric(12,2);not null;default:0"`
	TotalAmount      decimal.Decimal  `gorm:"column:total_amount;type:numeric(12,2);not null"`

	Status        enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending';index"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'unpaid'"`

	AssignedAgentID *uuid.UUID `gorm:"column:assigned_agent_id;type:uuid"`

	ConfirmedAt      *time.Time `gorm:"column:confirmed_at"`
	AssignedAt       *time.Time `gorm:"column:assigned_at"`
	OutForDeliveryAt *time.Time `gorm:"column:out_for_delivery_at"`
	DeliveredAt      *time.Time `gorm:"column:delivered_at"`
	CancelledAt      *time.Time `gorm:"column:cancelled_at"`
	ReturnedAt       *time.Time `gorm:"column:returned_at"`

	// Cancellation/return attribution, captured at transition time.
	ActionByRole *enums.ActorRole `gorm:"column:action_by_role;type:text"`
	ActionByID   *uuid.UUID       `gorm:"column:action_by_id;type:uuid"`
	ActionByName *string          `gorm:"column:action_by_name"`
	ActionReason *string          `gorm:"column:action_reason"`

	// Delivery artifacts.
	DeliveryOTP       *string    `gorm:"column:delivery_otp"`
	DeliveryOTPExpiry *time.Time `gorm:"column:delivery_otp_expiry"`
	DeliveryProofRef  *string    `gorm:"column:delivery_proof_ref"`
	DeliveryNote      *string    `gorm:"column:delivery_note"`
	PaymentReceived   bool       `gorm:"column:payment_received;not null;default:false"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index:ix_orders_created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem is an immutable snapshot of one line at order-creation time.
// Never re-derived from the catalog; it is the source of truth for what was
// charged.
type OrderItem struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID     uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	VariantID     uuid.UUID       `gorm:"column:variant_id;type:uuid;not null"`
	ProductName   string          `gorm:"column:product_name;not null"`
	VariantLabel  string          `gorm:"column:variant_label;not null"`
	UnitPrice     decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Quantity      int             `gorm:"column:quantity;not null"`
	ProductAmount decimal.Decimal `gorm:"column:product_amount;type:numeric(12,2);not null"`
	TaxShare      decimal.Decimal `gorm:"column:tax_share;type:numeric(12,2);not null;default:0"`
	PlatformShare decimal.Decimal `gorm:"column:platform_share;type:numeric(12,2);not null;default:0"`
	ItemTotal     decimal.Decimal `gorm:"column:item_total;type:numeric(12,2);not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

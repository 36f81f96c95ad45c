package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/djassa/djassa-backend/pkg/enums"
)

// Order is a buyer's purchase against a single merchant. The product lines
// are an immutable snapshot taken at creation; TotalAmount is the sum of
// price*quantity over the snapshot and is never recomputed.
type Order struct {
	ID                 uuid.UUID            `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID             uuid.UUID            `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	MerchantID         uuid.UUID            `gorm:"column:merchant_id;type:uuid;not null;index" json:"merchant_id"`
	TotalAmount        int64                `gorm:"column:total_amount;not null" json:"total_amount"`
	Status             enums.OrderStatus    `gorm:"column:status;not null;default:'pending'" json:"status"`
	PaymentMethod      string               `gorm:"column:payment_method;not null" json:"payment_method"`
	PaymentStatus      string               `gorm:"column:payment_status;not null;default:'pending'" json:"payment_status"`
	TrackingNumber     *string              `gorm:"column:tracking_number" json:"tracking_number,omitempty"`
	CancelledBy        *enums.ActorRole     `gorm:"column:cancelled_by" json:"cancelled_by,omitempty"`
	CancellationReason *string              `gorm:"column:cancellation_reason" json:"cancellation_reason,omitempty"`
	ShippedAt          *time.Time           `gorm:"column:shipped_at" json:"shipped_at,omitempty"`
	DeliveredAt        *time.Time           `gorm:"column:delivered_at" json:"delivered_at,omitempty"`
	Items              []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	StatusHistory      []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"status_history,omitempty"`
	CreatedAt          time.Time            `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time            `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// OrderItem is one snapshot line of an order. Price and title are copied
// from the product at creation time.
type OrderItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null" json:"product_id"`
	Title     string    `gorm:"column:title;not null" json:"title"`
	Price     int64     `gorm:"column:price;not null" json:"price"`
	Quantity  int       `gorm:"column:quantity;not null" json:"quantity"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// OrderStatusHistory is the append-only audit trail of an order's
// transitions. The autoincrement key preserves insertion order.
type OrderStatusHistory struct {
	ID        uint64            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrderID   uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	Status    enums.OrderStatus `gorm:"column:status;not null" json:"status"`
	ChangedAt time.Time         `gorm:"column:changed_at;not null" json:"changed_at"`
	ChangedBy string            `gorm:"column:changed_by;not null" json:"changed_by"`
	Note      *string           `gorm:"column:note" json:"note,omitempty"`
}

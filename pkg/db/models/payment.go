package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/djassa/djassa-backend/pkg/enums"
)

// Payment is one settlement attempt for an order. Monetary fields are
// integral XOF amounts; MerchantPayout always equals
// GrossAmount - PlatformFee - GatewayFee.
type Payment struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	PaymentID     string                `gorm:"column:payment_id;not null;uniqueIndex"`
	OrderID       uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index"`
	UserID        uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	MerchantID    uuid.UUID             `gorm:"column:merchant_id;type:uuid;not null"`
	Amount        int64                 `gorm:"column:amount;not null"`
	Currency      string                `gorm:"column:currency;not null;default:'XOF'"`
	Provider      enums.PaymentProvider `gorm:"column:provider;not null"`
	PhoneNumber   string                `gorm:"column:phone_number;not null"`
	TransactionID *string               `gorm:"column:transaction_id;index"`
	Status        enums.PaymentStatus   `gorm:"column:status;not null;default:'pending'"`
	FailureReason *string               `gorm:"column:failure_reason"`

	GrossAmount    int64 `gorm:"column:gross_amount;not null"`
	PlatformFee    int64 `gorm:"column:platform_fee;not null;default:0"`
	GatewayFee     int64 `gorm:"column:gateway_fee;not null;default:0"`
	MerchantPayout int64 `gorm:"column:merchant_payout;not null;default:0"`

	InitiatedAt       time.Time  `gorm:"column:initiated_at;not null"`
	CompletedAt       *time.Time `gorm:"column:completed_at"`
	ExpiresAt         time.Time  `gorm:"column:expires_at;not null"`
	WebhookReceivedAt *time.Time `gorm:"column:webhook_received_at"`
	RetryCount        int        `gorm:"column:retry_count;not null;default:0"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/djassa/djassa-backend/pkg/enums"
)

// Refund records that a completed payment must be returned because its order
// was cancelled. Execution against the provider is out of band.
type Refund struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	RefundID    string             `gorm:"column:refund_id;not null;uniqueIndex"`
	PaymentID   string             `gorm:"column:payment_id;not null;index"`
	OrderID     uuid.UUID          `gorm:"column:order_id;type:uuid;not null"`
	UserID      uuid.UUID          `gorm:"column:user_id;type:uuid;not null"`
	MerchantID  uuid.UUID          `gorm:"column:merchant_id;type:uuid;not null"`
	Amount      int64              `gorm:"column:amount;not null"`
	Currency    string             `gorm:"column:currency;not null;default:'XOF'"`
	Reason      string             `gorm:"column:reason;not null"`
	Status      enums.RefundStatus `gorm:"column:status;not null;default:'processing'"`
	ProcessedAt *time.Time         `gorm:"column:processed_at"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

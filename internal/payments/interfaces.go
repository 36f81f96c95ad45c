package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/djassa/djassa-backend/internal/orders"
	"github.com/djassa/djassa-backend/pkg/db/models"
	"github.com/djassa/djassa-backend/pkg/enums"
)

// Repository owns payment and refund persistence. WithTx rebinds it to an
// open transaction.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreatePayment(ctx context.Context, payment *models.Payment) error
	FindByPaymentID(ctx context.Context, paymentID string) (*models.Payment, error)
	FindByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error)
	// UpdatePaymentStatus applies updates only while the row still has the
	// expected status; the row count reports whether the transition won.
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, from, to enums.PaymentStatus, updates map[string]any) (int64, error)
	UpdatePayment(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListPayments(ctx context.Context, filter ListFilter) ([]models.Payment, int64, error)
	ExpireStale(ctx context.Context, now time.Time) (int64, error)

	FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateOrderPaymentStatus(ctx context.Context, orderID uuid.UUID, status enums.PaymentStatus) error

	CreateRefund(ctx context.Context, refund *models.Refund) error
	FindRefundByPaymentID(ctx context.Context, paymentID string) (*models.Refund, error)
}

// OrderTransitioner is the slice of the order service settlement needs.
type OrderTransitioner interface {
	UpdateStatus(ctx context.Context, input orders.UpdateStatusInput) (*models.Order, error)
}

// ReplayGuard drops webhook deliveries that were already processed.
// Implemented by the redis client.
type ReplayGuard interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	WebhookReplayKey(provider, transactionID string) string
}

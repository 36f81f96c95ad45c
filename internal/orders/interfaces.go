package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/djassa/djassa-backend/pkg/db/models"
	"github.com/djassa/djassa-backend/pkg/enums"
)

// Repository owns order persistence. WithTx rebinds the repository to an
// open transaction.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus, updates map[string]any) (int64, error)
	AppendHistory(ctx context.Context, entry *models.OrderStatusHistory) error
	ListOrders(ctx context.Context, filter ListFilter) ([]models.Order, int64, error)
}

// RefundMarker queues a refund for a completed payment when its order is
// cancelled. Implemented by the payments service.
type RefundMarker interface {
	MarkForRefund(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, reason string) error
}

package buybox

import (
	"context"

	"github.com/google/uuid"

	"github.com/djassa/djassa-backend/pkg/db/models"
)

// Repository loads the rows the ranking needs.
type Repository interface {
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindOffersByTitle(ctx context.Context, title string) ([]models.Product, error)
	FindMerchants(ctx context.Context, ids []uuid.UUID) ([]models.Merchant, error)
}

package buybox

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/djassa/djassa-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a buy box repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindOffersByTitle(ctx context.Context, title string) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("title = ?", title).
		Order("created_at ASC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) FindMerchants(ctx context.Context, ids []uuid.UUID) ([]models.Merchant, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var merchants []models.Merchant
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&merchants).Error
	if err != nil {
		return nil, err
	}
	return merchants, nil
}

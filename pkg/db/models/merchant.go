package models

import (
	"time"

	"github.com/google/uuid"
)

// Merchant is the seller profile consulted by the Buy Box ranking.
// Rating is the "good rate" on a 0-100 scale.
type Merchant struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	ShopName  string    `gorm:"column:shop_name;not null"`
	Rating    float64   `gorm:"column:rating;not null;default:50"`
	Lat       *float64  `gorm:"column:lat"`
	Lng       *float64  `gorm:"column:lng"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a merchant's sellable listing. Prices are integral XOF amounts.
type Product struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	MerchantID   uuid.UUID `gorm:"column:merchant_id;type:uuid;not null;index"`
	Title        string    `gorm:"column:title;not null"`
	Price        int64     `gorm:"column:price;not null"`
	Stock        int       `gorm:"column:stock;not null;default:0"`
	DeliveryDays int       `gorm:"column:delivery_days;not null;default:7"`
	Lat          *float64  `gorm:"column:lat"`
	Lng          *float64  `gorm:"column:lng"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

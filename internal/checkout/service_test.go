package checkout

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/djassa/djassa-backend/internal/inventory"
	"github.com/djassa/djassa-backend/internal/orders"
	"github.com/djassa/djassa-backend/pkg/db/models"
	"github.com/djassa/djassa-backend/pkg/enums"
	pkgerrors "github.com/djassa/djassa-backend/pkg/errors"
	"github.com/djassa/djassa-backend/pkg/logger"
)

type dbTx struct {
	db *gorm.DB
}

func (r dbTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}

func setupCheckoutDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	for _, ddl := range []string{
		`CREATE TABLE products (
  id TEXT PRIMARY KEY,
  merchant_id TEXT NOT NULL,
  title TEXT NOT NULL,
  price INTEGER NOT NULL,
  stock INTEGER NOT NULL DEFAULT 0,
  delivery_days INTEGER NOT NULL DEFAULT 3,
  lat REAL,
  lng REAL,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  merchant_id TEXT NOT NULL,
  total_amount INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_method TEXT NOT NULL,
  payment_status TEXT NOT NULL DEFAULT 'pending',
  tracking_number TEXT,
  cancelled_by TEXT,
  cancellation_reason TEXT,
  shipped_at DATETIME,
  delivered_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  title TEXT NOT NULL,
  price INTEGER NOT NULL,
  quantity INTEGER NOT NULL,
  created_at DATETIME
);`,
		`CREATE TABLE order_status_history (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  order_id TEXT NOT NULL,
  status TEXT NOT NULL,
  changed_at DATETIME NOT NULL,
  changed_by TEXT NOT NULL,
  note TEXT
);`,
	} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

func seedCheckoutProduct(t *testing.T, db *gorm.DB, merchantID uuid.UUID, price int64, stock int) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, db.Exec(
		`INSERT INTO products (id, merchant_id, title, price, stock) VALUES (?, ?, ?, ?, ?)`,
		id, merchantID, "Speaker", price, stock).Error)
	return id
}

func newCheckoutService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(Params{
		Repo:      NewRepository(db),
		Tx:        dbTx{db: db},
		Inventory: inventory.NewManager(),
		Logger:    logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	require.NoError(t, err)
	return svc
}

func buyer() orders.Actor {
	return orders.Actor{ID: uuid.New(), Role: enums.RoleBuyer}
}

func TestCreateOrderSnapshotsAndReservesStock(t *testing.T) {
	db := setupCheckoutDB(t)
	svc := newCheckoutService(t, db)
	merchantID := uuid.New()
	productA := seedCheckoutProduct(t, db, merchantID, 46000, 10)
	productB := seedCheckoutProduct(t, db, merchantID, 8000, 5)

	actor := buyer()
	order, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		Actor:         actor,
		PaymentMethod: "mobile_money",
		Lines: []LineInput{
			{ProductID: productA, Quantity: 2},
			{ProductID: productB, Quantity: 1},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.Equal(t, int64(2*46000+8000), order.TotalAmount)
	assert.Equal(t, merchantID, order.MerchantID)
	assert.Equal(t, actor.ID, order.UserID)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Speaker", order.Items[0].Title)

	var stored models.Order
	require.NoError(t, db.Preload("Items").Preload("StatusHistory").
		Where("id = ?", order.ID).First(&stored).Error)
	require.Len(t, stored.StatusHistory, 1)
	assert.Equal(t, enums.OrderStatusPending, stored.StatusHistory[0].Status)
	assert.Equal(t, actor.ID.String(), stored.StatusHistory[0].ChangedBy)

	var product models.Product
	require.NoError(t, db.Where("id = ?", productA).First(&product).Error)
	assert.Equal(t, 8, product.Stock)
}

func TestCreateOrderInsufficientStockRollsBackEverything(t *testing.T) {
	db := setupCheckoutDB(t)
	svc := newCheckoutService(t, db)
	merchantID := uuid.New()
	plenty := seedCheckoutProduct(t, db, merchantID, 1000, 100)
	scarce := seedCheckoutProduct(t, db, merchantID, 2000, 1)

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		Actor:         buyer(),
		PaymentMethod: "mobile_money",
		Lines: []LineInput{
			{ProductID: plenty, Quantity: 5},
			{ProductID: scarce, Quantity: 3},
		},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInsufficientStock))

	// The first line's decrement must have rolled back with the order.
	var product models.Product
	require.NoError(t, db.Where("id = ?", plenty).First(&product).Error)
	assert.Equal(t, 100, product.Stock)

	var count int64
	require.NoError(t, db.Model(&models.Order{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestCreateOrderRejectsMixedMerchants(t *testing.T) {
	db := setupCheckoutDB(t)
	svc := newCheckoutService(t, db)
	productA := seedCheckoutProduct(t, db, uuid.New(), 1000, 10)
	productB := seedCheckoutProduct(t, db, uuid.New(), 1000, 10)

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		Actor:         buyer(),
		PaymentMethod: "mobile_money",
		Lines: []LineInput{
			{ProductID: productA, Quantity: 1},
			{ProductID: productB, Quantity: 1},
		},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestCreateOrderInputValidation(t *testing.T) {
	db := setupCheckoutDB(t)
	svc := newCheckoutService(t, db)
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, CreateOrderInput{
		Actor:         orders.Actor{ID: uuid.New(), Role: enums.RoleMerchant},
		PaymentMethod: "mobile_money",
		Lines:         []LineInput{{ProductID: uuid.New(), Quantity: 1}},
	})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))

	_, err = svc.CreateOrder(ctx, CreateOrderInput{
		Actor:         buyer(),
		PaymentMethod: "mobile_money",
	})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = svc.CreateOrder(ctx, CreateOrderInput{
		Actor:         buyer(),
		PaymentMethod: "mobile_money",
		Lines:         []LineInput{{ProductID: uuid.New(), Quantity: 0}},
	})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = svc.CreateOrder(ctx, CreateOrderInput{
		Actor:         buyer(),
		PaymentMethod: "mobile_money",
		Lines:         []LineInput{{ProductID: uuid.New(), Quantity: 1}},
	})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

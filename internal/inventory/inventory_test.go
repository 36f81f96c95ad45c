package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/djassa/djassa-backend/pkg/db/models"
	pkgerrors "github.com/djassa/djassa-backend/pkg/errors"
)

func setupProductsDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`CREATE TABLE products (
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
);`).Error)
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, stock int) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, db.Exec(
		`INSERT INTO products (id, merchant_id, title, price, stock) VALUES (?, ?, ?, ?, ?)`,
		id, uuid.New(), "Fan", 15000, stock).Error)
	return id
}

func currentStock(t *testing.T, db *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var product models.Product
	require.NoError(t, db.Where("id = ?", id).First(&product).Error)
	return product.Stock
}

func TestReserveDecrementsStock(t *testing.T) {
	db := setupProductsDB(t)
	mgr := NewManager()
	id := seedProduct(t, db, 10)

	require.NoError(t, mgr.Reserve(context.Background(), db, id, 4))
	assert.Equal(t, 6, currentStock(t, db, id))
}

func TestReserveFailsWhenStockInsufficient(t *testing.T) {
	db := setupProductsDB(t)
	mgr := NewManager()
	id := seedProduct(t, db, 3)

	err := mgr.Reserve(context.Background(), db, id, 4)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInsufficientStock))
	assert.Equal(t, 3, currentStock(t, db, id))
}

func TestReserveRejectsNonPositiveQuantity(t *testing.T) {
	db := setupProductsDB(t)
	mgr := NewManager()
	id := seedProduct(t, db, 3)

	err := mgr.Reserve(context.Background(), db, id, 0)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestReleaseRestoresStock(t *testing.T) {
	db := setupProductsDB(t)
	mgr := NewManager()
	id := seedProduct(t, db, 2)

	require.NoError(t, mgr.Release(context.Background(), db, id, 5))
	assert.Equal(t, 7, currentStock(t, db, id))

	// Zero quantity is a no-op, not an error.
	require.NoError(t, mgr.Release(context.Background(), db, id, 0))
	assert.Equal(t, 7, currentStock(t, db, id))
}

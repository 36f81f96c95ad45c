package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/djassa/djassa-backend/internal/inventory"
	"github.com/djassa/djassa-backend/internal/orders"
	"github.com/djassa/djassa-backend/pkg/db/models"
	"github.com/djassa/djassa-backend/pkg/enums"
	pkgerrors "github.com/djassa/djassa-backend/pkg/errors"
	"github.com/djassa/djassa-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// LineInput is one requested product line.
type LineInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateOrderInput captures a buyer's checkout request. All lines must
// belong to the same merchant; an order binds exactly one.
type CreateOrderInput struct {
	Actor         orders.Actor
	Lines         []LineInput
	PaymentMethod string
}

// Service creates orders from buyer checkouts.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error)
}

type service struct {
	repo      Repository
	tx        txRunner
	inventory inventory.Reserver
	logger    *logger.Logger
}

// Params carries the service dependencies.
type Params struct {
	Repo      Repository
	Tx        txRunner
	Inventory inventory.Reserver
	Logger    *logger.Logger
}

// NewService builds a checkout service with the required dependencies.
func NewService(params Params) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory reserver required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      params.Repo,
		tx:        params.Tx,
		inventory: params.Inventory,
		logger:    params.Logger,
	}, nil
}

// CreateOrder reserves stock for every line inside one transaction, snapshots
// product price and title, and seeds the audit trail with the pending entry.
// Any reservation failure rolls the whole order back.
func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.Actor.Role != enums.RoleBuyer {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only buyers may create orders")
	}
	if input.Actor.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line required")
	}
	if input.PaymentMethod == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method required")
	}
	for _, line := range input.Lines {
		if line.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required on every line")
		}
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		orderID := uuid.New()
		now := time.Now().UTC()
		var merchantID uuid.UUID
		var total int64
		items := make([]models.OrderItem, 0, len(input.Lines))

		for _, line := range input.Lines {
			product, err := repo.FindProduct(ctx, line.ProductID)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
						WithDetails(map[string]any{"product_id": line.ProductID.String()})
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
			}
			if merchantID == uuid.Nil {
				merchantID = product.MerchantID
			} else if merchantID != product.MerchantID {
				return pkgerrors.New(pkgerrors.CodeValidation, "all lines must belong to the same merchant")
			}

			if err := s.inventory.Reserve(ctx, tx, product.ID, line.Quantity); err != nil {
				return err
			}

			items = append(items, models.OrderItem{
				ID:        uuid.New(),
				OrderID:   orderID,
				ProductID: product.ID,
				Title:     product.Title,
				Price:     product.Price,
				Quantity:  line.Quantity,
			})
			total += product.Price * int64(line.Quantity)
		}

		order := &models.Order{
			ID:            orderID,
			UserID:        input.Actor.ID,
			MerchantID:    merchantID,
			TotalAmount:   total,
			Status:        enums.OrderStatusPending,
			PaymentMethod: input.PaymentMethod,
			PaymentStatus: string(enums.PaymentStatusPending),
			Items:         items,
			StatusHistory: []models.OrderStatusHistory{{
				OrderID:   orderID,
				Status:    enums.OrderStatusPending,
				ChangedAt: now,
				ChangedBy: input.Actor.HistoryRef(),
			}},
		}
		if err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(s.logger.WithOrderID(ctx, created.ID.String()), "order created")
	return created, nil
}

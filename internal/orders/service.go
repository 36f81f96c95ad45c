package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/djassa/djassa-backend/internal/inventory"
	"github.com/djassa/djassa-backend/pkg/db/models"
	"github.com/djassa/djassa-backend/pkg/enums"
	pkgerrors "github.com/djassa/djassa-backend/pkg/errors"
	"github.com/djassa/djassa-backend/pkg/logger"
	"github.com/djassa/djassa-backend/pkg/metrics"
	"github.com/djassa/djassa-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns the order state machine.
type Service interface {
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, input ListInput) (*pagination.Page[models.Order], error)
}

type service struct {
	repo      Repository
	tx        txRunner
	inventory inventory.Releaser
	refunds   RefundMarker
	logger    *logger.Logger
	metrics   *metrics.MarketplaceMetrics
}

// Params carries the service dependencies.
type Params struct {
	Repo      Repository
	Tx        txRunner
	Inventory inventory.Releaser
	Refunds   RefundMarker
	Logger    *logger.Logger
	Metrics   *metrics.MarketplaceMetrics
}

// NewService builds an order service with the required dependencies.
func NewService(params Params) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory releaser required")
	}
	if params.Refunds == nil {
		return nil, fmt.Errorf("refund marker required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      params.Repo,
		tx:        params.Tx,
		inventory: params.Inventory,
		refunds:   params.Refunds,
		logger:    params.Logger,
		metrics:   params.Metrics,
	}, nil
}

// UpdateStatus drives one transition of the state machine. The status column
// is updated conditionally on the value the caller saw; a lost race is
// re-read and re-validated once before surfacing a conflict.
func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Actor.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid actor role")
	}
	if input.Actor.Role != enums.RoleSystem && input.Actor.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for attempt := 0; ; attempt++ {
			order, err := repo.FindOrder(ctx, input.OrderID)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
			}
			if err := authorize(order, input.Actor); err != nil {
				return err
			}
			if err := validateTransition(order.Status, input.Target, input.Actor.Role); err != nil {
				return err
			}
			now := time.Now().UTC()
			updates, err := buildUpdates(input, now)
			if err != nil {
				return err
			}

			rows, err := repo.UpdateOrderStatus(ctx, order.ID, order.Status, input.Target, updates)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
			}
			if rows == 0 {
				if attempt == 0 {
					continue
				}
				return pkgerrors.New(pkgerrors.CodeConflict, "order was modified concurrently")
			}

			if input.Target == enums.OrderStatusCancelled {
				if err := s.applyCancellation(ctx, tx, order, input); err != nil {
					return err
				}
			}

			entry := &models.OrderStatusHistory{
				OrderID:   order.ID,
				Status:    input.Target,
				ChangedAt: now,
				ChangedBy: input.Actor.HistoryRef(),
				Note:      input.Note,
			}
			if err := repo.AppendHistory(ctx, entry); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
			}

			fresh, err := repo.FindOrder(ctx, order.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
			}
			updated = fresh
			return nil
		}
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncOrderTransition(string(input.Target))
	s.logger.Info(s.logger.WithOrderID(ctx, input.OrderID.String()),
		fmt.Sprintf("order transitioned to %s by %s", input.Target, input.Actor.Role))
	return updated, nil
}

// applyCancellation restores the stock snapshot and queues a refund when the
// payment already completed. The conditional status update guarantees the
// pre-transition status was non-terminal, so a cancellation can never
// double-restore.
func (s *service) applyCancellation(ctx context.Context, tx *gorm.DB, order *models.Order, input UpdateStatusInput) error {
	var releaseErr error
	for _, item := range order.Items {
		if err := s.inventory.Release(ctx, tx, item.ProductID, item.Quantity); err != nil {
			releaseErr = multierr.Append(releaseErr, err)
		}
	}
	if releaseErr != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, releaseErr, "restore stock")
	}

	if order.PaymentStatus == string(enums.PaymentStatusCompleted) {
		reason := "order cancelled"
		if input.Reason != nil && *input.Reason != "" {
			reason = *input.Reason
		}
		if err := s.refunds.MarkForRefund(ctx, tx, order.ID, reason); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindOrder(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if err := authorize(order, actor); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*pagination.Page[models.Order], error) {
	page := input.Page.Normalize()
	filter := ListFilter{
		Status:      input.Status,
		CreatedFrom: input.CreatedFrom,
		CreatedTo:   input.CreatedTo,
		Limit:       page.Limit,
		Offset:      page.Offset,
	}

	switch input.Actor.Role {
	case enums.RoleBuyer:
		if input.Actor.ID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
		}
		userID := input.Actor.ID
		filter.UserID = &userID
	case enums.RoleMerchant:
		if input.Actor.MerchantID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "merchant context missing")
		}
		merchantID := input.Actor.MerchantID
		filter.MerchantID = &merchantID
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role may not list orders")
	}

	items, total, err := s.repo.ListOrders(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return &pagination.Page[models.Order]{
		Items:  items,
		Total:  total,
		Limit:  page.Limit,
		Offset: page.Offset,
	}, nil
}

func authorize(order *models.Order, actor Actor) error {
	switch actor.Role {
	case enums.RoleSystem:
		return nil
	case enums.RoleBuyer:
		if order.UserID != actor.ID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to buyer")
		}
	case enums.RoleMerchant:
		if order.MerchantID != actor.MerchantID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to merchant")
		}
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "unknown actor role")
	}
	return nil
}

func validateTransition(from, to enums.OrderStatus, role enums.ActorRole) error {
	if !CanTransition(from, to) {
		next := ValidNextStatuses(from, nil)
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot transition from %s to %s; valid next: %s",
				from, to, strings.Join(statusStrings(next), ", "))).
			WithDetails(map[string]any{
				"current_status": string(from),
				"valid_next":     statusStrings(next),
			})
	}
	if !RoleAllowed(from, to, role) {
		return pkgerrors.New(pkgerrors.CodeForbidden,
			fmt.Sprintf("role %s may not transition %s to %s", role, from, to))
	}
	return nil
}

func buildUpdates(input UpdateStatusInput, now time.Time) (map[string]any, error) {
	updates := map[string]any{"updated_at": now}
	switch input.Target {
	case enums.OrderStatusShipped:
		if input.TrackingNumber == nil || strings.TrimSpace(*input.TrackingNumber) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking number required")
		}
		updates["tracking_number"] = strings.TrimSpace(*input.TrackingNumber)
		updates["shipped_at"] = now
	case enums.OrderStatusDelivered:
		updates["delivered_at"] = now
	case enums.OrderStatusCancelled:
		updates["cancelled_by"] = string(input.Actor.Role)
		if input.Reason != nil {
			updates["cancellation_reason"] = *input.Reason
		}
	}
	return updates, nil
}

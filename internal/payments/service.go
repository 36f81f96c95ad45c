package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	"github.com/djassa/djassa-backend/internal/orders"
	"github.com/djassa/djassa-backend/internal/payments/providers"
	"github.com/djassa/djassa-backend/pkg/config"
	"github.com/djassa/djassa-backend/pkg/db/models"
	"github.com/djassa/djassa-backend/pkg/enums"
	pkgerrors "github.com/djassa/djassa-backend/pkg/errors"
	"github.com/djassa/djassa-backend/pkg/logger"
	"github.com/djassa/djassa-backend/pkg/metrics"
	"github.com/djassa/djassa-backend/pkg/pagination"
	"github.com/djassa/djassa-backend/pkg/phone"
)

// replayGuardTTL keeps webhook replay markers long past any provider's
// redelivery window.
const replayGuardTTL = 24 * time.Hour

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service orchestrates payments from initiation to settlement.
type Service interface {
	Initiate(ctx context.Context, input InitiateInput) (*InitiateResult, error)
	HandleWebhook(ctx context.Context, provider enums.PaymentProvider, payload providers.WebhookPayload) error
	Status(ctx context.Context, actor orders.Actor, paymentID string) (*View, error)
	Cancel(ctx context.Context, actor orders.Actor, paymentID string) (*View, error)
	Simulate(ctx context.Context, paymentID string, success bool) error
	History(ctx context.Context, input ListInput) (*pagination.Page[View], error)
	ExpireStale(ctx context.Context) (int64, error)
}

type service struct {
	cfg      config.PaymentConfig
	fees     *FeeSchedule
	repo     Repository
	tx       txRunner
	adapters map[enums.PaymentProvider]providers.Adapter
	orders   OrderTransitioner
	replay   ReplayGuard
	logger   *logger.Logger
	metrics  *metrics.MarketplaceMetrics
}

// Params carries the service dependencies. Replay and Metrics are optional.
type Params struct {
	Config   config.PaymentConfig
	Repo     Repository
	Tx       txRunner
	Adapters map[enums.PaymentProvider]providers.Adapter
	Orders   OrderTransitioner
	Replay   ReplayGuard
	Logger   *logger.Logger
	Metrics  *metrics.MarketplaceMetrics
}

// NewService builds the payment orchestrator with the required dependencies.
func NewService(params Params) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if len(params.Adapters) == 0 {
		return nil, fmt.Errorf("at least one provider adapter required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order transitioner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		cfg:      params.Config,
		fees:     NewFeeSchedule(params.Config),
		repo:     params.Repo,
		tx:       params.Tx,
		adapters: params.Adapters,
		orders:   params.Orders,
		replay:   params.Replay,
		logger:   params.Logger,
		metrics:  params.Metrics,
	}, nil
}

// Initiate validates the order and phone, records the payment with its fee
// breakdown, and dispatches to the provider with bounded retries. Dispatch
// failure after retries leaves the payment failed with a descriptive reason.
func (s *service) Initiate(ctx context.Context, input InitiateInput) (*InitiateResult, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.Actor.Role != enums.RoleBuyer || input.Actor.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer may initiate payment")
	}
	normalized, err := phone.Validate(input.Phone)
	if err != nil {
		return nil, err
	}

	provider := enums.ProviderSimulation
	if s.cfg.Mode != config.PaymentModeSimulation {
		provider, err = phone.DetectProvider(normalized)
		if err != nil {
			return nil, err
		}
	}
	adapter, ok := s.adapters[provider]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("no adapter configured for provider %s", provider))
	}

	var payment *models.Payment
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrder(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.UserID != input.Actor.ID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to buyer")
		}
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment")
		}

		existing, err := repo.FindByOrder(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load existing payments")
		}
		now := time.Now().UTC()
		for _, prior := range existing {
			if prior.Status != enums.PaymentStatusPending {
				continue
			}
			if now.After(prior.ExpiresAt) {
				rows, err := repo.UpdatePaymentStatus(ctx, prior.ID,
					enums.PaymentStatusPending, enums.PaymentStatusExpired,
					map[string]any{"updated_at": now})
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire stale payment")
				}
				if rows > 0 {
					s.metrics.IncPaymentExpired()
					continue
				}
			}
			return pkgerrors.New(pkgerrors.CodeConflict, "order already has an active payment")
		}

		fees := s.fees.Compute(order.TotalAmount, provider)
		payment = &models.Payment{
			ID:             uuid.New(),
			PaymentID:      fmt.Sprintf("PAY-%s", uuid.New()),
			OrderID:        order.ID,
			UserID:         order.UserID,
			MerchantID:     order.MerchantID,
			Amount:         order.TotalAmount,
			Currency:       s.cfg.Currency,
			Provider:       provider,
			PhoneNumber:    normalized,
			Status:         enums.PaymentStatusPending,
			GrossAmount:    fees.Gross,
			PlatformFee:    fees.PlatformFee,
			GatewayFee:     fees.GatewayFee,
			MerchantPayout: fees.MerchantPayout,
			InitiatedAt:    now,
			ExpiresAt:      now.Add(s.cfg.Timeout),
		}
		if err := repo.CreatePayment(ctx, payment); err != nil {
			// A concurrent initiation won the insert under the partial
			// unique index on pending payments.
			if isDuplicateKey(err) {
				return pkgerrors.New(pkgerrors.CodeConflict, "order already has an active payment")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result, attempts, dispatchErr := s.dispatch(ctx, adapter, payment)
	if dispatchErr != nil {
		reason := fmt.Sprintf("provider unavailable after %d attempts: %v", attempts, dispatchErr)
		now := time.Now().UTC()
		if _, err := s.repo.UpdatePaymentStatus(ctx, payment.ID,
			enums.PaymentStatusPending, enums.PaymentStatusFailed,
			map[string]any{
				"failure_reason": reason,
				"retry_count":    attempts,
				"updated_at":     now,
			}); err != nil {
			s.logger.Error(ctx, "mark payment failed after dispatch", err)
		}
		if err := s.repo.UpdateOrderPaymentStatus(ctx, payment.OrderID, enums.PaymentStatusFailed); err != nil {
			s.logger.Error(ctx, "update order payment status", err)
		}
		s.metrics.IncPaymentSettled(string(provider), string(enums.PaymentStatusFailed))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, dispatchErr, "payment provider unavailable")
	}

	if err := s.repo.UpdatePayment(ctx, payment.ID, map[string]any{
		"transaction_id": result.TransactionID,
		"retry_count":    attempts - 1,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store transaction id")
	}
	transactionID := result.TransactionID
	payment.TransactionID = &transactionID
	payment.RetryCount = attempts - 1

	s.logger.Info(s.logger.WithPaymentID(ctx, payment.PaymentID),
		fmt.Sprintf("payment initiated via %s", provider))
	return &InitiateResult{Payment: payment, Instructions: result.Instructions}, nil
}

func (s *service) dispatch(ctx context.Context, adapter providers.Adapter, payment *models.Payment) (*providers.DispatchResult, int, error) {
	var result *providers.DispatchResult
	attempts := 0
	backoff := retry.WithMaxRetries(uint64(s.cfg.MaxDispatchRetries), retry.NewExponential(s.cfg.DispatchRetryBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		res, err := adapter.Dispatch(ctx, providers.DispatchRequest{
			PaymentID: payment.PaymentID,
			Amount:    payment.Amount,
			Currency:  payment.Currency,
			Phone:     payment.PhoneNumber,
		})
		if err != nil {
			return retry.RetryableError(err)
		}
		result = res
		return nil
	})
	return result, attempts, err
}

// HandleWebhook verifies the provider signature before trusting any field,
// drops replays, and settles the payment. First terminal transition wins;
// everything after is logged and dropped without error.
func (s *service) HandleWebhook(ctx context.Context, provider enums.PaymentProvider, payload providers.WebhookPayload) error {
	adapter, ok := s.adapters[provider]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown payment provider")
	}
	if payload.TransactionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "transaction id required")
	}
	if !adapter.VerifySignature(payload) {
		s.metrics.IncWebhookRejected(string(provider), "invalid_signature")
		return pkgerrors.New(pkgerrors.CodeInvalidSignature, "webhook signature verification failed")
	}
	success := payload.Status == "success"
	if !success && payload.Status != "failure" {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("unsupported webhook status %q", payload.Status))
	}

	var replayKey string
	if s.replay != nil {
		replayKey = s.replay.WebhookReplayKey(string(provider), payload.TransactionID)
		fresh, err := s.replay.SetNX(ctx, replayKey, "1", replayGuardTTL)
		if err != nil {
			// The pending-status check below still guards correctness.
			s.logger.Warn(ctx, fmt.Sprintf("webhook replay guard unavailable: %v", err))
		} else if !fresh {
			s.metrics.IncWebhookRejected(string(provider), "replay")
			s.logger.Info(ctx, fmt.Sprintf("dropping replayed webhook for %s", payload.TransactionID))
			return nil
		}
	}

	err := s.settle(ctx, payload.TransactionID, success, "provider reported failure")
	if err != nil && replayKey != "" {
		// Let the provider redeliver after a transient failure.
		if delErr := s.replay.Del(ctx, replayKey); delErr != nil {
			s.logger.Warn(ctx, fmt.Sprintf("release replay key: %v", delErr))
		}
	}
	return err
}

// settle applies one terminal settlement while the payment is still pending.
// A payment past its deadline is expired instead and the late settlement is
// discarded.
func (s *service) settle(ctx context.Context, transactionID string, success bool, failureReason string) error {
	var confirmOrderID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		payment, err := repo.FindByTransactionID(ctx, transactionID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "unknown transaction id")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
		}
		ctx := s.logger.WithPaymentID(ctx, payment.PaymentID)

		if payment.Status != enums.PaymentStatusPending {
			s.logger.Info(ctx, fmt.Sprintf("settlement for %s payment dropped", payment.Status))
			return nil
		}

		now := time.Now().UTC()
		if now.After(payment.ExpiresAt) {
			rows, err := repo.UpdatePaymentStatus(ctx, payment.ID,
				enums.PaymentStatusPending, enums.PaymentStatusExpired,
				map[string]any{"updated_at": now})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire payment")
			}
			if rows > 0 {
				s.metrics.IncPaymentExpired()
				if err := repo.UpdateOrderPaymentStatus(ctx, payment.OrderID, enums.PaymentStatusExpired); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order payment status")
				}
			}
			s.logger.Warn(ctx, "settlement arrived after expiry; discarded")
			return nil
		}

		target := enums.PaymentStatusFailed
		updates := map[string]any{
			"webhook_received_at": now,
			"updated_at":          now,
		}
		if success {
			target = enums.PaymentStatusCompleted
			updates["completed_at"] = now
		} else {
			updates["failure_reason"] = failureReason
		}

		rows, err := repo.UpdatePaymentStatus(ctx, payment.ID, enums.PaymentStatusPending, target, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settle payment")
		}
		if rows == 0 {
			s.logger.Info(ctx, "lost settlement race; dropped")
			return nil
		}

		if err := repo.UpdateOrderPaymentStatus(ctx, payment.OrderID, target); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order payment status")
		}
		s.metrics.IncPaymentSettled(string(payment.Provider), string(target))
		if success {
			confirmOrderID = payment.OrderID
		}
		return nil
	})
	if err != nil {
		return err
	}

	if confirmOrderID != uuid.Nil {
		_, err := s.orders.UpdateStatus(ctx, orders.UpdateStatusInput{
			OrderID: confirmOrderID,
			Actor:   orders.Actor{Role: enums.RoleSystem},
			Target:  enums.OrderStatusConfirmed,
		})
		if err != nil && !pkgerrors.Is(err, pkgerrors.CodeStateConflict) {
			// The payment is settled; the order can still be confirmed
			// manually, so the webhook is not failed.
			s.logger.Error(s.logger.WithOrderID(ctx, confirmOrderID.String()),
				"confirm order after settlement", err)
		}
	}
	return nil
}

// Status returns the payment, lazily expiring it when its deadline passed
// and otherwise consulting the provider for pending payments.
func (s *service) Status(ctx context.Context, actor orders.Actor, paymentID string) (*View, error) {
	payment, err := s.authorizedPayment(ctx, actor, paymentID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if payment.Status == enums.PaymentStatusPending && now.After(payment.ExpiresAt) {
		rows, err := s.repo.UpdatePaymentStatus(ctx, payment.ID,
			enums.PaymentStatusPending, enums.PaymentStatusExpired,
			map[string]any{"updated_at": now})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire payment")
		}
		if rows > 0 {
			s.metrics.IncPaymentExpired()
			if err := s.repo.UpdateOrderPaymentStatus(ctx, payment.OrderID, enums.PaymentStatusExpired); err != nil {
				s.logger.Error(ctx, "update order payment status", err)
			}
		}
		payment, err = s.repo.FindByPaymentID(ctx, paymentID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload payment")
		}
	}

	if payment.Status == enums.PaymentStatusPending && payment.TransactionID != nil {
		if adapter, ok := s.adapters[payment.Provider]; ok {
			if status, err := adapter.QueryStatus(ctx, *payment.TransactionID); err == nil {
				switch status {
				case providers.StatusSuccess:
					if err := s.settle(ctx, *payment.TransactionID, true, ""); err != nil {
						return nil, err
					}
				case providers.StatusFailure:
					if err := s.settle(ctx, *payment.TransactionID, false, "provider reported failure"); err != nil {
						return nil, err
					}
				}
				if status != providers.StatusPending {
					payment, err = s.repo.FindByPaymentID(ctx, paymentID)
					if err != nil {
						return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload payment")
					}
				}
			}
		}
	}

	view := NewView(payment)
	return &view, nil
}

// Cancel voids a pending payment at the owner's request.
func (s *service) Cancel(ctx context.Context, actor orders.Actor, paymentID string) (*View, error) {
	payment, err := s.authorizedPayment(ctx, actor, paymentID)
	if err != nil {
		return nil, err
	}
	if actor.Role != enums.RoleBuyer || payment.UserID != actor.ID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the paying buyer may cancel")
	}

	now := time.Now().UTC()
	rows, err := s.repo.UpdatePaymentStatus(ctx, payment.ID,
		enums.PaymentStatusPending, enums.PaymentStatusCancelled,
		map[string]any{"updated_at": now})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel payment")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment is no longer pending")
	}
	if err := s.repo.UpdateOrderPaymentStatus(ctx, payment.OrderID, enums.PaymentStatusCancelled); err != nil {
		s.logger.Error(ctx, "update order payment status", err)
	}
	s.metrics.IncPaymentSettled(string(payment.Provider), string(enums.PaymentStatusCancelled))

	payment.Status = enums.PaymentStatusCancelled
	view := NewView(payment)
	return &view, nil
}

// Simulate settles a pending simulation payment. Admin tooling only.
func (s *service) Simulate(ctx context.Context, paymentID string, success bool) error {
	if s.cfg.Mode != config.PaymentModeSimulation {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "platform is not in simulation mode")
	}
	payment, err := s.repo.FindByPaymentID(ctx, paymentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if payment.Provider != enums.ProviderSimulation {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment was not made through the simulation provider")
	}
	if payment.TransactionID == nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "payment was never dispatched")
	}
	return s.settle(ctx, *payment.TransactionID, success, "simulated failure")
}

// History lists an actor's payments, newest first.
func (s *service) History(ctx context.Context, input ListInput) (*pagination.Page[View], error) {
	page := input.Page.Normalize()
	filter := ListFilter{
		Status: input.Status,
		Limit:  page.Limit,
		Offset: page.Offset,
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
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role may not list payments")
	}

	rows, total, err := s.repo.ListPayments(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	views := make([]View, 0, len(rows))
	for i := range rows {
		views = append(views, NewView(&rows[i]))
	}
	return &pagination.Page[View]{
		Items:  views,
		Total:  total,
		Limit:  page.Limit,
		Offset: page.Offset,
	}, nil
}

// ExpireStale is the sweep entry point used by the cron worker.
func (s *service) ExpireStale(ctx context.Context) (int64, error) {
	count, err := s.repo.ExpireStale(ctx, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire stale payments")
	}
	for i := int64(0); i < count; i++ {
		s.metrics.IncPaymentExpired()
	}
	if count > 0 {
		s.logger.Info(ctx, fmt.Sprintf("expired %d stale payments", count))
	}
	return count, nil
}

func (s *service) authorizedPayment(ctx context.Context, actor orders.Actor, paymentID string) (*models.Payment, error) {
	if paymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	payment, err := s.repo.FindByPaymentID(ctx, paymentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	switch actor.Role {
	case enums.RoleSystem:
	case enums.RoleBuyer:
		if payment.UserID != actor.ID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "payment does not belong to buyer")
		}
	case enums.RoleMerchant:
		if payment.MerchantID != actor.MerchantID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "payment does not belong to merchant")
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "unknown actor role")
	}
	return payment, nil
}

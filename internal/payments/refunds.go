package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/djassa/djassa-backend/pkg/db/models"
	"github.com/djassa/djassa-backend/pkg/enums"
	pkgerrors "github.com/djassa/djassa-backend/pkg/errors"
	"github.com/djassa/djassa-backend/pkg/logger"
)

// RefundManager queues refunds for completed payments of cancelled orders.
// Execution against the provider happens out of band; this only records the
// obligation.
type RefundManager struct {
	repo   Repository
	logger *logger.Logger
}

// NewRefundManager builds the refund marker used by the order service.
func NewRefundManager(repo Repository, logg *logger.Logger) (*RefundManager, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &RefundManager{repo: repo, logger: logg}, nil
}

// MarkForRefund records a processing refund for the order's completed
// payment. Calling it twice for the same payment is a no-op.
func (m *RefundManager) MarkForRefund(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, reason string) error {
	repo := m.repo.WithTx(tx)

	rows, err := repo.FindByOrder(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payments for refund")
	}
	var completed *models.Payment
	for i := range rows {
		if rows[i].Status == enums.PaymentStatusCompleted {
			completed = &rows[i]
			break
		}
	}
	if completed == nil {
		return nil
	}

	if _, err := repo.FindRefundByPaymentID(ctx, completed.PaymentID); err == nil {
		return nil
	} else if err != gorm.ErrRecordNotFound {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing refund")
	}

	refund := &models.Refund{
		ID:         uuid.New(),
		RefundID:   fmt.Sprintf("REF-%s", uuid.New()),
		PaymentID:  completed.PaymentID,
		OrderID:    completed.OrderID,
		UserID:     completed.UserID,
		MerchantID: completed.MerchantID,
		Amount:     completed.Amount,
		Currency:   completed.Currency,
		Reason:     reason,
		Status:     enums.RefundStatusProcessing,
	}
	if err := repo.CreateRefund(ctx, refund); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create refund")
	}

	m.logger.Info(m.logger.WithPaymentID(ctx, completed.PaymentID),
		fmt.Sprintf("refund %s queued at %s", refund.RefundID, time.Now().UTC().Format(time.RFC3339)))
	return nil
}

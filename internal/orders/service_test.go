package orders

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/djassa/djassa-backend/pkg/db/models"
	"github.com/djassa/djassa-backend/pkg/enums"
	pkgerrors "github.com/djassa/djassa-backend/pkg/errors"
	"github.com/djassa/djassa-backend/pkg/logger"
	"github.com/djassa/djassa-backend/pkg/pagination"
)

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubRepo struct {
	order *models.Order

	// updateRows holds the RowsAffected value per UpdateOrderStatus call.
	updateRows  []int64
	updateCalls int
	lastUpdates map[string]any

	history    []models.OrderStatusHistory
	listFilter ListFilter
	listResult []models.Order
	listTotal  int64
}

func (s *stubRepo) WithTx(*gorm.DB) Repository { return s }

func (s *stubRepo) FindOrder(_ context.Context, id uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *s.order
	return &clone, nil
}

func (s *stubRepo) UpdateOrderStatus(_ context.Context, _ uuid.UUID, _, to enums.OrderStatus, updates map[string]any) (int64, error) {
	rows := int64(1)
	if s.updateCalls < len(s.updateRows) {
		rows = s.updateRows[s.updateCalls]
	}
	s.updateCalls++
	s.lastUpdates = updates
	if rows > 0 {
		s.order.Status = to
	}
	return rows, nil
}

func (s *stubRepo) AppendHistory(_ context.Context, entry *models.OrderStatusHistory) error {
	s.history = append(s.history, *entry)
	return nil
}

func (s *stubRepo) ListOrders(_ context.Context, filter ListFilter) ([]models.Order, int64, error) {
	s.listFilter = filter
	return s.listResult, s.listTotal, nil
}

type stubInventory struct {
	released map[uuid.UUID]int
}

func (s *stubInventory) Release(_ context.Context, _ *gorm.DB, productID uuid.UUID, qty int) error {
	if s.released == nil {
		s.released = map[uuid.UUID]int{}
	}
	s.released[productID] += qty
	return nil
}

type stubRefunds struct {
	calls  int
	orders []uuid.UUID
}

func (s *stubRefunds) MarkForRefund(_ context.Context, _ *gorm.DB, orderID uuid.UUID, _ string) error {
	s.calls++
	s.orders = append(s.orders, orderID)
	return nil
}

func newTestOrder(status enums.OrderStatus) *models.Order {
	return &models.Order{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		MerchantID:    uuid.New(),
		TotalAmount:   92000,
		Status:        status,
		PaymentMethod: "mobile_money",
		PaymentStatus: string(enums.PaymentStatusPending),
		Items: []models.OrderItem{
			{ID: uuid.New(), ProductID: uuid.New(), Title: "Phone", Price: 46000, Quantity: 2},
		},
	}
}

func newOrderService(t *testing.T, repo *stubRepo, inv *stubInventory, refunds *stubRefunds) Service {
	t.Helper()
	svc, err := NewService(Params{
		Repo:      repo,
		Tx:        stubTx{},
		Inventory: inv,
		Refunds:   refunds,
		Logger:    logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	require.NoError(t, err)
	return svc
}

func merchantActor(order *models.Order) Actor {
	return Actor{ID: uuid.New(), Role: enums.RoleMerchant, MerchantID: order.MerchantID}
}

func buyerActor(order *models.Order) Actor {
	return Actor{ID: order.UserID, Role: enums.RoleBuyer}
}

func TestUpdateStatusMerchantConfirms(t *testing.T) {
	order := newTestOrder(enums.OrderStatusPending)
	repo := &stubRepo{order: order}
	svc := newOrderService(t, repo, &stubInventory{}, &stubRefunds{})

	updated, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID: order.ID,
		Actor:   merchantActor(order),
		Target:  enums.OrderStatusConfirmed,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, updated.Status)
	require.Len(t, repo.history, 1)
	assert.Equal(t, enums.OrderStatusConfirmed, repo.history[0].Status)
}

func TestUpdateStatusBuyerCannotConfirm(t *testing.T) {
	order := newTestOrder(enums.OrderStatusPending)
	repo := &stubRepo{order: order}
	svc := newOrderService(t, repo, &stubInventory{}, &stubRefunds{})

	_, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID: order.ID,
		Actor:   buyerActor(order),
		Target:  enums.OrderStatusConfirmed,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))
	assert.Empty(t, repo.history)
}

func TestUpdateStatusSystemConfirms(t *testing.T) {
	order := newTestOrder(enums.OrderStatusPending)
	repo := &stubRepo{order: order}
	svc := newOrderService(t, repo, &stubInventory{}, &stubRefunds{})

	updated, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID: order.ID,
		Actor:   Actor{Role: enums.RoleSystem},
		Target:  enums.OrderStatusConfirmed,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, updated.Status)
	require.Len(t, repo.history, 1)
	assert.Equal(t, "system", repo.history[0].ChangedBy)
}

func TestUpdateStatusShippedOrderCannotBeCancelled(t *testing.T) {
	order := newTestOrder(enums.OrderStatusShipped)
	repo := &stubRepo{order: order}
	inv := &stubInventory{}
	svc := newOrderService(t, repo, inv, &stubRefunds{})

	_, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID: order.ID,
		Actor:   merchantActor(order),
		Target:  enums.OrderStatusCancelled,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))

	typed := pkgerrors.As(err)
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "shipped", details["current_status"])
	assert.Equal(t, []string{"delivered"}, details["valid_next"])

	assert.Empty(t, inv.released)
	assert.Empty(t, repo.history)
	assert.Equal(t, 0, repo.updateCalls)
}

func TestUpdateStatusTerminalOrderRejectsEverything(t *testing.T) {
	for _, status := range []enums.OrderStatus{enums.OrderStatusDelivered, enums.OrderStatusCancelled} {
		order := newTestOrder(status)
		repo := &stubRepo{order: order}
		svc := newOrderService(t, repo, &stubInventory{}, &stubRefunds{})

		for _, target := range []enums.OrderStatus{
			enums.OrderStatusPending, enums.OrderStatusConfirmed,
			enums.OrderStatusShipped, enums.OrderStatusDelivered, enums.OrderStatusCancelled,
		} {
			_, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
				OrderID: order.ID,
				Actor:   merchantActor(order),
				Target:  target,
			})
			require.Error(t, err, "from %s to %s", status, target)
			assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))
		}
	}
}

func TestUpdateStatusShipRequiresTracking(t *testing.T) {
	order := newTestOrder(enums.OrderStatusConfirmed)
	repo := &stubRepo{order: order}
	svc := newOrderService(t, repo, &stubInventory{}, &stubRefunds{})

	_, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID: order.ID,
		Actor:   merchantActor(order),
		Target:  enums.OrderStatusShipped,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	tracking := "TRK-123"
	updated, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID:        order.ID,
		Actor:          merchantActor(order),
		Target:         enums.OrderStatusShipped,
		TrackingNumber: &tracking,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, updated.Status)
	assert.Equal(t, "TRK-123", repo.lastUpdates["tracking_number"])
	assert.NotNil(t, repo.lastUpdates["shipped_at"])
}

func TestUpdateStatusCancelRestoresStockAndQueuesRefund(t *testing.T) {
	order := newTestOrder(enums.OrderStatusConfirmed)
	order.PaymentStatus = string(enums.PaymentStatusCompleted)
	repo := &stubRepo{order: order}
	inv := &stubInventory{}
	refunds := &stubRefunds{}
	svc := newOrderService(t, repo, inv, refunds)

	reason := "buyer changed mind"
	_, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID: order.ID,
		Actor:   merchantActor(order),
		Target:  enums.OrderStatusCancelled,
		Reason:  &reason,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, inv.released[order.Items[0].ProductID])
	assert.Equal(t, 1, refunds.calls)
	assert.Equal(t, order.ID, refunds.orders[0])
	assert.Equal(t, "merchant", repo.lastUpdates["cancelled_by"])
	assert.Equal(t, reason, repo.lastUpdates["cancellation_reason"])
}

func TestUpdateStatusCancelSkipsRefundWhenPaymentNotCompleted(t *testing.T) {
	order := newTestOrder(enums.OrderStatusPending)
	repo := &stubRepo{order: order}
	refunds := &stubRefunds{}
	svc := newOrderService(t, repo, &stubInventory{}, refunds)

	_, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID: order.ID,
		Actor:   buyerActor(order),
		Target:  enums.OrderStatusCancelled,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, refunds.calls)
}

func TestUpdateStatusSecondCancelDoesNotDoubleRestore(t *testing.T) {
	order := newTestOrder(enums.OrderStatusPending)
	repo := &stubRepo{order: order}
	inv := &stubInventory{}
	svc := newOrderService(t, repo, inv, &stubRefunds{})

	_, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID: order.ID,
		Actor:   buyerActor(order),
		Target:  enums.OrderStatusCancelled,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, inv.released[order.Items[0].ProductID])

	_, err = svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID: order.ID,
		Actor:   buyerActor(order),
		Target:  enums.OrderStatusCancelled,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))
	assert.Equal(t, 2, inv.released[order.Items[0].ProductID])
}

func TestUpdateStatusRetriesLostRaceOnce(t *testing.T) {
	order := newTestOrder(enums.OrderStatusPending)
	repo := &stubRepo{order: order, updateRows: []int64{0, 1}}
	svc := newOrderService(t, repo, &stubInventory{}, &stubRefunds{})

	updated, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID: order.ID,
		Actor:   merchantActor(order),
		Target:  enums.OrderStatusConfirmed,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, updated.Status)
	assert.Equal(t, 2, repo.updateCalls)
}

func TestUpdateStatusSurfacesConflictAfterRetry(t *testing.T) {
	order := newTestOrder(enums.OrderStatusPending)
	repo := &stubRepo{order: order, updateRows: []int64{0, 0}}
	svc := newOrderService(t, repo, &stubInventory{}, &stubRefunds{})

	_, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID: order.ID,
		Actor:   merchantActor(order),
		Target:  enums.OrderStatusConfirmed,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))
	assert.Empty(t, repo.history)
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	repo := &stubRepo{}
	svc := newOrderService(t, repo, &stubInventory{}, &stubRefunds{})

	_, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID: uuid.New(),
		Actor:   Actor{ID: uuid.New(), Role: enums.RoleBuyer},
		Target:  enums.OrderStatusCancelled,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestGetEnforcesVisibility(t *testing.T) {
	order := newTestOrder(enums.OrderStatusPending)
	repo := &stubRepo{order: order}
	svc := newOrderService(t, repo, &stubInventory{}, &stubRefunds{})

	got, err := svc.Get(context.Background(), buyerActor(order), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = svc.Get(context.Background(), Actor{ID: uuid.New(), Role: enums.RoleBuyer}, order.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))

	_, err = svc.Get(context.Background(), Actor{ID: uuid.New(), Role: enums.RoleMerchant, MerchantID: uuid.New()}, order.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))
}

func TestListScopesToRole(t *testing.T) {
	order := newTestOrder(enums.OrderStatusPending)
	repo := &stubRepo{order: order, listResult: []models.Order{*order}, listTotal: 1}
	svc := newOrderService(t, repo, &stubInventory{}, &stubRefunds{})

	buyer := buyerActor(order)
	page, err := svc.List(context.Background(), ListInput{Actor: buyer})
	require.NoError(t, err)
	require.NotNil(t, repo.listFilter.UserID)
	assert.Equal(t, buyer.ID, *repo.listFilter.UserID)
	assert.Nil(t, repo.listFilter.MerchantID)
	assert.Equal(t, pagination.DefaultLimit, page.Limit)

	merchant := merchantActor(order)
	_, err = svc.List(context.Background(), ListInput{
		Actor: merchant,
		Page:  pagination.Params{Limit: 500, Offset: -3},
	})
	require.NoError(t, err)
	require.NotNil(t, repo.listFilter.MerchantID)
	assert.Equal(t, merchant.MerchantID, *repo.listFilter.MerchantID)
	assert.Equal(t, pagination.MaxLimit, repo.listFilter.Limit)
	assert.Equal(t, 0, repo.listFilter.Offset)
}

func TestValidNextStatusesHelper(t *testing.T) {
	assert.Equal(t,
		[]enums.OrderStatus{enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
		ValidNextStatuses(enums.OrderStatusPending, nil))

	buyer := enums.RoleBuyer
	assert.Equal(t,
		[]enums.OrderStatus{enums.OrderStatusCancelled},
		ValidNextStatuses(enums.OrderStatusPending, &buyer))

	assert.Empty(t, ValidNextStatuses(enums.OrderStatusDelivered, nil))
	assert.Empty(t, ValidNextStatuses(enums.OrderStatusCancelled, nil))
}

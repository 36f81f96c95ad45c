package payments

import (
	"time"

	"github.com/google/uuid"

	"github.com/djassa/djassa-backend/internal/orders"
	"github.com/djassa/djassa-backend/pkg/db/models"
	"github.com/djassa/djassa-backend/pkg/enums"
	"github.com/djassa/djassa-backend/pkg/pagination"
	"github.com/djassa/djassa-backend/pkg/phone"
)

// InitiateInput captures a buyer's request to pay for an order.
type InitiateInput struct {
	OrderID uuid.UUID
	Actor   orders.Actor
	Phone   string
}

// InitiateResult is the created payment plus the user-facing confirmation
// instruction from the provider.
type InitiateResult struct {
	Payment      *models.Payment
	Instructions string
}

// ListInput carries the role-scoped history filters.
type ListInput struct {
	Actor  orders.Actor
	Status *enums.PaymentStatus
	Page   pagination.Params
}

// ListFilter is the repository-level projection of ListInput.
type ListFilter struct {
	UserID     *uuid.UUID
	MerchantID *uuid.UUID
	Status     *enums.PaymentStatus
	Limit      int
	Offset     int
}

// View is the externally visible shape of a payment. The phone number is
// always masked.
type View struct {
	PaymentID      string              `json:"payment_id"`
	OrderID        uuid.UUID           `json:"order_id"`
	Amount         int64               `json:"amount"`
	Currency       string              `json:"currency"`
	Provider       enums.PaymentProvider `json:"provider"`
	PhoneNumber    string              `json:"phone_number"`
	Status         enums.PaymentStatus `json:"status"`
	FailureReason  *string             `json:"failure_reason,omitempty"`
	PlatformFee    int64               `json:"platform_fee"`
	GatewayFee     int64               `json:"gateway_fee"`
	MerchantPayout int64               `json:"merchant_payout"`
	InitiatedAt    time.Time           `json:"initiated_at"`
	CompletedAt    *time.Time          `json:"completed_at,omitempty"`
	ExpiresAt      time.Time           `json:"expires_at"`
}

// NewView projects a payment row into its public shape.
func NewView(payment *models.Payment) View {
	return View{
		PaymentID:      payment.PaymentID,
		OrderID:        payment.OrderID,
		Amount:         payment.Amount,
		Currency:       payment.Currency,
		Provider:       payment.Provider,
		PhoneNumber:    phone.Mask(payment.PhoneNumber),
		Status:         payment.Status,
		FailureReason:  payment.FailureReason,
		PlatformFee:    payment.PlatformFee,
		GatewayFee:     payment.GatewayFee,
		MerchantPayout: payment.MerchantPayout,
		InitiatedAt:    payment.InitiatedAt,
		CompletedAt:    payment.CompletedAt,
		ExpiresAt:      payment.ExpiresAt,
	}
}

package providers

import (
	"context"

	"github.com/djassa/djassa-backend/pkg/enums"
)

// DispatchRequest carries everything an adapter needs to start a charge.
type DispatchRequest struct {
	PaymentID string
	Amount    int64
	Currency  string
	Phone     string
}

// DispatchResult is the provider's acknowledgement of a started charge.
type DispatchResult struct {
	TransactionID string
	Instructions  string
}

// Status is a provider-side view of a transaction.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// WebhookPayload is the settlement callback body shared by every provider.
// Signature covers the other fields.
type WebhookPayload struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Provider      string `json:"provider"`
	Signature     string `json:"signature"`
}

// Adapter abstracts one mobile money provider. The orchestrator is written
// only against this interface.
type Adapter interface {
	Provider() enums.PaymentProvider
	Dispatch(ctx context.Context, req DispatchRequest) (*DispatchResult, error)
	QueryStatus(ctx context.Context, transactionID string) (Status, error)
	VerifySignature(payload WebhookPayload) bool
}

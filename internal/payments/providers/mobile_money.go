package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/djassa/djassa-backend/pkg/enums"
	"github.com/djassa/djassa-backend/pkg/phone"
)

// mobileMoney is the sandbox adapter shared by the real operators. It issues
// a transaction id and a USSD instruction, then waits for the provider's
// webhook to settle. Wire-level integration stays behind this boundary.
type mobileMoney struct {
	provider enums.PaymentProvider
	prefix   string
	secret   string
}

// NewOrangeMoney builds the Orange Money sandbox adapter.
func NewOrangeMoney(secret string) Adapter {
	return &mobileMoney{provider: enums.ProviderOrangeMoney, prefix: "OM", secret: secret}
}

// NewMTNMoney builds the MTN Mobile Money sandbox adapter.
func NewMTNMoney(secret string) Adapter {
	return &mobileMoney{provider: enums.ProviderMTNMoney, prefix: "MTN", secret: secret}
}

// NewMoovMoney builds the Moov Money sandbox adapter.
func NewMoovMoney(secret string) Adapter {
	return &mobileMoney{provider: enums.ProviderMoovMoney, prefix: "MOOV", secret: secret}
}

func (m *mobileMoney) Provider() enums.PaymentProvider {
	return m.provider
}

func (m *mobileMoney) Dispatch(_ context.Context, req DispatchRequest) (*DispatchResult, error) {
	if strings.TrimSpace(req.Phone) == "" {
		return nil, fmt.Errorf("phone number required for %s dispatch", m.provider)
	}
	transactionID := fmt.Sprintf("%s-%s", m.prefix, uuid.New())
	instructions := fmt.Sprintf("Dial %s on %s to confirm the payment of %d %s.",
		phone.USSDCode(m.provider), phone.Mask(req.Phone), req.Amount, req.Currency)
	return &DispatchResult{
		TransactionID: transactionID,
		Instructions:  instructions,
	}, nil
}

// QueryStatus always reports pending; settlement arrives via webhook.
func (m *mobileMoney) QueryStatus(context.Context, string) (Status, error) {
	return StatusPending, nil
}

func (m *mobileMoney) VerifySignature(payload WebhookPayload) bool {
	return verifyPayload(m.secret, payload)
}

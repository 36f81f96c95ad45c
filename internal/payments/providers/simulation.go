package providers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/djassa/djassa-backend/pkg/enums"
)

// Settler is invoked by the simulation adapter when a synthetic transaction
// resolves. It must be safe to call from a background goroutine.
type Settler func(transactionID string, success bool, reason string)

// Magic phone suffixes steering simulated outcomes. Any other number stays
// pending until an admin triggers settlement.
const (
	autoSuccessSuffix = "0000"
	autoFailureSuffix = "9999"
)

// Simulation is a fully in-process provider used outside production. It never
// talks to a network.
type Simulation struct {
	secret  string
	delay   time.Duration
	settler Settler

	mu       sync.Mutex
	statuses map[string]Status
}

// NewSimulation builds the simulation adapter. settler may be nil, in which
// case transactions only resolve through the admin trigger.
func NewSimulation(secret string, delay time.Duration, settler Settler) *Simulation {
	return &Simulation{
		secret:   secret,
		delay:    delay,
		settler:  settler,
		statuses: make(map[string]Status),
	}
}

func (s *Simulation) Provider() enums.PaymentProvider {
	return enums.ProviderSimulation
}

// Dispatch acknowledges immediately. Numbers ending in the success suffix
// auto-complete after the configured delay; the failure suffix fails shortly
// after dispatch so the payment row is committed first.
func (s *Simulation) Dispatch(_ context.Context, req DispatchRequest) (*DispatchResult, error) {
	transactionID := fmt.Sprintf("SIM-%s", uuid.New())

	s.mu.Lock()
	s.statuses[transactionID] = StatusPending
	s.mu.Unlock()

	switch {
	case strings.HasSuffix(req.Phone, autoFailureSuffix):
		s.scheduleSettlement(transactionID, 100*time.Millisecond, false, "simulated failure")
	case strings.HasSuffix(req.Phone, autoSuccessSuffix):
		s.scheduleSettlement(transactionID, s.delay, true, "")
	}

	return &DispatchResult{
		TransactionID: transactionID,
		Instructions:  fmt.Sprintf("Simulated payment of %d %s. No confirmation needed.", req.Amount, req.Currency),
	}, nil
}

func (s *Simulation) QueryStatus(_ context.Context, transactionID string) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status, ok := s.statuses[transactionID]; ok {
		return status, nil
	}
	return StatusPending, fmt.Errorf("unknown simulated transaction %s", transactionID)
}

func (s *Simulation) VerifySignature(payload WebhookPayload) bool {
	return verifyPayload(s.secret, payload)
}

// Resolve settles a pending simulated transaction. Used by the admin trigger.
func (s *Simulation) Resolve(transactionID string, success bool) {
	s.record(transactionID, success)
	if s.settler != nil {
		reason := ""
		if !success {
			reason = "simulated failure"
		}
		s.settler(transactionID, success, reason)
	}
}

func (s *Simulation) scheduleSettlement(transactionID string, delay time.Duration, success bool, reason string) {
	if s.settler == nil {
		return
	}
	time.AfterFunc(delay, func() {
		s.record(transactionID, success)
		s.settler(transactionID, success, reason)
	})
}

func (s *Simulation) record(transactionID string, success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if success {
		s.statuses[transactionID] = StatusSuccess
	} else {
		s.statuses[transactionID] = StatusFailure
	}
}

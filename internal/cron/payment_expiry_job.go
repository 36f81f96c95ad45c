package cron

import (
	"context"
	"fmt"

	"github.com/djassa/djassa-backend/pkg/logger"
)

const paymentExpiryJobName = "payment-expiry"

type staleExpirer interface {
	ExpireStale(ctx context.Context) (int64, error)
}

// PaymentExpiryJob transitions pending payments past their deadline to
// expired. It backs up the lazy expiry done on reads.
type PaymentExpiryJob struct {
	payments staleExpirer
	logg     *logger.Logger
}

// NewPaymentExpiryJob builds the expiry sweep job.
func NewPaymentExpiryJob(payments staleExpirer, logg *logger.Logger) (*PaymentExpiryJob, error) {
	if payments == nil {
		return nil, fmt.Errorf("payments service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &PaymentExpiryJob{payments: payments, logg: logg}, nil
}

func (j *PaymentExpiryJob) Name() string {
	return paymentExpiryJobName
}

func (j *PaymentExpiryJob) Run(ctx context.Context) error {
	count, err := j.payments.ExpireStale(ctx)
	if err != nil {
		return fmt.Errorf("expire stale payments: %w", err)
	}
	if count > 0 {
		j.logg.Info(ctx, fmt.Sprintf("payment expiry sweep expired %d payments", count))
	}
	return nil
}

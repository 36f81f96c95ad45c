package payments

import (
	"github.com/shopspring/decimal"

	"github.com/djassa/djassa-backend/pkg/config"
	"github.com/djassa/djassa-backend/pkg/enums"
)

// Fees is the breakdown of one gross charge. All amounts are integral XOF.
type Fees struct {
	Gross          int64
	PlatformFee    int64
	GatewayFee     int64
	MerchantPayout int64
}

// FeeSchedule computes fee breakdowns from basis-point rates. Immutable once
// constructed so tests can inject alternate schedules.
type FeeSchedule struct {
	platformBps int
	gatewayBps  map[enums.PaymentProvider]int
}

// NewFeeSchedule builds the schedule from configuration. The simulation
// provider charges no gateway fee.
func NewFeeSchedule(cfg config.PaymentConfig) *FeeSchedule {
	return &FeeSchedule{
		platformBps: cfg.PlatformCommissionBps,
		gatewayBps: map[enums.PaymentProvider]int{
			enums.ProviderOrangeMoney: cfg.OrangeGatewayFeeBps,
			enums.ProviderMTNMoney:    cfg.MTNGatewayFeeBps,
			enums.ProviderMoovMoney:   cfg.MoovGatewayFeeBps,
			enums.ProviderSimulation:  0,
		},
	}
}

// Compute splits the gross amount into platform fee, gateway fee and
// merchant payout. Each fee rounds half-up independently; the payout is the
// exact remainder so the three parts always sum to the gross.
func (f *FeeSchedule) Compute(gross int64, provider enums.PaymentProvider) Fees {
	platform := bpsShare(gross, f.platformBps)
	gateway := bpsShare(gross, f.gatewayBps[provider])
	return Fees{
		Gross:          gross,
		PlatformFee:    platform,
		GatewayFee:     gateway,
		MerchantPayout: gross - platform - gateway,
	}
}

func bpsShare(amount int64, bps int) int64 {
	if bps <= 0 || amount <= 0 {
		return 0
	}
	return decimal.NewFromInt(amount).
		Mul(decimal.NewFromInt(int64(bps))).
		Div(decimal.NewFromInt(10000)).
		Round(0).
		IntPart()
}

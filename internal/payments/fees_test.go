package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/djassa/djassa-backend/pkg/config"
	"github.com/djassa/djassa-backend/pkg/enums"
)

func testSchedule() *FeeSchedule {
	return NewFeeSchedule(config.PaymentConfig{
		PlatformCommissionBps: 250,
		OrangeGatewayFeeBps:   150,
		MTNGatewayFeeBps:      180,
		MoovGatewayFeeBps:     200,
	})
}

func TestComputeFeesOrangeMoney(t *testing.T) {
	fees := testSchedule().Compute(92000, enums.ProviderOrangeMoney)

	assert.Equal(t, int64(92000), fees.Gross)
	assert.Equal(t, int64(2300), fees.PlatformFee)
	assert.Equal(t, int64(1380), fees.GatewayFee)
	assert.Equal(t, int64(88320), fees.MerchantPayout)
}

func TestComputeFeesRoundsHalfUp(t *testing.T) {
	// 101 * 2.5% = 2.525 -> 3; 101 * 1.5% = 1.515 -> 2
	fees := testSchedule().Compute(101, enums.ProviderOrangeMoney)

	assert.Equal(t, int64(3), fees.PlatformFee)
	assert.Equal(t, int64(2), fees.GatewayFee)
	assert.Equal(t, int64(96), fees.MerchantPayout)
}

func TestComputeFeesPartsAlwaysSumToGross(t *testing.T) {
	schedule := testSchedule()
	for _, gross := range []int64{1, 99, 101, 333, 92000, 1234567} {
		for _, provider := range []enums.PaymentProvider{
			enums.ProviderOrangeMoney,
			enums.ProviderMTNMoney,
			enums.ProviderMoovMoney,
			enums.ProviderSimulation,
		} {
			fees := schedule.Compute(gross, provider)
			assert.Equal(t, gross, fees.PlatformFee+fees.GatewayFee+fees.MerchantPayout,
				"gross %d provider %s", gross, provider)
		}
	}
}

func TestComputeFeesSimulationHasNoGatewayFee(t *testing.T) {
	fees := testSchedule().Compute(50000, enums.ProviderSimulation)

	assert.Equal(t, int64(0), fees.GatewayFee)
	assert.Equal(t, int64(1250), fees.PlatformFee)
	assert.Equal(t, int64(48750), fees.MerchantPayout)
}

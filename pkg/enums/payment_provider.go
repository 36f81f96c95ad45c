package enums

import "fmt"

// PaymentProvider identifies a mobile money network.
type PaymentProvider string

const (
	ProviderOrangeMoney PaymentProvider = "orange_money"
	ProviderMTNMoney    PaymentProvider = "mtn_money"
	ProviderMoovMoney   PaymentProvider = "moov_money"
	// ProviderSimulation is the synthetic provider used when the platform
	// runs in SIMULATION payment mode.
	ProviderSimulation PaymentProvider = "simulation"
)

var validPaymentProviders = []PaymentProvider{
	ProviderOrangeMoney,
	ProviderMTNMoney,
	ProviderMoovMoney,
	ProviderSimulation,
}

// String implements fmt.Stringer.
func (p PaymentProvider) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentProvider.
func (p PaymentProvider) IsValid() bool {
	for _, candidate := range validPaymentProviders {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentProvider converts raw input into a PaymentProvider.
func ParsePaymentProvider(value string) (PaymentProvider, error) {
	for _, candidate := range validPaymentProviders {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment provider %q", value)
}

package phone

import (
	"testing"

	"github.com/djassa/djassa-backend/pkg/enums"
	pkgerrors "github.com/djassa/djassa-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateNormalizes(t *testing.T) {
	for _, raw := range []string{
		"+2250707123456",
		"2250707123456",
		"+225 07 07 12 34 56",
		"+225-0707-123-456",
	} {
		got, err := Validate(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, "+2250707123456", got)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []string{
		"0707123456",       // missing country code
		"+22507071234",     // too short
		"+225070712345678", // too long
		"+225070712345a",   // non-digit
		"+2251707123456",   // national number not starting with 0
	}
	for _, raw := range cases {
		_, err := Validate(raw)
		require.Error(t, err, raw)
		assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation), raw)
	}
}

func TestDetectProvider(t *testing.T) {
	cases := map[string]enums.PaymentProvider{
		"+2250707123456": enums.ProviderOrangeMoney, // 07 block
		"+2250505123456": enums.ProviderOrangeMoney, // carved-out 0505
		"+2250145123456": enums.ProviderOrangeMoney, // carved-out 014X
		"+2250544123456": enums.ProviderMTNMoney,    // 05 block outside Orange carve-outs
		"+2250650123456": enums.ProviderMTNMoney,    // 06 block
		"+2250401123456": enums.ProviderMTNMoney,    // 04 block
		"+2250102123456": enums.ProviderMoovMoney,   // 01 block outside Orange carve-outs
		"+2250203123456": enums.ProviderMoovMoney,   // 02 block
		"+2250303123456": enums.ProviderMoovMoney,   // 03 block
	}
	for number, want := range cases {
		got, err := DetectProvider(number)
		require.NoError(t, err, number)
		assert.Equal(t, want, got, number)
	}
}

func TestDetectProviderUnknownPrefix(t *testing.T) {
	_, err := DetectProvider("+2250907123456")
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestMask(t *testing.T) {
	assert.Equal(t, "+225******3456", Mask("+2250707123456"))
	assert.Equal(t, "short", Mask("short"))
}

func TestUSSDCode(t *testing.T) {
	assert.Equal(t, "*133#", USSDCode(enums.ProviderMTNMoney))
	assert.Equal(t, "*155#", USSDCode(enums.ProviderMoovMoney))
	assert.Equal(t, "*144#", USSDCode(enums.ProviderSimulation))
}

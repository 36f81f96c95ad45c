// Package phone validates Ivorian mobile money numbers and infers the
// network operator from the dialing prefix.
//
// Numbers are normalized to the international form +225XXXXXXXXXX
// (country code plus ten digits).
package phone

import (
	"fmt"
	"strings"

	"github.com/djassa/djassa-backend/pkg/enums"
	pkgerrors "github.com/djassa/djassa-backend/pkg/errors"
)

const (
	countryCode = "225"
	// nationalLen is the digit count of the local number after the
	// country code.
	nationalLen = 10
)

var cleaner = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")

// Orange holds numbers in the 07 block plus carved-out 01/05 ranges.
var orangePrefixes = map[string]struct{}{
	"0707": {}, "0505": {}, "0104": {}, "0105": {}, "0106": {}, "0107": {},
	"0108": {}, "0109": {}, "0140": {}, "0141": {}, "0142": {}, "0143": {},
	"0144": {}, "0145": {}, "0146": {}, "0147": {}, "0148": {}, "0149": {},
	"0150": {}, "0151": {}, "0152": {}, "0153": {}, "0154": {}, "0155": {},
	"0156": {}, "0157": {}, "0158": {}, "0159": {},
}

var ussdCodes = map[enums.PaymentProvider]string{
	enums.ProviderOrangeMoney: "*144#",
	enums.ProviderMTNMoney:    "*133#",
	enums.ProviderMoovMoney:   "*155#",
}

// Validate cleans and validates an Ivorian phone number, returning it in
// +225XXXXXXXXXX form.
func Validate(raw string) (string, error) {
	cleaned := cleaner.Replace(strings.TrimSpace(raw))

	switch {
	case strings.HasPrefix(cleaned, "+"+countryCode):
		cleaned = cleaned[1:]
	case strings.HasPrefix(cleaned, countryCode):
	default:
		return "", pkgerrors.New(pkgerrors.CodeValidation, "phone number must start with +225 or 225")
	}

	if len(cleaned) != len(countryCode)+nationalLen {
		return "", pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("invalid phone number length: expected %d digits after the country code, got %d",
				nationalLen, len(cleaned)-len(countryCode)))
	}
	for _, r := range cleaned {
		if r < '0' || r > '9' {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "phone number must contain only digits")
		}
	}

	national := cleaned[len(countryCode):]
	if national[0] != '0' {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid Ivorian mobile number prefix")
	}

	return "+" + cleaned, nil
}

// DetectProvider infers the mobile money operator from a number's prefix.
// The input is validated first; an unmappable prefix is a validation error.
func DetectProvider(raw string) (enums.PaymentProvider, error) {
	normalized, err := Validate(raw)
	if err != nil {
		return "", err
	}

	national := normalized[len("+"+countryCode):]
	prefix4 := national[:4]
	prefix2 := national[:2]

	if _, ok := orangePrefixes[prefix4]; ok {
		return enums.ProviderOrangeMoney, nil
	}

	switch prefix2 {
	case "07":
		return enums.ProviderOrangeMoney, nil
	case "04", "05", "06":
		return enums.ProviderMTNMoney, nil
	case "01", "02", "03":
		return enums.ProviderMoovMoney, nil
	}

	return "", pkgerrors.New(pkgerrors.CodeValidation, "could not determine payment provider from phone number")
}

// USSDCode returns the confirmation dial code for the given provider.
func USSDCode(provider enums.PaymentProvider) string {
	if code, ok := ussdCodes[provider]; ok {
		return code
	}
	return "*144#"
}

// Mask hides all but the country code and the last four digits.
func Mask(number string) string {
	if len(number) < 8 {
		return number
	}
	return number[:4] + strings.Repeat("*", len(number)-8) + number[len(number)-4:]
}

package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
	"strings"
)

// DefaultCountryCode is used when DEFAULT_COUNTRY_CODE is not set.
const DefaultCountryCode = "90"

// CountryCode returns the configured country calling code digits.
func CountryCode() string {
	if cc := os.Getenv("DEFAULT_COUNTRY_CODE"); cc != "" {
		return cc
	}
	return DefaultCountryCode
}

// NormalizePhone converts arbitrary user-typed phone input into the
// canonical digit string used as a key everywhere else: digits only, no
// national trunk "0", country code prepended. Idempotent; never errors —
// malformed numbers simply fail downstream delivery.
func NormalizePhone(phone, countryCode string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}

	// Drop national trunk prefix ("05xx..." -> "5xx...")
	digits = strings.TrimPrefix(digits, "0")

	if !strings.HasPrefix(digits, countryCode) {
		digits = countryCode + digits
	}
	return digits
}

// GenerateOTPCode generates a cryptographically secure 6-digit code in the
// range 100000-999999, avoiding leading-zero ambiguity.
func GenerateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate random number: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

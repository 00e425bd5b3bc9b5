// Package payment wraps the card-payment provider behind the one call the
// API needs: creating a payment intent and handing its client secret to
// the browser.
package payment

import (
	"context"
	"errors"
	"math"
)

var ErrNotConfigured = errors.New("payment provider not configured")

type Provider interface {
	// CreateIntent opens an intent for amount minor units of currency and
	// returns the client secret.
	CreateIntent(ctx context.Context, amount int64, currency string) (string, error)
}

// ToMinorUnits converts a decimal price into cents, rounding half away
// from zero.
func ToMinorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}

// Unconfigured is used when no provider key is set.
type Unconfigured struct{}

func (Unconfigured) CreateIntent(context.Context, int64, string) (string, error) {
	return "", ErrNotConfigured
}

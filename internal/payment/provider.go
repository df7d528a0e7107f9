// Package payment starts hosted checkout sessions and verifies the events the
// payment provider sends back.
package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventPaymentIntentFailed      = "payment_intent.payment_failed"
)

var (
	// ErrInvalidSignature is returned when a webhook payload does not carry a
	// valid signature for the configured secret.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMalformedEvent   = errors.New("malformed webhook event")
)

// CheckoutParams describes a single-line-item hosted checkout.
type CheckoutParams struct {
	OrderID     string
	Email       string
	Amount      decimal.Decimal
	Currency    string
	ProductName string
	Description string
	SuccessURL  string
	CancelURL   string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// Event is a verified webhook event reduced to what order processing reads.
// OrderID is taken from the session metadata and is empty when absent.
type Event struct {
	ID      string
	Type    string
	OrderID string
}

type Provider interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
	ParseWebhook(payload []byte, signatureHeader string) (*Event, error)
}

// MinorUnits converts an amount to the smallest currency unit, rounding half
// away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

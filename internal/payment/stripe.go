package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

const orderIDMetadataKey = "order_id"

type StripeProvider struct {
	api           *client.API
	webhookSecret string
}

// NewStripeProvider builds a provider against the live Stripe API. backendURL
// overrides the API base URL when non-empty.
func NewStripeProvider(secretKey, webhookSecret, backendURL string) *StripeProvider {
	var backends *stripe.Backends
	if backendURL != "" {
		cfg := &stripe.BackendConfig{
			URL:               stripe.String(backendURL),
			LeveledLogger:     log.StandardLogger(),
			MaxNetworkRetries: stripe.Int64(0),
		}
		backends = &stripe.Backends{
			API:     stripe.GetBackendWithConfig(stripe.APIBackend, cfg),
			Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, cfg),
			Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, cfg),
		}
	}

	return &StripeProvider{
		api:           client.New(secretKey, backends),
		webhookSecret: webhookSecret,
	}
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	currency := strings.ToLower(params.Currency)
	if currency == "" {
		currency = "usd"
	}

	sessionParams := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		CustomerEmail:      stripe.String(params.Email),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(params.ProductName),
						Description: stripe.String(params.Description),
					},
					UnitAmount: stripe.Int64(MinorUnits(params.Amount)),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
		Metadata:   map[string]string{orderIDMetadataKey: params.OrderID},
	}
	sessionParams.Context = ctx

	session, err := p.api.CheckoutSessions.New(sessionParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event.
// Events rendered with a different API version are accepted; only the
// session metadata is read from them.
func (p *StripeProvider) ParseWebhook(payload []byte, signatureHeader string) (*Event, error) {
	if err := webhook.ValidatePayload(payload, signatureHeader, p.webhookSecret); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	var raw stripe.Event
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if raw.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedEvent)
	}

	event := &Event{ID: raw.ID, Type: string(raw.Type)}
	if event.Type != EventCheckoutSessionCompleted {
		return event, nil
	}

	if raw.Data == nil || len(raw.Data.Raw) == 0 {
		return nil, fmt.Errorf("%w: missing data object", ErrMalformedEvent)
	}
	var session stripe.CheckoutSession
	if err := json.Unmarshal(raw.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	event.OrderID = session.Metadata[orderIDMetadataKey]

	return event, nil
}

// IsSignatureError reports whether err came from signature verification.
func IsSignatureError(err error) bool {
	return errors.Is(err, ErrInvalidSignature)
}

package services

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"
	"memorial-storefront/internal/models"
	"memorial-storefront/internal/payment"
	"memorial-storefront/internal/validation"
)

const (
	checkoutProductName = "Memorial Order"
	// checkoutSessionIDPlaceholder is substituted by the provider on redirect.
	checkoutSessionIDPlaceholder = "{CHECKOUT_SESSION_ID}"
)

type CheckoutService struct {
	provider          payment.Provider
	currency          string
	defaultSuccessURL string
	defaultCancelURL  string
}

func NewCheckoutService(provider payment.Provider, currency, successURL, cancelURL string) *CheckoutService {
	return &CheckoutService{
		provider:          provider,
		currency:          currency,
		defaultSuccessURL: successURL,
		defaultCancelURL:  cancelURL,
	}
}

// CreateCheckoutSession starts a hosted checkout for the whole order total as
// one line item.
func (s *CheckoutService) CreateCheckoutSession(ctx context.Context, req models.CreateCheckoutSessionRequest) (*models.CheckoutSessionResponse, error) {
	fields := validation.FieldErrors{}
	if strings.TrimSpace(req.OrderID) == "" {
		fields["orderId"] = "Order id is required"
	}
	if !req.OrderTotal.IsPositive() {
		fields["orderTotal"] = "Order total must be greater than zero"
	}
	if !fields.Valid() {
		return nil, &validation.Error{Fields: fields}
	}

	successURL := req.SuccessURL
	if successURL == "" {
		successURL = s.defaultSuccessURL
	}
	cancelURL := req.CancelURL
	if cancelURL == "" {
		cancelURL = s.defaultCancelURL
	}

	session, err := s.provider.CreateCheckoutSession(ctx, payment.CheckoutParams{
		OrderID:     req.OrderID,
		Email:       req.Email,
		Amount:      req.OrderTotal,
		Currency:    s.currency,
		ProductName: checkoutProductName,
		Description: "Order #" + req.OrderID,
		SuccessURL:  withQuery(successURL, "session_id="+checkoutSessionIDPlaceholder+"&order_id="+req.OrderID),
		CancelURL:   withQuery(cancelURL, "order_id="+req.OrderID),
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"order_id":   req.OrderID,
		"session_id": session.ID,
	}).Info("checkout session created")

	return &models.CheckoutSessionResponse{SessionID: session.ID, URL: session.URL}, nil
}

// withQuery appends a raw query string. The placeholder braces must reach the
// provider unescaped.
func withQuery(base, query string) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + query
}

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"memorial-storefront/internal/metrics"
	"memorial-storefront/internal/models"
	"memorial-storefront/internal/payment"
	"memorial-storefront/internal/supabase"
)

// ErrMissingOrderID is returned for a completed checkout whose metadata does
// not name an order.
var ErrMissingOrderID = errors.New("no order_id in session metadata")

type OrderStatusStore interface {
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error
}

type WebhookService struct {
	provider payment.Provider
	orders   OrderStatusStore
}

func NewWebhookService(provider payment.Provider, orders OrderStatusStore) *WebhookService {
	return &WebhookService{provider: provider, orders: orders}
}

// HandleEvent verifies and applies one payment event. A completed checkout
// marks its order PAID; every other event type is only logged.
func (s *WebhookService) HandleEvent(ctx context.Context, payload []byte, signatureHeader string) (*payment.Event, error) {
	event, err := s.provider.ParseWebhook(payload, signatureHeader)
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("unknown", "rejected").Inc()
		return nil, err
	}

	logger := log.WithFields(log.Fields{
		"event_id":   event.ID,
		"event_type": event.Type,
	})
	logger.Info("received payment event")

	switch event.Type {
	case payment.EventCheckoutSessionCompleted:
		err = s.markPaid(ctx, event.OrderID)
	case payment.EventPaymentIntentFailed:
		logger.Warn("payment failed")
	default:
		logger.Info("unhandled event type")
	}

	result := "processed"
	if err != nil {
		result = "failed"
	}
	metrics.WebhookEventsTotal.WithLabelValues(event.Type, result).Inc()

	return event, err
}

func (s *WebhookService) markPaid(ctx context.Context, orderID string) error {
	if orderID == "" {
		return ErrMissingOrderID
	}
	if _, err := uuid.Parse(orderID); err != nil {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}

	logger := log.WithField("order_id", orderID)

	order, err := s.orders.GetOrder(ctx, orderID)
	if errors.Is(err, supabase.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	if err != nil {
		return fmt.Errorf("failed to load order %s: %w", orderID, err)
	}

	if order.Status == models.OrderStatusPaid {
		logger.Info("order already marked as PAID")
		return nil
	}
	if !order.Status.CanTransitionTo(models.OrderStatusPaid) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, order.Status, models.OrderStatusPaid)
	}

	err = s.orders.UpdateOrderStatus(ctx, orderID, models.OrderStatusPaid)
	if errors.Is(err, supabase.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	if err != nil {
		return fmt.Errorf("failed to update order %s: %w", orderID, err)
	}

	metrics.OrdersTotal.WithLabelValues(string(models.OrderStatusPaid)).Inc()
	logger.Info("order marked as PAID")
	return nil
}

package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"memorial-storefront/internal/models"
	"memorial-storefront/internal/payment"
	"memorial-storefront/internal/services"
)

const (
	stripeSignatureHeader = "Stripe-Signature"
	maxWebhookBodyBytes   = 65536
)

type EventHandler interface {
	HandleEvent(ctx context.Context, payload []byte, signatureHeader string) (*payment.Event, error)
}

type WebhookHandler struct {
	events EventHandler
}

func NewWebhookHandler(events EventHandler) *WebhookHandler {
	return &WebhookHandler{events: events}
}

// HandleStripeWebhook godoc
// @Summary     Stripe webhook endpoint
// @Description Verifies the Stripe-Signature header and applies the event. checkout.session.completed marks the order named in metadata.order_id as PAID.
// @Tags        webhooks
// @Accept      json
// @Produce     json
// @Param       Stripe-Signature header string true "Stripe signature"
// @Success     200 {object} map[string]bool "received"
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /webhooks/stripe [post]
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	signature := c.GetHeader(stripeSignatureHeader)
	if signature == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "missing Stripe-Signature header"})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to read request body",
			Message: err.Error(),
		})
		return
	}

	event, err := h.events.HandleEvent(c.Request.Context(), body, signature)
	if err != nil {
		status, message := webhookError(err)
		entry := log.WithError(err).WithField("status", status)
		if event != nil {
			entry = entry.WithFields(log.Fields{"event_id": event.ID, "event_type": event.Type})
		}
		if status >= http.StatusInternalServerError {
			entry.Error("webhook processing failed")
		} else {
			entry.Warn("webhook rejected")
		}
		c.JSON(status, models.ErrorResponse{Error: message})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func webhookError(err error) (int, string) {
	switch {
	case errors.Is(err, payment.ErrInvalidSignature):
		return http.StatusBadRequest, "invalid signature"
	case errors.Is(err, payment.ErrMalformedEvent):
		return http.StatusBadRequest, "malformed event"
	case errors.Is(err, services.ErrMissingOrderID):
		return http.StatusBadRequest, "no order_id in session metadata"
	case errors.Is(err, services.ErrOrderNotFound):
		return http.StatusNotFound, "order not found"
	case errors.Is(err, services.ErrInvalidTransition):
		return http.StatusConflict, "order can not be marked as paid"
	default:
		return http.StatusInternalServerError, "webhook processing failed"
	}
}

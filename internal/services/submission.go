package services

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"memorial-storefront/internal/metrics"
	"memorial-storefront/internal/models"
)

// isoTimestamp matches the millisecond UTC form the order functions store.
const isoTimestamp = "2006-01-02T15:04:05.000Z"

type PhotoUploader interface {
	UploadPhoto(ctx context.Context, folder string, file models.PhotoFile) (string, error)
}

type OrderCreator interface {
	CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.CreateOrderResponse, error)
}

type CheckoutCreator interface {
	CreateCheckoutSession(ctx context.Context, req models.CreateCheckoutSessionRequest) (*models.CheckoutSessionResponse, error)
}

type OrderCanceller interface {
	CancelOrder(ctx context.Context, orderID string) error
}

// SubmissionPipeline turns a validated wizard composite into an order and a
// checkout session: photos are uploaded, then the order is created, then
// checkout is started. Each stage runs only after the previous one succeeded.
type SubmissionPipeline struct {
	uploader    PhotoUploader
	orders      OrderCreator
	checkout    CheckoutCreator
	canceller   OrderCanceller
	photoFolder string
	successURL  string
	cancelURL   string
}

func NewSubmissionPipeline(uploader PhotoUploader, orders OrderCreator, checkout CheckoutCreator, canceller OrderCanceller, photoFolder, successURL, cancelURL string) *SubmissionPipeline {
	return &SubmissionPipeline{
		uploader:    uploader,
		orders:      orders,
		checkout:    checkout,
		canceller:   canceller,
		photoFolder: photoFolder,
		successURL:  successURL,
		cancelURL:   cancelURL,
	}
}

func (p *SubmissionPipeline) Submit(ctx context.Context, state models.CompositeState) (*models.SubmissionResult, error) {
	result, err := p.submit(ctx, state)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}
	metrics.SubmissionsTotal.WithLabelValues("succeeded").Inc()
	return result, nil
}

func (p *SubmissionPipeline) submit(ctx context.Context, state models.CompositeState) (*models.SubmissionResult, error) {
	photoURLs, err := p.uploadPhotos(ctx, state.MemorialInfo.Photos)
	if err != nil {
		return nil, err
	}

	created, err := p.orders.CreateOrder(ctx, BuildOrderRequest(state, photoURLs))
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	order := created.Order

	logger := log.WithField("order_id", order.ID)
	logger.Info("order created for submission")

	session, err := p.checkout.CreateCheckoutSession(ctx, models.CreateCheckoutSessionRequest{
		OrderID:    order.ID,
		Email:      state.Email.Email,
		OrderTotal: order.Total,
		SuccessURL: p.successURL,
		CancelURL:  p.cancelURL,
	})
	if err != nil {
		p.cancel(ctx, order.ID)
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &models.SubmissionResult{
		OrderID:           order.ID,
		CheckoutSessionID: session.SessionID,
		CheckoutURL:       session.URL,
	}, nil
}

// uploadPhotos uploads one photo at a time, in order.
func (p *SubmissionPipeline) uploadPhotos(ctx context.Context, photos []models.Photo) ([]string, error) {
	urls := make([]string, 0, len(photos))
	for _, photo := range photos {
		if photo.File == nil || len(photo.File.Data) == 0 {
			return nil, fmt.Errorf("photo %s has no file data", photo.ID)
		}
		url, err := p.uploader.UploadPhoto(ctx, p.photoFolder, *photo.File)
		if err != nil {
			return nil, fmt.Errorf("failed to upload photos: %w", err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (p *SubmissionPipeline) cancel(ctx context.Context, orderID string) {
	if p.canceller == nil {
		return
	}
	if err := p.canceller.CancelOrder(context.WithoutCancel(ctx), orderID); err != nil {
		log.WithError(err).WithField("order_id", orderID).Error("failed to cancel order after checkout failure")
	}
}

// BuildOrderRequest shapes the composite into the create-order request, with
// dates as ISO-8601 UTC strings and photos as uploaded URLs.
func BuildOrderRequest(state models.CompositeState, photoURLs []string) models.CreateOrderRequest {
	info := state.MemorialInfo
	memorial := models.OrderMemorialInfo{
		FullName: info.FullName,
		DOB:      formatDate(info.DOB),
		DOP:      formatDate(info.DOP),
		Photos:   photoURLs,
	}
	if dom := formatDate(info.DOM); dom != nil {
		memorial.DOM = *dom
	}

	return models.CreateOrderRequest{
		Email: state.Email.Email,
		FormData: models.OrderFormData{
			MemorialInfo: memorial,
			MemorialKit:  state.MemorialKit,
			Theme:        state.Theme,
			Format:       state.Format,
		},
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(isoTimestamp)
	return &s
}

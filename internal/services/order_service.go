package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"memorial-storefront/internal/metrics"
	"memorial-storefront/internal/models"
	"memorial-storefront/internal/supabase"
	"memorial-storefront/internal/validation"
)

var (
	// ErrProductNotFound means a cart item names a product that does not
	// exist. No order is written when it is returned.
	ErrProductNotFound   = errors.New("product not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid order status transition")
)

// OrderStore is the persistence the order service needs. Both the PostgREST
// client and the SQL client satisfy it.
type OrderStore interface {
	CreateOrder(ctx context.Context, input models.OrderInput) (*models.Order, error)
	CreateOrderItems(ctx context.Context, inputs []models.OrderItemInput) ([]models.OrderItem, error)
	GetProductTypeID(ctx context.Context, productID string) (string, error)
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	ListOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error
}

// TxOrderStore can write an order together with its items atomically.
type TxOrderStore interface {
	OrderStore
	CreateOrderWithItems(ctx context.Context, order models.OrderInput, items []models.OrderItemInput) (*models.Order, []models.OrderItem, error)
}

type OrderService struct {
	store     OrderStore
	validator *validation.Validator
}

func NewOrderService(store OrderStore, validator *validation.Validator) *OrderService {
	return &OrderService{store: store, validator: validator}
}

// CreateOrder persists a PENDING order with one item per cart item. The order
// total is the sum of the item totals.
func (s *OrderService) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.CreateOrderResponse, error) {
	fields, err := s.validator.ValidateOrderRequest(req)
	if err != nil {
		return nil, err
	}
	if !fields.Valid() {
		return nil, &validation.Error{Fields: fields}
	}

	cartItems := req.FormData.MemorialKit.CartItems
	typeIDs, err := s.resolveProductTypes(ctx, cartItems)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, item := range cartItems {
		total = total.Add(item.TotalPrice)
	}

	memorialInfo := req.FormData.MemorialInfo
	orderInput := models.OrderInput{
		Email:     req.Email,
		ProfileID: req.ProfileID,
		Status:    models.OrderStatusPending,
		Total:     total,
		Metadata: models.OrderMetadata{
			SelectedThemeID:  req.FormData.Theme.SelectedThemeID,
			SelectedFormatID: req.FormData.Format.SelectedFormatID,
			MemorialInfo:     &memorialInfo,
		},
	}

	itemInputs := make([]models.OrderItemInput, 0, len(cartItems))
	for _, item := range cartItems {
		itemInputs = append(itemInputs, models.OrderItemInput{
			ProductID:       item.ProductID,
			ProductTypeID:   typeIDs[item.ProductID],
			ProductFormatID: req.FormData.Format.SelectedFormatID,
			ProductSizeID:   item.SizeID(),
			ProductFinishID: item.FinishID(),
			ProductThemeID:  req.FormData.Theme.SelectedThemeID,
			Quantity:        item.Quantity,
			Total:           item.TotalPrice,
			Metadata: models.OrderItemMetadata{
				FullName:     memorialInfo.FullName,
				DOB:          memorialInfo.DOB,
				DOP:          memorialInfo.DOP,
				DOM:          memorialInfo.DOM,
				Photos:       photoURLs(memorialInfo.Photos),
				Text:         item.Text,
				CustomText:   item.CustomText,
				PresetTextID: item.PresetTextID,
				ProductName:  item.ProductName,
				ProductImage: item.ProductImage,
			},
		})
	}

	order, items, err := s.persist(ctx, orderInput, itemInputs)
	if err != nil {
		return nil, err
	}

	metrics.OrdersTotal.WithLabelValues(string(models.OrderStatusPending)).Inc()
	metrics.OrderAmount.Observe(order.Total.InexactFloat64())

	log.WithFields(log.Fields{
		"order_id": order.ID,
		"items":    len(items),
		"total":    order.Total.String(),
	}).Info("order created")

	return &models.CreateOrderResponse{Order: *order, OrderItems: items}, nil
}

// resolveProductTypes looks up each distinct product's type before anything
// is written.
func (s *OrderService) resolveProductTypes(ctx context.Context, items []models.CartItem) (map[string]string, error) {
	typeIDs := make(map[string]string, len(items))
	for _, item := range items {
		if _, ok := typeIDs[item.ProductID]; ok {
			continue
		}
		// Ids are UUID columns; anything else can not name a product.
		if _, err := uuid.Parse(item.ProductID); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, item.ProductID)
		}
		typeID, err := s.store.GetProductTypeID(ctx, item.ProductID)
		if errors.Is(err, supabase.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, item.ProductID)
		}
		if err != nil {
			return nil, err
		}
		typeIDs[item.ProductID] = typeID
	}
	return typeIDs, nil
}

func (s *OrderService) persist(ctx context.Context, orderInput models.OrderInput, itemInputs []models.OrderItemInput) (*models.Order, []models.OrderItem, error) {
	if tx, ok := s.store.(TxOrderStore); ok {
		return tx.CreateOrderWithItems(ctx, orderInput, itemInputs)
	}

	order, err := s.store.CreateOrder(ctx, orderInput)
	if err != nil {
		return nil, nil, err
	}

	for i := range itemInputs {
		itemInputs[i].OrderID = order.ID
	}
	items, err := s.store.CreateOrderItems(ctx, itemInputs)
	if err != nil {
		// Without a transaction the order row stays behind; mark it so it is
		// never paid for.
		if cancelErr := s.store.UpdateOrderStatus(context.WithoutCancel(ctx), order.ID, models.OrderStatusCancelled); cancelErr != nil {
			log.WithError(cancelErr).WithField("order_id", order.ID).Error("failed to cancel order without items")
		}
		return nil, nil, err
	}
	return order, items, nil
}

// CancelOrder moves a PENDING order to CANCELLED.
func (s *OrderService) CancelOrder(ctx context.Context, orderID string) error {
	if _, err := uuid.Parse(orderID); err != nil {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	order, err := s.store.GetOrder(ctx, orderID)
	if errors.Is(err, supabase.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	if err != nil {
		return err
	}
	if !order.Status.CanTransitionTo(models.OrderStatusCancelled) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, order.Status, models.OrderStatusCancelled)
	}

	if err := s.store.UpdateOrderStatus(ctx, orderID, models.OrderStatusCancelled); err != nil {
		return err
	}
	metrics.OrdersTotal.WithLabelValues(string(models.OrderStatusCancelled)).Inc()
	log.WithField("order_id", orderID).Warn("order cancelled")
	return nil
}

// GetOrder returns an order with its items.
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*models.OrderDetailResponse, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}

	var (
		order *models.Order
		items []models.OrderItem
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		order, err = s.store.GetOrder(gctx, orderID)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = s.store.ListOrderItems(gctx, orderID)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		return nil, err
	}

	return &models.OrderDetailResponse{Order: *order, Items: items}, nil
}

func photoURLs(photos []string) []string {
	if photos == nil {
		return []string{}
	}
	return photos
}

package services_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	"memorial-storefront/internal/models"
	"memorial-storefront/internal/payment"
)

type MockOrderStore struct {
	mock.Mock
}

func (m *MockOrderStore) CreateOrder(ctx context.Context, input models.OrderInput) (*models.Order, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderStore) CreateOrderItems(ctx context.Context, inputs []models.OrderItemInput) ([]models.OrderItem, error) {
	args := m.Called(ctx, inputs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OrderItem), args.Error(1)
}

func (m *MockOrderStore) GetProductTypeID(ctx context.Context, productID string) (string, error) {
	args := m.Called(ctx, productID)
	return args.String(0), args.Error(1)
}

func (m *MockOrderStore) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderStore) ListOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OrderItem), args.Error(1)
}

func (m *MockOrderStore) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

type MockTxOrderStore struct {
	MockOrderStore
}

func (m *MockTxOrderStore) CreateOrderWithItems(ctx context.Context, order models.OrderInput, items []models.OrderItemInput) (*models.Order, []models.OrderItem, error) {
	args := m.Called(ctx, order, items)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.Order), args.Get(1).([]models.OrderItem), args.Error(2)
}

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) CreateCheckoutSession(ctx context.Context, params payment.CheckoutParams) (*payment.CheckoutSession, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.CheckoutSession), args.Error(1)
}

func (m *MockProvider) ParseWebhook(payload []byte, signatureHeader string) (*payment.Event, error) {
	args := m.Called(payload, signatureHeader)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Event), args.Error(1)
}

type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) UploadPhoto(ctx context.Context, folder string, file models.PhotoFile) (string, error) {
	args := m.Called(ctx, folder, file)
	return args.String(0), args.Error(1)
}

type MockOrderCreator struct {
	mock.Mock
}

func (m *MockOrderCreator) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.CreateOrderResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CreateOrderResponse), args.Error(1)
}

type MockCheckoutCreator struct {
	mock.Mock
}

func (m *MockCheckoutCreator) CreateCheckoutSession(ctx context.Context, req models.CreateCheckoutSessionRequest) (*models.CheckoutSessionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CheckoutSessionResponse), args.Error(1)
}

type MockCanceller struct {
	mock.Mock
}

func (m *MockCanceller) CancelOrder(ctx context.Context, orderID string) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

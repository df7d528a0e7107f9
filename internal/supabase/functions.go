package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"memorial-storefront/internal/metrics"
	"memorial-storefront/internal/models"
)

const functionsService = "memorial-storefront"

// FunctionsClient calls the create-order and create-checkout-session edge
// functions. Each function has its own circuit breaker.
type FunctionsClient struct {
	http            *resty.Client
	baseURL         string
	orderCircuit    *metrics.CircuitBreaker
	checkoutCircuit *metrics.CircuitBreaker
}

func NewFunctionsClient(baseURL, key string, timeout time.Duration) *FunctionsClient {
	return &FunctionsClient{
		http: resty.New().
			SetTimeout(timeout).
			SetRetryCount(0).
			SetAuthToken(key).
			SetHeader("apikey", key),
		baseURL:         strings.TrimSuffix(baseURL, "/"),
		orderCircuit:    metrics.NewCircuitBreaker("CreateOrder", functionsService),
		checkoutCircuit: metrics.NewCircuitBreaker("CreateCheckoutSession", functionsService),
	}
}

type functionError struct {
	Error string `json:"error"`
}

func (f *FunctionsClient) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.CreateOrderResponse, error) {
	result, err := f.orderCircuit.Execute(func() (interface{}, error) {
		var out models.CreateOrderResponse
		if err := f.invoke(ctx, "create-order", req, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("create-order: %w", err)
	}
	return result.(*models.CreateOrderResponse), nil
}

func (f *FunctionsClient) CreateCheckoutSession(ctx context.Context, req models.CreateCheckoutSessionRequest) (*models.CheckoutSessionResponse, error) {
	result, err := f.checkoutCircuit.Execute(func() (interface{}, error) {
		var out models.CheckoutSessionResponse
		if err := f.invoke(ctx, "create-checkout-session", req, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("create-checkout-session: %w", err)
	}
	return result.(*models.CheckoutSessionResponse), nil
}

func (f *FunctionsClient) invoke(ctx context.Context, name string, body, out interface{}) error {
	resp, err := f.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(f.baseURL + "/" + name)
	if err != nil {
		return fmt.Errorf("HTTP error: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		var fe functionError
		if json.Unmarshal(resp.Body(), &fe) == nil && fe.Error != "" {
			return fmt.Errorf("function returned status %d: %s", resp.StatusCode(), fe.Error)
		}
		return fmt.Errorf("function returned status %d: %s", resp.StatusCode(), resp.String())
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

package supabase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"memorial-storefront/internal/models"
)

func TestFunctionsClient_CreateOrder(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"order":{"id":"o1","email":"a@b.com","status":"PENDING","total":40},"orderItems":[{"id":"i1","order_id":"o1","quantity":1,"total":40}]}`))
	}))
	defer server.Close()

	client := NewFunctionsClient(server.URL+"/functions/v1/", "anon-key", 5*time.Second)
	resp, err := client.CreateOrder(context.Background(), models.CreateOrderRequest{
		Email: "a@b.com",
		FormData: models.OrderFormData{
			Theme:  models.ThemeSelection{SelectedThemeID: "th1"},
			Format: models.FormatSelection{SelectedFormatID: "fm1"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "/functions/v1/create-order", gotPath)
	assert.Equal(t, "Bearer anon-key", gotAuth)
	assert.Equal(t, "a@b.com", gotBody["email"])
	assert.Equal(t, "o1", resp.Order.ID)
	require.Len(t, resp.OrderItems, 1)
	assert.True(t, resp.Order.Total.Equal(resp.OrderItems[0].Total))
}

func TestFunctionsClient_CreateCheckoutSession(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/create-checkout-session", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"sessionId":"cs_test_1","url":"https://checkout.stripe.com/c/pay/cs_test_1"}`))
	}))
	defer server.Close()

	client := NewFunctionsClient(server.URL, "anon-key", 5*time.Second)
	resp, err := client.CreateCheckoutSession(context.Background(), models.CreateCheckoutSessionRequest{
		OrderID:    "o1",
		Email:      "a@b.com",
		OrderTotal: decimal.RequireFromString("40.50"),
		SuccessURL: "https://shop.example/success",
		CancelURL:  "https://shop.example/cancel",
	})
	require.NoError(t, err)

	assert.Equal(t, "cs_test_1", resp.SessionID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", resp.URL)
	assert.Equal(t, "o1", gotBody["orderId"])
	assert.Equal(t, 40.5, gotBody["orderTotal"])
}

func TestFunctionsClient_ErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Invalid API Key provided"}`))
	}))
	defer server.Close()

	client := NewFunctionsClient(server.URL, "anon-key", 5*time.Second)
	_, err := client.CreateCheckoutSession(context.Background(), models.CreateCheckoutSessionRequest{OrderID: "o1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "Invalid API Key provided")
}

func TestFunctionsClient_OpensCircuitAfterRepeatedFailures(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	defer server.Close()

	client := NewFunctionsClient(server.URL, "anon-key", 5*time.Second)
	for i := 0; i < 3; i++ {
		_, err := client.CreateOrder(context.Background(), models.CreateOrderRequest{})
		require.Error(t, err)
	}

	_, err := client.CreateOrder(context.Background(), models.CreateOrderRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is open")
	assert.Equal(t, 3, calls)
}

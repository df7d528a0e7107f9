package models

import "time"

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type ValidationErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

type CreateOrderResponse struct {
	Order      Order       `json:"order"`
	OrderItems []OrderItem `json:"orderItems"`
}

type CheckoutSessionResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

type OrderDetailResponse struct {
	Order Order       `json:"order"`
	Items []OrderItem `json:"items"`
}

// Redacted strips the buyer's email and the memorial details from the
// order, leaving what a guest holding the order id may see.
func (d OrderDetailResponse) Redacted() OrderDetailResponse {
	out := OrderDetailResponse{Order: d.Order, Items: make([]OrderItem, len(d.Items))}
	out.Order.Email = ""
	out.Order.Metadata.MemorialInfo = nil
	for i, item := range d.Items {
		item.Metadata.FullName = ""
		item.Metadata.DOB = nil
		item.Metadata.DOP = nil
		item.Metadata.DOM = ""
		item.Metadata.Photos = []string{}
		item.Metadata.Text = ""
		item.Metadata.CustomText = ""
		out.Items[i] = item
	}
	return out
}

type OrderStatusResponse struct {
	OrderID   string      `json:"order_id"`
	Status    OrderStatus `json:"status"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// SubmissionResult is what a successful wizard submission hands back to the
// browser: the persisted order and where to send the customer to pay.
type SubmissionResult struct {
	OrderID           string `json:"order_id"`
	CheckoutSessionID string `json:"checkout_session_id"`
	CheckoutURL       string `json:"checkout_url"`
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateOrderRequest is the create-order contract. ProfileID is never read
// from the body; handlers set it from the authenticated user.
type CreateOrderRequest struct {
	Email     string        `json:"email"`
	ProfileID *string       `json:"-"`
	FormData  OrderFormData `json:"formData"`
}

type OrderFormData struct {
	MemorialInfo OrderMemorialInfo `json:"memorialInfo"`
	MemorialKit  MemorialKit       `json:"memorialKit"`
	Theme        ThemeSelection    `json:"theme"`
	Format       FormatSelection   `json:"format"`
}

// OrderMemorialInfo carries memorial details with dates as ISO-8601 strings
// and photos as public URLs.
type OrderMemorialInfo struct {
	FullName string   `json:"fullName"`
	DOB      *string  `json:"dob,omitempty"`
	DOP      *string  `json:"dop,omitempty"`
	DOM      string   `json:"dom"`
	Photos   []string `json:"photos"`
}

type CreateCheckoutSessionRequest struct {
	OrderID    string          `json:"orderId"`
	Email      string          `json:"email"`
	OrderTotal decimal.Decimal `json:"orderTotal"`
	SuccessURL string          `json:"successUrl"`
	CancelURL  string          `json:"cancelUrl"`
}

type MemorialInfoRequest struct {
	FullName string     `json:"fullName"`
	DOB      *time.Time `json:"dob"`
	DOP      *time.Time `json:"dop"`
	DOM      *time.Time `json:"dom"`
}

type AddCartItemRequest struct {
	ProductID    string `json:"productId" binding:"required"`
	SizeID       string `json:"sizeId"`
	FinishID     string `json:"finishId"`
	CustomText   string `json:"customText"`
	PresetTextID string `json:"presetTextId"`
}

type UpdateCartItemRequest struct {
	Quantity     *int    `json:"quantity"`
	CustomText   *string `json:"customText"`
	PresetTextID *string `json:"presetTextId"`
}

type CreateProfileRequest struct {
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"full_name"`
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

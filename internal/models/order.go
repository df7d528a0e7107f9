package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusPaid       OrderStatus = "PAID"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	// OrderStatusCancelled is only reached when checkout could not be started
	// for an order that was already persisted.
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:       {OrderStatusProcessing},
	OrderStatusProcessing: {OrderStatusCompleted},
}

// CanTransitionTo reports whether an order in status s may move to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusProcessing, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

type OrderMetadata struct {
	SelectedThemeID  string             `json:"selectedThemeId"`
	SelectedFormatID string             `json:"selectedFormatId"`
	MemorialInfo     *OrderMemorialInfo `json:"memorialInfo,omitempty"`
}

type OrderItemMetadata struct {
	FullName     string   `json:"fullName"`
	DOB          *string  `json:"dob,omitempty"`
	DOP          *string  `json:"dop,omitempty"`
	DOM          string   `json:"dom"`
	Photos       []string `json:"photos"`
	Text         string   `json:"text,omitempty"`
	CustomText   string   `json:"customText,omitempty"`
	PresetTextID string   `json:"presetTextId,omitempty"`
	ProductName  string   `json:"productName"`
	ProductImage string   `json:"productImage"`
}

type Order struct {
	ID        string          `json:"id"`
	Email     string          `json:"email"`
	ProfileID *string         `json:"profile_id"`
	Status    OrderStatus     `json:"status"`
	Total     decimal.Decimal `json:"total"`
	Metadata  OrderMetadata   `json:"metadata"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// OwnedBy reports whether the order belongs to the given profile, either by
// profile id or by the email it was placed with.
func (o Order) OwnedBy(profileID, email string) bool {
	if o.ProfileID != nil && profileID != "" && *o.ProfileID == profileID {
		return true
	}
	return email != "" && strings.EqualFold(o.Email, email)
}

type OrderItem struct {
	ID              string            `json:"id"`
	OrderID         string            `json:"order_id"`
	ProductID       string            `json:"product_id"`
	ProductTypeID   string            `json:"product_type_id"`
	ProductFormatID string            `json:"product_format_id"`
	ProductSizeID   *string           `json:"product_size_id"`
	ProductFinishID *string           `json:"product_finish_id"`
	ProductThemeID  string            `json:"product_theme_id"`
	Quantity        int               `json:"quantity"`
	Total           decimal.Decimal   `json:"total"`
	Metadata        OrderItemMetadata `json:"metadata"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// OrderInput is the insert payload for an order; ids and timestamps are
// assigned by the database.
type OrderInput struct {
	Email     string          `json:"email"`
	ProfileID *string         `json:"profile_id,omitempty"`
	Status    OrderStatus     `json:"status"`
	Total     decimal.Decimal `json:"total"`
	Metadata  OrderMetadata   `json:"metadata"`
}

type OrderItemInput struct {
	OrderID         string            `json:"order_id"`
	ProductID       string            `json:"product_id"`
	ProductTypeID   string            `json:"product_type_id"`
	ProductFormatID string            `json:"product_format_id"`
	ProductSizeID   *string           `json:"product_size_id,omitempty"`
	ProductFinishID *string           `json:"product_finish_id,omitempty"`
	ProductThemeID  string            `json:"product_theme_id"`
	Quantity        int               `json:"quantity"`
	Total           decimal.Decimal   `json:"total"`
	Metadata        OrderItemMetadata `json:"metadata"`
}

type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ProfileInput struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

type Review struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"order_id"`
	ProfileID string    `json:"profile_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type ReviewInput struct {
	OrderID   string `json:"order_id"`
	ProfileID string `json:"profile_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

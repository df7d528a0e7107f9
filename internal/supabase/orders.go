package supabase

import (
	"context"
	"fmt"
	"time"

	"memorial-storefront/internal/models"
)

const returnRepresentation = "representation"

// CreateOrder inserts an order and returns the stored row.
func (c *Client) CreateOrder(ctx context.Context, input models.OrderInput) (*models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var orders []models.Order
	if _, err := c.from("orders").Insert(input, false, "", returnRepresentation, "").ExecuteTo(&orders); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("failed to create order: no row returned")
	}
	return &orders[0], nil
}

// CreateOrderItems inserts the items in one request.
func (c *Client) CreateOrderItems(ctx context.Context, inputs []models.OrderItemInput) ([]models.OrderItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return []models.OrderItem{}, nil
	}

	items := []models.OrderItem{}
	if _, err := c.from("order_items").Insert(inputs, false, "", returnRepresentation, "").ExecuteTo(&items); err != nil {
		return nil, fmt.Errorf("failed to create order items: %w", err)
	}
	return items, nil
}

func (c *Client) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkID("order", orderID); err != nil {
		return nil, err
	}

	var orders []models.Order
	if _, err := c.from("orders").Select("*", "", false).Eq("id", orderID).Limit(1, "").ExecuteTo(&orders); err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", orderID, err)
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	return &orders[0], nil
}

func (c *Client) ListOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if checkID("order", orderID) != nil {
		return []models.OrderItem{}, nil
	}

	items := []models.OrderItem{}
	_, err := c.from("order_items").
		Select("*", "", false).
		Eq("order_id", orderID).
		Order("created_at", ascending).
		ExecuteTo(&items)
	if err != nil {
		return nil, fmt.Errorf("failed to list items for order %s: %w", orderID, err)
	}
	return items, nil
}

// ListOrdersByEmail returns a customer's orders, newest first.
func (c *Client) ListOrdersByEmail(ctx context.Context, email string) ([]models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	orders := []models.Order{}
	_, err := c.from("orders").
		Select("*", "", false).
		Eq("email", email).
		Order("created_at", nil).
		ExecuteTo(&orders)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateOrderStatus sets the status and bumps updated_at. It returns
// ErrNotFound when no order has the id.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkID("order", orderID); err != nil {
		return err
	}

	patch := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now().UTC().Format(time.RFC3339Nano),
	}

	var updated []models.Order
	if _, err := c.from("orders").Update(patch, returnRepresentation, "").Eq("id", orderID).ExecuteTo(&updated); err != nil {
		return fmt.Errorf("failed to update order %s: %w", orderID, err)
	}
	if len(updated) == 0 {
		return fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	return nil
}

func (c *Client) CreateProfile(ctx context.Context, input models.ProfileInput) (*models.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var profiles []models.Profile
	if _, err := c.from("profiles").Insert(input, true, "id", returnRepresentation, "").ExecuteTo(&profiles); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("failed to create profile: no row returned")
	}
	return &profiles[0], nil
}

func (c *Client) CreateReview(ctx context.Context, input models.ReviewInput) (*models.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var reviews []models.Review
	if _, err := c.from("reviews").Insert(input, false, "", returnRepresentation, "").ExecuteTo(&reviews); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	if len(reviews) == 0 {
		return nil, fmt.Errorf("failed to create review: no row returned")
	}
	return &reviews[0], nil
}

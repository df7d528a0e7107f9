package supabase

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"memorial-storefront/internal/models"
)

// DatabaseClient talks to the Supabase Postgres database directly. Unlike the
// PostgREST client it can write an order and its items in one transaction.
type DatabaseClient struct {
	db *sql.DB
}

// NewDatabaseClientFromDB wraps an open Postgres handle.
func NewDatabaseClientFromDB(db *sql.DB) *DatabaseClient {
	return &DatabaseClient{db: db}
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

const orderColumns = `id, email, profile_id, status, total, metadata, created_at, updated_at`

const orderItemColumns = `id, order_id, product_id, product_type_id, product_format_id, product_size_id,
	product_finish_id, product_theme_id, quantity, total, metadata, created_at, updated_at`

func scanOrder(row rowScanner) (*models.Order, error) {
	var order models.Order
	var metadata []byte
	err := row.Scan(
		&order.ID, &order.Email, &order.ProfileID, &order.Status,
		&order.Total, &metadata, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &order.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode order metadata: %w", err)
		}
	}
	return &order, nil
}

func scanOrderItem(row rowScanner) (*models.OrderItem, error) {
	var item models.OrderItem
	var metadata []byte
	err := row.Scan(
		&item.ID, &item.OrderID, &item.ProductID, &item.ProductTypeID, &item.ProductFormatID,
		&item.ProductSizeID, &item.ProductFinishID, &item.ProductThemeID,
		&item.Quantity, &item.Total, &metadata, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &item.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode order item metadata: %w", err)
		}
	}
	return &item, nil
}

func insertOrder(ctx context.Context, q queryer, input models.OrderInput) (*models.Order, error) {
	metadata, err := json.Marshal(input.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order metadata: %w", err)
	}

	order, err := scanOrder(q.QueryRowContext(ctx, `
		INSERT INTO orders (email, profile_id, status, total, metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+orderColumns,
		input.Email, input.ProfileID, input.Status, input.Total, string(metadata),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return order, nil
}

func insertOrderItem(ctx context.Context, q queryer, input models.OrderItemInput) (*models.OrderItem, error) {
	metadata, err := json.Marshal(input.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order item metadata: %w", err)
	}

	item, err := scanOrderItem(q.QueryRowContext(ctx, `
		INSERT INTO order_items (order_id, product_id, product_type_id, product_format_id, product_size_id,
			product_finish_id, product_theme_id, quantity, total, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+orderItemColumns,
		input.OrderID, input.ProductID, input.ProductTypeID, input.ProductFormatID, input.ProductSizeID,
		input.ProductFinishID, input.ProductThemeID, input.Quantity, input.Total, string(metadata),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create order item for product %s: %w", input.ProductID, err)
	}
	return item, nil
}

func (d *DatabaseClient) CreateOrder(ctx context.Context, input models.OrderInput) (*models.Order, error) {
	return insertOrder(ctx, d.db, input)
}

// CreateOrderItems inserts all items or none.
func (d *DatabaseClient) CreateOrderItems(ctx context.Context, inputs []models.OrderItemInput) ([]models.OrderItem, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	items := make([]models.OrderItem, 0, len(inputs))
	for _, input := range inputs {
		item, err := insertOrderItem(ctx, tx, input)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order items: %w", err)
	}
	return items, nil
}

// CreateOrderWithItems writes the order and every item in one transaction.
// The order id is filled into each item input.
func (d *DatabaseClient) CreateOrderWithItems(ctx context.Context, order models.OrderInput, inputs []models.OrderItemInput) (*models.Order, []models.OrderItem, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	created, err := insertOrder(ctx, tx, order)
	if err != nil {
		return nil, nil, err
	}

	items := make([]models.OrderItem, 0, len(inputs))
	for _, input := range inputs {
		input.OrderID = created.ID
		item, err := insertOrderItem(ctx, tx, input)
		if err != nil {
			return nil, nil, err
		}
		items = append(items, *item)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit order: %w", err)
	}
	return created, items, nil
}

func (d *DatabaseClient) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	if err := checkID("order", orderID); err != nil {
		return nil, err
	}
	order, err := scanOrder(d.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1
	`, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

func (d *DatabaseClient) ListOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	if checkID("order", orderID) != nil {
		return []models.OrderItem{}, nil
	}
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+orderItemColumns+`
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		item, err := scanOrderItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	return items, nil
}

func (d *DatabaseClient) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	if err := checkID("order", orderID); err != nil {
		return err
	}
	result, err := d.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, status, orderID)
	if err != nil {
		return fmt.Errorf("failed to update order %s: %w", orderID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update order %s: %w", orderID, err)
	}
	if affected == 0 {
		return fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	return nil
}

func (d *DatabaseClient) GetProductTypeID(ctx context.Context, productID string) (string, error) {
	if err := checkID("product", productID); err != nil {
		return "", err
	}
	var typeID string
	err := d.db.QueryRowContext(ctx, `SELECT product_type_id FROM products WHERE id = $1`, productID).Scan(&typeID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("product %s: %w", productID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get product type for %s: %w", productID, err)
	}
	return typeID, nil
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}

package supabase

import (
	"context"
	"fmt"
	"strings"

	"memorial-storefront/internal/models"
)

var productWithOptionsColumns = strings.Join([]string{
	"*",
	"product_type:product_types(*)",
	"product_formats:product_product_formats(product_format:product_formats(*))",
	"product_sizes:product_product_sizes(product_size:product_sizes(*))",
	"product_finishes:product_product_finishes(product_finish:product_finishes(*))",
	"product_themes:product_product_themes(product_theme:product_themes(*))",
	"preset_texts:product_preset_texts(preset_text:preset_texts(*))",
}, ",")

// productOptionsRow is a product as returned with its join tables. The outer
// fields shadow the flattened slices of the embedded Product while decoding.
type productOptionsRow struct {
	models.Product
	ProductFormats []struct {
		ProductFormat *models.ProductFormat `json:"product_format"`
	} `json:"product_formats"`
	ProductSizes []struct {
		ProductSize *models.ProductSize `json:"product_size"`
	} `json:"product_sizes"`
	ProductFinishes []struct {
		ProductFinish *models.ProductFinish `json:"product_finish"`
	} `json:"product_finishes"`
	ProductThemes []struct {
		ProductTheme *models.ProductTheme `json:"product_theme"`
	} `json:"product_themes"`
	PresetTexts []struct {
		PresetText *models.PresetText `json:"preset_text"`
	} `json:"preset_texts"`
}

func (r productOptionsRow) flatten() *models.Product {
	p := r.Product
	p.ProductFormats = []models.ProductFormat{}
	for _, j := range r.ProductFormats {
		if j.ProductFormat != nil {
			p.ProductFormats = append(p.ProductFormats, *j.ProductFormat)
		}
	}
	p.ProductSizes = []models.ProductSize{}
	for _, j := range r.ProductSizes {
		if j.ProductSize != nil {
			p.ProductSizes = append(p.ProductSizes, *j.ProductSize)
		}
	}
	p.ProductFinishes = []models.ProductFinish{}
	for _, j := range r.ProductFinishes {
		if j.ProductFinish != nil {
			p.ProductFinishes = append(p.ProductFinishes, *j.ProductFinish)
		}
	}
	p.ProductThemes = []models.ProductTheme{}
	for _, j := range r.ProductThemes {
		if j.ProductTheme != nil {
			p.ProductThemes = append(p.ProductThemes, *j.ProductTheme)
		}
	}
	p.PresetTexts = []models.PresetText{}
	for _, j := range r.PresetTexts {
		if j.PresetText != nil {
			p.PresetTexts = append(p.PresetTexts, *j.PresetText)
		}
	}
	return &p
}

// ListProductTypes returns every product type ordered by name.
func (c *Client) ListProductTypes(ctx context.Context) ([]models.ProductType, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	types := []models.ProductType{}
	if _, err := c.from("product_types").Select("*", "", false).Order("name", ascending).ExecuteTo(&types); err != nil {
		return nil, fmt.Errorf("failed to list product types: %w", err)
	}
	return types, nil
}

// ListProductsByType returns the products of one type, with the type itself
// attached, ordered by name.
func (c *Client) ListProductsByType(ctx context.Context, typeID string) ([]models.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if checkID("product type", typeID) != nil {
		return []models.Product{}, nil
	}

	products := []models.Product{}
	_, err := c.from("products").
		Select("*, product_type:product_types(*)", "", false).
		Eq("product_type_id", typeID).
		Order("name", ascending).
		ExecuteTo(&products)
	if err != nil {
		return nil, fmt.Errorf("failed to list products for type %s: %w", typeID, err)
	}
	return products, nil
}

// GetProductWithOptions returns a product with every option it offers.
func (c *Client) GetProductWithOptions(ctx context.Context, productID string) (*models.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkID("product", productID); err != nil {
		return nil, err
	}

	var rows []productOptionsRow
	_, err := c.from("products").
		Select(productWithOptionsColumns, "", false).
		Eq("id", productID).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to get product %s: %w", productID, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("product %s: %w", productID, ErrNotFound)
	}
	return rows[0].flatten(), nil
}

// GetProductTypeID returns the type of a product.
func (c *Client) GetProductTypeID(ctx context.Context, productID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := checkID("product", productID); err != nil {
		return "", err
	}

	var rows []struct {
		ProductTypeID string `json:"product_type_id"`
	}
	_, err := c.from("products").
		Select("product_type_id", "", false).
		Eq("id", productID).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return "", fmt.Errorf("failed to get product type for %s: %w", productID, err)
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("product %s: %w", productID, ErrNotFound)
	}
	return rows[0].ProductTypeID, nil
}

func (c *Client) ListThemes(ctx context.Context) ([]models.ProductTheme, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	themes := []models.ProductTheme{}
	if _, err := c.from("product_themes").Select("*", "", false).Order("name", ascending).ExecuteTo(&themes); err != nil {
		return nil, fmt.Errorf("failed to list themes: %w", err)
	}
	return themes, nil
}

func (c *Client) ListFormats(ctx context.Context) ([]models.ProductFormat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	formats := []models.ProductFormat{}
	if _, err := c.from("product_formats").Select("*", "", false).Order("name", ascending).ExecuteTo(&formats); err != nil {
		return nil, fmt.Errorf("failed to list formats: %w", err)
	}
	return formats, nil
}

func (c *Client) GetTheme(ctx context.Context, themeID string) (*models.ProductTheme, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkID("theme", themeID); err != nil {
		return nil, err
	}

	var themes []models.ProductTheme
	if _, err := c.from("product_themes").Select("*", "", false).Eq("id", themeID).Limit(1, "").ExecuteTo(&themes); err != nil {
		return nil, fmt.Errorf("failed to get theme %s: %w", themeID, err)
	}
	if len(themes) == 0 {
		return nil, fmt.Errorf("theme %s: %w", themeID, ErrNotFound)
	}
	return &themes[0], nil
}

func (c *Client) GetFormat(ctx context.Context, formatID string) (*models.ProductFormat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkID("format", formatID); err != nil {
		return nil, err
	}

	var formats []models.ProductFormat
	if _, err := c.from("product_formats").Select("*", "", false).Eq("id", formatID).Limit(1, "").ExecuteTo(&formats); err != nil {
		return nil, fmt.Errorf("failed to get format %s: %w", formatID, err)
	}
	if len(formats) == 0 {
		return nil, fmt.Errorf("format %s: %w", formatID, ErrNotFound)
	}
	return &formats[0], nil
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices and totals travel as JSON numbers, matching the persisted numeric columns.
	decimal.MarshalJSONWithoutQuotes = true
}

type ProductType struct {
	ID          string    `json:"id"`
	MediaRefs   []string  `json:"media_refs"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ProductFormat struct {
	ID          string    `json:"id"`
	MediaRefs   []string  `json:"media_refs"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Features    []string  `json:"features"`
	CTAText     string    `json:"cta_text"`
	FooterText  string    `json:"footer_text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ProductSize struct {
	ID              string          `json:"id"`
	Width           float64         `json:"width"`
	Height          float64         `json:"height"`
	Label           string          `json:"label,omitempty"`
	PriceAdjustment decimal.Decimal `json:"price_adjustment"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type ProductFinish struct {
	ID              string          `json:"id"`
	MediaRefs       []string        `json:"media_refs"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	PriceAdjustment decimal.Decimal `json:"price_adjustment"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type ProductTheme struct {
	ID              string          `json:"id"`
	MediaRefs       []string        `json:"media_refs"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	PriceAdjustment decimal.Decimal `json:"price_adjustment"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type PresetText struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Product is a purchasable item. The relation slices are only populated by
// lookups that request them.
type Product struct {
	ID            string          `json:"id"`
	MediaRefs     []string        `json:"media_refs"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	ProductTypeID string          `json:"product_type_id"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	ProductType     *ProductType    `json:"product_type,omitempty"`
	ProductFormats  []ProductFormat `json:"product_formats,omitempty"`
	ProductSizes    []ProductSize   `json:"product_sizes,omitempty"`
	ProductFinishes []ProductFinish `json:"product_finishes,omitempty"`
	ProductThemes   []ProductTheme  `json:"product_themes,omitempty"`
	PresetTexts     []PresetText    `json:"preset_texts,omitempty"`
}

// FirstImage returns the product's primary media reference, or "".
func (p Product) FirstImage() string {
	if len(p.MediaRefs) == 0 {
		return ""
	}
	return p.MediaRefs[0]
}

func (p Product) FindSize(id string) (*ProductSize, bool) {
	for i := range p.ProductSizes {
		if p.ProductSizes[i].ID == id {
			return &p.ProductSizes[i], true
		}
	}
	return nil, false
}

func (p Product) FindFinish(id string) (*ProductFinish, bool) {
	for i := range p.ProductFinishes {
		if p.ProductFinishes[i].ID == id {
			return &p.ProductFinishes[i], true
		}
	}
	return nil, false
}

func (p Product) FindPresetText(id string) (*PresetText, bool) {
	for i := range p.PresetTexts {
		if p.PresetTexts[i].ID == id {
			return &p.PresetTexts[i], true
		}
	}
	return nil, false
}

// ProductTypeWithProducts groups a product type with its products for the kit catalog.
type ProductTypeWithProducts struct {
	ProductType
	Products []Product `json:"products"`
}

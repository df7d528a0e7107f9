package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wizard form values. Each step binds one of these; CompositeState holds all
// five. The validate tags are read by the validation package.

type PhotoFile struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Data        []byte `json:"data,omitempty"`
}

type Photo struct {
	ID      string     `json:"id"`
	File    *PhotoFile `json:"file,omitempty"`
	Preview string     `json:"preview,omitempty"`
}

type MemorialInfo struct {
	FullName string     `json:"fullName" validate:"required"`
	DOB      *time.Time `json:"dob,omitempty"`
	DOP      *time.Time `json:"dop,omitempty"`
	DOM      *time.Time `json:"dom,omitempty" validate:"required"`
	Photos   []Photo    `json:"photos" validate:"min=1"`
}

type CartItem struct {
	ID           string          `json:"id" validate:"required"`
	ProductID    string          `json:"productId" validate:"required"`
	ProductName  string          `json:"productName"`
	ProductImage string          `json:"productImage"`
	Quantity     int             `json:"quantity" validate:"min=1"`
	Size         *ProductSize    `json:"size,omitempty"`
	Finish       *ProductFinish  `json:"finish,omitempty"`
	CustomText   string          `json:"customText,omitempty"`
	PresetTextID string          `json:"presetTextId,omitempty"`
	Text         string          `json:"text,omitempty"`
	BasePrice    decimal.Decimal `json:"basePrice"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
}

func (c CartItem) SizeID() *string {
	if c.Size == nil {
		return nil
	}
	return &c.Size.ID
}

func (c CartItem) FinishID() *string {
	if c.Finish == nil {
		return nil
	}
	return &c.Finish.ID
}

type MemorialKit struct {
	CartItems []CartItem `json:"cartItems" validate:"min=1,dive"`
}

type ThemeSelection struct {
	SelectedThemeID string `json:"selectedThemeId" validate:"required"`
}

type FormatSelection struct {
	SelectedFormatID string `json:"selectedFormatId" validate:"required"`
}

type ContactEmail struct {
	Email string `json:"email" validate:"required,email"`
}

// CompositeState is the merged value of every wizard step.
type CompositeState struct {
	MemorialInfo MemorialInfo    `json:"memorialInfo"`
	MemorialKit  MemorialKit     `json:"memorialKit"`
	Theme        ThemeSelection  `json:"theme"`
	Format       FormatSelection `json:"format"`
	Email        ContactEmail    `json:"email"`
}

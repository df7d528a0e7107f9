package wizard

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"memorial-storefront/internal/models"
)

var (
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrInvalidOption    = errors.New("option is not offered for this product")
	ErrConflictingText  = errors.New("custom text and preset text can not both be set")
)

// NewCartItem prices a product with the chosen options. The total is the
// product price plus the size and finish adjustments, for a quantity of one.
func NewCartItem(id string, product models.Product, req models.AddCartItemRequest) (models.CartItem, error) {
	if req.CustomText != "" && req.PresetTextID != "" {
		return models.CartItem{}, ErrConflictingText
	}

	item := models.CartItem{
		ID:           id,
		ProductID:    product.ID,
		ProductName:  product.Name,
		ProductImage: product.FirstImage(),
		Quantity:     1,
		CustomText:   req.CustomText,
		BasePrice:    product.Price,
	}

	total := product.Price
	if req.SizeID != "" {
		size, ok := product.FindSize(req.SizeID)
		if !ok {
			return models.CartItem{}, fmt.Errorf("%w: size %s", ErrInvalidOption, req.SizeID)
		}
		item.Size = size
		total = total.Add(size.PriceAdjustment)
	}
	if req.FinishID != "" {
		finish, ok := product.FindFinish(req.FinishID)
		if !ok {
			return models.CartItem{}, fmt.Errorf("%w: finish %s", ErrInvalidOption, req.FinishID)
		}
		item.Finish = finish
		total = total.Add(finish.PriceAdjustment)
	}
	item.TotalPrice = total

	item.Text = req.CustomText
	if req.PresetTextID != "" {
		preset, ok := product.FindPresetText(req.PresetTextID)
		if !ok {
			return models.CartItem{}, fmt.Errorf("%w: preset text %s", ErrInvalidOption, req.PresetTextID)
		}
		item.PresetTextID = preset.ID
		item.Text = preset.Content
	}

	return item, nil
}

func AddToCart(kit *models.MemorialKit, item models.CartItem) {
	kit.CartItems = append(kit.CartItems, item)
}

// UpdateQuantity sets the quantity, floored at 1, and reprices the line as
// base price times quantity. Size and finish adjustments are not carried
// into the new total.
func UpdateQuantity(kit *models.MemorialKit, itemID string, quantity int) error {
	item, err := findItem(kit, itemID)
	if err != nil {
		return err
	}
	if quantity < 1 {
		quantity = 1
	}
	item.Quantity = quantity
	item.TotalPrice = item.BasePrice.Mul(decimal.NewFromInt(int64(quantity)))
	return nil
}

// SetCustomText replaces the item's text with free text and clears any preset.
func SetCustomText(kit *models.MemorialKit, itemID, text string) error {
	item, err := findItem(kit, itemID)
	if err != nil {
		return err
	}
	item.CustomText = text
	item.PresetTextID = ""
	item.Text = text
	return nil
}

// SetPresetText replaces the item's text with a preset and clears custom text.
func SetPresetText(kit *models.MemorialKit, itemID string, preset models.PresetText) error {
	item, err := findItem(kit, itemID)
	if err != nil {
		return err
	}
	item.PresetTextID = preset.ID
	item.CustomText = ""
	item.Text = preset.Content
	return nil
}

func RemoveFromCart(kit *models.MemorialKit, itemID string) error {
	for i := range kit.CartItems {
		if kit.CartItems[i].ID == itemID {
			items := make([]models.CartItem, 0, len(kit.CartItems)-1)
			items = append(items, kit.CartItems[:i]...)
			kit.CartItems = append(items, kit.CartItems[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrCartItemNotFound, itemID)
}

// Subtotal sums the line totals.
func Subtotal(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.TotalPrice)
	}
	return total
}

func findItem(kit *models.MemorialKit, itemID string) (*models.CartItem, error) {
	for i := range kit.CartItems {
		if kit.CartItems[i].ID == itemID {
			return &kit.CartItems[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCartItemNotFound, itemID)
}

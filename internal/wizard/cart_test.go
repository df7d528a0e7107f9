package wizard_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"memorial-storefront/internal/models"
	"memorial-storefront/internal/wizard"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func candleProduct() models.Product {
	return models.Product{
		ID:        "p1",
		Name:      "Memorial Candle",
		MediaRefs: []string{"candle.jpg"},
		Price:     dec("30"),
		ProductSizes: []models.ProductSize{
			{ID: "s-large", Label: "Large", PriceAdjustment: dec("5")},
		},
		ProductFinishes: []models.ProductFinish{
			{ID: "f-gold", Name: "Gold", PriceAdjustment: dec("2.50")},
		},
		PresetTexts: []models.PresetText{
			{ID: "t1", Content: "Forever in our hearts"},
		},
	}
}

func TestNewCartItem_Pricing(t *testing.T) {
	item, err := wizard.NewCartItem("item-1", candleProduct(), models.AddCartItemRequest{
		ProductID: "p1",
		SizeID:    "s-large",
		FinishID:  "f-gold",
	})
	require.NoError(t, err)

	assert.Equal(t, "item-1", item.ID)
	assert.Equal(t, "Memorial Candle", item.ProductName)
	assert.Equal(t, "candle.jpg", item.ProductImage)
	assert.Equal(t, 1, item.Quantity)
	assert.True(t, item.BasePrice.Equal(dec("30")))
	assert.True(t, item.TotalPrice.Equal(dec("37.50")), "got %s", item.TotalPrice)
	require.NotNil(t, item.Size)
	assert.Equal(t, "s-large", item.Size.ID)
}

func TestNewCartItem_Text(t *testing.T) {
	item, err := wizard.NewCartItem("i", candleProduct(), models.AddCartItemRequest{CustomText: "Rest easy"})
	require.NoError(t, err)
	assert.Equal(t, "Rest easy", item.Text)
	assert.Empty(t, item.PresetTextID)

	item, err = wizard.NewCartItem("i", candleProduct(), models.AddCartItemRequest{PresetTextID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, "Forever in our hearts", item.Text)
	assert.Equal(t, "t1", item.PresetTextID)

	_, err = wizard.NewCartItem("i", candleProduct(), models.AddCartItemRequest{CustomText: "x", PresetTextID: "t1"})
	assert.ErrorIs(t, err, wizard.ErrConflictingText)
}

func TestNewCartItem_UnknownOption(t *testing.T) {
	_, err := wizard.NewCartItem("i", candleProduct(), models.AddCartItemRequest{SizeID: "s-tiny"})
	assert.ErrorIs(t, err, wizard.ErrInvalidOption)

	_, err = wizard.NewCartItem("i", candleProduct(), models.AddCartItemRequest{FinishID: "f-none"})
	assert.ErrorIs(t, err, wizard.ErrInvalidOption)

	_, err = wizard.NewCartItem("i", candleProduct(), models.AddCartItemRequest{PresetTextID: "t-none"})
	assert.ErrorIs(t, err, wizard.ErrInvalidOption)
}

func TestUpdateQuantity(t *testing.T) {
	item, err := wizard.NewCartItem("item-1", candleProduct(), models.AddCartItemRequest{SizeID: "s-large"})
	require.NoError(t, err)
	kit := models.MemorialKit{}
	wizard.AddToCart(&kit, item)

	tests := []struct {
		quantity  int
		wantQty   int
		wantTotal string
	}{
		{3, 3, "90"},
		{1, 1, "30"},
		{0, 1, "30"},
		{-4, 1, "30"},
	}

	for _, tt := range tests {
		require.NoError(t, wizard.UpdateQuantity(&kit, "item-1", tt.quantity))
		got := kit.CartItems[0]
		assert.Equal(t, tt.wantQty, got.Quantity)
		// Size and finish adjustments are dropped once the quantity changes.
		assert.True(t, got.TotalPrice.Equal(dec(tt.wantTotal)), "quantity %d: got %s", tt.quantity, got.TotalPrice)
		assert.True(t, got.TotalPrice.Equal(got.BasePrice.Mul(decimal.NewFromInt(int64(got.Quantity)))))
	}

	assert.ErrorIs(t, wizard.UpdateQuantity(&kit, "missing", 2), wizard.ErrCartItemNotFound)
}

func TestTextIsMutuallyExclusive(t *testing.T) {
	kit := models.MemorialKit{}
	item, err := wizard.NewCartItem("item-1", candleProduct(), models.AddCartItemRequest{CustomText: "Hello"})
	require.NoError(t, err)
	wizard.AddToCart(&kit, item)

	require.NoError(t, wizard.SetPresetText(&kit, "item-1", models.PresetText{ID: "t1", Content: "Forever"}))
	assert.Equal(t, "", kit.CartItems[0].CustomText)
	assert.Equal(t, "t1", kit.CartItems[0].PresetTextID)
	assert.Equal(t, "Forever", kit.CartItems[0].Text)

	require.NoError(t, wizard.SetCustomText(&kit, "item-1", "Goodbye"))
	assert.Equal(t, "Goodbye", kit.CartItems[0].CustomText)
	assert.Equal(t, "", kit.CartItems[0].PresetTextID)
	assert.Equal(t, "Goodbye", kit.CartItems[0].Text)
}

func TestRemoveFromCartAndSubtotal(t *testing.T) {
	kit := models.MemorialKit{}
	for _, id := range []string{"a", "b", "c"} {
		item, err := wizard.NewCartItem(id, candleProduct(), models.AddCartItemRequest{})
		require.NoError(t, err)
		wizard.AddToCart(&kit, item)
	}
	assert.True(t, wizard.Subtotal(kit.CartItems).Equal(dec("90")))

	require.NoError(t, wizard.RemoveFromCart(&kit, "b"))
	require.Len(t, kit.CartItems, 2)
	assert.Equal(t, "a", kit.CartItems[0].ID)
	assert.Equal(t, "c", kit.CartItems[1].ID)
	assert.True(t, wizard.Subtotal(kit.CartItems).Equal(dec("60")))

	assert.ErrorIs(t, wizard.RemoveFromCart(&kit, "b"), wizard.ErrCartItemNotFound)
	assert.True(t, wizard.Subtotal(nil).Equal(decimal.Zero))
}

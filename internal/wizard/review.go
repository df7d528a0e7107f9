package wizard

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"memorial-storefront/internal/models"
)

// ReviewSummary is what the review step shows before submission. The theme
// adjustment is part of the displayed total only; the order total is the sum
// of the cart lines.
type ReviewSummary struct {
	SessionID       string                `json:"session_id"`
	MemorialInfo    models.MemorialInfo   `json:"memorialInfo"`
	CartItems       []models.CartItem     `json:"cartItems"`
	Theme           *models.ProductTheme  `json:"theme,omitempty"`
	Format          *models.ProductFormat `json:"format,omitempty"`
	Email           string                `json:"email"`
	Subtotal        decimal.Decimal       `json:"subtotal"`
	ThemeAdjustment decimal.Decimal       `json:"themeAdjustment"`
	Total           decimal.Decimal       `json:"total"`
}

func (o *Orchestrator) Review(ctx context.Context, id string) (*ReviewSummary, error) {
	session, err := o.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	state := session.Redacted().State

	summary := &ReviewSummary{
		SessionID:       session.ID,
		MemorialInfo:    state.MemorialInfo,
		CartItems:       state.MemorialKit.CartItems,
		Email:           session.Drafts.Email.Email,
		Subtotal:        Subtotal(state.MemorialKit.CartItems),
		ThemeAdjustment: decimal.Zero,
	}

	g, gctx := errgroup.WithContext(ctx)
	if themeID := state.Theme.SelectedThemeID; themeID != "" {
		g.Go(func() error {
			theme, err := o.catalog.GetTheme(gctx, themeID)
			if err != nil {
				return fmt.Errorf("failed to load theme %s: %w", themeID, err)
			}
			summary.Theme = theme
			return nil
		})
	}
	if formatID := state.Format.SelectedFormatID; formatID != "" {
		g.Go(func() error {
			format, err := o.catalog.GetFormat(gctx, formatID)
			if err != nil {
				return fmt.Errorf("failed to load format %s: %w", formatID, err)
			}
			summary.Format = format
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if summary.Theme != nil {
		summary.ThemeAdjustment = summary.Theme.PriceAdjustment
	}
	summary.Total = summary.Subtotal.Add(summary.ThemeAdjustment)
	return summary, nil
}

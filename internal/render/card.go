package render

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"
	"strings"
	"time"

	"storefront-blocks-service/internal/block"
	"storefront-blocks-service/internal/domain"
	"storefront-blocks-service/internal/store"
)

// newProductWindow is how long a product counts as "New". A product created
// exactly this long ago is no longer new.
const newProductWindow = 30 * 24 * time.Hour

// cardView is the data handed to the card template. Everything conditional
// is decided here so the template stays declarative.
type cardView struct {
	Cfg     block.DisplayConfig
	Product domain.ProductSummary

	Thumbnail    string
	AspectClass  string
	ImageClasses string

	ShowSaleBadge     bool
	ShowDiscountBadge bool
	DiscountPercent   int
	IsNew             bool
	CustomBadge       template.HTML
	HasBadges         bool

	ShowRating  bool
	RatingValue string

	RegularPrice string
	SalePrice    string

	Description template.HTML

	ShowAddToCart bool
	AddToCartURL  string
}

// RenderCard renders one product's card fragment from a product summary and
// a display configuration. It reads no external state: two calls with the
// same inputs produce the same fragment.
func (r *Renderer) RenderCard(product domain.ProductSummary, cfg block.DisplayConfig) (template.HTML, error) {
	view := cardView{Cfg: cfg, Product: product}

	view.Thumbnail = r.opts.PlaceholderImageURL
	if product.ThumbnailURL != nil && *product.ThumbnailURL != "" {
		view.Thumbnail = *product.ThumbnailURL
	}

	view.AspectClass = strings.ReplaceAll(cfg.ImageAspectRatio, ":", "-")
	view.ImageClasses = "sb-card__image"
	if cfg.ImageHoverEffect != "" && cfg.ImageHoverEffect != "none" {
		view.ImageClasses += " hover-" + cfg.ImageHoverEffect
	}

	view.ShowSaleBadge = cfg.ShowSaleBadge && product.OnSale
	if cfg.ShowDiscount && product.OnSale && product.RegularPrice > 0 && product.SalePrice != nil {
		view.ShowDiscountBadge = true
		view.DiscountPercent = product.DiscountPercent()
	}
	if cfg.ShowNewBadge {
		view.IsNew = r.now().Sub(product.CreatedAt) < newProductWindow
	}
	if cfg.ShowCustomBadge && cfg.CustomBadgeText != "" {
		view.CustomBadge = template.HTML(r.sanitizer.Sanitize(cfg.CustomBadgeText))
	}
	view.HasBadges = view.ShowSaleBadge || view.ShowDiscountBadge || view.IsNew || view.CustomBadge != ""

	if cfg.ShowRating && product.AverageRating > 0 {
		view.ShowRating = true
		view.RatingValue = fmt.Sprintf("%.1f", product.AverageRating)
	}

	if cfg.ShowPrice {
		view.RegularPrice = r.price(product.RegularPrice)
		if product.OnSale && product.SalePrice != nil {
			view.SalePrice = r.price(*product.SalePrice)
		}
	}

	if cfg.ShowDescription && product.ShortDescription != nil && *product.ShortDescription != "" {
		trimmed := trimWords(*product.ShortDescription, 15)
		view.Description = template.HTML(r.sanitizer.Sanitize(trimmed))
	}

	if cfg.ShowAddToCart && product.Purchasable && product.InStock {
		view.ShowAddToCart = true
		view.AddToCartURL = fmt.Sprintf("%s?add-to-cart=%d", r.opts.CartURL, product.ID)
	}

	return r.execute("card", view)
}

// RenderCardBlock is the host-facing renderer for the single product card
// block type. Missing products and an unconfigured catalog degrade to
// placeholder fragments instead of failing the page.
func (r *Renderer) RenderCardBlock(ctx context.Context, attributes []byte) (template.HTML, error) {
	cfg, err := block.FromJSON(attributes)
	if err != nil {
		return "", err
	}

	if !r.configured() {
		return r.cardPlaceholder("error", "The product catalog is not configured."), nil
	}
	if cfg.ProductID == 0 {
		return r.cardPlaceholder("empty", "Select a product…"), nil
	}

	product, err := r.products.GetProductByID(ctx, cfg.ProductID)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			return r.cardPlaceholder("missing", fmt.Sprintf("Product not found (ID: %d).", cfg.ProductID)), nil
		}
		log.Printf("ERROR: RenderCardBlock catalog lookup for ID %d failed: %v", cfg.ProductID, err)
		return r.Notice("error", "The product catalog is currently unavailable."), nil
	}

	return r.RenderCard(*product, cfg)
}

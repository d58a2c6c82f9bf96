package domain

import (
	"time"
)

// ProductSummary is the read-only projection of a catalog entry used by the
// card and grid renderers. The catalog database is the source of truth; a
// summary is never written back.
type ProductSummary struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	Permalink        string    `json:"permalink"`
	ThumbnailURL     *string   `json:"thumbnail_url,omitempty"` // nil means the renderer substitutes the placeholder image
	RegularPrice     float64   `json:"regular_price"`
	SalePrice        *float64  `json:"sale_price,omitempty"`
	OnSale           bool      `json:"on_sale"`
	Purchasable      bool      `json:"purchasable"`
	InStock          bool      `json:"in_stock"`
	AverageRating    float64   `json:"average_rating"`
	RatingCount      int       `json:"rating_count"`
	ShortDescription *string   `json:"short_description,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// CurrentPrice is the price a shopper pays right now: the sale price while a
// sale is running, the regular price otherwise.
func (p *ProductSummary) CurrentPrice() float64 {
	if p.OnSale && p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.RegularPrice
}

// DiscountPercent returns the rounded integer discount of the running sale,
// or 0 when the product is not discounted or the regular price is zero.
func (p *ProductSummary) DiscountPercent() int {
	if !p.OnSale || p.SalePrice == nil || p.RegularPrice <= 0 {
		return 0
	}
	return int((p.RegularPrice-*p.SalePrice)/p.RegularPrice*100 + 0.5)
}

// Term is a taxonomy term (category or tag) a product can be filed under.
type Term struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Taxonomy     string `json:"taxonomy"`
	ProductCount int    `json:"product_count"`
}

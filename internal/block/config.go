// Package block holds the typed per-instance display configuration and the
// declarative descriptors the page-building host discovers blocks through.
package block

import (
	"encoding/json"
	"fmt"

	"storefront-blocks-service/internal/domain"
)

// Pagination modes a grid block can render.
const (
	PaginationNumbers  = "numbers"
	PaginationLoadMore = "loadmore"
	PaginationInfinite = "infinite"
	PaginationNone     = "none"
)

// DisplayConfig is the complete set of options a placed block instance
// carries. It is immutable once decoded: derivations (a new sort, merged
// filters, another page) are produced by the With*/Apply* methods, which
// return modified copies.
//
// Field names match the attribute names the host stores, so a config
// round-trips through the partial-refresh protocol unchanged.
type DisplayConfig struct {
	// Query
	QuerySource string  `json:"querySource" validate:"oneof=all category tag featured onsale manual"`
	ProductID   int64   `json:"productId,omitempty"` // single-card block
	ProductIDs  []int64 `json:"productIds,omitempty"`
	Categories  []int64 `json:"categories,omitempty"`
	Tags        []int64 `json:"tags,omitempty"`
	Featured    bool    `json:"featured,omitempty"`
	OnSale      bool    `json:"onSale,omitempty"`
	InStock     bool    `json:"inStock,omitempty"`
	PriceMin    float64 `json:"priceMin,omitempty" validate:"gte=0"`
	PriceMax    float64 `json:"priceMax,omitempty" validate:"gte=0"`
	MinRating   int     `json:"minRating,omitempty" validate:"gte=0,lte=4"`
	OrderBy     string  `json:"orderBy" validate:"oneof=date price popularity rating title"`
	Order       string  `json:"order" validate:"oneof=ASC DESC"`
	PerPage     int     `json:"perPage" validate:"gt=0,lte=100"`
	Paged       int     `json:"paged" validate:"gte=1"`

	// Layout (cosmetic only, never affects the query)
	Columns       int `json:"columns" validate:"gte=1,lte=6"`
	ColumnsTablet int `json:"columnsTablet" validate:"gte=1,lte=6"`
	ColumnsMobile int `json:"columnsMobile" validate:"gte=1,lte=4"`
	Gap           int `json:"gap" validate:"gte=0"`

	// Controls
	EnableFilters    bool   `json:"enableFilters,omitempty"`
	FilterCategories bool   `json:"filterCategories,omitempty"`
	FilterPrice      bool   `json:"filterPrice,omitempty"`
	FilterRating     bool   `json:"filterRating,omitempty"`
	FilterStock      bool   `json:"filterStock,omitempty"`
	EnableSorting    bool   `json:"enableSorting,omitempty"`
	PaginationMode   string `json:"paginationMode" validate:"oneof=numbers loadmore infinite none"`

	// Card content
	ShowImage       bool   `json:"showImage"`
	ShowTitle       bool   `json:"showTitle"`
	ShowPrice       bool   `json:"showPrice"`
	ShowRating      bool   `json:"showRating,omitempty"`
	ShowDescription bool   `json:"showDescription,omitempty"`
	ShowSaleBadge   bool   `json:"showSaleBadge"`
	ShowNewBadge    bool   `json:"showNewBadge,omitempty"`
	ShowDiscount    bool   `json:"showDiscountPercent,omitempty"`
	ShowCustomBadge bool   `json:"showCustomBadge,omitempty"`
	CustomBadgeText string `json:"customBadgeText,omitempty"`
	ShowAddToCart   bool   `json:"showAddToCart"`
	UseAjaxCart     bool   `json:"useAjaxCart"`

	// Card cosmetics
	ImageAspectRatio string `json:"imageAspectRatio,omitempty"`
	ImageHoverEffect string `json:"imageHoverEffect,omitempty"`
	CardPadding      int    `json:"cardPadding" validate:"gte=0"`
	CardBorderRadius int    `json:"cardBorderRadius" validate:"gte=0"`
	CardShadow       bool   `json:"cardShadow,omitempty"`
	CardHoverShadow  bool   `json:"cardHoverShadow,omitempty"`
}

// Defaults returns the configuration a freshly placed block starts with.
func Defaults() DisplayConfig {
	return DisplayConfig{
		QuerySource:      string(domain.QuerySourceAll),
		OrderBy:          string(domain.SortByDate),
		Order:            string(domain.SortDesc),
		PerPage:          12,
		Paged:            1,
		Columns:          4,
		ColumnsTablet:    3,
		ColumnsMobile:    2,
		Gap:              20,
		PaginationMode:   PaginationNumbers,
		ShowImage:        true,
		ShowTitle:        true,
		ShowPrice:        true,
		ShowSaleBadge:    true,
		ShowAddToCart:    true,
		UseAjaxCart:      true,
		ImageAspectRatio: "1:1",
		ImageHoverEffect: "none",
	}
}

// FromJSON decodes stored block attributes on top of the defaults, so
// attributes the host never persisted keep their default value.
func FromJSON(raw []byte) (DisplayConfig, error) {
	cfg := Defaults()
	if len(raw) == 0 {
		return cfg, nil
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return DisplayConfig{}, fmt.Errorf("block: decode attributes: %w", err)
	}
	if cfg.Paged < 1 {
		cfg.Paged = 1
	}
	return cfg, nil
}

// FilterSpec projects the query half of the configuration. The featured and
// onSale toggles promote the query source when it would otherwise be "all",
// matching how an editor combines them.
func (c DisplayConfig) FilterSpec() domain.FilterSpec {
	source := domain.QuerySource(c.QuerySource)
	if source == domain.QuerySourceAll {
		switch {
		case c.Featured:
			source = domain.QuerySourceFeatured
		case c.OnSale:
			source = domain.QuerySourceOnSale
		}
	}
	return domain.FilterSpec{
		Source:      source,
		CategoryIDs: c.Categories,
		TagIDs:      c.Tags,
		ProductIDs:  c.ProductIDs,
		PriceMin:    c.PriceMin,
		PriceMax:    c.PriceMax,
		InStockOnly: c.InStock,
		MinRating:   c.MinRating,
	}
}

// SortSpec projects the ordering half of the configuration.
func (c DisplayConfig) SortSpec() domain.SortSpec {
	return domain.SortSpec{
		Field:     domain.SortField(c.OrderBy),
		Direction: domain.SortDirection(c.Order),
	}
}

// PageRequest assembles the grid query this configuration currently asks for.
func (c DisplayConfig) PageRequest() domain.PageRequest {
	return domain.PageRequest{
		Filter:     c.FilterSpec(),
		Sort:       c.SortSpec(),
		PageSize:   c.PerPage,
		PageNumber: c.Paged,
	}
}

// WithSort returns a copy sorted by the given field and direction, reset to
// the first page.
func (c DisplayConfig) WithSort(field, direction string) DisplayConfig {
	c.OrderBy = field
	c.Order = direction
	c.Paged = 1
	return c
}

// WithPage returns a copy positioned at the given page.
func (c DisplayConfig) WithPage(page int) DisplayConfig {
	if page < 1 {
		page = 1
	}
	c.Paged = page
	return c
}

// FilterOverrides carries the partial filter state a refresh request merges
// onto an existing configuration. Nil fields are left untouched.
type FilterOverrides struct {
	Categories *[]int64 `json:"categories,omitempty"`
	PriceMin   *float64 `json:"priceMin,omitempty"`
	PriceMax   *float64 `json:"priceMax,omitempty"`
	Rating     *int     `json:"rating,omitempty"`
	Stock      *string  `json:"stock,omitempty"` // "instock" enables the stock filter
}

// ApplyFilters returns a copy with the overrides merged in, reset to the
// first page.
func (c DisplayConfig) ApplyFilters(o FilterOverrides) DisplayConfig {
	if o.Categories != nil {
		c.Categories = *o.Categories
	}
	if o.PriceMin != nil {
		c.PriceMin = *o.PriceMin
	}
	if o.PriceMax != nil {
		c.PriceMax = *o.PriceMax
	}
	if o.Rating != nil {
		c.MinRating = *o.Rating
	}
	if o.Stock != nil {
		c.InStock = *o.Stock == "instock"
	}
	c.Paged = 1
	return c
}

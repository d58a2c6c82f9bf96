// Package catalog turns declarative grid queries into pages of product
// summaries backed by the external catalog store.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"storefront-blocks-service/internal/domain"
	"storefront-blocks-service/internal/store"
)

// ErrInvalidPageSize is returned when a page is requested with a
// non-positive page size.
var ErrInvalidPageSize = errors.New("catalog: page size must be positive")

// Builder answers grid queries. It holds no state of its own; every call
// goes back to the catalog, which may change between requests.
type Builder struct {
	store store.CatalogStorer
}

// NewBuilder creates a Builder over the given catalog store.
func NewBuilder(cs store.CatalogStorer) *Builder {
	return &Builder{store: cs}
}

// BuildPage runs one grid query and returns the requested page.
//
// pageNumber is 1-based; values below 1 are clamped to 1. An out-of-range
// page yields empty Items without an error. TotalPages is always at least 1.
// A price range whose bounds are both nonzero with min > max is
// unsatisfiable and yields an empty page; protocol entry points reject such
// requests before they get here.
func (b *Builder) BuildPage(ctx context.Context, filter domain.FilterSpec, sort domain.SortSpec, pageSize, pageNumber int) (domain.GridResult, error) {
	if pageSize <= 0 {
		return domain.GridResult{}, ErrInvalidPageSize
	}
	if pageNumber < 1 {
		pageNumber = 1
	}

	if filter.PriceMin > 0 && filter.PriceMax > 0 && filter.PriceMin > filter.PriceMax {
		return domain.GridResult{Items: []domain.ProductSummary{}, CurrentPage: pageNumber, TotalPages: 1}, nil
	}

	if filter.Source == domain.QuerySourceManual && len(filter.ProductIDs) > 0 {
		return b.buildManualPage(ctx, filter, pageSize, pageNumber)
	}

	params := store.ListProductsParams{
		ProductFilters: filtersFrom(filter),
		SortBy:         string(sort.Field),
		SortOrder:      string(sort.Direction),
		Limit:          pageSize,
		Offset:         (pageNumber - 1) * pageSize,
	}

	items, totalCount, err := b.store.ListProducts(ctx, params)
	if err != nil {
		return domain.GridResult{}, fmt.Errorf("catalog: build page: %w", err)
	}

	return domain.GridResult{
		Items:       items,
		CurrentPage: pageNumber,
		TotalPages:  pageCount(totalCount, pageSize),
	}, nil
}

// buildManualPage serves the manual query source: exactly the listed ids in
// the caller-supplied order, sort ignored, unresolvable ids skipped. The
// non-taxonomy filters still apply.
func (b *Builder) buildManualPage(ctx context.Context, filter domain.FilterSpec, pageSize, pageNumber int) (domain.GridResult, error) {
	fetched, err := b.store.ListProductsByIDs(ctx, filter.ProductIDs, filtersFrom(filter))
	if err != nil {
		return domain.GridResult{}, fmt.Errorf("catalog: build manual page: %w", err)
	}

	byID := make(map[int64]domain.ProductSummary, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}
	ordered := make([]domain.ProductSummary, 0, len(fetched))
	for _, id := range filter.ProductIDs {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}

	totalPages := pageCount(len(ordered), pageSize)
	start := (pageNumber - 1) * pageSize
	if start > len(ordered) {
		start = len(ordered)
	}
	end := start + pageSize
	if end > len(ordered) {
		end = len(ordered)
	}

	return domain.GridResult{
		Items:       ordered[start:end],
		CurrentPage: pageNumber,
		TotalPages:  totalPages,
	}, nil
}

// filtersFrom maps a FilterSpec onto store predicates. The flag-based query
// sources become flag predicates; category and tag id sets are applied
// whenever non-empty, which makes them ANDed across taxonomies.
func filtersFrom(f domain.FilterSpec) store.ProductFilters {
	pf := store.ProductFilters{
		CategoryIDs: f.CategoryIDs,
		TagIDs:      f.TagIDs,
		Featured:    f.Source == domain.QuerySourceFeatured,
		OnSale:      f.Source == domain.QuerySourceOnSale,
		InStockOnly: f.InStockOnly,
	}
	if f.PriceMin > 0 {
		min := f.PriceMin
		pf.PriceMin = &min
	}
	if f.PriceMax > 0 {
		max := f.PriceMax
		pf.PriceMax = &max
	}
	if f.MinRating > 0 {
		rating := f.MinRating
		pf.MinRating = &rating
	}
	return pf
}

func pageCount(matches, pageSize int) int {
	pages := (matches + pageSize - 1) / pageSize
	if pages < 1 {
		return 1
	}
	return pages
}

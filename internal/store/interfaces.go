package store

import (
	"context"

	"storefront-blocks-service/internal/domain"
)

// ProductFilters holds the predicates of a product query. All active
// predicates are ANDed; within CategoryIDs (and within TagIDs) matching any
// one id is enough.
type ProductFilters struct {
	CategoryIDs []int64
	TagIDs      []int64
	Featured    bool
	OnSale      bool
	InStockOnly bool
	PriceMin    *float64 // against the current (sale-aware) price
	PriceMax    *float64
	MinRating   *int
}

// ListProductsParams holds parameters for listing products (for pagination,
// filtering, sorting).
type ListProductsParams struct {
	ProductFilters

	SortBy    string // "date", "price", "popularity", "rating", "title"
	SortOrder string // "asc" or "desc"
	Limit     int
	Offset    int
}

// CatalogStorer defines the read operations this service needs from the
// external product catalog.
type CatalogStorer interface {
	ListProducts(ctx context.Context, params ListProductsParams) ([]domain.ProductSummary, int, error) // Returns products and total match count
	// ListProductsByIDs fetches the given products, applying filters but no
	// ordering; callers that need the request order reorder the result.
	ListProductsByIDs(ctx context.Context, ids []int64, filters ProductFilters) ([]domain.ProductSummary, error)
	GetProductByID(ctx context.Context, id int64) (*domain.ProductSummary, error)
}

// TermStorer defines the taxonomy lookups used to populate the grid's
// filter controls.
type TermStorer interface {
	// ListCategoryTerms returns non-empty category terms, name ascending.
	ListCategoryTerms(ctx context.Context) ([]domain.Term, error)
}

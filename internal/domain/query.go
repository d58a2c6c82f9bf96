package domain

// QuerySource selects the base candidate set a grid query starts from.
type QuerySource string

const (
	QuerySourceAll      QuerySource = "all"
	QuerySourceCategory QuerySource = "category"
	QuerySourceTag      QuerySource = "tag"
	QuerySourceFeatured QuerySource = "featured"
	QuerySourceOnSale   QuerySource = "onsale"
	QuerySourceManual   QuerySource = "manual"
)

// SortField enumerates the product orderings a grid may request.
type SortField string

const (
	SortByDate       SortField = "date"
	SortByPrice      SortField = "price"
	SortByPopularity SortField = "popularity"
	SortByRating     SortField = "rating"
	SortByTitle      SortField = "title"
)

// SortDirection is ASC or DESC.
type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// FilterSpec is the declarative filter half of a grid query.
//
// CategoryIDs and TagIDs each match ANY of their ids (OR within one
// taxonomy); when both are set the two predicates are ANDed. PriceMin and
// PriceMax bound the current price; both zero means the price predicate is
// a no-op. MinRating of zero disables the rating predicate.
type FilterSpec struct {
	Source      QuerySource
	CategoryIDs []int64
	TagIDs      []int64
	ProductIDs  []int64 // manual mode only; order is significant
	PriceMin    float64
	PriceMax    float64
	InStockOnly bool
	MinRating   int
}

// SortSpec is the ordering half of a grid query.
type SortSpec struct {
	Field     SortField
	Direction SortDirection
}

// PageRequest is one grid query, constructed fresh per request.
type PageRequest struct {
	Filter     FilterSpec
	Sort       SortSpec
	PageSize   int
	PageNumber int // 1-based
}

// GridResult is one page of a grid query. It is produced fresh on every
// invocation; the catalog may change between requests.
type GridResult struct {
	Items       []ProductSummary
	CurrentPage int
	TotalPages  int // >= 1 even for an empty match set
}

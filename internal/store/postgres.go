package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/lib/pq"

	"storefront-blocks-service/internal/domain"
)

// Predefined errors for store operations
var (
	ErrProductNotFound    = errors.New("store: product not found")
	ErrCatalogUnavailable = errors.New("store: catalog unavailable")
)

// currentPriceExpr is the sale-aware price a shopper pays right now. Price
// filtering and price sorting both evaluate against it.
const currentPriceExpr = "(CASE WHEN on_sale AND sale_price IS NOT NULL THEN sale_price ELSE regular_price END)"

const productColumns = "id, title, permalink, thumbnail_url, regular_price, sale_price, on_sale, purchasable, in_stock, average_rating, rating_count, short_description, created_at"

// PostgresStore implements the CatalogStorer and TermStorer interfaces
// against the external catalog database. Every operation is read-only.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore instance.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// unavailable wraps a database failure so callers can detect the catalog
// being unreachable with errors.Is(err, ErrCatalogUnavailable).
func unavailable(op string, err error) error {
	return fmt.Errorf("store: %s: %w: %v", op, ErrCatalogUnavailable, err)
}

// buildProductWhere turns ProductFilters into WHERE clauses with positional
// args. Only published entries are ever candidates. Returns clauses, args and
// the next free arg position.
func buildProductWhere(f ProductFilters, argID int) ([]string, []interface{}, int) {
	whereClauses := []string{"published = TRUE"}
	var queryArgs []interface{}

	if len(f.CategoryIDs) > 0 {
		whereClauses = append(whereClauses, fmt.Sprintf(
			"id IN (SELECT product_id FROM catalog.product_terms WHERE taxonomy = 'category' AND term_id = ANY($%d))", argID))
		queryArgs = append(queryArgs, pq.Array(f.CategoryIDs))
		argID++
	}
	if len(f.TagIDs) > 0 {
		whereClauses = append(whereClauses, fmt.Sprintf(
			"id IN (SELECT product_id FROM catalog.product_terms WHERE taxonomy = 'tag' AND term_id = ANY($%d))", argID))
		queryArgs = append(queryArgs, pq.Array(f.TagIDs))
		argID++
	}
	if f.Featured {
		whereClauses = append(whereClauses, "featured = TRUE")
	}
	if f.OnSale {
		whereClauses = append(whereClauses, "on_sale = TRUE")
	}
	if f.InStockOnly {
		whereClauses = append(whereClauses, "in_stock = TRUE")
	}
	if f.PriceMin != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("%s >= $%d", currentPriceExpr, argID))
		queryArgs = append(queryArgs, *f.PriceMin)
		argID++
	}
	if f.PriceMax != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("%s <= $%d", currentPriceExpr, argID))
		queryArgs = append(queryArgs, *f.PriceMax)
		argID++
	}
	if f.MinRating != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("average_rating >= $%d", argID))
		queryArgs = append(queryArgs, *f.MinRating)
		argID++
	}

	return whereClauses, queryArgs, argID
}

// scanProduct scans one product row, normalizing nullable columns.
func scanProduct(scanner interface{ Scan(dest ...interface{}) error }) (domain.ProductSummary, error) {
	var p domain.ProductSummary
	var thumb, description sql.NullString
	var salePrice sql.NullFloat64

	err := scanner.Scan(
		&p.ID, &p.Title, &p.Permalink, &thumb, &p.RegularPrice, &salePrice,
		&p.OnSale, &p.Purchasable, &p.InStock, &p.AverageRating, &p.RatingCount,
		&description, &p.CreatedAt,
	)
	if err != nil {
		return domain.ProductSummary{}, err
	}

	if thumb.Valid && thumb.String != "" {
		p.ThumbnailURL = &thumb.String
	}
	if salePrice.Valid {
		p.SalePrice = &salePrice.Float64
	}
	if description.Valid && description.String != "" {
		p.ShortDescription = &description.String
	}
	return p, nil
}

// ListProducts retrieves a filtered, sorted page of products along with the
// total match count.
func (s *PostgresStore) ListProducts(ctx context.Context, params ListProductsParams) ([]domain.ProductSummary, int, error) {
	whereClauses, queryArgs, argID := buildProductWhere(params.ProductFilters, 1)
	whereCondition := " WHERE " + strings.Join(whereClauses, " AND ")

	countQuery := "SELECT COUNT(*) FROM catalog.products" + whereCondition
	var totalCount int
	if err := s.db.QueryRowContext(ctx, countQuery, queryArgs...).Scan(&totalCount); err != nil {
		return nil, 0, unavailable("ListProducts failed to count products", err)
	}

	if totalCount == 0 {
		return []domain.ProductSummary{}, 0, nil
	}

	sortColumn := "created_at" // Default sort
	allowedSortColumns := map[string]string{
		"date":       "created_at",
		"price":      currentPriceExpr,
		"popularity": "total_sales",
		"rating":     "average_rating",
		"title":      "title",
	}
	if col, ok := allowedSortColumns[strings.ToLower(params.SortBy)]; ok {
		sortColumn = col
	}

	sortOrder := "DESC" // Default order
	if strings.ToUpper(params.SortOrder) == "ASC" {
		sortOrder = "ASC"
	}

	// Equal sort keys tie-break by id ascending so identical queries return
	// identically ordered pages.
	dataQuery := fmt.Sprintf(
		"SELECT %s FROM catalog.products%s ORDER BY %s %s, id ASC LIMIT $%d OFFSET $%d",
		productColumns, whereCondition, sortColumn, sortOrder, argID, argID+1)

	finalQueryArgs := append(queryArgs, params.Limit, params.Offset)

	rows, err := s.db.QueryContext(ctx, dataQuery, finalQueryArgs...)
	if err != nil {
		return nil, 0, unavailable("ListProducts failed to query products", err)
	}
	defer rows.Close()

	products := make([]domain.ProductSummary, 0, params.Limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, unavailable("ListProducts failed to scan product row", err)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, unavailable("ListProducts iteration error", err)
	}

	return products, totalCount, nil
}

// ListProductsByIDs fetches the given products with filters applied. The
// result order is catalog-native; callers preserving a manual selection
// order reorder the slice themselves. Unknown ids are simply absent.
func (s *PostgresStore) ListProductsByIDs(ctx context.Context, ids []int64, filters ProductFilters) ([]domain.ProductSummary, error) {
	if len(ids) == 0 {
		return []domain.ProductSummary{}, nil
	}

	whereClauses, queryArgs, argID := buildProductWhere(filters, 1)
	whereClauses = append(whereClauses, fmt.Sprintf("id = ANY($%d)", argID))
	queryArgs = append(queryArgs, pq.Array(ids))

	query := fmt.Sprintf("SELECT %s FROM catalog.products WHERE %s",
		productColumns, strings.Join(whereClauses, " AND "))

	rows, err := s.db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, unavailable("ListProductsByIDs failed to query products", err)
	}
	defer rows.Close()

	products := make([]domain.ProductSummary, 0, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, unavailable("ListProductsByIDs failed to scan product row", err)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, unavailable("ListProductsByIDs iteration error", err)
	}

	return products, nil
}

func (s *PostgresStore) GetProductByID(ctx context.Context, id int64) (*domain.ProductSummary, error) {
	query := fmt.Sprintf("SELECT %s FROM catalog.products WHERE id = $1 AND published = TRUE", productColumns)

	p, err := scanProduct(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, unavailable("GetProductByID failed to scan row", err)
	}
	return &p, nil
}

// ListCategoryTerms returns the category terms offered by the grid's
// category filter control. Empty categories are hidden.
func (s *PostgresStore) ListCategoryTerms(ctx context.Context) ([]domain.Term, error) {
	query := `
		SELECT id, name, slug, taxonomy, product_count
		FROM catalog.terms
		WHERE taxonomy = 'category' AND product_count > 0
		ORDER BY name ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, unavailable("ListCategoryTerms failed to query terms", err)
	}
	defer rows.Close()

	var terms []domain.Term
	for rows.Next() {
		var t domain.Term
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.Taxonomy, &t.ProductCount); err != nil {
			return nil, unavailable("ListCategoryTerms failed to scan term row", err)
		}
		terms = append(terms, t)
	}
	if err = rows.Err(); err != nil {
		return nil, unavailable("ListCategoryTerms iteration error", err)
	}
	return terms, nil
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		log.Println("INFO: Closing catalog database connection pool...")
		err := s.db.Close()
		if err != nil {
			log.Printf("ERROR: Failed to close catalog database connection pool: %v", err)
			return err
		}
		log.Println("INFO: Catalog database connection pool closed successfully.")
		return nil
	}
	return nil
}

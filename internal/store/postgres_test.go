package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create a mock DB and PostgresStore for testing
func newMockDBAndStore(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresStore) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err, "Failed to create sqlmock")

	store := NewPostgresStore(db)
	require.NotNil(t, store, "Store should not be nil")

	return db, mock, store
}

// Helper function to get a pointer (useful for optional fields in domain structs)
func PtrTo[T any](v T) *T {
	return &v
}

var productRowColumns = []string{
	"id", "title", "permalink", "thumbnail_url", "regular_price", "sale_price",
	"on_sale", "purchasable", "in_stock", "average_rating", "rating_count",
	"short_description", "created_at",
}

func productRow(rows *sqlmock.Rows, id int64, title string, regular float64, sale interface{}, onSale bool, created time.Time) *sqlmock.Rows {
	return rows.AddRow(id, title, "/products/p", "https://img.example/p.jpg", regular, sale, onSale, true, true, 4.5, 10, "Short description", created)
}

func TestPostgresStore_ListProducts_NoFilters(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	now := time.Now().Truncate(time.Millisecond)

	countQuery := regexp.QuoteMeta("SELECT COUNT(*) FROM catalog.products WHERE published = TRUE")
	mock.ExpectQuery(countQuery).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	dataQuery := regexp.QuoteMeta("FROM catalog.products WHERE published = TRUE ORDER BY created_at DESC, id ASC LIMIT $1 OFFSET $2")
	rows := sqlmock.NewRows(productRowColumns)
	productRow(rows, 2, "Newer Product", 20, nil, false, now)
	productRow(rows, 1, "Older Product", 10, nil, false, now.Add(-time.Hour))
	mock.ExpectQuery(dataQuery).WithArgs(12, 0).WillReturnRows(rows)

	products, totalCount, err := store.ListProducts(context.Background(), ListProductsParams{Limit: 12, Offset: 0})

	require.NoError(t, err)
	assert.Equal(t, 2, totalCount)
	require.Len(t, products, 2)
	assert.Equal(t, int64(2), products[0].ID)
	assert.Equal(t, "Newer Product", products[0].Title)
	assert.Nil(t, products[0].SalePrice)
	require.NotNil(t, products[0].ThumbnailURL)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListProducts_AllFilters(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	params := ListProductsParams{
		ProductFilters: ProductFilters{
			CategoryIDs: []int64{4, 5},
			TagIDs:      []int64{9},
			Featured:    true,
			OnSale:      true,
			InStockOnly: true,
			PriceMin:    PtrTo(10.0),
			PriceMax:    PtrTo(50.0),
			MinRating:   PtrTo(3),
		},
		SortBy:    "price",
		SortOrder: "asc",
		Limit:     6,
		Offset:    6,
	}

	countQuery := regexp.QuoteMeta("SELECT COUNT(*) FROM catalog.products WHERE published = TRUE") +
		".*taxonomy = 'category' AND term_id = ANY\\(\\$1\\).*" +
		"taxonomy = 'tag' AND term_id = ANY\\(\\$2\\).*" +
		"featured = TRUE AND on_sale = TRUE AND in_stock = TRUE"
	mock.ExpectQuery(countQuery).
		WithArgs(pq.Array(params.CategoryIDs), pq.Array(params.TagIDs), 10.0, 50.0, 3).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	dataQuery := "ORDER BY \\(CASE WHEN on_sale AND sale_price IS NOT NULL THEN sale_price ELSE regular_price END\\) ASC, id ASC LIMIT \\$6 OFFSET \\$7"
	rows := sqlmock.NewRows(productRowColumns)
	productRow(rows, 7, "Filtered Product", 40, 35.0, true, time.Now())
	mock.ExpectQuery(dataQuery).
		WithArgs(pq.Array(params.CategoryIDs), pq.Array(params.TagIDs), 10.0, 50.0, 3, 6, 6).
		WillReturnRows(rows)

	products, totalCount, err := store.ListProducts(context.Background(), params)

	require.NoError(t, err)
	assert.Equal(t, 1, totalCount)
	require.Len(t, products, 1)
	assert.Equal(t, int64(7), products[0].ID)
	require.NotNil(t, products[0].SalePrice)
	assert.Equal(t, 35.0, *products[0].SalePrice)
	assert.True(t, products[0].OnSale)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListProducts_ZeroMatches(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	countQuery := regexp.QuoteMeta("SELECT COUNT(*) FROM catalog.products WHERE published = TRUE")
	mock.ExpectQuery(countQuery).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	products, totalCount, err := store.ListProducts(context.Background(), ListProductsParams{Limit: 12})

	require.NoError(t, err)
	assert.Equal(t, 0, totalCount)
	assert.Empty(t, products)

	// The data query is skipped entirely for an empty match set.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListProducts_UnknownSortFallsBackToDate(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	countQuery := regexp.QuoteMeta("SELECT COUNT(*) FROM catalog.products WHERE published = TRUE")
	mock.ExpectQuery(countQuery).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	dataQuery := regexp.QuoteMeta("ORDER BY created_at DESC, id ASC")
	rows := sqlmock.NewRows(productRowColumns)
	productRow(rows, 1, "Product", 10, nil, false, time.Now())
	mock.ExpectQuery(dataQuery).WithArgs(12, 0).WillReturnRows(rows)

	_, _, err := store.ListProducts(context.Background(), ListProductsParams{
		SortBy: "evil_column; DROP TABLE products", SortOrder: "sideways", Limit: 12,
	})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListProducts_DatabaseDown(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	countQuery := regexp.QuoteMeta("SELECT COUNT(*) FROM catalog.products")
	mock.ExpectQuery(countQuery).WillReturnError(errors.New("connection refused"))

	_, _, err := store.ListProducts(context.Background(), ListProductsParams{Limit: 12})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCatalogUnavailable), "Error should be ErrCatalogUnavailable")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListProductsByIDs(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	ids := []int64{7, 3, 9}

	query := "SELECT .+ FROM catalog.products WHERE published = TRUE AND id = ANY\\(\\$1\\)"
	rows := sqlmock.NewRows(productRowColumns)
	productRow(rows, 3, "Product Three", 10, nil, false, time.Now())
	productRow(rows, 7, "Product Seven", 20, nil, false, time.Now())
	mock.ExpectQuery(query).WithArgs(pq.Array(ids)).WillReturnRows(rows)

	products, err := store.ListProductsByIDs(context.Background(), ids, ProductFilters{})

	require.NoError(t, err)
	require.Len(t, products, 2) // id 9 does not resolve and is simply absent
	assert.Equal(t, int64(3), products[0].ID)
	assert.Equal(t, int64(7), products[1].ID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListProductsByIDs_EmptyInput(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	products, err := store.ListProductsByIDs(context.Background(), nil, ProductFilters{})

	require.NoError(t, err)
	assert.Empty(t, products)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetProductByID_Found(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	query := "SELECT .+ FROM catalog.products WHERE id = \\$1 AND published = TRUE"
	rows := sqlmock.NewRows(productRowColumns)
	productRow(rows, 42, "The Answer", 99.99, nil, false, time.Now())
	mock.ExpectQuery(query).WithArgs(int64(42)).WillReturnRows(rows)

	product, err := store.GetProductByID(context.Background(), 42)

	require.NoError(t, err)
	require.NotNil(t, product)
	assert.Equal(t, int64(42), product.ID)
	assert.Equal(t, "The Answer", product.Title)
	assert.Equal(t, 99.99, product.RegularPrice)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetProductByID_NotFound(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	query := "SELECT .+ FROM catalog.products WHERE id = \\$1 AND published = TRUE"
	mock.ExpectQuery(query).WithArgs(int64(404)).WillReturnError(sql.ErrNoRows)

	product, err := store.GetProductByID(context.Background(), 404)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProductNotFound), "Error should be ErrProductNotFound")
	assert.Nil(t, product)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListCategoryTerms(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	query := "SELECT id, name, slug, taxonomy, product_count\\s+FROM catalog.terms\\s+WHERE taxonomy = 'category' AND product_count > 0\\s+ORDER BY name ASC"
	rows := sqlmock.NewRows([]string{"id", "name", "slug", "taxonomy", "product_count"}).
		AddRow(1, "Accessories", "accessories", "category", 4).
		AddRow(2, "Shoes", "shoes", "category", 12)
	mock.ExpectQuery(query).WillReturnRows(rows)

	terms, err := store.ListCategoryTerms(context.Background())

	require.NoError(t, err)
	require.Len(t, terms, 2)
	assert.Equal(t, "Accessories", terms[0].Name)
	assert.Equal(t, 12, terms[1].ProductCount)

	require.NoError(t, mock.ExpectationsWereMet())
}

package render

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log"

	"storefront-blocks-service/internal/block"
	"storefront-blocks-service/internal/domain"
	"storefront-blocks-service/internal/store"
)

// GridFragments is the outcome of one grid render pass: the full block
// fragment and the bare item list. Both come from the same pass, so the
// load-more response never re-parses generated HTML.
type GridFragments struct {
	Full    template.HTML
	Items   template.HTML
	BlockID string
}

// sortOption is one entry of the grid's sort dropdown.
type sortOption struct {
	Value    string
	Label    string
	Selected bool
}

// The eight fixed field-direction combinations the sort dropdown offers.
var sortChoices = []struct {
	Field     domain.SortField
	Direction domain.SortDirection
	Label     string
}{
	{domain.SortByDate, domain.SortDesc, "Newest"},
	{domain.SortByDate, domain.SortAsc, "Oldest"},
	{domain.SortByPrice, domain.SortAsc, "Price: Low to High"},
	{domain.SortByPrice, domain.SortDesc, "Price: High to Low"},
	{domain.SortByPopularity, domain.SortDesc, "Popularity"},
	{domain.SortByRating, domain.SortDesc, "Rating"},
	{domain.SortByTitle, domain.SortAsc, "Name: A-Z"},
	{domain.SortByTitle, domain.SortDesc, "Name: Z-A"},
}

type itemView struct {
	ID   int64
	Card template.HTML
}

type pageLink struct {
	Number  int
	URL     string
	Current bool
}

type gridView struct {
	Cfg     block.DisplayConfig
	BlockID string

	GridStyles     template.CSS
	AttributesJSON string
	Nonce          string
	Infinite       bool

	ShowControls  bool
	SortOptions   []sortOption
	CategoryTerms []domain.Term

	ItemsHTML template.HTML

	ShowNumbers  bool
	PageLinks    []pageLink
	ShowLoadMore bool
	CurrentPage  int
	TotalPages   int
}

// RenderGrid runs the grid query and renders both the full block fragment
// and the items-only fragment in one pass. blockID identifies the block
// instance being refreshed; pass "" for a fresh page render and a new id is
// minted. A fresh anti-forgery token is embedded either way.
func (r *Renderer) RenderGrid(ctx context.Context, blockID string, cfg block.DisplayConfig, req domain.PageRequest) (GridFragments, error) {
	if !r.configured() {
		return GridFragments{}, ErrNotConfigured
	}

	result, err := r.builder.BuildPage(ctx, req.Filter, req.Sort, req.PageSize, req.PageNumber)
	if err != nil {
		return GridFragments{}, err
	}

	if blockID == "" {
		blockID = r.newID()
	}

	items := make([]itemView, 0, len(result.Items))
	for _, product := range result.Items {
		card, err := r.RenderCard(product, cfg)
		if err != nil {
			return GridFragments{}, err
		}
		items = append(items, itemView{ID: product.ID, Card: card})
	}

	var itemsHTML template.HTML
	if len(items) > 0 {
		itemsHTML, err = r.execute("items", items)
		if err != nil {
			return GridFragments{}, err
		}
	}

	view := gridView{
		Cfg:         cfg,
		BlockID:     blockID,
		ItemsHTML:   itemsHTML,
		CurrentPage: result.CurrentPage,
		TotalPages:  result.TotalPages,
		Infinite:    cfg.PaginationMode == block.PaginationInfinite,
	}

	view.GridStyles = template.CSS(fmt.Sprintf(
		"--sb-grid-columns: %d; --sb-grid-columns-tablet: %d; --sb-grid-columns-mobile: %d; --sb-grid-gap: %dpx; --sb-card-padding: %dpx; --sb-card-radius: %dpx;",
		cfg.Columns, cfg.ColumnsTablet, cfg.ColumnsMobile, cfg.Gap, cfg.CardPadding, cfg.CardBorderRadius))

	// The client echoes the current attributes back on every refresh, so the
	// fragment carries the configuration that produced it.
	attrs, err := json.Marshal(cfg)
	if err != nil {
		return GridFragments{}, fmt.Errorf("render: encode attributes: %w", err)
	}
	view.AttributesJSON = string(attrs)

	if r.tokens != nil {
		nonce, err := r.tokens.Issue(blockID)
		if err != nil {
			return GridFragments{}, err
		}
		view.Nonce = nonce
	}

	view.ShowControls = cfg.EnableSorting || cfg.EnableFilters
	if cfg.EnableSorting {
		view.SortOptions = buildSortOptions(cfg)
	}
	if cfg.EnableFilters && cfg.FilterCategories && r.terms != nil {
		terms, err := r.terms.ListCategoryTerms(ctx)
		if err != nil {
			// The grid is still useful without the category control.
			log.Printf("WARN: RenderGrid could not load category terms: %v", err)
		} else {
			view.CategoryTerms = terms
		}
	}

	switch cfg.PaginationMode {
	case block.PaginationNumbers:
		if result.TotalPages > 1 {
			view.ShowNumbers = true
			view.PageLinks = buildPageLinks(result.CurrentPage, result.TotalPages)
		}
	case block.PaginationLoadMore, block.PaginationInfinite:
		view.ShowLoadMore = result.TotalPages > result.CurrentPage
	}

	full, err := r.execute("grid", view)
	if err != nil {
		return GridFragments{}, err
	}

	return GridFragments{Full: full, Items: itemsHTML, BlockID: blockID}, nil
}

// RenderGridBlock is the host-facing renderer for the grid block type. A
// catalog outage degrades to an inline notice; it never aborts the page.
func (r *Renderer) RenderGridBlock(ctx context.Context, attributes []byte) (template.HTML, error) {
	cfg, err := block.FromJSON(attributes)
	if err != nil {
		return "", err
	}

	if !r.configured() {
		return r.Notice("error", "The product catalog is not configured."), nil
	}

	fragments, err := r.RenderGrid(ctx, "", cfg, cfg.PageRequest())
	if err != nil {
		if errors.Is(err, store.ErrCatalogUnavailable) {
			log.Printf("ERROR: RenderGridBlock catalog query failed: %v", err)
			return r.Notice("error", "The product catalog is currently unavailable."), nil
		}
		return "", err
	}
	return fragments.Full, nil
}

func buildSortOptions(cfg block.DisplayConfig) []sortOption {
	options := make([]sortOption, 0, len(sortChoices))
	for _, choice := range sortChoices {
		value := string(choice.Field) + "|" + string(choice.Direction)
		options = append(options, sortOption{
			Value:    value,
			Label:    choice.Label,
			Selected: cfg.OrderBy == string(choice.Field) && cfg.Order == string(choice.Direction),
		})
	}
	return options
}

func buildPageLinks(current, total int) []pageLink {
	links := make([]pageLink, 0, total)
	for p := 1; p <= total; p++ {
		links = append(links, pageLink{
			Number:  p,
			URL:     fmt.Sprintf("?paged=%d", p),
			Current: p == current,
		})
	}
	return links
}

// Package render produces the HTML fragments for product card and grid
// blocks. Fragments are built with html/template so every interpolation is
// escaped for its context; the only raw HTML that passes through is the
// sanitizer's output.
package render

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"storefront-blocks-service/internal/catalog"
	"storefront-blocks-service/internal/store"
	"storefront-blocks-service/internal/token"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// ErrNotConfigured is returned when the renderer was handed no catalog
// integration; blocks render a static configuration-error fragment instead
// of attempting any query.
var ErrNotConfigured = errors.New("render: catalog integration not configured")

// Options carries the presentation settings shared by all rendered blocks.
type Options struct {
	PlaceholderImageURL string
	CartURL             string
	CurrencySymbol      string
}

// Renderer renders card and grid fragments. It is stateless per request and
// safe for concurrent use.
type Renderer struct {
	builder   *catalog.Builder
	products  store.CatalogStorer
	terms     store.TermStorer
	tokens    *token.Issuer
	sanitizer *bluemonday.Policy
	tpl       *template.Template
	opts      Options

	now   func() time.Time
	newID func() string
}

// New creates a Renderer. builder and products may be nil when the host
// environment lacks the catalog integration; renders then degrade to the
// configuration-error fragment.
func New(builder *catalog.Builder, products store.CatalogStorer, terms store.TermStorer, issuer *token.Issuer, opts Options) *Renderer {
	if opts.CurrencySymbol == "" {
		opts.CurrencySymbol = "$"
	}

	// Custom badge text permits a small inline subset, never raw markup.
	policy := bluemonday.NewPolicy()
	policy.AllowElements("b", "strong", "i", "em", "span", "small", "br")

	tpl := template.Must(template.New("blocks").Funcs(template.FuncMap{
		"price": func(v float64) string {
			return fmt.Sprintf("%s%.2f", opts.CurrencySymbol, v)
		},
	}).ParseFS(templateFS, "templates/*.tmpl"))

	return &Renderer{
		builder:   builder,
		products:  products,
		terms:     terms,
		tokens:    issuer,
		sanitizer: policy,
		tpl:       tpl,
		opts:      opts,
		now:       time.Now,
		newID:     func() string { return "sb-grid-" + uuid.NewString() },
	}
}

func (r *Renderer) configured() bool {
	return r.builder != nil && r.products != nil
}

// price formats a price string the way the templates do; used where a price
// is assembled in Go rather than in a template.
func (r *Renderer) price(v float64) string {
	return fmt.Sprintf("%s%.2f", r.opts.CurrencySymbol, v)
}

func (r *Renderer) execute(name string, data interface{}) (template.HTML, error) {
	var sb strings.Builder
	if err := r.tpl.ExecuteTemplate(&sb, name, data); err != nil {
		return "", fmt.Errorf("render: execute %s: %w", name, err)
	}
	return template.HTML(sb.String()), nil
}

type noticeData struct {
	Kind    string
	Message string
}

// Notice renders an inline grid-level notice fragment (used for catalog
// failures surfaced inside the page instead of aborting it).
func (r *Renderer) Notice(kind, message string) template.HTML {
	out, err := r.execute("notice", noticeData{Kind: kind, Message: message})
	if err != nil {
		return template.HTML("")
	}
	return out
}

func (r *Renderer) cardPlaceholder(kind, message string) template.HTML {
	out, err := r.execute("card-placeholder", noticeData{Kind: kind, Message: message})
	if err != nil {
		return template.HTML("")
	}
	return out
}

// trimWords shortens free text to at most n words, appending an ellipsis
// when anything was cut.
func trimWords(s string, n int) string {
	fields := strings.Fields(s)
	if len(fields) <= n {
		return strings.Join(fields, " ")
	}
	return strings.Join(fields[:n], " ") + "…"
}

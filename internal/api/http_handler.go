package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"storefront-blocks-service/internal/block"
	"storefront-blocks-service/internal/render"
	"storefront-blocks-service/internal/store"
	"storefront-blocks-service/internal/token"
)

// Partial-refresh actions. Each is idempotent given the same inputs, modulo
// catalog changes between calls.
const (
	ActionSort     = "sort"
	ActionFilter   = "filter"
	ActionLoadMore = "loadmore"
)

const maxAttributesBody = 1 << 20 // 1 MiB

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	registry *block.Registry
	renderer *render.Renderer
	tokens   *token.Issuer
	validate *validator.Validate
}

// NewHTTPHandler creates a new HTTPHandler with dependencies.
func NewHTTPHandler(registry *block.Registry, renderer *render.Renderer, tokens *token.Issuer) *HTTPHandler {
	return &HTTPHandler{
		registry: registry,
		renderer: renderer,
		tokens:   tokens,
		validate: validator.New(),
	}
}

// --- Helpers ---

// ErrorResponse defines the structure for JSON error responses on the
// block-render endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("ERROR: Failed to encode JSON response: %v", err)
			http.Error(w, `{"error": "Internal server error during JSON encoding"}`, http.StatusInternalServerError)
		}
	}
}

// The refresh protocol always answers HTTP 200 with a success/failure
// envelope; clients branch on the success flag, not the status code.

type refreshEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

type refreshSuccess struct {
	HTML    string `json:"html"`
	BlockID string `json:"blockId,omitempty"`
}

type refreshFailure struct {
	Message string `json:"message"`
}

func respondRefreshSuccess(w http.ResponseWriter, html, blockID string) {
	respondWithJSON(w, http.StatusOK, refreshEnvelope{Success: true, Data: refreshSuccess{HTML: html, BlockID: blockID}})
}

func respondRefreshFailure(w http.ResponseWriter, message string) {
	respondWithJSON(w, http.StatusOK, refreshEnvelope{Success: false, Data: refreshFailure{Message: message}})
}

// --- Block render handler ---

// RenderBlock is the host-facing entry point: it resolves the named block
// descriptor and invokes its renderer with the posted attributes, returning
// the HTML fragment.
func (h *HTTPHandler) RenderBlock(w http.ResponseWriter, r *http.Request) {
	blockName := chi.URLParam(r, "blockName")

	descriptor, err := h.registry.Get(blockName)
	if err != nil {
		respondWithError(w, http.StatusNotFound, fmt.Sprintf("Unknown block type %q", blockName))
		return
	}

	attributes, err := io.ReadAll(io.LimitReader(r.Body, maxAttributesBody))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	defer r.Body.Close()

	// Attributes are validated once here, at request entry.
	cfg, err := block.FromJSON(attributes)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid block attributes: "+err.Error())
		return
	}
	if err := h.validate.Struct(cfg); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	html, err := descriptor.Render(r.Context(), attributes)
	if err != nil {
		log.Printf("ERROR: RenderBlock %q failed: %v", blockName, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to render block")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, string(html)); err != nil {
		log.Printf("ERROR: RenderBlock %q failed to write response: %v", blockName, err)
	}
}

// --- Partial refresh handler ---

// Refresh serves the sort / filter / loadmore operations. The anti-forgery
// token is checked before anything touches the catalog; a missing block
// correlation id or undecodable attributes fail as a bad request.
func (h *HTTPHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondRefreshFailure(w, "Invalid request.")
		return
	}

	action := r.PostFormValue("action")
	nonce := r.PostFormValue("nonce")
	blockID := r.PostFormValue("blockId")
	attributes := r.PostFormValue("attributes")

	if nonce == "" {
		respondRefreshFailure(w, "Security check failed.")
		return
	}
	if blockID == "" || attributes == "" {
		respondRefreshFailure(w, "Missing required parameters.")
		return
	}
	if err := h.tokens.Verify(nonce, blockID); err != nil {
		respondRefreshFailure(w, "Security check failed.")
		return
	}

	cfg, err := block.FromJSON([]byte(attributes))
	if err != nil {
		respondRefreshFailure(w, "Invalid attributes.")
		return
	}
	if err := h.validate.Struct(cfg); err != nil {
		respondRefreshFailure(w, "Invalid attributes.")
		return
	}

	itemsOnly := false
	switch action {
	case ActionSort:
		orderBy := strings.ToLower(r.PostFormValue("orderBy"))
		order := strings.ToUpper(r.PostFormValue("order"))
		if orderBy == "" {
			orderBy = "date"
		}
		if order == "" {
			order = "DESC"
		}
		allowedSortFields := map[string]bool{"date": true, "price": true, "popularity": true, "rating": true, "title": true}
		if !allowedSortFields[orderBy] {
			respondRefreshFailure(w, "Invalid sort field.")
			return
		}
		if order != "ASC" && order != "DESC" {
			respondRefreshFailure(w, "Invalid sort order.")
			return
		}
		cfg = cfg.WithSort(orderBy, order)

	case ActionFilter:
		var overrides block.FilterOverrides
		if raw := r.PostFormValue("filters"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &overrides); err != nil {
				respondRefreshFailure(w, "Invalid filters.")
				return
			}
		}
		cfg = cfg.ApplyFilters(overrides)
		if cfg.PriceMin > 0 && cfg.PriceMax > 0 && cfg.PriceMin > cfg.PriceMax {
			respondRefreshFailure(w, "priceMin cannot exceed priceMax.")
			return
		}

	case ActionLoadMore:
		page, err := strconv.Atoi(r.PostFormValue("page"))
		if err != nil || page < 1 {
			respondRefreshFailure(w, "Invalid page.")
			return
		}
		cfg = cfg.WithPage(page)
		itemsOnly = true

	default:
		respondRefreshFailure(w, "Unknown action.")
		return
	}

	fragments, err := h.renderer.RenderGrid(r.Context(), blockID, cfg, cfg.PageRequest())
	if err != nil {
		switch {
		case errors.Is(err, store.ErrCatalogUnavailable):
			log.Printf("ERROR: Refresh %s catalog query failed: %v", action, err)
			respondRefreshFailure(w, "The product catalog is currently unavailable.")
		case errors.Is(err, render.ErrNotConfigured):
			respondRefreshFailure(w, "The product catalog is not configured.")
		default:
			log.Printf("ERROR: Refresh %s render failed: %v", action, err)
			respondRefreshFailure(w, "Failed to refresh products.")
		}
		return
	}

	if itemsOnly {
		respondRefreshSuccess(w, string(fragments.Items), "")
		return
	}
	respondRefreshSuccess(w, string(fragments.Full), blockID)
}

// --- Route Registration ---

// RegisterRoutes sets up the HTTP routes for the service.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/blocks", func(r chi.Router) {
		r.Post("/refresh", h.Refresh)                // POST /api/v1/blocks/refresh
		r.Post("/{blockName}/render", h.RenderBlock) // POST /api/v1/blocks/{blockName}/render
	})
}

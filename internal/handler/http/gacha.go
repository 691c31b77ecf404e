package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ziyoonee/gochagetcha-sub000/internal/catalog"
	"github.com/ziyoonee/gochagetcha-sub000/internal/service"
	"github.com/ziyoonee/gochagetcha-sub000/pkg/httputil"
)

// GachaHandler serves the gacha listing and detail endpoints.
type GachaHandler struct {
	service *service.GachaService
	logger  *slog.Logger
}

// NewGachaHandler creates the gacha HTTP handler.
func NewGachaHandler(svc *service.GachaService, logger *slog.Logger) *GachaHandler {
	return &GachaHandler{service: svc, logger: logger}
}

// List handles GET /api/gachas.
//
// Query parameters: page, category, brand, month (all|new|YYYY-MM), sort
// (newest|name|priceLow|priceHigh), q, available (true). Unrecognized values
// pass through and simply match nothing or fall back to defaults; the
// endpoint never rejects a filter combination.
func (h *GachaHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	in := service.ListInput{
		Page: parsePage(q.Get("page")),
		Criteria: catalog.Criteria{
			Category:      q.Get("category"),
			Brand:         q.Get("brand"),
			Month:         q.Get("month"),
			OnlyAvailable: q.Get("available") == "true",
			Query:         q.Get("q"),
			Sort:          q.Get("sort"),
		},
	}

	result, err := h.service.List(r.Context(), in)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// Get handles GET /api/gachas/{id}.
func (h *GachaHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, detail)
}

// Categories handles GET /api/meta/categories.
func (h *GachaHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string][]string{"categories": categories})
}

// Brands handles GET /api/meta/brands.
func (h *GachaHandler) Brands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.service.Brands(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string][]string{"brands": brands})
}

// parsePage parses a 1-based page number, defaulting to 1 on anything that
// is not a positive integer.
func parsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

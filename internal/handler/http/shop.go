package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziyoonee/gochagetcha-sub000/internal/catalog"
	"github.com/ziyoonee/gochagetcha-sub000/internal/service"
	"github.com/ziyoonee/gochagetcha-sub000/pkg/httputil"
)

// ShopHandler serves the shop listing, detail, and region endpoints.
type ShopHandler struct {
	service *service.ShopService
	logger  *slog.Logger
}

// NewShopHandler creates the shop HTTP handler.
func NewShopHandler(svc *service.ShopService, logger *slog.Logger) *ShopHandler {
	return &ShopHandler{service: svc, logger: logger}
}

// List handles GET /api/shops. Query parameters: page, region, q, sort.
func (h *ShopHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	in := service.ShopListInput{
		Page: parsePage(q.Get("page")),
		Criteria: catalog.ShopCriteria{
			Region: q.Get("region"),
			Query:  q.Get("q"),
			Sort:   q.Get("sort"),
		},
	}

	result, err := h.service.List(r.Context(), in)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// Get handles GET /api/shops/{id}.
func (h *ShopHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, detail)
}

// Regions handles GET /api/regions.
func (h *ShopHandler) Regions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.service.Regions(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string][]service.RegionCount{"regions": regions})
}

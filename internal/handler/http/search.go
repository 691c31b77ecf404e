package http

import (
	"log/slog"
	"net/http"

	"github.com/ziyoonee/gochagetcha-sub000/internal/service"
	"github.com/ziyoonee/gochagetcha-sub000/pkg/httputil"
)

// SearchHandler serves the dedicated search endpoint.
type SearchHandler struct {
	service *service.SearchService
	logger  *slog.Logger
}

// NewSearchHandler creates the search HTTP handler.
func NewSearchHandler(svc *service.SearchService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{service: svc, logger: logger}
}

// searchResponse is the body for GET /api/search. The shape is the same for
// blank and non-blank queries.
type searchResponse struct {
	MatchedIDs []string `json:"matchedIds"`
}

// Search handles GET /api/search?q=. The operation degrades rather than
// fails, so it always answers 200.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	ids := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	httputil.WriteJSON(w, http.StatusOK, searchResponse{MatchedIDs: ids})
}

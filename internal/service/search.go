package service

import (
	"context"
	"log/slog"

	"github.com/ziyoonee/gochagetcha-sub000/internal/search"
)

// SearchService implements the dedicated search endpoint over the merge
// engine. It returns identifiers only; callers hydrate records separately.
type SearchService struct {
	merger *search.Merger
	logger *slog.Logger
}

// NewSearchService creates the search service.
func NewSearchService(merger *search.Merger, logger *slog.Logger) *SearchService {
	return &SearchService{
		merger: merger,
		logger: logger,
	}
}

// Search returns the merged id list for q. Blank queries return an empty
// list without touching the store; branch failures degrade to the surviving
// branch, so this operation never fails.
func (s *SearchService) Search(ctx context.Context, q string) []string {
	ids := s.merger.Search(ctx, q, search.SearchLimit)

	s.logger.DebugContext(ctx, "search executed",
		slog.String("query", q),
		slog.Int("matched", len(ids)),
	)

	return ids
}

package search

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"
)

// Similarity constants. The dedicated search endpoint and the listing
// endpoint's query filter use different result caps; both are preserved as
// separate constants.
const (
	SimilarityThreshold = 0.15
	SearchLimit         = 100
	ListingLimit        = 200
)

// Store is the narrow query surface the merge engine consumes.
type Store interface {
	// FindIDsByText returns ids matching q as a case-insensitive substring
	// across the text fields, in store order.
	FindIDsByText(ctx context.Context, q string) ([]string, error)

	// FindIDsBySimilarity returns ids ranked by descending similarity score.
	FindIDsBySimilarity(ctx context.Context, q string, threshold float64, limit int) ([]string, error)
}

// Merger combines an exact substring match with a trigram-similarity ranked
// match into one deduplicated, ordered id list. Exact hits always outrank
// similarity hits regardless of score.
//
// A failing branch contributes an empty list instead of surfacing an error:
// partial search results are preferred to a hard failure. The similarity
// branch additionally sits behind a circuit breaker so a misbehaving store
// function degrades the engine to exact-only matching instead of slowing
// every request.
type Merger struct {
	store   Store
	breaker *gobreaker.CircuitBreaker[[]string]
	timeout time.Duration
	logger  *slog.Logger
}

// NewMerger creates a merge engine over the given store. timeout bounds one
// whole search; on expiry whichever branch completed still contributes.
func NewMerger(store Store, timeout time.Duration, logger *slog.Logger) *Merger {
	breaker := gobreaker.NewCircuitBreaker[[]string](gobreaker.Settings{
		Name:    "gacha-similarity",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Merger{
		store:   store,
		breaker: breaker,
		timeout: timeout,
		logger:  logger,
	}
}

// Search returns the merged id list for q. An empty or whitespace-only query
// returns an empty list without touching the store. similarLimit caps the
// similarity branch (SearchLimit or ListingLimit depending on the caller).
func (m *Merger) Search(ctx context.Context, q string, similarLimit int) []string {
	q = strings.TrimSpace(q)
	if q == "" {
		return []string{}
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	var exact, similar []string

	// The two branches have no ordering dependency; issue them concurrently
	// and join before merging. Branch errors never propagate, so the group
	// never cancels early.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ids, err := m.store.FindIDsByText(gctx, q)
		if err != nil {
			m.logger.WarnContext(gctx, "exact-match branch failed, degrading to similarity-only",
				slog.String("query", q),
				slog.String("error", err.Error()),
			)
			return nil
		}
		exact = ids
		return nil
	})

	g.Go(func() error {
		ids, err := m.breaker.Execute(func() ([]string, error) {
			return m.store.FindIDsBySimilarity(gctx, q, SimilarityThreshold, similarLimit)
		})
		if err != nil {
			m.logger.WarnContext(gctx, "similarity branch failed, degrading to exact-only",
				slog.String("query", q),
				slog.String("error", err.Error()),
			)
			return nil
		}
		similar = ids
		return nil
	})

	_ = g.Wait()

	return mergeIDs(exact, similar)
}

// mergeIDs returns exact followed by every similarity hit not already
// present, preserving both internal orders with no duplicates.
func mergeIDs(exact, similar []string) []string {
	out := make([]string, 0, len(exact)+len(similar))
	seen := make(map[string]struct{}, len(exact)+len(similar))

	for _, id := range exact {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	for _, id := range similar {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	return out
}

package search

import (
	"context"
	"strings"

	"github.com/ziyoonee/gochagetcha-sub000/internal/domain"
)

// Matcher is the injectable text-match strategy used by the listing
// pipeline. Match returns the set of gacha ids matching q among items;
// restrict is false when q is blank and no restriction applies.
type Matcher interface {
	Match(ctx context.Context, q string, items []domain.Gacha) (ids map[string]struct{}, restrict bool)
}

// LocalMatcher matches by case-insensitive substring against name, localized
// name, keywords, brand, and category of the in-memory collection. It is the
// strategy for snapshot-mode deployments and deliberately simpler than the
// store-backed merge engine.
type LocalMatcher struct{}

// Match implements Matcher.
func (LocalMatcher) Match(_ context.Context, q string, items []domain.Gacha) (map[string]struct{}, bool) {
	q = strings.TrimSpace(strings.ToLower(q))
	if q == "" {
		return nil, false
	}

	ids := make(map[string]struct{})
	for i := range items {
		if localMatch(&items[i], q) {
			ids[items[i].ID] = struct{}{}
		}
	}
	return ids, true
}

func localMatch(g *domain.Gacha, q string) bool {
	if strings.Contains(strings.ToLower(g.Name), q) {
		return true
	}
	if g.NameKo != nil && strings.Contains(strings.ToLower(*g.NameKo), q) {
		return true
	}
	if g.Keywords != nil && strings.Contains(strings.ToLower(*g.Keywords), q) {
		return true
	}
	if strings.Contains(strings.ToLower(g.Brand), q) {
		return true
	}
	return strings.Contains(strings.ToLower(g.Category), q)
}

// StoreMatcher delegates to the merge engine, intersecting listing filters
// with the store's exact and similarity matches by id set.
type StoreMatcher struct {
	merger *Merger
}

// NewStoreMatcher creates a Matcher backed by the merge engine.
func NewStoreMatcher(merger *Merger) *StoreMatcher {
	return &StoreMatcher{merger: merger}
}

// Match implements Matcher. The in-memory items are ignored; the store is
// the source of truth for this strategy.
func (s *StoreMatcher) Match(ctx context.Context, q string, _ []domain.Gacha) (map[string]struct{}, bool) {
	if strings.TrimSpace(q) == "" {
		return nil, false
	}

	matched := s.merger.Search(ctx, q, ListingLimit)
	ids := make(map[string]struct{}, len(matched))
	for _, id := range matched {
		ids[id] = struct{}{}
	}
	return ids, true
}

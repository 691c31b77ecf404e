package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/ziyoonee/gochagetcha-sub000/internal/domain"
	"github.com/ziyoonee/gochagetcha-sub000/internal/search"
)

// Criteria is the filter/sort specification for a gacha listing. All filter
// fields combine by logical AND; zero values mean "no filter".
type Criteria struct {
	Category      string
	Brand         string
	Month         string // "", "all", "new", or "YYYY-MM"
	OnlyAvailable bool
	Query         string
	Sort          string
}

// ShopCriteria is the filter/sort specification for a shop listing.
type ShopCriteria struct {
	Region string
	Query  string
	Sort   string
}

// Pipeline produces the visible ordered subset of an in-memory collection
// for a listing page. All transforms are pure; errors can only originate in
// the injected text-match strategy's upstream, which degrades internally.
type Pipeline struct {
	matcher search.Matcher

	// collMu serializes collator use. collate.Collator mutates internal
	// buffers on CompareString and is not safe for concurrent calls.
	collMu   sync.Mutex
	collator *collate.Collator

	now func() time.Time
}

// NewPipeline creates a pipeline with the given text-match strategy.
func NewPipeline(matcher search.Matcher) *Pipeline {
	return &Pipeline{
		matcher:  matcher,
		collator: collate.New(language.Korean),
		now:      time.Now,
	}
}

// Apply filters and sorts the gacha collection. available is the bulk
// availability set consulted when Criteria.OnlyAvailable is set.
func (p *Pipeline) Apply(ctx context.Context, items []domain.Gacha, c Criteria, available map[string]struct{}) []domain.Gacha {
	var queryIDs map[string]struct{}
	restrict := false
	if p.matcher != nil {
		queryIDs, restrict = p.matcher.Match(ctx, c.Query, items)
	}

	out := make([]domain.Gacha, 0, len(items))
	for i := range items {
		g := items[i]

		if c.Category != "" && g.Category != c.Category {
			continue
		}
		if c.Brand != "" && g.Brand != c.Brand {
			continue
		}
		if !p.inReleaseWindow(&g, c.Month) {
			continue
		}
		if c.OnlyAvailable {
			if _, ok := available[g.ID]; !ok {
				continue
			}
		}
		if restrict {
			if _, ok := queryIDs[g.ID]; !ok {
				continue
			}
		}

		out = append(out, g)
	}

	p.sortGachas(out, c.Sort)
	return out
}

// inReleaseWindow evaluates the month filter. A gacha with no release date
// fails every non-"all" window. Unrecognized values fall through as "all".
func (p *Pipeline) inReleaseWindow(g *domain.Gacha, month string) bool {
	switch {
	case month == "" || month == domain.MonthAll:
		return true
	case month == domain.MonthNew:
		return g.ReleasedWithin(domain.NewWindow, p.now())
	case domain.IsYearMonth(month):
		return g.ReleasedInMonth(month)
	default:
		return true
	}
}

func (p *Pipeline) sortGachas(items []domain.Gacha, sortKey string) {
	switch sortKey {
	case domain.SortName:
		p.collMu.Lock()
		sort.SliceStable(items, func(i, j int) bool {
			return p.collator.CompareString(items[i].DisplayName(), items[j].DisplayName()) < 0
		})
		p.collMu.Unlock()
	case domain.SortPriceLow:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Price < items[j].Price
		})
	case domain.SortPriceHigh:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Price > items[j].Price
		})
	default:
		// newest: descending release date, null release dates after all
		// dated entries.
		sort.SliceStable(items, func(i, j int) bool {
			a, b := items[i].ReleaseDate, items[j].ReleaseDate
			switch {
			case a == nil && b == nil:
				return false
			case a == nil:
				return false
			case b == nil:
				return true
			default:
				return a.After(*b)
			}
		})
	}
}

// ApplyShops filters and sorts the shop collection.
func (p *Pipeline) ApplyShops(shops []domain.Shop, c ShopCriteria) []domain.Shop {
	q := strings.TrimSpace(strings.ToLower(c.Query))

	out := make([]domain.Shop, 0, len(shops))
	for i := range shops {
		s := shops[i]

		if c.Region != "" && DeriveRegion(s.Address) != c.Region {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(s.Name), q) &&
			!strings.Contains(strings.ToLower(s.Address), q) {
			continue
		}

		out = append(out, s)
	}

	switch c.Sort {
	case domain.ShopSortNewest:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	default:
		p.collMu.Lock()
		sort.SliceStable(out, func(i, j int) bool {
			return p.collator.CompareString(out[i].Name, out[j].Name) < 0
		})
		p.collMu.Unlock()
	}

	return out
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/ziyoonee/gochagetcha-sub000/internal/cache"
	"github.com/ziyoonee/gochagetcha-sub000/internal/catalog"
	"github.com/ziyoonee/gochagetcha-sub000/internal/domain"
	"github.com/ziyoonee/gochagetcha-sub000/internal/repository"
	"github.com/ziyoonee/gochagetcha-sub000/internal/search"
)

// CatalogMode selects the text-match strategy and data path for listings:
// "store" queries PostgreSQL per request, "memory" serves from the snapshot
// kept current by the event consumer.
type CatalogMode string

const (
	ModeStore  CatalogMode = "store"
	ModeMemory CatalogMode = "memory"
)

// GachaService implements the gacha listing and detail operations.
type GachaService struct {
	repo         repository.GachaRepository
	shops        repository.ShopRepository
	links        repository.LinkRepository
	merger       *search.Merger
	pipeline     *catalog.Pipeline
	snapshot     *catalog.Snapshot
	availability *cache.Availability
	mode         CatalogMode
	logger       *slog.Logger
}

// NewGachaService creates the gacha service.
func NewGachaService(
	repo repository.GachaRepository,
	shops repository.ShopRepository,
	links repository.LinkRepository,
	merger *search.Merger,
	pipeline *catalog.Pipeline,
	snapshot *catalog.Snapshot,
	availability *cache.Availability,
	mode CatalogMode,
	logger *slog.Logger,
) *GachaService {
	return &GachaService{
		repo:         repo,
		shops:        shops,
		links:        links,
		merger:       merger,
		pipeline:     pipeline,
		snapshot:     snapshot,
		availability: availability,
		mode:         mode,
		logger:       logger,
	}
}

// ListInput holds the parameters for a gacha listing request.
type ListInput struct {
	Page     int
	Criteria catalog.Criteria
}

// ListResult is the paginated gacha listing response.
type ListResult struct {
	Gachas   []domain.Gacha `json:"gachas"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
	HasMore  bool           `json:"hasMore"`
}

// List returns one page of the filtered, sorted gacha listing.
func (s *GachaService) List(ctx context.Context, in ListInput) (*ListResult, error) {
	if in.Page < 1 {
		in.Page = 1
	}

	if s.mode == ModeMemory {
		return s.listFromSnapshot(ctx, in)
	}
	return s.listFromStore(ctx, in)
}

func (s *GachaService) listFromStore(ctx context.Context, in ListInput) (*ListResult, error) {
	c := in.Criteria

	filter := repository.GachaFilter{
		Month:  c.Month,
		Sort:   c.Sort,
		Offset: (in.Page - 1) * catalog.PageSize,
		Limit:  catalog.PageSize,
	}
	if c.Category != "" {
		filter.Category = &c.Category
	}
	if c.Brand != "" {
		filter.Brand = &c.Brand
	}

	// The free-text query and the availability filter both restrict by id
	// set; resolve each and intersect.
	var searchIDs []string
	hasQuery := strings.TrimSpace(c.Query) != ""
	if hasQuery {
		searchIDs = s.merger.Search(ctx, c.Query, search.ListingLimit)
	}

	switch {
	case hasQuery && c.OnlyAvailable:
		available, err := s.availability.AvailableSet(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve availability: %w", err)
		}
		ids := make([]string, 0, len(searchIDs))
		for _, id := range searchIDs {
			if _, ok := available[id]; ok {
				ids = append(ids, id)
			}
		}
		filter.IDs = ids
	case hasQuery:
		filter.IDs = searchIDs
	case c.OnlyAvailable:
		available, err := s.availability.AvailableSet(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve availability: %w", err)
		}
		ids := make([]string, 0, len(available))
		for id := range available {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		filter.IDs = ids
	}

	gachas, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list gachas: %w", err)
	}

	return newListResult(gachas, total, in.Page), nil
}

func (s *GachaService) listFromSnapshot(ctx context.Context, in ListInput) (*ListResult, error) {
	var available map[string]struct{}
	if in.Criteria.OnlyAvailable {
		set, err := s.availability.AvailableSet(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve availability: %w", err)
		}
		available = set
	}

	visible := s.pipeline.Apply(ctx, s.snapshot.All(), in.Criteria, available)
	total := len(visible)

	from := (in.Page - 1) * catalog.PageSize
	if from > total {
		from = total
	}
	to := min(from+catalog.PageSize, total)

	return newListResult(visible[from:to], total, in.Page), nil
}

func newListResult(gachas []domain.Gacha, total, page int) *ListResult {
	if gachas == nil {
		gachas = []domain.Gacha{}
	}
	to := (page-1)*catalog.PageSize + catalog.PageSize - 1
	return &ListResult{
		Gachas:   gachas,
		Total:    total,
		Page:     page,
		PageSize: catalog.PageSize,
		HasMore:  to < total-1,
	}
}

// Detail is a gacha with the shops that carry it.
type Detail struct {
	Gacha domain.Gacha  `json:"gacha"`
	Shops []domain.Shop `json:"shops"`
}

// Get returns a gacha and its carrying shops. A missing id surfaces as a
// not-found error; a failing shop lookup degrades to an empty shop list so
// the detail page still renders.
func (s *GachaService) Get(ctx context.Context, id string) (*Detail, error) {
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &Detail{Gacha: *g, Shops: []domain.Shop{}}

	shopIDs, err := s.links.ListShopIDsByGacha(ctx, id)
	if err != nil {
		s.logger.WarnContext(ctx, "shop lookup failed, rendering gacha without shops",
			slog.String("gacha_id", id),
			slog.String("error", err.Error()),
		)
		return detail, nil
	}

	shops, err := s.shops.ListByIDs(ctx, shopIDs)
	if err != nil {
		s.logger.WarnContext(ctx, "shop hydration failed, rendering gacha without shops",
			slog.String("gacha_id", id),
			slog.String("error", err.Error()),
		)
		return detail, nil
	}

	detail.Shops = shops
	return detail, nil
}

// Categories returns the distinct category values.
func (s *GachaService) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

// Brands returns the distinct brand values.
func (s *GachaService) Brands(ctx context.Context) ([]string, error) {
	brands, err := s.repo.ListBrands(ctx)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	if brands == nil {
		brands = []string{}
	}
	return brands, nil
}

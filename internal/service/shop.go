package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ziyoonee/gochagetcha-sub000/internal/catalog"
	"github.com/ziyoonee/gochagetcha-sub000/internal/domain"
	"github.com/ziyoonee/gochagetcha-sub000/internal/repository"
)

// ShopService implements the shop listing and detail operations.
type ShopService struct {
	repo     repository.ShopRepository
	links    repository.LinkRepository
	gachas   repository.GachaRepository
	pipeline *catalog.Pipeline
	mode     CatalogMode
	logger   *slog.Logger
}

// NewShopService creates the shop service.
func NewShopService(
	repo repository.ShopRepository,
	links repository.LinkRepository,
	gachas repository.GachaRepository,
	pipeline *catalog.Pipeline,
	mode CatalogMode,
	logger *slog.Logger,
) *ShopService {
	return &ShopService{
		repo:     repo,
		links:    links,
		gachas:   gachas,
		pipeline: pipeline,
		mode:     mode,
		logger:   logger,
	}
}

// ShopListInput holds the parameters for a shop listing request.
type ShopListInput struct {
	Page     int
	Criteria catalog.ShopCriteria
}

// ShopListResult is the paginated shop listing response.
type ShopListResult struct {
	Shops    []domain.Shop `json:"shops"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
	HasMore  bool          `json:"hasMore"`
}

// List returns one page of the filtered, sorted shop listing.
func (s *ShopService) List(ctx context.Context, in ShopListInput) (*ShopListResult, error) {
	if in.Page < 1 {
		in.Page = 1
	}

	if s.mode == ModeMemory {
		shops, err := s.repo.ListAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("list shops: %w", err)
		}

		visible := s.pipeline.ApplyShops(shops, in.Criteria)
		total := len(visible)

		from := (in.Page - 1) * catalog.PageSize
		if from > total {
			from = total
		}
		to := min(from+catalog.PageSize, total)

		return newShopListResult(visible[from:to], total, in.Page), nil
	}

	filter := repository.ShopFilter{
		Sort:   in.Criteria.Sort,
		Offset: (in.Page - 1) * catalog.PageSize,
		Limit:  catalog.PageSize,
	}
	if in.Criteria.Region != "" {
		filter.Region = &in.Criteria.Region
	}
	if in.Criteria.Query != "" {
		filter.Query = &in.Criteria.Query
	}

	shops, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list shops: %w", err)
	}

	return newShopListResult(shops, total, in.Page), nil
}

func newShopListResult(shops []domain.Shop, total, page int) *ShopListResult {
	if shops == nil {
		shops = []domain.Shop{}
	}
	to := (page-1)*catalog.PageSize + catalog.PageSize - 1
	return &ShopListResult{
		Shops:    shops,
		Total:    total,
		Page:     page,
		PageSize: catalog.PageSize,
		HasMore:  to < total-1,
	}
}

// ShopDetail is a shop with the gachas it carries.
type ShopDetail struct {
	Shop   domain.Shop    `json:"shop"`
	Gachas []domain.Gacha `json:"gachas"`
}

// Get returns a shop and the gachas it carries. A missing id surfaces as a
// not-found error; a failing gacha lookup degrades to an empty list.
func (s *ShopService) Get(ctx context.Context, id string) (*ShopDetail, error) {
	shop, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &ShopDetail{Shop: *shop, Gachas: []domain.Gacha{}}

	gachaIDs, err := s.links.ListGachaIDsByShop(ctx, id)
	if err != nil {
		s.logger.WarnContext(ctx, "gacha lookup failed, rendering shop without gachas",
			slog.String("shop_id", id),
			slog.String("error", err.Error()),
		)
		return detail, nil
	}
	if len(gachaIDs) == 0 {
		return detail, nil
	}

	gachas, _, err := s.gachas.List(ctx, repository.GachaFilter{
		IDs:   gachaIDs,
		Sort:  domain.SortNewest,
		Limit: len(gachaIDs),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "gacha hydration failed, rendering shop without gachas",
			slog.String("shop_id", id),
			slog.String("error", err.Error()),
		)
		return detail, nil
	}

	detail.Gachas = gachas
	return detail, nil
}

// RegionCount pairs a region with the number of shops in it.
type RegionCount struct {
	Region string `json:"region"`
	Count  int    `json:"count"`
}

// Regions returns the regions with shops, in canonical order with counts.
func (s *ShopService) Regions(ctx context.Context) ([]RegionCount, error) {
	shops, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list shops for regions: %w", err)
	}

	counts := make(map[string]int)
	for i := range shops {
		region := catalog.DeriveRegion(shops[i].Address)
		if region == "" {
			continue
		}
		counts[region]++
	}

	regions := make([]string, 0, len(counts))
	for region := range counts {
		regions = append(regions, region)
	}
	catalog.SortRegions(regions)

	out := make([]RegionCount, 0, len(regions))
	for _, region := range regions {
		out = append(out, RegionCount{Region: region, Count: counts[region]})
	}
	return out, nil
}

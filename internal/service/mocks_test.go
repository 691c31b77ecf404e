package service

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/ziyoonee/gochagetcha-sub000/internal/cache"
	"github.com/ziyoonee/gochagetcha-sub000/internal/domain"
	"github.com/ziyoonee/gochagetcha-sub000/internal/repository"
	"github.com/ziyoonee/gochagetcha-sub000/internal/search"
)

// --- Mock Repositories ---

type mockGachaRepository struct {
	mock.Mock
}

func (m *mockGachaRepository) GetByID(ctx context.Context, id string) (*domain.Gacha, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Gacha), args.Error(1)
}

func (m *mockGachaRepository) List(ctx context.Context, filter repository.GachaFilter) ([]domain.Gacha, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Gacha), args.Int(1), args.Error(2)
}

func (m *mockGachaRepository) ListAll(ctx context.Context) ([]domain.Gacha, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Gacha), args.Error(1)
}

func (m *mockGachaRepository) FindIDsByText(ctx context.Context, query string) ([]string, error) {
	args := m.Called(ctx, query)
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockGachaRepository) FindIDsBySimilarity(ctx context.Context, query string, threshold float64, limit int) ([]string, error) {
	args := m.Called(ctx, query, threshold, limit)
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockGachaRepository) ListCategories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockGachaRepository) ListBrands(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

type mockShopRepository struct {
	mock.Mock
}

func (m *mockShopRepository) GetByID(ctx context.Context, id string) (*domain.Shop, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Shop), args.Error(1)
}

func (m *mockShopRepository) List(ctx context.Context, filter repository.ShopFilter) ([]domain.Shop, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Shop), args.Int(1), args.Error(2)
}

func (m *mockShopRepository) ListAll(ctx context.Context) ([]domain.Shop, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Shop), args.Error(1)
}

func (m *mockShopRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.Shop, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]domain.Shop), args.Error(1)
}

type mockLinkRepository struct {
	mock.Mock
}

func (m *mockLinkRepository) ListGachaIDsWithShops(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockLinkRepository) ListShopIDsByGacha(ctx context.Context, gachaID string) ([]string, error) {
	args := m.Called(ctx, gachaID)
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockLinkRepository) ListGachaIDsByShop(ctx context.Context, shopID string) ([]string, error) {
	args := m.Called(ctx, shopID)
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockLinkRepository) Upsert(ctx context.Context, link *domain.Link) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestMerger(repo *mockGachaRepository) *search.Merger {
	return search.NewMerger(repo, 2*time.Second, newTestLogger())
}

func newTestAvailability(links repository.LinkRepository) *cache.Availability {
	return cache.NewAvailability(nil, links, 5*time.Minute, newTestLogger())
}

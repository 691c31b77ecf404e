package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ziyoonee/gochagetcha-sub000/internal/catalog"
	"github.com/ziyoonee/gochagetcha-sub000/internal/domain"
	"github.com/ziyoonee/gochagetcha-sub000/internal/repository"
	"github.com/ziyoonee/gochagetcha-sub000/internal/search"
	apperrors "github.com/ziyoonee/gochagetcha-sub000/pkg/errors"
)

func newStoreGachaService(gachas *mockGachaRepository, shops *mockShopRepository, links *mockLinkRepository) *GachaService {
	merger := newTestMerger(gachas)
	pipeline := catalog.NewPipeline(search.NewStoreMatcher(merger))
	return NewGachaService(
		gachas, shops, links,
		merger, pipeline, catalog.NewSnapshot(), newTestAvailability(links),
		ModeStore, newTestLogger(),
	)
}

func newMemoryGachaService(gachas *mockGachaRepository, shops *mockShopRepository, links *mockLinkRepository, snapshot *catalog.Snapshot) *GachaService {
	pipeline := catalog.NewPipeline(search.LocalMatcher{})
	return NewGachaService(
		gachas, shops, links,
		newTestMerger(gachas), pipeline, snapshot, newTestAvailability(links),
		ModeMemory, newTestLogger(),
	)
}

func listingGachas(n int) []domain.Gacha {
	out := make([]domain.Gacha, n)
	for i := range out {
		out[i] = domain.Gacha{ID: string(rune('a' + i))}
	}
	return out
}

// --- List, store mode ---

func TestGachaService_List_StoreMode_NoQuery(t *testing.T) {
	gachas := new(mockGachaRepository)
	svc := newStoreGachaService(gachas, new(mockShopRepository), new(mockLinkRepository))

	gachas.On("List", mock.Anything, mock.MatchedBy(func(f repository.GachaFilter) bool {
		return f.IDs == nil && f.Offset == 0 && f.Limit == catalog.PageSize
	})).Return(listingGachas(24), 57, nil)

	result, err := svc.List(context.Background(), ListInput{Page: 1})
	require.NoError(t, err)

	assert.Equal(t, 57, result.Total)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 24, result.PageSize)
	assert.True(t, result.HasMore)
	gachas.AssertExpectations(t)
}

func TestGachaService_List_StoreMode_QueryRestrictsByMergedIDs(t *testing.T) {
	gachas := new(mockGachaRepository)
	svc := newStoreGachaService(gachas, new(mockShopRepository), new(mockLinkRepository))

	gachas.On("FindIDsByText", mock.Anything, "포켓몬").Return([]string{"g1", "g2"}, nil)
	gachas.On("FindIDsBySimilarity", mock.Anything, "포켓몬", search.SimilarityThreshold, search.ListingLimit).
		Return([]string{"g2", "g3"}, nil)
	gachas.On("List", mock.Anything, mock.MatchedBy(func(f repository.GachaFilter) bool {
		return assert.ObjectsAreEqual([]string{"g1", "g2", "g3"}, f.IDs)
	})).Return(listingGachas(3), 3, nil)

	result, err := svc.List(context.Background(), ListInput{
		Page:     1,
		Criteria: catalog.Criteria{Query: "포켓몬"},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.False(t, result.HasMore)
	gachas.AssertExpectations(t)
}

func TestGachaService_List_StoreMode_QueryAndAvailabilityIntersect(t *testing.T) {
	gachas := new(mockGachaRepository)
	links := new(mockLinkRepository)
	svc := newStoreGachaService(gachas, new(mockShopRepository), links)

	gachas.On("FindIDsByText", mock.Anything, "키링").Return([]string{"g1", "g2", "g3"}, nil)
	gachas.On("FindIDsBySimilarity", mock.Anything, "키링", search.SimilarityThreshold, search.ListingLimit).
		Return([]string{}, nil)
	links.On("ListGachaIDsWithShops", mock.Anything).Return([]string{"g3", "g1"}, nil)

	// Search order survives the intersection.
	gachas.On("List", mock.Anything, mock.MatchedBy(func(f repository.GachaFilter) bool {
		return assert.ObjectsAreEqual([]string{"g1", "g3"}, f.IDs)
	})).Return(listingGachas(2), 2, nil)

	_, err := svc.List(context.Background(), ListInput{
		Page:     1,
		Criteria: catalog.Criteria{Query: "키링", OnlyAvailable: true},
	})
	require.NoError(t, err)
	gachas.AssertExpectations(t)
	links.AssertExpectations(t)
}

func TestGachaService_List_StoreMode_AvailabilityErrorSurfaces(t *testing.T) {
	gachas := new(mockGachaRepository)
	links := new(mockLinkRepository)
	svc := newStoreGachaService(gachas, new(mockShopRepository), links)

	links.On("ListGachaIDsWithShops", mock.Anything).Return([]string{}, errors.New("store down"))

	_, err := svc.List(context.Background(), ListInput{
		Page:     1,
		Criteria: catalog.Criteria{OnlyAvailable: true},
	})
	assert.Error(t, err)
}

func TestGachaService_List_HasMoreAcrossPages(t *testing.T) {
	tests := []struct {
		page    int
		total   int
		hasMore bool
	}{
		{1, 50, true},
		{2, 50, true},
		{3, 50, false},
		{1, 24, false},
		{1, 25, true},
		{1, 0, false},
	}

	for _, tt := range tests {
		gachas := new(mockGachaRepository)
		svc := newStoreGachaService(gachas, new(mockShopRepository), new(mockLinkRepository))
		gachas.On("List", mock.Anything, mock.Anything).Return([]domain.Gacha{}, tt.total, nil)

		result, err := svc.List(context.Background(), ListInput{Page: tt.page})
		require.NoError(t, err)
		assert.Equalf(t, tt.hasMore, result.HasMore, "page %d of total %d", tt.page, tt.total)
	}
}

func TestGachaService_List_PageBelowOneDefaultsToFirst(t *testing.T) {
	gachas := new(mockGachaRepository)
	svc := newStoreGachaService(gachas, new(mockShopRepository), new(mockLinkRepository))

	gachas.On("List", mock.Anything, mock.MatchedBy(func(f repository.GachaFilter) bool {
		return f.Offset == 0
	})).Return([]domain.Gacha{}, 0, nil)

	result, err := svc.List(context.Background(), ListInput{Page: -3})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Page)
}

// --- List, memory mode ---

func TestGachaService_List_MemoryMode_PageWindow(t *testing.T) {
	snapshot := catalog.NewSnapshot()
	items := make([]domain.Gacha, 30)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range items {
		release := base.Add(time.Duration(i) * time.Hour)
		items[i] = domain.Gacha{ID: string(rune('A' + i)), ReleaseDate: &release}
	}
	snapshot.Load(items)

	svc := newMemoryGachaService(new(mockGachaRepository), new(mockShopRepository), new(mockLinkRepository), snapshot)

	first, err := svc.List(context.Background(), ListInput{Page: 1})
	require.NoError(t, err)
	assert.Len(t, first.Gachas, 24)
	assert.Equal(t, 30, first.Total)
	assert.True(t, first.HasMore)

	second, err := svc.List(context.Background(), ListInput{Page: 2})
	require.NoError(t, err)
	assert.Len(t, second.Gachas, 6)
	assert.False(t, second.HasMore)
}

func TestGachaService_List_MemoryMode_FilterAndQuery(t *testing.T) {
	snapshot := catalog.NewSnapshot()
	snapshot.Load([]domain.Gacha{
		{ID: "g1", Name: "Pokemon Figure", Brand: "반다이", Category: "피규어"},
		{ID: "g2", Name: "Sanrio Keyring", Brand: "산리오", Category: "키링"},
		{ID: "g3", Name: "Pokemon Keyring", Brand: "반다이", Category: "키링"},
	})

	svc := newMemoryGachaService(new(mockGachaRepository), new(mockShopRepository), new(mockLinkRepository), snapshot)

	result, err := svc.List(context.Background(), ListInput{
		Page:     1,
		Criteria: catalog.Criteria{Query: "pokemon", Category: "키링"},
	})
	require.NoError(t, err)
	require.Len(t, result.Gachas, 1)
	assert.Equal(t, "g3", result.Gachas[0].ID)
}

// --- Get ---

func TestGachaService_Get_WithShops(t *testing.T) {
	gachas := new(mockGachaRepository)
	shops := new(mockShopRepository)
	links := new(mockLinkRepository)
	svc := newStoreGachaService(gachas, shops, links)

	g := &domain.Gacha{ID: "g1", Name: "Pokemon Figure"}
	gachas.On("GetByID", mock.Anything, "g1").Return(g, nil)
	links.On("ListShopIDsByGacha", mock.Anything, "g1").Return([]string{"s1", "s2"}, nil)
	shops.On("ListByIDs", mock.Anything, []string{"s1", "s2"}).
		Return([]domain.Shop{{ID: "s1"}, {ID: "s2"}}, nil)

	detail, err := svc.Get(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, "g1", detail.Gacha.ID)
	assert.Len(t, detail.Shops, 2)
}

func TestGachaService_Get_NotFound(t *testing.T) {
	gachas := new(mockGachaRepository)
	svc := newStoreGachaService(gachas, new(mockShopRepository), new(mockLinkRepository))

	gachas.On("GetByID", mock.Anything, "missing").Return(nil, apperrors.NotFound("gacha", "missing"))

	detail, err := svc.Get(context.Background(), "missing")
	assert.Nil(t, detail)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGachaService_Get_ShopLookupFailureDegrades(t *testing.T) {
	gachas := new(mockGachaRepository)
	links := new(mockLinkRepository)
	svc := newStoreGachaService(gachas, new(mockShopRepository), links)

	g := &domain.Gacha{ID: "g1"}
	gachas.On("GetByID", mock.Anything, "g1").Return(g, nil)
	links.On("ListShopIDsByGacha", mock.Anything, "g1").Return([]string{}, errors.New("down"))

	detail, err := svc.Get(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, "g1", detail.Gacha.ID)
	assert.Empty(t, detail.Shops)
}

// --- metadata ---

func TestGachaService_CategoriesAndBrands(t *testing.T) {
	gachas := new(mockGachaRepository)
	svc := newStoreGachaService(gachas, new(mockShopRepository), new(mockLinkRepository))

	gachas.On("ListCategories", mock.Anything).Return([]string(nil), nil)
	gachas.On("ListBrands", mock.Anything).Return([]string{"반다이"}, nil)

	categories, err := svc.Categories(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, categories)
	assert.Empty(t, categories)

	brands, err := svc.Brands(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"반다이"}, brands)
}

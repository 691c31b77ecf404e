package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ziyoonee/gochagetcha-sub000/internal/catalog"
	"github.com/ziyoonee/gochagetcha-sub000/internal/domain"
	"github.com/ziyoonee/gochagetcha-sub000/internal/repository"
	"github.com/ziyoonee/gochagetcha-sub000/internal/search"
	apperrors "github.com/ziyoonee/gochagetcha-sub000/pkg/errors"
)

func newStoreShopService(shops *mockShopRepository, links *mockLinkRepository, gachas *mockGachaRepository) *ShopService {
	pipeline := catalog.NewPipeline(search.LocalMatcher{})
	return NewShopService(shops, links, gachas, pipeline, ModeStore, newTestLogger())
}

func newMemoryShopService(shops *mockShopRepository, links *mockLinkRepository, gachas *mockGachaRepository) *ShopService {
	pipeline := catalog.NewPipeline(search.LocalMatcher{})
	return NewShopService(shops, links, gachas, pipeline, ModeMemory, newTestLogger())
}

func TestShopService_List_StoreMode_BuildsFilter(t *testing.T) {
	shops := new(mockShopRepository)
	svc := newStoreShopService(shops, new(mockLinkRepository), new(mockGachaRepository))

	shops.On("List", mock.Anything, mock.MatchedBy(func(f repository.ShopFilter) bool {
		return f.Region != nil && *f.Region == "서울" &&
			f.Query != nil && *f.Query == "홍대" &&
			f.Offset == catalog.PageSize && f.Limit == catalog.PageSize
	})).Return([]domain.Shop{{ID: "s1"}}, 30, nil)

	result, err := svc.List(context.Background(), ShopListInput{
		Page:     2,
		Criteria: catalog.ShopCriteria{Region: "서울", Query: "홍대"},
	})
	require.NoError(t, err)

	assert.Equal(t, 30, result.Total)
	assert.Equal(t, 2, result.Page)
	assert.False(t, result.HasMore)
	shops.AssertExpectations(t)
}

func TestShopService_List_MemoryMode_FiltersAndPages(t *testing.T) {
	shops := new(mockShopRepository)
	svc := newMemoryShopService(shops, new(mockLinkRepository), new(mockGachaRepository))

	shops.On("ListAll", mock.Anything).Return([]domain.Shop{
		{ID: "s1", Name: "가챠샵 홍대점", Address: "서울특별시 마포구 양화로 100"},
		{ID: "s2", Name: "캡슐월드", Address: "부산광역시 해운대구 센텀로 5"},
		{ID: "s3", Name: "가챠랜드", Address: "서울 강남구 테헤란로 20"},
	}, nil)

	result, err := svc.List(context.Background(), ShopListInput{
		Page:     1,
		Criteria: catalog.ShopCriteria{Region: "서울"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Total)
	assert.Len(t, result.Shops, 2)
	assert.False(t, result.HasMore)
}

func TestShopService_Get_WithGachas(t *testing.T) {
	shops := new(mockShopRepository)
	links := new(mockLinkRepository)
	gachas := new(mockGachaRepository)
	svc := newStoreShopService(shops, links, gachas)

	shops.On("GetByID", mock.Anything, "s1").Return(&domain.Shop{ID: "s1"}, nil)
	links.On("ListGachaIDsByShop", mock.Anything, "s1").Return([]string{"g1", "g2"}, nil)
	gachas.On("List", mock.Anything, mock.MatchedBy(func(f repository.GachaFilter) bool {
		return assert.ObjectsAreEqual([]string{"g1", "g2"}, f.IDs) && f.Limit == 2
	})).Return([]domain.Gacha{{ID: "g1"}, {ID: "g2"}}, 2, nil)

	detail, err := svc.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", detail.Shop.ID)
	assert.Len(t, detail.Gachas, 2)
}

func TestShopService_Get_NotFound(t *testing.T) {
	shops := new(mockShopRepository)
	svc := newStoreShopService(shops, new(mockLinkRepository), new(mockGachaRepository))

	shops.On("GetByID", mock.Anything, "missing").Return(nil, apperrors.NotFound("shop", "missing"))

	detail, err := svc.Get(context.Background(), "missing")
	assert.Nil(t, detail)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestShopService_Get_GachaLookupFailureDegrades(t *testing.T) {
	shops := new(mockShopRepository)
	links := new(mockLinkRepository)
	svc := newStoreShopService(shops, links, new(mockGachaRepository))

	shops.On("GetByID", mock.Anything, "s1").Return(&domain.Shop{ID: "s1"}, nil)
	links.On("ListGachaIDsByShop", mock.Anything, "s1").Return([]string{}, errors.New("down"))

	detail, err := svc.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, detail.Gachas)
}

func TestShopService_Regions_CanonicalOrderWithCounts(t *testing.T) {
	shops := new(mockShopRepository)
	svc := newStoreShopService(shops, new(mockLinkRepository), new(mockGachaRepository))

	shops.On("ListAll", mock.Anything).Return([]domain.Shop{
		{ID: "s1", Address: "제주특별자치도 제주시 연동 100"},
		{ID: "s2", Address: "서울특별시 마포구 양화로 100"},
		{ID: "s3", Address: "서울 강남구 테헤란로 20"},
		{ID: "s4", Address: "부산광역시 해운대구 센텀로 5"},
		{ID: "s5", Address: ""},
	}, nil)

	regions, err := svc.Regions(context.Background())
	require.NoError(t, err)

	require.Len(t, regions, 3)
	assert.Equal(t, RegionCount{Region: "서울", Count: 2}, regions[0])
	assert.Equal(t, RegionCount{Region: "부산", Count: 1}, regions[1])
	assert.Equal(t, RegionCount{Region: "제주", Count: 1}, regions[2])
}

func TestShopService_Regions_ListError(t *testing.T) {
	shops := new(mockShopRepository)
	svc := newStoreShopService(shops, new(mockLinkRepository), new(mockGachaRepository))

	shops.On("ListAll", mock.Anything).Return([]domain.Shop(nil), errors.New("down"))

	_, err := svc.Regions(context.Background())
	assert.Error(t, err)
}

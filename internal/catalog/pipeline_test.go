package catalog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziyoonee/gochagetcha-sub000/internal/domain"
	"github.com/ziyoonee/gochagetcha-sub000/internal/search"
)

func strPtr(s string) *string {
	return &s
}

func timePtr(t time.Time) *time.Time {
	return &t
}

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestPipeline() *Pipeline {
	p := NewPipeline(search.LocalMatcher{})
	p.now = func() time.Time { return testNow }
	return p
}

func testCollection() []domain.Gacha {
	return []domain.Gacha{
		{
			ID: "g1", Name: "Pokemon Figure", NameKo: strPtr("포켓몬 피규어"),
			Brand: "반다이", Category: "피규어", Price: 5000,
			ReleaseDate: timePtr(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)),
		},
		{
			ID: "g2", Name: "Sanrio Keyring", NameKo: strPtr("산리오 키링"),
			Brand: "타카라토미", Category: "키링", Price: 3000,
			ReleaseDate: timePtr(time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)),
		},
		{
			ID: "g3", Name: "Chiikawa Plush", NameKo: strPtr("치이카와 인형"),
			Brand: "반다이", Category: "인형", Price: 7000,
			ReleaseDate: nil,
		},
	}
}

func TestPipeline_Apply_NoCriteriaReturnsEverything(t *testing.T) {
	p := newTestPipeline()

	out := p.Apply(context.Background(), testCollection(), Criteria{}, nil)

	assert.Len(t, out, 3)
}

func TestPipeline_Apply_FiltersCombineByAND(t *testing.T) {
	p := newTestPipeline()

	out := p.Apply(context.Background(), testCollection(), Criteria{
		Brand:    "반다이",
		Category: "피규어",
	}, nil)

	require.Len(t, out, 1)
	assert.Equal(t, "g1", out[0].ID)
}

func TestPipeline_Apply_CategoryFilter(t *testing.T) {
	p := newTestPipeline()

	out := p.Apply(context.Background(), testCollection(), Criteria{Category: "키링"}, nil)

	require.Len(t, out, 1)
	assert.Equal(t, "g2", out[0].ID)
}

func TestPipeline_Apply_MonthNewWindow(t *testing.T) {
	p := newTestPipeline()

	// Only g1 (released 2026-03-01) falls inside the trailing 30 days of
	// testNow; g3 has no release date and is never new.
	out := p.Apply(context.Background(), testCollection(), Criteria{Month: "new"}, nil)

	require.Len(t, out, 1)
	assert.Equal(t, "g1", out[0].ID)
}

func TestPipeline_Apply_MonthYearMonth(t *testing.T) {
	p := newTestPipeline()

	out := p.Apply(context.Background(), testCollection(), Criteria{Month: "2026-01"}, nil)

	require.Len(t, out, 1)
	assert.Equal(t, "g2", out[0].ID)
}

func TestPipeline_Apply_UnrecognizedMonthPassesEverything(t *testing.T) {
	p := newTestPipeline()

	out := p.Apply(context.Background(), testCollection(), Criteria{Month: "2026-13"}, nil)

	assert.Len(t, out, 3)
}

func TestPipeline_Apply_OnlyAvailable(t *testing.T) {
	p := newTestPipeline()
	available := map[string]struct{}{"g2": {}, "g3": {}}

	out := p.Apply(context.Background(), testCollection(), Criteria{OnlyAvailable: true}, available)

	require.Len(t, out, 2)
	assert.Equal(t, "g2", out[0].ID)
	assert.Equal(t, "g3", out[1].ID)
}

func TestPipeline_Apply_QueryRestricts(t *testing.T) {
	p := newTestPipeline()

	out := p.Apply(context.Background(), testCollection(), Criteria{Query: "산리오"}, nil)

	require.Len(t, out, 1)
	assert.Equal(t, "g2", out[0].ID)
}

func TestPipeline_Apply_QueryAndFilterCombine(t *testing.T) {
	p := newTestPipeline()

	// 반다이 matches g1 and g3 by brand; the category filter narrows to g3.
	out := p.Apply(context.Background(), testCollection(), Criteria{
		Query:    "반다이",
		Category: "인형",
	}, nil)

	require.Len(t, out, 1)
	assert.Equal(t, "g3", out[0].ID)
}

func TestPipeline_Apply_NewestPutsNullReleaseDatesLast(t *testing.T) {
	p := newTestPipeline()

	out := p.Apply(context.Background(), testCollection(), Criteria{Sort: "newest"}, nil)

	require.Len(t, out, 3)
	assert.Equal(t, "g1", out[0].ID)
	assert.Equal(t, "g2", out[1].ID)
	assert.Equal(t, "g3", out[2].ID)
}

func TestPipeline_Apply_PriceSorts(t *testing.T) {
	p := newTestPipeline()

	low := p.Apply(context.Background(), testCollection(), Criteria{Sort: "priceLow"}, nil)
	require.Len(t, low, 3)
	assert.Equal(t, []string{"g2", "g1", "g3"}, []string{low[0].ID, low[1].ID, low[2].ID})

	high := p.Apply(context.Background(), testCollection(), Criteria{Sort: "priceHigh"}, nil)
	require.Len(t, high, 3)
	assert.Equal(t, []string{"g3", "g1", "g2"}, []string{high[0].ID, high[1].ID, high[2].ID})
}

func TestPipeline_Apply_NameSortUsesKoreanCollation(t *testing.T) {
	p := newTestPipeline()

	out := p.Apply(context.Background(), testCollection(), Criteria{Sort: "name"}, nil)

	require.Len(t, out, 3)
	// 산리오 < 치이카와 < 포켓몬 in Korean collation order.
	assert.Equal(t, "g2", out[0].ID)
	assert.Equal(t, "g3", out[1].ID)
	assert.Equal(t, "g1", out[2].ID)
}

func TestPipeline_Apply_NameSortConcurrent(t *testing.T) {
	p := newTestPipeline()
	items := testCollection()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				out := p.Apply(context.Background(), items, Criteria{Sort: "name"}, nil)
				if len(out) != 3 || out[0].ID != "g2" || out[1].ID != "g3" || out[2].ID != "g1" {
					t.Error("unexpected name sort order under concurrent use")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestPipeline_ApplyShops_RegionAndQuery(t *testing.T) {
	p := newTestPipeline()
	shops := []domain.Shop{
		{ID: "s1", Name: "가챠샵 홍대점", Address: "서울특별시 마포구 양화로 100"},
		{ID: "s2", Name: "캡슐월드", Address: "부산광역시 해운대구 센텀로 5"},
		{ID: "s3", Name: "가챠랜드", Address: "서울 강남구 테헤란로 20"},
	}

	seoul := p.ApplyShops(shops, ShopCriteria{Region: "서울"})
	assert.Len(t, seoul, 2)

	out := p.ApplyShops(shops, ShopCriteria{Region: "서울", Query: "홍대"})
	require.Len(t, out, 1)
	assert.Equal(t, "s1", out[0].ID)
}

func TestPipeline_ApplyShops_NewestSort(t *testing.T) {
	p := newTestPipeline()
	shops := []domain.Shop{
		{ID: "s1", Name: "가챠샵", CreatedAt: testNow.Add(-48 * time.Hour)},
		{ID: "s2", Name: "캡슐월드", CreatedAt: testNow},
	}

	out := p.ApplyShops(shops, ShopCriteria{Sort: "newest"})

	require.Len(t, out, 2)
	assert.Equal(t, "s2", out[0].ID)
}

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziyoonee/gochagetcha-sub000/internal/domain"
	"github.com/ziyoonee/gochagetcha-sub000/pkg/database"
)

func setupLinkRepo(t *testing.T) (*LinkRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return NewLinkRepository(mock), mock
}

func TestLinkRepository_ListGachaIDsWithShops(t *testing.T) {
	repo, mock := setupLinkRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT DISTINCT gacha_id FROM shop_gachas").
		WillReturnRows(pgxmock.NewRows([]string{"gacha_id"}).AddRow("g1").AddRow("g2"))

	ids, err := repo.ListGachaIDsWithShops(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"g1", "g2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkRepository_ListShopIDsByGacha(t *testing.T) {
	repo, mock := setupLinkRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT shop_id FROM shop_gachas WHERE gacha_id").
		WithArgs("g1").
		WillReturnRows(pgxmock.NewRows([]string{"shop_id"}).AddRow("s1"))

	ids, err := repo.ListShopIDsByGacha(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkRepository_Upsert(t *testing.T) {
	repo, mock := setupLinkRepo(t)
	defer mock.Close()

	confidence := 0.7
	source := "collector"
	seen := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	link := &domain.Link{
		ShopID:     "s1",
		GachaID:    "g1",
		Confidence: &confidence,
		Source:     &source,
		LastSeenAt: &seen,
	}

	mock.ExpectExec("INSERT INTO shop_gachas").
		WithArgs(link.ShopID, link.GachaID, link.Confidence, link.Source, link.LastSeenAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Upsert(context.Background(), link)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkRepository_Upsert_ExecError(t *testing.T) {
	repo, mock := setupLinkRepo(t)
	defer mock.Close()

	link := &domain.Link{ShopID: "s1", GachaID: "g1"}

	mock.ExpectExec("INSERT INTO shop_gachas").
		WithArgs(link.ShopID, link.GachaID, link.Confidence, link.Source, link.LastSeenAt).
		WillReturnError(errors.New("connection refused"))

	err := repo.Upsert(context.Background(), link)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "upsert link")
	assert.NoError(t, mock.ExpectationsWereMet())
}

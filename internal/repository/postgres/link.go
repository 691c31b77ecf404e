package postgres

import (
	"context"
	"fmt"

	"github.com/ziyoonee/gochagetcha-sub000/internal/domain"
)

// LinkRepository implements repository.LinkRepository using PostgreSQL.
type LinkRepository struct {
	db DBTX
}

// NewLinkRepository creates a new PostgreSQL-backed link repository.
func NewLinkRepository(db DBTX) *LinkRepository {
	return &LinkRepository{db: db}
}

// ListGachaIDsWithShops returns the distinct set of gacha ids carried by at
// least one shop. This is the bulk form of the availability join.
func (r *LinkRepository) ListGachaIDsWithShops(ctx context.Context) ([]string, error) {
	return r.scanIDs(ctx, `SELECT DISTINCT gacha_id FROM shop_gachas`)
}

// ListShopIDsByGacha returns the ids of shops carrying the given gacha.
func (r *LinkRepository) ListShopIDsByGacha(ctx context.Context, gachaID string) ([]string, error) {
	return r.scanIDs(ctx, `SELECT shop_id FROM shop_gachas WHERE gacha_id = $1`, gachaID)
}

// ListGachaIDsByShop returns the ids of gachas carried by the given shop.
func (r *LinkRepository) ListGachaIDsByShop(ctx context.Context, shopID string) ([]string, error) {
	return r.scanIDs(ctx, `SELECT gacha_id FROM shop_gachas WHERE shop_id = $1`, shopID)
}

// Upsert inserts or refreshes a link keyed on the composite (shop, gacha)
// pair. Provenance columns are overwritten on conflict.
func (r *LinkRepository) Upsert(ctx context.Context, link *domain.Link) error {
	query := `
		INSERT INTO shop_gachas (shop_id, gacha_id, confidence, source, last_seen_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (shop_id, gacha_id)
		DO UPDATE SET confidence = EXCLUDED.confidence,
		              source = EXCLUDED.source,
		              last_seen_at = EXCLUDED.last_seen_at`

	_, err := r.db.Exec(ctx, query,
		link.ShopID, link.GachaID, link.Confidence, link.Source, link.LastSeenAt,
	)
	if err != nil {
		return fmt.Errorf("upsert link: %w", err)
	}

	return nil
}

func (r *LinkRepository) scanIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query link ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan link id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate link rows: %w", err)
	}

	return ids, nil
}

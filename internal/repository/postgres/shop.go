package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ziyoonee/gochagetcha-sub000/internal/catalog"
	"github.com/ziyoonee/gochagetcha-sub000/internal/domain"
	"github.com/ziyoonee/gochagetcha-sub000/internal/repository"
	apperrors "github.com/ziyoonee/gochagetcha-sub000/pkg/errors"
)

const shopColumns = "id, name, address, latitude, longitude, phone, hours, image_url, sns_url, review_count, rating, created_at, updated_at"

// ShopRepository implements repository.ShopRepository using PostgreSQL.
type ShopRepository struct {
	db DBTX
}

// NewShopRepository creates a new PostgreSQL-backed shop repository.
func NewShopRepository(db DBTX) *ShopRepository {
	return &ShopRepository{db: db}
}

// GetByID retrieves a shop by its ID.
func (r *ShopRepository) GetByID(ctx context.Context, id string) (*domain.Shop, error) {
	query := fmt.Sprintf(`SELECT %s FROM shops WHERE id = $1`, shopColumns)

	var s domain.Shop
	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Name, &s.Address, &s.Latitude, &s.Longitude, &s.Phone,
		&s.Hours, &s.ImageURL, &s.SNSURL, &s.ReviewCount, &s.Rating,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("shop", id)
		}
		return nil, fmt.Errorf("get shop by id: %w", err)
	}

	return &s, nil
}

// List returns shops matching the given filter with the total count.
// Region matching tests the first whitespace-delimited address token against
// the same token set the listing pipeline's region derivation folds onto the
// region, so both data paths classify a shop identically.
func (r *ShopRepository) List(ctx context.Context, filter repository.ShopFilter) ([]domain.Shop, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Region != nil {
		conditions = append(conditions, fmt.Sprintf("split_part(address, ' ', 1) = ANY($%d)", argIndex))
		args = append(args, catalog.RegionTokens(*filter.Region))
		argIndex++
	}

	if filter.Query != nil {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR address ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+*filter.Query+"%")
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	order := "ORDER BY created_at DESC, id"
	if filter.Sort == domain.ShopSortName {
		order = `ORDER BY name COLLATE "ko-x-icu" ASC`
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM shops
		%s
		%s
		LIMIT $%d OFFSET $%d`,
		shopColumns, whereClause, order, argIndex, argIndex+1,
	)

	limit := filter.Limit
	if limit <= 0 {
		limit = 24
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list shops: %w", err)
	}
	defer rows.Close()

	var (
		shops      []domain.Shop
		totalCount int
	)

	for rows.Next() {
		var s domain.Shop
		if err := rows.Scan(
			&s.ID, &s.Name, &s.Address, &s.Latitude, &s.Longitude, &s.Phone,
			&s.Hours, &s.ImageURL, &s.SNSURL, &s.ReviewCount, &s.Rating,
			&s.CreatedAt, &s.UpdatedAt, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan shop row: %w", err)
		}
		shops = append(shops, s)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate shop rows: %w", err)
	}

	return shops, totalCount, nil
}

// ListAll returns the full shop collection in name order.
func (r *ShopRepository) ListAll(ctx context.Context) ([]domain.Shop, error) {
	query := fmt.Sprintf(`SELECT %s FROM shops ORDER BY name COLLATE "ko-x-icu" ASC`, shopColumns)
	return r.scanShops(ctx, query)
}

// ListByIDs returns the shops with the given ids, in name order.
func (r *ShopRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.Shop, error) {
	if len(ids) == 0 {
		return []domain.Shop{}, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM shops WHERE id = ANY($1) ORDER BY name COLLATE "ko-x-icu" ASC`, shopColumns)
	return r.scanShops(ctx, query, ids)
}

func (r *ShopRepository) scanShops(ctx context.Context, query string, args ...any) ([]domain.Shop, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query shops: %w", err)
	}
	defer rows.Close()

	var shops []domain.Shop
	for rows.Next() {
		var s domain.Shop
		if err := rows.Scan(
			&s.ID, &s.Name, &s.Address, &s.Latitude, &s.Longitude, &s.Phone,
			&s.Hours, &s.ImageURL, &s.SNSURL, &s.ReviewCount, &s.Rating,
			&s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan shop row: %w", err)
		}
		shops = append(shops, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shop rows: %w", err)
	}

	return shops, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ziyoonee/gochagetcha-sub000/internal/domain"
	"github.com/ziyoonee/gochagetcha-sub000/internal/repository"
	apperrors "github.com/ziyoonee/gochagetcha-sub000/pkg/errors"
)

const gachaColumns = "id, name, name_ko, keywords, brand, price, image_url, release_date, category, created_at, updated_at"

// GachaRepository implements repository.GachaRepository using PostgreSQL.
// The similarity queries rely on the pg_trgm extension.
type GachaRepository struct {
	db DBTX
}

// NewGachaRepository creates a new PostgreSQL-backed gacha repository.
func NewGachaRepository(db DBTX) *GachaRepository {
	return &GachaRepository{db: db}
}

// GetByID retrieves a gacha by its ID.
func (r *GachaRepository) GetByID(ctx context.Context, id string) (*domain.Gacha, error) {
	query := fmt.Sprintf(`SELECT %s FROM gachas WHERE id = $1`, gachaColumns)

	var g domain.Gacha
	err := r.db.QueryRow(ctx, query, id).Scan(
		&g.ID, &g.Name, &g.NameKo, &g.Keywords, &g.Brand, &g.Price,
		&g.ImageURL, &g.ReleaseDate, &g.Category, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("gacha", id)
		}
		return nil, fmt.Errorf("get gacha by id: %w", err)
	}

	return &g, nil
}

// List returns gachas matching the given filter with the total count.
func (r *GachaRepository) List(ctx context.Context, filter repository.GachaFilter) ([]domain.Gacha, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIndex))
		args = append(args, *filter.Category)
		argIndex++
	}

	if filter.Brand != nil {
		conditions = append(conditions, fmt.Sprintf("brand = $%d", argIndex))
		args = append(args, *filter.Brand)
		argIndex++
	}

	switch {
	case filter.Month == domain.MonthNew:
		conditions = append(conditions, "release_date >= now() - interval '30 days'")
	case domain.IsYearMonth(filter.Month):
		conditions = append(conditions, fmt.Sprintf("to_char(release_date, 'YYYY-MM') = $%d", argIndex))
		args = append(args, filter.Month)
		argIndex++
	}

	if filter.IDs != nil {
		conditions = append(conditions, fmt.Sprintf("id = ANY($%d)", argIndex))
		args = append(args, filter.IDs)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// count(*) OVER() gives the total in a single query.
	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM gachas
		%s
		%s
		LIMIT $%d OFFSET $%d`,
		gachaColumns, whereClause, orderClause(filter.Sort), argIndex, argIndex+1,
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
		return nil, 0, fmt.Errorf("list gachas: %w", err)
	}
	defer rows.Close()

	var (
		gachas     []domain.Gacha
		totalCount int
	)

	for rows.Next() {
		var g domain.Gacha
		if err := rows.Scan(
			&g.ID, &g.Name, &g.NameKo, &g.Keywords, &g.Brand, &g.Price,
			&g.ImageURL, &g.ReleaseDate, &g.Category, &g.CreatedAt, &g.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan gacha row: %w", err)
		}
		gachas = append(gachas, g)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate gacha rows: %w", err)
	}

	return gachas, totalCount, nil
}

// ListAll returns the full gacha collection in newest-first order, used to
// seed the in-memory catalog snapshot.
func (r *GachaRepository) ListAll(ctx context.Context) ([]domain.Gacha, error) {
	query := fmt.Sprintf(`SELECT %s FROM gachas ORDER BY release_date DESC NULLS LAST, id`, gachaColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list all gachas: %w", err)
	}
	defer rows.Close()

	var gachas []domain.Gacha
	for rows.Next() {
		var g domain.Gacha
		if err := rows.Scan(
			&g.ID, &g.Name, &g.NameKo, &g.Keywords, &g.Brand, &g.Price,
			&g.ImageURL, &g.ReleaseDate, &g.Category, &g.CreatedAt, &g.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan gacha row: %w", err)
		}
		gachas = append(gachas, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gacha rows: %w", err)
	}

	return gachas, nil
}

// FindIDsByText returns ids whose name, localized name, brand, or category
// contain the query as a case-insensitive substring, preserving store order.
func (r *GachaRepository) FindIDsByText(ctx context.Context, query string) ([]string, error) {
	sql := `
		SELECT id FROM gachas
		WHERE name ILIKE $1
		   OR COALESCE(name_ko, '') ILIKE $1
		   OR brand ILIKE $1
		   OR category ILIKE $1
		ORDER BY release_date DESC NULLS LAST, id`

	return r.scanIDs(ctx, sql, "%"+query+"%")
}

// FindIDsBySimilarity returns ids ranked by descending pg_trgm similarity to
// the query, above the given threshold.
func (r *GachaRepository) FindIDsBySimilarity(ctx context.Context, query string, threshold float64, limit int) ([]string, error) {
	sql := `
		SELECT id FROM gachas
		WHERE similarity(name || ' ' || COALESCE(name_ko, '') || ' ' || brand || ' ' || category, $1) > $2
		ORDER BY similarity(name || ' ' || COALESCE(name_ko, '') || ' ' || brand || ' ' || category, $1) DESC
		LIMIT $3`

	return r.scanIDs(ctx, sql, query, threshold, limit)
}

// ListCategories returns the distinct category values.
func (r *GachaRepository) ListCategories(ctx context.Context) ([]string, error) {
	return r.scanIDs(ctx, `SELECT DISTINCT category FROM gachas WHERE category <> '' ORDER BY category`)
}

// ListBrands returns the distinct brand values.
func (r *GachaRepository) ListBrands(ctx context.Context) ([]string, error) {
	return r.scanIDs(ctx, `SELECT DISTINCT brand FROM gachas WHERE brand <> '' ORDER BY brand`)
}

func (r *GachaRepository) scanIDs(ctx context.Context, sql string, args ...any) ([]string, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate id rows: %w", err)
	}

	return ids, nil
}

// orderClause maps a sort key to its ORDER BY clause. Gachas with a null
// release date sort after all dated ones under newest. Name ordering uses the
// Korean ICU collation on the localized name with canonical fallback.
func orderClause(sort string) string {
	switch sort {
	case domain.SortName:
		return `ORDER BY COALESCE(NULLIF(name_ko, ''), name) COLLATE "ko-x-icu" ASC`
	case domain.SortPriceLow:
		return "ORDER BY price ASC, id"
	case domain.SortPriceHigh:
		return "ORDER BY price DESC, id"
	default:
		return "ORDER BY release_date DESC NULLS LAST, id"
	}
}

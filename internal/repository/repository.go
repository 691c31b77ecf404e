package repository

import (
	"context"

	"github.com/ziyoonee/gochagetcha-sub000/internal/domain"
)

// GachaFilter defines filter criteria for listing gachas. All criteria
// combine by logical AND. A nil IDs slice means "no id restriction"; an
// empty non-nil slice matches nothing.
type GachaFilter struct {
	Category *string
	Brand    *string
	Month    string // "", "all", "new", or a "YYYY-MM" prefix
	IDs      []string
	Sort     string
	Offset   int
	Limit    int
}

// ShopFilter defines filter criteria for listing shops.
type ShopFilter struct {
	Region *string
	Query  *string
	Sort   string
	Offset int
	Limit  int
}

// GachaRepository defines read operations over the gacha collection.
// Writes belong to ingestion and are not part of this interface.
type GachaRepository interface {
	// GetByID retrieves a gacha by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Gacha, error)

	// List returns gachas matching the given filter along with the total count.
	List(ctx context.Context, filter GachaFilter) ([]domain.Gacha, int, error)

	// ListAll returns the complete gacha collection, used to seed the
	// in-memory catalog snapshot.
	ListAll(ctx context.Context) ([]domain.Gacha, error)

	// FindIDsByText returns ids of gachas whose name, localized name, brand,
	// or category contain the query as a case-insensitive substring,
	// preserving store order.
	FindIDsByText(ctx context.Context, query string) ([]string, error)

	// FindIDsBySimilarity returns ids ranked by descending trigram
	// similarity to the query, above the given threshold.
	FindIDsBySimilarity(ctx context.Context, query string, threshold float64, limit int) ([]string, error)

	// ListCategories returns the distinct category values.
	ListCategories(ctx context.Context) ([]string, error)

	// ListBrands returns the distinct brand values.
	ListBrands(ctx context.Context) ([]string, error)
}

// ShopRepository defines read operations over the shop collection.
type ShopRepository interface {
	// GetByID retrieves a shop by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Shop, error)

	// List returns shops matching the given filter along with the total count.
	List(ctx context.Context, filter ShopFilter) ([]domain.Shop, int, error)

	// ListAll returns the complete shop collection.
	ListAll(ctx context.Context) ([]domain.Shop, error)

	// ListByIDs returns the shops with the given ids, in name order.
	ListByIDs(ctx context.Context, ids []string) ([]domain.Shop, error)
}

// LinkRepository defines operations over the shop-gacha link relation.
type LinkRepository interface {
	// ListGachaIDsWithShops returns the distinct set of gacha ids carried by
	// at least one shop.
	ListGachaIDsWithShops(ctx context.Context) ([]string, error)

	// ListShopIDsByGacha returns the ids of shops carrying the given gacha.
	ListShopIDsByGacha(ctx context.Context, gachaID string) ([]string, error)

	// ListGachaIDsByShop returns the ids of gachas carried by the given shop.
	ListGachaIDsByShop(ctx context.Context, shopID string) ([]string, error)

	// Upsert inserts or refreshes a link keyed on the (shop, gacha) pair.
	// Used by the offline collector only.
	Upsert(ctx context.Context, link *domain.Link) error
}

package collector

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ziyoonee/gochagetcha-sub000/internal/domain"
	"github.com/ziyoonee/gochagetcha-sub000/internal/event"
	"github.com/ziyoonee/gochagetcha-sub000/internal/repository"
	"github.com/ziyoonee/gochagetcha-sub000/pkg/kafka"
)

const collectorSource = "collector"

// Publisher is the event-publishing surface the runner needs. *kafka.Producer
// satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *kafka.Event) error
}

// Runner crawls shop inventory pages, matches listings against the catalog,
// and refreshes the shop-gacha relation.
type Runner struct {
	fetcher   *Fetcher
	gachas    repository.GachaRepository
	shops     repository.ShopRepository
	links     repository.LinkRepository
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewRunner creates a collector run. publisher may be nil, in which case
// link changes are written to the store without emitting events.
func NewRunner(
	fetcher *Fetcher,
	gachas repository.GachaRepository,
	shops repository.ShopRepository,
	links repository.LinkRepository,
	publisher Publisher,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		fetcher:   fetcher,
		gachas:    gachas,
		shops:     shops,
		links:     links,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// RunOnce crawls every shop with a crawlable source page. Failures on one
// shop are logged and do not stop the run; the error count is returned.
func (r *Runner) RunOnce(ctx context.Context) (int, error) {
	shops, err := r.shops.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list shops: %w", err)
	}

	catalog, err := r.gachas.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list gachas: %w", err)
	}

	failures := 0
	for i := range shops {
		if ctx.Err() != nil {
			return failures, ctx.Err()
		}

		shop := shops[i]
		if shop.SNSURL == nil || *shop.SNSURL == "" {
			continue
		}

		if err := r.crawlShop(ctx, &shop, catalog); err != nil {
			failures++
			r.logger.WarnContext(ctx, "shop crawl failed",
				slog.String("shop_id", shop.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return failures, nil
}

func (r *Runner) crawlShop(ctx context.Context, shop *domain.Shop, catalog []domain.Gacha) error {
	page, err := r.fetcher.Fetch(ctx, *shop.SNSURL)
	if err != nil {
		return err
	}

	listings, err := ParseListings(page)
	if err != nil {
		return fmt.Errorf("parse listings: %w", err)
	}

	matched := 0
	for i := range listings {
		gachaID, confidence := matchListing(&listings[i], catalog)
		if gachaID == "" {
			continue
		}

		if err := r.upsertLink(ctx, shop.ID, gachaID, confidence); err != nil {
			return err
		}
		matched++
	}

	r.logger.InfoContext(ctx, "shop crawled",
		slog.String("shop_id", shop.ID),
		slog.Int("listings", len(listings)),
		slog.Int("matched", matched),
	)
	return nil
}

func (r *Runner) upsertLink(ctx context.Context, shopID, gachaID string, confidence float64) error {
	source := collectorSource
	seen := r.now().UTC()

	link := &domain.Link{
		ShopID:     shopID,
		GachaID:    gachaID,
		Confidence: &confidence,
		Source:     &source,
		LastSeenAt: &seen,
	}
	if err := r.links.Upsert(ctx, link); err != nil {
		return err
	}

	if r.publisher == nil {
		return nil
	}

	evt, err := kafka.NewEvent(event.TypeLinkUpserted, gachaID, "link", collectorSource, link)
	if err != nil {
		return fmt.Errorf("build link event: %w", err)
	}
	if err := r.publisher.Publish(ctx, event.TopicLinkUpserted, evt); err != nil {
		// The link is already persisted; a lost event only delays cache
		// invalidation until the TTL expires.
		r.logger.WarnContext(ctx, "link event publish failed",
			slog.String("gacha_id", gachaID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// matchListing finds the catalog gacha a listing refers to. Exact normalized
// name equality wins with full confidence; otherwise containment of the
// catalog name in the listing name matches with reduced confidence. The
// longest matching name wins ties.
func matchListing(l *Listing, catalog []domain.Gacha) (string, float64) {
	name := normalize(l.Name)
	if name == "" {
		return "", 0
	}

	bestID := ""
	bestLen := 0
	bestConfidence := 0.0
	for i := range catalog {
		for _, candidate := range []string{catalog[i].Name, deref(catalog[i].NameKo)} {
			cn := normalize(candidate)
			if cn == "" {
				continue
			}
			switch {
			case cn == name:
				return catalog[i].ID, 1.0
			case strings.Contains(name, cn) && len(cn) > bestLen:
				bestID = catalog[i].ID
				bestLen = len(cn)
				bestConfidence = 0.7
			}
		}
	}
	return bestID, bestConfidence
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

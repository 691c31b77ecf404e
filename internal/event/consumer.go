package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ziyoonee/gochagetcha-sub000/internal/cache"
	"github.com/ziyoonee/gochagetcha-sub000/internal/catalog"
	"github.com/ziyoonee/gochagetcha-sub000/internal/domain"
	"github.com/ziyoonee/gochagetcha-sub000/pkg/kafka"
)

// Topics for catalog change events.
const (
	TopicGachaUpserted = "gachagetcha.gacha.upserted"
	TopicGachaRemoved  = "gachagetcha.gacha.removed"
	TopicLinkUpserted  = "gachagetcha.link.upserted"
	TopicLinkRemoved   = "gachagetcha.link.removed"
)

// Event types carried on the topics above.
const (
	TypeGachaUpserted = "gacha.upserted"
	TypeGachaRemoved  = "gacha.removed"
	TypeLinkUpserted  = "link.upserted"
	TypeLinkRemoved   = "link.removed"
)

// CatalogConsumer applies catalog change events to the in-memory snapshot
// and the availability cache.
type CatalogConsumer struct {
	snapshot     *catalog.Snapshot
	availability *cache.Availability
	logger       *slog.Logger
}

// NewCatalogConsumer creates the catalog event consumer.
func NewCatalogConsumer(snapshot *catalog.Snapshot, availability *cache.Availability, logger *slog.Logger) *CatalogConsumer {
	return &CatalogConsumer{
		snapshot:     snapshot,
		availability: availability,
		logger:       logger,
	}
}

// HandleGachaEvent applies a gacha upsert or removal to the snapshot.
func (c *CatalogConsumer) HandleGachaEvent(ctx context.Context, event *kafka.Event) error {
	switch event.EventType {
	case TypeGachaUpserted:
		var g domain.Gacha
		if err := event.UnmarshalData(&g); err != nil {
			return fmt.Errorf("unmarshal gacha payload: %w", err)
		}
		if g.ID == "" {
			return fmt.Errorf("gacha event %s has no id", event.EventID)
		}
		c.snapshot.Upsert(g)
		c.logger.DebugContext(ctx, "snapshot updated",
			slog.String("gacha_id", g.ID),
			slog.Int("snapshot_size", c.snapshot.Len()),
		)
	case TypeGachaRemoved:
		c.snapshot.Remove(event.AggregateID)
		c.logger.DebugContext(ctx, "snapshot entry removed",
			slog.String("gacha_id", event.AggregateID),
		)
	default:
		c.logger.WarnContext(ctx, "ignoring unknown gacha event type",
			slog.String("event_type", event.EventType),
		)
	}
	return nil
}

// HandleLinkEvent invalidates the cached availability set on any change to
// the shop-gacha relation.
func (c *CatalogConsumer) HandleLinkEvent(ctx context.Context, event *kafka.Event) error {
	switch event.EventType {
	case TypeLinkUpserted, TypeLinkRemoved:
		c.availability.Invalidate(ctx)
		c.logger.DebugContext(ctx, "availability cache invalidated",
			slog.String("event_type", event.EventType),
			slog.String("aggregate_id", event.AggregateID),
		)
	default:
		c.logger.WarnContext(ctx, "ignoring unknown link event type",
			slog.String("event_type", event.EventType),
		)
	}
	return nil
}

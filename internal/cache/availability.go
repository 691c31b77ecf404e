package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/ziyoonee/gochagetcha-sub000/internal/repository"
)

const availabilityKey = "availability:gacha_ids"

// redisClient is the subset of go-redis commands the cache uses. *redis.Client
// satisfies it; tests substitute a fake built from redis.NewXxxResult values.
type redisClient interface {
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
	SAdd(ctx context.Context, key string, members ...any) *redis.IntCmd
	Expire(ctx context.Context, key string, ttl time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
}

// Availability caches the bulk availability join: the set of gacha ids
// carried by at least one shop. Misses recompute from the link relation
// through a single-flight group so concurrent callers share one store read.
// Redis failures degrade to direct store reads; the cache never turns a
// working store into an error.
type Availability struct {
	client redisClient
	links  repository.LinkRepository
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

// NewAvailability creates the availability cache. client may be nil, in
// which case every call goes straight to the link repository.
func NewAvailability(client *redis.Client, links repository.LinkRepository, ttl time.Duration, logger *slog.Logger) *Availability {
	a := &Availability{
		links:  links,
		ttl:    ttl,
		logger: logger,
	}
	if client != nil {
		a.client = client
	}
	return a
}

// AvailableSet returns the set of gacha ids with at least one shop link.
func (a *Availability) AvailableSet(ctx context.Context) (map[string]struct{}, error) {
	if a.client != nil {
		exists, err := a.client.Exists(ctx, availabilityKey).Result()
		if err == nil && exists > 0 {
			ids, err := a.client.SMembers(ctx, availabilityKey).Result()
			if err == nil {
				return toSet(ids), nil
			}
			a.logger.WarnContext(ctx, "availability cache read failed, falling back to store",
				slog.String("error", err.Error()),
			)
		} else if err != nil {
			a.logger.WarnContext(ctx, "availability cache probe failed, falling back to store",
				slog.String("error", err.Error()),
			)
		}
	}

	v, err, _ := a.group.Do(availabilityKey, func() (any, error) {
		ids, err := a.links.ListGachaIDsWithShops(ctx)
		if err != nil {
			return nil, err
		}
		a.fill(ctx, ids)
		return ids, nil
	})
	if err != nil {
		return nil, err
	}

	return toSet(v.([]string)), nil
}

// HasShops reports whether the given gacha is carried by at least one shop.
func (a *Availability) HasShops(ctx context.Context, gachaID string) (bool, error) {
	set, err := a.AvailableSet(ctx)
	if err != nil {
		return false, err
	}
	_, ok := set[gachaID]
	return ok, nil
}

// Invalidate drops the cached set. Called by the event consumer when the
// link relation changes.
func (a *Availability) Invalidate(ctx context.Context) {
	if a.client == nil {
		return
	}
	if err := a.client.Del(ctx, availabilityKey).Err(); err != nil {
		a.logger.WarnContext(ctx, "availability cache invalidation failed",
			slog.String("error", err.Error()),
		)
	}
}

func (a *Availability) fill(ctx context.Context, ids []string) {
	if a.client == nil || len(ids) == 0 {
		return
	}

	members := make([]any, len(ids))
	for i, id := range ids {
		members[i] = id
	}

	if err := a.client.SAdd(ctx, availabilityKey, members...).Err(); err != nil {
		a.logger.WarnContext(ctx, "availability cache write failed",
			slog.String("error", err.Error()),
		)
		return
	}
	if err := a.client.Expire(ctx, availabilityKey, a.ttl).Err(); err != nil {
		a.logger.WarnContext(ctx, "availability cache expire failed",
			slog.String("error", err.Error()),
		)
	}
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

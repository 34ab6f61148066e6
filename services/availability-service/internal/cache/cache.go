package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/bookavail/services/availability-service/internal/availability"
	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "bookavail"

// Availability caches generated availability in Redis. Every customer has a generation
// counter that is part of each key; Invalidate bumps it so older entries are never read
// again and simply expire.
type Availability struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewAvailability(rdb *redis.Client, ttl time.Duration) *Availability {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Availability{rdb: rdb, ttl: ttl, prefix: defaultPrefix}
}

func (c *Availability) Key(ctx context.Context, customerID, fingerprint string) (string, error) {
	gen, err := c.rdb.Get(ctx, c.generationKey(customerID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return strings.Join([]string{c.prefix, "availability", customerID, strconv.FormatInt(gen, 10), fingerprint}, ":"), nil
}

func (c *Availability) Get(ctx context.Context, key string) ([]availability.AvailabilityDay, bool, error) {
	var days []availability.AvailabilityDay
	ok, err := getJSON(ctx, c.rdb, key, &days)
	if err != nil || !ok {
		return nil, false, err
	}
	if days == nil {
		days = []availability.AvailabilityDay{}
	}
	return days, true, nil
}

func (c *Availability) Set(ctx context.Context, key string, days []availability.AvailabilityDay) error {
	return setJSON(ctx, c.rdb, key, days, c.ttl)
}

// Invalidate makes every cached result of the given customers unreachable.
func (c *Availability) Invalidate(ctx context.Context, customerIDs ...string) error {
	if len(customerIDs) == 0 {
		return nil
	}
	_, err := c.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for _, id := range customerIDs {
			p.Incr(ctx, c.generationKey(id))
		}
		return nil
	})
	return err
}

func (c *Availability) generationKey(customerID string) string {
	return c.prefix + ":availability-gen:" + customerID
}

func getJSON(ctx context.Context, rdb *redis.Client, key string, dst any) (bool, error) {
	raw, err := rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

func setJSON(ctx context.Context, rdb *redis.Client, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, raw, ttl).Err()
}

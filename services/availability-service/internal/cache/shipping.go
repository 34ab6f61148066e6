package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/bookavail/services/availability-service/internal/availability"
	"github.com/redis/go-redis/v9"
)

// ShippingTTL matches how long shipping quotes stay valid upstream.
const ShippingTTL = time.Hour

// Shipping is a read-through cache in front of a shipping lookup.
// Redis failures fall back to the wrapped lookup.
type Shipping struct {
	next   availability.ShippingLookup
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewShipping(next availability.ShippingLookup, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *Shipping {
	if ttl <= 0 {
		ttl = ShippingTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Shipping{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

func (s *Shipping) GetShipping(ctx context.Context, shippingID string) (availability.Shipping, error) {
	key := defaultPrefix + ":shipping:" + shippingID

	var cached availability.Shipping
	ok, err := getJSON(ctx, s.rdb, key, &cached)
	if err != nil {
		s.logger.WarnContext(ctx, "shipping cache read failed", "shipping_id", shippingID, "err", err)
	}
	if ok {
		return cached, nil
	}

	sh, err := s.next.GetShipping(ctx, shippingID)
	if err != nil {
		return availability.Shipping{}, err
	}
	if err := setJSON(ctx, s.rdb, key, sh, s.ttl); err != nil {
		s.logger.WarnContext(ctx, "shipping cache write failed", "shipping_id", shippingID, "err", err)
	}
	return sh, nil
}

package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/bookavail/services/availability-service/internal/consumer"
	"github.com/md-rashed-zaman/bookavail/services/availability-service/internal/metrics"
	"github.com/md-rashed-zaman/bookavail/services/availability-service/internal/storage"
	"github.com/segmentio/kafka-go"
)

const (
	EventCreated   = "order.created"
	EventCancelled = "order.cancelled"
)

type Store interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	UpsertRanges(ctx context.Context, tx pgx.Tx, ranges []storage.BookedRange) error
	DeleteOrder(ctx context.Context, tx pgx.Tx, orderID string) ([]string, error)
	MarkCancelled(ctx context.Context, tx pgx.Tx, orderID string, at time.Time) error
	IsCancelled(ctx context.Context, tx pgx.Tx, orderID string) (bool, error)
}

// Invalidator drops cached availability of customers whose bookings changed.
type Invalidator interface {
	Invalidate(ctx context.Context, customerIDs ...string) error
}

// Processor applies order events to the booked ranges table.
type Processor struct {
	store   Store
	cache   Invalidator
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewProcessor(store Store, cache Invalidator, m *metrics.Metrics, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{store: store, cache: cache, metrics: m, logger: logger, now: time.Now}
}

// HandleCreated replaces the booked ranges of the order. Replaying an updated order
// therefore moves its bookings instead of duplicating them. Orders that carry
// cancelled_at, or whose cancellation was already consumed, book nothing.
func (p *Processor) HandleCreated(ctx context.Context, msg kafka.Message) error {
	err := p.handleCreated(ctx, msg)
	p.observe(EventCreated, err)
	return err
}

func (p *Processor) handleCreated(ctx context.Context, msg kafka.Message) error {
	order, err := decode(msg)
	if err != nil {
		return err
	}
	if order.CancelledAt != nil {
		return p.release(ctx, order, *order.CancelledAt)
	}
	ranges, err := ParseBookedRanges(order)
	if err != nil {
		return consumer.Permanent(fmt.Errorf("order %s: %w", order.ID, err))
	}

	var affected []string
	var cancelled bool
	err = p.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		cancelled, err = p.store.IsCancelled(ctx, tx, string(order.ID))
		if err != nil {
			return err
		}
		previous, err := p.store.DeleteOrder(ctx, tx, string(order.ID))
		if err != nil {
			return err
		}
		affected = previous
		if cancelled {
			return nil
		}
		if err := p.store.UpsertRanges(ctx, tx, ranges); err != nil {
			return err
		}
		for _, r := range ranges {
			affected = appendUnique(affected, r.CustomerID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if cancelled {
		p.logger.InfoContext(ctx, "created event for cancelled order ignored", "order_id", order.ID)
	} else {
		p.logger.InfoContext(ctx, "order bookings stored", "order_id", order.ID, "ranges", len(ranges))
	}
	p.invalidate(ctx, affected)
	return nil
}

func (p *Processor) HandleCancelled(ctx context.Context, msg kafka.Message) error {
	err := p.handleCancelled(ctx, msg)
	p.observe(EventCancelled, err)
	return err
}

func (p *Processor) handleCancelled(ctx context.Context, msg kafka.Message) error {
	order, err := decode(msg)
	if err != nil {
		return err
	}
	at := p.now().UTC()
	if order.CancelledAt != nil {
		at = *order.CancelledAt
	}
	return p.release(ctx, order, at)
}

// release drops the order's ranges and records the cancellation in one transaction.
func (p *Processor) release(ctx context.Context, order Order, at time.Time) error {
	if order.ID == "" {
		return consumer.Permanent(fmt.Errorf("cancelled order without id"))
	}

	var affected []string
	err := p.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		affected, err = p.store.DeleteOrder(ctx, tx, string(order.ID))
		if err != nil {
			return err
		}
		return p.store.MarkCancelled(ctx, tx, string(order.ID), at)
	})
	if err != nil {
		return err
	}

	p.logger.InfoContext(ctx, "order bookings released", "order_id", order.ID, "customers", len(affected))
	p.invalidate(ctx, affected)
	return nil
}

func decode(msg kafka.Message) (Order, error) {
	var order Order
	if err := json.Unmarshal(msg.Value, &order); err != nil {
		return Order{}, consumer.Permanent(fmt.Errorf("decode order: %w", err))
	}
	return order, nil
}

func (p *Processor) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := p.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// The ranges are committed at this point; a failed invalidation only leaves results
// stale until the cache ttl runs out.
func (p *Processor) invalidate(ctx context.Context, customerIDs []string) {
	if p.cache == nil || len(customerIDs) == 0 {
		return
	}
	if err := p.cache.Invalidate(ctx, customerIDs...); err != nil {
		p.logger.ErrorContext(ctx, "availability cache invalidation failed", "customers", customerIDs, "err", err)
	}
}

func (p *Processor) observe(eventType string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	p.metrics.ObserveOrderEvent(eventType, status)
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/bookavail/services/availability-service/internal/availability"
)

// BookedRange is the time taken by one line item of a commerce order.
type BookedRange struct {
	OrderID    string
	LineItemID string
	CustomerID string
	Start      time.Time
	End        time.Time
}

type OrderRepository struct {
	db Querier
}

func NewOrderRepository(db Querier) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.db.Begin(ctx)
}

func (r *OrderRepository) GetBookedRanges(ctx context.Context, customerID string, start, end time.Time) ([]availability.Interval, error) {
	rows, err := r.db.Query(ctx, `
		SELECT start_time, end_time
		FROM booked_ranges
		WHERE customer_id = $1
			AND start_time < $3
			AND end_time > $2
		ORDER BY start_time ASC
	`, customerID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIntervals(rows)
}

func (r *OrderRepository) UpsertRanges(ctx context.Context, tx pgx.Tx, ranges []BookedRange) error {
	for _, br := range ranges {
		_, err := tx.Exec(ctx, `
			INSERT INTO booked_ranges (order_id, line_item_id, customer_id, start_time, end_time)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (order_id, line_item_id) DO UPDATE
			SET customer_id = EXCLUDED.customer_id,
				start_time = EXCLUDED.start_time,
				end_time = EXCLUDED.end_time
		`, br.OrderID, br.LineItemID, br.CustomerID, br.Start, br.End)
		if err != nil {
			return err
		}
	}
	return nil
}

// DeleteOrder removes every range of the order and returns the customers it belonged to.
func (r *OrderRepository) DeleteOrder(ctx context.Context, tx pgx.Tx, orderID string) ([]string, error) {
	rows, err := tx.Query(ctx, `
		DELETE FROM booked_ranges
		WHERE order_id = $1
		RETURNING customer_id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := map[string]struct{}{}
	var customers []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		customers = append(customers, id)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return customers, nil
}

// MarkCancelled remembers that the order was cancelled so a late or replayed created
// event cannot book its ranges again.
func (r *OrderRepository) MarkCancelled(ctx context.Context, tx pgx.Tx, orderID string, at time.Time) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO cancelled_orders (order_id, cancelled_at)
		VALUES ($1, $2)
		ON CONFLICT (order_id) DO NOTHING
	`, orderID, at)
	return err
}

func (r *OrderRepository) IsCancelled(ctx context.Context, tx pgx.Tx, orderID string) (bool, error) {
	var cancelled bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM cancelled_orders WHERE order_id = $1)
	`, orderID).Scan(&cancelled)
	return cancelled, err
}

func scanIntervals(rows pgx.Rows) ([]availability.Interval, error) {
	var out []availability.Interval
	for rows.Next() {
		var iv availability.Interval
		if err := rows.Scan(&iv.From, &iv.To); err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

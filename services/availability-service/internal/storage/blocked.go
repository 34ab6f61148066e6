package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/bookavail/services/availability-service/internal/availability"
)

type BlockedRange struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customerId"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type BlockedRepository struct {
	db Querier
}

func NewBlockedRepository(db Querier) *BlockedRepository {
	return &BlockedRepository{db: db}
}

func (r *BlockedRepository) GetBlockedRanges(ctx context.Context, customerID string, start, end time.Time) ([]availability.Interval, error) {
	rows, err := r.db.Query(ctx, `
		SELECT start_time, end_time
		FROM blocked_ranges
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

func (r *BlockedRepository) Create(ctx context.Context, customerID string, start, end time.Time, reason string) (string, error) {
	id := uuid.NewString()
	_, err := r.db.Exec(ctx, `
		INSERT INTO blocked_ranges (id, customer_id, start_time, end_time, reason)
		VALUES ($1, $2, $3, $4, $5)
	`, id, customerID, start, end, reason)
	if err != nil {
		return "", err
	}
	return id, nil
}

// List returns blocked ranges ending after since, oldest first.
func (r *BlockedRepository) List(ctx context.Context, customerID string, since time.Time, limit int) ([]BlockedRange, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, customer_id, start_time, end_time, reason, created_at
		FROM blocked_ranges
		WHERE customer_id = $1
			AND end_time > $2
		ORDER BY start_time ASC
		LIMIT $3
	`, customerID, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BlockedRange
	for rows.Next() {
		var b BlockedRange
		if err := rows.Scan(&b.ID, &b.CustomerID, &b.Start, &b.End, &b.Reason, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *BlockedRepository) Delete(ctx context.Context, customerID, id string) error {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM blocked_ranges
		WHERE customer_id = $1
			AND id = $2
	`, customerID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return availability.NotFound("blocked range", id)
	}
	return nil
}

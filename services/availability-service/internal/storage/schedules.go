package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/bookavail/services/availability-service/internal/availability"
)

type ScheduleRepository struct {
	db Querier
}

func NewScheduleRepository(db Querier) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// GetScheduleWithProducts returns the most recently updated schedule of the customer
// offering any of productIDs, with only those products loaded.
func (r *ScheduleRepository) GetScheduleWithProducts(ctx context.Context, customerID string, productIDs []string) (availability.Schedule, error) {
	var s availability.Schedule
	var slotsJSON []byte
	err := r.db.QueryRow(ctx, `
		SELECT s.id, s.customer_id, s.name, s.timezone, s.slots
		FROM schedules s
		WHERE s.customer_id = $1
			AND EXISTS (
				SELECT 1 FROM schedule_products p
				WHERE p.schedule_id = s.id AND p.product_id = ANY($2)
			)
		ORDER BY s.updated_at DESC
		LIMIT 1
	`, customerID, productIDs).Scan(&s.ID, &s.CustomerID, &s.Name, &s.Timezone, &slotsJSON)
	if IsNotFound(err) {
		return availability.Schedule{}, availability.NotFound("schedule for customer", customerID)
	}
	if err != nil {
		return availability.Schedule{}, err
	}
	if err := json.Unmarshal(slotsJSON, &s.Slots); err != nil {
		return availability.Schedule{}, fmt.Errorf("decode slots of schedule %s: %w", s.ID, err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT product_id, variant_id, price, duration_mins, break_time_mins,
			notice_value, notice_unit, booking_value, booking_unit, options
		FROM schedule_products
		WHERE schedule_id = $1
			AND product_id = ANY($2)
		ORDER BY position ASC
	`, s.ID, productIDs)
	if err != nil {
		return availability.Schedule{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var p availability.Product
		var noticeUnit, bookingUnit string
		var optionsJSON []byte
		if err := rows.Scan(
			&p.ProductID,
			&p.VariantID,
			&p.Price,
			&p.Duration,
			&p.BreakTime,
			&p.NoticePeriod.Value,
			&noticeUnit,
			&p.BookingPeriod.Value,
			&bookingUnit,
			&optionsJSON,
		); err != nil {
			return availability.Schedule{}, err
		}
		p.NoticePeriod.Unit = availability.TimeUnit(noticeUnit)
		p.BookingPeriod.Unit = availability.TimeUnit(bookingUnit)
		if len(optionsJSON) > 0 {
			if err := json.Unmarshal(optionsJSON, &p.Options); err != nil {
				return availability.Schedule{}, fmt.Errorf("decode options of product %s: %w", p.ProductID, err)
			}
		}
		s.Products = append(s.Products, p)
	}
	if rows.Err() != nil {
		return availability.Schedule{}, rows.Err()
	}
	return s, nil
}

// UpsertSchedule replaces the schedule's slots and products. A schedule id already
// owned by another customer is reported as not found.
func (r *ScheduleRepository) UpsertSchedule(ctx context.Context, s availability.Schedule) error {
	slotsJSON, err := json.Marshal(s.Slots)
	if err != nil {
		return err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		INSERT INTO schedules (id, customer_id, name, timezone, slots, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
			timezone = EXCLUDED.timezone,
			slots = EXCLUDED.slots,
			updated_at = now()
		WHERE schedules.customer_id = EXCLUDED.customer_id
	`, s.ID, s.CustomerID, s.Name, s.Timezone, slotsJSON)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return availability.NotFound("schedule", s.ID)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM schedule_products WHERE schedule_id = $1`, s.ID); err != nil {
		return err
	}
	for i, p := range s.Products {
		if err := insertProduct(ctx, tx, s.ID, i, p); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func insertProduct(ctx context.Context, tx pgx.Tx, scheduleID string, position int, p availability.Product) error {
	options := p.Options
	if options == nil {
		options = []availability.ProductOption{}
	}
	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO schedule_products (
			schedule_id, product_id, variant_id, price, duration_mins, break_time_mins,
			notice_value, notice_unit, booking_value, booking_unit, options, position
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, scheduleID, p.ProductID, p.VariantID, p.Price, p.Duration, p.BreakTime,
		p.NoticePeriod.Value, string(p.NoticePeriod.Unit), p.BookingPeriod.Value, string(p.BookingPeriod.Unit),
		optionsJSON, position)
	return err
}

package storage

import (
	"context"

	"github.com/md-rashed-zaman/bookavail/services/availability-service/internal/availability"
)

type ShippingRepository struct {
	db Querier
}

func NewShippingRepository(db Querier) *ShippingRepository {
	return &ShippingRepository{db: db}
}

func (r *ShippingRepository) GetShipping(ctx context.Context, shippingID string) (availability.Shipping, error) {
	var s availability.Shipping
	err := r.db.QueryRow(ctx, `
		SELECT id, destination, cost, distance, duration_mins
		FROM shippings
		WHERE id = $1
	`, shippingID).Scan(&s.ID, &s.Destination, &s.Cost, &s.Distance, &s.Duration)
	if IsNotFound(err) {
		return availability.Shipping{}, availability.NotFound("shipping", shippingID)
	}
	if err != nil {
		return availability.Shipping{}, err
	}
	return s, nil
}

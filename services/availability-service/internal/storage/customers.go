package storage

import (
	"context"

	"github.com/md-rashed-zaman/bookavail/services/availability-service/internal/availability"
)

type CustomerRepository struct {
	db Querier
}

func NewCustomerRepository(db Querier) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) GetCustomer(ctx context.Context, customerID string) (availability.Customer, error) {
	return r.getBy(ctx, "id", customerID)
}

func (r *CustomerRepository) GetCustomerByUsername(ctx context.Context, username string) (availability.Customer, error) {
	return r.getBy(ctx, "username", username)
}

func (r *CustomerRepository) getBy(ctx context.Context, column, value string) (availability.Customer, error) {
	var c availability.Customer
	err := r.db.QueryRow(ctx, `
		SELECT id, username, fullname, timezone
		FROM customers
		WHERE `+column+` = $1
	`, value).Scan(&c.ID, &c.Username, &c.Fullname, &c.Timezone)
	if IsNotFound(err) {
		return availability.Customer{}, availability.NotFound("customer", value)
	}
	if err != nil {
		return availability.Customer{}, err
	}
	return c, nil
}

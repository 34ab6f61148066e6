package storage

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/bookavail/services/availability-service/internal/availability"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestCustomerRepository_GetByUsername(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("FROM customers").
		WithArgs("jane").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "fullname", "timezone"}).
			AddRow("c1", "jane", "Jane Doe", "Europe/Copenhagen"))

	c, err := NewCustomerRepository(mock).GetCustomerByUsername(context.Background(), "jane")
	require.NoError(t, err)
	assert.Equal(t, availability.Customer{ID: "c1", Username: "jane", Fullname: "Jane Doe", Timezone: "Europe/Copenhagen"}, c)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepository_NotFound(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("FROM customers").WithArgs("nobody").WillReturnError(pgx.ErrNoRows)

	_, err := NewCustomerRepository(mock).GetCustomer(context.Background(), "nobody")
	require.ErrorIs(t, err, availability.ErrNotFound)
}

func TestScheduleRepository_GetScheduleWithProducts(t *testing.T) {
	mock := newMock(t)
	ids := []string{"p1", "missing"}

	mock.ExpectQuery("FROM schedules s").
		WithArgs("c1", ids).
		WillReturnRows(pgxmock.NewRows([]string{"id", "customer_id", "name", "timezone", "slots"}).
			AddRow("s1", "c1", "Main", "UTC", []byte(`[{"day":"monday","intervals":[{"from":"09:00","to":"12:00"}]}]`)))
	mock.ExpectQuery("FROM schedule_products").
		WithArgs("s1", ids).
		WillReturnRows(pgxmock.NewRows([]string{
			"product_id", "variant_id", "price", "duration_mins", "break_time_mins",
			"notice_value", "notice_unit", "booking_value", "booking_unit", "options",
		}).AddRow("p1", "v1", 45.0, 60, 15, 1, "hours", 2, "months",
			[]byte(`[{"productId":"p1-opt","variants":[{"variantId":"quick","price":10,"duration":30}]}]`)))

	s, err := NewScheduleRepository(mock).GetScheduleWithProducts(context.Background(), "c1", ids)
	require.NoError(t, err)
	assert.Equal(t, "s1", s.ID)
	require.Len(t, s.Slots, 1)
	assert.Equal(t, availability.Monday, s.Slots[0].Day)
	assert.Equal(t, "09:00", s.Slots[0].Intervals[0].From.String())

	require.Len(t, s.Products, 1)
	p := s.Products[0]
	assert.Equal(t, 60, p.Duration)
	assert.Equal(t, 15, p.BreakTime)
	assert.Equal(t, availability.Period{Value: 1, Unit: availability.Hours}, p.NoticePeriod)
	assert.Equal(t, availability.Period{Value: 2, Unit: availability.Months}, p.BookingPeriod)
	require.Len(t, p.Options, 1)
	assert.Equal(t, "quick", p.Options[0].Variants[0].VariantID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepository_NoSchedule(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("FROM schedules s").WithArgs("c1", []string{"p1"}).WillReturnError(pgx.ErrNoRows)

	_, err := NewScheduleRepository(mock).GetScheduleWithProducts(context.Background(), "c1", []string{"p1"})
	require.ErrorIs(t, err, availability.ErrNotFound)
}

func TestScheduleRepository_UpsertSchedule(t *testing.T) {
	mock := newMock(t)
	s := availability.Schedule{
		ID:         "s1",
		CustomerID: "c1",
		Name:       "Main",
		Timezone:   "UTC",
		Products: []availability.Product{{
			ProductID:     "p1",
			Duration:      30,
			NoticePeriod:  availability.Period{Value: 1, Unit: availability.Hours},
			BookingPeriod: availability.Period{Value: 1, Unit: availability.Months},
		}},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO schedules").
		WithArgs("s1", "c1", "Main", "UTC", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("DELETE FROM schedule_products").WithArgs("s1").WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec("INSERT INTO schedule_products").
		WithArgs("s1", "p1", "", 0.0, 30, 0, 1, "hours", 1, "months", pgxmock.AnyArg(), 0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, NewScheduleRepository(mock).UpsertSchedule(context.Background(), s))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepository_UpsertForeignSchedule(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO schedules").
		WithArgs("s1", "intruder", "", "", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectRollback()

	err := NewScheduleRepository(mock).UpsertSchedule(context.Background(), availability.Schedule{ID: "s1", CustomerID: "intruder"})
	require.ErrorIs(t, err, availability.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetBookedRanges(t *testing.T) {
	mock := newMock(t)
	start := time.Date(2026, 1, 26, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 23, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM booked_ranges").
		WithArgs("c1", start, end).
		WillReturnRows(pgxmock.NewRows([]string{"start_time", "end_time"}).
			AddRow(start, start.Add(time.Hour)).
			AddRow(start.AddDate(0, 0, 7), start.AddDate(0, 0, 7).Add(30*time.Minute)))

	ranges, err := NewOrderRepository(mock).GetBookedRanges(context.Background(), "c1", start, end)
	require.NoError(t, err)
	require.Len(t, ranges, 2)
	assert.Equal(t, availability.Interval{From: start, To: start.Add(time.Hour)}, ranges[0])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_DeleteOrder(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery("DELETE FROM booked_ranges").
		WithArgs("order-1").
		WillReturnRows(pgxmock.NewRows([]string{"customer_id"}).AddRow("c1").AddRow("c1").AddRow("c2"))
	mock.ExpectCommit()

	repo := NewOrderRepository(mock)
	tx, err := repo.Begin(context.Background())
	require.NoError(t, err)
	customers, err := repo.DeleteOrder(context.Background(), tx, "order-1")
	require.NoError(t, err)
	require.NoError(t, tx.Commit(context.Background()))

	assert.Equal(t, []string{"c1", "c2"}, customers)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBlockedRepository_CreateAndDelete(t *testing.T) {
	mock := newMock(t)
	start := time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	mock.ExpectExec("INSERT INTO blocked_ranges").
		WithArgs(pgxmock.AnyArg(), "c1", start, end, "dentist").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("DELETE FROM blocked_ranges").
		WithArgs("c1", "b-unknown").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	repo := NewBlockedRepository(mock)
	id, err := repo.Create(context.Background(), "c1", start, end, "dentist")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	err = repo.Delete(context.Background(), "c1", "b-unknown")
	require.ErrorIs(t, err, availability.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShippingRepository_GetShipping(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("FROM shippings").
		WithArgs("ship-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "destination", "cost", "distance", "duration_mins"}).
			AddRow("ship-1", "Aarhus", 15.5, 8.2, 20))

	s, err := NewShippingRepository(mock).GetShipping(context.Background(), "ship-1")
	require.NoError(t, err)
	assert.Equal(t, availability.Shipping{ID: "ship-1", Destination: "Aarhus", Cost: 15.5, Distance: 8.2, Duration: 20}, s)
}

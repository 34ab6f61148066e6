package availability

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/bookavail/services/availability-service/internal/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("bookavail.availability")

type CustomerStore interface {
	GetCustomer(ctx context.Context, customerID string) (Customer, error)
	GetCustomerByUsername(ctx context.Context, username string) (Customer, error)
}

// ScheduleStore returns the customer's schedule holding the requested products,
// restricted to those products and their options.
type ScheduleStore interface {
	GetScheduleWithProducts(ctx context.Context, customerID string, productIDs []string) (Schedule, error)
}

type OrderStore interface {
	GetBookedRanges(ctx context.Context, customerID string, start, end time.Time) ([]Interval, error)
}

type BlockedStore interface {
	GetBlockedRanges(ctx context.Context, customerID string, start, end time.Time) ([]Interval, error)
}

type ShippingLookup interface {
	GetShipping(ctx context.Context, shippingID string) (Shipping, error)
}

// ResultCache stores computed availability. Key scopes a request fingerprint to the
// customer's current data, so entries written before the customer's bookings, blocks
// or schedule changed are never returned.
type ResultCache interface {
	Key(ctx context.Context, customerID, fingerprint string) (string, error)
	Get(ctx context.Context, key string) ([]AvailabilityDay, bool, error)
	Set(ctx context.Context, key string, days []AvailabilityDay) error
}

type Request struct {
	CustomerID string            `json:"customerId,omitempty"`
	Username   string            `json:"username,omitempty"`
	ProductIDs []string          `json:"productIds"`
	OptionIDs  map[string]string `json:"optionIds,omitempty"`
	FromDate   string            `json:"fromDate,omitempty"`
	ShippingID string            `json:"shippingId,omitempty"`
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.CustomerID) == "" && strings.TrimSpace(r.Username) == "" {
		return invalid("customerId", "customerId or username is required")
	}
	if len(r.ProductIDs) == 0 {
		return invalid("productIds", "at least one product is required")
	}
	for i, id := range r.ProductIDs {
		if strings.TrimSpace(id) == "" {
			return invalid("productIds", "entry %d is empty", i)
		}
	}
	return nil
}

type Deps struct {
	Customers CustomerStore
	Schedules ScheduleStore
	Orders    OrderStore
	Blocked   BlockedStore
	// Shipping and Cache are optional.
	Shipping ShippingLookup
	Cache    ResultCache
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
	Now      func() time.Time
}

// Service generates availability for one customer per call. It holds no per-request
// state and is safe for concurrent use.
type Service struct {
	customers CustomerStore
	schedules ScheduleStore
	orders    OrderStore
	blocked   BlockedStore
	shipping  ShippingLookup
	cache     ResultCache
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(d Deps) *Service {
	if d.Customers == nil || d.Schedules == nil || d.Orders == nil || d.Blocked == nil {
		panic("availability: customer, schedule, order and blocked stores are required")
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Service{
		customers: d.Customers,
		schedules: d.Schedules,
		orders:    d.Orders,
		blocked:   d.Blocked,
		shipping:  d.Shipping,
		cache:     d.Cache,
		metrics:   d.Metrics,
		logger:    d.Logger,
		now:       d.Now,
	}
}

// Generate returns the days on which at least one requested product can be booked.
// A missing customer or schedule yields ErrNotFound; requested products absent from
// the schedule are skipped.
func (s *Service) Generate(ctx context.Context, req Request) ([]AvailabilityDay, error) {
	ctx, span := tracer.Start(ctx, "availability.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("bookavail.customer_id", req.CustomerID),
		attribute.String("bookavail.username", req.Username),
		attribute.Int("bookavail.products", len(req.ProductIDs)),
	)

	start := time.Now()
	days, err := s.generate(ctx, req)
	outcome := "ok"
	switch {
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, ErrValidation):
		outcome = "invalid"
	case err != nil:
		outcome = "error"
	}
	s.metrics.ObserveGenerate(outcome, time.Since(start).Seconds(), len(days))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("bookavail.days", len(days)))
	return days, nil
}

func (s *Service) generate(ctx context.Context, req Request) ([]AvailabilityDay, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	customer, err := s.resolveCustomer(ctx, req)
	if err != nil {
		return nil, err
	}
	schedule, err := s.schedules.GetScheduleWithProducts(ctx, customer.ID, req.ProductIDs)
	if err != nil {
		return nil, err
	}
	loc, err := schedule.Location(customer.Timezone)
	if err != nil {
		return nil, err
	}
	now := nextMinute(s.now().In(loc))
	fromDate, err := ParseFromDate(req.FromDate, loc, now)
	if err != nil {
		return nil, err
	}

	key := s.cacheKey(ctx, customer.ID, fingerprint(req, fromDate, now))
	if cached, ok := s.cachedDays(ctx, key); ok {
		return cached, nil
	}

	products := ResolveProducts(req.ProductIDs, req.OptionIDs, schedule.Products)
	base, options := CountSources(products)
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("bookavail.resolved.base", base),
		attribute.Int("bookavail.resolved.options", options),
	)
	horizon, ok := Horizon(products, now, fromDate)
	if !ok {
		s.logger.DebugContext(ctx, "no bookable window", "customer_id", customer.ID, "products", len(products))
		return []AvailabilityDay{}, nil
	}
	raw := GenerateSlots(Expand(schedule.Slots, horizon, loc), products, now, fromDate)
	if len(raw) == 0 {
		return []AvailabilityDay{}, nil
	}
	bounds, _ := Span(raw)

	var booked, blocked []Interval
	var shipping *Shipping
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		booked, err = s.orders.GetBookedRanges(gctx, customer.ID, bounds.From, bounds.To)
		return err
	})
	g.Go(func() error {
		var err error
		blocked, err = s.blocked.GetBlockedRanges(gctx, customer.ID, bounds.From, bounds.To)
		return err
	})
	if req.ShippingID != "" && s.shipping != nil {
		g.Go(func() error {
			sh, err := s.shipping.GetShipping(gctx, req.ShippingID)
			if errors.Is(err, ErrNotFound) {
				s.logger.WarnContext(gctx, "shipping not found", "shipping_id", req.ShippingID)
				return nil
			}
			if err != nil {
				return err
			}
			shipping = &sh
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.WarnContext(ctx, "availability store fetch failed", "customer_id", customer.ID, "err", err)
		return nil, err
	}
	s.logger.DebugContext(ctx, "subtracting taken ranges",
		"customer_id", customer.ID,
		"raw_days", len(raw),
		"booked", len(booked),
		"blocked", len(blocked),
	)

	days := RemoveBookedSlots(raw, booked)
	days = RemoveBookedSlots(days, blocked)
	days = FilterEmptyDays(days)

	info := Customer{ID: customer.ID, Fullname: customer.Fullname}
	for i := range days {
		days[i].Customer = info
		days[i].Shipping = shipping
	}

	if key != "" {
		if err := s.cache.Set(ctx, key, days); err != nil {
			s.logger.WarnContext(ctx, "availability cache write failed", "customer_id", customer.ID, "err", err)
		}
	}
	return days, nil
}

func (s *Service) resolveCustomer(ctx context.Context, req Request) (Customer, error) {
	if id := strings.TrimSpace(req.CustomerID); id != "" {
		return s.customers.GetCustomer(ctx, id)
	}
	return s.customers.GetCustomerByUsername(ctx, strings.TrimSpace(req.Username))
}

// cacheKey returns "" when caching is disabled or unavailable.
func (s *Service) cacheKey(ctx context.Context, customerID, fp string) string {
	if s.cache == nil {
		return ""
	}
	key, err := s.cache.Key(ctx, customerID, fp)
	if err != nil {
		s.logger.WarnContext(ctx, "availability cache key failed", "customer_id", customerID, "err", err)
		return ""
	}
	return key
}

func (s *Service) cachedDays(ctx context.Context, key string) ([]AvailabilityDay, bool) {
	if key == "" {
		return nil, false
	}
	days, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "availability cache read failed", "err", err)
		return nil, false
	}
	s.metrics.ObserveCacheLookup(ok)
	return days, ok
}

// ParseFromDate accepts an RFC 3339 timestamp or a YYYY-MM-DD date taken as midnight in loc.
// An empty value means now.
func ParseFromDate(raw string, loc *time.Location, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.In(loc), nil
	}
	if t, err := time.ParseInLocation(dateLayout, raw, loc); err == nil {
		return t, nil
	}
	return time.Time{}, invalid("fromDate", "%q is neither RFC 3339 nor YYYY-MM-DD", raw)
}

// nextMinute rounds t up to a whole minute so that notice periods are never shortened
// and results stay stable within a minute.
func nextMinute(t time.Time) time.Time {
	r := t.Truncate(time.Minute)
	if r.Before(t) {
		r = r.Add(time.Minute)
	}
	return r
}

func fingerprint(req Request, fromDate, now time.Time) string {
	optionKeys := make([]string, 0, len(req.OptionIDs))
	for k := range req.OptionIDs {
		optionKeys = append(optionKeys, k)
	}
	sort.Strings(optionKeys)

	var b strings.Builder
	b.WriteString(strings.Join(req.ProductIDs, ","))
	b.WriteByte('|')
	for _, k := range optionKeys {
		b.WriteString(k + "=" + req.OptionIDs[k] + ",")
	}
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(fromDate.Unix(), 10))
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(now.Unix(), 10))
	b.WriteByte('|')
	b.WriteString(req.ShippingID)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

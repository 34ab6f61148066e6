package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/md-rashed-zaman/bookavail/libs/auth"
	"github.com/md-rashed-zaman/bookavail/libs/db"
	"github.com/md-rashed-zaman/bookavail/libs/httpx"
	"github.com/md-rashed-zaman/bookavail/libs/kafkax"
	otelx "github.com/md-rashed-zaman/bookavail/libs/otel"
	"github.com/md-rashed-zaman/bookavail/libs/runtime"
	"github.com/md-rashed-zaman/bookavail/services/availability-service/internal/availability"
	"github.com/md-rashed-zaman/bookavail/services/availability-service/internal/cache"
	"github.com/md-rashed-zaman/bookavail/services/availability-service/internal/consumer"
	"github.com/md-rashed-zaman/bookavail/services/availability-service/internal/grpcserver"
	"github.com/md-rashed-zaman/bookavail/services/availability-service/internal/handlers"
	"github.com/md-rashed-zaman/bookavail/services/availability-service/internal/inbox"
	"github.com/md-rashed-zaman/bookavail/services/availability-service/internal/metrics"
	"github.com/md-rashed-zaman/bookavail/services/availability-service/internal/orders"
	"github.com/md-rashed-zaman/bookavail/services/availability-service/internal/settings"
	"github.com/md-rashed-zaman/bookavail/services/availability-service/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	_ = godotenv.Load()

	cfg, err := settings.Load()
	if err != nil {
		runtime.NewLogger("availability-service", "error").Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	logger := runtime.NewLogger(cfg.ServiceName, cfg.LogLevel)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(cfg.ServiceName))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	pool, err := db.Open(ctx, cfg.DatabaseURL, db.Options{})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	m := metrics.New(nil)
	customers := storage.NewCustomerRepository(pool)
	schedules := storage.NewScheduleRepository(pool)
	orderRepo := storage.NewOrderRepository(pool)
	blocked := storage.NewBlockedRepository(pool)

	deps := availability.Deps{
		Customers: customers,
		Schedules: schedules,
		Orders:    orderRepo,
		Blocked:   blocked,
		Shipping:  storage.NewShippingRepository(pool),
		Metrics:   m,
		Logger:    logger,
	}
	checks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}

	// Handlers and the order processor accept a nil invalidator when caching is off.
	var invalidator interface {
		Invalidate(ctx context.Context, customerIDs ...string) error
	}
	var rdb *redis.Client
	if cfg.CacheEnabled() {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer func() { _ = rdb.Close() }()

		results := cache.NewAvailability(rdb, cfg.CacheTTL)
		deps.Cache = results
		deps.Shipping = cache.NewShipping(deps.Shipping, rdb, cache.ShippingTTL, logger)
		invalidator = results
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	} else {
		logger.Warn("REDIS_ADDR not set; availability cache disabled")
	}

	svc := availability.NewService(deps)

	if cfg.KafkaEnabled() {
		processor := orders.NewProcessor(orderRepo, invalidator, m, logger)
		inboxRepo := inbox.NewRepository(pool)
		for topic, handle := range map[string]consumer.Handler{
			cfg.OrderCreatedTopic:   processor.HandleCreated,
			cfg.OrderCancelledTopic: processor.HandleCancelled,
		} {
			if topic == "" {
				continue
			}
			c := consumer.New(logger, inboxRepo, consumer.Config{
				Brokers: cfg.KafkaBrokers,
				GroupID: cfg.KafkaGroupID,
				Topic:   topic,
			}, handle)
			go c.Run(ctx)
		}
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(cfg.KafkaBrokers)})
	} else {
		logger.Warn("KAFKA_BROKERS not set; order events are not consumed")
	}

	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set; customer routes reject every request")
	}

	router := runtime.NewBaseRouter(nil, checks...)
	handlers.Mount(router, handlers.Routes{
		Availability: handlers.NewAvailabilityHandler(svc, logger),
		Blocked:      handlers.NewBlockedHandler(blocked, invalidator, logger),
		Schedules:    handlers.NewScheduleHandler(schedules, invalidator, logger),
		RequireAuth:  auth.Require(cfg.JWTSecret),
	})

	clientKey, _ := httpx.TrustedProxies(cfg.TrustedProxies)
	var limiter httpx.Middleware
	if rdb != nil {
		limiter = httpx.NewRedisRateLimiter(rdb, cfg.RateLimitPerMinute, time.Minute, "bookavail:rl").
			WithClientKey(clientKey).
			Middleware(logger, true)
	} else {
		local := httpx.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute).WithClientKey(clientKey)
		go local.Run(ctx)
		limiter = local.Middleware()
	}
	httpHandler := httpx.Chain(router,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		httpx.WithCORS(httpx.DefaultCORSPolicy(cfg.CORSAllowedOrigins)),
		limiter,
		httpx.WithBodyLimit(cfg.BodyLimitBytes),
		httpx.WithTimeout(cfg.RequestTimeout),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "availability")
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcSrv, health := grpcserver.NewGRPCServer(logger, grpcserver.New(svc, logger))
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		logger.Error("grpc listen failed", "err", err)
		os.Exit(1)
	}

	go func() {
		logger.Info("grpc server starting", "addr", lis.Addr().String())
		if err := grpcSrv.Serve(lis); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	}()
	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	health.Shutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	grpcSrv.GracefulStop()
	logger.Info("servers stopped")
}

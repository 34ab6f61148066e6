package settings

import (
	"errors"
	"time"

	"github.com/md-rashed-zaman/bookavail/libs/config"
	"github.com/md-rashed-zaman/bookavail/libs/httpx"
)

// Settings is the process configuration, read from the environment once at startup.
type Settings struct {
	ServiceName string
	HTTPPort    string
	GRPCPort    string
	LogLevel    string

	DatabaseURL string

	// RedisAddr empty disables the result cache and the shared rate limiter.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// KafkaBrokers empty disables order ingestion.
	KafkaBrokers        string
	KafkaGroupID        string
	OrderCreatedTopic   string
	OrderCancelledTopic string

	JWTSecret          string
	RateLimitPerMinute int
	CORSAllowedOrigins []string
	// TrustedProxies lists proxy IPs or CIDRs whose X-Forwarded-For is believed.
	TrustedProxies []string
	RequestTimeout     time.Duration
	BodyLimitBytes     int64
}

func Load() (Settings, error) {
	s := Settings{
		ServiceName:         config.String("SERVICE_NAME", "availability-service"),
		LogLevel:            config.String("LOG_LEVEL", "info"),
		RedisAddr:           config.String("REDIS_ADDR", ""),
		RedisPassword:       config.String("REDIS_PASSWORD", ""),
		KafkaBrokers:        config.String("KAFKA_BROKERS", ""),
		KafkaGroupID:        config.String("KAFKA_GROUP_ID", "availability-service"),
		OrderCreatedTopic:   config.String("KAFKA_ORDER_TOPIC", "commerce.order.created.v1"),
		OrderCancelledTopic: config.String("KAFKA_ORDER_CANCELLED_TOPIC", "commerce.order.cancelled.v1"),
		JWTSecret:           config.String("JWT_SECRET", ""),
		CORSAllowedOrigins:  config.List("CORS_ALLOWED_ORIGINS"),
		TrustedProxies:      config.List("TRUSTED_PROXIES"),
	}

	var errs []error
	var err error
	if s.HTTPPort, err = config.Port("PORT", "8080"); err != nil {
		errs = append(errs, err)
	}
	if s.GRPCPort, err = config.Port("GRPC_PORT", "9090"); err != nil {
		errs = append(errs, err)
	}
	if s.DatabaseURL, err = config.RequiredString("DATABASE_URL"); err != nil {
		errs = append(errs, err)
	}
	if s.RedisDB, err = config.Int("REDIS_DB", 0); err != nil {
		errs = append(errs, err)
	}
	if s.CacheTTL, err = config.Duration("CACHE_TTL", time.Minute); err != nil {
		errs = append(errs, err)
	}
	if s.RateLimitPerMinute, err = config.Int("RATE_LIMIT_PER_MINUTE", 120); err != nil {
		errs = append(errs, err)
	}
	if s.RequestTimeout, err = config.Duration("REQUEST_TIMEOUT", 15*time.Second); err != nil {
		errs = append(errs, err)
	}
	limit, err := config.Int("BODY_LIMIT_BYTES", 1<<20)
	if err != nil {
		errs = append(errs, err)
	}
	s.BodyLimitBytes = int64(limit)
	if _, err := httpx.TrustedProxies(s.TrustedProxies); err != nil {
		errs = append(errs, err)
	}
	return s, errors.Join(errs...)
}

func (s Settings) CacheEnabled() bool { return s.RedisAddr != "" }

func (s Settings) KafkaEnabled() bool { return s.KafkaBrokers != "" }

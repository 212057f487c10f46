package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/volunteerhub/internal/clock"
	"github.com/smallbiznis/volunteerhub/internal/config"
	"github.com/smallbiznis/volunteerhub/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	keyLogin      = "auth:login:%s"
	endpointLogin = "auth.login"
)

var ErrRateLimited = errors.New("rate_limited")

type Params struct {
	fx.In

	Config  config.Config
	Log     *zap.Logger
	Clock   clock.Clock
	Redis   *redis.Client    `optional:"true"`
	Metrics *metrics.Metrics `optional:"true"`
}

// LoginLimiter throttles login attempts per client. Buckets live in Redis when
// a client is configured; Redis errors fall back to the in-process limiter.
type LoginLimiter struct {
	log     *zap.Logger
	metrics *metrics.Metrics
	bucket  *TokenBucket
	memory  *MemoryLimiter
	rate    float64
	burst   int
}

func NewLoginLimiter(p Params) (*LoginLimiter, error) {
	cfg := p.Config.RateLimit
	if cfg.LoginCapacity <= 0 || cfg.LoginRefillRate <= 0 {
		return nil, errors.New("login rate limit capacity and refill rate must be positive")
	}

	return &LoginLimiter{
		log:     p.Log.Named("ratelimit.login"),
		metrics: p.Metrics,
		bucket:  NewTokenBucket(p.Redis),
		memory:  NewMemoryLimiter(p.Clock, cfg.LoginRefillRate, int(cfg.LoginCapacity)),
		rate:    cfg.LoginRefillRate,
		burst:   int(cfg.LoginCapacity),
	}, nil
}

// Allow consumes one login attempt for clientKey, usually the client IP.
func (l *LoginLimiter) Allow(ctx context.Context, clientKey string) *Result {
	clientKey = strings.TrimSpace(clientKey)
	if clientKey == "" {
		clientKey = "unknown"
	}

	result := l.allow(ctx, clientKey)
	if result.Allowed {
		l.metrics.RecordRateLimitAllowed(ctx, endpointLogin)
	} else {
		l.metrics.RecordRateLimitDenied(ctx, endpointLogin, "exhausted")
		l.log.Warn("login rate limited",
			zap.String("client", clientKey),
			zap.Duration("retry_after", result.RetryAfter),
		)
	}
	return result
}

func (l *LoginLimiter) allow(ctx context.Context, clientKey string) *Result {
	if l.bucket != nil {
		result, err := l.bucket.Allow(ctx, fmt.Sprintf(keyLogin, clientKey), l.rate, l.burst)
		if err == nil {
			return result
		}
		l.log.Warn("redis token bucket unavailable, using in-memory limiter", zap.Error(err))
	}
	return l.memory.Allow(clientKey)
}

// NewRedisClient returns nil when no Redis address is configured.
func NewRedisClient(lc fx.Lifecycle, cfg config.Config) *redis.Client {
	addr := strings.TrimSpace(cfg.Redis.Addr)
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.Redis.Password),
		DB:       cfg.Redis.DB,
	})
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client
}

package ledger

import (
	"context"
	"errors"
	"github.com/rookgm/cardpay/internal/cache"
	"github.com/rookgm/cardpay/internal/logger"
	"github.com/rookgm/cardpay/internal/metrics"
	"github.com/rookgm/cardpay/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"math/big"
	"time"
)

const (
	defaultCacheTTL = 60 * time.Second
	defaultAttempts = 3
	defaultBackoff  = 2 * time.Second
)

// TokenClient reads raw token balance from ledger
type TokenClient interface {
	BalanceOf(ctx context.Context, contract, address string) (*big.Int, error)
}

// Reader reads human-readable token balances with caching and retries
type Reader struct {
	client   TokenClient
	cache    cache.Cache
	ttl      time.Duration
	attempts int
	backoff  time.Duration
	metrics  *metrics.Metrics
	sleep    func(ctx context.Context, d time.Duration) error
}

// Option configures Reader
type Option func(*Reader)

// WithCacheTTL sets how long balance is cached
func WithCacheTTL(ttl time.Duration) Option {
	return func(r *Reader) { r.ttl = ttl }
}

// WithRetry sets total attempts and base backoff on rate limiting.
// Delay before attempt n+1 is base*n.
func WithRetry(attempts int, base time.Duration) Option {
	return func(r *Reader) {
		if attempts > 0 {
			r.attempts = attempts
		}
		r.backoff = base
	}
}

// WithMetrics sets metrics collector
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Reader) { r.metrics = m }
}

// NewReader creates new Reader instance
func NewReader(client TokenClient, c cache.Cache, opts ...Option) *Reader {
	r := &Reader{
		client:   client,
		cache:    c,
		ttl:      defaultCacheTTL,
		attempts: defaultAttempts,
		backoff:  defaultBackoff,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReadBalance returns balance of address in token units.
// It never fails: any error results in zero which callers treat as not paid.
func (r *Reader) ReadBalance(ctx context.Context, address string, token models.Token) decimal.Decimal {
	if v, ok, err := r.cache.Get(ctx, address); err != nil {
		logger.Log.Warn("balance cache get", zap.String("address", address), zap.Error(err))
	} else if ok {
		r.metrics.BalanceLookup(metrics.LookupCacheHit)
		return v
	}

	for attempt := 1; attempt <= r.attempts; attempt++ {
		raw, err := r.client.BalanceOf(ctx, token.Contract, address)
		if err == nil {
			balance := decimal.NewFromBigInt(raw, -token.Decimals)
			if err := r.cache.Set(ctx, address, balance, r.ttl); err != nil {
				logger.Log.Warn("balance cache set", zap.String("address", address), zap.Error(err))
			}
			r.metrics.BalanceLookup(metrics.LookupFetched)
			return balance
		}

		var tooMany *models.TooManyRequestsError
		if !errors.As(err, &tooMany) || attempt == r.attempts {
			logger.Log.Error("fetch balance",
				zap.String("address", address),
				zap.Int("attempt", attempt),
				zap.Error(err))
			r.metrics.BalanceLookup(metrics.LookupFailed)
			return decimal.Zero
		}

		delay := r.backoff * time.Duration(attempt)
		logger.Log.Debug("too many request", zap.String("address", address), zap.Duration("retry-after", delay))
		r.metrics.BalanceLookup(metrics.LookupRetried)

		if err := r.sleep(ctx, delay); err != nil {
			return decimal.Zero
		}
	}

	return decimal.Zero
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

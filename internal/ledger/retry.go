package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
)

const (
	DefaultMaxRetries   = 3
	DefaultBaseInterval = 50 * time.Millisecond
	DefaultMaxInterval  = 2 * time.Second
)

// RetryConfig controls WithRetry's exponential backoff.
type RetryConfig struct {
	MaxRetries   uint64
	BaseInterval time.Duration
	MaxInterval  time.Duration
	Logger       *slog.Logger
}

type retrying struct {
	next Ledger
	cfg  RetryConfig
}

// WithRetry wraps l so that ErrUnavailable failures are retried with
// exponential backoff. Every other error is returned on the first attempt.
func WithRetry(l Ledger, cfg RetryConfig) Ledger {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.BaseInterval <= 0 {
		cfg.BaseInterval = DefaultBaseInterval
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = DefaultMaxInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &retrying{next: l, cfg: cfg}
}

func (r *retrying) backoff() retry.Backoff {
	b := retry.NewExponential(r.cfg.BaseInterval)
	b = retry.WithCappedDuration(r.cfg.MaxInterval, b)
	return retry.WithMaxRetries(r.cfg.MaxRetries, b)
}

func (r *retrying) do(ctx context.Context, op string, fn func(context.Context) error) error {
	attempt := 0
	return retry.Do(ctx, r.backoff(), func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err != nil && errors.Is(err, ErrUnavailable) {
			r.cfg.Logger.Warn("ledger call failed, retrying", "op", op, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
}

func (r *retrying) Reserve(ctx context.Context, account string, amount decimal.Decimal) (ReservationID, error) {
	var id ReservationID
	err := r.do(ctx, "reserve", func(ctx context.Context) error {
		var err error
		id, err = r.next.Reserve(ctx, account, amount)
		return err
	})
	return id, err
}

func (r *retrying) Settle(ctx context.Context, id ReservationID, payout decimal.Decimal) error {
	return r.do(ctx, "settle", func(ctx context.Context) error {
		return r.next.Settle(ctx, id, payout)
	})
}

func (r *retrying) Release(ctx context.Context, id ReservationID) error {
	return r.do(ctx, "release", func(ctx context.Context) error {
		return r.next.Release(ctx, id)
	})
}

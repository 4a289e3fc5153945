package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/shouni/go-series-kit/pkg/apperr"
	"github.com/shouni/go-series-kit/pkg/config"

	"github.com/cenkalti/backoff/v4"
)

// Policy は一時的な障害に対する指数バックオフの設定です。
// MaxRetries は初回呼び出し後の再試行回数で、待機時間は InitialDelay から Multiplier 倍ずつ伸びます。
type Policy struct {
	MaxRetries   int
	InitialDelay time.Duration
	Multiplier   float64

	// Timer は待機に使うタイマーです。nil の場合は実時間で待機します。
	Timer backoff.Timer
}

// Operation はリトライ対象の処理です。
type Operation[T any] func(ctx context.Context) (T, error)

// DefaultPolicy は 1000ms から倍々に待機し、最大3回再試行するポリシーを返します。
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:   config.DefaultMaxRetries,
		InitialDelay: config.DefaultInitialDelay,
		Multiplier:   config.DefaultBackoffFactor,
	}
}

// FromConfig は設定値からポリシーを生成します。
func FromConfig(cfg config.Config) Policy {
	p := DefaultPolicy()
	if cfg.MaxRetries >= 0 {
		p.MaxRetries = cfg.MaxRetries
	}
	if cfg.InitialDelay > 0 {
		p.InitialDelay = cfg.InitialDelay
	}
	if cfg.BackoffFactor > 0 {
		p.Multiplier = cfg.BackoffFactor
	}
	return p
}

// Do は op を実行し、一時的エラー（apperr.KindTransient）の場合のみ再試行します。
// それ以外のエラーは初回で、そのままの値で返ります。再試行を使い切った場合は最後のエラーを返します。
func Do[T any](ctx context.Context, p Policy, op Operation[T]) (T, error) {
	attempt := 0
	call := func() (T, error) {
		attempt++
		res, err := op(ctx)
		if err != nil && !apperr.IsTransient(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}

	notify := func(err error, next time.Duration) {
		slog.WarnContext(ctx, "一時的なエラーのため再試行します",
			"attempt", attempt,
			"max_retries", p.MaxRetries,
			"delay", next,
			"error", err,
		)
	}

	return backoff.RetryNotifyWithTimerAndData(call, p.backOff(ctx), notify, p.Timer)
}

func (p Policy) backOff(ctx context.Context) backoff.BackOffContext {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.InitialDelay
	eb.Multiplier = p.Multiplier
	eb.RandomizationFactor = 0
	eb.MaxInterval = time.Duration(float64(p.InitialDelay) * pow(p.Multiplier, p.MaxRetries))
	eb.MaxElapsedTime = 0
	eb.Reset()

	retries := p.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(retries)), ctx)
}

func pow(base float64, n int) float64 {
	r := 1.0
	for i := 0; i < n; i++ {
		r *= base
	}
	return r
}

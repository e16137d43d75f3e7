package githost

import (
	"context"
	"errors"
	"net/http"
	"time"

	"inkwell/internal/domain"
)

const (
	// DefaultMaxRetries is the maximum number of attempts per operation
	DefaultMaxRetries = 3
	// DefaultBaseDelay is the first backoff delay after a transient failure
	DefaultBaseDelay = 1 * time.Second
	// DefaultMaxDelay caps the exponential backoff
	DefaultMaxDelay = 10 * time.Second

	// maxRateLimitWait is the longest reset wait honored in-process. Longer
	// waits fail fast with RemoteRateLimitError so the caller can decide.
	maxRateLimitWait = 60 * time.Second
)

// RetryConfig configures the retry/backoff/rate-limit policy applied to
// every hosting-API call.
type RetryConfig struct {
	// MaxRetries is the maximum number of attempts (including the first).
	MaxRetries int
	// BaseDelay is the backoff after the first transient failure; each
	// subsequent failure doubles it, capped at MaxDelay.
	BaseDelay time.Duration
	// MaxDelay caps the exponential backoff.
	MaxDelay time.Duration

	// sleep is swapped out by tests to record delays without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryConfig returns the standard policy: 3 attempts, 1s base delay
// doubling up to 10s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		MaxDelay:   DefaultMaxDelay,
	}
}

func (c RetryConfig) sleepFn() func(ctx context.Context, d time.Duration) error {
	if c.sleep != nil {
		return c.sleep
	}
	return sleepCtx
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// WithRetry executes op under the retry policy and classifies every failure
// into exactly one domain remote error:
//
//   - 4xx other than 403/429 is never retried: repeating a rejected request
//     does not change the outcome (RemoteClientError).
//   - 403/429 with exhausted quota and a reset under 60s away waits exactly
//     that long and retries without consuming a retry slot; otherwise it
//     fails with RemoteRateLimitError carrying the wait.
//   - 5xx and transport failures back off min(BaseDelay*2^n, MaxDelay) and
//     retry until attempts run out, then RemoteTransientError wrapping the
//     last observed error. Nothing is ever silently swallowed.
func WithRetry[T any](ctx context.Context, cfg RetryConfig, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	sleep := cfg.sleepFn()

	attempt := 0
	var lastErr error
	for {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		v, err := op(ctx)
		if err == nil {
			return v, nil
		}

		var apiErr *apiError
		if errors.As(err, &apiErr) {
			switch {
			case apiErr.status == http.StatusForbidden || apiErr.status == http.StatusTooManyRequests:
				wait := time.Until(apiErr.rateReset)
				if apiErr.rateRemaining == 0 && wait > 0 && wait < maxRateLimitWait {
					// The API told us exactly when capacity returns; honor
					// it without touching the retry budget.
					if serr := sleep(ctx, wait); serr != nil {
						return zero, serr
					}
					continue
				}
				return zero, &domain.RemoteRateLimitError{RetryAfter: wait, Message: apiErr.message}
			case apiErr.status >= 400 && apiErr.status < 500:
				return zero, &domain.RemoteClientError{Status: apiErr.status, Message: apiErr.message}
			}
		}

		lastErr = err
		attempt++
		if attempt >= cfg.MaxRetries {
			return zero, &domain.RemoteTransientError{Attempts: attempt, Err: lastErr}
		}

		delay := cfg.BaseDelay << (attempt - 1)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
		if serr := sleep(ctx, delay); serr != nil {
			return zero, serr
		}
	}
}

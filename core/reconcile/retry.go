package reconcile

import (
	"context"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"
)

// retryOptions builds the retry policy shared by every provider call: full
// exponential backoff with random jitter, bounded by MaxAttempts, aborted as
// soon as the context or a non-retryable error says so.
func retryOptions(ctx context.Context, log *zap.Logger, op string, o Options) []retry.Option {
	return []retry.Option{
		retry.Attempts(uint(o.MaxAttempts)),
		retry.Delay(o.BackoffBase),
		retry.MaxDelay(o.BackoffCap),
		retry.MaxJitter(o.BackoffJitter),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.RetryIf(IsRetryable),
		retry.OnRetry(func(n uint, err error) {
			log.Warn("retrying "+op,
				zap.Uint("attempt", n+1),
				zap.Error(err),
			)
		}),
	}
}

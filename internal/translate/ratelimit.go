package translate

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedTranslator waits on a shared token bucket before every call.
type RateLimitedTranslator struct {
	next    Translator
	limiter *rate.Limiter
}

// RateLimited wraps t. A nil limiter returns t unchanged.
func RateLimited(t Translator, limiter *rate.Limiter) Translator {
	if limiter == nil {
		return t
	}

	return &RateLimitedTranslator{next: t, limiter: limiter}
}

// NewLimiter returns a limiter allowing perSecond calls with the given
// burst, or nil when perSecond <= 0.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}

	return rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
}

func (r *RateLimitedTranslator) Name() string { return r.next.Name() }

func (r *RateLimitedTranslator) Translate(ctx context.Context, text string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%s: rate limit: %w", r.next.Name(), err)
	}

	return r.next.Translate(ctx, text)
}

// Close closes the wrapped translator if it holds resources.
func (r *RateLimitedTranslator) Close() error { return closeIfCloser(r.next) }

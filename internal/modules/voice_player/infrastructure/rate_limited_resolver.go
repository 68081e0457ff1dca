package infrastructure

import (
	"context"
	"fmt"

	"github.com/sglre6355/voicebot/internal/modules/voice_player/application/ports"
	"golang.org/x/time/rate"
)

// RateLimitedResolver bounds how often the wrapped resolver is invoked.
type RateLimitedResolver struct {
	next    ports.MediaResolver
	limiter *rate.Limiter
}

// NewRateLimitedResolver wraps next with a token bucket allowing perSecond
// resolutions with the given burst.
func NewRateLimitedResolver(next ports.MediaResolver, perSecond float64, burst int) *RateLimitedResolver {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedResolver{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Resolve waits for a token, then delegates.
func (r *RateLimitedResolver) Resolve(ctx context.Context, query string) ([]*ports.ResolvedMedia, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("resolver rate limit: %w", err)
	}
	return r.next.Resolve(ctx, query)
}

// Ensure RateLimitedResolver implements ports.MediaResolver.
var _ ports.MediaResolver = (*RateLimitedResolver)(nil)

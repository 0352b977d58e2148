package sink

import (
	"context"
	"fmt"

	"notifier/internal/application/service"
	appErrors "notifier/internal/pkg/errors"

	"golang.org/x/time/rate"
)

// Sink is a notification sink that can also answer the startup permission check.
type Sink interface {
	service.NotificationSink
	service.PermissionChecker
}

// RateLimited drops notifications once the wrapped sink exceeds its quota.
// The burst equals the per-minute quota.
type RateLimited struct {
	next    Sink
	limiter *rate.Limiter
}

// NewRateLimited wraps next with a perMinute quota. A quota of zero or less disables limiting.
func NewRateLimited(next Sink, perMinute int) Sink {
	if perMinute <= 0 {
		return next
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute),
	}
}

func (r *RateLimited) Emit(ctx context.Context, sequence int, message string) error {
	if !r.limiter.Allow() {
		return fmt.Errorf("%w: notification #%d dropped", appErrors.ErrRateLimited, sequence)
	}
	return r.next.Emit(ctx, sequence, message)
}

func (r *RateLimited) CheckPermission(ctx context.Context) error {
	return r.next.CheckPermission(ctx)
}

package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/engmung/portfolio-Nat/application/ports"
	"github.com/engmung/portfolio-Nat/pkg/auth"
	"github.com/engmung/portfolio-Nat/pkg/common"
	apperrors "github.com/engmung/portfolio-Nat/pkg/errors"
)

// headerSetter is implemented by limiters that can report remaining quota
type headerSetter interface {
	SetHeaders(ctx context.Context, key string, h http.Header) error
}

// RateLimit limits requests per client IP. Limiter errors are logged and the
// limiter's own verdict is honored, so a failing store fails open.
func RateLimit(limiter auth.RateLimiter, name string, limit int, window time.Duration, metrics ports.Metrics, errs *apperrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := common.ClientIP(r)

			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Warn("Rate limiter error", zap.String("limiter", name), zap.Error(err))
			}
			if hs, ok := limiter.(headerSetter); ok {
				_ = hs.SetHeaders(r.Context(), key, w.Header())
			}
			if !allowed {
				metrics.Increment("rate_limited", name)
				w.Header().Set("Retry-After", retryAfter(window))
				errs.Handle(w, r, apperrors.NewRateLimitError(limit, window.String()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func retryAfter(window time.Duration) string {
	return strconv.Itoa(int(window.Seconds()))
}

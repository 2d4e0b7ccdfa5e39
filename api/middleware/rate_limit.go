package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/iscore-hr/helpdesk-backend/api/responses"
	"github.com/iscore-hr/helpdesk-backend/pkg/config"
	pkgerrors "github.com/iscore-hr/helpdesk-backend/pkg/errors"
	"github.com/iscore-hr/helpdesk-backend/pkg/logger"
)

type limiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimit enforces a fixed-window request budget per caller on the wrapped
// routes. Authenticated callers are keyed by user id, anonymous ones by
// client IP. Limits come from config so the notification and chatbot
// surfaces share one policy.
func RateLimit(name string, cfg config.RateLimitConfig, store limiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil || cfg.NotificationLimit <= 0 || cfg.NotificationWindow <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			caller := UserIDFromContext(ctx)
			if caller == "" {
				caller = clientIP(r)
			}

			scope := fmt.Sprintf("%s:%s", name, caller)
			allowed, count, err := store.FixedWindowAllow(ctx, scope, int64(cfg.NotificationLimit), cfg.NotificationWindow)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if !allowed {
				retryAfter := int(cfg.NotificationWindow / time.Second)
				if logg != nil {
					logCtx := logg.WithFields(ctx, map[string]any{
						"limiter": name,
						"caller":  caller,
						"count":   count,
						"limit":   cfg.NotificationLimit,
					})
					logg.Warn(logCtx, "rate limit exceeded")
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit,
					fmt.Sprintf("too many requests, retry in %d seconds", retryAfter)))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		parts := strings.Split(fwd, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/neuraltalk/chat-backend/internal/pkg/ratelimit"
	"github.com/neuraltalk/chat-backend/internal/pkg/response"
	"go.uber.org/zap"
)

// RateLimit rejects clients that exceed their per-IP budget with 429.
// Run it after chi's RealIP when the server sits behind a proxy.
func RateLimit(limiter *ratelimit.Limiter) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)

			if !limiter.Allow(key) {
				retry := limiter.RetryAfter(key)
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))

				ctxzap.Warn(r.Context(), "rate limit exceeded", zap.String("client_ip", key))
				response.Error(w, http.StatusTooManyRequests, "too many requests, slow down")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

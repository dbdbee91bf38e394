package http

import (
	"net/http"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type payloadContextKey struct{}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// WithAuthToken sets a bearer token unless the request already carries Authorization.
// An empty token installs nothing.
func WithAuthToken(token string) HttpOpts {
	return WithTransport(func(next http.RoundTripper) http.RoundTripper {
		if token == "" {
			return next
		}
		return roundTripFunc(func(req *http.Request) (*http.Response, error) {
			if req.Header.Get("Authorization") != "" {
				return next.RoundTrip(req)
			}
			clone := req.Clone(req.Context())
			clone.Header.Set("Authorization", "Bearer "+token)
			return next.RoundTrip(clone)
		})
	})
}

// WithRequestLogging logs every outbound exchange at debug level through the
// request context logger. Credentials are never logged.
func WithRequestLogging() HttpOpts {
	return WithTransport(func(next http.RoundTripper) http.RoundTripper {
		return roundTripFunc(func(req *http.Request) (*http.Response, error) {
			ctx := req.Context()
			start := time.Now()

			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("url", req.URL.Redacted()),
			}
			if payload, ok := ctx.Value(payloadContextKey{}).([]byte); ok {
				fields = append(fields, zap.Int("payload_bytes", len(payload)))
			}

			resp, err := next.RoundTrip(req)

			fields = append(fields, zap.Duration("duration", time.Since(start)))
			if err != nil {
				ctxzap.Debug(ctx, "HTTP outbound request failed", append(fields, zap.Error(err))...)
				return nil, err
			}

			ctxzap.Debug(ctx, "HTTP outbound request", append(fields, zap.Int("status", resp.StatusCode))...)
			return resp, nil
		})
	})
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/neuraltalk/chat-backend/internal/pkg/ratelimit"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRateLimit(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := Logger(zap.NewNop())(RateLimit(ratelimit.New(60, 1, time.Minute))(ok))

	do := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, do("10.0.0.1:5000").Code)

	limited := do("10.0.0.1:5001")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusNoContent, do("10.0.0.2:5000").Code)
}

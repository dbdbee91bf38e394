package render

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/neuraltalk/chat-backend/internal/client"
	"github.com/neuraltalk/chat-backend/internal/entity"
	"github.com/stretchr/testify/assert"
)

func TestClip(t *testing.T) {
	assert.Equal(t, "short", Clip("short", 10))
	assert.Equal(t, "café…", Clip("café au lait", 5))
	assert.Empty(t, Clip("x", 0))
}

func TestAnswer_FitsTelegramLimit(t *testing.T) {
	long := strings.Repeat("ж", MaxMessageLength+100)

	out := Answer(long, false, true)
	assert.Equal(t, MaxMessageLength, utf8.RuneCountInString(out))
	assert.True(t, strings.HasSuffix(out, SuffixTruncated))

	assert.Equal(t, "hi"+SuffixStopped, Answer("hi", true, true))
	assert.Equal(t, "hi", Answer("hi", false, false))
}

func TestRateLimited_RoundsUp(t *testing.T) {
	assert.Contains(t, RateLimited(1500*time.Millisecond), "2 s")
	assert.Contains(t, RateLimited(0), "1 s")
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ErrGeneric},
		{"deadline", fmt.Errorf("send: %w", context.DeadlineExceeded), ErrTimeout},
		{"rate limited", &client.StatusError{StatusCode: http.StatusTooManyRequests, Status: "Too Many Requests"}, ErrQuotaExceeded},
		{"bad request", &client.StatusError{StatusCode: http.StatusBadRequest, Status: "Bad Request"}, fmt.Sprintf(ErrBadRequest, "Bad Request")},
		{"server error", &client.StatusError{StatusCode: http.StatusBadGateway, Status: "Bad Gateway"}, ErrServiceUnavailable},
		{"chatbot", entity.ErrChatbotNotFound, ErrChatbotNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyError(tt.err))
		})
	}
}

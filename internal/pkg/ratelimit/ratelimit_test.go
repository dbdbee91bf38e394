package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_BurstThenDeny(t *testing.T) {
	l := New(60, 2, time.Minute)

	assert.True(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"))

	// other keys have their own bucket
	assert.True(t, l.Allow("5.6.7.8"))
}

func TestLimiter_RetryAfter(t *testing.T) {
	l := New(60, 1, time.Minute)

	assert.True(t, l.Allow("k"))
	delay := l.RetryAfter("k")
	assert.Greater(t, delay, time.Duration(0))
	assert.LessOrEqual(t, delay, time.Second)
}

func TestLimiter_IdleBucketsExpire(t *testing.T) {
	l := New(1, 1, 50*time.Millisecond)

	assert.True(t, l.Allow("k"))
	assert.False(t, l.Allow("k"))

	time.Sleep(120 * time.Millisecond)
	assert.True(t, l.Allow("k"))
}

package quoteprovider

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoalesce(t *testing.T) {
	assert.Equal(t, "fallback", coalesce("", "fallback"))
	assert.Equal(t, "value", coalesce("value", "fallback"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", truncate("hello", 10))
	assert.Equal(t, "hel", truncate("hello", 3))
}

func TestIsRateLimitError(t *testing.T) {
	assert.True(t, isRateLimitError(&httpStatusError{status: http.StatusTooManyRequests}))
	assert.True(t, isRateLimitError(&httpStatusError{status: http.StatusForbidden}))
	assert.False(t, isRateLimitError(&httpStatusError{status: http.StatusInternalServerError}))
	assert.False(t, isRateLimitError(assert.AnError))
}

func TestHTTPStatusErrorMessage(t *testing.T) {
	err := &httpStatusError{status: 429, body: "slow down"}
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "slow down")
}

func TestNewAppliesJupiterRateLimit(t *testing.T) {
	p := New("test-key", true)
	assert.Equal(t, "test-key", p.jupiterAPIKey)
	assert.True(t, p.useRaydium)
	assert.NotNil(t, p.jupLimiter)
}

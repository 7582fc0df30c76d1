package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchErrorMessage(t *testing.T) {
	cause := stderrors.New("connection reset")

	err := NewProvider("gemini", "generate content failed", cause)
	assert.Equal(t, "[provider] gemini: generate content failed - connection reset", err.Error())
	assert.True(t, stderrors.Is(err, cause))

	err = NewValidation("search", "empty query")
	assert.Equal(t, "[validation] search: empty query", err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestSearchErrorAs(t *testing.T) {
	var wrapped error = NewCache("memcache", "set failed", nil)

	var target *SearchError
	assert.True(t, stderrors.As(wrapped, &target))
	assert.Equal(t, ErrorTypeCache, target.Type)
	assert.False(t, target.Time.IsZero())
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, NewProvider("gemini", "unavailable", nil).IsRetryable())
	assert.True(t, NewNetwork("fetch", "timeout", nil).IsRetryable())
	assert.False(t, NewRateLimit("fetch", "60").IsRetryable())
	assert.False(t, NewParsing("enricher", "bad html", nil).IsRetryable())
	assert.False(t, NewConfiguration("missing key", nil).IsRetryable())
}

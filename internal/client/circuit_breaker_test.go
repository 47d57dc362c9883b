package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreaker(t *testing.T) {
	// Configure for fast testing: 3 failures, 50ms timeout
	cb := NewCircuitBreaker(3, 50*time.Millisecond)

	assert.Equal(t, StateClosed, cb.State())
	assert.True(t, cb.Allow(), "closed breaker should allow")

	cb.Failure()
	cb.Failure()
	assert.Equal(t, StateClosed, cb.State(), "should remain closed after 2 failures")

	cb.Failure()
	assert.Equal(t, StateOpen, cb.State())
	assert.False(t, cb.Allow(), "open breaker should reject")

	time.Sleep(80 * time.Millisecond)

	assert.True(t, cb.Allow(), "should allow a probe after timeout")
	assert.Equal(t, StateHalfOpen, cb.State())
	assert.False(t, cb.Allow(), "only one probe at a time")

	// Probe fails: open again
	cb.Failure()
	assert.Equal(t, StateOpen, cb.State())

	time.Sleep(80 * time.Millisecond)
	assert.True(t, cb.Allow())

	// Probe succeeds: closed
	cb.Success()
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, 0, cb.failures)
	assert.True(t, cb.Allow())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(9).String())
}

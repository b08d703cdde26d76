package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	b := New("ledger", WithFailureThreshold(3))

	assert.Equal(t, StateChange{}, b.RecordFailure())
	assert.Equal(t, StateChange{}, b.RecordFailure())
	assert.Equal(t, StateChange{Opened: true}, b.RecordFailure())
	assert.Equal(t, StateOpen, b.State())
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := New("ledger", WithFailureThreshold(2))

	b.RecordFailure()
	b.RecordSuccess()
	assert.Equal(t, StateChange{}, b.RecordFailure())
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerClosesAfterProbeSuccesses(t *testing.T) {
	b := New("ipfs", WithFailureThreshold(1), WithSuccessThreshold(2))

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())

	assert.Equal(t, StateChange{}, b.RecordSuccess())
	assert.Equal(t, StateChange{Closed: true}, b.RecordSuccess())
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerAllowsSingleProbeWhileOpen(t *testing.T) {
	current := time.Unix(1000, 0)
	b := New("ledger",
		WithFailureThreshold(1),
		WithProbeInterval(10*time.Second),
		WithClock(func() time.Time { return current }),
	)

	assert.True(t, b.Allow())
	b.RecordFailure()

	assert.True(t, b.Allow(), "first probe after opening is allowed")
	assert.False(t, b.Allow(), "second probe within the interval is rejected")

	current = current.Add(11 * time.Second)
	assert.True(t, b.Allow(), "probe allowed after interval elapses")
}

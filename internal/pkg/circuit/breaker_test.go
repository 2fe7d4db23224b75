package circuit

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerOpensAndRecovers(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	b := New("steamrep", 2, time.Minute)
	b.now = func() time.Time { return now }

	var transitions []string
	b.OnStateChange(func(_ string, from, to State) {
		transitions = append(transitions, from.String()+">"+to.String())
	})

	boom := errors.New("boom")
	assert.ErrorIs(t, b.Do(func() error { return boom }), boom)
	assert.Equal(t, StateClosed, b.State())
	assert.ErrorIs(t, b.Do(func() error { return boom }), boom)
	require.Equal(t, StateOpen, b.State())

	called := false
	err := b.Do(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)

	now = now.Add(time.Minute)
	require.NoError(t, b.Do(func() error { return nil }))
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, []string{"CLOSED>OPEN", "OPEN>HALF-OPEN", "HALF-OPEN>CLOSED"}, transitions)
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	b := New("escrow", 1, time.Second)
	b.now = func() time.Time { return now }
	b.OnStateChange(func(string, State, State) {})

	b.RecordFailure()
	require.Equal(t, StateOpen, b.State())
	now = now.Add(2 * time.Second)
	require.True(t, b.Allow())
	assert.Equal(t, StateHalfOpen, b.State())
	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b := New("x", 2, time.Hour)
	b.OnStateChange(func(string, State, State) {})
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	assert.Equal(t, StateClosed, b.State())
}

package retry

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffExponential(t *testing.T) {
	backoff := BackoffExponential(DefaultPolicy().Backoff)

	assert.Equal(t, time.Duration(0), backoff(0))
	assert.Equal(t, 500*time.Millisecond, backoff(1))
	assert.Equal(t, 1*time.Second, backoff(2))
	assert.Equal(t, 2*time.Second, backoff(3))
	assert.Equal(t, 4*time.Second, backoff(4))
	assert.Equal(t, 5*time.Second, backoff(5), "capped")
	assert.Equal(t, 5*time.Second, backoff(60), "capped")
}

func TestBackoffExponentialDefaults(t *testing.T) {
	backoff := BackoffExponential(BackoffConfig{Base: 50 * time.Millisecond})
	assert.Equal(t, 100*time.Millisecond, backoff(2), "factor defaults to 2")

	overflow := BackoffExponential(BackoffConfig{Base: time.Duration(math.MaxInt64), Factor: 2})
	assert.Greater(t, overflow(2), time.Duration(0))
}

func TestSleep(t *testing.T) {
	start := time.Now()
	require.NoError(t, Sleep(context.Background(), 20*time.Millisecond, nil))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour, nil), context.Canceled)

	stop := make(chan struct{})
	close(stop)
	assert.ErrorIs(t, Sleep(context.Background(), time.Hour, stop), ErrCancelled)
}

func fastPolicy(attempts int) Policy {
	return Policy{Attempts: attempts, Backoff: BackoffConfig{Base: time.Millisecond, Max: 5 * time.Millisecond}}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	n, err := Do(context.Background(), fastPolicy(3), nil, nil, func(int) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDoExhaustsAttempts(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	n, err := Do(context.Background(), fastPolicy(3), nil, nil, func(int) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnPermanent(t *testing.T) {
	boom := errors.New("denied")
	n, err := Do(context.Background(), fastPolicy(3), nil, nil, func(int) error {
		return &Permanent{Err: boom}
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, n)
}

func TestDoHonoursCheckpoint(t *testing.T) {
	stop := false
	n, err := Do(context.Background(), fastPolicy(3), nil, func() bool { return stop }, func(int) error {
		stop = true
		return errors.New("transient")
	})
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, 1, n)
}

func TestDoBackoffTiming(t *testing.T) {
	var stamps []time.Time
	p := Policy{Attempts: 3, Backoff: BackoffConfig{Base: 40 * time.Millisecond, Factor: 2}}
	_, err := Do(context.Background(), p, nil, nil, func(int) error {
		stamps = append(stamps, time.Now())
		if len(stamps) < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	require.Len(t, stamps, 3)
	assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), 40*time.Millisecond)
	assert.GreaterOrEqual(t, stamps[2].Sub(stamps[1]), 80*time.Millisecond)
}

package retry

import (
	"context"
	"errors"
	"math"
	"time"
)

var ErrCancelled = errors.New("cancelled")

type BackoffConfig struct {
	Base   time.Duration
	Max    time.Duration
	Factor float64
}

// Policy bounds a retry loop. Attempts counts every try, the first included.
type Policy struct {
	Attempts int
	Backoff  BackoffConfig
}

func DefaultPolicy() Policy {
	return Policy{
		Attempts: 3,
		Backoff: BackoffConfig{
			Base:   500 * time.Millisecond,
			Max:    5 * time.Second,
			Factor: 2,
		},
	}
}

// BackoffExponential returns the delay to wait after the given number of
// failed attempts: Base*Factor^(attempts-1), capped at Max.
func BackoffExponential(cfg BackoffConfig) func(attempts int) time.Duration {
	base := cfg.Base
	max := cfg.Max
	factor := cfg.Factor
	if factor <= 0 {
		factor = 2
	}

	return func(attempts int) time.Duration {
		if attempts <= 0 || base <= 0 {
			return 0
		}
		delay := float64(base) * math.Pow(factor, float64(attempts-1))
		if max > 0 && delay > float64(max) {
			return max
		}
		if delay > float64(math.MaxInt64) {
			return time.Duration(math.MaxInt64)
		}
		return time.Duration(delay)
	}
}

// Sleep waits for d. It returns ctx.Err() if ctx ends first and ErrCancelled
// if cancel is closed first. A nil cancel channel never fires.
func Sleep(ctx context.Context, d time.Duration, cancel <-chan struct{}) error {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-cancel:
			return ErrCancelled
		default:
			return nil
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-cancel:
		return ErrCancelled
	}
}

// Permanent marks err as not worth retrying.
type Permanent struct{ Err error }

func (p *Permanent) Error() string { return p.Err.Error() }
func (p *Permanent) Unwrap() error { return p.Err }

// Do calls fn until it succeeds, returns a *Permanent error, or the policy's
// attempts run out. Before every attempt it checks checkpoint and stops with
// ErrCancelled if it reports true. The returned int is the number of attempts
// made.
func Do(ctx context.Context, p Policy, cancel <-chan struct{}, checkpoint func() bool, fn func(attempt int) error) (int, error) {
	backoff := BackoffExponential(p.Backoff)
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for i := 1; i <= attempts; i++ {
		if checkpoint != nil && checkpoint() {
			return i - 1, ErrCancelled
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return i - 1, ctxErr
		}
		err = fn(i)
		if err == nil {
			return i, nil
		}
		var perm *Permanent
		if errors.As(err, &perm) {
			return i, perm.Err
		}
		if i == attempts {
			break
		}
		if sleepErr := Sleep(ctx, backoff(i), cancel); sleepErr != nil {
			return i, sleepErr
		}
	}
	return attempts, err
}

package probe

import (
	"context"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
)

const (
	DefaultMaxRetries = 3
	MaxRetriesCap     = 10
)

// NormalizeMaxRetries applies the default for a missing value and clamps the
// result to [0, limit]. A non-positive limit falls back to MaxRetriesCap.
func NormalizeMaxRetries(requested *int, limit int) int {
	if limit <= 0 || limit > MaxRetriesCap {
		limit = MaxRetriesCap
	}
	n := DefaultMaxRetries
	if requested != nil {
		n = *requested
	}
	switch {
	case n < 0:
		return 0
	case n > limit:
		return limit
	}
	return n
}

// Retrier runs a Prober until it gets any HTTP response or runs out of
// retries. Retries absorb network blips; a server that answers with an error
// status is not retried.
type Retrier struct {
	Prober   Prober
	Timeout  time.Duration // per attempt
	Delay    time.Duration // before the first retry
	MaxDelay time.Duration // backoff cap; <= Delay means a fixed delay
}

// Run makes at most maxRetries+1 sequential attempts. ctx bounds the whole
// loop, including the waits between attempts.
func (r *Retrier) Run(ctx context.Context, target string, maxRetries int) Outcome {
	if maxRetries < 0 {
		maxRetries = 0
	}

	var (
		last     Attempt
		attempts int
	)
	_, _ = failsafe.With[Attempt](r.policy(maxRetries)).
		WithContext(ctx).
		Get(func() (Attempt, error) {
			attempts++
			a := r.Prober.Probe(ctx, target, r.Timeout)
			a.Number = attempts
			last = a
			return a, nil
		})
	// the returned error is either the exhausted-retries marker or the
	// context's; in both cases the last attempt is the terminal one

	if attempts == 0 {
		// cancelled before the first attempt could start
		last = Attempt{
			Number:         1,
			StartedAt:      time.Now().UTC(),
			TransportError: ErrCanceled,
			Detail:         "check aborted before the first attempt",
		}
		if cause := context.Cause(ctx); cause != nil {
			last.Detail = cause.Error()
		}
		attempts = 1
	}
	return Outcome{Final: last, Attempts: attempts}
}

func (r *Retrier) policy(maxRetries int) retrypolicy.RetryPolicy[Attempt] {
	b := retrypolicy.NewBuilder[Attempt]().
		HandleIf(func(a Attempt, err error) bool {
			return err != nil || !a.Responded()
		}).
		WithMaxRetries(maxRetries)

	switch {
	case r.Delay <= 0:
	case r.MaxDelay > r.Delay:
		b = b.WithBackoff(r.Delay, r.MaxDelay)
	default:
		b = b.WithDelay(r.Delay)
	}
	return b.Build()
}

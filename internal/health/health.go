package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// Policy bounds the liveness poll: exactly MaxAttempts probes spaced
// Interval apart, for a hard upper limit on wait time.
type Policy struct {
	MaxAttempts int
	Interval    time.Duration
}

// DefaultPolicy waits up to ~120s for a restarted service.
var DefaultPolicy = Policy{
	MaxAttempts: 12,
	Interval:    10 * time.Second,
}

// Prober checks liveness once.
type Prober interface {
	Probe(ctx context.Context) error
}

// TimeoutError reports that the service never became healthy within the
// attempt budget.
type TimeoutError struct {
	Attempts int
	Interval time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("service not healthy after %d attempts spaced %s apart", e.Attempts, e.Interval)
}

// Wait polls the prober under the policy and returns the attempt number
// that passed. It never retries indefinitely; the only early exit is
// context cancellation.
func Wait(ctx context.Context, logger zerolog.Logger, prober Prober, policy Policy) (int, error) {
	if prober == nil {
		return 0, errors.New("prober must not be nil")
	}
	if policy.MaxAttempts <= 0 {
		return 0, errors.New("max attempts must be greater than zero")
	}
	if policy.Interval <= 0 {
		return 0, errors.New("interval must be greater than zero")
	}

	attempt := 0
	operation := func() error {
		attempt++
		if err := prober.Probe(ctx); err != nil {
			logger.Info().
				Int("attempt", attempt).
				Int("max_attempts", policy.MaxAttempts).
				Err(err).
				Msg("health probe failed")
			return err
		}
		logger.Info().Int("attempt", attempt).Msg("health probe passed")
		return nil
	}

	policyBackoff := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(policy.Interval), uint64(policy.MaxAttempts-1)),
		ctx,
	)

	if err := backoff.Retry(operation, policyBackoff); err != nil {
		if ctx.Err() != nil {
			return attempt, ctx.Err()
		}
		return attempt, &TimeoutError{Attempts: attempt, Interval: policy.Interval}
	}
	return attempt, nil
}

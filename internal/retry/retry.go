// Stationlink - Authenticated Weather Station Data Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stationlink

package retry

import (
	"context"
	"time"

	"github.com/tomtom215/stationlink/internal/apierror"
	"github.com/tomtom215/stationlink/internal/logging"
	"github.com/tomtom215/stationlink/internal/metrics"
)

// Operation is one attempt of a retried call. attempt is zero-based.
type Operation[T any] func(ctx context.Context, attempt int) (T, error)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Executor runs retried operations. The zero value uses SleepContext.
type Executor struct {
	Sleep SleepFunc
}

// Default is the executor used by Do and DoWithFallback.
var Default = Executor{Sleep: SleepContext}

// SleepContext blocks for d, returning early with ctx.Err() if ctx is cancelled.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (e Executor) sleep(ctx context.Context, d time.Duration) error {
	if e.Sleep == nil {
		return SleepContext(ctx, d)
	}
	return e.Sleep(ctx, d)
}

// Do runs op with the default executor.
func Do[T any](ctx context.Context, cfg Config, op Operation[T]) (T, error) {
	return Run(ctx, Default, cfg, op)
}

// DoWithFallback runs op with the default executor and returns fallback instead of an error.
func DoWithFallback[T any](ctx context.Context, fallback T, cfg Config, op Operation[T]) T {
	return RunWithFallback(ctx, Default, fallback, cfg, op)
}

// Run calls op until it succeeds, returns a non-retryable error, or runs out of attempts.
// The last error is returned unchanged.
func Run[T any](ctx context.Context, ex Executor, cfg Config, op Operation[T]) (T, error) {
	var zero T
	maxAttempts := cfg.attempts()

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			metrics.RecordRetryOutcome("cancelled")
			return zero, err
		}

		result, err := op(ctx, attempt)
		if err == nil {
			metrics.RecordRetryOutcome("success")
			return result, nil
		}

		if ctx.Err() != nil {
			metrics.RecordRetryOutcome("cancelled")
			return zero, err
		}
		if !cfg.ShouldRetry(err) {
			metrics.RecordRetryOutcome("not_retryable")
			return zero, err
		}
		if attempt == maxAttempts-1 {
			metrics.RecordRetryOutcome("exhausted")
			return zero, err
		}

		kind := apierror.KindOf(err)
		delay := cfg.Delay(attempt)
		metrics.RecordRetry(kind.String())
		logging.Ctx(ctx).Debug().
			Err(err).
			Str("kind", kind.String()).
			Int("attempt", attempt+1).
			Int("max_attempts", maxAttempts).
			Dur("delay", delay).
			Msg("retrying after failure")

		if sleepErr := ex.sleep(ctx, delay); sleepErr != nil {
			metrics.RecordRetryOutcome("cancelled")
			return zero, sleepErr
		}
	}

	return zero, apierror.New(apierror.KindUnknown, "retry loop exited without result")
}

// RunWithFallback is Run that never surfaces an error: fallback is returned instead.
func RunWithFallback[T any](ctx context.Context, ex Executor, fallback T, cfg Config, op Operation[T]) T {
	result, err := Run(ctx, ex, cfg, op)
	if err != nil {
		return fallback
	}
	return result
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package poll repeats a status check at a fixed interval until it reports
// completion. It backs the submit-then-poll long-running operation pattern
// used for document uploads.
package poll

import (
	"context"
	"log/slog"
	"time"

	ragerr "github.com/sigil-dev/ragdesk/pkg/errors"
)

// DefaultInterval is the delay between two status checks of a long-running
// upload operation.
const DefaultInterval = 2 * time.Second

// Clock abstracts the passage of time so tests can drive polling without
// sleeping.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

// RealClock is the wall-clock implementation of Clock.
type RealClock struct{}

func (RealClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// CheckFunc reports whether the polled operation has finished. A non-nil
// error stops polling immediately.
type CheckFunc func(ctx context.Context) (done bool, err error)

// Config parameterizes Until.
type Config struct {
	// Interval is the fixed delay between checks. Zero means DefaultInterval.
	Interval time.Duration
	// MaxAttempts bounds the number of checks. Zero polls until done, error
	// or context cancellation.
	MaxAttempts int
	// Clock defaults to RealClock.
	Clock Clock
}

// Validate rejects negative settings.
func (c Config) Validate() error {
	if c.Interval < 0 {
		return ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue, "poll interval must not be negative, got %s", c.Interval)
	}
	if c.MaxAttempts < 0 {
		return ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue, "poll max attempts must not be negative, got %d", c.MaxAttempts)
	}
	return nil
}

// Until runs check immediately and then once per interval until it reports
// done, returns an error, the attempt budget runs out, or ctx is cancelled.
// It returns the number of checks performed.
func Until(ctx context.Context, cfg Config, check CheckFunc) (int, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	if cfg.Interval == 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = RealClock{}
	}

	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return attempts, ragerr.Wrapf(err, ragerr.CodePollCancelled, "polling abandoned after %d checks", attempts)
		}

		attempts++
		done, err := check(ctx)
		if err != nil {
			return attempts, err
		}
		if done {
			if attempts > 1 {
				slog.Debug("poll completed", "attempts", attempts)
			}
			return attempts, nil
		}

		if cfg.MaxAttempts > 0 && attempts >= cfg.MaxAttempts {
			return attempts, ragerr.Errorf(ragerr.CodePollAttemptsExhausted,
				"operation not done after %d checks", attempts)
		}

		select {
		case <-ctx.Done():
			return attempts, ragerr.Wrapf(ctx.Err(), ragerr.CodePollCancelled, "polling abandoned after %d checks", attempts)
		case <-cfg.Clock.After(cfg.Interval):
		}
	}
}

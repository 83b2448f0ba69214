package service

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"github.com/its-hmtu/vote-dashboard/internal/api/metrics"
	"github.com/its-hmtu/vote-dashboard/internal/core/domain"
)

// RetryPolicy bounds the backoff applied to write sequences that must restore
// the single-active invariant.
type RetryPolicy struct {
	Initial    time.Duration
	MaxElapsed time.Duration
	// MaxTries caps attempts; zero means unlimited within MaxElapsed.
	MaxTries uint
}

// DefaultRetryPolicy is used when a zero policy is supplied.
var DefaultRetryPolicy = RetryPolicy{
	Initial:    200 * time.Millisecond,
	MaxElapsed: 2 * time.Minute,
}

func (p RetryPolicy) orDefault() RetryPolicy {
	if p.Initial <= 0 {
		p.Initial = DefaultRetryPolicy.Initial
	}
	if p.MaxElapsed <= 0 {
		p.MaxElapsed = DefaultRetryPolicy.MaxElapsed
	}
	return p
}

// isPermanent reports errors that should never be retried: records that are
// gone or corrupt will not heal by trying again.
func isPermanent(err error) bool {
	return errors.Is(err, domain.ErrCorruptSession) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrValidation)
}

// retry runs fn with exponential backoff until it succeeds, returns a
// permanent error, or the policy is exhausted.
func retry(ctx context.Context, p RetryPolicy, op string, log zerolog.Logger, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Initial

	opts := []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxElapsedTime(p.MaxElapsed),
		backoff.WithNotify(func(err error, next time.Duration) {
			metrics.StoreRetriesTotal.WithLabelValues(op).Inc()
			log.Warn().Err(err).Str("op", op).Dur("retry_in", next).Msg("store write failed, retrying")
		}),
	}
	if p.MaxTries > 0 {
		opts = append(opts, backoff.WithMaxTries(p.MaxTries))
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := fn()
		if err != nil && isPermanent(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}, opts...)
	return err
}

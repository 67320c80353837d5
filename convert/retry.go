package convert

import (
	"context"
	"errors"
	"time"

	"github.com/ZaguanLabs/hanconv"
)

// RetryConfig bounds the retry loop around the remote converter.
type RetryConfig struct {
	MaxRetries int           // additional attempts after the first
	BaseDelay  time.Duration // delay before the first retry
	MaxDelay   time.Duration // cap for the doubling delay
}

// DefaultRetryConfig returns the retry behavior the CLI ships with.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// retry runs fn until it succeeds, fails permanently, or the attempts
// are spent. Only errors flagged transient on ConverterError are tried
// again; the delay doubles per round up to MaxDelay. The last error is
// returned on exhaustion.
func retry(ctx context.Context, cfg RetryConfig, fn func() (string, error)) (string, error) {
	delay := cfg.BaseDelay
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		if !retryable(err) || attempt >= cfg.MaxRetries {
			return "", err
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
		if delay *= 2; delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
}

// retryable reports whether err marks a transient converter failure.
func retryable(err error) bool {
	var convErr *hanconv.ConverterError
	return errors.As(err, &convErr) && convErr.Retryable
}

package fetch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// Policy configures retry and timeout behaviour for every request issued by a [Client].
type Policy struct {
	// MaxAttempts is the total number of tries, including the first one.
	MaxAttempts int
	// BaseDelay, in seconds, is raised to the retry number to obtain the
	// wait before that retry: BaseDelay^1 before the second attempt,
	// BaseDelay^2 before the third, and so on. Zero disables waiting.
	BaseDelay float64
	// Timeout bounds a single attempt. Zero means no per-attempt timeout.
	Timeout time.Duration
}

// DefaultPolicy returns 5 attempts, a 1.5s backoff base and a 30s per-request timeout.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		BaseDelay:   1.5,
		Timeout:     30 * time.Second,
	}
}

// Delay returns the wait before the given retry (1-based).
func (p Policy) Delay(retry int) time.Duration {
	if p.BaseDelay <= 0 || retry <= 0 {
		return 0
	}
	return time.Duration(math.Pow(p.BaseDelay, float64(retry)) * float64(time.Second))
}

// Validate reports configuration errors.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", p.MaxAttempts)
	}
	if p.BaseDelay < 0 {
		return fmt.Errorf("retry base delay must not be negative, got %g", p.BaseDelay)
	}
	if p.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", p.Timeout)
	}
	return nil
}

// RetryableError marks a failure as transient. Only errors wrapped with
// this type make [Retry] try again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err as a [RetryableError]. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err is marked as transient.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// attemptsError is returned by Retry when every attempt failed with a
// transient error. Client turns it into an ExhaustedError carrying the URL.
type attemptsError struct {
	attempts int
	err      error
}

func (e *attemptsError) Error() string {
	return fmt.Sprintf("giving up after %d attempt(s): %v", e.attempts, e.err)
}

func (e *attemptsError) Unwrap() error { return e.err }

// Retry runs fn until it succeeds, returns a non-retryable error, or the
// policy's attempts are used up. fn receives the 1-based attempt number.
// Waits between attempts follow [Policy.Delay] and stop early when ctx is done.
func Retry(ctx context.Context, p Policy, fn func(attempt int) error) error {
	attempts := max(p.MaxAttempts, 1)
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return err
		}

		if attempt < attempts {
			if err := sleep(ctx, p.Delay(attempt)); err != nil {
				return err
			}
		}
	}

	return &attemptsError{attempts: attempts, err: lastErr}
}

func sleep(ctx context.Context, d time.Duration) error {
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

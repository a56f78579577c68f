// Package retry provides a fixed-budget retry wrapper for flaky calls to
// external services.
//
// There is no backoff, no jitter, and no result caching between attempts:
// the call is retried immediately up to the attempt budget, and the error
// from the final attempt propagates to the caller unmodified. Steps that
// talk to rate-limited APIs should wrap individual calls, not whole runs.
package retry

import "fmt"

// DefaultAttempts is the attempt budget used by Call.
const DefaultAttempts = 10

// Do invokes fn up to attempts times, returning the first success. If
// every attempt fails, the error from the last attempt is returned.
func Do[T any](attempts int, fn func() (T, error)) (T, error) {
	var zero T
	if attempts < 1 {
		return zero, fmt.Errorf("retry: attempt budget must be positive, got %d", attempts)
	}
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return zero, lastErr
}

// Call invokes fn with the default attempt budget.
func Call[T any](fn func() (T, error)) (T, error) {
	return Do(DefaultAttempts, fn)
}

// DoFunc is Do for functions that return only an error.
func DoFunc(attempts int, fn func() error) error {
	_, err := Do(attempts, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// CallFunc is Call for functions that return only an error.
func CallFunc(fn func() error) error {
	return DoFunc(DefaultAttempts, fn)
}

package helpers

import (
	"fmt"
	"time"

	"mark-price-dashboard/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type DashboardError struct {
	Message string
	Cause   error
}

func (e *DashboardError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DashboardError) Unwrap() error {
	return e.Cause
}

// Distinct error kinds for type assertions.
//
// ParseError:  unparseable numeric input, fatal to the operation that hit it.
// FormatError: malformed or incomplete snapshot payload, degrades to empty output.
// IOError:     network fetch failure, surfaced to the caller of Load.
// FeedError:   malformed inbound tick, dropped without surfacing.
type ParseError struct{ DashboardError }
type FormatError struct{ DashboardError }
type IOError struct{ DashboardError }
type FeedError struct{ DashboardError }

// -----------------------------------------------------------------------------

func NewParseError(message string, cause error) *ParseError {
	return &ParseError{DashboardError{Message: message, Cause: cause}}
}

func NewFormatError(message string, cause error) *FormatError {
	return &FormatError{DashboardError{Message: message, Cause: cause}}
}

func NewIOError(message string, cause error) *IOError {
	return &IOError{DashboardError{Message: message, Cause: cause}}
}

func NewFeedError(message string, cause error) *FeedError {
	return &FeedError{DashboardError{Message: message, Cause: cause}}
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff attempts to execute the operation up to maxRetries times
// with exponential backoff between attempts.
func RetryWithBackoff(log *logger.Logger, operation string, maxRetries int, baseDelay time.Duration, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if attempt == maxRetries-1 {
			break
		}

		delay := baseDelay * (1 << attempt)
		log.Warning("Attempt %d/%d failed for %s: %v. Retrying in %v", attempt+1, maxRetries, operation, err, delay)
		time.Sleep(delay)
	}

	return lastErr
}

// -----------------------------------------------------------------------------

// BackoffDelay returns the delay before the given zero-based retry attempt,
// capped at maxDelay.
func BackoffDelay(attempt int, baseDelay, maxDelay time.Duration) time.Duration {
	if attempt > 30 {
		attempt = 30
	}
	delay := baseDelay * (1 << attempt)
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}

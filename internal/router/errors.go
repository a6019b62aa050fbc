package router

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the routing engine. Handlers map the first
// three onto HTTP statuses; ErrStoreUnavailable is internal only and must
// never cause a completed answer to be discarded.
var (
	ErrBudgetExceeded      = errors.New("monthly token limit exceeded")
	ErrProviderUnavailable = errors.New("completion provider unavailable")
	ErrUserNotFound        = errors.New("user not found")
	ErrStoreUnavailable    = errors.New("usage store unavailable")
	ErrInvalidCategory     = errors.New("invalid user category")
)

// ProviderError wraps a failed completion call. Retryable failures (timeouts,
// rate limits, upstream 5xx) trigger exactly one retry against the fallback
// model; non-retryable ones do not.
type ProviderError struct {
	Model     string
	Retryable bool
	Err       error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider call failed for %s: %v", e.Model, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

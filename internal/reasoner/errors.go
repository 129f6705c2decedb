package reasoner

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// TransientError marks a Reasoner failure worth retrying: timeouts,
// rate limits and 5xx-class backend failures.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("transient reasoner error: %v", e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

// StageFailedError aborts the run, carrying the role whose invocation failed.
type StageFailedError struct {
	Role string
	Err  error
}

func (e *StageFailedError) Error() string { return fmt.Sprintf("stage %s failed: %v", e.Role, e.Err) }
func (e *StageFailedError) Unwrap() error { return e.Err }

// MalformedOutputError reports a structured reply that could not be parsed.
// The owning role is re-prompted once with the parse error appended; a
// second failure escalates to StageFailedError.
type MalformedOutputError struct {
	Raw string
	Err error
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("malformed reasoner output: %v", e.Err)
}
func (e *MalformedOutputError) Unwrap() error { return e.Err }

// BudgetExceededError means the run-wide step budget or a per-phase round
// bound was violated despite the router's own bookkeeping. It is fatal and
// never silently capped.
type BudgetExceededError struct {
	Steps int
	Limit int
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("step budget exceeded: %d invocations, limit %d", e.Steps, e.Limit)
}

// IsTransient reports whether err should be retried with backoff.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"rate limit", "429", "timeout", "timed out",
		"500", "502", "503", "504", "connection reset", "temporarily unavailable",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

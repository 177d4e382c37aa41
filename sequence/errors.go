package sequence

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Error classes. Concrete error types below match them through errors.Is.
var (
	ErrCandidateNotFound  = errors.New("candidate not found")
	ErrScopeEntryFailed   = errors.New("scope entry failed")
	ErrInterruptedInput   = errors.New("input interrupted")
	ErrCriticalStepFailed = errors.New("critical step failed")
)

// Attempt records one candidate tried by the Resolver.
type Attempt struct {
	Candidate Candidate     `json:"candidate"`
	Err       error         `json:"-"`
	Detail    string        `json:"error,omitempty"`
	Elapsed   time.Duration `json:"elapsed"`
}

func newAttempt(c Candidate, err error, elapsed time.Duration) Attempt {
	a := Attempt{Candidate: c, Err: err, Elapsed: elapsed}
	if err != nil {
		a.Detail = err.Error()
	}
	return a
}

// NotFoundError is returned when no candidate matched. Attempts lists every
// candidate that was tried, in order. Err is set when the search stopped
// early because the context ended.
type NotFoundError struct {
	Attempts []Attempt
	Err      error
}

func (e *NotFoundError) Error() string {
	var b strings.Builder
	b.WriteString("no candidate matched")
	if e.Err != nil {
		fmt.Fprintf(&b, " (%v)", e.Err)
	}
	for i, a := range e.Attempts {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s %s: %s", a.Candidate.Name(), a.Candidate, a.Detail)
	}
	return b.String()
}

func (e *NotFoundError) Is(target error) bool { return target == ErrCandidateNotFound }

func (e *NotFoundError) Unwrap() error { return e.Err }

// ScopeEntryError means no frame candidate resolved and the frame context
// fell back to the top-level document.
type ScopeEntryError struct {
	Cause error
}

func (e *ScopeEntryError) Error() string {
	return "frame not entered, using top-level document: " + e.Cause.Error()
}

func (e *ScopeEntryError) Is(target error) bool { return target == ErrScopeEntryFailed }

func (e *ScopeEntryError) Unwrap() error { return e.Cause }

// InterruptedError reports typing that stopped on cancellation. The first
// Typed characters reached the target and stay there.
type InterruptedError struct {
	Typed int
	Total int
	Err   error
}

func (e *InterruptedError) Error() string {
	return fmt.Sprintf("typing interrupted after %d of %d characters: %v", e.Typed, e.Total, e.Err)
}

func (e *InterruptedError) Is(target error) bool { return target == ErrInterruptedInput }

func (e *InterruptedError) Unwrap() error { return e.Err }

// CriticalStepError terminates a run. It names the step, the state the run
// had reached and carries the attempts of the failing resolution.
type CriticalStepError struct {
	Step     string
	State    State
	Attempts []Attempt
	Err      error
}

func (e *CriticalStepError) Error() string {
	return fmt.Sprintf("step %q failed in state %s: %v", e.Step, e.State, e.Err)
}

func (e *CriticalStepError) Is(target error) bool { return target == ErrCriticalStepFailed }

func (e *CriticalStepError) Unwrap() error { return e.Err }

func attemptsOf(err error) []Attempt {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf.Attempts
	}
	return nil
}

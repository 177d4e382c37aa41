package sequence

import (
	"context"
	"errors"
)

// Element is an opaque handle to a located element. Only the Driver that
// returned it knows its concrete type.
type Element any

// Scope is the document or frame against which locators are evaluated.
type Scope interface {
	// ScopeName describes the scope for logs and reports.
	ScopeName() string
}

// Driver is the browser capability the sequencer consumes.
//
// Find must not wait: it reports the current state of the DOM and returns
// ErrNoMatch when nothing matches. Polling belongs to the Resolver.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	Find(ctx context.Context, scope Scope, c Candidate) (Element, error)
	Click(ctx context.Context, el Element) error
	SendChar(ctx context.Context, el Element, r rune) error
	PressEnter(ctx context.Context, el Element) error
	EnterFrame(ctx context.Context, el Element) (Scope, error)
	Top() Scope
}

// Driver-level errors. Concrete drivers wrap or return these so the core can
// classify them.
var (
	ErrNoMatch = errors.New("no element matches")
	ErrTimeout = errors.New("driver timeout")
)

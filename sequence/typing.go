package sequence

import (
	"context"
	"time"
)

// TypeOptions controls one Type call.
type TypeOptions struct {
	// Delay follows every delivered character or key press.
	Delay time.Duration
	// Multiline sends line breaks as Enter presses instead of characters.
	Multiline bool
}

// Typist delivers text one input event at a time.
type Typist struct {
	drv Driver
}

// NewTypist creates a Typist over drv.
func NewTypist(drv Driver) *Typist {
	return &Typist{drv: drv}
}

// Type sends text to el in order and returns the number of input events
// delivered. Cancellation is checked before every character; on
// cancellation the characters already sent stay in the field and the error
// is an *InterruptedError.
//
// In multiline mode "\r\n", "\r" and "\n" each produce a single Enter press.
func (t *Typist) Type(ctx context.Context, el Element, text string, opts TypeOptions) (int, error) {
	events := split(text, opts.Multiline)
	typed := 0
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return typed, &InterruptedError{Typed: typed, Total: len(events), Err: err}
		}

		var err error
		if ev.enter {
			err = t.drv.PressEnter(ctx, el)
		} else {
			err = t.drv.SendChar(ctx, el, ev.r)
		}
		if err != nil {
			if ctx.Err() != nil {
				return typed, &InterruptedError{Typed: typed, Total: len(events), Err: ctx.Err()}
			}
			return typed, err
		}
		typed++

		if err := wait(ctx, opts.Delay); err != nil {
			return typed, &InterruptedError{Typed: typed, Total: len(events), Err: err}
		}
	}
	return typed, nil
}

type inputEvent struct {
	r     rune
	enter bool
}

func split(text string, multiline bool) []inputEvent {
	rs := []rune(text)
	out := make([]inputEvent, 0, len(rs))
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		if multiline && (r == '\n' || r == '\r') {
			if r == '\r' && i+1 < len(rs) && rs[i+1] == '\n' {
				i++
			}
			out = append(out, inputEvent{enter: true})
			continue
		}
		out = append(out, inputEvent{r: r})
	}
	return out
}

// Events returns the number of input events Type would deliver for text.
func Events(text string, multiline bool) int {
	return len(split(text, multiline))
}

package sequence

import (
	"fmt"
	"time"
)

// Action is what a Step does with its resolved target.
type Action string

const (
	ActionClick     Action = "click"     // click the target
	ActionType      Action = "type"      // focus the target and type Payload
	ActionComposite Action = "composite" // run Parts in order
	ActionNavigate  Action = "navigate"  // load URL, then wait for a ready marker
	ActionFrame     Action = "frame"     // make a frame the active scope
	ActionDismiss   Action = "dismiss"   // close whichever overlays are present
)

// Criticality decides whether a failed step aborts the run.
type Criticality int

const (
	Fatal Criticality = iota
	Recoverable
)

func (c Criticality) String() string {
	if c == Recoverable {
		return "recoverable"
	}
	return "fatal"
}

// Part is one sub-action of a composite step.
type Part struct {
	Label      string
	Action     Action // ActionClick or ActionType
	Candidates []Candidate
	Payload    string
	Multiline  bool
}

// Step is one named unit of the pipeline. Steps are defined before a run and
// never modified by it.
type Step struct {
	Name string

	// Milestone is the state the run reaches once this step has been
	// attempted without aborting.
	Milestone State

	Action     Action
	Candidates []Candidate
	Parts      []Part

	// Payload is the text of a type action. It is never logged or reported.
	Payload   string
	Multiline bool

	// URL, when set, is loaded before the action and resets the frame
	// context to the top-level document.
	URL string

	// Timeout is split evenly over the candidates of one resolution and is
	// not floored by the resolver's MinSlice; dismiss steps give it to
	// every overlay. Zero uses the sequencer default.
	Timeout time.Duration

	Critical Criticality

	// Settle is a bounded pause after a successful action, for pages that
	// start a transition on click.
	Settle time.Duration
}

// Validate checks the static shape of a step.
func (s Step) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("sequence: step without name")
	}
	if s.Milestone <= StateInit || s.Milestone >= StateDone {
		return fmt.Errorf("sequence: step %q: milestone %s is not a pipeline milestone", s.Name, s.Milestone)
	}
	switch s.Action {
	case ActionClick, ActionType, ActionFrame, ActionDismiss:
		if err := validateList(s.Candidates); err != nil {
			return fmt.Errorf("step %q: %w", s.Name, err)
		}
	case ActionNavigate:
		if s.URL == "" {
			return fmt.Errorf("sequence: step %q: navigate without URL", s.Name)
		}
		if err := validateList(s.Candidates); err != nil {
			return fmt.Errorf("step %q: %w", s.Name, err)
		}
	case ActionComposite:
		if len(s.Parts) == 0 {
			return fmt.Errorf("sequence: step %q: composite without parts", s.Name)
		}
		for i, p := range s.Parts {
			if p.Action != ActionClick && p.Action != ActionType {
				return fmt.Errorf("sequence: step %q part %d: unsupported action %q", s.Name, i, p.Action)
			}
			if err := validateList(p.Candidates); err != nil {
				return fmt.Errorf("step %q part %d: %w", s.Name, i, err)
			}
		}
	default:
		return fmt.Errorf("sequence: step %q: unknown action %q", s.Name, s.Action)
	}
	return nil
}

// ValidateSteps checks every step and that milestones never go backwards.
func ValidateSteps(steps []Step) error {
	if len(steps) == 0 {
		return fmt.Errorf("sequence: no steps")
	}
	prev := StateInit
	for _, s := range steps {
		if err := s.Validate(); err != nil {
			return err
		}
		if s.Milestone < prev {
			return fmt.Errorf("sequence: step %q: milestone %s after %s", s.Name, s.Milestone, prev)
		}
		prev = s.Milestone
	}
	return nil
}

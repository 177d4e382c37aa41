package sequence

import "time"

// Outcome is the record of one attempted step. Outcomes are appended to the
// session log and never edited.
type Outcome struct {
	Step   string `json:"step"`
	Action Action `json:"action"`
	// State is the state of the run right after this step.
	State State `json:"state"`

	// Matched is the candidate that resolved the step target, nil if none.
	Matched *Candidate `json:"matched,omitempty"`
	// Trail holds the matched candidate of every part of a composite step.
	Trail []Candidate `json:"trail,omitempty"`

	Success bool   `json:"success"`
	Warning string `json:"warning,omitempty"`
	Err     error  `json:"-"`
	Detail  string `json:"error,omitempty"`

	Attempts  []Attempt     `json:"attempts,omitempty"`
	Dismissed int           `json:"dismissed"`
	Typed     int           `json:"typed,omitempty"`
	Duration  time.Duration `json:"duration"`
}

func (o *Outcome) fail(err error) {
	o.Success = false
	o.Err = err
	if err != nil {
		o.Detail = err.Error()
	}
	if a := attemptsOf(err); a != nil {
		o.Attempts = append(o.Attempts, a...)
	}
}

// Report is what a run returns to its caller, whether it finished or not.
type Report struct {
	RunID     string        `json:"run_id,omitempty"`
	State     State         `json:"state"`
	Outcomes  []Outcome     `json:"outcomes"`
	Err       error         `json:"-"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Done reports whether the run reached StateDone.
func (r *Report) Done() bool { return r.State == StateDone }

// Outcome returns the outcome recorded for step.
func (r *Report) Outcome(step string) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Step == step {
			return o, true
		}
	}
	return Outcome{}, false
}

// Matches maps each step to the label of the candidate that matched it.
func (r *Report) Matches() map[string]string {
	m := make(map[string]string, len(r.Outcomes))
	for _, o := range r.Outcomes {
		if o.Matched != nil {
			m[o.Step] = o.Matched.Name()
		}
	}
	return m
}

func (r *Report) abort(err error) {
	r.State = StateAborted
	r.Err = err
	r.Error = err.Error()
}

package pilot

import (
	"github.com/hazyhaar/blogpilot/pilot/internal/config"
	"github.com/hazyhaar/blogpilot/sequence"
)

// Step names of the publish pipeline.
const (
	StepLogin       = "login"
	StepOpenEditor  = "open-editor"
	StepEnterFrame  = "enter-frame"
	StepDismiss     = "dismiss-popups"
	StepFillTitle   = "fill-title"
	StepFillBody    = "fill-body"
	StepSave        = "save"
	StepConfirmSave = "confirm-save"
)

// Post is the content of one publish run.
type Post struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	// Row is the workbook row the post came from, zero otherwise.
	Row int `json:"row,omitempty"`
}

// BuildSteps returns the publish pipeline for post. Secrets and post text
// only travel in step payloads.
func BuildSteps(cfg *config.Config, creds config.Credentials, post Post) []sequence.Step {
	sel := cfg.Selectors
	run := cfg.Run

	return []sequence.Step{
		{
			Name:      StepLogin,
			Milestone: sequence.StateAuthenticated,
			Action:    sequence.ActionComposite,
			URL:       cfg.Site.LoginURL,
			Parts: []sequence.Part{
				{Label: "account", Action: sequence.ActionType, Candidates: sel.AccountField, Payload: creds.ID},
				{Label: "secret", Action: sequence.ActionType, Candidates: sel.SecretField, Payload: creds.Secret},
				{Label: "submit", Action: sequence.ActionClick, Candidates: sel.LoginButton},
			},
			Critical: sequence.Fatal,
			Settle:   run.LoginSettle,
		},
		{
			Name:       StepOpenEditor,
			Milestone:  sequence.StateOnTargetPage,
			Action:     sequence.ActionNavigate,
			URL:        cfg.Site.WriteURL,
			Candidates: sel.EditorReady,
			Critical:   sequence.Fatal,
			Settle:     run.EditorSettle,
		},
		{
			// A missing frame degrades to the top-level document.
			Name:       StepEnterFrame,
			Milestone:  sequence.StateScopeEntered,
			Action:     sequence.ActionFrame,
			Candidates: sel.EditorFrame,
			Critical:   sequence.Recoverable,
		},
		{
			Name:       StepDismiss,
			Milestone:  sequence.StatePopupsCleared,
			Action:     sequence.ActionDismiss,
			Candidates: sel.Popups,
			Critical:   sequence.Recoverable,
		},
		{
			Name:       StepFillTitle,
			Milestone:  sequence.StateFieldsPopulated,
			Action:     sequence.ActionType,
			Candidates: sel.Title,
			Payload:    post.Title,
			Critical:   sequence.Fatal,
		},
		{
			Name:       StepFillBody,
			Milestone:  sequence.StateFieldsPopulated,
			Action:     sequence.ActionType,
			Candidates: sel.Body,
			Payload:    post.Body,
			Multiline:  true,
			Critical:   sequence.Fatal,
		},
		{
			Name:       StepSave,
			Milestone:  sequence.StatePersisted,
			Action:     sequence.ActionClick,
			Candidates: sel.Save,
			Critical:   sequence.Fatal,
			Settle:     run.SaveSettle,
		},
		{
			// Some editor releases ask for confirmation after save.
			Name:       StepConfirmSave,
			Milestone:  sequence.StatePersisted,
			Action:     sequence.ActionClick,
			Candidates: sel.ConfirmSave,
			Timeout:    2 * run.PopupTimeout,
			Critical:   sequence.Recoverable,
		},
	}
}

// SequencerConfig maps the run configuration onto the sequencer.
func SequencerConfig(cfg *config.Config) sequence.Config {
	return sequence.Config{
		Resolver: sequence.ResolverConfig{
			PerCandidate: cfg.Run.PerCandidate,
			MinSlice:     cfg.Run.MinSlice,
			PollInterval: cfg.Run.PollInterval,
		},
		StepTimeout:  cfg.Run.StepTimeout,
		PopupTimeout: cfg.Run.PopupTimeout,
		CharDelay:    cfg.Run.CharDelay,
	}
}

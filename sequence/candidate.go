// Package sequence drives a fixed pipeline of UI actions against a page whose
// DOM shape is not stable. Every target is located through an ordered list of
// alternative locators; the first one that matches wins and is recorded, so a
// run produces an audit trail of exactly which alternative worked where.
//
// The package consumes a browser through the Driver interface and never
// touches a concrete automation library.
package sequence

import (
	"fmt"
	"strings"
)

// Kind is the locator language of a Candidate.
type Kind string

const (
	KindID    Kind = "id"    // element id attribute
	KindCSS   Kind = "css"   // CSS selector
	KindXPath Kind = "xpath" // structural locator
)

// Candidate is one alternative way to find a UI element.
type Candidate struct {
	Kind  Kind   `json:"kind" yaml:"kind"`
	Expr  string `json:"expr" yaml:"expr"`
	Label string `json:"label,omitempty" yaml:"label"`
}

// ID builds an id-attribute candidate.
func ID(id, label string) Candidate { return Candidate{Kind: KindID, Expr: id, Label: label} }

// CSS builds a CSS selector candidate.
func CSS(sel, label string) Candidate { return Candidate{Kind: KindCSS, Expr: sel, Label: label} }

// XPath builds a structural candidate.
func XPath(expr, label string) Candidate { return Candidate{Kind: KindXPath, Expr: expr, Label: label} }

// Name returns the label, or kind:expr when no label was given.
func (c Candidate) Name() string {
	if c.Label != "" {
		return c.Label
	}
	return string(c.Kind) + ":" + c.Expr
}

func (c Candidate) String() string {
	return fmt.Sprintf("%s(%s)", c.Kind, c.Expr)
}

// Selector returns the CSS form of an id or css candidate. Structural
// candidates have no CSS form and return "".
func (c Candidate) Selector() string {
	switch c.Kind {
	case KindID:
		return `[id="` + strings.ReplaceAll(c.Expr, `"`, `\"`) + `"]`
	case KindCSS:
		return c.Expr
	}
	return ""
}

// Validate reports malformed candidates.
func (c Candidate) Validate() error {
	switch c.Kind {
	case KindID, KindCSS, KindXPath:
	case "":
		return fmt.Errorf("sequence: candidate %q: missing kind", c.Expr)
	default:
		return fmt.Errorf("sequence: candidate %q: unknown kind %q", c.Expr, c.Kind)
	}
	if strings.TrimSpace(c.Expr) == "" {
		return fmt.Errorf("sequence: candidate %q: empty expression", c.Label)
	}
	return nil
}

func validateList(cands []Candidate) error {
	if len(cands) == 0 {
		return fmt.Errorf("sequence: empty candidate list")
	}
	for _, c := range cands {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

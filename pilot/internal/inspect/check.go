package inspect

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/hazyhaar/blogpilot/sequence"
)

// Verdict is the outcome of checking one candidate against a snapshot.
type Verdict string

const (
	Hit         Verdict = "hit"
	Miss        Verdict = "miss"
	Unsupported Verdict = "unsupported" // expression does not compile offline
)

// CheckResult reports how a candidate fares against a snapshot.
type CheckResult struct {
	Candidate sequence.Candidate `json:"candidate"`
	Verdict   Verdict            `json:"verdict"`
	Count     int                `json:"count"`
	Error     string             `json:"error,omitempty"`
}

// Check evaluates candidates against a snapshot without a browser. CSS and
// id candidates go through cascadia, xpath candidates through htmlquery.
// An expression either library rejects is reported as Unsupported.
func Check(doc string, cands []sequence.Candidate) ([]CheckResult, error) {
	gq, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("inspect: parse: %w", err)
	}
	root := gq.Nodes[0]

	out := make([]CheckResult, 0, len(cands))
	for _, c := range cands {
		r := CheckResult{Candidate: c, Verdict: Unsupported}
		n, err := count(gq, root, c)
		if err != nil {
			r.Error = err.Error()
			out = append(out, r)
			continue
		}
		r.Count = n
		r.Verdict = Miss
		if n > 0 {
			r.Verdict = Hit
		}
		out = append(out, r)
	}
	return out, nil
}

func count(gq *goquery.Document, root *html.Node, c sequence.Candidate) (int, error) {
	switch c.Kind {
	case sequence.KindXPath:
		nodes, err := htmlquery.QueryAll(root, c.Expr)
		if err != nil {
			return 0, err
		}
		return len(nodes), nil
	case sequence.KindID, sequence.KindCSS:
		sel, err := cascadia.Compile(c.Selector())
		if err != nil {
			return 0, err
		}
		return gq.FindMatcher(sel).Length(), nil
	}
	return 0, fmt.Errorf("unknown candidate kind %q", c.Kind)
}

// FirstHit returns the index of the first candidate that hits, or -1.
func FirstHit(results []CheckResult) int {
	for i, r := range results {
		if r.Verdict == Hit {
			return i
		}
	}
	return -1
}

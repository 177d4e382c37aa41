// Package inspect surveys a page snapshot for the elements a publish run
// interacts with, and proposes locator candidates for them. It is the
// maintenance tool used when the editor changes its markup.
package inspect

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/blogpilot/sequence"
)

// Element describes one interactive element of a snapshot.
type Element struct {
	Tag         string               `json:"tag"`
	ID          string               `json:"id,omitempty"`
	Name        string               `json:"name,omitempty"`
	Class       string               `json:"class,omitempty"`
	Type        string               `json:"type,omitempty"`
	Placeholder string               `json:"placeholder,omitempty"`
	Title       string               `json:"title,omitempty"`
	TestID      string               `json:"testid,omitempty"`
	Text        string               `json:"text,omitempty"`
	Editable    bool                 `json:"editable,omitempty"`
	Suggested   []sequence.Candidate `json:"suggested,omitempty"`
}

// Survey groups the elements of a snapshot by role.
type Survey struct {
	Inputs    []Element `json:"inputs"`
	Buttons   []Element `json:"buttons"`
	Textareas []Element `json:"textareas"`
	Frames    []Element `json:"frames"`
	Editables []Element `json:"editables"`

	// Totals counts every element per role, including those beyond the
	// listing limit.
	Totals map[string]int `json:"totals"`
}

const maxText = 40

// Parse surveys an HTML document. limit caps each role's listing; zero
// means no cap.
func Parse(doc string, limit int) (*Survey, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("inspect: parse: %w", err)
	}
	return Walk(root, limit), nil
}

// Walk surveys a parsed document.
func Walk(root *html.Node, limit int) *Survey {
	s := &Survey{Totals: map[string]int{}}
	add := func(role string, list *[]Element, n *html.Node) {
		s.Totals[role]++
		if limit > 0 && len(*list) >= limit {
			return
		}
		*list = append(*list, describe(n))
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Input:
				if t := strings.ToLower(getAttr(n, "type")); t != "hidden" {
					add("input", &s.Inputs, n)
				}
			case atom.Button:
				add("button", &s.Buttons, n)
			case atom.Textarea:
				add("textarea", &s.Textareas, n)
			case atom.Iframe, atom.Frame:
				add("frame", &s.Frames, n)
			default:
				if isEditable(n) {
					add("editable", &s.Editables, n)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return s
}

func describe(n *html.Node) Element {
	e := Element{
		Tag:         n.Data,
		ID:          getAttr(n, "id"),
		Name:        getAttr(n, "name"),
		Class:       strings.Join(strings.Fields(getAttr(n, "class")), " "),
		Type:        getAttr(n, "type"),
		Placeholder: getAttr(n, "placeholder"),
		Title:       getAttr(n, "title"),
		TestID:      getAttr(n, "data-testid"),
		Text:        truncate(collectText(n), maxText),
		Editable:    isEditable(n),
	}
	e.Suggested = suggest(e)
	return e
}

// suggest derives candidates from the most to the least stable attribute:
// id, test id, name, placeholder, title, visible text, classes.
func suggest(e Element) []sequence.Candidate {
	var out []sequence.Candidate
	if e.ID != "" {
		out = append(out, sequence.ID(e.ID, "id "+e.ID))
	}
	if quotable(e.TestID) {
		out = append(out, sequence.CSS(fmt.Sprintf("[data-testid='%s']", e.TestID), "testid "+e.TestID))
	}
	if quotable(e.Name) {
		out = append(out, sequence.CSS(fmt.Sprintf("%s[name='%s']", e.Tag, e.Name), "name "+e.Name))
	}
	if quotable(e.Placeholder) {
		out = append(out, sequence.CSS(fmt.Sprintf("%s[placeholder*='%s']", e.Tag, e.Placeholder), "placeholder"))
	}
	if quotable(e.Title) {
		out = append(out, sequence.CSS(fmt.Sprintf("%s[title='%s']", e.Tag, e.Title), "title "+e.Title))
	}
	if e.Tag == "button" && quotable(e.Text) && !strings.HasSuffix(e.Text, "…") {
		out = append(out, sequence.XPath(fmt.Sprintf("//button[contains(normalize-space(.), '%s')]", e.Text), "text "+e.Text))
	}
	if e.Class != "" {
		sel := e.Tag + "." + strings.Join(strings.Fields(e.Class), ".")
		out = append(out, sequence.CSS(sel, "class"))
	}
	if e.Editable && e.Class == "" && e.ID == "" {
		out = append(out, sequence.CSS("[contenteditable='true']", "contenteditable"))
	}
	return out
}

func isEditable(n *html.Node) bool {
	v, ok := lookupAttr(n, "contenteditable")
	if !ok {
		return false
	}
	v = strings.ToLower(v)
	return v == "" || v == "true" || v == "plaintext-only"
}

func quotable(s string) bool {
	return s != "" && !strings.ContainsAny(s, `'"\`)
}

func getAttr(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

func collectText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "…"
}

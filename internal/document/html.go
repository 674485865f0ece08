// Package document adapts parsed HTML pages to the catalog.Document capability.
package document

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/kisanseva/pagetrans/internal/catalog"
	"golang.org/x/net/html"
)

var (
	errNotTextNode = errors.New("not a text node")
	errDetached    = errors.New("node is detached from the document")
)

// HTML is an HTML page whose text nodes can be listed, read and replaced.
type HTML struct {
	doc       *goquery.Document
	marker    string
	selectors []string
	// flagged holds elements matched by an exclusion selector; they report
	// the marker attribute as present.
	flagged map[*html.Node]bool
}

var _ catalog.Document = (*HTML)(nil)

type Option func(*HTML)

// WithExcludeSelectors marks every element matching one of the CSS
// selectors as "do not translate".
func WithExcludeSelectors(selectors ...string) Option {
	return func(h *HTML) {
		for _, s := range selectors {
			if s = strings.TrimSpace(s); s != "" {
				h.selectors = append(h.selectors, s)
			}
		}
	}
}

// WithMarkerAttribute sets the attribute reported for selector-matched elements.
func WithMarkerAttribute(name string) Option {
	return func(h *HTML) {
		if name != "" {
			h.marker = name
		}
	}
}

// Parse reads an HTML page.
func Parse(r io.Reader, opts ...Option) (*HTML, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	h := &HTML{
		doc:     doc,
		marker:  catalog.DefaultMarkerAttribute,
		flagged: make(map[*html.Node]bool),
	}
	for _, opt := range opts {
		opt(h)
	}
	for _, sel := range h.selectors {
		if _, err := cascadia.ParseGroup(sel); err != nil {
			return nil, fmt.Errorf("invalid exclude selector %q: %w", sel, err)
		}
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			for _, n := range s.Nodes {
				h.flagged[n] = true
			}
		})
	}
	return h, nil
}

// TextNodes returns all text nodes in depth-first pre-order.
func (h *HTML) TextNodes() []catalog.Node {
	var out []catalog.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, root := range h.doc.Nodes {
		walk(root)
	}
	return out
}

func (h *HTML) Ancestors(n catalog.Node) []catalog.Element {
	hn, ok := n.(*html.Node)
	if !ok {
		return nil
	}
	var out []catalog.Element
	for p := hn.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			out = append(out, element{node: p, html: h})
		}
	}
	return out
}

func (h *HTML) ReadText(n catalog.Node) (string, error) {
	hn, err := textNode(n)
	if err != nil {
		return "", err
	}
	return hn.Data, nil
}

// WriteText replaces the node's text, keeping its surrounding whitespace.
func (h *HTML) WriteText(n catalog.Node, text string) error {
	hn, err := textNode(n)
	if err != nil {
		return err
	}
	if hn.Parent == nil {
		return errDetached
	}
	trimmed := strings.TrimSpace(hn.Data)
	if trimmed == "" {
		hn.Data = text
		return nil
	}
	start := strings.Index(hn.Data, trimmed)
	hn.Data = hn.Data[:start] + text + hn.Data[start+len(trimmed):]
	return nil
}

// SetLanguage updates the lang attribute of the root element and, for
// right-to-left languages, its dir attribute.
func (h *HTML) SetLanguage(code string, rtl bool) {
	root := h.doc.Find("html").First()
	root.SetAttr("lang", code)
	if rtl {
		root.SetAttr("dir", "rtl")
	} else {
		root.RemoveAttr("dir")
	}
}

// Render writes the document as HTML.
func (h *HTML) Render(w io.Writer) error {
	for _, n := range h.doc.Nodes {
		if err := html.Render(w, n); err != nil {
			return fmt.Errorf("failed to render HTML: %w", err)
		}
	}
	return nil
}

// String renders the document, returning an empty string on failure.
func (h *HTML) String() string {
	var b strings.Builder
	if err := h.Render(&b); err != nil {
		return ""
	}
	return b.String()
}

func textNode(n catalog.Node) (*html.Node, error) {
	hn, ok := n.(*html.Node)
	if !ok || hn == nil || hn.Type != html.TextNode {
		return nil, errNotTextNode
	}
	return hn, nil
}

type element struct {
	node *html.Node
	html *HTML
}

func (e element) Tag() string { return e.node.Data }

func (e element) Attr(name string) (string, bool) {
	for _, a := range e.node.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	if name == e.html.marker && e.html.flagged[e.node] {
		return "", true
	}
	return "", false
}

package catalog

import (
	"fmt"
	"strings"

	"github.com/kisanseva/pagetrans/internal/apperrors"
	"github.com/rivo/uniseg"
)

// DefaultMarkerAttribute flags an element (and its subtree) as "do not translate".
const DefaultMarkerAttribute = "data-no-translate"

// DefaultMinLength is the minimum number of grapheme clusters worth a round trip.
const DefaultMinLength = 2

// Rules control which text nodes are extracted.
type Rules struct {
	// SkipTags lists lower-case element names whose subtrees are never translated.
	SkipTags map[string]bool
	// MarkerAttribute excludes any subtree whose root carries it, unless its value is "false".
	MarkerAttribute string
	MinLength       int
}

// DefaultRules excludes code-like content, form edit surfaces and marked subtrees.
func DefaultRules() Rules {
	return Rules{
		SkipTags: map[string]bool{
			"script":   true,
			"style":    true,
			"noscript": true,
			"template": true,
			"code":     true,
			"pre":      true,
			"kbd":      true,
			"samp":     true,
			"svg":      true,
			"math":     true,
			"input":    true,
			"textarea": true,
			"select":   true,
			"option":   true,
		},
		MarkerAttribute: DefaultMarkerAttribute,
		MinLength:       DefaultMinLength,
	}
}

// Extractor builds catalogs from a Document and applies translations to it.
type Extractor struct {
	doc   Document
	rules Rules
}

func NewExtractor(doc Document, rules Rules) *Extractor {
	if rules.MinLength <= 0 {
		rules.MinLength = DefaultMinLength
	}
	if rules.MarkerAttribute == "" {
		rules.MarkerAttribute = DefaultMarkerAttribute
	}
	return &Extractor{doc: doc, rules: rules}
}

// Extract walks the document and returns its translatable text units in
// document order. It does not modify the document.
func (e *Extractor) Extract() Catalog {
	var out Catalog
	for _, n := range e.doc.TextNodes() {
		if e.excluded(n) {
			continue
		}
		raw, err := e.doc.ReadText(n)
		if err != nil {
			continue
		}
		text := NormalizeText(raw)
		if uniseg.GraphemeClusterCount(text) < e.rules.MinLength {
			continue
		}
		out = append(out, TextUnit{ID: n, OriginalText: text})
	}
	return out
}

func (e *Extractor) excluded(n Node) bool {
	for _, el := range e.doc.Ancestors(n) {
		if e.rules.SkipTags[strings.ToLower(el.Tag())] {
			return true
		}
		if v, ok := el.Attr(e.rules.MarkerAttribute); ok && !strings.EqualFold(v, "false") {
			return true
		}
		if v, ok := el.Attr("translate"); ok && strings.EqualFold(v, "no") {
			return true
		}
		if v, ok := el.Attr("contenteditable"); ok && !strings.EqualFold(v, "false") {
			return true
		}
	}
	return false
}

// ApplyResult reports the outcome of Apply.
type ApplyResult struct {
	Applied int
	Skipped int
	// Failures holds one KindDOMWrite error per skipped write.
	Failures []error
}

// Apply writes every resolved translation that differs from its original
// text back to the document. A failing write is recorded and skipped; it
// never stops the remaining writes.
func (e *Extractor) Apply(c Catalog) ApplyResult {
	var res ApplyResult
	for i, u := range c {
		text, ok := u.Translated()
		if !ok || text == u.OriginalText {
			continue
		}
		if err := e.write(u.ID, text); err != nil {
			res.Skipped++
			res.Failures = append(res.Failures, apperrors.DOMWrite(fmt.Errorf("unit %d: %w", i, err)))
			continue
		}
		res.Applied++
	}
	return res
}

func (e *Extractor) write(n Node, text string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("write panicked: %v", r)
		}
	}()
	return e.doc.WriteText(n, text)
}

// NormalizeText collapses runs of whitespace into single spaces and trims.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

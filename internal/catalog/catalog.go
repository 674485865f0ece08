// Package catalog builds the ordered list of translatable text units of a
// document and writes translations back to it.
package catalog

import (
	"fmt"
	"strings"
)

// Node is an opaque handle to a text-bearing location in a document.
type Node any

// Element is a read-only view of an element enclosing a text node.
type Element interface {
	Tag() string
	Attr(name string) (string, bool)
}

// Document is the capability the extractor needs from a host document tree.
type Document interface {
	// TextNodes returns every text-bearing node in depth-first pre-order.
	TextNodes() []Node
	// Ancestors returns the enclosing elements of n, nearest first.
	Ancestors(n Node) []Element
	ReadText(n Node) (string, error)
	WriteText(n Node, text string) error
}

// TextUnit is one translatable text found in a document.
type TextUnit struct {
	ID           Node
	OriginalText string
	// TranslatedText stays nil until a translation cycle resolves the unit.
	TranslatedText *string
}

// Translated returns the resolved text and whether the unit was resolved.
func (u TextUnit) Translated() (string, bool) {
	if u.TranslatedText == nil {
		return "", false
	}
	return *u.TranslatedText, true
}

// Catalog is an ordered sequence of text units in document order.
type Catalog []TextUnit

// Texts returns the original texts in catalog order.
func (c Catalog) Texts() []string {
	out := make([]string, len(c))
	for i, u := range c {
		out[i] = u.OriginalText
	}
	return out
}

// PrepareBatchTexts returns the texts to send for translation, in order,
// skipping units whose original text is blank.
func PrepareBatchTexts(c Catalog) []string {
	texts := make([]string, 0, len(c))
	for _, u := range c {
		if strings.TrimSpace(u.OriginalText) == "" {
			continue
		}
		texts = append(texts, u.OriginalText)
	}
	return texts
}

// MapResultsBack assigns results, which must be aligned with the output of
// PrepareBatchTexts, to the units of c. Units skipped by PrepareBatchTexts
// keep a nil TranslatedText. c itself is not modified.
func MapResultsBack(c Catalog, results []string) (Catalog, error) {
	out := make(Catalog, len(c))
	copy(out, c)

	expected := 0
	for _, u := range c {
		if strings.TrimSpace(u.OriginalText) != "" {
			expected++
		}
	}
	if len(results) != expected {
		return out, fmt.Errorf("result count mismatch: expected %d, got %d", expected, len(results))
	}

	idx := 0
	for i := range out {
		if strings.TrimSpace(out[i].OriginalText) == "" {
			continue
		}
		text := results[idx]
		out[i].TranslatedText = &text
		idx++
	}
	return out, nil
}

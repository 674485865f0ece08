package catalog

import (
	"errors"
	"fmt"
	"testing"

	"github.com/kisanseva/pagetrans/internal/apperrors"
)

type fakeElement struct {
	tag   string
	attrs map[string]string
}

func (e fakeElement) Tag() string { return e.tag }

func (e fakeElement) Attr(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

type fakeNode struct {
	text      string
	ancestors []Element
	detached  bool
	panics    bool
}

type fakeDoc struct {
	nodes  []*fakeNode
	writes int
}

func (d *fakeDoc) TextNodes() []Node {
	out := make([]Node, len(d.nodes))
	for i, n := range d.nodes {
		out[i] = n
	}
	return out
}

func (d *fakeDoc) Ancestors(n Node) []Element { return n.(*fakeNode).ancestors }

func (d *fakeDoc) ReadText(n Node) (string, error) { return n.(*fakeNode).text, nil }

func (d *fakeDoc) WriteText(n Node, text string) error {
	fn := n.(*fakeNode)
	if fn.panics {
		panic("node gone")
	}
	if fn.detached {
		return errors.New("node detached")
	}
	fn.text = text
	d.writes++
	return nil
}

func el(tag string, kv ...string) Element {
	attrs := map[string]string{}
	for i := 0; i+1 < len(kv); i += 2 {
		attrs[kv[i]] = kv[i+1]
	}
	return fakeElement{tag: tag, attrs: attrs}
}

func textNode(text string, ancestors ...Element) *fakeNode {
	return &fakeNode{text: text, ancestors: ancestors}
}

func TestExtract_OrderAndNormalization(t *testing.T) {
	doc := &fakeDoc{nodes: []*fakeNode{
		textNode("  Crop   advice\n for  farmers ", el("h1")),
		textNode("Market prices", el("p"), el("body")),
		textNode("Government schemes", el("li"), el("ul")),
	}}

	cat := NewExtractor(doc, DefaultRules()).Extract()

	want := []string{"Crop advice for farmers", "Market prices", "Government schemes"}
	if len(cat) != len(want) {
		t.Fatalf("expected %d units, got %d", len(want), len(cat))
	}
	for i, u := range cat {
		if u.OriginalText != want[i] {
			t.Errorf("unit %d: expected %q, got %q", i, want[i], u.OriginalText)
		}
		if u.TranslatedText != nil {
			t.Errorf("unit %d: expected nil translation after extraction", i)
		}
		if u.ID != Node(doc.nodes[i]) {
			t.Errorf("unit %d: id does not point at source node", i)
		}
	}
}

func TestExtract_ExclusionRules(t *testing.T) {
	tests := []struct {
		name string
		node *fakeNode
		want bool
	}{
		{"plain paragraph", textNode("Soil health", el("p")), true},
		{"script", textNode("var x = 1;", el("script")), false},
		{"style", textNode("body { color: red }", el("style")), false},
		{"nested code", textNode("go build", el("span"), el("code"), el("p")), false},
		{"textarea", textNode("typed by user", el("textarea")), false},
		{"marker on ancestor", textNode("Brand Name", el("span"), el("div", DefaultMarkerAttribute, "")), false},
		{"marker set to false", textNode("Translate me", el("div", DefaultMarkerAttribute, "false")), true},
		{"translate=no", textNode("PM-KISAN", el("b", "translate", "no")), false},
		{"contenteditable", textNode("draft", el("div", "contenteditable", "true")), false},
		{"too short", textNode(" a ", el("p")), false},
		{"whitespace only", textNode(" \n\t ", el("p")), false},
		{"two graphemes", textNode("ok", el("p")), true},
		{"single combined grapheme", textNode("कि", el("p")), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &fakeDoc{nodes: []*fakeNode{tt.node}}
			cat := NewExtractor(doc, DefaultRules()).Extract()
			if got := len(cat) == 1; got != tt.want {
				t.Fatalf("extracted = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtract_CustomMarker(t *testing.T) {
	rules := DefaultRules()
	rules.MarkerAttribute = "data-keep"
	doc := &fakeDoc{nodes: []*fakeNode{
		textNode("Keep this", el("span", "data-keep", "1")),
		textNode("Translate this", el("span", DefaultMarkerAttribute, "1")),
	}}
	cat := NewExtractor(doc, rules).Extract()
	if len(cat) != 1 || cat[0].OriginalText != "Translate this" {
		t.Fatalf("unexpected catalog: %+v", cat)
	}
}

func TestPrepareBatchTexts_SkipsBlank(t *testing.T) {
	cat := Catalog{
		{OriginalText: "one"},
		{OriginalText: "   "},
		{OriginalText: "three"},
	}
	got := PrepareBatchTexts(cat)
	if len(got) != 2 || got[0] != "one" || got[1] != "three" {
		t.Fatalf("PrepareBatchTexts() = %v", got)
	}
}

func TestMapResultsBack_PreservesOrder(t *testing.T) {
	const n = 57
	cat := make(Catalog, n)
	results := make([]string, n)
	for i := 0; i < n; i++ {
		cat[i] = TextUnit{OriginalText: fmt.Sprintf("text-%d", i)}
		results[i] = fmt.Sprintf("translated-%d", i)
	}

	mapped, err := MapResultsBack(cat, results)
	if err != nil {
		t.Fatalf("MapResultsBack failed: %v", err)
	}
	for i, u := range mapped {
		got, ok := u.Translated()
		if !ok || got != fmt.Sprintf("translated-%d", i) {
			t.Fatalf("unit %d: got %q (resolved=%v)", i, got, ok)
		}
	}
	if cat[0].TranslatedText != nil {
		t.Fatalf("input catalog must not be modified")
	}
}

func TestMapResultsBack_SkippedUnitsStayNil(t *testing.T) {
	cat := Catalog{
		{OriginalText: "a1"},
		{OriginalText: ""},
		{OriginalText: "c3"},
	}
	mapped, err := MapResultsBack(cat, []string{"A1", "C3"})
	if err != nil {
		t.Fatalf("MapResultsBack failed: %v", err)
	}
	if _, ok := mapped[1].Translated(); ok {
		t.Fatalf("blank unit should remain unresolved")
	}
	if got, _ := mapped[2].Translated(); got != "C3" {
		t.Fatalf("expected C3 for unit 2, got %q", got)
	}
}

func TestMapResultsBack_CountMismatch(t *testing.T) {
	cat := Catalog{{OriginalText: "a1"}, {OriginalText: "b2"}}
	if _, err := MapResultsBack(cat, []string{"only one"}); err == nil {
		t.Fatalf("expected mismatch error")
	}
}

func TestApply_CountsOnlyChangedAndSurvivesFailures(t *testing.T) {
	nodes := []*fakeNode{
		textNode("Wheat", el("p")),
		textNode("Rice", el("p")),
		textNode("Maize", el("p")),
		textNode("Millet", el("p")),
		textNode("Barley", el("p")),
	}
	nodes[1].detached = true
	nodes[3].panics = true
	doc := &fakeDoc{nodes: nodes}
	ex := NewExtractor(doc, DefaultRules())

	cat := ex.Extract()
	mapped, err := MapResultsBack(cat, []string{"गेहूं", "चावल", "Maize", "बाजरा", "जौ"})
	if err != nil {
		t.Fatalf("MapResultsBack failed: %v", err)
	}

	res := ex.Apply(mapped)
	if res.Applied != 2 {
		t.Fatalf("expected 2 applied writes, got %d", res.Applied)
	}
	if res.Skipped != 2 || len(res.Failures) != 2 {
		t.Fatalf("expected 2 skipped writes, got %d (%d failures)", res.Skipped, len(res.Failures))
	}
	for _, f := range res.Failures {
		if kind, _ := apperrors.KindOf(f); kind != apperrors.KindDOMWrite {
			t.Fatalf("expected dom_write failure, got %q", kind)
		}
	}
	if nodes[0].text != "गेहूं" || nodes[4].text != "जौ" {
		t.Fatalf("writes after a failure were not applied: %q %q", nodes[0].text, nodes[4].text)
	}
	if nodes[2].text != "Maize" {
		t.Fatalf("unchanged unit should not be written")
	}
}

func TestApply_UnresolvedUnitsUntouched(t *testing.T) {
	doc := &fakeDoc{nodes: []*fakeNode{textNode("Weather", el("p"))}}
	ex := NewExtractor(doc, DefaultRules())
	res := ex.Apply(ex.Extract())
	if res.Applied != 0 || doc.writes != 0 {
		t.Fatalf("expected no writes, got applied=%d writes=%d", res.Applied, doc.writes)
	}
}

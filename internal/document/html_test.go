package document

import (
	"strings"
	"testing"

	"github.com/kisanseva/pagetrans/internal/catalog"
	"golang.org/x/net/html"
)

const samplePage = `<!DOCTYPE html>
<html lang="en">
<head><title>Kisan Seva</title><style>body { color: green }</style></head>
<body>
  <h1>  Crop   advice </h1>
  <p>Today's <b>mandi</b> prices</p>
  <script>var price = "do not touch";</script>
  <div class="brand">Kisan Seva Kendra</div>
  <div data-no-translate><span>PM-KISAN</span></div>
  <form><label>Your village</label><input value="x"><textarea>typed text</textarea></form>
  <pre>go run ./cmd/pagetrans</pre>
</body>
</html>`

func parseSample(t *testing.T, opts ...Option) *HTML {
	t.Helper()
	h, err := Parse(strings.NewReader(samplePage), opts...)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return h
}

func TestExtract_HTMLDocumentOrderAndExclusions(t *testing.T) {
	h := parseSample(t, WithExcludeSelectors(".brand"))
	cat := catalog.NewExtractor(h, catalog.DefaultRules()).Extract()

	want := []string{"Kisan Seva", "Crop advice", "Today's", "mandi", "prices", "Your village"}
	got := cat.Texts()
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("catalog = %q, want %q", got, want)
	}
}

func TestParse_InvalidSelector(t *testing.T) {
	_, err := Parse(strings.NewReader(samplePage), WithExcludeSelectors("div[[["))
	if err == nil || !strings.Contains(err.Error(), "invalid exclude selector") {
		t.Fatalf("expected invalid selector error, got %v", err)
	}
}

func TestWriteText_KeepsSurroundingWhitespace(t *testing.T) {
	h := parseSample(t)
	ex := catalog.NewExtractor(h, catalog.DefaultRules())
	cat := ex.Extract()

	results := make([]string, len(cat))
	for i, u := range cat {
		results[i] = strings.ToUpper(u.OriginalText)
	}
	mapped, err := catalog.MapResultsBack(cat, results)
	if err != nil {
		t.Fatalf("MapResultsBack failed: %v", err)
	}
	res := ex.Apply(mapped)
	if res.Applied != len(cat) {
		t.Fatalf("expected %d applied, got %d", len(cat), res.Applied)
	}

	out := h.String()
	for _, want := range []string{"<h1>  CROP ADVICE </h1>", "<b>MANDI</b>", `var price = "do not touch";`, "PM-KISAN", "typed text"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteText_DetachedNode(t *testing.T) {
	h := parseSample(t)
	nodes := h.TextNodes()
	var target *html.Node
	for _, n := range nodes {
		hn := n.(*html.Node)
		if strings.Contains(hn.Data, "Crop") {
			target = hn
		}
	}
	if target == nil {
		t.Fatalf("text node not found")
	}
	target.Parent.RemoveChild(target)

	if err := h.WriteText(target, "x"); err == nil {
		t.Fatalf("expected error writing to detached node")
	}
}

func TestReadText_RejectsForeignHandle(t *testing.T) {
	h := parseSample(t)
	if _, err := h.ReadText("not a node"); err == nil {
		t.Fatalf("expected error for foreign handle")
	}
}

func TestSetLanguage(t *testing.T) {
	h := parseSample(t)
	h.SetLanguage("ur", true)
	out := h.String()
	if !strings.Contains(out, `lang="ur"`) || !strings.Contains(out, `dir="rtl"`) {
		t.Fatalf("expected lang and dir attributes, got:\n%s", out)
	}
	h.SetLanguage("hi", false)
	if out := h.String(); strings.Contains(out, `dir="rtl"`) {
		t.Fatalf("dir attribute should be removed for LTR languages")
	}
}

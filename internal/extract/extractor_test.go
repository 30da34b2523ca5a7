package extract_test

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"careeros/collector-service/internal/extract"
	"careeros/collector-service/internal/model"
)

func doc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return d
}

func newMeta() *model.ExtractionMetadata {
	return &model.ExtractionMetadata{Selectors: map[string]model.SelectorResult{}}
}

// The first selector with non-blank text wins; the fallback flag stays off.
func TestExtract_FirstSelectorWins(t *testing.T) {
	e := extract.NewFieldExtractor(doc(t, `<div class="a">Engineer</div><div class="b">Other</div>`))
	meta := newMeta()

	got := e.Extract([]string{".a", ".b"}, "title", meta)
	if got != "Engineer" {
		t.Fatalf("Extract = %q, want %q", got, "Engineer")
	}
	res := meta.Selectors["title"]
	if !res.Success || res.Selector != ".a" || res.Index != 0 {
		t.Errorf("selector result = %+v, want success at .a index 0", res)
	}
	if meta.FallbackUsed {
		t.Error("FallbackUsed should stay false when the primary selector wins")
	}
}

// A non-primary winning selector records its index and flips FallbackUsed.
func TestExtract_FallbackRecordsIndexAndFlag(t *testing.T) {
	e := extract.NewFieldExtractor(doc(t, `<div class="c">Acme Corp</div>`))
	meta := newMeta()

	got := e.Extract([]string{".a", ".b", ".c"}, "company", meta)
	if got != "Acme Corp" {
		t.Fatalf("Extract = %q, want %q", got, "Acme Corp")
	}
	res := meta.Selectors["company"]
	if res.Selector != ".c" || res.Index != 2 {
		t.Errorf("selector result = %+v, want .c at index 2", res)
	}
	if !meta.FallbackUsed {
		t.Error("FallbackUsed should be true when a fallback selector wins")
	}
}

// FallbackUsed is shared across fields: a later primary hit must not clear it.
func TestExtract_FallbackFlagIsSticky(t *testing.T) {
	e := extract.NewFieldExtractor(doc(t, `<div class="b">Title</div><div class="x">Company</div>`))
	meta := newMeta()

	e.Extract([]string{".a", ".b"}, "title", meta)
	if !meta.FallbackUsed {
		t.Fatal("expected fallback flag after first field")
	}
	e.Extract([]string{".x"}, "company", meta)
	if !meta.FallbackUsed {
		t.Error("FallbackUsed must never be cleared by a later primary hit")
	}
}

// Elements with only whitespace content do not satisfy a selector.
func TestExtract_BlankTextIsSkipped(t *testing.T) {
	e := extract.NewFieldExtractor(doc(t, `<div class="a">   </div><div class="b">Paris</div>`))
	meta := newMeta()

	got := e.Extract([]string{".a", ".b"}, "location", meta)
	if got != "Paris" {
		t.Fatalf("Extract = %q, want %q", got, "Paris")
	}
	if meta.Selectors["location"].Index != 1 {
		t.Errorf("index = %d, want 1", meta.Selectors["location"].Index)
	}
}

// When no selector matches, the failure records the full attempted chain.
func TestExtract_FailureRecordsAttemptedSelectors(t *testing.T) {
	e := extract.NewFieldExtractor(doc(t, `<p>nothing relevant</p>`))
	meta := newMeta()

	if got := e.Extract([]string{".a", ".b"}, "title", meta); got != "" {
		t.Fatalf("Extract = %q, want empty", got)
	}
	res := meta.Selectors["title"]
	if res.Success {
		t.Error("result should not be marked success")
	}
	if len(res.AttemptedSelectors) != 2 || res.AttemptedSelectors[0] != ".a" {
		t.Errorf("attempted selectors = %v, want [.a .b]", res.AttemptedSelectors)
	}
	if meta.FallbackUsed {
		t.Error("a failed field should not flip FallbackUsed")
	}
}

// Package extract implements job posting extraction from job board pages.
//
// Each supported board has a strategy registered in registry.go. Strategies
// locate fields through ordered CSS selector fallback chains and record
// which selector won in the record's ExtractionMetadata.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"careeros/collector-service/internal/model"
)

// FieldExtractor resolves fields against one document using selector
// fallback chains. It only reads the document; the sole side effect is
// metadata mutation.
type FieldExtractor struct {
	doc *goquery.Document
}

// NewFieldExtractor wraps doc for field extraction.
func NewFieldExtractor(doc *goquery.Document) *FieldExtractor {
	return &FieldExtractor{doc: doc}
}

// Extract tries each selector in order and returns the trimmed text of the
// first element with non-blank content, or "" when none match.
//
// On success it records {selector, index, success} under field in
// meta.Selectors, and flips meta.FallbackUsed when the winning index is not
// zero. The flag is shared by all fields of one record, so a later call
// never clears it. On failure it records the full attempted list.
func (e *FieldExtractor) Extract(selectors []string, field string, meta *model.ExtractionMetadata) string {
	for i, selector := range selectors {
		text := strings.TrimSpace(e.doc.Find(selector).First().Text())
		if text == "" {
			continue
		}
		meta.Selectors[field] = model.SelectorResult{
			Selector: selector,
			Index:    i,
			Success:  true,
		}
		if i > 0 {
			meta.FallbackUsed = true
		}
		return text
	}

	meta.Selectors[field] = model.SelectorResult{
		Success:            false,
		AttemptedSelectors: selectors,
	}
	return ""
}

// Text returns the trimmed text of the first selector that matches anything,
// without touching metadata. Used where provenance is not tracked.
func (e *FieldExtractor) Text(selectors ...string) string {
	for _, selector := range selectors {
		if text := strings.TrimSpace(e.doc.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// BodyText returns the full visible text of the page body.
func (e *FieldExtractor) BodyText() string {
	return e.doc.Find("body").Text()
}

package extract

import (
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"

	"careeros/collector-service/internal/model"
)

// Builder turns a job board document into a normalised JobRecord.
//
// Build is a pure read of the document: repeated calls against an unchanged
// page yield identical records apart from the metadata timestamp. There is
// no mutable state shared between calls.
type Builder struct {
	now func() time.Time
}

// NewBuilder returns a Builder using wall-clock time.
func NewBuilder() *Builder {
	return &Builder{now: time.Now}
}

// NewBuilderAt returns a Builder with a fixed clock, for deterministic tests.
func NewBuilderAt(now func() time.Time) *Builder {
	return &Builder{now: now}
}

// Build dispatches to the site strategy matching pageURL and returns the
// extracted record, or nil when the URL matches no known board, the page
// lacks a mandatory field, or extraction fails in any way. Extraction
// never propagates a failure to the caller.
func (b *Builder) Build(doc *goquery.Document, pageURL string) (record *model.JobRecord) {
	strategy := matchStrategy(pageURL)
	if strategy == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("job extraction panicked", "url", pageURL, "panic", r)
			record = nil
		}
	}()

	return strategy.extract(b, doc, pageURL)
}

func (b *Builder) newMetadata() *model.ExtractionMetadata {
	return &model.ExtractionMetadata{
		ExtractedAt: b.now().UTC().Format(time.RFC3339),
		Selectors:   map[string]model.SelectorResult{},
	}
}

package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"careeros/collector-service/internal/model"
)

// LinkedIn is the primary board and gets the richest treatment: full
// fallback chains with provenance, page-variant detection, a dedicated
// posted-date lookup and sanitised description HTML.

var linkedInTitleSelectors = []string{
	".job-details-jobs-unified-top-card__job-title",
	`h1[data-test-id="job-title"]`,
	".job-details-jobs-unified-top-card__job-title-text",
	".jobs-unified-top-card__job-title",
	".job-details-jobs-unified-top-card__job-title-link",
	"h1.job-title",
	`[data-test-id="job-title"]`,
	".job-title",
}

var linkedInCompanySelectors = []string{
	".job-details-jobs-unified-top-card__company-name",
	`a[data-test-id="job-company-name"]`,
	".job-details-jobs-unified-top-card__company-name-text",
	".jobs-unified-top-card__company-name",
	".job-details-jobs-unified-top-card__company-name-link",
	".company-name",
	`[data-test-id="company-name"]`,
	".employer-name",
}

var linkedInLocationSelectors = []string{
	".job-details-jobs-unified-top-card__bullet",
	".job-details-jobs-unified-top-card__job-location",
	".jobs-unified-top-card__job-location",
	".job-location",
	`[data-test-id="job-location"]`,
	".location",
}

var linkedInPostedDateSelectors = []string{
	".job-details-jobs-unified-top-card__primary-description",
	".jobs-unified-top-card__posted-date",
	".job-details-jobs-unified-top-card__posted-date",
	`[data-test-id="posted-time-ago"]`,
	".posted-time-ago__text",
	`span[class*="posted"]`,
	"time[datetime]",
}

var linkedInDescriptionSelectors = []string{
	".jobs-description-content__text",
	".jobs-box__html-content",
	`[data-test-id="job-description"]`,
	".job-description",
	".jobs-description",
	".description-content",
	".job-details-jobs-unified-top-card__job-description",
}

// linkedInPrimaryDescriptionSelector is the structured container holding
// location and posted date on the current two-pane job search layout.
const linkedInPrimaryDescriptionSelector = "#main > div > div.scaffold-layout__list-detail-inner.scaffold-layout__list-detail-inner--grow > " +
	"div.scaffold-layout__detail.overflow-x-hidden.jobs-search__job-details > div > div.jobs-search__job-details--container > " +
	"div > div.job-view-layout.jobs-details > div:nth-child(1) > div > div:nth-child(1) > div > " +
	"div.relative.job-details-jobs-unified-top-card__container--two-pane > div > " +
	"div.job-details-jobs-unified-top-card__primary-description-container"

func extractLinkedIn(b *Builder, doc *goquery.Document, pageURL string) *model.JobRecord {
	e := NewFieldExtractor(doc)
	meta := b.newMetadata()
	meta.PageVariant = detectLinkedInVariant(doc)

	title := e.Extract(linkedInTitleSelectors, "title", meta)
	company := e.Extract(linkedInCompanySelectors, "company", meta)

	// Structured container first: it pins down location and posted date
	// far more reliably than the generic chains below.
	location, postedDate := extractPrimaryDescription(doc, meta)

	if location == "" {
		location = e.Extract(linkedInLocationSelectors, "location", meta)
	}
	if postedDate == "" {
		postedDate = b.extractPostedDate(doc, linkedInPostedDateSelectors, meta)
	}

	description := e.Extract(linkedInDescriptionSelectors, "description", meta)

	rawHTML := extractRawDescriptionHTML(doc)
	descriptionHTML := extractSanitizedDescriptionHTML(doc)

	if title == "" || company == "" {
		meta.Confidence = 0
		return nil
	}

	if location == "" {
		location = model.LocationNotSpecified
	}
	meta.Confidence = Confidence(title, company, location, description)

	body := e.BodyText()
	return &model.JobRecord{
		Title:              title,
		Company:            company,
		Location:           location,
		Description:        description,
		DescriptionHTML:    descriptionHTML,
		RawDescriptionHTML: rawHTML,
		URL:                pageURL,
		Source:             model.SourceLinkedIn,
		PostedDate:         postedDate,
		Salary:             ExtractSalary(body),
		Remote:             DetectRemote(body),
		Requirements:       ExtractRequirements(description),
		Skills:             ExtractSkills(description),
		Metadata:           meta,
	}
}

// detectLinkedInVariant tags which page generation served the posting, for
// later triage of selector drift.
func detectLinkedInVariant(doc *goquery.Document) string {
	switch {
	case doc.Find(".jobs-unified-top-card").Length() > 0:
		return "unified-top-card"
	case doc.Find(".job-details-jobs-unified-top-card").Length() > 0:
		return "job-details-unified"
	case doc.Find(`[data-test-id="job-title"]`).Length() > 0:
		return "test-id-based"
	default:
		return "legacy"
	}
}

// extractPrimaryDescription reads location and posted date from the
// structured top-card container. The first span is the location; the third
// holds the posted date, sometimes nested one span deeper.
func extractPrimaryDescription(doc *goquery.Document, meta *model.ExtractionMetadata) (location, postedDate string) {
	container := doc.Find(linkedInPrimaryDescriptionSelector).First()
	if container.Length() == 0 {
		return "", ""
	}

	meta.Selectors["primaryDescriptionContainer"] = model.SelectorResult{
		Selector: linkedInPrimaryDescriptionSelector,
		Success:  true,
		Method:   "structured-container",
	}

	spans := container.Find("span")
	if spans.Length() > 0 {
		if text := strings.TrimSpace(spans.Eq(0).Text()); text != "" {
			location = text
			meta.Selectors["location"] = model.SelectorResult{
				Selector: linkedInPrimaryDescriptionSelector + " > span:nth-child(1)",
				Success:  true,
				Method:   "structured-container",
			}
		}
	}
	if spans.Length() > 2 {
		dateContainer := spans.Eq(2)
		text := ""
		if nested := dateContainer.Find("span"); nested.Length() > 1 {
			text = strings.TrimSpace(nested.Eq(1).Text())
		}
		if text == "" {
			text = strings.TrimSpace(dateContainer.Text())
		}
		if text != "" {
			postedDate = ParsePostedDateText(text)
			meta.Selectors["postedDate"] = model.SelectorResult{
				Selector: linkedInPrimaryDescriptionSelector + " > span:nth-child(3)",
				Success:  true,
				Method:   "structured-container-nested",
			}
		}
	}
	return location, postedDate
}

// extractPostedDate is the generic second phase: a datetime attribute wins
// over text parsing for any selector that carries one.
func (b *Builder) extractPostedDate(doc *goquery.Document, selectors []string, meta *model.ExtractionMetadata) string {
	for i, selector := range selectors {
		el := doc.Find(selector).First()
		if el.Length() == 0 {
			continue
		}

		if datetime, ok := el.Attr("datetime"); ok && datetime != "" {
			meta.Selectors["postedDate"] = model.SelectorResult{
				Selector: selector,
				Index:    i,
				Success:  true,
				Method:   "datetime-attribute",
			}
			return FormatPostedDate(datetime, b.now())
		}

		if text := strings.TrimSpace(el.Text()); text != "" {
			if parsed := ParsePostedDateText(text); parsed != "" {
				meta.Selectors["postedDate"] = model.SelectorResult{
					Selector: selector,
					Index:    i,
					Success:  true,
					Method:   "text-parsing",
				}
				return parsed
			}
		}
	}

	meta.Selectors["postedDate"] = model.SelectorResult{
		Success:            false,
		AttemptedSelectors: selectors,
	}
	return ""
}

// extractRawDescriptionHTML keeps the untouched outer HTML of the posting
// body so CareerOS can re-parse it offline.
func extractRawDescriptionHTML(doc *goquery.Document) string {
	for _, selector := range linkedInDescriptionSelectors {
		el := doc.Find(selector).First()
		if el.Length() == 0 {
			continue
		}
		html, err := goquery.OuterHtml(el)
		if err != nil {
			return ""
		}
		return html
	}
	return ""
}

func extractSanitizedDescriptionHTML(doc *goquery.Document) string {
	for _, selector := range linkedInDescriptionSelectors {
		el := doc.Find(selector).First()
		if el.Length() == 0 {
			continue
		}
		return SanitizeHTML(el)
	}
	return ""
}

package extract

import (
	"github.com/PuerkitoBio/goquery"

	"careeros/collector-service/internal/model"
)

// simpleSite describes the non-primary boards, which use short two-selector
// fallback chains per field. Boards that only list remote work pin the
// location and the remote flag instead of reading them from the page.
type simpleSite struct {
	source        string
	titleSels     []string
	companySels   []string
	locationSels  []string
	descSels      []string
	fixedLocation string
	forceRemote   bool
}

var (
	indeedSite = simpleSite{
		source:       model.SourceIndeed,
		titleSels:    []string{`h1[data-testid="job-title"]`, ".jobsearch-JobInfoHeader-title"},
		companySels:  []string{`[data-testid="company-name"]`, ".jobsearch-CompanyInfoContainer"},
		locationSels: []string{`[data-testid="job-location"]`, ".jobsearch-JobInfoHeader-subtitle"},
		descSels:     []string{"#jobDescriptionText", ".jobsearch-jobDescriptionText"},
	}

	glassdoorSite = simpleSite{
		source:       model.SourceGlassdoor,
		titleSels:    []string{`[data-test="job-title"]`, ".jobTitle"},
		companySels:  []string{`[data-test="employer-name"]`, ".employerName"},
		locationSels: []string{`[data-test="job-location"]`, ".jobLocation"},
		descSels:     []string{`[data-test="job-description"]`, ".jobDescriptionContent"},
	}

	angelListSite = simpleSite{
		source:       model.SourceAngelList,
		titleSels:    []string{"h1", ".job-title"},
		companySels:  []string{".company-name", `[data-test="company-name"]`},
		locationSels: []string{".location", `[data-test="job-location"]`},
		descSels:     []string{".job-description", `[data-test="job-description"]`},
	}

	stackOverflowSite = simpleSite{
		source:       model.SourceStackOverflow,
		titleSels:    []string{"h1", ".job-title"},
		companySels:  []string{".company-name", `[data-test="company-name"]`},
		locationSels: []string{".location", `[data-test="job-location"]`},
		descSels:     []string{".job-description", `[data-test="job-description"]`},
	}

	remoteCoSite = simpleSite{
		source:        model.SourceRemoteCo,
		titleSels:     []string{"h1", ".job-title"},
		companySels:   []string{".company-name", `[data-test="company-name"]`},
		descSels:      []string{".job-description", `[data-test="job-description"]`},
		fixedLocation: "Remote",
		forceRemote:   true,
	}

	weWorkRemotelySite = simpleSite{
		source:        model.SourceWeWorkRemotely,
		titleSels:     []string{"h1", ".job-title"},
		companySels:   []string{".company-name", `[data-test="company-name"]`},
		descSels:      []string{".job-description", `[data-test="job-description"]`},
		fixedLocation: "Remote",
		forceRemote:   true,
	}
)

func (s simpleSite) extract(b *Builder, doc *goquery.Document, pageURL string) *model.JobRecord {
	e := NewFieldExtractor(doc)
	meta := b.newMetadata()

	title := e.Extract(s.titleSels, "title", meta)
	company := e.Extract(s.companySels, "company", meta)

	location := s.fixedLocation
	if location == "" {
		location = e.Extract(s.locationSels, "location", meta)
	}
	description := e.Extract(s.descSels, "description", meta)

	if title == "" || company == "" {
		meta.Confidence = 0
		return nil
	}

	if location == "" {
		location = model.LocationNotSpecified
	}
	meta.Confidence = Confidence(title, company, location, description)

	body := e.BodyText()
	remote := s.forceRemote || DetectRemote(body)

	return &model.JobRecord{
		Title:        title,
		Company:      company,
		Location:     location,
		Description:  description,
		URL:          pageURL,
		Source:       s.source,
		Salary:       ExtractSalary(body),
		Remote:       remote,
		Requirements: ExtractRequirements(description),
		Skills:       ExtractSkills(description),
		Metadata:     meta,
	}
}

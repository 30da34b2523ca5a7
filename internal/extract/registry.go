package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"careeros/collector-service/internal/model"
)

// siteStrategy binds a URL substring pattern to the extraction logic for
// one job board. The registry is ordered; dispatch takes the first pattern
// contained in the page URL and never falls through to a second one.
type siteStrategy struct {
	urlPattern string
	extract    func(b *Builder, doc *goquery.Document, pageURL string) *model.JobRecord
}

var siteRegistry = []siteStrategy{
	{"linkedin.com/jobs", extractLinkedIn},
	{"indeed.com", indeedSite.extract},
	{"glassdoor.com", glassdoorSite.extract},
	{"angel.co", angelListSite.extract},
	{"stackoverflow.com/jobs", stackOverflowSite.extract},
	{"remote.co", remoteCoSite.extract},
	{"weworkremotely.com", weWorkRemotelySite.extract},
}

func matchStrategy(pageURL string) *siteStrategy {
	for i := range siteRegistry {
		if strings.Contains(pageURL, siteRegistry[i].urlPattern) {
			return &siteRegistry[i]
		}
	}
	return nil
}

// IsJobBoard reports whether url belongs to a supported job board.
func IsJobBoard(url string) bool {
	return url != "" && matchStrategy(url) != nil
}

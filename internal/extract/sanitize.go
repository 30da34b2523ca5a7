package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SanitizeHTML returns the inner HTML of sel with script tags, inline
// on* event-handler attributes and javascript: hrefs stripped. The page
// itself is never modified; sanitisation runs on a clone.
func SanitizeHTML(sel *goquery.Selection) string {
	clone := sel.Clone()

	clone.Find("script").Remove()

	clone.Find("*").Each(func(_ int, el *goquery.Selection) {
		if len(el.Nodes) == 0 {
			return
		}
		var drop []string
		for _, attr := range el.Nodes[0].Attr {
			if strings.HasPrefix(strings.ToLower(attr.Key), "on") {
				drop = append(drop, attr.Key)
			}
		}
		for _, name := range drop {
			el.RemoveAttr(name)
		}
		if href, ok := el.Attr("href"); ok && strings.HasPrefix(href, "javascript:") {
			el.RemoveAttr("href")
		}
	})

	html, err := clone.Html()
	if err != nil {
		return ""
	}
	return html
}

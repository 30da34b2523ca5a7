package collector

import (
	"context"
	"fmt"
	"net/http"

	"github.com/PuerkitoBio/goquery"
)

// FetchFunc loads a page URL into a parsed document.
type FetchFunc func(ctx context.Context, pageURL string) (*goquery.Document, error)

// NewHTTPFetcher returns a FetchFunc over client. A nil client falls back
// to http.DefaultClient.
func NewHTTPFetcher(client *http.Client) FetchFunc {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context, pageURL string) (*goquery.Document, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
		}
		return goquery.NewDocumentFromReader(resp.Body)
	}
}

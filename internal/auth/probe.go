package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"careeros/collector-service/internal/model"
)

// authMarkerSelectors are the DOM fingerprints of a signed-in CareerOS
// page: the identity SDK's user widgets and the sign-out control.
var authMarkerSelectors = []string{
	`[data-clerk-user]`,
	`[data-testid="user-button"]`,
	`[data-testid="sign-out-button"]`,
	".clerk-userButton",
	".clerk-userMenu",
}

// Tab is one open page in the embedding browser shell. The probe only needs
// read access to its document plus the ability to issue requests with the
// tab's cookie session.
type Tab interface {
	URL() string
	Document(ctx context.Context) (*goquery.Document, error)
	// CurrentUser introspects the in-page identity SDK's current-user object.
	CurrentUser(ctx context.Context) (*model.AuthUser, error)
	// FetchToken mints a token from inside the tab, riding its cookies.
	FetchToken(ctx context.Context) (string, error)
}

// TabSource enumerates open tabs.
type TabSource interface {
	Tabs(ctx context.Context) ([]Tab, error)
}

// ProbeResult is what the content probe learned from a CareerOS tab.
type ProbeResult struct {
	Authenticated bool
	User          *model.AuthUser
	Token         string
	MarkersFound  int
}

// SessionProbe detects an existing CareerOS login by inspecting an open tab
// on the service's own domain. It is the fallback when the session endpoint
// cannot be reached from the extension context.
type SessionProbe struct {
	tabs TabSource
}

// NewSessionProbe returns a probe over the given tab source.
func NewSessionProbe(tabs TabSource) *SessionProbe {
	return &SessionProbe{tabs: tabs}
}

// Detect finds a tab on the CareerOS domain and checks it for signed-in
// markers and an SDK user. A found user triggers a best-effort in-tab token
// mint; the token may legitimately come back empty.
func (p *SessionProbe) Detect(ctx context.Context, appURL string) (ProbeResult, error) {
	tabs, err := p.tabs.Tabs(ctx)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("list tabs: %w", err)
	}

	tab := matchTab(tabs, appURL)
	if tab == nil {
		return ProbeResult{}, nil
	}

	doc, err := tab.Document(ctx)
	if err != nil {
		return ProbeResult{}, nil
	}

	markers := 0
	for _, selector := range authMarkerSelectors {
		markers += doc.Find(selector).Length()
	}

	user, _ := tab.CurrentUser(ctx)
	if markers == 0 && user == nil {
		return ProbeResult{}, nil
	}

	result := ProbeResult{Authenticated: true, User: user, MarkersFound: markers}
	if user != nil {
		result.Token, _ = tab.FetchToken(ctx)
	}
	return result, nil
}

// matchTab returns the first tab on the CareerOS domain.
func matchTab(tabs []Tab, appURL string) Tab {
	host := ""
	if u, err := url.Parse(appURL); err == nil {
		host = u.Host
	}
	for _, tab := range tabs {
		if host != "" && strings.Contains(tab.URL(), host) {
			return tab
		}
		if strings.Contains(tab.URL(), "career-os") {
			return tab
		}
	}
	return nil
}

// CookieTab is a Tab backed by an HTTP client carrying the user's cookie
// session, for shells that expose pages as fetchable origins rather than
// live DOM handles.
type CookieTab struct {
	pageURL string
	origin  string
	client  *http.Client
}

// NewCookieTab builds a tab for pageURL using client (which should own a
// cookie jar holding the CareerOS session).
func NewCookieTab(pageURL string, client *http.Client) (*CookieTab, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse tab url: %w", err)
	}
	return &CookieTab{
		pageURL: pageURL,
		origin:  u.Scheme + "://" + u.Host,
		client:  client,
	}, nil
}

// URL implements Tab.
func (t *CookieTab) URL() string { return t.pageURL }

// Document implements Tab.
func (t *CookieTab) Document(ctx context.Context) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.pageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return goquery.NewDocumentFromReader(resp.Body)
}

// CurrentUser implements Tab via GET /api/auth/me.
func (t *CookieTab) CurrentUser(ctx context.Context) (*model.AuthUser, error) {
	var out struct {
		User *model.AuthUser `json:"user"`
	}
	if err := t.getJSON(ctx, "/api/auth/me", &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// FetchToken implements Tab via GET /api/auth/token.
func (t *CookieTab) FetchToken(ctx context.Context) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	if err := t.getJSON(ctx, "/api/auth/token", &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

func (t *CookieTab) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.origin+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// StaticTabSource serves a fixed tab list.
type StaticTabSource []Tab

// Tabs implements TabSource.
func (s StaticTabSource) Tabs(context.Context) ([]Tab, error) { return s, nil }

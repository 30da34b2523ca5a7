package collector_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"careeros/collector-service/internal/analysis"
	"careeros/collector-service/internal/auth"
	"careeros/collector-service/internal/careeros"
	"careeros/collector-service/internal/collector"
	"careeros/collector-service/internal/extract"
	"careeros/collector-service/internal/model"
	"careeros/collector-service/internal/store"
)

func newTestHandler(t *testing.T) (*collector.Handler, *store.SettingsStore) {
	h, _, settings := newTestHandlerWithAuth(t)
	return h, settings
}

func newTestHandlerWithAuth(t *testing.T) (*collector.Handler, *auth.Service, *store.SettingsStore) {
	t.Helper()
	kv := store.NewMemoryKV()
	bookmarks := store.NewBookmarks(kv)
	settings := store.NewSettingsStore(kv)

	// Side effects that would call out stay off for handler tests.
	if err := settings.Set(context.Background(), model.Settings{CareerOSURL: "http://127.0.0.1:1"}); err != nil {
		t.Fatal(err)
	}

	baseURL := func(context.Context) string { return "http://127.0.0.1:1" }
	fetcher := &fakeFetcher{html: jobPage}
	svc := collector.NewService(bookmarks, settings, analysis.NewStubAnalyzer(), careeros.NewClient(baseURL), nil, store.NopEvents{}, nil, extract.NewBuilder(), fetcher.fetch, discard)
	authSvc := auth.NewService(kv, auth.NewClient(baseURL, "career-os-extension", "1.0.0"), nil, discard)
	return collector.NewHandler(svc, authSvc, nil, &manualTasks{}, discard), authSvc, settings
}

func postAction(t *testing.T, h *collector.Handler, payload any) (int, map[string]any) {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	req := httptest.NewRequest(http.MethodPost, "/actions", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec.Code, out
}

func TestHandleAction_Ping(t *testing.T) {
	h, _ := newTestHandler(t)
	code, out := postAction(t, h, map[string]any{"action": "ping"})
	if code != http.StatusOK || out["success"] != true {
		t.Errorf("response = %d %v", code, out)
	}
}

func TestHandleAction_UnknownAction(t *testing.T) {
	h, _ := newTestHandler(t)
	code, out := postAction(t, h, map[string]any{"action": "explode"})
	if code != http.StatusOK {
		t.Errorf("code = %d, operation failures stay in the envelope", code)
	}
	if out["success"] != false || out["error"] == nil {
		t.Errorf("response = %v, want success:false with error", out)
	}
}

// detectJob runs fetch + extraction and returns the record in the envelope.
func TestHandleAction_DetectJob(t *testing.T) {
	h, _ := newTestHandler(t)
	_, out := postAction(t, h, map[string]any{"action": "detectJob", "url": "https://www.linkedin.com/jobs/view/1"})
	if out["success"] != true || out["detected"] != true {
		t.Fatalf("response = %v, want a detected job", out)
	}
	job, ok := out["job"].(map[string]any)
	if !ok || job["title"] != "Platform Engineer" {
		t.Errorf("job = %v", out["job"])
	}
}

// A non-board URL reports detected:false without failing the action.
func TestHandleAction_DetectJobNonBoard(t *testing.T) {
	h, _ := newTestHandler(t)
	code, out := postAction(t, h, map[string]any{"action": "detectJob", "url": "https://example.com/careers"})
	if code != http.StatusOK || out["success"] != true {
		t.Fatalf("response = %d %v", code, out)
	}
	if out["detected"] != false || out["job"] != nil {
		t.Errorf("response = %v, want detected:false with no job", out)
	}
}

func TestHandleAction_DetectJobRequiresURL(t *testing.T) {
	h, _ := newTestHandler(t)
	_, out := postAction(t, h, map[string]any{"action": "detectJob"})
	if out["success"] != false {
		t.Errorf("response = %v, want url-required failure", out)
	}
}

func TestHandleAction_BookmarkAndList(t *testing.T) {
	h, _ := newTestHandler(t)

	job := map[string]any{
		"title": "Engineer", "company": "Acme",
		"url": "https://www.linkedin.com/jobs/view/1", "source": model.SourceLinkedIn,
	}
	_, out := postAction(t, h, map[string]any{"action": "bookmarkJob", "jobData": job})
	if out["success"] != true {
		t.Fatalf("bookmark response = %v", out)
	}

	_, out = postAction(t, h, map[string]any{"action": "getBookmarkedJobs"})
	if out["success"] != true {
		t.Fatalf("list response = %v", out)
	}
	jobs, ok := out["jobs"].([]any)
	if !ok || len(jobs) != 1 {
		t.Errorf("jobs = %v, want one entry", out["jobs"])
	}
}

// Duplicates come back as an in-envelope failure, not an HTTP error.
func TestHandleAction_DuplicateBookmark(t *testing.T) {
	h, _ := newTestHandler(t)
	job := map[string]any{
		"title": "Engineer", "company": "Acme",
		"url": "https://www.linkedin.com/jobs/view/1", "source": model.SourceLinkedIn,
	}

	postAction(t, h, map[string]any{"action": "bookmarkJob", "jobData": job})
	code, out := postAction(t, h, map[string]any{"action": "bookmarkJob", "jobData": job})
	if code != http.StatusOK {
		t.Errorf("code = %d, want 200", code)
	}
	if out["success"] != false || out["error"] != "job is already bookmarked" {
		t.Errorf("response = %v, want the duplicate message", out)
	}
}

func TestHandleAction_BookmarkRequiresJobData(t *testing.T) {
	h, _ := newTestHandler(t)
	_, out := postAction(t, h, map[string]any{"action": "bookmarkJob"})
	if out["success"] != false {
		t.Errorf("response = %v, want jobData-required failure", out)
	}
}

func TestHandleAction_AnalyzeJob(t *testing.T) {
	h, _ := newTestHandler(t)
	job := map[string]any{
		"title": "Engineer", "company": "Acme",
		"url": "https://www.linkedin.com/jobs/view/1", "source": model.SourceLinkedIn,
	}
	_, out := postAction(t, h, map[string]any{"action": "bookmarkJob", "jobData": job})
	saved := out["job"].(map[string]any)

	_, out = postAction(t, h, map[string]any{"action": "analyzeJob", "jobId": saved["id"]})
	if out["success"] != true || out["analysis"] == nil {
		t.Errorf("response = %v, want an analysis payload", out)
	}
}

func TestHandleAction_UpdateBadgeRequiresCount(t *testing.T) {
	h, _ := newTestHandler(t)
	_, out := postAction(t, h, map[string]any{"action": "updateBadge"})
	if out["success"] != false {
		t.Errorf("response = %v, want count-required failure", out)
	}
}

func TestHandleAction_MethodNotAllowed(t *testing.T) {
	h, _ := newTestHandler(t)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/actions", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("code = %d, want 405", rec.Code)
	}
}

// deadlineRecorder exposes a settable write deadline to the response
// controller and records what the handler set it to.
type deadlineRecorder struct {
	*httptest.ResponseRecorder
	deadlines []time.Time
}

func (r *deadlineRecorder) SetWriteDeadline(t time.Time) error {
	r.deadlines = append(r.deadlines, t)
	return nil
}

// Interactive sign-in blocks far longer than the server's write timeout,
// so the handler must clear the connection deadline before waiting.
func TestHandleAction_SignInClearsWriteDeadline(t *testing.T) {
	h, authSvc, _ := newTestHandlerWithAuth(t)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// Deliver the interactive outcome once the sign-in wait is armed.
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			default:
				authSvc.CompleteSignIn(&model.AuthUser{ID: "user_1", Email: "u@example.com"}, "tok")
				time.Sleep(time.Millisecond)
			}
		}
	}()
	defer close(done)

	body, err := json.Marshal(map[string]any{"action": "signIn"})
	if err != nil {
		t.Fatal(err)
	}
	rec := &deadlineRecorder{ResponseRecorder: httptest.NewRecorder()}
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/actions", bytes.NewReader(body)))

	if len(rec.deadlines) == 0 || !rec.deadlines[0].IsZero() {
		t.Fatalf("write deadlines = %v, want the zero time set before sign-in blocks", rec.deadlines)
	}

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	if out["success"] != true || out["user"] == nil {
		t.Errorf("response = %v, want the signed-in user", out)
	}
}

func TestHandleHealth(t *testing.T) {
	h, _ := newTestHandler(t)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("code = %d, want 200", rec.Code)
	}
}

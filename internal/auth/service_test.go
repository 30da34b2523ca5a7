package auth_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"careeros/collector-service/internal/auth"
	"careeros/collector-service/internal/model"
	"careeros/collector-service/internal/store"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func testUser() *model.AuthUser {
	return &model.AuthUser{ID: "user_1", Email: "dev@example.com"}
}

// authServer declares one status+body per endpoint path; unlisted paths
// return 404.
type authServer map[string]struct {
	status int
	body   any
}

func (a authServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ep, ok := a[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(ep.status)
		if ep.body != nil {
			json.NewEncoder(w).Encode(ep.body)
		}
	}
}

func newTestService(t *testing.T, endpoints authServer) (*auth.Service, store.KV) {
	t.Helper()
	srv := httptest.NewServer(endpoints.handler())
	t.Cleanup(srv.Close)

	kv := store.NewMemoryKV()
	client := auth.NewClient(func(context.Context) string { return srv.URL }, "career-os-extension", "1.0.0")
	return auth.NewService(kv, client, nil, discard), kv
}

func seedStoredSession(t *testing.T, kv store.KV, ageMillis int64) {
	t.Helper()
	raw, err := json.Marshal(model.AuthSession{
		User:      testUser(),
		Token:     "tok_stored",
		Timestamp: time.Now().UnixMilli() - ageMillis,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := kv.Set(context.Background(), store.KeyClerkAuth, raw, 0); err != nil {
		t.Fatal(err)
	}
}

func TestCheckStoredAuth_NoData(t *testing.T) {
	svc, _ := newTestService(t, authServer{})

	res := svc.CheckStoredAuth(context.Background())
	if res.Success || res.Reason != auth.ReasonNoStoredData {
		t.Errorf("result = %+v, want failure %s", res, auth.ReasonNoStoredData)
	}
}

// A session past the 24h window is erased and reported expired without any
// network validation.
func TestCheckStoredAuth_ExpiredErased(t *testing.T) {
	svc, kv := newTestService(t, authServer{})
	seedStoredSession(t, kv, (25 * time.Hour).Milliseconds())

	res := svc.CheckStoredAuth(context.Background())
	if res.Success || res.Reason != auth.ReasonStoredDataExpired {
		t.Fatalf("result = %+v, want failure %s", res, auth.ReasonStoredDataExpired)
	}
	if _, ok, _ := kv.Get(context.Background(), store.KeyClerkAuth); ok {
		t.Error("expired session should be erased from storage")
	}
}

// A fresh session whose token the server rejects is erased too.
func TestCheckStoredAuth_InvalidTokenErased(t *testing.T) {
	svc, kv := newTestService(t, authServer{
		"/api/auth/validate": {status: http.StatusUnauthorized},
	})
	seedStoredSession(t, kv, 0)

	res := svc.CheckStoredAuth(context.Background())
	if res.Success || res.Reason != auth.ReasonStoredTokenInvalid {
		t.Fatalf("result = %+v, want failure %s", res, auth.ReasonStoredTokenInvalid)
	}
	if _, ok, _ := kv.Get(context.Background(), store.KeyClerkAuth); ok {
		t.Error("invalid session should be erased from storage")
	}
	if svc.IsUserAuthenticated() {
		t.Error("memory state should be cleared")
	}
}

// A fresh, server-validated session wins immediately and refreshes the
// persisted record.
func TestCheckStoredAuth_Valid(t *testing.T) {
	svc, kv := newTestService(t, authServer{
		"/api/auth/validate": {status: http.StatusOK},
	})
	seedStoredSession(t, kv, time.Hour.Milliseconds())

	res := svc.CheckStoredAuth(context.Background())
	if !res.Success || res.Strategy != auth.StrategyStored {
		t.Fatalf("result = %+v, want success via %s", res, auth.StrategyStored)
	}
	if !svc.IsUserAuthenticated() {
		t.Error("service should report an authenticated user")
	}
	if svc.Token() != "tok_stored" {
		t.Errorf("Token = %q, want tok_stored", svc.Token())
	}

	raw, ok, _ := kv.Get(context.Background(), store.KeyClerkAuth)
	if !ok {
		t.Fatal("session should remain persisted")
	}
	var sess model.AuthSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		t.Fatal(err)
	}
	if sess.Strategy != auth.StrategyStored {
		t.Errorf("persisted strategy = %q, want stored", sess.Strategy)
	}
	if time.Now().UnixMilli()-sess.Timestamp > time.Minute.Milliseconds() {
		t.Error("persisted timestamp should be refreshed to now")
	}
}

// Session endpoint confirms a cookie session, the extension endpoint mints
// the token.
func TestChain_SessionDetection(t *testing.T) {
	svc, _ := newTestService(t, authServer{
		"/api/auth/session": {status: http.StatusOK, body: map[string]any{"success": true, "hasSession": true}},
		"/api/auth/extension": {status: http.StatusOK, body: map[string]any{
			"success": true, "authenticated": true, "user": testUser(), "token": "tok_minted",
		}},
	})

	if !svc.CheckAuthenticationStatus(context.Background()) {
		t.Fatal("chain should succeed")
	}
	if svc.CurrentStrategy() != auth.StrategySessionDetection {
		t.Errorf("strategy = %q, want %s", svc.CurrentStrategy(), auth.StrategySessionDetection)
	}
	if svc.Token() != "tok_minted" {
		t.Errorf("Token = %q, want tok_minted", svc.Token())
	}
}

// Only the last strategy succeeds; the chain must reach it in order.
func TestChain_FallbackOnly(t *testing.T) {
	svc, _ := newTestService(t, authServer{
		"/api/auth/session":   {status: http.StatusOK, body: map[string]any{"success": true, "hasSession": false}},
		"/api/auth/extension": {status: http.StatusOK, body: map[string]any{"success": true, "authenticated": false}},
		"/api/auth/fallback": {status: http.StatusOK, body: map[string]any{
			"success": true, "user": testUser(), "token": "tok_fallback",
		}},
	})

	if !svc.CheckAuthenticationStatus(context.Background()) {
		t.Fatal("chain should succeed via fallback")
	}
	if svc.CurrentStrategy() != auth.StrategyFallback {
		t.Errorf("strategy = %q, want %s", svc.CurrentStrategy(), auth.StrategyFallback)
	}
}

// Fallback needs both user and token; a token-less response does not count.
func TestCheckFallbackAuth_NeedsUserAndToken(t *testing.T) {
	svc, _ := newTestService(t, authServer{
		"/api/auth/fallback": {status: http.StatusOK, body: map[string]any{"success": true, "user": testUser()}},
	})

	res := svc.CheckFallbackAuth(context.Background())
	if res.Success || res.Reason != auth.ReasonFallbackAuthFailed {
		t.Errorf("result = %+v, want failure %s", res, auth.ReasonFallbackAuthFailed)
	}
}

// Exhausting the chain is terminal, not an error, and clears memory state.
func TestChain_AllStrategiesFail(t *testing.T) {
	svc, _ := newTestService(t, authServer{
		"/api/auth/session":   {status: http.StatusUnauthorized},
		"/api/auth/extension": {status: http.StatusUnauthorized},
		"/api/auth/fallback":  {status: http.StatusUnauthorized},
	})

	if svc.CheckAuthenticationStatus(context.Background()) {
		t.Fatal("chain should fail")
	}
	if svc.IsUserAuthenticated() {
		t.Error("no authenticated state should remain")
	}
	if svc.Token() != "" {
		t.Errorf("Token = %q, want empty", svc.Token())
	}
}

// An HTTP-level denial is a failed strategy; only transport trouble is an
// *_error reason.
func TestCheckExtensionAuth_ReasonKinds(t *testing.T) {
	svc, _ := newTestService(t, authServer{
		"/api/auth/extension": {status: http.StatusUnauthorized},
	})
	if res := svc.CheckExtensionAuth(context.Background()); res.Reason != auth.ReasonExtensionAuthFailed {
		t.Errorf("reason = %q, want %s", res.Reason, auth.ReasonExtensionAuthFailed)
	}

	kv := store.NewMemoryKV()
	client := auth.NewClient(func(context.Context) string { return "http://127.0.0.1:1" }, "career-os-extension", "1.0.0")
	unreachable := auth.NewService(kv, client, nil, discard)
	if res := unreachable.CheckExtensionAuth(context.Background()); res.Reason != auth.ReasonExtensionAuthError {
		t.Errorf("reason = %q, want %s", res.Reason, auth.ReasonExtensionAuthError)
	}
}

func TestAuthenticate_CompleteSignIn(t *testing.T) {
	svc, _ := newTestService(t, authServer{})

	go func() {
		// Simulates the shell reporting the finished interactive sign-in.
		time.Sleep(10 * time.Millisecond)
		svc.CompleteSignIn(testUser(), "tok_interactive")
	}()

	user, err := svc.Authenticate(context.Background())
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if user == nil || user.ID != "user_1" {
		t.Errorf("user = %+v", user)
	}
	if !svc.IsUserAuthenticated() {
		t.Error("sign-in should leave an authenticated session")
	}
}

func TestAuthenticate_ContextCancelled(t *testing.T) {
	svc, _ := newTestService(t, authServer{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	if _, err := svc.Authenticate(ctx); err == nil {
		t.Error("Authenticate should fail when the context is cancelled")
	}
}

func TestSignOut(t *testing.T) {
	svc, kv := newTestService(t, authServer{
		"/api/auth/validate": {status: http.StatusOK},
	})
	seedStoredSession(t, kv, 0)

	if res := svc.CheckStoredAuth(context.Background()); !res.Success {
		t.Fatalf("setup auth failed: %+v", res)
	}

	svc.SignOut(context.Background())
	if svc.IsUserAuthenticated() {
		t.Error("SignOut should clear memory state")
	}
	if _, ok, _ := kv.Get(context.Background(), store.KeyClerkAuth); ok {
		t.Error("SignOut should erase the persisted session")
	}
}

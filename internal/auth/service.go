package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"careeros/collector-service/internal/model"
	"careeros/collector-service/internal/store"
)

// Strategy tags recorded on a winning AuthSession.
const (
	StrategyStored           = "stored"
	StrategySessionDetection = "session_detection"
	StrategyContentScript    = "content_script"
	StrategyExtensionAuth    = "extension_auth"
	StrategyFallback         = "fallback"
)

// Failure reasons. These are data driving the next strategy attempt, not
// errors; *_error variants mark transport-level failures.
const (
	ReasonNoStoredData           = "no_stored_data"
	ReasonStoredDataExpired      = "stored_data_expired"
	ReasonStoredTokenInvalid     = "stored_token_invalid"
	ReasonStoredAuthError        = "stored_auth_error"
	ReasonSessionDetectionFailed = "session_detection_failed"
	ReasonSessionDetectionError  = "session_detection_error"
	ReasonExtensionAuthFailed    = "extension_auth_failed"
	ReasonExtensionAuthError     = "extension_auth_error"
	ReasonFallbackAuthFailed     = "fallback_auth_failed"
	ReasonFallbackAuthError      = "fallback_auth_error"
)

// sessionTTL bounds how long a persisted AuthSession stays trusted.
const sessionTTL = 24 * time.Hour

// signInTimeout is the hard ceiling on the interactive sign-in flow.
const signInTimeout = 300 * time.Second

// Result is the outcome of one strategy attempt.
type Result struct {
	Success  bool
	Strategy string
	Reason   string
}

func failure(reason string) Result { return Result{Reason: reason} }

// Service is the authentication resolver. Strategies run strictly in
// order — stored credentials are always preferred over new negotiation —
// and each one is awaited fully before the next is attempted.
type Service struct {
	kv     store.KV
	client *Client
	probe  *SessionProbe // nil when no tab source is available
	now    func() time.Time
	log    *slog.Logger

	mu              sync.Mutex
	isAuthenticated bool
	user            *model.AuthUser
	token           string
	session         *model.SessionInfo
	currentStrategy string

	signInMu sync.Mutex
	signInCh chan signInOutcome
}

type signInOutcome struct {
	user  *model.AuthUser
	token string
	err   error
}

// NewService builds the resolver. probe may be nil.
func NewService(kv store.KV, client *Client, probe *SessionProbe, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{kv: kv, client: client, probe: probe, now: time.Now, log: log}
}

// CheckAuthenticationStatus runs the full strategy chain and reports
// whether any strategy established a session. Exhausting all strategies is
// the terminal unauthenticated state, not an error.
func (s *Service) CheckAuthenticationStatus(ctx context.Context) bool {
	attempts := []struct {
		name string
		fn   func(context.Context) Result
	}{
		{"stored", s.CheckStoredAuth},
		{"session_detection", s.CheckCareerOSSession},
		{"extension_auth", s.CheckExtensionAuth},
		{"fallback", s.CheckFallbackAuth},
	}

	for _, attempt := range attempts {
		result := attempt.fn(ctx)
		if result.Success {
			s.log.Info("authenticated", "strategy", result.Strategy)
			return true
		}
		s.log.Debug("auth strategy failed", "strategy", attempt.name, "reason", result.Reason)
	}

	s.clearMemoryState()
	return false
}

// CheckStoredAuth validates a previously persisted session: present, within
// TTL, and with a token the server still accepts. Expired or invalid
// sessions are erased.
func (s *Service) CheckStoredAuth(ctx context.Context) Result {
	raw, ok, err := s.kv.Get(ctx, store.KeyClerkAuth)
	if err != nil {
		return failure(ReasonStoredAuthError)
	}
	if !ok {
		return failure(ReasonNoStoredData)
	}

	var sess model.AuthSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		return failure(ReasonStoredAuthError)
	}
	if sess.User == nil || sess.Token == "" {
		return failure(ReasonNoStoredData)
	}

	if s.now().UnixMilli()-sess.Timestamp > sessionTTL.Milliseconds() {
		s.eraseStored(ctx)
		return failure(ReasonStoredDataExpired)
	}

	valid, err := s.client.ValidateToken(ctx, sess.Token)
	if err != nil {
		return failure(ReasonStoredAuthError)
	}
	if !valid {
		s.eraseStored(ctx)
		s.clearMemoryState()
		return failure(ReasonStoredTokenInvalid)
	}

	s.setState(sess.User, sess.Token, sess.Session, StrategyStored)
	s.persistSession(ctx, StrategyStored)
	return Result{Success: true, Strategy: StrategyStored}
}

// CheckCareerOSSession negotiates a fresh session: the session endpoint
// first, then token minting via the extension endpoint. When the endpoint
// is unreachable or denies a session, the content probe inspects an open
// CareerOS tab instead.
func (s *Service) CheckCareerOSSession(ctx context.Context) Result {
	sessResp, sessErr := s.client.CreateSession(ctx)
	if sessErr == nil && sessResp.Success && sessResp.HasSession {
		extResp, err := s.client.ExtensionAuth(ctx)
		if err == nil && extResp.Success && extResp.Authenticated && extResp.User != nil {
			s.setState(extResp.User, extResp.Token, extResp.Session, StrategySessionDetection)
			s.persistSession(ctx, StrategySessionDetection)
			return Result{Success: true, Strategy: StrategySessionDetection}
		}
	}

	if s.probe != nil {
		probe, err := s.probe.Detect(ctx, s.client.BaseURL(ctx))
		if err == nil && probe.Authenticated && probe.User != nil {
			// The in-tab mint is best effort: the session is real even
			// when no token came back.
			s.setState(probe.User, probe.Token, nil, StrategyContentScript)
			s.persistSession(ctx, StrategyContentScript)
			return Result{Success: true, Strategy: StrategyContentScript}
		}
	}

	if sessErr != nil {
		var statusErr *StatusError
		if !errors.As(sessErr, &statusErr) {
			return failure(ReasonSessionDetectionError)
		}
	}
	return failure(ReasonSessionDetectionFailed)
}

// CheckExtensionAuth asks the dedicated extension-auth endpoint directly.
func (s *Service) CheckExtensionAuth(ctx context.Context) Result {
	resp, err := s.client.ExtensionAuth(ctx)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			return failure(ReasonExtensionAuthFailed)
		}
		return failure(ReasonExtensionAuthError)
	}
	if !resp.Success || !resp.Authenticated || resp.User == nil {
		return failure(ReasonExtensionAuthFailed)
	}

	s.setState(resp.User, resp.Token, resp.Session, StrategyExtensionAuth)
	s.persistSession(ctx, StrategyExtensionAuth)
	return Result{Success: true, Strategy: StrategyExtensionAuth}
}

// CheckFallbackAuth is the last strategy; it needs both a user and a token
// in the response to count.
func (s *Service) CheckFallbackAuth(ctx context.Context) Result {
	resp, err := s.client.FallbackAuth(ctx)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			return failure(ReasonFallbackAuthFailed)
		}
		return failure(ReasonFallbackAuthError)
	}
	if !resp.Success || resp.User == nil || resp.Token == "" {
		return failure(ReasonFallbackAuthFailed)
	}

	s.setState(resp.User, resp.Token, resp.Session, StrategyFallback)
	s.persistSession(ctx, StrategyFallback)
	return Result{Success: true, Strategy: StrategyFallback}
}

// ─── Interactive sign-in ─────────────────────────────────────────────────────

// SignInURL is the page the user must open to complete interactive
// sign-in; the shell delivers the outcome via CompleteSignIn/FailSignIn.
func (s *Service) SignInURL(ctx context.Context) string {
	return s.client.BaseURL(ctx) + "/auth/extension"
}

// Authenticate blocks until the interactive sign-in completes or the hard
// 300s timeout elapses.
func (s *Service) Authenticate(ctx context.Context) (*model.AuthUser, error) {
	s.signInMu.Lock()
	if s.signInCh != nil {
		s.signInMu.Unlock()
		return nil, errors.New("sign-in already in progress")
	}
	ch := make(chan signInOutcome, 1)
	s.signInCh = ch
	s.signInMu.Unlock()

	defer func() {
		s.signInMu.Lock()
		s.signInCh = nil
		s.signInMu.Unlock()
	}()

	timer := time.NewTimer(signInTimeout)
	defer timer.Stop()

	select {
	case outcome := <-ch:
		if outcome.err != nil {
			return nil, outcome.err
		}
		s.setState(outcome.user, outcome.token, nil, StrategySessionDetection)
		s.persistSession(ctx, StrategySessionDetection)
		return outcome.user, nil
	case <-timer.C:
		return nil, errors.New("authentication timeout")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// CompleteSignIn delivers a successful interactive sign-in outcome.
func (s *Service) CompleteSignIn(user *model.AuthUser, token string) {
	s.deliverSignIn(signInOutcome{user: user, token: token})
}

// FailSignIn delivers an interactive sign-in failure.
func (s *Service) FailSignIn(err error) {
	s.deliverSignIn(signInOutcome{err: err})
}

func (s *Service) deliverSignIn(outcome signInOutcome) {
	s.signInMu.Lock()
	defer s.signInMu.Unlock()
	if s.signInCh != nil {
		select {
		case s.signInCh <- outcome:
		default:
		}
	}
}

// ─── State accessors ─────────────────────────────────────────────────────────

// IsUserAuthenticated reports a fully usable session: authenticated with
// both user and token present.
func (s *Service) IsUserAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isAuthenticated && s.user != nil && s.token != ""
}

// CurrentStrategy names the strategy that produced the current session.
func (s *Service) CurrentStrategy() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentStrategy
}

// CurrentUser returns the signed-in user, re-running the chain when no
// session is held in memory.
func (s *Service) CurrentUser(ctx context.Context) *model.AuthUser {
	s.mu.Lock()
	user := s.user
	authed := s.isAuthenticated
	s.mu.Unlock()
	if authed && user != nil {
		return user
	}

	s.CheckAuthenticationStatus(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// CachedUser returns the in-memory user without re-running the chain,
// nil when no session is held.
func (s *Service) CachedUser() *model.AuthUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Token returns the current bearer token, empty when signed out.
func (s *Service) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// SignOut clears the session in memory and in storage.
func (s *Service) SignOut(ctx context.Context) {
	s.clearMemoryState()
	s.eraseStored(ctx)
	s.log.Info("signed out")
}

// ─── Internal state management ───────────────────────────────────────────────

func (s *Service) setState(user *model.AuthUser, token string, session *model.SessionInfo, strategy string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isAuthenticated = true
	s.user = user
	s.token = token
	s.session = session
	s.currentStrategy = strategy
}

func (s *Service) clearMemoryState() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isAuthenticated = false
	s.user = nil
	s.token = ""
	s.session = nil
	s.currentStrategy = ""
}

// persistSession writes the winning session under the fixed TTL. The write
// happens before success is reported to the caller.
func (s *Service) persistSession(ctx context.Context, strategy string) {
	s.mu.Lock()
	sess := model.AuthSession{
		User:             s.user,
		Token:            s.token,
		Session:          s.session,
		Timestamp:        s.now().UnixMilli(),
		Strategy:         strategy,
		ExtensionID:      s.client.extensionID,
		ExtensionVersion: s.client.extensionVersion,
	}
	s.mu.Unlock()

	raw, err := json.Marshal(sess)
	if err != nil {
		s.log.Warn("encode auth session failed", "err", err)
		return
	}
	if err := s.kv.Set(ctx, store.KeyClerkAuth, raw, sessionTTL); err != nil {
		s.log.Warn("persist auth session failed", "err", err)
	}

	// The profile outlives the session TTL; analysis consumers read it
	// even while re-authentication is pending.
	if sess.User != nil {
		if profile, err := json.Marshal(sess.User); err == nil {
			if err := s.kv.Set(ctx, store.KeyUserProfile, profile, 0); err != nil {
				s.log.Warn("persist user profile failed", "err", err)
			}
		}
	}
}

func (s *Service) eraseStored(ctx context.Context) {
	if err := s.kv.Delete(ctx, store.KeyClerkAuth); err != nil {
		s.log.Warn("erase auth session failed", "err", err)
	}
}

// Health proxies the auth health endpoint for diagnostics surfaces.
func (s *Service) Health(ctx context.Context) (map[string]any, error) {
	return s.client.Health(ctx)
}

// Diagnostic proxies the auth diagnostic probe.
func (s *Service) Diagnostic(ctx context.Context) (map[string]any, error) {
	return s.client.Diagnostic(ctx)
}

// StoredProfile reads the last persisted user profile, nil when absent.
func (s *Service) StoredProfile(ctx context.Context) (*model.AuthUser, error) {
	raw, ok, err := s.kv.Get(ctx, store.KeyUserProfile)
	if err != nil || !ok {
		return nil, err
	}
	var user model.AuthUser
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

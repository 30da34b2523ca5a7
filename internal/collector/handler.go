package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"careeros/collector-service/internal/auth"
	"careeros/collector-service/internal/model"
	"careeros/collector-service/internal/scheduler"
	"careeros/collector-service/internal/store"
)

// ─── Request / response envelope ─────────────────────────────────────────────

// actionRequest is the single request shape for POST /actions. Action
// selects the operation; the remaining fields are per-action payload.
type actionRequest struct {
	Action  string           `json:"action"`
	JobData *model.JobRecord `json:"jobData,omitempty"`
	JobID   string           `json:"jobId,omitempty"`
	Count   *int             `json:"count,omitempty"`
	URL     string           `json:"url,omitempty"`
}

// Handler exposes the action dispatch surface.
//
// Routes:
//
//	POST /actions   → {action, ...} envelope dispatch
//	GET  /health    → liveness probe
type Handler struct {
	svc        *Service
	auth       *auth.Service
	authErrors *auth.ErrorHandler
	tasks      scheduler.Tasks
	log        *slog.Logger
}

// NewHandler returns a configured Handler. authErrors may be nil to
// disable the scheduled re-check on auth failure.
func NewHandler(svc *Service, authSvc *auth.Service, authErrors *auth.ErrorHandler, tasks scheduler.Tasks, log *slog.Logger) *Handler {
	if tasks == nil {
		tasks = scheduler.Real{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, auth: authSvc, authErrors: authErrors, tasks: tasks, log: log}
}

// RegisterRoutes mounts all collector-service routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/actions", h.handleAction)
	mux.HandleFunc("/health", h.handleHealth)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAction decodes the envelope and dispatches. Transport problems map
// to HTTP status codes; operation failures stay inside a 200 response as
// {success:false, error} so the caller has one shape to handle.
func (h *Handler) handleAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	switch req.Action {
	case "ping":
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "collector service is alive"})

	case "detectJob":
		if req.URL == "" {
			actionError(w, "url is required")
			return
		}
		record, err := h.svc.DetectJob(ctx, req.URL)
		if err != nil {
			h.log.Error("detectJob failed", "url", req.URL, "err", err)
			actionError(w, err.Error())
			return
		}
		if record == nil {
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "detected": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "detected": true, "job": record})

	case "bookmarkJob":
		if req.JobData == nil {
			actionError(w, "jobData is required")
			return
		}
		saved, err := h.svc.BookmarkJob(ctx, *req.JobData)
		if err != nil {
			if errors.Is(err, store.ErrAlreadyBookmarked) {
				actionError(w, "job is already bookmarked")
				return
			}
			h.log.Error("bookmarkJob failed", "err", err)
			actionError(w, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "job": saved})

	case "getBookmarkedJobs":
		jobs, err := h.svc.GetBookmarkedJobs(ctx)
		if err != nil {
			h.log.Error("getBookmarkedJobs failed", "err", err)
			actionError(w, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "jobs": jobs})

	case "analyzeJob":
		if req.JobID == "" {
			actionError(w, "jobId is required")
			return
		}
		result, err := h.svc.AnalyzeJob(ctx, req.JobID)
		if err != nil {
			h.log.Error("analyzeJob failed", "jobId", req.JobID, "err", err)
			actionError(w, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "analysis": result})

	case "syncWithCareerOS":
		if err := h.svc.SyncWithCareerOS(ctx); err != nil {
			h.log.Error("syncWithCareerOS failed", "err", err)
			actionError(w, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})

	case "updateBadge":
		if req.Count == nil {
			actionError(w, "count is required")
			return
		}
		h.svc.UpdateBadge(*req.Count)
		writeJSON(w, http.StatusOK, map[string]any{"success": true})

	case "testConnection":
		if req.URL == "" {
			actionError(w, "url is required")
			return
		}
		result := h.svc.TestConnection(ctx, req.URL)
		writeJSON(w, http.StatusOK, result)

	case "checkAuthStatus":
		authenticated := h.auth.CheckAuthenticationStatus(ctx)
		if !authenticated && h.authErrors != nil {
			h.authErrors.Handle(ctx, "authentication_failed", errors.New("all authentication strategies failed"))
		}
		profile, _ := h.auth.StoredProfile(ctx)
		writeJSON(w, http.StatusOK, map[string]any{
			"success":       true,
			"authenticated": authenticated,
			"strategy":      h.auth.CurrentStrategy(),
			"user":          profile,
		})

	case "authHealth":
		payload, err := h.auth.Health(ctx)
		if err != nil {
			actionError(w, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "health": payload})

	case "authDiagnostic":
		payload, err := h.auth.Diagnostic(ctx)
		if err != nil {
			actionError(w, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "diagnostic": payload})

	case "signIn":
		// Interactive sign-in can block far past the server's write
		// timeout; lift the deadline for this response only.
		if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
			h.log.Warn("write deadline not adjustable", "err", err)
		}
		user, err := h.signIn(ctx)
		if err != nil {
			actionError(w, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": user})

	case "signOut":
		h.auth.SignOut(ctx)
		writeJSON(w, http.StatusOK, map[string]any{"success": true})

	default:
		actionError(w, fmt.Sprintf("unknown action %q", req.Action))
	}
}

// signIn watches for the CareerOS session the user establishes in the
// sign-in page and blocks until it appears or the sign-in window times
// out. The session check re-runs every few seconds while waiting.
func (h *Handler) signIn(ctx context.Context) (*model.AuthUser, error) {
	poller := scheduler.NewAuthPoller(h.tasks, func() bool {
		return h.auth.CheckCareerOSSession(context.Background()).Success
	}, func() {
		h.auth.CompleteSignIn(h.auth.CachedUser(), h.auth.Token())
	}, h.log)
	poller.Start()
	defer poller.Stop()

	h.log.Info("interactive sign-in started", "url", h.auth.SignInURL(ctx))
	return h.auth.Authenticate(ctx)
}

// ─── JSON helpers ────────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// actionError reports an operation failure inside the 200 envelope.
func actionError(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": msg})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"careeros/collector-service/internal/model"
	"careeros/collector-service/internal/store"
)

const (
	maxAuthRetries = 3
	retryBaseDelay = 2000 * time.Millisecond
)

// AfterFunc schedules fn after d and returns a cancel function. Tests
// substitute a deterministic implementation.
type AfterFunc func(d time.Duration, fn func()) (cancel func())

func realAfter(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// ErrorHandler wraps the resolver with bounded retry. Each failure
// overwrites the single persisted AuthError record and schedules a re-run
// of the chain after retryBaseDelay * retryCount — linear backoff keyed to
// the attempt number. Once the ceiling is hit, the counter resets and
// automatic retries stop until the caller triggers the chain manually.
type ErrorHandler struct {
	kv      store.KV
	service *Service
	after   AfterFunc
	now     func() time.Time
	log     *slog.Logger

	mu         sync.Mutex
	retryCount int
	cancel     func()
}

// NewErrorHandler wires the handler to the resolver it restarts.
func NewErrorHandler(kv store.KV, service *Service, log *slog.Logger) *ErrorHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ErrorHandler{
		kv:      kv,
		service: service,
		after:   realAfter,
		now:     time.Now,
		log:     log,
	}
}

// Handle records an authentication failure and arms the next retry.
func (h *ErrorHandler) Handle(ctx context.Context, code string, err error) {
	h.mu.Lock()
	h.retryCount++
	count := h.retryCount
	h.mu.Unlock()

	message := ""
	if err != nil {
		message = err.Error()
	}
	h.persist(ctx, model.AuthError{
		Code:       code,
		Message:    message,
		Timestamp:  h.now().UnixMilli(),
		RetryCount: count,
		Strategy:   h.service.CurrentStrategy(),
	})

	if count < maxAuthRetries {
		delay := retryBaseDelay * time.Duration(count)
		h.log.Warn("auth error, retry scheduled", "code", code, "attempt", count, "delay", delay)

		h.mu.Lock()
		if h.cancel != nil {
			h.cancel()
		}
		h.cancel = h.after(delay, func() {
			h.service.CheckAuthenticationStatus(context.Background())
		})
		h.mu.Unlock()
		return
	}

	h.log.Warn("auth error, retry ceiling reached", "code", code, "attempts", count)
	h.mu.Lock()
	h.retryCount = 0
	h.mu.Unlock()
}

// RetryCount returns the in-memory attempt counter.
func (h *ErrorHandler) RetryCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.retryCount
}

// LastError reads the persisted diagnostic record, if any.
func (h *ErrorHandler) LastError(ctx context.Context) (*model.AuthError, error) {
	raw, ok, err := h.kv.Get(ctx, store.KeyLastAuthError)
	if err != nil || !ok {
		return nil, err
	}
	var authErr model.AuthError
	if err := json.Unmarshal(raw, &authErr); err != nil {
		return nil, err
	}
	return &authErr, nil
}

// Stop cancels any armed retry. Called on teardown.
func (h *ErrorHandler) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetAfter substitutes the scheduling primitive (tests only).
func (h *ErrorHandler) SetAfter(after AfterFunc) { h.after = after }

func (h *ErrorHandler) persist(ctx context.Context, authErr model.AuthError) {
	raw, err := json.Marshal(authErr)
	if err != nil {
		return
	}
	if err := h.kv.Set(ctx, store.KeyLastAuthError, raw, 0); err != nil {
		h.log.Warn("persist auth error failed", "err", err)
	}
}

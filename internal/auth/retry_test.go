package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"careeros/collector-service/internal/auth"
	"careeros/collector-service/internal/store"
)

// fakeAfter records scheduled delays without running anything.
type fakeAfter struct {
	delays    []time.Duration
	cancelled int
}

func (f *fakeAfter) schedule(d time.Duration, _ func()) func() {
	f.delays = append(f.delays, d)
	return func() { f.cancelled++ }
}

func newHandler(t *testing.T) (*auth.ErrorHandler, *fakeAfter, store.KV) {
	t.Helper()
	kv := store.NewMemoryKV()
	client := auth.NewClient(func(context.Context) string { return "http://127.0.0.1:1" }, "career-os-extension", "1.0.0")
	svc := auth.NewService(kv, client, nil, discard)
	h := auth.NewErrorHandler(kv, svc, discard)
	after := &fakeAfter{}
	h.SetAfter(after.schedule)
	return h, after, kv
}

// Backoff is linear in the attempt number: 2s, then 4s.
func TestErrorHandler_LinearBackoff(t *testing.T) {
	h, after, _ := newHandler(t)
	ctx := context.Background()
	failure := errors.New("network down")

	h.Handle(ctx, "auth_check_failed", failure)
	h.Handle(ctx, "auth_check_failed", failure)

	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(after.delays) != len(want) {
		t.Fatalf("scheduled %d retries (%v), want %d", len(after.delays), after.delays, len(want))
	}
	for i, d := range want {
		if after.delays[i] != d {
			t.Errorf("retry %d delay = %v, want %v", i+1, after.delays[i], d)
		}
	}
	if h.RetryCount() != 2 {
		t.Errorf("RetryCount = %d, want 2", h.RetryCount())
	}
}

// Scheduling a new retry cancels the previous pending one.
func TestErrorHandler_CancelsPriorRetry(t *testing.T) {
	h, after, _ := newHandler(t)
	ctx := context.Background()

	h.Handle(ctx, "auth_check_failed", errors.New("first"))
	h.Handle(ctx, "auth_check_failed", errors.New("second"))

	if after.cancelled != 1 {
		t.Errorf("cancelled = %d, want the first retry cancelled", after.cancelled)
	}
}

// The third failure hits the ceiling: no retry is armed and the counter
// resets so a later manual attempt starts fresh.
func TestErrorHandler_CeilingResetsCounter(t *testing.T) {
	h, after, _ := newHandler(t)
	ctx := context.Background()
	failure := errors.New("network down")

	h.Handle(ctx, "auth_check_failed", failure)
	h.Handle(ctx, "auth_check_failed", failure)
	h.Handle(ctx, "auth_check_failed", failure)

	if len(after.delays) != 2 {
		t.Errorf("scheduled %d retries, want 2 (no retry at the ceiling)", len(after.delays))
	}
	if h.RetryCount() != 0 {
		t.Errorf("RetryCount = %d, want reset to 0", h.RetryCount())
	}

	// A fresh failure after the reset starts the ladder over.
	h.Handle(ctx, "auth_check_failed", failure)
	if got := after.delays[len(after.delays)-1]; got != 2*time.Second {
		t.Errorf("post-reset delay = %v, want 2s", got)
	}
}

// Each failure overwrites the single persisted diagnostic record.
func TestErrorHandler_LastErrorOverwritten(t *testing.T) {
	h, _, _ := newHandler(t)
	ctx := context.Background()

	h.Handle(ctx, "auth_check_failed", errors.New("first"))
	h.Handle(ctx, "token_invalid", errors.New("second"))

	last, err := h.LastError(ctx)
	if err != nil {
		t.Fatalf("LastError: %v", err)
	}
	if last == nil {
		t.Fatal("expected a persisted record")
	}
	if last.Code != "token_invalid" || last.Message != "second" {
		t.Errorf("record = %+v, want the second failure", last)
	}
	if last.RetryCount != 2 {
		t.Errorf("RetryCount = %d, want 2", last.RetryCount)
	}
	if last.Timestamp == 0 {
		t.Error("Timestamp should be set")
	}
}

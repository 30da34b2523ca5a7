package store_test

import (
	"context"
	"testing"

	"careeros/collector-service/internal/model"
	"careeros/collector-service/internal/store"
)

// An empty store yields the defaults without error.
func TestSettings_DefaultsWhenAbsent(t *testing.T) {
	s := store.NewSettingsStore(store.NewMemoryKV())

	got, err := s.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := model.DefaultSettings()
	if got != want {
		t.Errorf("Get = %+v, want defaults %+v", got, want)
	}
}

func TestSettings_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := store.NewSettingsStore(store.NewMemoryKV())

	in := model.Settings{
		AutoAnalyze:      false,
		Notifications:    true,
		SyncWithCareerOS: false,
		CareerOSURL:      "https://careeros.example.com",
	}
	if err := s.Set(ctx, in); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := s.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != in {
		t.Errorf("Get = %+v, want %+v", got, in)
	}
}

// A stored object with a blank URL is backfilled with the default URL.
func TestSettings_BlankURLBackfilled(t *testing.T) {
	ctx := context.Background()
	s := store.NewSettingsStore(store.NewMemoryKV())

	if err := s.Set(ctx, model.Settings{AutoAnalyze: true}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.CareerOSURL != model.DefaultSettings().CareerOSURL {
		t.Errorf("CareerOSURL = %q, want default backfill", got.CareerOSURL)
	}
}

// Seed writes defaults on first run but never overwrites user choices.
func TestSettings_SeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := store.NewSettingsStore(store.NewMemoryKV())

	if err := s.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	custom := model.DefaultSettings()
	custom.AutoAnalyze = false
	if err := s.Set(ctx, custom); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if err := s.Seed(ctx); err != nil {
		t.Fatalf("second Seed: %v", err)
	}
	got, _ := s.Get(ctx)
	if got.AutoAnalyze {
		t.Error("Seed overwrote existing settings")
	}
}

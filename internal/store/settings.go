package store

import (
	"context"
	"encoding/json"
	"fmt"

	"careeros/collector-service/internal/model"
)

// SettingsStore reads and writes the flat user settings object.
type SettingsStore struct {
	kv KV
}

// NewSettingsStore returns a settings store over kv.
func NewSettingsStore(kv KV) *SettingsStore {
	return &SettingsStore{kv: kv}
}

// Get returns the stored settings, or the defaults when the key is absent
// or unreadable.
func (s *SettingsStore) Get(ctx context.Context) (model.Settings, error) {
	raw, ok, err := s.kv.Get(ctx, KeySettings)
	if err != nil {
		return model.DefaultSettings(), fmt.Errorf("read %s: %w", KeySettings, err)
	}
	if !ok {
		return model.DefaultSettings(), nil
	}

	var settings model.Settings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return model.DefaultSettings(), fmt.Errorf("decode %s: %w", KeySettings, err)
	}
	if settings.CareerOSURL == "" {
		settings.CareerOSURL = model.DefaultSettings().CareerOSURL
	}
	return settings, nil
}

// Set stores the settings object.
func (s *SettingsStore) Set(ctx context.Context, settings model.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode %s: %w", KeySettings, err)
	}
	if err := s.kv.Set(ctx, KeySettings, raw, 0); err != nil {
		return fmt.Errorf("write %s: %w", KeySettings, err)
	}
	return nil
}

// Seed writes the default settings if the key is absent, mirroring
// first-run initialisation.
func (s *SettingsStore) Seed(ctx context.Context) error {
	_, ok, err := s.kv.Get(ctx, KeySettings)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return s.Set(ctx, model.DefaultSettings())
}

package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"careeros/collector-service/internal/analysis"
	"careeros/collector-service/internal/archive"
	"careeros/collector-service/internal/careeros"
	"careeros/collector-service/internal/extract"
	"careeros/collector-service/internal/model"
	"careeros/collector-service/internal/store"
)

// Redis channels consumed by the gateway SSE forwarder.
const (
	eventJobBookmarked = "EVENT_JOB_BOOKMARKED"
	eventJobAnalyzed   = "EVENT_JOB_ANALYZED"
)

// BadgeFunc pushes the bookmark count to whatever renders the badge.
type BadgeFunc func(count int)

// Service coordinates detection and the bookmark pipeline: extraction over
// fetched pages, persistence, badge updates, optional analysis and CareerOS
// sync, archival and event publishing.
type Service struct {
	bookmarks *store.Bookmarks
	settings  *store.SettingsStore
	analyzer  analysis.Analyzer
	careerOS  *careeros.Client
	archive   *archive.Archive
	events    store.Events
	badge     BadgeFunc
	builder   *extract.Builder
	fetch     FetchFunc
	log       *slog.Logger
}

// NewService wires the pipeline. archive may be nil when no database is
// configured; badge may be nil. A nil builder or fetch gets the production
// default (wall-clock builder, plain HTTP fetcher).
func NewService(bookmarks *store.Bookmarks, settings *store.SettingsStore, analyzer analysis.Analyzer, careerOS *careeros.Client, arch *archive.Archive, events store.Events, badge BadgeFunc, builder *extract.Builder, fetch FetchFunc, log *slog.Logger) *Service {
	if events == nil {
		events = store.NopEvents{}
	}
	if badge == nil {
		badge = func(int) {}
	}
	if builder == nil {
		builder = extract.NewBuilder()
	}
	if fetch == nil {
		fetch = NewHTTPFetcher(nil)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		bookmarks: bookmarks,
		settings:  settings,
		analyzer:  analyzer,
		careerOS:  careerOS,
		archive:   arch,
		events:    events,
		badge:     badge,
		builder:   builder,
		fetch:     fetch,
		log:       log,
	}
}

// DetectJob fetches pageURL and runs extraction over the live document.
// A nil record with a nil error means the page is not a recognisable job
// posting — an unknown board or a board page with no posting on it.
func (s *Service) DetectJob(ctx context.Context, pageURL string) (*model.JobRecord, error) {
	if !extract.IsJobBoard(pageURL) {
		return nil, nil
	}

	doc, err := s.fetch(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}

	record := s.builder.Build(doc, pageURL)
	if record != nil {
		s.log.Info("job detected", "url", pageURL, "title", record.Title, "confidence", record.Metadata.Confidence)
	}
	return record, nil
}

// BookmarkJob persists job and runs the follow-up side effects. Duplicate
// URLs are rejected with store.ErrAlreadyBookmarked before any side effect
// runs. Side effects after the save are non-fatal: the bookmark stands even
// when archival, analysis or sync fails.
func (s *Service) BookmarkJob(ctx context.Context, job model.JobRecord) (model.JobRecord, error) {
	saved, err := s.bookmarks.Add(ctx, job)
	if err != nil {
		return model.JobRecord{}, err
	}
	s.log.Info("job bookmarked", "id", saved.ID, "title", saved.Title, "source", saved.Source)

	if count, err := s.bookmarks.Count(ctx); err == nil {
		s.badge(count)
	}

	if s.archive != nil {
		if _, err := s.archive.Save(ctx, saved); err != nil {
			s.log.Warn("archive save failed", "id", saved.ID, "err", err)
		}
	}

	if err := s.events.Publish(ctx, eventJobBookmarked, saved); err != nil {
		s.log.Warn("event publish failed", "channel", eventJobBookmarked, "err", err)
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		s.log.Warn("settings unavailable, skipping follow-ups", "err", err)
		return saved, nil
	}

	if settings.AutoAnalyze {
		if _, err := s.AnalyzeJob(ctx, saved.ID); err != nil {
			s.log.Warn("auto-analyze failed", "id", saved.ID, "err", err)
		}
	}

	if settings.SyncWithCareerOS {
		if err := s.careerOS.BookmarkJob(ctx, saved); err != nil {
			s.log.Warn("careeros bookmark sync failed", "id", saved.ID, "err", err)
		}
	}

	return saved, nil
}

// GetBookmarkedJobs lists all bookmarks, oldest first.
func (s *Service) GetBookmarkedJobs(ctx context.Context) ([]model.JobRecord, error) {
	return s.bookmarks.List(ctx)
}

// AnalyzeJob runs the analyzer over a bookmarked job and stores the result
// on the record.
func (s *Service) AnalyzeJob(ctx context.Context, jobID string) (*model.JobAnalysis, error) {
	job, err := s.bookmarks.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	result, err := s.analyzer.Analyze(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("analyze job %s: %w", jobID, err)
	}

	if _, err := s.bookmarks.SetAnalysis(ctx, jobID, result); err != nil {
		return nil, err
	}

	if err := s.events.Publish(ctx, eventJobAnalyzed, map[string]any{"jobId": jobID, "analysis": result}); err != nil {
		s.log.Warn("event publish failed", "channel", eventJobAnalyzed, "err", err)
	}

	return result, nil
}

// SyncWithCareerOS pushes every bookmark to the configured CareerOS
// instance in one batch.
func (s *Service) SyncWithCareerOS(ctx context.Context) error {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return err
	}
	if settings.CareerOSURL == "" {
		return errors.New("careeros url is not configured")
	}

	jobs, err := s.bookmarks.List(ctx)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		s.log.Info("sync skipped, no bookmarks")
		return nil
	}

	if err := s.careerOS.SyncJobs(ctx, jobs); err != nil {
		return fmt.Errorf("sync %d jobs: %w", len(jobs), err)
	}
	s.log.Info("synced bookmarks to careeros", "count", len(jobs))
	return nil
}

// UpdateBadge pushes an explicit count to the badge renderer.
func (s *Service) UpdateBadge(count int) {
	s.badge(count)
}

// TestConnection checks reachability of a CareerOS instance and returns a
// user-facing result, never an error.
func (s *Service) TestConnection(ctx context.Context, url string) careeros.ConnectionResult {
	return s.careerOS.TestConnection(ctx, url)
}

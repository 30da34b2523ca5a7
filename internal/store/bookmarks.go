package store

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"careeros/collector-service/internal/model"
)

// ErrAlreadyBookmarked is returned when a job with the same URL is already
// in the bookmark list.
var ErrAlreadyBookmarked = fmt.Errorf("job already bookmarked")

// ErrJobNotFound is returned when a bookmarked job ID does not exist.
var ErrJobNotFound = fmt.Errorf("job not found")

// Bookmarks manages the bookmarked job list on top of the KV collaborator.
// List reads and read-modify-write updates race last-writer-wins, same as
// every other KV consumer.
type Bookmarks struct {
	kv  KV
	now func() time.Time
}

// NewBookmarks returns a bookmark store over kv.
func NewBookmarks(kv KV) *Bookmarks {
	return &Bookmarks{kv: kv, now: time.Now}
}

// List returns all bookmarked jobs, oldest first. An absent key yields an
// empty list.
func (s *Bookmarks) List(ctx context.Context) ([]model.JobRecord, error) {
	raw, ok, err := s.kv.Get(ctx, KeyBookmarkedJobs)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", KeyBookmarkedJobs, err)
	}
	if !ok {
		return []model.JobRecord{}, nil
	}

	var jobs []model.JobRecord
	if err := json.Unmarshal(raw, &jobs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", KeyBookmarkedJobs, err)
	}
	return jobs, nil
}

// Add appends job to the bookmark list, assigning an ID and bookmark
// timestamp. Returns ErrAlreadyBookmarked when a job with the same URL is
// already stored.
func (s *Bookmarks) Add(ctx context.Context, job model.JobRecord) (model.JobRecord, error) {
	jobs, err := s.List(ctx)
	if err != nil {
		return model.JobRecord{}, err
	}

	for _, existing := range jobs {
		if existing.URL == job.URL {
			return model.JobRecord{}, ErrAlreadyBookmarked
		}
	}

	job.ID = s.newJobID()
	job.BookmarkedAt = s.now().UTC().Format(time.RFC3339)
	jobs = append(jobs, job)

	if err := s.save(ctx, jobs); err != nil {
		return model.JobRecord{}, err
	}
	return job, nil
}

// Get returns the bookmarked job with the given ID.
func (s *Bookmarks) Get(ctx context.Context, jobID string) (model.JobRecord, error) {
	jobs, err := s.List(ctx)
	if err != nil {
		return model.JobRecord{}, err
	}
	for _, job := range jobs {
		if job.ID == jobID {
			return job, nil
		}
	}
	return model.JobRecord{}, ErrJobNotFound
}

// SetAnalysis attaches an analysis result to the job with the given ID and
// stamps LastAnalyzed.
func (s *Bookmarks) SetAnalysis(ctx context.Context, jobID string, analysis *model.JobAnalysis) (model.JobRecord, error) {
	jobs, err := s.List(ctx)
	if err != nil {
		return model.JobRecord{}, err
	}

	for i := range jobs {
		if jobs[i].ID != jobID {
			continue
		}
		jobs[i].Analysis = analysis
		jobs[i].LastAnalyzed = s.now().UTC().Format(time.RFC3339)
		if err := s.save(ctx, jobs); err != nil {
			return model.JobRecord{}, err
		}
		return jobs[i], nil
	}
	return model.JobRecord{}, ErrJobNotFound
}

// Count returns the number of bookmarked jobs.
func (s *Bookmarks) Count(ctx context.Context) (int, error) {
	jobs, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(jobs), nil
}

func (s *Bookmarks) save(ctx context.Context, jobs []model.JobRecord) error {
	raw, err := json.Marshal(jobs)
	if err != nil {
		return fmt.Errorf("encode %s: %w", KeyBookmarkedJobs, err)
	}
	if err := s.kv.Set(ctx, KeyBookmarkedJobs, raw, 0); err != nil {
		return fmt.Errorf("write %s: %w", KeyBookmarkedJobs, err)
	}
	return nil
}

const jobIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func (s *Bookmarks) newJobID() string {
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = jobIDAlphabet[rand.Intn(len(jobIDAlphabet))]
	}
	return fmt.Sprintf("job_%d_%s", s.now().UnixMilli(), suffix)
}

// Package archive persists bookmarked job records durably in PostgreSQL.
//
// The KV bookmark list is the working set the UI reads; the archive is the
// long-term record CareerOS mines later. Inserts deduplicate on source URL
// so re-bookmarking after a KV wipe never creates duplicate rows.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"careeros/collector-service/internal/model"
)

// Archive writes job records into the collected_jobs table.
type Archive struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// New returns an Archive over pool.
func New(pool *pgxpool.Pool, log *slog.Logger) *Archive {
	if log == nil {
		log = slog.Default()
	}
	return &Archive{pool: pool, log: log}
}

// Save inserts job unless a row with the same source URL already exists.
// Returns true when a new row was written.
func (a *Archive) Save(ctx context.Context, job model.JobRecord) (bool, error) {
	raw, err := json.Marshal(job)
	if err != nil {
		return false, fmt.Errorf("encode job: %w", err)
	}

	tag, err := a.pool.Exec(ctx,
		`INSERT INTO collected_jobs (job_id, source, source_url, raw_data)
		 SELECT $1, $2, $3, $4::jsonb
		 WHERE NOT EXISTS (
		   SELECT 1 FROM collected_jobs WHERE source_url = $3
		 )`,
		job.ID, job.Source, job.URL, string(raw),
	)
	if err != nil {
		return false, fmt.Errorf("archive insert: %w", err)
	}

	inserted := tag.RowsAffected() > 0
	if !inserted {
		a.log.Debug("job already archived", "url", job.URL)
	}
	return inserted, nil
}

// Count returns how many jobs the archive holds.
func (a *Archive) Count(ctx context.Context) (int, error) {
	var count int
	if err := a.pool.QueryRow(ctx, `SELECT COUNT(*) FROM collected_jobs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("archive count: %w", err)
	}
	return count, nil
}

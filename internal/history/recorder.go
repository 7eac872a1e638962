// internal/history/recorder.go
package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"indiegamehub-repocheck/internal/database"
	"indiegamehub-repocheck/internal/model"
	"indiegamehub-repocheck/internal/repourl"
)

// DefaultLimit is used when a listing does not ask for a specific size.
const DefaultLimit = 20

// Recorder appends check outcomes to the audit log and lists them back.
// Stored checks are never used to answer a new check.
type Recorder struct {
	q        database.Querier
	logger   *slog.Logger
	maxLimit int
	now      func() time.Time
}

// NewRecorder creates a Recorder. Listings are capped at maxLimit rows.
func NewRecorder(q database.Querier, logger *slog.Logger, maxLimit int) *Recorder {
	if maxLimit <= 0 {
		maxLimit = 100
	}
	return &Recorder{
		q:        q,
		logger:   logger,
		maxLimit: maxLimit,
		now:      time.Now,
	}
}

// MaxLimit returns the largest accepted listing size.
func (r *Recorder) MaxLimit() int {
	return r.maxLimit
}

// Record stores the outcome of one check of rawURL.
func (r *Recorder) Record(ctx context.Context, rawURL string, authenticated bool, result model.ValidationResult) (model.CheckRecord, error) {
	params := database.CreateRepoCheckParams{
		RawUrl:        rawURL,
		IsValidFormat: result.IsValidFormat,
		IsAccessible:  result.IsAccessible,
		FailureKind:   toText(string(result.Kind)),
		ErrorDetail:   toText(result.ErrorDetail),
		Authenticated: authenticated,
		CheckedAt:     pgtype.Timestamptz{Time: r.now().UTC(), Valid: true},
	}
	if ref, ok := repourl.Parse(rawURL); ok {
		params.Owner = toText(ref.Owner)
		params.Repo = toText(ref.Repo)
	}

	row, err := r.q.CreateRepoCheck(ctx, params)
	if err != nil {
		return model.CheckRecord{}, fmt.Errorf("failed to record check: %w", err)
	}
	r.logger.Debug("Recorded repository check", "id", row.ID, "owner", row.Owner.String, "repo", row.Repo.String)
	return toCheckRecord(row), nil
}

// Recent lists the latest checks, newest first.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]model.CheckRecord, error) {
	rows, err := r.q.ListRecentRepoChecks(ctx, r.clamp(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list checks: %w", err)
	}
	return toCheckRecords(rows), nil
}

// ForRepository lists the latest checks of one repository, newest first.
func (r *Recorder) ForRepository(ctx context.Context, ref model.RepositoryReference, limit int) ([]model.CheckRecord, error) {
	rows, err := r.q.ListRepoChecksByRepository(ctx, database.ListRepoChecksByRepositoryParams{
		Owner: toText(ref.Owner),
		Repo:  toText(ref.Repo),
		Limit: r.clamp(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list checks for %s: %w", ref.FullName(), err)
	}
	return toCheckRecords(rows), nil
}

func (r *Recorder) clamp(limit int) int32 {
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > r.maxLimit:
		limit = r.maxLimit
	}
	return int32(limit)
}

func toCheckRecords(rows []database.RepoCheck) []model.CheckRecord {
	records := make([]model.CheckRecord, len(rows))
	for i, row := range rows {
		records[i] = toCheckRecord(row)
	}
	return records
}

func toCheckRecord(row database.RepoCheck) model.CheckRecord {
	return model.CheckRecord{
		ID:            row.ID,
		Owner:         row.Owner.String,
		Repo:          row.Repo.String,
		RawURL:        row.RawUrl,
		IsValidFormat: row.IsValidFormat,
		IsAccessible:  row.IsAccessible,
		FailureKind:   model.FailureKind(row.FailureKind.String),
		ErrorDetail:   row.ErrorDetail.String,
		Authenticated: row.Authenticated,
		CheckedAt:     row.CheckedAt.Time,
	}
}

// toText converts an empty string to SQL NULL.
func toText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

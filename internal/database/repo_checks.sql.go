// internal/database/repo_checks.sql.go
package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createRepoCheck = `-- name: CreateRepoCheck :one
INSERT INTO repo_checks (
    owner, repo, raw_url, is_valid_format, is_accessible, failure_kind, error_detail, authenticated, checked_at
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9
)
RETURNING id, owner, repo, raw_url, is_valid_format, is_accessible, failure_kind, error_detail, authenticated, checked_at
`

type CreateRepoCheckParams struct {
	Owner         pgtype.Text        `json:"owner"`
	Repo          pgtype.Text        `json:"repo"`
	RawUrl        string             `json:"raw_url"`
	IsValidFormat bool               `json:"is_valid_format"`
	IsAccessible  bool               `json:"is_accessible"`
	FailureKind   pgtype.Text        `json:"failure_kind"`
	ErrorDetail   pgtype.Text        `json:"error_detail"`
	Authenticated bool               `json:"authenticated"`
	CheckedAt     pgtype.Timestamptz `json:"checked_at"`
}

func (q *Queries) CreateRepoCheck(ctx context.Context, arg CreateRepoCheckParams) (RepoCheck, error) {
	row := q.db.QueryRow(ctx, createRepoCheck,
		arg.Owner,
		arg.Repo,
		arg.RawUrl,
		arg.IsValidFormat,
		arg.IsAccessible,
		arg.FailureKind,
		arg.ErrorDetail,
		arg.Authenticated,
		arg.CheckedAt,
	)
	var i RepoCheck
	err := row.Scan(
		&i.ID,
		&i.Owner,
		&i.Repo,
		&i.RawUrl,
		&i.IsValidFormat,
		&i.IsAccessible,
		&i.FailureKind,
		&i.ErrorDetail,
		&i.Authenticated,
		&i.CheckedAt,
	)
	return i, err
}

const listRecentRepoChecks = `-- name: ListRecentRepoChecks :many
SELECT id, owner, repo, raw_url, is_valid_format, is_accessible, failure_kind, error_detail, authenticated, checked_at FROM repo_checks
ORDER BY checked_at DESC, id DESC
LIMIT $1
`

func (q *Queries) ListRecentRepoChecks(ctx context.Context, limit int32) ([]RepoCheck, error) {
	rows, err := q.db.Query(ctx, listRecentRepoChecks, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RepoCheck
	for rows.Next() {
		var i RepoCheck
		if err := rows.Scan(
			&i.ID,
			&i.Owner,
			&i.Repo,
			&i.RawUrl,
			&i.IsValidFormat,
			&i.IsAccessible,
			&i.FailureKind,
			&i.ErrorDetail,
			&i.Authenticated,
			&i.CheckedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listRepoChecksByRepository = `-- name: ListRepoChecksByRepository :many
SELECT id, owner, repo, raw_url, is_valid_format, is_accessible, failure_kind, error_detail, authenticated, checked_at FROM repo_checks
WHERE owner = $1 AND repo = $2
ORDER BY checked_at DESC, id DESC
LIMIT $3
`

type ListRepoChecksByRepositoryParams struct {
	Owner pgtype.Text `json:"owner"`
	Repo  pgtype.Text `json:"repo"`
	Limit int32       `json:"limit"`
}

func (q *Queries) ListRepoChecksByRepository(ctx context.Context, arg ListRepoChecksByRepositoryParams) ([]RepoCheck, error) {
	rows, err := q.db.Query(ctx, listRepoChecksByRepository, arg.Owner, arg.Repo, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RepoCheck
	for rows.Next() {
		var i RepoCheck
		if err := rows.Scan(
			&i.ID,
			&i.Owner,
			&i.Repo,
			&i.RawUrl,
			&i.IsValidFormat,
			&i.IsAccessible,
			&i.FailureKind,
			&i.ErrorDetail,
			&i.Authenticated,
			&i.CheckedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

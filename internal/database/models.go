// internal/database/models.go
package database

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type RepoCheck struct {
	ID            int64              `json:"id"`
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

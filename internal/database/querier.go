// internal/database/querier.go
package database

import (
	"context"
)

type Querier interface {
	CreateRepoCheck(ctx context.Context, arg CreateRepoCheckParams) (RepoCheck, error)
	ListRecentRepoChecks(ctx context.Context, limit int32) ([]RepoCheck, error)
	ListRepoChecksByRepository(ctx context.Context, arg ListRepoChecksByRepositoryParams) ([]RepoCheck, error)
}

var _ Querier = (*Queries)(nil)

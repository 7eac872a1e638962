//go:build integration

// cmd/service/integration_test.go
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"indiegamehub-repocheck/internal/api"
	"indiegamehub-repocheck/internal/database"
	"indiegamehub-repocheck/internal/github"
	"indiegamehub-repocheck/internal/history"
	"indiegamehub-repocheck/internal/model"
	"indiegamehub-repocheck/internal/repocheck"
)

func setupTestDatabase(ctx context.Context, t *testing.T) (*pgxpool.Pool, func()) {
	// Start a postgres container
	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := migrate.New("file://../../migrations", connStr)
	require.NoError(t, err)
	require.NoError(t, m.Up())

	dbpool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	teardown := func() {
		dbpool.Close()
		require.NoError(t, pgContainer.Terminate(ctx))
	}

	return dbpool, teardown
}

func TestService_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	dbpool, teardown := setupTestDatabase(ctx, t)
	defer teardown()

	// Mock hosting API
	ghServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/test-owner/test-repo":
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"name": "test-repo", "full_name": "test-owner/test-repo", "private": false,
				"html_url": "https://github.com/test-owner/test-repo", "clone_url": "https://github.com/test-owner/test-repo.git"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ghServer.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ghClient, err := github.NewClient(ghServer.Client(), logger, github.WithBaseURL(ghServer.URL))
	require.NoError(t, err)

	checker := repocheck.NewChecker(ghClient, logger, 2*time.Second, 2)
	recorder := history.NewRecorder(database.New(dbpool), logger, 100)
	apiServer := httptest.NewServer(api.NewRouter(checker, recorder, logger))
	defer apiServer.Close()

	// --- ACT ---
	for _, body := range []string{
		`{"repo_url": "https://github.com/test-owner/test-repo.git"}`,
		`{"repo_url": "git@github.com:test-owner/missing"}`,
		`{"repo_url": "not a url"}`,
	} {
		resp, err := http.Post(apiServer.URL+"/v1/repos/validate", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	// --- ASSERT ---
	records, err := recorder.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "not a url", records[0].RawURL) // Order is by checked_at DESC
	assert.Equal(t, model.FailureInvalidFormat, records[0].FailureKind)
	assert.Empty(t, records[0].Owner)
	assert.Equal(t, model.FailureNotFound, records[1].FailureKind)
	assert.True(t, records[2].IsAccessible)

	resp, err := http.Get(apiServer.URL + "/v1/repos/test-owner/test-repo/checks")
	require.NoError(t, err)
	defer resp.Body.Close()
	var repoRecords []model.CheckRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&repoRecords))
	require.Len(t, repoRecords, 1)
	assert.Equal(t, "test-repo", repoRecords[0].Repo)
}

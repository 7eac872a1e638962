// internal/repocheck/checker_http_test.go
package repocheck_test

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indiegamehub-repocheck/internal/github"
	"indiegamehub-repocheck/internal/model"
	"indiegamehub-repocheck/internal/repocheck"
)

// setupChecker creates a httptest server and a checker whose hosting API points to it.
func setupChecker(t *testing.T, handler http.Handler, timeout time.Duration) (*repocheck.Checker, *httptest.Server) {
	server := httptest.NewServer(handler)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	client, err := github.NewClient(server.Client(), logger, github.WithBaseURL(server.URL))
	require.NoError(t, err)

	return repocheck.NewChecker(client, logger, timeout, 0), server
}

func TestChecker_HTTP_Accessible(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/foo/bar", r.URL.Path)
		assert.Equal(t, "token abc123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.github.v3+json", r.Header.Get("Accept"))
		assert.Equal(t, github.DefaultUserAgent, r.Header.Get("User-Agent"))
		fmt.Fprintln(w, `{
			"name": "bar",
			"full_name": "foo/bar",
			"private": false,
			"description": null,
			"html_url": "https://github.com/foo/bar",
			"clone_url": "https://github.com/foo/bar.git"
		}`)
	})
	checker, server := setupChecker(t, handler, 0)
	defer server.Close()

	result := checker.CheckRepository(context.Background(), "https://github.com/foo/bar.git", "abc123")

	require.True(t, result.IsAccessible)
	assert.True(t, result.IsValidFormat)
	assert.Empty(t, result.ErrorDetail)
	assert.Equal(t, &model.RepositoryMetadata{
		Name:     "bar",
		FullName: "foo/bar",
		HTMLURL:  "https://github.com/foo/bar",
		CloneURL: "https://github.com/foo/bar.git",
	}, result.Metadata)
}

func TestChecker_HTTP_NotFound(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintln(w, `{"message": "Not Found"}`)
	})
	checker, server := setupChecker(t, handler, 0)
	defer server.Close()

	result := checker.CheckPublicRepository(context.Background(), "git@github.com:foo/secret")

	assert.True(t, result.IsValidFormat)
	assert.False(t, result.IsAccessible)
	assert.Nil(t, result.Metadata)
	assert.Equal(t, "repository does not exist or is not accessible", result.ErrorDetail)
}

func TestChecker_HTTP_RateLimited(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "60")
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(time.Hour).Unix()))
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprintln(w, `{"message": "API rate limit exceeded"}`)
	})
	checker, server := setupChecker(t, handler, 0)
	defer server.Close()

	result := checker.CheckRepository(context.Background(), "https://github.com/foo/bar", "")

	assert.Equal(t, model.FailureForbidden, result.Kind)
	assert.Equal(t, "access denied: insufficient token scope or rate limit reached", result.ErrorDetail)
}

func TestChecker_HTTP_Timeout(t *testing.T) {
	const timeout = 150 * time.Millisecond
	release := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	})
	checker, server := setupChecker(t, handler, timeout)
	defer server.Close()
	defer close(release)

	start := time.Now()
	result := checker.CheckRepository(context.Background(), "https://github.com/foo/bar", "")
	elapsed := time.Since(start)

	assert.True(t, result.IsValidFormat)
	assert.False(t, result.IsAccessible)
	assert.Equal(t, "request timed out", result.ErrorDetail)
	assert.GreaterOrEqual(t, elapsed, timeout)
	assert.Less(t, elapsed, 5*time.Second)
}

func TestChecker_HTTP_NetworkError(t *testing.T) {
	checker, server := setupChecker(t, http.NotFoundHandler(), 0)
	server.Close()

	result := checker.CheckRepository(context.Background(), "https://github.com/foo/bar", "")

	assert.False(t, result.IsValidFormat)
	assert.False(t, result.IsAccessible)
	assert.Equal(t, model.FailureNetwork, result.Kind)
	assert.True(t, strings.HasPrefix(result.ErrorDetail, "network error: "), result.ErrorDetail)
}

func TestChecker_HTTP_ResultsAreNotCached(t *testing.T) {
	var requestCount int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requestCount, 1) == 1 {
			fmt.Fprintln(w, `{"name": "bar", "full_name": "foo/bar"}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	checker, server := setupChecker(t, handler, 0)
	defer server.Close()

	first := checker.CheckRepository(context.Background(), "https://github.com/foo/bar", "")
	second := checker.CheckRepository(context.Background(), "https://github.com/foo/bar", "")

	assert.True(t, first.IsAccessible)
	assert.False(t, second.IsAccessible)
	assert.Equal(t, model.FailureNotFound, second.Kind)
	assert.Equal(t, int32(2), atomic.LoadInt32(&requestCount), "each check should issue its own request")
}

func TestChecker_HTTP_ValidateToken(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user", r.URL.Path)
		switch r.Header.Get("Authorization") {
		case "token valid":
			fmt.Fprintln(w, `{"login": "indie-dev"}`)
		case "token broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprintln(w, `{"message": "Bad credentials"}`)
		}
	})
	checker, server := setupChecker(t, handler, 0)
	defer server.Close()

	assert.True(t, checker.ValidateToken(context.Background(), "valid"))
	assert.False(t, checker.ValidateToken(context.Background(), "expired"))
	assert.False(t, checker.ValidateToken(context.Background(), "broken"))
	assert.False(t, checker.ValidateToken(context.Background(), "not a token at all"))
	assert.False(t, checker.ValidateToken(context.Background(), ""))

	server.Close()
	assert.False(t, checker.ValidateToken(context.Background(), "valid"))
}

func TestChecker_HTTP_BatchDeadlineWhileQueued(t *testing.T) {
	var hits int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		select {
		case <-time.After(400 * time.Millisecond):
			w.WriteHeader(http.StatusOK)
		case <-r.Context().Done():
		}
	})
	checker, server := setupChecker(t, handler, 0)
	defer server.Close()

	reqs := make([]repocheck.CheckRequest, 12)
	for i := range reqs {
		reqs[i] = repocheck.CheckRequest{RepoURL: fmt.Sprintf("https://github.com/foo/game%d", i)}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	results := checker.CheckMany(ctx, reqs)

	require.Len(t, results, 12)
	sent := int(atomic.LoadInt32(&hits))
	assert.Equal(t, repocheck.DefaultConcurrency, sent)

	var aborted, notAttempted int
	for _, r := range results {
		assert.NotEqual(t, model.FailureTimeout, r.Kind)
		assert.NotEqual(t, "request timed out", r.ErrorDetail)
		switch r.Kind {
		case model.FailureAborted:
			aborted++
		case model.FailureNotAttempted:
			notAttempted++
		}
	}
	assert.Equal(t, sent, aborted)
	assert.Equal(t, len(reqs)-sent, notAttempted)
}

// internal/repocheck/checker.go
package repocheck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"indiegamehub-repocheck/internal/model"
	"indiegamehub-repocheck/internal/repourl"
)

const (
	// DefaultTimeout bounds every outbound request.
	DefaultTimeout = 10 * time.Second
	// DefaultConcurrency is the number of batch checks run in parallel.
	DefaultConcurrency = 5

	batchGrace = 5 * time.Second
)

const (
	msgInvalidFormat     = "invalid URL format"
	msgUnauthorized      = "access token invalid or expired"
	msgForbidden         = "access denied: insufficient token scope or rate limit reached"
	msgNotFound          = "repository does not exist or is not accessible"
	msgMalformedRef      = "malformed repository reference"
	msgTimeout           = "request timed out"
	msgUnexpectedStatus  = "unexpected status code %d"
	msgAPIError          = "hosting API error (status %d)"
	msgMalformedResponse = "invalid response from hosting API: %v"
	msgNetwork           = "network error: %v"
	msgNotAttempted      = "check not attempted: %v"
	msgAborted           = "check aborted: %v"
)

// HostingAPI is the remote repository host as seen by the checker.
// Status codes are 0 when no HTTP response was received.
type HostingAPI interface {
	GetRepository(ctx context.Context, ref model.RepositoryReference, token string) (*model.RepositoryMetadata, int, error)
	GetAuthenticatedUser(ctx context.Context, token string) (int, error)
}

// CheckRequest is one item of a batch check.
type CheckRequest struct {
	RepoURL     string
	AccessToken string
}

// Checker determines whether repository URLs are well formed and reachable.
// It keeps no state between calls and is safe for concurrent use.
type Checker struct {
	api         HostingAPI
	logger      *slog.Logger
	timeout     time.Duration
	concurrency int
}

// NewChecker creates a Checker. Non-positive timeout or concurrency select the defaults.
func NewChecker(api HostingAPI, logger *slog.Logger, timeout time.Duration, concurrency int) *Checker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Checker{
		api:         api,
		logger:      logger,
		timeout:     timeout,
		concurrency: concurrency,
	}
}

// CheckRepository parses repoURL and asks the hosting API for the repository.
// Expected failures are reported in the result, never as errors.
// An empty accessToken sends the request unauthenticated.
func (c *Checker) CheckRepository(ctx context.Context, repoURL, accessToken string) model.ValidationResult {
	ref, ok := repourl.Parse(repoURL)
	if !ok {
		c.logger.Debug("Rejected repository URL", "url", repoURL)
		return model.ValidationResult{ErrorDetail: msgInvalidFormat, Kind: model.FailureInvalidFormat}
	}

	logger := c.logger.With("owner", ref.Owner, "repo", ref.Repo)

	if err := ctx.Err(); err != nil {
		logger.Warn("Repository check not attempted", "error", err)
		return failure(true, model.FailureNotAttempted, fmt.Sprintf(msgNotAttempted, err))
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	meta, status, err := c.api.GetRepository(callCtx, ref, accessToken)

	var result model.ValidationResult
	if err != nil && status == 0 && ctx.Err() != nil {
		// Only the per-call deadline counts as a timeout.
		result = failure(true, model.FailureAborted, fmt.Sprintf(msgAborted, ctx.Err()))
	} else {
		result = classify(meta, status, err)
	}

	logger.Info("Repository check finished",
		"authenticated", accessToken != "",
		"accessible", result.IsAccessible,
		"failure_kind", result.Kind,
		"retryable", result.Kind.Retryable(),
		"status", status,
	)
	return result
}

// CheckPublicRepository checks repoURL without a credential.
func (c *Checker) CheckPublicRepository(ctx context.Context, repoURL string) model.ValidationResult {
	return c.CheckRepository(ctx, repoURL, "")
}

// ValidateToken reports whether accessToken is accepted by the hosting API.
// Failure details are discarded.
func (c *Checker) ValidateToken(ctx context.Context, accessToken string) bool {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	status, err := c.api.GetAuthenticatedUser(ctx, accessToken)
	if err != nil {
		c.logger.Debug("Token validation failed", "status", status, "error", err)
		return false
	}
	return status == http.StatusOK
}

// BatchTimeout returns how long a batch of n checks may take when every
// request runs into the per-call timeout, plus a small grace period.
func (c *Checker) BatchTimeout(n int) time.Duration {
	rounds := (n + c.concurrency - 1) / c.concurrency
	return time.Duration(rounds)*c.timeout + batchGrace
}

// CheckMany runs independent checks with bounded parallelism.
// Results are returned in request order. Items still queued when ctx ends
// are reported as not attempted without contacting the hosting API.
func (c *Checker) CheckMany(ctx context.Context, reqs []CheckRequest) []model.ValidationResult {
	results := make([]model.ValidationResult, len(reqs))

	var g errgroup.Group
	g.SetLimit(c.concurrency)

	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			results[i] = c.CheckRepository(ctx, req.RepoURL, req.AccessToken)
			return nil
		})
	}
	_ = g.Wait()

	c.logger.Info("Batch check finished", "count", len(reqs), "concurrency", c.concurrency)
	return results
}

// classify maps the outcome of a repository lookup onto a ValidationResult.
func classify(meta *model.RepositoryMetadata, status int, err error) model.ValidationResult {
	switch {
	case err == nil && status == http.StatusOK && meta != nil:
		return model.ValidationResult{IsValidFormat: true, IsAccessible: true, Metadata: meta}

	case status == http.StatusOK:
		return failure(true, model.FailureMalformedResponse, fmt.Sprintf(msgMalformedResponse, err))

	case status >= 200 && status < 300:
		return failure(true, model.FailureUnexpectedStatus, fmt.Sprintf(msgUnexpectedStatus, status))

	case status != 0:
		return classifyStatus(status)

	case isTimeout(err):
		return failure(true, model.FailureTimeout, msgTimeout)

	default:
		return failure(false, model.FailureNetwork, fmt.Sprintf(msgNetwork, err))
	}
}

func classifyStatus(status int) model.ValidationResult {
	switch status {
	case http.StatusUnauthorized:
		return failure(true, model.FailureUnauthorized, msgUnauthorized)
	case http.StatusForbidden:
		return failure(true, model.FailureForbidden, msgForbidden)
	case http.StatusNotFound:
		// A private repository queried without access is indistinguishable from a missing one.
		return failure(true, model.FailureNotFound, msgNotFound)
	case http.StatusUnprocessableEntity:
		return failure(true, model.FailureMalformedRef, msgMalformedRef)
	default:
		return failure(true, model.FailureAPIError, fmt.Sprintf(msgAPIError, status))
	}
}

func failure(validFormat bool, kind model.FailureKind, detail string) model.ValidationResult {
	return model.ValidationResult{
		IsValidFormat: validFormat,
		ErrorDetail:   detail,
		Kind:          kind,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// internal/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	custom_errors "indiegamehub-repocheck/internal/errors"
	"indiegamehub-repocheck/internal/model"
	"indiegamehub-repocheck/internal/repocheck"
	"indiegamehub-repocheck/internal/repourl"
)

const (
	tokenHeader    = "X-GitHub-Token"
	maxBatchSize   = 50
	maxBodyBytes   = 1 << 20
	requestTimeout = 60 * time.Second
	recordTimeout  = 5 * time.Second
)

// RepoChecker is the subset of repocheck.Checker used by the API.
type RepoChecker interface {
	CheckRepository(ctx context.Context, repoURL, accessToken string) model.ValidationResult
	CheckMany(ctx context.Context, reqs []repocheck.CheckRequest) []model.ValidationResult
	ValidateToken(ctx context.Context, accessToken string) bool
	BatchTimeout(n int) time.Duration
}

// CheckHistory stores and lists performed checks.
type CheckHistory interface {
	Record(ctx context.Context, rawURL string, authenticated bool, result model.ValidationResult) (model.CheckRecord, error)
	Recent(ctx context.Context, limit int) ([]model.CheckRecord, error)
	ForRepository(ctx context.Context, ref model.RepositoryReference, limit int) ([]model.CheckRecord, error)
	MaxLimit() int
}

// Handler is the container for API dependencies.
type Handler struct {
	checker RepoChecker
	history CheckHistory
	logger  *slog.Logger
}

type validateRequest struct {
	RepoURL     string `json:"repo_url"`
	AccessToken string `json:"access_token"`
}

type batchRequest struct {
	Items []validateRequest `json:"items"`
}

type batchResponse struct {
	Results []model.ValidationResult `json:"results"`
}

type tokenRequest struct {
	AccessToken string `json:"access_token"`
}

type tokenResponse struct {
	Valid bool `json:"valid"`
}

// NewRouter creates and configures a new chi router with all API routes.
func NewRouter(checker RepoChecker, history CheckHistory, logger *slog.Logger) http.Handler {
	h := &Handler{
		checker: checker,
		history: history,
		logger:  logger,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.healthCheck)
	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))
			r.Post("/repos/validate", h.validateRepository)
			r.Get("/repos/{owner}/{name}/checks", h.getRepositoryChecks)
			r.Post("/tokens/validate", h.validateToken)
			r.Get("/checks", h.getRecentChecks)
		})
		// Batches get a deadline sized to their length in validateBatch.
		r.Post("/repos/validate/batch", h.validateBatch)
	})

	return r
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// validateRepository checks a single repository URL.
// POST /v1/repos/validate
func (h *Handler) validateRepository(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.RepoURL) == "" {
		respondWithError(w, http.StatusBadRequest, (&custom_errors.ErrInvalidRequest{Field: "repo_url", Reason: "is required"}).Error())
		return
	}

	token := tokenFrom(r, req.AccessToken)
	result := h.checker.CheckRepository(r.Context(), req.RepoURL, token)
	h.record(r.Context(), req.RepoURL, token != "", result)

	respondWithJSON(w, http.StatusOK, result)
}

// validateBatch checks up to maxBatchSize repository URLs.
// POST /v1/repos/validate/batch
func (h *Handler) validateBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Items) == 0 || len(req.Items) > maxBatchSize {
		respondWithError(w, http.StatusBadRequest, (&custom_errors.ErrInvalidRequest{
			Field:  "items",
			Reason: "must contain between 1 and " + strconv.Itoa(maxBatchSize) + " entries",
		}).Error())
		return
	}

	headerToken := r.Header.Get(tokenHeader)
	reqs := make([]repocheck.CheckRequest, len(req.Items))
	for i, item := range req.Items {
		token := item.AccessToken
		if token == "" {
			token = headerToken
		}
		reqs[i] = repocheck.CheckRequest{RepoURL: item.RepoURL, AccessToken: token}
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.checker.BatchTimeout(len(reqs)))
	defer cancel()

	results := h.checker.CheckMany(ctx, reqs)
	for i, res := range results {
		if res.Kind == model.FailureNotAttempted {
			continue
		}
		h.record(ctx, reqs[i].RepoURL, reqs[i].AccessToken != "", res)
	}

	respondWithJSON(w, http.StatusOK, batchResponse{Results: results})
}

// validateToken reports whether an access token is currently accepted.
// POST /v1/tokens/validate
func (h *Handler) validateToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	token := tokenFrom(r, req.AccessToken)
	if token == "" {
		respondWithError(w, http.StatusBadRequest, (&custom_errors.ErrInvalidRequest{Field: "access_token", Reason: "is required"}).Error())
		return
	}

	respondWithJSON(w, http.StatusOK, tokenResponse{Valid: h.checker.ValidateToken(r.Context(), token)})
}

// getRecentChecks lists the latest recorded checks.
// GET /v1/checks?limit=N
func (h *Handler) getRecentChecks(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.parseLimit(w, r)
	if !ok {
		return
	}

	records, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list checks", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, records)
}

// getRepositoryChecks lists the latest recorded checks of one repository.
// GET /v1/repos/{owner}/{name}/checks?limit=N
func (h *Handler) getRepositoryChecks(w http.ResponseWriter, r *http.Request) {
	ref, err := repourl.ParseFullName(chi.URLParam(r, "owner") + "/" + chi.URLParam(r, "name"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, ok := h.parseLimit(w, r)
	if !ok {
		return
	}

	records, err := h.history.ForRepository(r.Context(), ref, limit)
	if err != nil {
		h.logger.Error("Failed to list repository checks", "owner", ref.Owner, "repo", ref.Repo, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, records)
}

// record stores a check outcome. Storage failures never change the response.
// The write outlives a request context that ended while the check ran.
func (h *Handler) record(ctx context.Context, rawURL string, authenticated bool, result model.ValidationResult) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if _, err := h.history.Record(ctx, rawURL, authenticated, result); err != nil {
		h.logger.Error("Failed to record check", "url", rawURL, "error", err)
	}
}

func (h *Handler) parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return 0, true // recorder default
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 || limit > h.history.MaxLimit() {
		respondWithError(w, http.StatusBadRequest,
			"Invalid 'limit' parameter. Must be an integer between 1 and "+strconv.Itoa(h.history.MaxLimit())+".")
		return 0, false
	}
	return limit, true
}

// tokenFrom prefers the body token and falls back to the token header.
func tokenFrom(r *http.Request, bodyToken string) string {
	if bodyToken != "" {
		return bodyToken
	}
	return r.Header.Get(tokenHeader)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return &custom_errors.ErrInvalidRequest{Field: "body", Reason: "is too large"}
		}
		return &custom_errors.ErrInvalidRequest{Field: "body", Reason: "is not valid JSON: " + err.Error()}
	}
	return nil
}

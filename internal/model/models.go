// internal/model/models.go
package model

import (
	"log/slog"
	"time"
)

// RepositoryReference identifies a hosted repository by owner and name.
type RepositoryReference struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
}

// FullName returns the "owner/repo" form of the reference.
func (r RepositoryReference) FullName() string {
	return r.Owner + "/" + r.Repo
}

// RepositoryMetadata is a snapshot of the remote repository taken at check time.
type RepositoryMetadata struct {
	Name        string  `json:"name"`
	FullName    string  `json:"full_name"`
	IsPrivate   bool    `json:"is_private"`
	Description *string `json:"description,omitempty"`
	HTMLURL     string  `json:"html_url"`
	CloneURL    string  `json:"clone_url"`
}

// FailureKind categorizes why a check did not succeed.
type FailureKind string

const (
	FailureNone              FailureKind = ""
	FailureInvalidFormat     FailureKind = "invalid_format"
	FailureUnauthorized      FailureKind = "unauthorized"
	FailureForbidden         FailureKind = "forbidden"
	FailureNotFound          FailureKind = "not_found"
	FailureMalformedRef      FailureKind = "malformed_reference"
	FailureAPIError          FailureKind = "api_error"
	FailureUnexpectedStatus  FailureKind = "unexpected_status"
	FailureMalformedResponse FailureKind = "malformed_response"
	FailureTimeout           FailureKind = "timeout"
	FailureNetwork           FailureKind = "network"

	// The caller gave up before the request was sent, or before the per-call timeout elapsed.
	FailureNotAttempted FailureKind = "not_attempted"
	FailureAborted      FailureKind = "aborted"
)

// Retryable reports whether the same call may succeed later without caller changes.
func (k FailureKind) Retryable() bool {
	switch k {
	case FailureTimeout, FailureNetwork, FailureAPIError, FailureNotAttempted, FailureAborted:
		return true
	}
	return false
}

// ValidationResult is the outcome of a single repository check.
// Metadata is set only when IsAccessible is true; ErrorDetail only when it is false.
type ValidationResult struct {
	IsValidFormat bool                `json:"is_valid_format"`
	IsAccessible  bool                `json:"is_accessible"`
	Metadata      *RepositoryMetadata `json:"metadata,omitempty"`
	ErrorDetail   string              `json:"error,omitempty"`
	Kind          FailureKind         `json:"failure_kind,omitempty"`
}

// AccessToken is a hosting API credential. It masks itself in logs and fmt output.
type AccessToken string

func (t AccessToken) String() string {
	if t == "" {
		return ""
	}
	return "***********"
}

func (t AccessToken) LogValue() slog.Value {
	return slog.StringValue(t.String())
}

// CheckRecord is a persisted audit entry for one performed check.
type CheckRecord struct {
	ID            int64       `json:"id"`
	Owner         string      `json:"owner,omitempty"`
	Repo          string      `json:"repo,omitempty"`
	RawURL        string      `json:"raw_url"`
	IsValidFormat bool        `json:"is_valid_format"`
	IsAccessible  bool        `json:"is_accessible"`
	FailureKind   FailureKind `json:"failure_kind,omitempty"`
	ErrorDetail   string      `json:"error,omitempty"`
	Authenticated bool        `json:"authenticated"`
	CheckedAt     time.Time   `json:"checked_at"`
}

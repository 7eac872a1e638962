// internal/github/client.go
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"indiegamehub-repocheck/internal/model"
)

const (
	DefaultBaseURL   = "https://api.github.com/"
	DefaultUserAgent = "IndieGameHub-RepoCheck"

	// tokenType makes oauth2 send "Authorization: token <value>".
	tokenType = "token"
)

// Client is a wrapper around the go-github client.
// A fresh go-github client is built for every call so that no per-client
// state (such as remembered rate limits) carries over between calls.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	userAgent  string
	logger     *slog.Logger
}

type Option func(*Client) error

// WithBaseURL points the client at a different API root, e.g. a test server
// or a GitHub Enterprise instance.
func WithBaseURL(raw string) Option {
	return func(c *Client) error {
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid base URL %q: %w", raw, err)
		}
		c.baseURL = u
		return nil
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) error {
		c.userAgent = ua
		return nil
	}
}

// NewClient creates a Client that sends its requests through httpClient.
// A nil httpClient means http.DefaultClient.
func NewClient(httpClient *http.Client, logger *slog.Logger, opts ...Option) (*Client, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	base, _ := url.Parse(DefaultBaseURL)

	c := &Client{
		httpClient: httpClient,
		baseURL:    base,
		userAgent:  DefaultUserAgent,
		logger:     logger,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// GetRepository fetches repository details and translates them to our internal model.
// The returned status code is 0 when no HTTP response was received.
func (c *Client) GetRepository(ctx context.Context, ref model.RepositoryReference, token string) (*model.RepositoryMetadata, int, error) {
	c.logger.Debug("Fetching repository", "owner", ref.Owner, "repo", ref.Repo, "token", model.AccessToken(token))

	// Repositories.Get would replace the Accept header with preview media
	// types, so the request is built directly to keep the v3 default.
	gh := c.newGitHubClient(token)
	u := fmt.Sprintf("repos/%s/%s", url.PathEscape(ref.Owner), url.PathEscape(ref.Repo))
	req, err := gh.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, err
	}

	repo := new(github.Repository)
	resp, err := gh.Do(ctx, req, repo)
	status := statusCode(resp)
	if err != nil {
		return nil, status, err
	}
	return toRepositoryMetadata(repo), status, nil
}

// GetAuthenticatedUser requests the identity behind token and returns the response status code.
func (c *Client) GetAuthenticatedUser(ctx context.Context, token string) (int, error) {
	c.logger.Debug("Fetching authenticated user", "token", model.AccessToken(token))

	gh := c.newGitHubClient(token)
	req, err := gh.NewRequest(http.MethodGet, "user", nil)
	if err != nil {
		return 0, err
	}

	resp, err := gh.Do(ctx, req, nil)
	return statusCode(resp), err
}

func (c *Client) newGitHubClient(token string) *github.Client {
	hc := c.httpClient
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: tokenType})
		hc = &http.Client{
			Transport:     &oauth2.Transport{Source: ts, Base: c.httpClient.Transport},
			CheckRedirect: c.httpClient.CheckRedirect,
			Jar:           c.httpClient.Jar,
			Timeout:       c.httpClient.Timeout,
		}
	}

	gh := github.NewClient(hc)
	gh.BaseURL = c.baseURL
	gh.UserAgent = c.userAgent
	return gh
}

func statusCode(resp *github.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return resp.StatusCode
}

// toRepositoryMetadata translates a github.Repository object to our internal model.
func toRepositoryMetadata(r *github.Repository) *model.RepositoryMetadata {
	return &model.RepositoryMetadata{
		Name:        r.GetName(),
		FullName:    r.GetFullName(),
		IsPrivate:   r.GetPrivate(),
		Description: r.Description,
		HTMLURL:     r.GetHTMLURL(),
		CloneURL:    r.GetCloneURL(),
	}
}

package githost

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"inkwell/internal/domain"
	"inkwell/internal/domain/models"
	"inkwell/internal/domain/repositories"
)

const (
	// DefaultBaseURL is the GitHub REST v3 endpoint
	DefaultBaseURL = "https://api.github.com"
	// DefaultTimeout is the HTTP timeout for hosting-API requests
	DefaultTimeout = 30 * time.Second

	// historyPageSize caps ListFileHistory at one page
	historyPageSize = 50
)

// RepoConfig scopes a client to one hosting repository.
type RepoConfig struct {
	Owner       string
	Name        string
	BaseBranch  string // default "main"
	ContentRoot string // default "docs"
}

// Client implements the GitHost interface against the GitHub REST API.
// Every network call goes through the retry layer.
type Client struct {
	repo       RepoConfig
	token      string
	baseURL    string
	httpClient *http.Client
	retry      RetryConfig
	logger     *slog.Logger
}

var _ repositories.GitHost = (*Client)(nil)

// NewClient creates a hosting client with default endpoint and retry policy.
func NewClient(repo RepoConfig, token string, logger *slog.Logger) *Client {
	return NewClientWithConfig(repo, token, DefaultBaseURL, DefaultTimeout, DefaultRetryConfig(), logger)
}

// NewClientWithConfig creates a hosting client with custom endpoint, timeout,
// and retry policy. Tests point baseURL at an httptest server.
func NewClientWithConfig(repo RepoConfig, token, baseURL string, timeout time.Duration, retry RetryConfig, logger *slog.Logger) *Client {
	return &Client{
		repo:    repo,
		token:   token,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retry:  retry,
		logger: logger,
	}
}

// apiError is one failed HTTP round trip, before classification by the retry
// layer. rateRemaining is -1 when the quota header was absent.
type apiError struct {
	status        int
	message       string
	rateRemaining int
	rateReset     time.Time
}

func (e *apiError) Error() string {
	return fmt.Sprintf("hosting API error (status %d): %s", e.status, e.message)
}

// do executes a single HTTP round trip. Non-2xx responses become *apiError
// carrying the rate-limit headers; transport failures are returned as-is so
// the retry layer treats them as transient.
func (c *Client) do(ctx context.Context, method, apiPath string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPath, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }() // Error ignored: response consumed

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return newAPIError(resp, data)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

func newAPIError(resp *http.Response, body []byte) *apiError {
	apiErr := &apiError{
		status:        resp.StatusCode,
		rateRemaining: -1,
	}

	var ghErr struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &ghErr); err == nil && ghErr.Message != "" {
		apiErr.message = ghErr.Message
	} else {
		apiErr.message = strings.TrimSpace(string(body))
	}

	if v := resp.Header.Get("X-RateLimit-Remaining"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			apiErr.rateRemaining = n
		}
	}
	if v := resp.Header.Get("X-RateLimit-Reset"); v != "" {
		if sec, err := strconv.ParseInt(v, 10, 64); err == nil {
			apiErr.rateReset = time.Unix(sec, 0)
		}
	}

	return apiErr
}

// repoPath builds an API path under the configured repository.
func (c *Client) repoPath(format string, args ...interface{}) string {
	return fmt.Sprintf("/repos/%s/%s", c.repo.Owner, c.repo.Name) + fmt.Sprintf(format, args...)
}

// contentPath prefixes a content-root-relative path with the content root.
func (c *Client) contentPath(p string) string {
	p = strings.TrimPrefix(p, "/")
	if c.repo.ContentRoot == "" {
		return p
	}
	return path.Join(c.repo.ContentRoot, p)
}

// escapePath URL-escapes each segment of a repository path, keeping slashes.
func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// asNotFound converts a 404 client error into a domain NotFoundError.
func asNotFound(err error, message string) error {
	var clientErr *domain.RemoteClientError
	if errors.As(err, &clientErr) && clientErr.Status == http.StatusNotFound {
		return &domain.NotFoundError{Message: message}
	}
	return err
}

type treeResponse struct {
	Tree []struct {
		Path string `json:"path"`
		Type string `json:"type"`
	} `json:"tree"`
	Truncated bool `json:"truncated"`
}

// ListTree returns all paths under the content root on the base branch, with
// the content root prefix stripped.
func (c *Client) ListTree(ctx context.Context) ([]models.TreeEntry, error) {
	apiPath := c.repoPath("/git/trees/%s?recursive=1", url.PathEscape(c.repo.BaseBranch))

	resp, err := WithRetry(ctx, c.retry, func(ctx context.Context) (*treeResponse, error) {
		var out treeResponse
		if err := c.do(ctx, http.MethodGet, apiPath, nil, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		return nil, asNotFound(err, fmt.Sprintf("branch '%s' not found", c.repo.BaseBranch))
	}

	if resp.Truncated {
		c.logger.Warn("tree listing truncated by hosting API", "branch", c.repo.BaseBranch)
	}

	prefix := ""
	if c.repo.ContentRoot != "" {
		prefix = c.repo.ContentRoot + "/"
	}

	entries := []models.TreeEntry{}
	for _, item := range resp.Tree {
		if prefix != "" && !strings.HasPrefix(item.Path, prefix) {
			continue
		}
		rel := strings.TrimPrefix(item.Path, prefix)
		switch item.Type {
		case "blob":
			entries = append(entries, models.TreeEntry{Path: rel, Type: models.TreeEntryFile})
		case "tree":
			entries = append(entries, models.TreeEntry{Path: rel, Type: models.TreeEntryDir})
		}
	}

	return entries, nil
}

type contentResponse struct {
	Type     string `json:"type"`
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
	SHA      string `json:"sha"`
}

// getContents fetches the contents API record for a full repository path.
// The caller decides how to treat a 404.
func (c *Client) getContents(ctx context.Context, fullPath, ref string) (*contentResponse, error) {
	apiPath := c.repoPath("/contents/%s", escapePath(fullPath))
	if ref != "" {
		apiPath += "?ref=" + url.QueryEscape(ref)
	}

	return WithRetry(ctx, c.retry, func(ctx context.Context) (*contentResponse, error) {
		var out contentResponse
		if err := c.do(ctx, http.MethodGet, apiPath, nil, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
}

func decodeContent(resp *contentResponse, fullPath string) ([]byte, error) {
	if resp.Type != "file" {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("'%s' is not a file", fullPath)}
	}
	// The contents API wraps base64 at 60 columns
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(resp.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("decode content of '%s': %w", fullPath, err)
	}
	return raw, nil
}

// ReadFile returns decoded text content of path at ref (base branch when ref
// is empty). Returns NotFoundError when the path is absent.
func (c *Client) ReadFile(ctx context.Context, p, ref string) (*models.FileContent, error) {
	if ref == "" {
		ref = c.repo.BaseBranch
	}
	fullPath := c.contentPath(p)

	resp, err := c.getContents(ctx, fullPath, ref)
	if err != nil {
		return nil, asNotFound(err, fmt.Sprintf("document '%s' not found at '%s'", p, ref))
	}

	raw, err := decodeContent(resp, fullPath)
	if err != nil {
		return nil, err
	}

	return &models.FileContent{
		Path:        p,
		Content:     string(raw),
		Fingerprint: resp.SHA,
		Ref:         ref,
	}, nil
}

// ReadBinary returns the raw bytes of path at ref without text decoding.
func (c *Client) ReadBinary(ctx context.Context, p, ref string) ([]byte, error) {
	if ref == "" {
		ref = c.repo.BaseBranch
	}
	fullPath := c.contentPath(p)

	resp, err := c.getContents(ctx, fullPath, ref)
	if err != nil {
		return nil, asNotFound(err, fmt.Sprintf("asset '%s' not found at '%s'", p, ref))
	}

	return decodeContent(resp, fullPath)
}

// CreateBranch creates a branch at the current head of the base branch and
// returns that head commit SHA. An already-existing ref surfaces as a
// RemoteClientError; it is not retried.
func (c *Client) CreateBranch(ctx context.Context, name string) (string, error) {
	refPath := c.repoPath("/git/ref/heads/%s", escapePath(c.repo.BaseBranch))

	head, err := WithRetry(ctx, c.retry, func(ctx context.Context) (string, error) {
		var out struct {
			Object struct {
				SHA string `json:"sha"`
			} `json:"object"`
		}
		if err := c.do(ctx, http.MethodGet, refPath, nil, &out); err != nil {
			return "", err
		}
		return out.Object.SHA, nil
	})
	if err != nil {
		return "", asNotFound(err, fmt.Sprintf("base branch '%s' not found", c.repo.BaseBranch))
	}

	createPath := c.repoPath("/git/refs")
	body := map[string]string{
		"ref": "refs/heads/" + name,
		"sha": head,
	}

	_, err = WithRetry(ctx, c.retry, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.do(ctx, http.MethodPost, createPath, body, nil)
	})
	if err != nil {
		return "", err
	}

	c.logger.Debug("branch created", "branch", name, "head", head)
	return head, nil
}

// DeleteBranch deletes a branch ref. A missing ref is success: the branch is
// already gone, which a prior partial failure may have caused.
func (c *Client) DeleteBranch(ctx context.Context, name string) error {
	apiPath := c.repoPath("/git/refs/heads/%s", escapePath(name))

	_, err := WithRetry(ctx, c.retry, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.do(ctx, http.MethodDelete, apiPath, nil, nil)
	})
	if err != nil {
		var clientErr *domain.RemoteClientError
		if errors.As(err, &clientErr) {
			if clientErr.Status == http.StatusNotFound {
				return nil
			}
			// GitHub answers 422 "Reference does not exist" for missing refs
			if clientErr.Status == http.StatusUnprocessableEntity &&
				strings.Contains(strings.ToLower(clientErr.Message), "does not exist") {
				return nil
			}
		}
		return err
	}

	return nil
}

// currentFingerprint returns the blob SHA of fullPath on branch, or empty
// when the file does not exist yet. Absence is not an error.
func (c *Client) currentFingerprint(ctx context.Context, branch, fullPath string) (string, error) {
	resp, err := c.getContents(ctx, fullPath, branch)
	if err != nil {
		var clientErr *domain.RemoteClientError
		if errors.As(err, &clientErr) && clientErr.Status == http.StatusNotFound {
			return "", nil
		}
		return "", err
	}
	return resp.SHA, nil
}

// putContents writes data to fullPath on branch through the contents API,
// applying the optimistic-concurrency check first. When expectedFingerprint
// is set and differs from the current blob SHA the write is aborted with
// ConflictError before any remote mutation.
func (c *Client) putContents(ctx context.Context, branch, fullPath string, data []byte, message, expectedFingerprint string) error {
	current, err := c.currentFingerprint(ctx, branch, fullPath)
	if err != nil {
		return err
	}

	if expectedFingerprint != "" && expectedFingerprint != current {
		return &domain.ConflictError{
			Message:  fmt.Sprintf("'%s' was modified by another writer", fullPath),
			Path:     fullPath,
			Expected: expectedFingerprint,
			Current:  current,
		}
	}

	body := map[string]string{
		"message": message,
		"content": base64.StdEncoding.EncodeToString(data),
		"branch":  branch,
	}
	if current != "" {
		// Updating an existing file requires its current blob SHA
		body["sha"] = current
	}

	apiPath := c.repoPath("/contents/%s", escapePath(fullPath))
	_, err = WithRetry(ctx, c.retry, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.do(ctx, http.MethodPut, apiPath, body, nil)
	})
	return err
}

// CommitFile writes text content to path on branch with conflict detection.
func (c *Client) CommitFile(ctx context.Context, branch, p, content, message, expectedFingerprint string) error {
	return c.putContents(ctx, branch, c.contentPath(p), []byte(content), message, expectedFingerprint)
}

// UploadBinary commits raw bytes to path. Empty branch means base branch.
// Writes are last-writer-wins: binary assets carry no caller fingerprint.
func (c *Client) UploadBinary(ctx context.Context, branch, p string, data []byte, message string) error {
	if branch == "" {
		branch = c.repo.BaseBranch
	}
	return c.putContents(ctx, branch, c.contentPath(p), data, message, "")
}

// OpenPullRequest opens a PR from branch into the base branch.
func (c *Client) OpenPullRequest(ctx context.Context, branch, title, body string) (int, error) {
	apiPath := c.repoPath("/pulls")
	payload := map[string]string{
		"title": title,
		"head":  branch,
		"base":  c.repo.BaseBranch,
		"body":  body,
	}

	return WithRetry(ctx, c.retry, func(ctx context.Context) (int, error) {
		var out struct {
			Number int `json:"number"`
		}
		if err := c.do(ctx, http.MethodPost, apiPath, payload, &out); err != nil {
			return 0, err
		}
		return out.Number, nil
	})
}

// MergePullRequest squash-merges the given PR. An already-merged PR surfaces
// as a typed client error; the caller decides whether that counts as done.
func (c *Client) MergePullRequest(ctx context.Context, prNumber int) error {
	apiPath := c.repoPath("/pulls/%d/merge", prNumber)
	payload := map[string]string{
		"merge_method": "squash",
	}

	_, err := WithRetry(ctx, c.retry, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.do(ctx, http.MethodPut, apiPath, payload, nil)
	})
	return err
}

// ListFileHistory returns the commit history touching path on the base
// branch, most recent first, capped at one page.
func (c *Client) ListFileHistory(ctx context.Context, p string) ([]models.FileRevision, error) {
	query := url.Values{}
	query.Set("path", c.contentPath(p))
	query.Set("sha", c.repo.BaseBranch)
	query.Set("per_page", strconv.Itoa(historyPageSize))
	apiPath := c.repoPath("/commits") + "?" + query.Encode()

	type commitItem struct {
		SHA    string `json:"sha"`
		Commit struct {
			Message string `json:"message"`
			Author  struct {
				Name string    `json:"name"`
				Date time.Time `json:"date"`
			} `json:"author"`
		} `json:"commit"`
	}

	items, err := WithRetry(ctx, c.retry, func(ctx context.Context) ([]commitItem, error) {
		var out []commitItem
		if err := c.do(ctx, http.MethodGet, apiPath, nil, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return nil, asNotFound(err, fmt.Sprintf("history for '%s' not found", p))
	}

	revisions := make([]models.FileRevision, 0, len(items))
	for _, item := range items {
		revisions = append(revisions, models.FileRevision{
			RevisionID: item.SHA,
			Message:    item.Commit.Message,
			Timestamp:  item.Commit.Author.Date,
			Author:     item.Commit.Author.Name,
		})
	}

	return revisions, nil
}

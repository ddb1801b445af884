package releaseapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/relmap/pkg/domain/interfaces"
	"github.com/m-mizutani/relmap/pkg/domain/model"
	"github.com/m-mizutani/relmap/pkg/domain/types"
)

// maxErrorBody caps the response body kept in error values
const maxErrorBody = 4096

type client struct {
	httpClient *http.Client
	hub        *sentry.Hub
}

// Option is a functional option for the release API client
type Option func(*client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(cl *client) {
		cl.httpClient = c
	}
}

// WithHub records a breadcrumb on hub for every request
func WithHub(hub *sentry.Hub) Option {
	return func(cl *client) {
		cl.hub = hub
	}
}

// NewClient creates a new release API client
func NewClient(opts ...Option) interfaces.ReleaseClient {
	c := &client{
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type createReleaseRequest struct {
	Version  string   `json:"version"`
	Projects []string `json:"projects"`
}

type updateReleaseRequest struct {
	DateReleased string `json:"dateReleased"`
}

// CreateRelease creates a release in the project
func (c *client) CreateRelease(ctx context.Context, target *model.ReleaseTarget) error {
	body, err := json.Marshal(&createReleaseRequest{
		Version:  target.Release,
		Projects: []string{target.Project},
	})
	if err != nil {
		return goerr.Wrap(err, "failed to marshal create release request")
	}

	endpoint := apiURL(target.URL, "organizations", target.Org, "releases") + "/"
	if err := c.do(ctx, target, http.MethodPost, endpoint, "application/json", bytes.NewReader(body)); err != nil {
		return goerr.Wrap(err, "failed to create release", goerr.V("release", target.Release))
	}
	return nil
}

// UploadReleaseFile uploads a single artifact to the release
func (c *client) UploadReleaseFile(ctx context.Context, target *model.ReleaseTarget, file *model.ReleaseFile) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("name", file.Name); err != nil {
		return goerr.Wrap(err, "failed to write name field")
	}
	if target.Dist != "" {
		if err := mw.WriteField("dist", target.Dist); err != nil {
			return goerr.Wrap(err, "failed to write dist field")
		}
	}

	fw, err := mw.CreateFormFile("file", baseName(file.Name))
	if err != nil {
		return goerr.Wrap(err, "failed to create file part")
	}
	if _, err := fw.Write(file.Content); err != nil {
		return goerr.Wrap(err, "failed to write file part")
	}
	if err := mw.Close(); err != nil {
		return goerr.Wrap(err, "failed to close multipart writer")
	}

	endpoint := apiURL(target.URL, "projects", target.Org, target.Project, "releases", target.Release, "files") + "/"
	if err := c.do(ctx, target, http.MethodPost, endpoint, mw.FormDataContentType(), &buf); err != nil {
		return goerr.Wrap(err, "failed to upload release file",
			goerr.V("release", target.Release),
			goerr.V("file", file.Name),
		)
	}
	return nil
}

// FinalizeRelease sets the released timestamp of the release
func (c *client) FinalizeRelease(ctx context.Context, target *model.ReleaseTarget, releasedAt time.Time) error {
	body, err := json.Marshal(&updateReleaseRequest{
		DateReleased: releasedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return goerr.Wrap(err, "failed to marshal update release request")
	}

	endpoint := apiURL(target.URL, "projects", target.Org, target.Project, "releases", target.Release) + "/"
	if err := c.do(ctx, target, http.MethodPut, endpoint, "application/json", bytes.NewReader(body)); err != nil {
		return goerr.Wrap(err, "failed to finalize release", goerr.V("release", target.Release))
	}
	return nil
}

// DeleteAllReleaseArtifacts removes every artifact of the release
func (c *client) DeleteAllReleaseArtifacts(ctx context.Context, target *model.ReleaseTarget) error {
	endpoint := apiURL(target.URL, "projects", target.Org, target.Project, "files", "source-maps") +
		"/?name=" + url.QueryEscape(target.Release)
	if err := c.do(ctx, target, http.MethodDelete, endpoint, "", nil); err != nil {
		return goerr.Wrap(err, "failed to delete release artifacts", goerr.V("release", target.Release))
	}
	return nil
}

func (c *client) do(ctx context.Context, target *model.ReleaseTarget, method, endpoint, contentType string, body io.Reader) error {
	logger := ctxlog.From(ctx)

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return goerr.Wrap(err, "failed to create request", goerr.V("url", endpoint))
	}

	for k, v := range target.Headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Authorization", "Bearer "+target.AuthToken)
	req.Header.Set("User-Agent", types.UserAgent())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	logger.Debug("Sending release API request", "method", method, "url", endpoint)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.breadcrumb(method, endpoint, 0)
		return goerr.Wrap(err, "failed to send request", goerr.V("method", method), goerr.V("url", endpoint))
	}
	defer resp.Body.Close()

	c.breadcrumb(method, endpoint, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return goerr.New("unexpected status code from release API",
			goerr.V("method", method),
			goerr.V("url", endpoint),
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(respBody)),
		)
	}

	// Drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *client) breadcrumb(method, endpoint string, status int) {
	if c.hub == nil {
		return
	}
	c.hub.AddBreadcrumb(&sentry.Breadcrumb{
		Type:     "http",
		Category: "release-api",
		Data: map[string]interface{}{
			"method":      method,
			"url":         endpoint,
			"status_code": status,
		},
	}, nil)
}

// apiURL joins base with /api/0/ and the escaped path segments
func apiURL(base string, segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + "/api/0/" + strings.Join(escaped, "/")
}

func baseName(name string) string {
	if i := strings.LastIndexAny(name, "/\\"); i >= 0 && i < len(name)-1 {
		return name[i+1:]
	}
	return name
}

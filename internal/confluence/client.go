// Package confluence implements the page adapter against the Confluence
// Cloud content REST API. It owns the translation between storage HTML
// and markdown, maps HTTP failures onto the shared error taxonomy, and
// retries rate-limited and transient failures with bounded backoff.
package confluence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shouhanzen/confluence-sync/internal/convert"
	"github.com/shouhanzen/confluence-sync/pkg/constants"
	"github.com/shouhanzen/confluence-sync/pkg/errors"
	"github.com/shouhanzen/confluence-sync/pkg/logging"
	"github.com/shouhanzen/confluence-sync/pkg/pages"
)

// versionMessage is attached to every page update.
const versionMessage = "Updated via confluence-sync"

// maxErrorBody bounds how much of an error response is kept in messages.
const maxErrorBody = 512

// Config holds the connection settings for a Confluence instance.
type Config struct {
	// BaseURL is the instance URL, e.g. https://example.atlassian.net/wiki.
	BaseURL string

	// Username enables basic authentication (email + API token). When
	// empty, APIToken is sent as a bearer personal access token.
	Username string

	// APIToken is the API token or PAT.
	APIToken string

	// Timeout bounds each HTTP request. Defaults to constants.DefaultHTTPTimeout.
	Timeout time.Duration

	// MaxRetries bounds retry attempts for rate-limited and transient
	// failures. Defaults to constants.MaxRetries.
	MaxRetries int

	// RetryBackoff is the base backoff between retries. Defaults to
	// constants.RetryBackoff.
	RetryBackoff time.Duration
}

// Client implements pages.Service against the content REST API.
type Client struct {
	cfg  Config
	http *http.Client
}

// Compile-time interface check to ensure proper implementation.
var _ pages.Service = (*Client)(nil)

// New creates a client for the configured instance.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.NewConfigError("confluence", "base URL is required", nil)
	}
	if cfg.APIToken == "" {
		return nil, errors.NewConfigError("confluence", "API token is required", nil)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DefaultHTTPTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = constants.MaxRetries
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = constants.RetryBackoff
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Fetch retrieves a page with its content converted to markdown.
func (c *Client) Fetch(ctx context.Context, id string) (*pages.Page, error) {
	endpoint := c.contentURL(id, url.Values{
		"expand": []string{"body.storage,version,ancestors,space"},
	})

	var payload contentPayload
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &payload); err != nil {
		return nil, err
	}

	var storage string
	if payload.Body != nil {
		storage = payload.Body.Storage.Value
	}
	markdown, err := convert.ToMarkdown(storage)
	if err != nil {
		return nil, errors.WrapConversion("storage-to-markdown", id, err)
	}

	page := &pages.Page{
		ID:       payload.ID,
		Title:    payload.Title,
		Version:  payload.version(),
		ParentID: payload.parentID(),
		Content:  markdown,
	}
	if payload.Space != nil {
		page.SpaceKey = payload.Space.Key
	}
	if err := page.Validate(); err != nil {
		return nil, err
	}
	return page, nil
}

// FetchVersion retrieves only the current version number of a page.
func (c *Client) FetchVersion(ctx context.Context, id string) (int, error) {
	endpoint := c.contentURL(id, url.Values{"expand": []string{"version"}})

	var payload contentPayload
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &payload); err != nil {
		return 0, err
	}
	if payload.Version == nil {
		return 0, errors.NewValidationError("version", nil, "response missing version")
	}
	return payload.Version.Number, nil
}

// List enumerates all pages in a space, following pagination until the
// service reports a short page.
func (c *Client) List(ctx context.Context, spaceKey string) ([]pages.Summary, error) {
	var summaries []pages.Summary

	start := 0
	for {
		endpoint := c.contentURL("", url.Values{
			"spaceKey": []string{spaceKey},
			"type":     []string{"page"},
			"expand":   []string{"version,ancestors"},
			"start":    []string{fmt.Sprintf("%d", start)},
			"limit":    []string{fmt.Sprintf("%d", constants.DefaultPageSize)},
		})

		var payload listPayload
		if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &payload); err != nil {
			return nil, err
		}

		for i := range payload.Results {
			result := &payload.Results[i]
			summary := pages.Summary{
				ID:       result.ID,
				Title:    result.Title,
				Version:  result.version(),
				ParentID: result.parentID(),
			}
			if err := summary.Validate(); err != nil {
				return nil, err
			}
			summaries = append(summaries, summary)
		}

		if len(payload.Results) < constants.DefaultPageSize {
			return summaries, nil
		}
		start += constants.DefaultPageSize
	}
}

// Create submits a new page under the given space and optional parent.
func (c *Client) Create(ctx context.Context, spaceKey, title, parentID, content string) (*pages.Page, error) {
	storage, err := convert.ToStorage(content)
	if err != nil {
		return nil, err
	}

	request := contentPayload{
		Type:  "page",
		Title: title,
		Space: &spacePayload{Key: spaceKey},
		Body: &bodyPayload{Storage: storagePayload{
			Value:          storage,
			Representation: "storage",
		}},
	}
	if parentID != "" {
		request.Ancestors = []ancestorPayload{{ID: parentID}}
	}

	var payload contentPayload
	if err := c.doJSON(ctx, http.MethodPost, c.contentURL("", nil), &request, &payload); err != nil {
		return nil, err
	}

	page := &pages.Page{
		ID:       payload.ID,
		Title:    payload.Title,
		Version:  payload.version(),
		ParentID: parentID,
		SpaceKey: spaceKey,
		Content:  content,
	}
	if err := page.Validate(); err != nil {
		return nil, err
	}
	return page, nil
}

// Update submits new content for a page. The service refuses the write
// with a conflict when expectedVersion is stale.
func (c *Client) Update(ctx context.Context, id, title, content string, expectedVersion int) (*pages.Page, error) {
	storage, err := convert.ToStorage(content)
	if err != nil {
		return nil, errors.WrapConversion("markdown-to-storage", id, err)
	}

	request := contentPayload{
		ID:    id,
		Type:  "page",
		Title: title,
		Version: &versionPayload{
			Number:  expectedVersion + 1,
			Message: versionMessage,
		},
		Body: &bodyPayload{Storage: storagePayload{
			Value:          storage,
			Representation: "storage",
		}},
	}

	var payload contentPayload
	if err := c.doJSON(ctx, http.MethodPut, c.contentURL(id, nil), &request, &payload); err != nil {
		return nil, err
	}
	if payload.Version == nil {
		return nil, errors.NewValidationError("version", nil, "update response missing version")
	}

	return &pages.Page{
		ID:      id,
		Title:   title,
		Version: payload.Version.Number,
		Content: content,
	}, nil
}

// contentURL builds a content endpoint URL, optionally targeting one page.
func (c *Client) contentURL(id string, query url.Values) string {
	endpoint := c.cfg.BaseURL + "/rest/api/content"
	if id != "" {
		endpoint += "/" + url.PathEscape(id)
	}
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	return endpoint
}

// doJSON performs a request with authentication and bounded retries, and
// decodes the JSON response into out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, method, endpoint string, in, out any) error {
	var body []byte
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return errors.WrapParse("json", endpoint, err)
		}
		body = encoded
	}

	backoff := c.cfg.RetryBackoff
	for attempt := 0; ; attempt++ {
		err := c.attempt(ctx, method, endpoint, body, out)
		if err == nil {
			return nil
		}
		if !errors.IsRetryable(err) || attempt >= c.cfg.MaxRetries {
			return err
		}

		logging.Ctx(ctx).Debug().
			Err(err).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Msg("Retrying request")

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", errors.ErrTimeout, ctx.Err())
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > constants.MaxRetryBackoff {
			backoff = constants.MaxRetryBackoff
		}
	}
}

// attempt performs a single HTTP round trip.
func (c *Client) attempt(ctx context.Context, method, endpoint string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return errors.WrapParse("url", endpoint, err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Username != "" {
		req.SetBasicAuth(c.cfg.Username, c.cfg.APIToken)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", errors.ErrTimeout, ctx.Err())
		}
		// Network-level failures are retryable.
		return fmt.Errorf("%w: %v", errors.ErrTransient, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrTransient, err)
	}

	if resp.StatusCode >= 300 {
		message := strings.TrimSpace(string(data))
		if len(message) > maxErrorBody {
			message = message[:maxErrorBody]
		}
		return &errors.APIError{
			StatusCode: resp.StatusCode,
			Endpoint:   endpoint,
			Message:    message,
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.WrapParse("json", endpoint, err)
	}
	return nil
}

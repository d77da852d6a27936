package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"fieldsync/internal/sentinel"
	dErrors "fieldsync/pkg/domain-errors"
)

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the retention CRM API using bearer auth.
type Client struct {
	baseURL string
	apiKey  string
	http    HTTPDoer
}

// ClientConfig configures a CRM API client.
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient HTTPDoer
}

// NewClient creates a CRM API client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	doer := cfg.HTTPClient
	if doer == nil {
		doer = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    doer,
	}
}

// ListContacts fetches one page of contacts. Offsets are 0-based.
func (c *Client) ListContacts(ctx context.Context, limit, offset int) (ContactPage, error) {
	q := url.Values{}
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("offset", fmt.Sprintf("%d", offset))

	var out ContactPage
	if err := c.do(ctx, http.MethodGet, "/contacts?"+q.Encode(), nil, &out); err != nil {
		return ContactPage{}, err
	}
	return out, nil
}

// GetContact fetches a single contact by ID.
func (c *Client) GetContact(ctx context.Context, id string) (*Contact, error) {
	var out Contact
	if err := c.do(ctx, http.MethodGet, "/contacts/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateContact creates a new contact and returns the stored record.
func (c *Client) CreateContact(ctx context.Context, payload ContactPayload) (*Contact, error) {
	var out Contact
	if err := c.do(ctx, http.MethodPost, "/contacts", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateContact updates an existing contact by ID and returns the stored record.
func (c *Client) UpdateContact(ctx context.Context, id string, payload ContactPayload) (*Contact, error) {
	var out Contact
	if err := c.do(ctx, http.MethodPut, "/contacts/"+url.PathEscape(id), payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to marshal crm request")
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "crm api request timed out")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "crm api request failed")
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return err
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to read crm api response")
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to decode crm api response")
		}
	}
	return nil
}

// classifyStatus maps HTTP status codes to sentinel-backed domain errors.
// Conflict and bad-request are distinct from transient failures so the sync
// service can treat a rejected write as "already exists / unacceptable"
// rather than an error.
func classifyStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusConflict:
		return dErrors.Wrap(sentinel.ErrConflict, dErrors.CodeConflict, "crm rejected duplicate contact")
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return dErrors.Wrap(sentinel.ErrBadRequest, dErrors.CodeBadRequest, "crm rejected contact payload")
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return dErrors.Wrap(sentinel.ErrUnauthorized, dErrors.CodeUnauthorized,
			fmt.Sprintf("crm authentication failed: %d", status))
	case status == http.StatusNotFound:
		return dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "contact not found")
	case status == http.StatusTooManyRequests:
		return dErrors.Wrap(sentinel.ErrRateLimited, dErrors.CodeUnavailable, "crm rate limit exceeded")
	default:
		return dErrors.Wrap(sentinel.ErrUnavailable, dErrors.CodeUnavailable,
			fmt.Sprintf("crm api returned %d", status))
	}
}

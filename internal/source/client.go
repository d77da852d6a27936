package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"fieldsync/internal/sentinel"
	dErrors "fieldsync/pkg/domain-errors"
)

// JobStatusCompleted marks a job whose work is finished. Only completed jobs
// count toward a customer's service history.
const JobStatusCompleted = "completed"

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the field-service management API using bearer auth.
type Client struct {
	baseURL string
	token   string
	http    HTTPDoer
}

// ClientConfig configures a source API client.
type ClientConfig struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	HTTPClient HTTPDoer
}

// NewClient creates a field-service API client.
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
		token:   cfg.Token,
		http:    doer,
	}
}

// ListCustomers fetches one page of customers. Pages are 1-based.
func (c *Client) ListCustomers(ctx context.Context, page, pageSize int) (CustomerPage, error) {
	q := url.Values{}
	q.Set("page", fmt.Sprintf("%d", page))
	q.Set("page_size", fmt.Sprintf("%d", pageSize))

	var out CustomerPage
	if err := c.get(ctx, "/customers?"+q.Encode(), &out); err != nil {
		return CustomerPage{}, err
	}
	return out, nil
}

// GetCustomer fetches a single customer by ID.
func (c *Client) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	var out Customer
	if err := c.get(ctx, "/customers/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListJobsForCustomer fetches all jobs for a customer.
func (c *Client) ListJobsForCustomer(ctx context.Context, customerID string) ([]Job, error) {
	var out struct {
		Records []Job `json:"records"`
	}
	if err := c.get(ctx, "/customers/"+url.PathEscape(customerID)+"/jobs", &out); err != nil {
		return nil, err
	}
	return out.Records, nil
}

// LastCompletedJob resolves the most recent completed-job timestamp for a
// customer. The second return is false when the customer has no completed
// jobs with a parsable completion time.
func (c *Client) LastCompletedJob(ctx context.Context, customerID string) (time.Time, bool, error) {
	jobs, err := c.ListJobsForCustomer(ctx, customerID)
	if err != nil {
		return time.Time{}, false, err
	}

	completed := make([]time.Time, 0, len(jobs))
	for _, j := range jobs {
		if j.Status != JobStatusCompleted || j.CompletedAt == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, j.CompletedAt)
		if err != nil {
			continue
		}
		completed = append(completed, ts)
	}
	if len(completed) == 0 {
		return time.Time{}, false, nil
	}
	sort.Slice(completed, func(i, k int) bool { return completed[i].After(completed[k]) })
	return completed[0], true, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "source api request timed out")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "source api request failed")
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to read source api response")
	}
	if err := json.Unmarshal(body, out); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to decode source api response")
	}
	return nil
}

// classifyStatus maps HTTP status codes to sentinel-backed domain errors.
func classifyStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return dErrors.Wrap(sentinel.ErrUnauthorized, dErrors.CodeUnauthorized,
			fmt.Sprintf("source api authentication failed: %d", status))
	case status == http.StatusNotFound:
		return dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "record not found")
	case status == http.StatusTooManyRequests:
		return dErrors.Wrap(sentinel.ErrRateLimited, dErrors.CodeUnavailable, "source api rate limit exceeded")
	default:
		return dErrors.Wrap(sentinel.ErrUnavailable, dErrors.CodeUnavailable,
			fmt.Sprintf("source api returned %d", status))
	}
}

package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/centrumkenaz/backend/internal/recon"
)

// HTTPClient talks to the platform's internal admin API over JSON with a
// bearer service token. Commit calls carry no client-side deadline: a stuck
// commit surfaces to the operator as an indefinite in-flight state rather than
// an ambiguous timeout on a financial mutation.
type HTTPClient struct {
	baseURL string
	token   string
	httpc   *http.Client
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		httpc:   &http.Client{},
	}
}

var _ Client = (*HTTPClient)(nil)

func (c *HTTPClient) ListTasks(ctx context.Context, kind recon.Kind) ([]*recon.Task, error) {
	var tasks []*recon.Task
	q := url.Values{"kind": {string(kind)}}
	if err := c.do(ctx, http.MethodGet, "/internal/v1/tasks?"+q.Encode(), nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *HTTPClient) ListBalances(ctx context.Context) ([]*BalanceEntry, error) {
	var entries []*BalanceEntry
	if err := c.do(ctx, http.MethodGet, "/internal/v1/balances", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *HTTPClient) CommitApproval(ctx context.Context, kind recon.Kind, taskID string) (*ServerResult, error) {
	body := map[string]string{"kind": string(kind)}
	var res ServerResult
	path := "/internal/v1/tasks/" + url.PathEscape(taskID) + "/approve"
	if err := c.do(ctx, http.MethodPost, path, body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) CommitRefundDecision(ctx context.Context, taskID string, d recon.Draft) (*recon.Task, error) {
	body := map[string]any{
		"decision":        d.Decision,
		"marked_settled":  d.MarkedSettled,
		"override_reason": d.OverrideReason,
	}
	var task recon.Task
	path := "/internal/v1/tasks/" + url.PathEscape(taskID) + "/refund-decision"
	if err := c.do(ctx, http.MethodPost, path, body, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *HTTPClient) CommitNotificationFlag(ctx context.Context, taskID string, value bool) (*recon.Task, error) {
	body := map[string]bool{"notify": value}
	var task recon.Task
	path := "/internal/v1/tasks/" + url.PathEscape(taskID) + "/notification-flag"
	if err := c.do(ctx, http.MethodPost, path, body, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *HTTPClient) SendDecisionNotice(ctx context.Context, n Notice) error {
	return c.do(ctx, http.MethodPost, "/internal/v1/notices", n, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s %s returned %d", ErrUpstream, method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: invalid JSON response: %v", ErrUpstream, err)
	}
	return nil
}

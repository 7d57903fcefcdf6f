// Package remote pushes service month data to the congregation reporting server.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrUnexpectedStatus is returned for any non-2xx response.
	ErrUnexpectedStatus = errors.New("remote: unexpected status")
	// ErrUnknownOp is returned for tasks Deliver cannot route.
	ErrUnknownOp = errors.New("remote: unknown operation")
)

// Client performs bearer authenticated JSON POSTs against the reporting server.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

// NewClient constructs a Client. Timeout bounds each request.
func NewClient(baseURL string, tokens TokenSource, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Deliver executes one task.
func (c *Client) Deliver(ctx context.Context, t Task) error {
	if strings.TrimSpace(t.CongregationID) == "" {
		return errors.New("remote: congregation id is required")
	}
	cong := url.PathEscape(t.CongregationID)
	switch t.Op {
	case OpPushPeriod:
		if t.Period == nil {
			return errors.New("remote: push without period payload")
		}
		return c.post(ctx, fmt.Sprintf("/congregations/%s/service-months/%s/reports", cong, url.PathEscape(t.Key)), t.Period)
	case OpDeletePeriod:
		return c.post(ctx, fmt.Sprintf("/congregations/%s/service-months/%s/delete", cong, url.PathEscape(t.Key)), map[string]string{"key": t.Key})
	case OpPushContacts:
		if t.Contacts == nil {
			return errors.New("remote: push without contacts payload")
		}
		return c.post(ctx, fmt.Sprintf("/congregations/%s/publishers", cong), t.Contacts)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, t.Op)
	}
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	if c.baseURL == "" {
		return errors.New("remote: base url is not configured")
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("remote: encode %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("remote: post %s: %w", path, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s returned %d", ErrUnexpectedStatus, path, resp.StatusCode)
	}
	return nil
}

package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	pkgerrors "github.com/warungdev/lokapos/pkg/errors"
)

// HTTPClient talks to a real sync backend over the same contract the mock
// implements. Any transport-level failure maps to NETWORK_ERROR so the drain
// loop halts instead of dropping entries.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient builds a client for the given base URL.
func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// Ping implements Client.
func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/sync/ping", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "pinging remote")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return pkgerrors.New(pkgerrors.CodeNetwork, fmt.Sprintf("remote ping returned %d", resp.StatusCode))
	}
	return nil
}

// Push implements Client.
func (c *HTTPClient) Push(ctx context.Context, pushReq PushRequest) (*PushResult, error) {
	body, err := json.Marshal(pushReq)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sync/push", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "pushing mutation")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.New(pkgerrors.CodeNetwork, fmt.Sprintf("remote push returned %d", resp.StatusCode))
	}

	var result PushResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "decoding push result")
	}
	return &result, nil
}

// Pull implements Client.
func (c *HTTPClient) Pull(ctx context.Context, since time.Time) (*PullResponse, error) {
	endpoint := c.baseURL + "/sync/pull?since=" + url.QueryEscape(since.UTC().Format(time.RFC3339Nano))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "pulling deltas")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.New(pkgerrors.CodeNetwork, fmt.Sprintf("remote pull returned %d", resp.StatusCode))
	}

	var pulled PullResponse
	if err := json.NewDecoder(resp.Body).Decode(&pulled); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "decoding pull response")
	}
	return &pulled, nil
}

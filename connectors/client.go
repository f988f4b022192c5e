// Package connectors integrates external business systems: the CRM for
// account lookups and the scheduling system for appointments.
//
// Each connector serves deterministic mock data when no endpoint is
// configured, so the full capability set works offline. Transport failures
// and non-2xx responses are raised as tool execution faults; the tool layer
// folds them into error-shaped results rather than failing the turn.
package connectors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/telistry/switchboard/core/fault"
)

// client is the HTTP plumbing shared by all connectors.
type client struct {
	base  string
	token string
	http  *http.Client
}

func newClient(ep Endpoint) *client {
	timeout := time.Duration(ep.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeoutSeconds * time.Second
	}

	var token string
	if ep.TokenEnv != "" {
		token = os.Getenv(ep.TokenEnv)
	}

	return &client{
		base:  strings.TrimRight(ep.BaseURL, "/"),
		token: token,
		http:  &http.Client{Timeout: timeout},
	}
}

func (c *client) getJSON(ctx context.Context, op, path string, query url.Values, out any) error {
	target := c.base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fault.NewToolExecution(op, err)
	}
	return c.do(op, req, out)
}

func (c *client) postJSON(ctx context.Context, op, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fault.NewToolExecution(op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return fault.NewToolExecution(op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(op, req, out)
}

func (c *client) do(op string, req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fault.NewToolExecution(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fault.NewToolExecution(op, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fault.NewToolExecution(op, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

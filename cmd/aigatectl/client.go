package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"aigate/internal/infra/telemetry"
)

type apiClient struct {
	baseURL string
	http    *http.Client
}

type apiErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newAPIClient(opts *cliOptions) *apiClient {
	timeout := opts.timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &apiClient{baseURL: opts.addr, http: &http.Client{Timeout: timeout}}
}

// do sends body as JSON and decodes a 2xx response into out. Non-2xx
// responses become exitErrors carrying the gateway's error code.
func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(telemetry.RequestIDHeader, telemetry.NewRequestID())

	resp, err := c.http.Do(req)
	if err != nil {
		return exitError{code: 3, message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiErrorBody
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Code != "" {
			return exitError{
				code:    exitCodeForStatus(resp.StatusCode),
				message: fmt.Sprintf("%s: %s", apiErr.Error.Code, apiErr.Error.Message),
			}
		}
		return exitError{code: exitCodeForStatus(resp.StatusCode), message: fmt.Sprintf("unexpected status %s", resp.Status)}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

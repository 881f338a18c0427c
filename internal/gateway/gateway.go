// Package gateway provides thin HTTP clients for the remote collaborators
// of the PRE process: the lead origination API, the viability service and
// the ANEEL tariff service. Every operation returns the decoded response
// on 2xx and a typed *RemoteError otherwise; fallback policy belongs to
// the caller.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds every collaborator call. A hung collaborator
// must not hang the orchestration indefinitely.
const DefaultTimeout = 10 * time.Second

// RemoteError reports a failed collaborator call: non-2xx status or a
// transport-level failure.
type RemoteError struct {
	Operation string
	URL       string
	Status    int // zero when the request never completed
	Err       error
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s returned status %d", e.Operation, e.URL, e.Status)
	}
	return fmt.Sprintf("%s: %s: %v", e.Operation, e.URL, e.Err)
}

// Unwrap returns the underlying transport error, if any.
func (e *RemoteError) Unwrap() error {
	return e.Err
}

// NewHTTPClient builds the pooled HTTP client shared by all gateways.
// Production wiring constructs it once at process start; tests pass
// their own.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// postJSON sends payload as JSON and decodes the 2xx response body into
// out (which may be nil when the body is irrelevant).
func postJSON(ctx context.Context, client *http.Client, operation, url string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &RemoteError{Operation: operation, URL: url, Err: fmt.Errorf("encode payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &RemoteError{Operation: operation, URL: url, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return &RemoteError{Operation: operation, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return &RemoteError{Operation: operation, URL: url, Status: resp.StatusCode}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RemoteError{Operation: operation, URL: url, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

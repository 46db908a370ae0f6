package capture

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Execution describes one test run registered with the Capture API.
type Execution struct {
	TestID            string            `json:"testID"`
	Browser           Browser           `json:"browser"`
	SoftwareUnderTest SoftwareUnderTest `json:"softwareUnderTest"`
	NodeAddress       string            `json:"nodeAddress"`
}

// Browser identifies the browser, usually from its user agent.
type Browser struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// SoftwareUnderTest identifies the system being tested.
type SoftwareUnderTest struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// HTTPTransport sends screenshots to a remote Capture API.
type HTTPTransport struct {
	baseURL     string
	client      *http.Client
	executionID string
}

// NewHTTPTransport creates a transport for the API rooted at baseURL.
// A nil client means http.DefaultClient.
func NewHTTPTransport(baseURL string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// ExecutionID returns the id assigned by CreateExecution.
func (t *HTTPTransport) ExecutionID() string {
	return t.executionID
}

// CreateExecution registers the run. It must be called before Send.
func (t *HTTPTransport) CreateExecution(ctx context.Context, e Execution) error {
	var resp struct {
		ExecutionID string `json:"executionID"`
	}
	if err := t.post(ctx, "/executions", e, &resp); err != nil {
		return fmt.Errorf("creating capture execution: %w", err)
	}
	if resp.ExecutionID == "" {
		return fmt.Errorf("creating capture execution: empty execution id")
	}
	t.executionID = resp.ExecutionID
	return nil
}

func (t *HTTPTransport) Send(ctx context.Context, s Screenshot) error {
	if t.executionID == "" {
		return fmt.Errorf("no capture execution, call CreateExecution first")
	}
	s.ExecutionID = t.executionID
	return t.post(ctx, "/screenshot", s, nil)
}

func (t *HTTPTransport) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("POST %s: %s: %s", path, resp.Status, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

package provider

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

	"github.com/orris-inc/keyhub/internal/infrastructure/metrics"
)

const (
	maxResponseSize    = 1 << 20
	errorBodySnippet   = 512
	defaultHTTPTimeout = 30 * time.Second
)

// apiClient is the JSON-over-HTTP transport of the panel clients, which have
// no vendor SDK.
type apiClient struct {
	provider   string
	baseURL    string
	httpClient *http.Client
	authorize  func(req *http.Request)
	metrics    *metrics.Metrics
}

func newAPIClient(providerName, baseURL string, httpClient *http.Client, m *metrics.Metrics, authorize func(*http.Request)) *apiClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &apiClient{
		provider:   providerName,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		authorize:  authorize,
		metrics:    m,
	}
}

// doJSON sends body as JSON and decodes a 2xx response into out. Transport
// errors and 5xx map to KindAPIUnreachable, everything else unexpected to
// KindInvalidProviderResponse.
func (c *apiClient) doJSON(ctx context.Context, op, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return InvalidResponse(c.provider, op, 0, fmt.Errorf("failed to encode request: %w", err))
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return InvalidResponse(c.provider, op, 0, fmt.Errorf("failed to create request: %w", err))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return c.send(req, op, out)
}

// doForm posts url-encoded form values and decodes the JSON response into out.
func (c *apiClient) doForm(ctx context.Context, op, path string, form url.Values, out interface{}) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, InvalidResponse(c.provider, op, 0, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.roundTrip(req, op)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := c.decode(resp, op, out); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *apiClient) send(req *http.Request, op string, out interface{}) error {
	resp, err := c.roundTrip(req, op)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.decode(resp, op, out)
}

func (c *apiClient) roundTrip(req *http.Request, op string) (*http.Response, error) {
	if c.authorize != nil {
		c.authorize(req)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ObserveProviderRequest(c.provider, op, time.Since(start))
	if err != nil {
		return nil, c.record(Unreachable(c.provider, op, err))
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		snippet := readSnippet(resp.Body)
		resp.Body.Close()
		return nil, c.record(newError(KindAPIUnreachable, c.provider, op, resp.StatusCode, fmt.Errorf("server error: %s", snippet)))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := readSnippet(resp.Body)
		resp.Body.Close()
		return nil, c.record(InvalidResponse(c.provider, op, resp.StatusCode, fmt.Errorf("unexpected status: %s", snippet)))
	}
	return resp, nil
}

func (c *apiClient) decode(resp *http.Response, op string, out interface{}) error {
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(out); err != nil {
		return c.record(InvalidResponse(c.provider, op, resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)))
	}
	return nil
}

func (c *apiClient) record(err *ProvisioningError) *ProvisioningError {
	return recordFailure(c.metrics, err)
}

func recordFailure(m *metrics.Metrics, err *ProvisioningError) *ProvisioningError {
	// 404 is an expected answer on idempotent deletes; callers decide.
	if err.StatusCode != http.StatusNotFound {
		m.ProvisioningError(string(err.Kind), err.Provider)
	}
	return err
}

func readSnippet(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, errorBodySnippet))
	return strings.TrimSpace(string(raw))
}

func invalidf(providerName, op, format string, args ...interface{}) *ProvisioningError {
	return InvalidResponse(providerName, op, 0, fmt.Errorf(format, args...))
}

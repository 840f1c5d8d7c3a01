package looker

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	apiVersion     = "4.0"
	defaultTimeout = 300 * time.Second
	defaultTTL     = 3600 * time.Second
)

// APIClient is the wire-level Looker API surface. Session depends on
// this interface so tests can substitute a fake.
type APIClient interface {
	// Login exchanges API credentials for an access token and its TTL.
	Login(ctx context.Context, clientID, clientSecret string) (string, time.Duration, error)

	// RunInlineQuery executes a query and returns the raw response body
	// in the requested format ("json", "csv", "txt").
	RunInlineQuery(ctx context.Context, token string, query Query, format string) ([]byte, error)

	// Logout invalidates an access token server-side.
	Logout(ctx context.Context, token string) error
}

// ClientConfig holds Looker API client configuration
type ClientConfig struct {
	// BaseURL is the Looker instance URL, e.g. "https://company.looker.com"
	BaseURL string

	// Timeout for API requests (default: 300s, queries can be slow)
	Timeout time.Duration

	// CACert is path to custom CA certificate for self-hosted instances
	CACert string

	// InsecureSkipVerify disables TLS verification (use with caution)
	InsecureSkipVerify bool
}

// httpAPIClient implements APIClient over HTTP
type httpAPIClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewAPIClient creates an HTTP client for the Looker API
func NewAPIClient(cfg ClientConfig) (APIClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("looker base URL is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{},
	}

	if cfg.CACert != "" {
		caCert, err := os.ReadFile(cfg.CACert)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}

		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA certificate")
		}

		transport.TLSClientConfig.RootCAs = caCertPool
	}

	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig.InsecureSkipVerify = true
	}

	return &httpAPIClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}, nil
}

// Login authenticates with the Looker API using client credentials.
// Looker expects the credentials form-encoded, not as JSON.
func (c *httpAPIClient) Login(ctx context.Context, clientID, clientSecret string) (string, time.Duration, error) {
	endpoint := fmt.Sprintf("%s/api/%s/login", c.baseURL, apiVersion)

	form := url.Values{}
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create login request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("%w: login request failed: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", 0, &AuthError{
			Op:         "login",
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(bodyBytes)),
		}
	}

	var authResp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		return "", 0, fmt.Errorf("failed to decode login response: %w", err)
	}

	if authResp.AccessToken == "" {
		return "", 0, &AuthError{
			Op:      "login",
			Message: "login response contained no access token",
		}
	}

	ttl := time.Duration(authResp.ExpiresIn) * time.Second
	if ttl == 0 {
		ttl = defaultTTL
	}

	return authResp.AccessToken, ttl, nil
}

// RunInlineQuery executes a query via the run_inline_query endpoint
func (c *httpAPIClient) RunInlineQuery(ctx context.Context, token string, query Query, format string) ([]byte, error) {
	if format == "" {
		format = "json"
	}
	endpoint := fmt.Sprintf("%s/api/%s/queries/run/%s", c.baseURL, apiVersion, format)

	jsonBody, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create query request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: query request failed: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read query response: %v", ErrTransport, err)
	}

	if isAuthStatus(resp.StatusCode) {
		return nil, &AuthError{
			Op:         "query",
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &QueryError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	return body, nil
}

// Logout invalidates the access token
func (c *httpAPIClient) Logout(ctx context.Context, token string) error {
	endpoint := fmt.Sprintf("%s/api/%s/logout", c.baseURL, apiVersion)

	req, err := http.NewRequestWithContext(ctx, "DELETE", endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create logout request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: logout request failed: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	// 204 on success; an already-invalid token is not worth reporting
	if resp.StatusCode >= 500 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return &QueryError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(bodyBytes)),
		}
	}

	return nil
}

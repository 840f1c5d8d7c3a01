package looker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/subhub-ai/infra/internal/logging"
	"github.com/subhub-ai/infra/pkg/metrics"
	"github.com/subhub-ai/infra/internal/secure"
)

// Credentials holds Looker API3 credentials. The client secret lives in
// a locked enclave and is only opened for the duration of a login call.
type Credentials struct {
	ClientID     string
	ClientSecret *secure.SecureBuffer

	// BaseURL is the API endpoint when it is itself stored as a
	// secret. Empty when the deployment configures it statically.
	BaseURL string
}

// NewCredentials wraps plaintext credentials in an enclave
func NewCredentials(clientID, clientSecret string) Credentials {
	return Credentials{
		ClientID:     clientID,
		ClientSecret: secure.NewSecureString(clientSecret),
	}
}

// Query describes an inline Looker query
type Query struct {
	Model   string            `json:"model"`
	View    string            `json:"view"`
	Fields  []string          `json:"fields,omitempty"`
	Filters map[string]string `json:"filters,omitempty"`
	Sorts   []string          `json:"sorts,omitempty"`
	Limit   string            `json:"limit,omitempty"`
}

// QueryResult holds a query response. Rows is populated for the "json"
// format; other formats only carry Raw.
type QueryResult struct {
	Raw    []byte
	Rows   []map[string]interface{}
	Format string
}

// SessionConfig holds session behavior knobs
type SessionConfig struct {
	// ExpiryBuffer is subtracted from every token TTL so refreshes
	// happen before the server-side expiry (default: 60s).
	ExpiryBuffer time.Duration
}

const defaultExpiryBuffer = 60 * time.Second

// Session is an authenticated Looker API session. It caches the access
// token, refreshes it when expired, and retries a rejected request
// exactly once after re-authenticating. Safe for concurrent use.
type Session struct {
	client  APIClient
	creds   Credentials
	cache   *tokenCache
	logger  *logging.Logger
	metrics *metrics.InfraMetrics

	// authMu serializes logins so concurrent callers with an expired
	// token trigger a single Authenticate, not one each.
	authMu sync.Mutex

	mu     sync.Mutex
	closed bool
}

// SessionOption is a functional option for configuring sessions
type SessionOption func(*Session)

// WithLogger sets a custom logger
func WithLogger(logger *logging.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(m *metrics.InfraMetrics) SessionOption {
	return func(s *Session) {
		s.metrics = m
	}
}

// NewSession creates a session over an API client. No network calls are
// made until Authenticate or ExecuteQuery.
func NewSession(client APIClient, creds Credentials, cfg SessionConfig, opts ...SessionOption) *Session {
	buffer := cfg.ExpiryBuffer
	if buffer <= 0 {
		buffer = defaultExpiryBuffer
	}

	s := &Session{
		client:  client,
		creds:   creds,
		cache:   newTokenCache(buffer),
		logger:  logging.New(false, false),
		metrics: metrics.NewInfraMetrics(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Authenticate logs in to the Looker API and caches the access token,
// replacing any cached token. Most callers never need this directly;
// ExecuteQuery authenticates on demand.
func (s *Session) Authenticate(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	s.authMu.Lock()
	defer s.authMu.Unlock()

	return s.login(ctx)
}

// login performs the credential exchange. Callers must hold authMu.
func (s *Session) login(ctx context.Context) error {
	secret, err := s.creds.ClientSecret.OpenString()
	if err != nil {
		return &AuthError{Op: "login", Message: "client secret unavailable", Err: err}
	}

	token, ttl, err := s.client.Login(ctx, s.creds.ClientID, secret)
	if err != nil {
		s.metrics.RecordLogin("error")
		return err
	}
	s.metrics.RecordLogin("success")

	s.logger.Debug("Looker login succeeded, token TTL %s", ttl)
	s.cache.Set(token, ttl)
	return nil
}

// token returns a valid access token, authenticating if the cached one
// is missing or expired. Concurrent callers share a single login.
func (s *Session) token(ctx context.Context) (string, error) {
	if token, ok := s.cache.Get(); ok {
		return token, nil
	}

	s.authMu.Lock()
	defer s.authMu.Unlock()

	// Another caller may have refreshed while we waited for the lock
	if token, ok := s.cache.Get(); ok {
		return token, nil
	}

	if err := s.login(ctx); err != nil {
		return "", err
	}

	token, ok := s.cache.Get()
	if !ok {
		return "", &AuthError{Op: "login", Message: "token expired immediately after login"}
	}
	return token, nil
}

// ExecuteQuery runs an inline query. If the server rejects the token,
// the session re-authenticates and resends the request once; a second
// rejection is returned as an authentication error without further
// attempts. Non-auth failures are returned without re-authenticating.
func (s *Session) ExecuteQuery(ctx context.Context, query Query, format string) (*QueryResult, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if format == "" {
		format = "json"
	}

	token, err := s.token(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	body, err := s.client.RunInlineQuery(ctx, token, query, format)
	if err != nil {
		if !IsAuthError(err) {
			s.metrics.RecordLookerQuery("error", time.Since(start).Seconds())
			return nil, err
		}

		// Token rejected server-side. Discard it, log in again, and
		// resend exactly once.
		s.logger.Debug("Looker rejected access token, re-authenticating")
		s.metrics.RecordAuthRetry()
		s.cache.ClearIf(token)

		token, err = s.token(ctx)
		if err != nil {
			return nil, err
		}

		body, err = s.client.RunInlineQuery(ctx, token, query, format)
		if err != nil {
			s.metrics.RecordLookerQuery("error", time.Since(start).Seconds())
			return nil, err
		}
	}
	s.metrics.RecordLookerQuery("success", time.Since(start).Seconds())

	result := &QueryResult{Raw: body, Format: format}
	if format == "json" {
		if err := json.Unmarshal(body, &result.Rows); err != nil {
			return nil, &QueryError{
				Message: fmt.Sprintf("malformed query response: %v", err),
				Err:     err,
			}
		}
	}

	return result, nil
}

// TokenTTL reports the remaining lifetime of the cached token.
// Returns 0 if no valid token is cached.
func (s *Session) TokenTTL() time.Duration {
	return s.cache.TTL()
}

// Close logs out server-side if a token is cached, clears it, and
// destroys the credential enclave. The session cannot be reused.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	var logoutErr error
	if token, ok := s.cache.Get(); ok {
		logoutErr = s.client.Logout(ctx, token)
	}
	s.cache.Clear()

	if s.creds.ClientSecret != nil {
		s.creds.ClientSecret.Destroy()
	}

	return logoutErr
}

func (s *Session) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	return nil
}

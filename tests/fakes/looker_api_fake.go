package fakes

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/subhub-ai/infra/internal/looker"
)

// FakeLookerClient is a mock Looker API client. It issues sequential
// tokens and rejects queries made with tokens it no longer considers
// valid, mimicking server-side token expiry.
type FakeLookerClient struct {
	mu          sync.Mutex
	loginCalls  int
	queryCalls  int
	logoutCalls int
	tokenSeq    int
	valid       map[string]bool

	// TTL reported for every issued token (default: 1 hour)
	TTL time.Duration
	// LoginDelay simulates a slow credential exchange
	LoginDelay time.Duration
	// LoginErr is returned from Login when set
	LoginErr error
	// QueryErr is returned from every RunInlineQuery when set
	QueryErr error
	// RejectAllQueries makes every query fail with a 401, even with a
	// freshly issued token
	RejectAllQueries bool
	// Response is the body returned for successful queries
	Response []byte

	// LastClientID and LastClientSecret record the latest login payload
	LastClientID     string
	LastClientSecret string
}

// NewFakeLookerClient creates a fake client with a JSON row response
func NewFakeLookerClient() *FakeLookerClient {
	return &FakeLookerClient{
		valid:    make(map[string]bool),
		TTL:      time.Hour,
		Response: []byte(`[{"orders.id": 1, "orders.total": 42.5}]`),
	}
}

// Login issues a new sequential token
func (f *FakeLookerClient) Login(ctx context.Context, clientID, clientSecret string) (string, time.Duration, error) {
	f.mu.Lock()
	delay := f.LoginDelay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", 0, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.loginCalls++
	f.LastClientID = clientID
	f.LastClientSecret = clientSecret

	if f.LoginErr != nil {
		return "", 0, f.LoginErr
	}

	f.tokenSeq++
	token := fmt.Sprintf("tok-%d", f.tokenSeq)
	f.valid[token] = true
	return token, f.TTL, nil
}

// RunInlineQuery returns the configured response if the token is valid
func (f *FakeLookerClient) RunInlineQuery(ctx context.Context, token string, query looker.Query, format string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.queryCalls++

	if f.QueryErr != nil {
		return nil, f.QueryErr
	}

	if f.RejectAllQueries || !f.valid[token] {
		return nil, &looker.AuthError{
			Op:         "query",
			StatusCode: 401,
			Message:    "Requires authentication.",
		}
	}

	return f.Response, nil
}

// Logout invalidates the token
func (f *FakeLookerClient) Logout(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.logoutCalls++
	delete(f.valid, token)
	return nil
}

// InvalidateTokens revokes every issued token, simulating server-side
// expiry while the session still holds a cached token.
func (f *FakeLookerClient) InvalidateTokens() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.valid = make(map[string]bool)
}

// LoginCalls reports how many times Login was called
func (f *FakeLookerClient) LoginCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginCalls
}

// QueryCalls reports how many times RunInlineQuery was called
func (f *FakeLookerClient) QueryCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queryCalls
}

// LogoutCalls reports how many times Logout was called
func (f *FakeLookerClient) LogoutCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logoutCalls
}

package secrets

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/subhub-ai/infra/pkg/secrets"
)

// StaticProvider serves values defined directly in configuration. It exists
// for local development and testing the resolution pipeline without hitting
// a cloud secret store. Values of the form "env:NAME" are read from the
// environment at resolve time.
type StaticProvider struct {
	name   string
	mu     sync.RWMutex
	values map[string]string
}

// NewStaticProvider creates a static provider from a config map. The
// "values" key holds the secret material.
func NewStaticProvider(name string, configMap map[string]interface{}) (*StaticProvider, error) {
	values := make(map[string]string)
	if raw, ok := configMap["values"].(map[string]interface{}); ok {
		for k, v := range raw {
			if s, ok := v.(string); ok {
				values[k] = s
			}
		}
	}

	return &StaticProvider{
		name:   name,
		values: values,
	}, nil
}

// Name returns the provider's name
func (s *StaticProvider) Name() string {
	return s.name
}

// Resolve retrieves a static value
func (s *StaticProvider) Resolve(ctx context.Context, ref secrets.Reference) (secrets.SecretValue, error) {
	s.mu.RLock()
	value, exists := s.values[ref.Key]
	s.mu.RUnlock()

	if !exists {
		return secrets.SecretValue{}, secrets.NotFoundError{
			Provider: s.name,
			Key:      ref.Key,
		}
	}

	if envName, ok := strings.CutPrefix(value, "env:"); ok {
		envValue, set := os.LookupEnv(envName)
		if !set {
			return secrets.SecretValue{}, secrets.NotFoundError{
				Provider: s.name,
				Key:      ref.Key,
			}
		}
		value = envValue
	}

	if ref.Field != "" {
		extracted, err := extractJSONField(value, ref.Field)
		if err != nil {
			return secrets.SecretValue{}, err
		}
		value = extracted
	}

	return secrets.SecretValue{
		Value:     value,
		Version:   "1",
		UpdatedAt: time.Now(),
		Metadata: map[string]string{
			"provider": s.name,
			"type":     "static",
		},
	}, nil
}

// Describe returns metadata about a static value
func (s *StaticProvider) Describe(ctx context.Context, ref secrets.Reference) (secrets.Metadata, error) {
	s.mu.RLock()
	value, exists := s.values[ref.Key]
	s.mu.RUnlock()

	if !exists {
		return secrets.Metadata{Exists: false}, nil
	}

	return secrets.Metadata{
		Exists:    true,
		Version:   "1",
		UpdatedAt: time.Now(),
		Size:      len(value),
		Type:      "string",
		Tags: map[string]string{
			"provider": s.name,
			"type":     "static",
		},
	}, nil
}

// Capabilities returns the provider's capabilities
func (s *StaticProvider) Capabilities() secrets.Capabilities {
	return secrets.Capabilities{
		SupportsVersioning: false,
		SupportsMetadata:   true,
		SupportsBinary:     false,
		RequiresAuth:       false,
		AuthMethods:        []string{},
	}
}

// Validate checks if the provider is properly configured
func (s *StaticProvider) Validate(ctx context.Context) error {
	return nil // static values need no connectivity
}

// SetValue sets a static value (useful for testing)
func (s *StaticProvider) SetValue(key, value string) {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
}

// NewStaticProviderFactory creates a static provider factory
func NewStaticProviderFactory(name string, config map[string]interface{}) (secrets.Provider, error) {
	return NewStaticProvider(name, config)
}

// MockProvider simulates an external secret store for tests, including
// injected failures and network delay.
type MockProvider struct {
	name        string
	mu          sync.Mutex
	values      map[string]string
	failures    map[string]error
	validateErr error
	delay       time.Duration
	resolves    int
}

// NewMockProvider creates a new mock provider for testing
func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		name:     name,
		values:   make(map[string]string),
		failures: make(map[string]error),
	}
}

// Name returns the provider's name
func (m *MockProvider) Name() string {
	return m.name
}

// Resolve retrieves a mock value, potentially with simulated failures or delays
func (m *MockProvider) Resolve(ctx context.Context, ref secrets.Reference) (secrets.SecretValue, error) {
	m.mu.Lock()
	delay := m.delay
	err, failed := m.failures[ref.Key]
	value, exists := m.values[ref.Key]
	m.resolves++
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return secrets.SecretValue{}, ctx.Err()
		}
	}

	if failed {
		return secrets.SecretValue{}, err
	}

	if !exists {
		return secrets.SecretValue{}, secrets.NotFoundError{
			Provider: m.name,
			Key:      ref.Key,
		}
	}

	return secrets.SecretValue{
		Value:     value,
		Version:   "mock-v1",
		UpdatedAt: time.Now(),
		Metadata: map[string]string{
			"provider": m.name,
			"type":     "mock",
		},
	}, nil
}

// Describe returns metadata about a mock value
func (m *MockProvider) Describe(ctx context.Context, ref secrets.Reference) (secrets.Metadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, failed := m.failures[ref.Key]; failed {
		return secrets.Metadata{}, err
	}

	value, exists := m.values[ref.Key]
	return secrets.Metadata{
		Exists:    exists,
		Version:   "mock-v1",
		UpdatedAt: time.Now(),
		Size:      len(value),
		Type:      "string",
		Tags: map[string]string{
			"provider": m.name,
			"type":     "mock",
		},
	}, nil
}

// Capabilities returns the provider's capabilities
func (m *MockProvider) Capabilities() secrets.Capabilities {
	return secrets.Capabilities{
		SupportsVersioning: true,
		SupportsMetadata:   true,
		SupportsBinary:     false,
		RequiresAuth:       false,
		AuthMethods:        []string{},
	}
}

// Validate checks if the provider is properly configured
func (m *MockProvider) Validate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.validateErr
}

// SetValue sets a mock value
func (m *MockProvider) SetValue(key, value string) {
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
}

// SetFailure simulates a failure for a specific key
func (m *MockProvider) SetFailure(key string, err error) {
	m.mu.Lock()
	m.failures[key] = err
	m.mu.Unlock()
}

// SetValidateError simulates an unreachable or misconfigured store
func (m *MockProvider) SetValidateError(err error) {
	m.mu.Lock()
	m.validateErr = err
	m.mu.Unlock()
}

// SetDelay sets a simulated network delay
func (m *MockProvider) SetDelay(delay time.Duration) {
	m.mu.Lock()
	m.delay = delay
	m.mu.Unlock()
}

// ResolveCount reports how many times Resolve has been called
func (m *MockProvider) ResolveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolves
}

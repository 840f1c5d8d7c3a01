package secrets

import (
	"fmt"
	"sort"
	"strings"

	inferrors "github.com/subhub-ai/infra/internal/errors"
	"github.com/subhub-ai/infra/pkg/secrets"
)

// Registry manages secret store creation and registration
type Registry struct {
	factories map[string]ProviderFactory
}

// ProviderFactory creates a provider instance from configuration
type ProviderFactory func(name string, config map[string]interface{}) (secrets.Provider, error)

// NewRegistry creates a new provider registry with built-in providers
func NewRegistry() *Registry {
	registry := &Registry{
		factories: make(map[string]ProviderFactory),
	}

	registry.RegisterFactory("azure.keyvault", NewAzureKeyVaultProviderFactory)
	registry.RegisterFactory("aws.secretsmanager", NewAWSSecretsManagerProviderFactory)
	registry.RegisterFactory("gcp.secretmanager", NewGCPSecretManagerProviderFactory)
	registry.RegisterFactory("static", NewStaticProviderFactory)
	registry.RegisterFactory("mock", NewMockProviderFactory)

	return registry
}

// RegisterFactory registers a provider factory for a given type
func (r *Registry) RegisterFactory(providerType string, factory ProviderFactory) {
	r.factories[providerType] = factory
}

// CreateProvider creates a provider instance for a store type and config
func (r *Registry) CreateProvider(name, storeType string, config map[string]interface{}) (secrets.Provider, error) {
	factory, exists := r.factories[storeType]
	if !exists {
		return nil, inferrors.UserError{
			Message:    fmt.Sprintf("unknown secret store type: %s", storeType),
			Suggestion: fmt.Sprintf("Use one of: %s", strings.Join(r.SupportedTypes(), ", ")),
		}
	}

	return factory(name, config)
}

// SupportedTypes returns a sorted list of supported store types
func (r *Registry) SupportedTypes() []string {
	types := make([]string, 0, len(r.factories))
	for providerType := range r.factories {
		types = append(types, providerType)
	}
	sort.Strings(types)
	return types
}

// IsSupported checks if a store type is supported
func (r *Registry) IsSupported(providerType string) bool {
	_, exists := r.factories[providerType]
	return exists
}

// NewMockProviderFactory creates a mock provider factory
func NewMockProviderFactory(name string, config map[string]interface{}) (secrets.Provider, error) {
	mock := NewMockProvider(name)

	if values, ok := config["values"].(map[string]interface{}); ok {
		for k, v := range values {
			if str, ok := v.(string); ok {
				mock.SetValue(k, str)
			}
		}
	}

	return mock, nil
}

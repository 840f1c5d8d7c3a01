package secrets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/impersonate"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	inferrors "github.com/subhub-ai/infra/internal/errors"
	"github.com/subhub-ai/infra/internal/logging"
	"github.com/subhub-ai/infra/pkg/secrets"
)

// GCPSecretManagerClientAPI defines the interface for GCP Secret Manager
// operations. This allows for mocking in tests.
type GCPSecretManagerClientAPI interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	GetSecret(ctx context.Context, req *secretmanagerpb.GetSecretRequest, opts ...gax.CallOption) (*secretmanagerpb.Secret, error)
}

// GCPSecretManagerProvider implements secrets.Provider for Google Cloud Secret Manager
type GCPSecretManagerProvider struct {
	name      string
	client    GCPSecretManagerClientAPI
	realClient *secretmanager.Client
	logger    *logging.Logger
	config    GCPSecretManagerConfig
	projectID string
}

// GCPSecretManagerConfig holds GCP Secret Manager-specific configuration
type GCPSecretManagerConfig struct {
	ProjectID             string
	ServiceAccountKeyPath string
	ImpersonateAccount    string
}

// GCPProviderOption is a functional option for configuring GCP providers
type GCPProviderOption func(*GCPSecretManagerProvider)

// WithGCPSecretManagerClient sets a custom Secret Manager client (for testing)
func WithGCPSecretManagerClient(client GCPSecretManagerClientAPI) GCPProviderOption {
	return func(p *GCPSecretManagerProvider) {
		p.client = client
	}
}

// NewGCPSecretManagerProvider creates a new GCP Secret Manager provider
func NewGCPSecretManagerProvider(name string, configMap map[string]interface{}, opts ...GCPProviderOption) (*GCPSecretManagerProvider, error) {
	logger := logging.New(false, false)

	config := GCPSecretManagerConfig{}

	if projectID, ok := configMap["project_id"].(string); ok {
		config.ProjectID = projectID
	}
	if keyPath, ok := configMap["service_account_key_path"].(string); ok {
		config.ServiceAccountKeyPath = keyPath
	}
	if account, ok := configMap["impersonate_service_account"].(string); ok {
		config.ImpersonateAccount = account
	}

	if config.ProjectID == "" {
		if projectID := os.Getenv("GOOGLE_CLOUD_PROJECT"); projectID != "" {
			config.ProjectID = projectID
		} else {
			return nil, inferrors.ConfigError{
				Field:      "project_id",
				Message:    "project_id is required for GCP Secret Manager",
				Suggestion: "Set project_id in config or GOOGLE_CLOUD_PROJECT environment variable",
			}
		}
	}

	p := &GCPSecretManagerProvider{
		name:      name,
		logger:    logger,
		config:    config,
		projectID: config.ProjectID,
	}

	// Apply options (allows mock client injection)
	for _, opt := range opts {
		opt(p)
	}

	if p.client == nil {
		client, err := createGCPSecretManagerClient(config)
		if err != nil {
			return nil, fmt.Errorf("failed to create GCP Secret Manager client: %w", err)
		}
		p.client = client
		p.realClient = client
	}

	return p, nil
}

// createGCPSecretManagerClient creates a GCP Secret Manager client
func createGCPSecretManagerClient(config GCPSecretManagerConfig) (*secretmanager.Client, error) {
	ctx := context.Background()

	var clientOptions []option.ClientOption

	if config.ServiceAccountKeyPath != "" {
		keyPath := config.ServiceAccountKeyPath
		if strings.HasPrefix(keyPath, "~/") {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get home directory: %w", err)
			}
			keyPath = filepath.Join(home, keyPath[2:])
		}
		clientOptions = append(clientOptions, option.WithCredentialsFile(keyPath))
	}

	if config.ImpersonateAccount != "" {
		ts, err := impersonate.CredentialsTokenSource(ctx, impersonate.CredentialsConfig{
			TargetPrincipal: config.ImpersonateAccount,
			Scopes:          []string{"https://www.googleapis.com/auth/cloud-platform"},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to impersonate service account: %w", err)
		}
		clientOptions = append(clientOptions, option.WithTokenSource(ts))
	}

	return secretmanager.NewClient(ctx, clientOptions...)
}

// Name returns the provider name
func (p *GCPSecretManagerProvider) Name() string {
	return p.name
}

// resourceName builds the full resource name for a secret version.
// Keys may be plaintext secret IDs or full "projects/.../secrets/..." names.
func (p *GCPSecretManagerProvider) resourceName(key, version string) string {
	if version == "" {
		version = "latest"
	}
	if strings.HasPrefix(key, "projects/") {
		if strings.Contains(key, "/versions/") {
			return key
		}
		return fmt.Sprintf("%s/versions/%s", key, version)
	}
	return fmt.Sprintf("projects/%s/secrets/%s/versions/%s", p.projectID, key, version)
}

// Resolve fetches a secret from GCP Secret Manager
func (p *GCPSecretManagerProvider) Resolve(ctx context.Context, ref secrets.Reference) (secrets.SecretValue, error) {
	name := p.resourceName(ref.Key, ref.Version)

	p.logger.Debug("Accessing GCP secret: %s", logging.Secret(ref.Key))

	resp, err := p.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: name,
	})
	if err != nil {
		if isGCPNotFoundError(err) {
			return secrets.SecretValue{}, secrets.NotFoundError{
				Provider: p.name,
				Key:      ref.Key,
			}
		}
		if isGCPAuthError(err) {
			return secrets.SecretValue{}, secrets.AuthError{
				Provider: p.name,
				Message:  err.Error(),
			}
		}
		return secrets.SecretValue{}, fmt.Errorf("GCP Secret Manager error: %w", err)
	}

	value := string(resp.Payload.Data)

	if ref.Field != "" {
		extracted, err := extractJSONField(value, ref.Field)
		if err != nil {
			return secrets.SecretValue{}, fmt.Errorf("failed to extract JSON field '%s': %w", ref.Field, err)
		}
		value = extracted
	}

	version := "latest"
	if idx := strings.LastIndex(resp.Name, "/versions/"); idx != -1 {
		version = resp.Name[idx+len("/versions/"):]
	}

	return secrets.SecretValue{
		Value:   value,
		Version: version,
		Metadata: map[string]string{
			"provider":   p.name,
			"project_id": p.projectID,
			"source":     fmt.Sprintf("gcp-sm:%s", ref.Key),
		},
	}, nil
}

// Describe returns metadata about a GCP secret without retrieving its value
func (p *GCPSecretManagerProvider) Describe(ctx context.Context, ref secrets.Reference) (secrets.Metadata, error) {
	name := p.resourceName(ref.Key, "")
	// Strip the version suffix; GetSecret addresses the secret itself
	name = strings.TrimSuffix(name, "/versions/latest")

	secret, err := p.client.GetSecret(ctx, &secretmanagerpb.GetSecretRequest{Name: name})
	if err != nil {
		if isGCPNotFoundError(err) {
			return secrets.Metadata{Exists: false}, nil
		}
		return secrets.Metadata{}, fmt.Errorf("failed to describe GCP secret: %w", err)
	}

	metadata := secrets.Metadata{
		Exists: true,
		Type:   "gcp-secret",
		Tags: map[string]string{
			"provider":   p.name,
			"project_id": p.projectID,
		},
	}
	for k, v := range secret.Labels {
		metadata.Tags[k] = v
	}
	if secret.CreateTime != nil {
		metadata.UpdatedAt = secret.CreateTime.AsTime()
	}

	return metadata, nil
}

// Capabilities returns the provider's capabilities
func (p *GCPSecretManagerProvider) Capabilities() secrets.Capabilities {
	return secrets.Capabilities{
		SupportsVersioning: true,
		SupportsMetadata:   true,
		SupportsBinary:     true,
		RequiresAuth:       true,
		AuthMethods:        []string{"application_default", "service_account_key", "impersonation"},
	}
}

// Validate checks if the provider is properly configured and accessible
func (p *GCPSecretManagerProvider) Validate(ctx context.Context) error {
	// Only the real client can list; mock clients used in tests pass by default
	if p.realClient == nil {
		return nil
	}

	it := p.realClient.ListSecrets(ctx, &secretmanagerpb.ListSecretsRequest{
		Parent:   fmt.Sprintf("projects/%s", p.projectID),
		PageSize: 1,
	})
	if _, err := it.Next(); err != nil && err != iterator.Done {
		return inferrors.UserError{
			Message:    "Failed to connect to GCP Secret Manager",
			Details:    err.Error(),
			Suggestion: "Check application default credentials and the secretmanager.viewer role",
			Err:        err,
		}
	}

	return nil
}

// isGCPNotFoundError checks if the error indicates a missing secret or version
func isGCPNotFoundError(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "NotFound") || strings.Contains(errStr, "not found") ||
		strings.Contains(errStr, "code = 5")
}

// isGCPAuthError checks for authentication/permission failures
func isGCPAuthError(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "PermissionDenied") ||
		strings.Contains(errStr, "Unauthenticated") ||
		strings.Contains(errStr, "could not find default credentials")
}

// NewGCPSecretManagerProviderFactory creates a GCP Secret Manager provider factory
func NewGCPSecretManagerProviderFactory(name string, config map[string]interface{}) (secrets.Provider, error) {
	return NewGCPSecretManagerProvider(name, config)
}

// Package secrets defines the core interfaces and types for secret store
// providers in the SubHub shared infrastructure library.
//
// SubHub services keep their credentials (Looker service accounts, warehouse
// passwords, API keys) in a managed vault. Azure Key Vault is the canonical
// store; AWS Secrets Manager and GCP Secret Manager are supported for teams
// deployed on those clouds, and a static in-memory store exists for tests and
// local development. All implementations satisfy the Provider interface so
// the rest of the library is store-agnostic.
//
// # Error Handling
//
// Providers use the standard error types defined in this package:
//   - NotFoundError for missing secrets
//   - AuthError for authentication failures
//   - Standard Go errors for other cases
//
// # Security Considerations
//
// Providers must never log secret values (use logging.Secret when logging
// secret names near values), must support context cancellation, and must be
// safe for concurrent use.
package secrets

import (
	"context"
	"time"
)

// Provider defines the interface that all secret store providers implement.
//
// Implementations must be thread-safe as multiple goroutines may call these
// methods concurrently.
type Provider interface {
	// Name returns the provider's unique identifier, a stable lowercase
	// string matching the type used in configuration files
	// (e.g. "azure.keyvault", "aws.secretsmanager", "static").
	Name() string

	// Resolve retrieves a secret value from the provider.
	//
	// Implementations should support context cancellation, return
	// NotFoundError for missing secrets and AuthError for authentication
	// failures, and never log the secret value.
	Resolve(ctx context.Context, ref Reference) (SecretValue, error)

	// Describe returns metadata about a secret without retrieving its value.
	//
	// Returns Metadata with Exists=false if the secret doesn't exist; it
	// should not return NotFoundError for a missing secret.
	Describe(ctx context.Context, ref Reference) (Metadata, error)

	// Capabilities returns the provider's supported features and limitations.
	Capabilities() Capabilities

	// Validate checks if the provider is properly configured and can reach
	// its backend with the credentials it holds. Called by `doctor` and by
	// the facade's Initialize before any secret operation.
	Validate(ctx context.Context) error
}

// Reference identifies a secret within a provider.
//
// Different stores use different addressing schemes:
//   - Azure Key Vault: Key is the secret name, optionally "name/version"
//   - AWS Secrets Manager: Key is the secret name or ARN
//   - GCP Secret Manager: Key is the secret ID or full resource name
type Reference struct {
	// Provider is the name of the provider that owns this secret.
	Provider string

	// Key identifies the secret within the provider's namespace.
	Key string

	// Version specifies a particular version of the secret.
	// Optional; empty means the current/latest version.
	Version string

	// Field selects a key inside a JSON-structured secret value.
	// Optional; empty means the whole value.
	Field string
}

// SecretValue represents a retrieved secret with its metadata.
type SecretValue struct {
	// Value is the actual secret data as a string.
	// For binary data, this should be base64 encoded.
	// Providers must never log this field.
	Value string

	// Version identifies the specific version of this secret.
	// Format is provider-specific. May be empty if versioning not supported.
	Version string

	// UpdatedAt indicates when this secret was last modified.
	// May be zero time if the provider doesn't support timestamps.
	UpdatedAt time.Time

	// Metadata contains provider-specific information about the secret.
	Metadata map[string]string
}

// Metadata describes a secret without exposing its value.
type Metadata struct {
	// Exists indicates whether the secret exists in the provider.
	// If false, other fields may be empty or meaningless.
	Exists bool

	// Version identifies the current version of the secret.
	Version string

	// UpdatedAt indicates when the secret was last modified.
	UpdatedAt time.Time

	// Size is the approximate size of the secret value in bytes.
	Size int

	// Type describes the kind of secret (password, api_key, etc.).
	Type string

	// Tags contains provider-specific metadata and labels.
	Tags map[string]string
}

// Capabilities describes what features and operations a provider supports.
type Capabilities struct {
	// SupportsVersioning indicates if the provider maintains multiple
	// versions of secrets and can retrieve specific versions.
	SupportsVersioning bool

	// SupportsMetadata indicates if the provider supports tags and other
	// attributes beyond the secret value.
	SupportsMetadata bool

	// SupportsBinary indicates if the provider can store binary data.
	SupportsBinary bool

	// RequiresAuth indicates if the provider requires authentication.
	RequiresAuth bool

	// AuthMethods lists the authentication methods supported by this
	// provider, e.g. "managed_identity", "iam", "service_account".
	AuthMethods []string
}

// NotFoundError indicates that a requested secret does not exist in the
// provider. This is distinct from authentication or permission failures.
type NotFoundError struct {
	// Provider is the name of the provider where the secret was not found.
	Provider string

	// Key is the secret identifier that could not be found.
	Key string
}

// Error implements the error interface.
func (e NotFoundError) Error() string {
	return "secret not found: " + e.Key + " in " + e.Provider
}

// AuthError indicates that authentication to the provider failed:
// credentials are invalid or expired, or permission was denied.
type AuthError struct {
	// Provider is the name of the provider that failed authentication.
	Provider string

	// Message provides details about the authentication failure.
	Message string
}

// Error implements the error interface.
func (e AuthError) Error() string {
	return "authentication failed for " + e.Provider + ": " + e.Message
}

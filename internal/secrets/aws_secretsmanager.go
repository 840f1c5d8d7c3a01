package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"

	"github.com/subhub-ai/infra/pkg/secrets"
)

// SecretsManagerClientAPI defines the interface for AWS Secrets Manager
// operations. This allows for mocking in tests.
type SecretsManagerClientAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	DescribeSecret(ctx context.Context, params *secretsmanager.DescribeSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.DescribeSecretOutput, error)
	ListSecrets(ctx context.Context, params *secretsmanager.ListSecretsInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.ListSecretsOutput, error)
}

// AWSSecretsManagerProvider implements secrets.Provider for AWS Secrets Manager
type AWSSecretsManagerProvider struct {
	name     string
	client   SecretsManagerClientAPI
	region   string
	endpoint string // Optional custom endpoint for LocalStack or testing
}

// AWSProviderOption is a functional option for configuring AWS providers
type AWSProviderOption func(*AWSSecretsManagerProvider)

// WithSecretsManagerClient sets a custom Secrets Manager client (for testing)
func WithSecretsManagerClient(client SecretsManagerClientAPI) AWSProviderOption {
	return func(p *AWSSecretsManagerProvider) {
		p.client = client
	}
}

// NewAWSSecretsManagerProvider creates a new AWS Secrets Manager provider
func NewAWSSecretsManagerProvider(name string, providerConfig map[string]interface{}, opts ...AWSProviderOption) (*AWSSecretsManagerProvider, error) {
	region := "us-east-1" // Default region
	if r, ok := providerConfig["region"].(string); ok && r != "" {
		region = r
	}

	// Optional endpoint for LocalStack/testing
	var endpoint string
	if e, ok := providerConfig["endpoint"].(string); ok && e != "" {
		endpoint = e
	}

	// Optional static credentials for LocalStack/testing
	var accessKeyID, secretAccessKey string
	if ak, ok := providerConfig["access_key_id"].(string); ok && ak != "" {
		accessKeyID = ak
	}
	if sk, ok := providerConfig["secret_access_key"].(string); ok && sk != "" {
		secretAccessKey = sk
	}

	p := &AWSSecretsManagerProvider{
		name:     name,
		region:   region,
		endpoint: endpoint,
	}

	// Apply options (allows mock client injection)
	for _, opt := range opts {
		opt(p)
	}

	if p.client == nil {
		var configOpts []func(*config.LoadOptions) error
		configOpts = append(configOpts, config.WithRegion(region))

		if accessKeyID != "" && secretAccessKey != "" {
			configOpts = append(configOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
			))
		}

		cfg, err := config.LoadDefaultConfig(context.Background(), configOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}

		var clientOpts []func(*secretsmanager.Options)
		if endpoint != "" {
			clientOpts = append(clientOpts, func(o *secretsmanager.Options) {
				o.BaseEndpoint = &endpoint
			})
		}
		p.client = secretsmanager.NewFromConfig(cfg, clientOpts...)
	}

	return p, nil
}

// Name returns the provider name
func (p *AWSSecretsManagerProvider) Name() string {
	return p.name
}

// Resolve retrieves a secret from AWS Secrets Manager
func (p *AWSSecretsManagerProvider) Resolve(ctx context.Context, ref secrets.Reference) (secrets.SecretValue, error) {
	secretName, field := p.parseKey(ref.Key)
	if field == "" {
		field = ref.Field
	}

	input := &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretName),
	}

	if ref.Version != "" && ref.Version != "latest" {
		if isAWSVersionID(ref.Version) {
			input.VersionId = aws.String(ref.Version)
		} else {
			input.VersionStage = aws.String(ref.Version)
		}
	}

	result, err := p.client.GetSecretValue(ctx, input)
	if err != nil {
		return secrets.SecretValue{}, p.handleError(err, secretName)
	}

	var secretString string
	if result.SecretString != nil {
		secretString = *result.SecretString
	} else if result.SecretBinary != nil {
		secretString = string(result.SecretBinary)
	} else {
		return secrets.SecretValue{}, fmt.Errorf("secret '%s' has no value", secretName)
	}

	if field != "" {
		extracted, err := extractJSONField(secretString, field)
		if err != nil {
			return secrets.SecretValue{}, fmt.Errorf("failed to extract JSON field '%s': %w", field, err)
		}
		secretString = extracted
	}

	metadata := map[string]string{
		"provider":    p.name,
		"secret_name": secretName,
		"region":      p.region,
	}
	if result.VersionId != nil {
		metadata["version_id"] = *result.VersionId
	}
	if len(result.VersionStages) > 0 {
		metadata["version_stage"] = result.VersionStages[0]
	}

	return secrets.SecretValue{
		Value:     secretString,
		Version:   p.getVersionString(result),
		UpdatedAt: p.getUpdatedTime(result),
		Metadata:  metadata,
	}, nil
}

// Describe returns metadata about an AWS Secrets Manager secret
func (p *AWSSecretsManagerProvider) Describe(ctx context.Context, ref secrets.Reference) (secrets.Metadata, error) {
	secretName, _ := p.parseKey(ref.Key)

	input := &secretsmanager.DescribeSecretInput{
		SecretId: aws.String(secretName),
	}

	result, err := p.client.DescribeSecret(ctx, input)
	if err != nil {
		if isAWSNotFoundError(err) {
			return secrets.Metadata{Exists: false}, nil
		}
		return secrets.Metadata{}, p.handleError(err, secretName)
	}

	return secrets.Metadata{
		Exists:    true,
		Version:   p.getLatestVersionID(result),
		UpdatedAt: p.getLastChangedDate(result),
		Type:      "aws-secret",
		Tags: map[string]string{
			"provider":    p.name,
			"secret_name": secretName,
			"region":      p.region,
		},
	}, nil
}

// Capabilities returns AWS Secrets Manager provider capabilities
func (p *AWSSecretsManagerProvider) Capabilities() secrets.Capabilities {
	return secrets.Capabilities{
		SupportsVersioning: true,
		SupportsMetadata:   true,
		SupportsBinary:     true,
		RequiresAuth:       true,
		AuthMethods:        []string{"aws-credentials", "iam-role", "environment-variables"},
	}
}

// Validate checks if AWS credentials are configured and accessible
func (p *AWSSecretsManagerProvider) Validate(ctx context.Context) error {
	// Try to list secrets (with limit 1) to verify credentials
	input := &secretsmanager.ListSecretsInput{
		MaxResults: aws.Int32(1),
	}

	if _, err := p.client.ListSecrets(ctx, input); err != nil {
		return secrets.AuthError{
			Provider: p.name,
			Message:  fmt.Sprintf("AWS authentication failed: %v", err),
		}
	}

	return nil
}

// parseKey parses AWS SM key formats:
// - "secret-name" -> secret-name, ""
// - "secret-name#.field" -> secret-name, ".field"
// - "secret/path" -> secret/path, ""
func (p *AWSSecretsManagerProvider) parseKey(key string) (secretName, field string) {
	if idx := strings.Index(key, "#"); idx != -1 {
		return key[:idx], key[idx+1:]
	}
	return key, ""
}

// handleError converts AWS errors to provider errors
func (p *AWSSecretsManagerProvider) handleError(err error, secretName string) error {
	if isAWSNotFoundError(err) {
		return secrets.NotFoundError{
			Provider: p.name,
			Key:      secretName,
		}
	}

	if isAWSAuthError(err) {
		return secrets.AuthError{
			Provider: p.name,
			Message:  fmt.Sprintf("AWS authentication/authorization failed: %v", err),
		}
	}

	return fmt.Errorf("AWS Secrets Manager error: %w", err)
}

func (p *AWSSecretsManagerProvider) getVersionString(result *secretsmanager.GetSecretValueOutput) string {
	if result.VersionId != nil {
		return *result.VersionId
	}
	if len(result.VersionStages) > 0 {
		return result.VersionStages[0]
	}
	return "latest"
}

func (p *AWSSecretsManagerProvider) getUpdatedTime(result *secretsmanager.GetSecretValueOutput) time.Time {
	if result.CreatedDate != nil {
		return *result.CreatedDate
	}
	return time.Now()
}

func (p *AWSSecretsManagerProvider) getLatestVersionID(result *secretsmanager.DescribeSecretOutput) string {
	for versionID, stages := range result.VersionIdsToStages {
		for _, stage := range stages {
			if stage == "AWSCURRENT" {
				return versionID
			}
		}
	}
	return "latest"
}

func (p *AWSSecretsManagerProvider) getLastChangedDate(result *secretsmanager.DescribeSecretOutput) time.Time {
	if result.LastChangedDate != nil {
		return *result.LastChangedDate
	}
	if result.CreatedDate != nil {
		return *result.CreatedDate
	}
	return time.Now()
}

// isAWSNotFoundError checks for the Secrets Manager not-found error type
func isAWSNotFoundError(err error) bool {
	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return true
	}
	return strings.Contains(err.Error(), "ResourceNotFoundException")
}

// isAWSAuthError checks for authentication/authorization failures
func isAWSAuthError(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "AccessDenied") ||
		strings.Contains(errStr, "UnrecognizedClientException") ||
		strings.Contains(errStr, "InvalidSignatureException") ||
		strings.Contains(errStr, "ExpiredToken") ||
		strings.Contains(errStr, "no valid credential")
}

// isAWSVersionID reports whether a version string looks like a version UUID
// rather than a staging label such as AWSCURRENT.
func isAWSVersionID(version string) bool {
	return len(version) >= 32 && strings.Count(version, "-") >= 4
}

// NewAWSSecretsManagerProviderFactory creates an AWS Secrets Manager provider factory
func NewAWSSecretsManagerProviderFactory(name string, config map[string]interface{}) (secrets.Provider, error) {
	return NewAWSSecretsManagerProvider(name, config)
}

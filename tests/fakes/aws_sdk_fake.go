package fakes

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

// FakeSecretsManagerClient is a mock AWS Secrets Manager client
// covering the subset of operations the provider uses.
type FakeSecretsManagerClient struct {
	// Secrets maps secret names to their data
	Secrets map[string]*SecretData
	// Errors maps secret names to errors to return
	Errors map[string]error
	// ListSecretsErr is returned from ListSecrets when set
	ListSecretsErr error
}

// SecretData holds the data for a mock secret
type SecretData struct {
	SecretString       *string
	SecretBinary       []byte
	VersionID          *string
	VersionStages      []string
	CreatedDate        *time.Time
	LastChangedDate    *time.Time
	VersionIdsToStages map[string][]string
}

// NewFakeSecretsManagerClient creates a new mock Secrets Manager client
func NewFakeSecretsManagerClient() *FakeSecretsManagerClient {
	return &FakeSecretsManagerClient{
		Secrets: make(map[string]*SecretData),
		Errors:  make(map[string]error),
	}
}

// AddSecretString adds a string secret to the mock client
func (f *FakeSecretsManagerClient) AddSecretString(name, value string) {
	now := time.Now()
	versionID := "v1-abc123"
	f.Secrets[name] = &SecretData{
		SecretString:    aws.String(value),
		VersionID:       aws.String(versionID),
		VersionStages:   []string{"AWSCURRENT"},
		CreatedDate:     &now,
		LastChangedDate: &now,
		VersionIdsToStages: map[string][]string{
			versionID: {"AWSCURRENT"},
		},
	}
}

// AddError configures the mock to return an error for a specific secret
func (f *FakeSecretsManagerClient) AddError(name string, err error) {
	f.Errors[name] = err
}

// GetSecretValue mocks the GetSecretValue operation
func (f *FakeSecretsManagerClient) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	name := aws.ToString(params.SecretId)

	if err, exists := f.Errors[name]; exists {
		return nil, err
	}

	data, exists := f.Secrets[name]
	if !exists {
		return nil, &types.ResourceNotFoundException{
			Message: aws.String("Secrets Manager can't find the specified secret."),
		}
	}

	return &secretsmanager.GetSecretValueOutput{
		Name:          aws.String(name),
		SecretString:  data.SecretString,
		SecretBinary:  data.SecretBinary,
		VersionId:     data.VersionID,
		VersionStages: data.VersionStages,
		CreatedDate:   data.CreatedDate,
	}, nil
}

// DescribeSecret mocks the DescribeSecret operation
func (f *FakeSecretsManagerClient) DescribeSecret(ctx context.Context, params *secretsmanager.DescribeSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.DescribeSecretOutput, error) {
	name := aws.ToString(params.SecretId)

	if err, exists := f.Errors[name]; exists {
		return nil, err
	}

	data, exists := f.Secrets[name]
	if !exists {
		return nil, &types.ResourceNotFoundException{
			Message: aws.String("Secrets Manager can't find the specified secret."),
		}
	}

	return &secretsmanager.DescribeSecretOutput{
		Name:               aws.String(name),
		CreatedDate:        data.CreatedDate,
		LastChangedDate:    data.LastChangedDate,
		VersionIdsToStages: data.VersionIdsToStages,
	}, nil
}

// ListSecrets mocks the ListSecrets operation
func (f *FakeSecretsManagerClient) ListSecrets(ctx context.Context, params *secretsmanager.ListSecretsInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.ListSecretsOutput, error) {
	if f.ListSecretsErr != nil {
		return nil, f.ListSecretsErr
	}

	var entries []types.SecretListEntry
	for name := range f.Secrets {
		entries = append(entries, types.SecretListEntry{Name: aws.String(name)})
		break
	}

	return &secretsmanager.ListSecretsOutput{SecretList: entries}, nil
}

package fakes

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
)

// FakeAzureKeyVaultClient is a mock Azure Key Vault client covering the
// subset of operations the Key Vault provider uses.
type FakeAzureKeyVaultClient struct {
	// Secrets maps secret names to their data
	Secrets map[string]*AzureSecretData
	// Errors maps secret names to errors to return
	Errors map[string]error
	// GetSecretFunc allows custom behavior for GetSecret
	GetSecretFunc func(ctx context.Context, name string, version string) (azsecrets.GetSecretResponse, error)
}

// AzureSecretData holds the data for a mock Azure Key Vault secret
type AzureSecretData struct {
	Value      *string
	Attributes *azsecrets.SecretAttributes
	// Versions maps version IDs to version-specific values
	Versions map[string]string
}

// NewFakeAzureKeyVaultClient creates a new mock Azure Key Vault client
func NewFakeAzureKeyVaultClient() *FakeAzureKeyVaultClient {
	return &FakeAzureKeyVaultClient{
		Secrets: make(map[string]*AzureSecretData),
		Errors:  make(map[string]error),
	}
}

// AddSecretString adds a string secret to the mock client
func (f *FakeAzureKeyVaultClient) AddSecretString(name, value string) {
	now := time.Now()
	f.Secrets[name] = &AzureSecretData{
		Value: to.Ptr(value),
		Attributes: &azsecrets.SecretAttributes{
			Enabled: to.Ptr(true),
			Created: &now,
			Updated: &now,
		},
		Versions: make(map[string]string),
	}
}

// AddSecretWithVersion adds a secret version to the mock client
func (f *FakeAzureKeyVaultClient) AddSecretWithVersion(name, value, version string) {
	if _, exists := f.Secrets[name]; !exists {
		f.AddSecretString(name, value)
	}
	f.Secrets[name].Versions[version] = value
}

// AddError configures the mock to return an error for a specific secret
func (f *FakeAzureKeyVaultClient) AddError(name string, err error) {
	f.Errors[name] = err
}

// GetSecret mocks the GetSecret operation
func (f *FakeAzureKeyVaultClient) GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error) {
	if f.GetSecretFunc != nil {
		return f.GetSecretFunc(ctx, name, version)
	}

	if err, exists := f.Errors[name]; exists {
		return azsecrets.GetSecretResponse{}, err
	}

	data, exists := f.Secrets[name]
	if !exists {
		return azsecrets.GetSecretResponse{}, fmt.Errorf("SecretNotFound: a secret with name %q was not found in this key vault", name)
	}

	value := data.Value
	if version != "" {
		versioned, ok := data.Versions[version]
		if !ok {
			return azsecrets.GetSecretResponse{}, fmt.Errorf("SecretNotFound: version %q of secret %q was not found", version, name)
		}
		value = to.Ptr(versioned)
	}

	return azsecrets.GetSecretResponse{
		Secret: azsecrets.Secret{
			Value:      value,
			Attributes: data.Attributes,
		},
	}, nil
}

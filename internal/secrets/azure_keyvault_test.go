package secrets_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalsecrets "github.com/subhub-ai/infra/internal/secrets"
	"github.com/subhub-ai/infra/pkg/secrets"
	"github.com/subhub-ai/infra/tests/fakes"
)

func newAzureProvider(t *testing.T, fake *fakes.FakeAzureKeyVaultClient) *internalsecrets.AzureKeyVaultProvider {
	config := map[string]interface{}{"vault_url": "https://test-vault.vault.azure.net"}
	p, err := internalsecrets.NewAzureKeyVaultProvider("azure-kv", config,
		internalsecrets.WithAzureKeyVaultClient(fake))
	require.NoError(t, err)
	return p
}

func TestAzureKeyVaultProviderName(t *testing.T) {
	t.Parallel()

	p := newAzureProvider(t, fakes.NewFakeAzureKeyVaultClient())
	assert.Equal(t, "azure-kv", p.Name())
}

func TestAzureKeyVaultProviderRequiresVaultURL(t *testing.T) {
	t.Parallel()

	_, err := internalsecrets.NewAzureKeyVaultProvider("azure-kv", map[string]interface{}{},
		internalsecrets.WithAzureKeyVaultClient(fakes.NewFakeAzureKeyVaultClient()))
	assert.Error(t, err)
}

func TestAzureKeyVaultProviderResolve(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeAzureKeyVaultClient()
	fake.AddSecretString("looker-client-id", "id-123")
	p := newAzureProvider(t, fake)

	value, err := p.Resolve(context.Background(), secrets.Reference{Key: "looker-client-id"})
	require.NoError(t, err)
	assert.Equal(t, "id-123", value.Value)
	assert.Contains(t, value.Metadata["source"], "looker-client-id")
}

func TestAzureKeyVaultProviderResolveNotFound(t *testing.T) {
	t.Parallel()

	p := newAzureProvider(t, fakes.NewFakeAzureKeyVaultClient())

	_, err := p.Resolve(context.Background(), secrets.Reference{Key: "missing"})
	require.Error(t, err)

	var notFound secrets.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing", notFound.Key)
}

func TestAzureKeyVaultProviderResolveVersion(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeAzureKeyVaultClient()
	fake.AddSecretString("api-key", "current")
	fake.AddSecretWithVersion("api-key", "older", "v2")
	p := newAzureProvider(t, fake)

	// Version embedded in the key
	value, err := p.Resolve(context.Background(), secrets.Reference{Key: "api-key/v2"})
	require.NoError(t, err)
	assert.Equal(t, "older", value.Value)

	// Version on the reference
	value, err = p.Resolve(context.Background(), secrets.Reference{Key: "api-key", Version: "v2"})
	require.NoError(t, err)
	assert.Equal(t, "older", value.Value)
}

func TestAzureKeyVaultProviderResolveJSONField(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeAzureKeyVaultClient()
	fake.AddSecretString("db-config", `{"username": "app", "nested": {"password": "pw"}}`)
	p := newAzureProvider(t, fake)

	value, err := p.Resolve(context.Background(), secrets.Reference{Key: "db-config#username"})
	require.NoError(t, err)
	assert.Equal(t, "app", value.Value)

	value, err = p.Resolve(context.Background(), secrets.Reference{Key: "db-config", Field: "nested.password"})
	require.NoError(t, err)
	assert.Equal(t, "pw", value.Value)
}

func TestAzureKeyVaultProviderDescribe(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeAzureKeyVaultClient()
	fake.AddSecretString("present", "value")
	p := newAzureProvider(t, fake)

	metadata, err := p.Describe(context.Background(), secrets.Reference{Key: "present"})
	require.NoError(t, err)
	assert.True(t, metadata.Exists)
	assert.False(t, metadata.UpdatedAt.IsZero())

	metadata, err = p.Describe(context.Background(), secrets.Reference{Key: "absent"})
	require.NoError(t, err)
	assert.False(t, metadata.Exists)
}

func TestAzureKeyVaultProviderCapabilities(t *testing.T) {
	t.Parallel()

	p := newAzureProvider(t, fakes.NewFakeAzureKeyVaultClient())

	caps := p.Capabilities()
	assert.True(t, caps.SupportsVersioning)
	assert.True(t, caps.SupportsMetadata)
	assert.True(t, caps.RequiresAuth)
}

func TestAzureKeyVaultProviderLive(t *testing.T) {
	if _, exists := os.LookupEnv("SUBHUB_TEST_AZURE"); !exists {
		t.Skip("Skipping Azure Key Vault live test. Set SUBHUB_TEST_AZURE=1 to run.")
	}

	config := map[string]interface{}{"vault_url": os.Getenv("AZURE_VAULT_URL")}
	p, err := internalsecrets.NewAzureKeyVaultProvider("live-azure", config)
	require.NoError(t, err)

	require.NoError(t, p.Validate(context.Background()))
}

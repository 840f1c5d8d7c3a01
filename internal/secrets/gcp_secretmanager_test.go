package secrets_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalsecrets "github.com/subhub-ai/infra/internal/secrets"
	"github.com/subhub-ai/infra/pkg/secrets"
	"github.com/subhub-ai/infra/tests/fakes"
)

func newGCPProvider(t *testing.T, fake *fakes.FakeGCPSecretManagerClient) *internalsecrets.GCPSecretManagerProvider {
	p, err := internalsecrets.NewGCPSecretManagerProvider("gcp-sm",
		map[string]interface{}{"project_id": "subhub-prod"},
		internalsecrets.WithGCPSecretManagerClient(fake))
	require.NoError(t, err)
	return p
}

func TestGCPSecretManagerProviderRequiresProject(t *testing.T) {
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")

	_, err := internalsecrets.NewGCPSecretManagerProvider("gcp-sm",
		map[string]interface{}{},
		internalsecrets.WithGCPSecretManagerClient(fakes.NewFakeGCPSecretManagerClient()))
	assert.Error(t, err)
}

func TestGCPSecretManagerProviderProjectFromEnv(t *testing.T) {
	t.Setenv("GOOGLE_CLOUD_PROJECT", "subhub-staging")

	fake := fakes.NewFakeGCPSecretManagerClient()
	fake.AddSecret("subhub-staging", "key", "value")

	p, err := internalsecrets.NewGCPSecretManagerProvider("gcp-sm",
		map[string]interface{}{},
		internalsecrets.WithGCPSecretManagerClient(fake))
	require.NoError(t, err)

	value, err := p.Resolve(context.Background(), secrets.Reference{Key: "key"})
	require.NoError(t, err)
	assert.Equal(t, "value", value.Value)
}

func TestGCPSecretManagerProviderResolve(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeGCPSecretManagerClient()
	fake.AddSecret("subhub-prod", "looker-client-secret", "s3cr3t")
	p := newGCPProvider(t, fake)

	value, err := p.Resolve(context.Background(), secrets.Reference{Key: "looker-client-secret"})
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", value.Value)
	assert.Equal(t, "1", value.Version)
}

func TestGCPSecretManagerProviderResolveNotFound(t *testing.T) {
	t.Parallel()

	p := newGCPProvider(t, fakes.NewFakeGCPSecretManagerClient())

	_, err := p.Resolve(context.Background(), secrets.Reference{Key: "missing"})
	require.Error(t, err)

	var notFound secrets.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestGCPSecretManagerProviderResolveFullResourceName(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeGCPSecretManagerClient()
	fake.AddSecret("other-project", "shared-key", "shared-value")
	p := newGCPProvider(t, fake)

	value, err := p.Resolve(context.Background(), secrets.Reference{
		Key: "projects/other-project/secrets/shared-key",
	})
	require.NoError(t, err)
	assert.Equal(t, "shared-value", value.Value)
}

func TestGCPSecretManagerProviderDescribe(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeGCPSecretManagerClient()
	fake.AddSecret("subhub-prod", "present", "value")
	p := newGCPProvider(t, fake)

	metadata, err := p.Describe(context.Background(), secrets.Reference{Key: "present"})
	require.NoError(t, err)
	assert.True(t, metadata.Exists)

	metadata, err = p.Describe(context.Background(), secrets.Reference{Key: "absent"})
	require.NoError(t, err)
	assert.False(t, metadata.Exists)
}

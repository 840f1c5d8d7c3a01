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

func newAWSProvider(t *testing.T, fake *fakes.FakeSecretsManagerClient) *internalsecrets.AWSSecretsManagerProvider {
	p, err := internalsecrets.NewAWSSecretsManagerProvider("aws-sm",
		map[string]interface{}{"region": "eu-west-1"},
		internalsecrets.WithSecretsManagerClient(fake))
	require.NoError(t, err)
	return p
}

func TestAWSSecretsManagerProviderResolve(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeSecretsManagerClient()
	fake.AddSecretString("snowflake-username", "etl_user")
	p := newAWSProvider(t, fake)

	value, err := p.Resolve(context.Background(), secrets.Reference{Key: "snowflake-username"})
	require.NoError(t, err)
	assert.Equal(t, "etl_user", value.Value)
	assert.Equal(t, "eu-west-1", value.Metadata["region"])
	assert.Equal(t, "v1-abc123", value.Version)
}

func TestAWSSecretsManagerProviderResolveNotFound(t *testing.T) {
	t.Parallel()

	p := newAWSProvider(t, fakes.NewFakeSecretsManagerClient())

	_, err := p.Resolve(context.Background(), secrets.Reference{Key: "missing"})
	require.Error(t, err)

	var notFound secrets.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestAWSSecretsManagerProviderResolveJSONField(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeSecretsManagerClient()
	fake.AddSecretString("db-config", `{"password": "pw"}`)
	p := newAWSProvider(t, fake)

	value, err := p.Resolve(context.Background(), secrets.Reference{Key: "db-config#password"})
	require.NoError(t, err)
	assert.Equal(t, "pw", value.Value)
}

func TestAWSSecretsManagerProviderDescribe(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeSecretsManagerClient()
	fake.AddSecretString("present", "value")
	p := newAWSProvider(t, fake)

	metadata, err := p.Describe(context.Background(), secrets.Reference{Key: "present"})
	require.NoError(t, err)
	assert.True(t, metadata.Exists)
	assert.Equal(t, "v1-abc123", metadata.Version, "current version comes from the AWSCURRENT stage")

	metadata, err = p.Describe(context.Background(), secrets.Reference{Key: "absent"})
	require.NoError(t, err)
	assert.False(t, metadata.Exists)
}

func TestAWSSecretsManagerProviderValidate(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeSecretsManagerClient()
	p := newAWSProvider(t, fake)
	assert.NoError(t, p.Validate(context.Background()))

	fake.ListSecretsErr = assert.AnError
	err := p.Validate(context.Background())
	require.Error(t, err)

	var authErr secrets.AuthError
	assert.ErrorAs(t, err, &authErr)
}

func TestAWSSecretsManagerProviderDefaultRegion(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeSecretsManagerClient()
	fake.AddSecretString("key", "value")
	p, err := internalsecrets.NewAWSSecretsManagerProvider("aws-sm",
		map[string]interface{}{},
		internalsecrets.WithSecretsManagerClient(fake))
	require.NoError(t, err)

	value, err := p.Resolve(context.Background(), secrets.Reference{Key: "key"})
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", value.Metadata["region"])
}
